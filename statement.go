package xrel

// Insert is a parameterized INSERT statement plus one argument row per
// record. Executing SQL once per element of Args inserts the whole batch;
// every element has exactly one value per placeholder.
type Insert struct {
	SQL  string
	Args [][]any
}

// BuildInsert validates records and returns the INSERT statement for them.
//
// The statement text is independent of the batch size:
//
//	INSERT INTO payment (customer_id, amount, account_name) VALUES (?, ?, ?)
//
// A record that does not fit the relation yields a *DecodeError whose Row
// is the record's index.
func (r *Relation) BuildInsert(records []Record) (Insert, error) {
	ins := Insert{SQL: r.insertSQL()}
	if len(records) == 0 {
		return ins, nil
	}
	ins.Args = make([][]any, len(records))
	for i, rec := range records {
		args, err := r.decode(rec, i)
		if err != nil {
			return Insert{}, err
		}
		ins.Args[i] = args
	}
	return ins, nil
}

// BuildSelect returns the statement that reads every row of the relation,
// projecting columns in position order.
func (r *Relation) BuildSelect() string {
	return "SELECT " + r.cols + " FROM " + r.table
}

func (r *Relation) insertSQL() string {
	return "INSERT INTO " + r.table + " (" + r.cols + ") VALUES " + r.vals
}
