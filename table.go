package xrel

import (
	"fmt"
	"iter"
	"reflect"
)

// Table binds a Relation to the Go struct type T. Like the relation it
// wraps, a Table is immutable and safe for concurrent use.
type Table[T any] struct {
	rel    *Relation
	fields []structField // indexed by position
}

// Describe derives a relation named table from the struct type T and binds
// it to T.
//
// Exported fields become columns in declaration order. A `db:"name"` tag
// sets the column name (otherwise the field name is used), `db:"-"` skips
// the field and anonymous or `db:",inline"` structs are flattened in place.
// Go types map to field types as follows:
//
//	int, int8 … int64         Int
//	float32, float64          Float
//	bool                      Bool
//	string                    String
//	[]byte                    Bytes
//	time.Time                 Time
//	*T, sql.NullString, …     the optional variant of T's type
//
// Any other field type is a *SchemaError. Results are cached per
// (T, table, placeholder), so calling Describe repeatedly is cheap.
//
// Example:
//
//	type Payment struct {
//	    CustomerID  int32   `db:"customer_id"`
//	    Amount      int32   `db:"amount"`
//	    AccountName *string `db:"account_name"`
//	}
//
//	payments, err := xrel.Describe[Payment]("payment")
func Describe[T any](table string, opts ...Option) (*Table[T], error) {
	return describeWith[T](getMapper(), table, opts...)
}

// MustDescribe is like Describe but panics on error.
func MustDescribe[T any](table string, opts ...Option) *Table[T] {
	t, err := Describe[T](table, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

func describeWith[T any](m *Mapper, table string, opts ...Option) (*Table[T], error) {
	o := applyOptions(opts)
	rt := reflect.TypeFor[T]()
	key := tableKey{rt: rt, table: table, ph: o.ph}
	if v, ok := m.tableCache.Load(key); ok {
		return v.(*Table[T]), nil
	}

	si := m.structIndex(rt)
	if si.err != nil {
		return nil, withTable(si.err, table)
	}
	fields := make([]Field, len(si.fields))
	for i, sf := range si.fields {
		fields[i] = Field{Name: sf.name, Position: i, Type: sf.typ}
	}
	rel, err := NewRelation(table, fields, opts...)
	if err != nil {
		return nil, err
	}

	t := &Table[T]{rel: rel, fields: si.fields}
	v, _ := m.tableCache.LoadOrStore(key, t)
	return v.(*Table[T]), nil
}

// Bind attaches an explicitly declared relation to the struct type T.
//
// Each relation field is matched to a struct field by column name, ignoring
// ASCII case, using the same tag rules as Describe. The struct field's
// derived type must equal the relation field's type. Struct fields with no
// matching column are left untouched by decoding and never encoded.
func Bind[T any](rel *Relation) (*Table[T], error) {
	return bindWith[T](getMapper(), rel)
}

// MustBind is like Bind but panics on error.
func MustBind[T any](rel *Relation) *Table[T] {
	t, err := Bind[T](rel)
	if err != nil {
		panic(err)
	}
	return t
}

func bindWith[T any](m *Mapper, rel *Relation) (*Table[T], error) {
	si := m.structIndex(reflect.TypeFor[T]())
	if si.err != nil {
		return nil, withTable(si.err, rel.table)
	}
	fields := make([]structField, len(rel.fields))
	for i, f := range rel.fields {
		j, ok := si.byName[toLowerAscii(f.Name)]
		if !ok {
			return nil, schemaErrorf(rel.table, f.Name, "no struct field in %s", reflect.TypeFor[T]())
		}
		sf := si.fields[j]
		if sf.typ != f.Type {
			return nil, schemaErrorf(rel.table, f.Name, "declared %s but struct field %s is %s", f.Type, sf.goTyp, sf.typ)
		}
		fields[i] = sf
	}
	return &Table[T]{rel: rel, fields: fields}, nil
}

func withTable(err *SchemaError, table string) *SchemaError {
	cp := *err
	cp.Table = table
	return &cp
}

// Relation returns the relation T is bound to.
func (t *Table[T]) Relation() *Relation { return t.rel }

// Encode returns the statement parameters for rec in position order.
func (t *Table[T]) Encode(rec T) []any {
	rv := reflect.ValueOf(&rec).Elem()
	out := make([]any, len(t.fields))
	for i := range t.fields {
		out[i] = t.fields[i].get(rv)
	}
	return out
}

// BuildInsert returns the INSERT statement for records with one argument
// row per record. It cannot fail: T was checked against the relation when
// the table was built.
func (t *Table[T]) BuildInsert(records []T) Insert {
	ins := Insert{SQL: t.rel.insertSQL()}
	if len(records) == 0 {
		return ins
	}
	ins.Args = make([][]any, len(records))
	for i := range records {
		ins.Args[i] = t.Encode(records[i])
	}
	return ins
}

// BuildSelect returns the statement that reads every row of the relation.
func (t *Table[T]) BuildSelect() string { return t.rel.BuildSelect() }

// DecodeRow converts raw into a T, applying the same checks as
// Relation.DecodeRow.
func (t *Table[T]) DecodeRow(raw RawRow) (T, error) {
	return t.decode(raw, -1)
}

// DecodeAll returns a lazy sequence of T decoded from rows, stopping after
// the first error.
func (t *Table[T]) DecodeAll(rows iter.Seq[RawRow]) iter.Seq2[T, error] {
	return decodeSeq(rows, t.decode)
}

func (t *Table[T]) decode(raw []any, row int) (T, error) {
	var out T
	rec, err := t.rel.decode(raw, row)
	if err != nil {
		return out, err
	}
	rv := reflect.ValueOf(&out).Elem()
	for i := range t.fields {
		sf := &t.fields[i]
		if err := sf.set(rv, rec[i]); err != nil {
			return out, &DecodeError{
				Kind:     TypeMismatch,
				Table:    t.rel.table,
				Row:      row,
				Field:    t.rel.fields[i].Name,
				Expected: sf.goTyp.String(),
				Got:      fmt.Sprintf("%T (%v)", raw[i], err),
			}
		}
	}
	return out, nil
}
