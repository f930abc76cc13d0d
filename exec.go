package xrel

import (
	"context"
	"log/slog"
)

// ExecInsert runs ins against p: the statement is prepared once and
// executed once per argument row. It returns the total number of rows
// affected as reported by the driver.
//
// Execution stops at the first failing row and the driver error is returned
// unchanged; rows inserted before it are not rolled back. Use a *sql.Tx as
// the Preparer when the batch must be atomic. An Insert without argument
// rows is a no-op and does not touch p.
//
// Example:
//
//	ins := payments.BuildInsert(batch)
//	n, err := xrel.ExecInsert(ctx, db, ins)
func ExecInsert(ctx context.Context, p Preparer, ins Insert) (total int64, err error) {
	if len(ins.Args) == 0 {
		return 0, nil
	}
	log().DebugContext(ctx, "xrel: insert", slog.String("sql", ins.SQL), slog.Int("rows", len(ins.Args)))

	stmt, err := p.PrepareContext(ctx, ins.SQL)
	if err != nil {
		return 0, err
	}
	// Propagate stmt.Close() error if nothing else failed.
	defer func() {
		if cerr := stmt.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for _, args := range ins.Args {
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return total, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// InsertAll inserts records into t's relation with one execution of a
// single prepared statement per record.
func InsertAll[T any](ctx context.Context, p Preparer, t *Table[T], records []T) (int64, error) {
	return ExecInsert(ctx, p, t.BuildInsert(records))
}

// InsertRecords is the dynamic counterpart of InsertAll. Records are
// validated before anything is sent to p.
func InsertRecords(ctx context.Context, p Preparer, rel *Relation, records []Record) (int64, error) {
	ins, err := rel.BuildInsert(records)
	if err != nil {
		return 0, err
	}
	return ExecInsert(ctx, p, ins)
}
