package xrel

import (
	"context"
	"database/sql"
	"iter"
	"log/slog"
)

// Stream runs t's SELECT-all statement against q and yields one T per row.
//
// The sequence is lazy and single-pass: the query is issued when iteration
// starts and the rows are closed when it ends, whether by exhaustion, an
// early break or an error. The first error ends the sequence; it is either
// the driver's error, unchanged, or a *DecodeError. A result whose column
// count differs from the relation fails with ArityMismatch before any row
// is read.
//
// No ORDER BY is issued, so rows arrive in whatever order the database
// returns them.
//
// Example:
//
//	for p, err := range xrel.Stream(ctx, db, payments) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(p.CustomerID, p.Amount)
//	}
func Stream[T any](ctx context.Context, q Querier, t *Table[T]) iter.Seq2[T, error] {
	return decodeStream(ctx, q, t.rel, t.decode)
}

// All collects Stream into a slice. On error it returns no partial result.
func All[T any](ctx context.Context, q Querier, t *Table[T]) ([]T, error) {
	return Collect(Stream(ctx, q, t))
}

// StreamRecords is the dynamic counterpart of Stream.
func StreamRecords(ctx context.Context, q Querier, rel *Relation) iter.Seq2[Record, error] {
	return decodeStream(ctx, q, rel, rel.decode)
}

// AllRecords collects StreamRecords into a slice.
func AllRecords(ctx context.Context, q Querier, rel *Relation) ([]Record, error) {
	return Collect(StreamRecords(ctx, q, rel))
}

func decodeStream[T any](ctx context.Context, q Querier, rel *Relation, decode func([]any, int) (T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		i := 0
		for raw, err := range queryRaw(ctx, q, rel) {
			if err != nil {
				yield(zero, err)
				return
			}
			v, err := decode(raw, i)
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(v, nil) {
				return
			}
			i++
		}
	}
}

// queryRaw yields the undecoded rows of rel's SELECT-all statement.
func queryRaw(ctx context.Context, q Querier, rel *Relation) iter.Seq2[RawRow, error] {
	return func(yield func(RawRow, error) bool) {
		query := rel.BuildSelect()
		log().DebugContext(ctx, "xrel: select", slog.String("sql", query))

		rows, err := q.QueryContext(ctx, query)
		if err != nil {
			yield(nil, err)
			return
		}
		stopped := false
		err = scanRows(rows, rel, func(raw RawRow) bool {
			if !yield(raw, nil) {
				stopped = true
				return false
			}
			return true
		})
		if err != nil && !stopped {
			yield(nil, err)
		}
	}
}

// scanRows feeds rows to yield until it declines or rows are exhausted.
// It always closes rows and reports the first error seen, Close included.
func scanRows(rows *sql.Rows, rel *Relation, yield func(RawRow) bool) (err error) {
	defer func() {
		if cerr := rows.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	if err := rel.checkArity(len(cols), -1); err != nil {
		return err
	}

	n := len(cols)
	for rows.Next() {
		raw := make(RawRow, n)
		dests := make([]any, n)
		for i := range raw {
			dests[i] = &raw[i]
		}
		if err := rows.Scan(dests...); err != nil {
			return err
		}
		if !yield(raw) {
			return nil
		}
	}
	return rows.Err()
}
