package xrel

import (
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"
	"time"
)

// RawRow is one result row as delivered by the driver, one value per
// selected column in projection order.
type RawRow []any

// Record is the dynamic form of a row: one canonical value per field in
// position order (see Type), nil for an absent optional value.
type Record []any

// DecodeRow converts raw into a Record.
//
// raw must hold exactly one value per field; a shorter or longer row is an
// ArityMismatch. NULL (nil) is accepted only by optional fields.
func (r *Relation) DecodeRow(raw RawRow) (Record, error) {
	return r.decode(raw, -1)
}

func (r *Relation) decode(raw []any, row int) (Record, error) {
	if err := r.checkArity(len(raw), row); err != nil {
		return nil, err
	}
	rec := make(Record, len(r.fields))
	for i, f := range r.fields {
		v, err := r.convert(f, raw[i], row)
		if err != nil {
			return nil, err
		}
		rec[i] = v
	}
	return rec, nil
}

// DecodeAll returns a lazy sequence of records decoded from rows. The
// sequence stops after yielding the first error; that error carries the
// zero-based index of the offending row.
//
//	for rec, err := range payments.DecodeAll(slices.Values(raws)) {
//	    if err != nil {
//	        return err
//	    }
//	    ...
//	}
func (r *Relation) DecodeAll(rows iter.Seq[RawRow]) iter.Seq2[Record, error] {
	return decodeSeq(rows, r.decode)
}

func decodeSeq[T any](rows iter.Seq[RawRow], decode func([]any, int) (T, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		i := 0
		for raw := range rows {
			v, err := decode(raw, i)
			if err != nil {
				var zero T
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

// Collect drains seq into a slice. It returns the first error and no
// partial result.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Encode validates rec against the relation and returns its values in
// canonical form, ready to be bound as statement parameters. It applies the
// same rules as DecodeRow.
func (r *Relation) Encode(rec Record) ([]any, error) {
	return r.decode(rec, -1)
}

func (r *Relation) checkArity(n, row int) error {
	if n == len(r.fields) {
		return nil
	}
	return &DecodeError{
		Kind:     ArityMismatch,
		Table:    r.table,
		Row:      row,
		Expected: strconv.Itoa(len(r.fields)) + " values",
		Got:      strconv.Itoa(n) + " values",
	}
}

func (r *Relation) convert(f Field, raw any, row int) (any, error) {
	if raw == nil {
		if f.Type.Optional {
			return nil, nil
		}
		return nil, &DecodeError{Kind: UnexpectedNull, Table: r.table, Row: row, Field: f.Name, Expected: f.Type.String()}
	}
	v, ok := convertValue(f.Type.Kind, raw)
	if !ok {
		return nil, &DecodeError{
			Kind:     TypeMismatch,
			Table:    r.table,
			Row:      row,
			Field:    f.Name,
			Expected: f.Type.String(),
			Got:      fmt.Sprintf("%T", raw),
		}
	}
	return v, nil
}

// convertValue maps a non-nil driver value onto the canonical Go type of k.
func convertValue(k Kind, raw any) (any, bool) {
	switch k {
	case KindInt:
		return toInt64(raw)
	case KindFloat:
		return toFloat64(raw)
	case KindBool:
		return toBool(raw)
	case KindString:
		switch v := raw.(type) {
		case string:
			return v, true
		case []byte:
			return string(v), true
		}
	case KindBytes:
		switch v := raw.(type) {
		// Never nil: a nil slice would bind as NULL.
		case []byte:
			return append([]byte{}, v...), true
		case string:
			return append([]byte{}, v...), true
		}
	case KindTime:
		switch v := raw.(type) {
		case time.Time:
			return v, true
		case string:
			return parseTime(v)
		case []byte:
			return parseTime(string(v))
		}
	}
	return nil, false
}

func toInt64(raw any) (any, bool) {
	switch v := raw.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	case int8:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return nil, false
		}
		return int64(v), true
	case uint:
		if uint64(v) > math.MaxInt64 {
			return nil, false
		}
		return int64(v), true
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return nil, false
}

func toFloat64(raw any) (any, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case []byte:
		f, err := strconv.ParseFloat(string(v), 64)
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	if n, ok := toInt64(raw); ok {
		return float64(n.(int64)), true
	}
	return nil, false
}

func toBool(raw any) (any, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case []byte:
		b, err := strconv.ParseBool(string(v))
		return b, err == nil
	case string:
		b, err := strconv.ParseBool(v)
		return b, err == nil
	}
	if n, ok := toInt64(raw); ok {
		switch n.(int64) {
		case 0:
			return false, true
		case 1:
			return true, true
		}
	}
	return nil, false
}

func parseTime(s string) (any, bool) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return nil, false
	}
	return t, true
}
