package xrel

import (
	"slices"
	"strings"
)

// Field describes one column of a relation.
type Field struct {
	Name     string
	Position int // zero-based; fixes column order in statements and rows
	Type     Type
}

// Relation maps a record shape onto a named table with ordered columns.
//
// A Relation is immutable once NewRelation returns, so it can be shared
// freely between goroutines. Statements built from it and rows decoded
// against it always agree on column order.
type Relation struct {
	table  string
	fields []Field        // sorted by Position
	byName map[string]int // lower-case name -> position
	ph     Placeholder
	cols   string // cached ConcatenatedColumns
	vals   string // cached ValuePlaceholders
}

// Option configures a Relation.
type Option func(*options)

type options struct {
	ph Placeholder
}

// WithPlaceholder sets the parameter marker style used in generated
// statements. The default is PlaceholderQuestion.
func WithPlaceholder(ph Placeholder) Option {
	return func(o *options) { o.ph = ph }
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// NewRelation validates fields and returns the relation for table.
//
// Fields may be passed in any order; their Position values must form the
// contiguous range 0..len(fields)-1. Names must be non-empty and unique,
// compared case-insensitively. Any violation yields a *SchemaError.
//
// Example:
//
//	payments, err := xrel.NewRelation("payment", []xrel.Field{
//	    {Name: "customer_id", Position: 0, Type: xrel.Int},
//	    {Name: "amount", Position: 1, Type: xrel.Int},
//	    {Name: "account_name", Position: 2, Type: xrel.OptString},
//	})
func NewRelation(table string, fields []Field, opts ...Option) (*Relation, error) {
	o := applyOptions(opts)
	if strings.TrimSpace(table) == "" {
		return nil, schemaErrorf(table, "", "empty table name")
	}
	if len(fields) == 0 {
		return nil, schemaErrorf(table, "", "no fields")
	}
	if !o.ph.valid() {
		return nil, schemaErrorf(table, "", "unknown placeholder style %d", int(o.ph))
	}

	n := len(fields)
	sorted := make([]Field, n)
	filled := make([]bool, n)
	byName := make(map[string]int, n)
	for _, f := range fields {
		if f.Name == "" {
			return nil, schemaErrorf(table, "", "field at position %d has no name", f.Position)
		}
		if !f.Type.valid() {
			return nil, schemaErrorf(table, f.Name, "invalid type %s", f.Type)
		}
		if f.Position < 0 || f.Position >= n {
			return nil, schemaErrorf(table, f.Name, "position %d out of range 0..%d", f.Position, n-1)
		}
		if filled[f.Position] {
			return nil, schemaErrorf(table, f.Name, "position %d already taken by %q", f.Position, sorted[f.Position].Name)
		}
		key := toLowerAscii(f.Name)
		if _, dup := byName[key]; dup {
			return nil, schemaErrorf(table, f.Name, "duplicate field name")
		}
		byName[key] = f.Position
		sorted[f.Position] = f
		filled[f.Position] = true
	}
	// n fields, n distinct in-range positions: the range is covered.

	r := &Relation{table: table, fields: sorted, byName: byName, ph: o.ph}
	r.cols = strings.Join(r.Columns(), ", ")
	r.vals = placeholderTuple(r.ph, n)
	return r, nil
}

// MustRelation is like NewRelation but panics on error. It is meant for
// package-level declarations.
func MustRelation(table string, fields []Field, opts ...Option) *Relation {
	r, err := NewRelation(table, fields, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Table returns the relation name.
func (r *Relation) Table() string { return r.table }

// Len returns the number of fields.
func (r *Relation) Len() int { return len(r.fields) }

// Placeholder returns the parameter marker style.
func (r *Relation) Placeholder() Placeholder { return r.ph }

// Fields returns a copy of the fields in position order.
func (r *Relation) Fields() []Field { return slices.Clone(r.fields) }

// Field looks up a field by name, ignoring ASCII case.
func (r *Relation) Field(name string) (Field, bool) {
	i, ok := r.byName[toLowerAscii(name)]
	if !ok {
		return Field{}, false
	}
	return r.fields[i], true
}

// Columns returns the column names in position order.
func (r *Relation) Columns() []string {
	out := make([]string, len(r.fields))
	for i, f := range r.fields {
		out[i] = f.Name
	}
	return out
}

// ConcatenatedColumns returns the columns joined with ", ". The same text
// is used for the INSERT column list and the SELECT projection.
func (r *Relation) ConcatenatedColumns() string { return r.cols }

// ValuePlaceholders returns one marker per field, e.g. "(?, ?, ?)".
func (r *Relation) ValuePlaceholders() string { return r.vals }

func toLowerAscii(s string) string {
	var need bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			need = true
			break
		}
	}
	if !need {
		return s
	}
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			c = c + ('a' - 'A')
		}
		b[i] = c
	}
	return string(b)
}
