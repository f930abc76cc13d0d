package xrel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSchema is matched by every *SchemaError.
var ErrSchema = errors.New("xrel: invalid schema")

var (
	// ErrArityMismatch is matched by a *DecodeError whose row width differs
	// from the relation's field count.
	ErrArityMismatch = errors.New("xrel: arity mismatch")

	// ErrTypeMismatch is matched by a *DecodeError whose value cannot be
	// converted to the declared field type.
	ErrTypeMismatch = errors.New("xrel: type mismatch")

	// ErrUnexpectedNull is matched by a *DecodeError reporting NULL in a
	// field that is not optional.
	ErrUnexpectedNull = errors.New("xrel: unexpected null")
)

// SchemaError reports a malformed relation or struct description. It is
// returned at declaration time, never while building statements.
type SchemaError struct {
	Table  string
	Field  string // empty when the problem is not tied to one field
	Reason string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("xrel: invalid schema")
	if e.Table != "" {
		b.WriteString(" for ")
		b.WriteString(strconv.Quote(e.Table))
	}
	if e.Field != "" {
		b.WriteString(": field ")
		b.WriteString(strconv.Quote(e.Field))
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

func schemaErrorf(table, field, format string, args ...any) *SchemaError {
	return &SchemaError{Table: table, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// DecodeErrorKind classifies a *DecodeError.
type DecodeErrorKind uint8

const (
	ArityMismatch DecodeErrorKind = iota + 1
	TypeMismatch
	UnexpectedNull
)

func (k DecodeErrorKind) String() string {
	switch k {
	case ArityMismatch:
		return "arity mismatch"
	case TypeMismatch:
		return "type mismatch"
	case UnexpectedNull:
		return "unexpected null"
	default:
		return "DecodeErrorKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// DecodeError reports a row that could not be converted to a record.
//
// Row is the zero-based index of the row within a batch, or -1 when a single
// row was decoded on its own. Expected and Got describe the mismatch: for
// ArityMismatch they hold value counts, for TypeMismatch the declared type
// and the Go type of the raw value.
type DecodeError struct {
	Kind     DecodeErrorKind
	Table    string
	Row      int
	Field    string
	Expected string
	Got      string
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString("xrel: decode ")
	b.WriteString(e.Table)
	if e.Row >= 0 {
		b.WriteString(" row ")
		b.WriteString(strconv.Itoa(e.Row))
	}
	if e.Field != "" {
		b.WriteString(": field ")
		b.WriteString(strconv.Quote(e.Field))
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	switch e.Kind {
	case ArityMismatch, TypeMismatch:
		b.WriteString(": expected ")
		b.WriteString(e.Expected)
		b.WriteString(", got ")
		b.WriteString(e.Got)
	case UnexpectedNull:
		b.WriteString(": expected ")
		b.WriteString(e.Expected)
	}
	return b.String()
}

func (e *DecodeError) Unwrap() error {
	switch e.Kind {
	case ArityMismatch:
		return ErrArityMismatch
	case TypeMismatch:
		return ErrTypeMismatch
	case UnexpectedNull:
		return ErrUnexpectedNull
	}
	return nil
}
