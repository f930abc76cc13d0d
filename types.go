package xrel

import "strconv"

// Kind is the scalar family of a field.
type Kind uint8

const (
	KindInt Kind = iota + 1
	KindFloat
	KindBool
	KindString
	KindBytes
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindTime:
		return "time"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Type is the semantic type of a field: a scalar kind that is either
// required or optional (nullable).
//
// Decoded values use one canonical Go type per kind: int64, float64, bool,
// string, []byte and time.Time. An absent optional value is nil.
type Type struct {
	Kind     Kind
	Optional bool
}

var (
	Int    = Type{Kind: KindInt}
	Float  = Type{Kind: KindFloat}
	Bool   = Type{Kind: KindBool}
	String = Type{Kind: KindString}
	Bytes  = Type{Kind: KindBytes}
	Time   = Type{Kind: KindTime}

	OptInt    = Optional(Int)
	OptFloat  = Optional(Float)
	OptBool   = Optional(Bool)
	OptString = Optional(String)
	OptBytes  = Optional(Bytes)
	OptTime   = Optional(Time)
)

// Optional returns the nullable variant of t.
func Optional(t Type) Type {
	t.Optional = true
	return t
}

func (t Type) valid() bool { return t.Kind >= KindInt && t.Kind <= KindTime }

func (t Type) String() string {
	if t.Optional {
		return "optional " + t.Kind.String()
	}
	return t.Kind.String()
}
