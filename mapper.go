package xrel

import (
	"database/sql"
	"fmt"
	"reflect"
	"sync"
	"time"
)

// Mapper owns the descriptor caches behind Describe and Bind. Use the
// package-level lazy getter (getMapper) or create your own in tests.
type Mapper struct {
	tableCache       sync.Map // key: tableKey -> *Table[T]
	structIndexCache sync.Map // key: reflect.Type -> *structIndex
}

func NewMapper() *Mapper { return &Mapper{} }

// --- package-level lazy global mapper (used by Describe/Bind) ---

var (
	mapper     *Mapper
	mapperOnce sync.Once
)

func getMapper() *Mapper {
	mapperOnce.Do(func() { mapper = NewMapper() })
	return mapper
}

type tableKey struct {
	rt    reflect.Type
	table string
	ph    Placeholder
}

// ---------------- Struct indexing & tags ----------------

// shape is how a struct field holds its value.
type shape uint8

const (
	shapeValue shape = iota // T
	shapePtr                // *T, nil for NULL
	shapeNull               // sql.NullX, Valid=false for NULL
)

type structField struct {
	name  string
	path  []int
	goTyp reflect.Type
	typ   Type
	shape shape
}

type structIndex struct {
	fields []structField  // declaration order, inline structs flattened
	byName map[string]int // lower-case name -> index into fields
	err    *SchemaError   // first unsupported field, if any
}

func (m *Mapper) structIndex(rt reflect.Type) *structIndex {
	if v, ok := m.structIndexCache.Load(rt); ok {
		return v.(*structIndex)
	}
	si := buildStructIndex(rt)
	v, _ := m.structIndexCache.LoadOrStore(rt, si)
	return v.(*structIndex)
}

func buildStructIndex(rt reflect.Type) *structIndex {
	si := &structIndex{byName: make(map[string]int)}
	if rt.Kind() != reflect.Struct {
		si.err = schemaErrorf("", "", "%s is not a struct", rt)
		return si
	}

	var walk func(t reflect.Type, base []int)
	walk = func(t reflect.Type, base []int) {
		for i := 0; i < t.NumField() && si.err == nil; i++ {
			sf := t.Field(i)
			if sf.PkgPath != "" && !sf.Anonymous { // unexported, non-anonymous
				continue
			}
			tag := sf.Tag.Get("db")
			name, inline, omit := parseTag(tag)
			if omit {
				continue
			}
			path := append(append([]int(nil), base...), i)

			if (inline || (sf.Anonymous && tag == "")) && isInlineStruct(sf.Type) {
				if sf.PkgPath != "" && sf.Type.Kind() == reflect.Pointer {
					// reflect cannot allocate an unexported embedded pointer.
					si.err = schemaErrorf("", sf.Name, "unexported embedded pointer %s", sf.Type)
					return
				}
				walk(derefPtr(sf.Type), path)
				continue
			}
			if sf.PkgPath != "" { // unexported embedded non-struct
				continue
			}
			if name == "" {
				name = sf.Name
			}
			typ, sh, ok := fieldType(sf.Type)
			if !ok {
				si.err = schemaErrorf("", name, "unsupported Go type %s", sf.Type)
				return
			}
			key := toLowerAscii(name)
			if _, dup := si.byName[key]; dup {
				si.err = schemaErrorf("", name, "duplicate column name")
				return
			}
			si.byName[key] = len(si.fields)
			si.fields = append(si.fields, structField{name: name, path: path, goTyp: sf.Type, typ: typ, shape: sh})
		}
	}
	walk(rt, nil)
	return si
}

// parseTag supports: "-", "col", ",inline", "col,inline", "inline,col".
func parseTag(tag string) (name string, inline bool, omit bool) {
	if tag == "-" {
		return "", false, true
	}
	if tag == "" {
		return "", false, false
	}
	start := 0
	for i := 0; i <= len(tag); i++ {
		if i == len(tag) || tag[i] == ',' {
			part := tag[start:i]
			if part == "inline" {
				inline = true
			} else if part != "" && name == "" {
				name = part
			}
			start = i + 1
		}
	}
	return name, inline, false
}

// ---------------- Go type -> field type ----------------

var (
	timeType = reflect.TypeFor[time.Time]()

	// Value lives in field 0, Valid in field 1.
	nullTypes = map[reflect.Type]Type{
		reflect.TypeFor[sql.NullString]():  OptString,
		reflect.TypeFor[sql.NullInt64]():   OptInt,
		reflect.TypeFor[sql.NullInt32]():   OptInt,
		reflect.TypeFor[sql.NullInt16]():   OptInt,
		reflect.TypeFor[sql.NullByte]():    OptInt,
		reflect.TypeFor[sql.NullFloat64](): OptFloat,
		reflect.TypeFor[sql.NullBool]():    OptBool,
		reflect.TypeFor[sql.NullTime]():    OptTime,
	}
)

// isLeafStruct reports struct types that map to a single column.
func isLeafStruct(t reflect.Type) bool {
	_, isNull := nullTypes[t]
	return isNull || t == timeType
}

// isInlineStruct reports struct and pointer-to-struct types that are
// flattened into their parent when embedded or tagged inline.
func isInlineStruct(t reflect.Type) bool {
	t = derefPtr(t)
	return t.Kind() == reflect.Struct && !isLeafStruct(t)
}

func derefPtr(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

func fieldType(t reflect.Type) (Type, shape, bool) {
	if nt, ok := nullTypes[t]; ok {
		return nt, shapeNull, true
	}
	if t.Kind() == reflect.Pointer {
		if k, ok := scalarKind(t.Elem()); ok {
			return Type{Kind: k, Optional: true}, shapePtr, true
		}
		return Type{}, 0, false
	}
	if k, ok := scalarKind(t); ok {
		return Type{Kind: k}, shapeValue, true
	}
	return Type{}, 0, false
}

func scalarKind(t reflect.Type) (Kind, bool) {
	if t == timeType {
		return KindTime, true
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return KindInt, true
	case reflect.Float32, reflect.Float64:
		return KindFloat, true
	case reflect.Bool:
		return KindBool, true
	case reflect.String:
		return KindString, true
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return KindBytes, true
		}
	}
	return 0, false
}

// ---------------- Field access ----------------

// fieldByPath walks path from root. A nil embedded pointer on the way is
// allocated when alloc is set; otherwise the walk stops and ok is false.
func fieldByPath(root reflect.Value, path []int, alloc bool) (v reflect.Value, ok bool) {
	v = root
	for i, x := range path {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !alloc {
					return reflect.Value{}, false
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}

// get reads the field from root as a canonical parameter value. Fields
// behind a nil embedded pointer read as their zero value.
func (f *structField) get(root reflect.Value) any {
	v, ok := fieldByPath(root, f.path, false)
	if !ok {
		v = reflect.Zero(f.goTyp)
	}
	switch f.shape {
	case shapePtr:
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	case shapeNull:
		if !v.Field(1).Bool() {
			return nil
		}
		v = v.Field(0)
	}
	switch f.typ.Kind {
	case KindInt:
		if v.CanUint() {
			return int64(v.Uint())
		}
		return v.Int()
	case KindFloat:
		return v.Float()
	case KindBool:
		return v.Bool()
	case KindString:
		return v.String()
	case KindBytes:
		return append([]byte{}, v.Bytes()...)
	case KindTime:
		return v.Interface().(time.Time)
	}
	return nil
}

// set stores the canonical value val (nil for NULL) into the field of root.
// It fails only when val does not fit the Go type, e.g. int8 overflow.
func (f *structField) set(root reflect.Value, val any) error {
	if val == nil {
		if v, ok := fieldByPath(root, f.path, false); ok {
			v.SetZero()
		}
		return nil
	}
	v, _ := fieldByPath(root, f.path, true)
	switch f.shape {
	case shapePtr:
		p := reflect.New(f.goTyp.Elem())
		if err := assign(p.Elem(), f.typ.Kind, val); err != nil {
			return err
		}
		v.Set(p)
		return nil
	case shapeNull:
		if err := assign(v.Field(0), f.typ.Kind, val); err != nil {
			return err
		}
		v.Field(1).SetBool(true)
		return nil
	}
	return assign(v, f.typ.Kind, val)
}

func assign(dst reflect.Value, k Kind, val any) error {
	switch k {
	case KindInt:
		n := val.(int64)
		if dst.CanUint() {
			if n < 0 || dst.OverflowUint(uint64(n)) {
				return fmt.Errorf("%d overflows %s", n, dst.Type())
			}
			dst.SetUint(uint64(n))
			return nil
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("%d overflows %s", n, dst.Type())
		}
		dst.SetInt(n)
	case KindFloat:
		x := val.(float64)
		if dst.OverflowFloat(x) {
			return fmt.Errorf("%g overflows %s", x, dst.Type())
		}
		dst.SetFloat(x)
	case KindBool:
		dst.SetBool(val.(bool))
	case KindString:
		dst.SetString(val.(string))
	case KindBytes:
		dst.SetBytes(val.([]byte))
	case KindTime:
		dst.Set(reflect.ValueOf(val.(time.Time)))
	}
	return nil
}
