package chronon

import "github.com/chronon-db/chronon/internal/prop"

// Value is a property value: a tagged sum over bool, i64, u64, f64,
// string, list of Value, and map from string to Value.
type Value = prop.Value

// Kind discriminates the variant held by a Value.
type Kind = prop.Kind

const (
	KindBool = prop.KindBool
	KindI64  = prop.KindI64
	KindU64  = prop.KindU64
	KindF64  = prop.KindF64
	KindStr  = prop.KindStr
	KindList = prop.KindList
	KindMap  = prop.KindMap
)

// Bool, I64, U64, F64, Str, List, and Map construct a Value of the
// matching kind.
func Bool(v bool) Value            { return prop.Bool(v) }
func I64(v int64) Value            { return prop.I64(v) }
func U64(v uint64) Value           { return prop.U64(v) }
func F64(v float64) Value          { return prop.F64(v) }
func Str(v string) Value           { return prop.Str(v) }
func List(v []Value) Value         { return prop.List(v) }
func Map(v map[string]Value) Value { return prop.Map(v) }

// Properties is the property bag passed to AddNode, AddEdge, and the
// constant-property setters.
type Properties map[string]Value

// GetStr returns v's string payload, failing with ErrPropertyTypeMismatch
// if v does not hold a string.
func GetStr(v Value) (string, error) {
	s, ok := v.AsStr()
	if !ok {
		return "", ErrPropertyTypeMismatch
	}
	return s, nil
}

// GetI64 returns v's integer payload, failing with
// ErrPropertyTypeMismatch if v does not hold an i64.
func GetI64(v Value) (int64, error) {
	i, ok := v.AsI64()
	if !ok {
		return 0, ErrPropertyTypeMismatch
	}
	return i, nil
}

// GetF64 returns v's float payload, failing with ErrPropertyTypeMismatch
// if v does not hold an f64.
func GetF64(v Value) (float64, error) {
	f, ok := v.AsF64()
	if !ok {
		return 0, ErrPropertyTypeMismatch
	}
	return f, nil
}

// GetBool returns v's bool payload, failing with ErrPropertyTypeMismatch
// if v does not hold a bool.
func GetBool(v Value) (bool, error) {
	b, ok := v.AsBool()
	if !ok {
		return false, ErrPropertyTypeMismatch
	}
	return b, nil
}
