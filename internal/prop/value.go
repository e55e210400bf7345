// Package prop implements the tagged property-value union shared by
// node, edge, and graph-level properties, and the string interners
// their keys resolve through.
package prop

import (
	"fmt"
	"sort"
)

// Kind discriminates the variant held by a Value.
type Kind uint8

const (
	KindBool Kind = iota
	KindI64
	KindU64
	KindF64
	KindStr
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindI64:
		return "i64"
	case KindU64:
		return "u64"
	case KindF64:
		return "f64"
	case KindStr:
		return "str"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a tagged sum over bool, i64, u64, f64, string, list of Value,
// and map from string to Value. The zero Value is KindBool(false).
type Value struct {
	kind Kind
	b    bool
	i    int64
	u    uint64
	f    float64
	s    string
	list []Value
	m    map[string]Value
}

func Bool(v bool) Value            { return Value{kind: KindBool, b: v} }
func I64(v int64) Value            { return Value{kind: KindI64, i: v} }
func U64(v uint64) Value           { return Value{kind: KindU64, u: v} }
func F64(v float64) Value          { return Value{kind: KindF64, f: v} }
func Str(v string) Value           { return Value{kind: KindStr, s: v} }
func List(v []Value) Value         { return Value{kind: KindList, list: v} }
func Map(v map[string]Value) Value { return Value{kind: KindMap, m: v} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) AsI64() (int64, bool) {
	if v.kind != KindI64 {
		return 0, false
	}
	return v.i, true
}

func (v Value) AsU64() (uint64, bool) {
	if v.kind != KindU64 {
		return 0, false
	}
	return v.u, true
}

func (v Value) AsF64() (float64, bool) {
	if v.kind != KindF64 {
		return 0, false
	}
	return v.f, true
}

func (v Value) AsStr() (string, bool) {
	if v.kind != KindStr {
		return "", false
	}
	return v.s, true
}

func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

func (v Value) AsMap() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	return v.m, true
}

// Equal reports deep equality across all variants.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == other.b
	case KindI64:
		return v.i == other.i
	case KindU64:
		return v.u == other.u
	case KindF64:
		return v.f == other.f
	case KindStr:
		return v.s == other.s
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(other.m) {
			return false
		}
		for k, a := range v.m {
			b, ok := other.m[k]
			if !ok || !a.Equal(b) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders a debug representation; deterministic for map keys so it
// is safe to use in test fixtures and snapshot golden files.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindI64:
		return fmt.Sprintf("%d", v.i)
	case KindU64:
		return fmt.Sprintf("%d", v.u)
	case KindF64:
		return fmt.Sprintf("%g", v.f)
	case KindStr:
		return fmt.Sprintf("%q", v.s)
	case KindList:
		out := "["
		for i, e := range v.list {
			if i > 0 {
				out += ", "
			}
			out += e.String()
		}
		return out + "]"
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := "{"
		for i, k := range keys {
			if i > 0 {
				out += ", "
			}
			out += fmt.Sprintf("%q: %s", k, v.m[k].String())
		}
		return out + "}"
	default:
		return "<invalid>"
	}
}
