package ir

import (
	"maps"
	"slices"
	"unicode/utf16"
)

// IRValue is a sealed interface over the value kinds a block may hold.
// Only IRNull, IRString, IRInt, IRBool, IRArray, and IRObject implement it.
// There is no float kind: canonical hashing of documents needs exact numbers.
type IRValue interface {
	irValue()
}

// IRNull is JSON null. Block data fields and cleared blocks use it.
type IRNull struct{}

func (IRNull) irValue() {}

func (IRNull) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// IRString is a string value.
type IRString string

func (IRString) irValue() {}

// IRInt is an integer value. Always int64.
type IRInt int64

func (IRInt) irValue() {}

// IRBool is a boolean value.
type IRBool bool

func (IRBool) irValue() {}

// IRArray is an ordered list of values.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject maps field names to values. Block data and whole documents are
// IRObjects. Iterate with SortedKeys for deterministic order.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
// Go's native string order is UTF-8 and differs for supplementary planes.
func (obj IRObject) SortedKeys() []string {
	return slices.SortedFunc(maps.Keys(obj), compareKeysRFC8785)
}

// String returns the string stored at key, or "" when the key is missing or
// holds another kind.
func (obj IRObject) String(key string) string {
	if s, ok := obj[key].(IRString); ok {
		return string(s)
	}
	return ""
}

// Bool reports whether key holds IRBool(true).
func (obj IRObject) Bool(key string) bool {
	b, ok := obj[key].(IRBool)
	return ok && bool(b)
}

// Clone returns a deep copy. A nil object clones to nil.
func (obj IRObject) Clone() IRObject {
	if obj == nil {
		return nil
	}
	out := make(IRObject, len(obj))
	for k, v := range obj {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies arrays and objects; scalars are returned as is.
func CloneValue(v IRValue) IRValue {
	switch val := v.(type) {
	case IRArray:
		if val == nil {
			return val
		}
		out := make(IRArray, len(val))
		for i, elem := range val {
			out[i] = CloneValue(elem)
		}
		return out
	case IRObject:
		return val.Clone()
	default:
		return v
	}
}

// IsZeroValue reports whether v carries no content: null, "", or an empty
// array or object. Ints and bools always carry content.
func IsZeroValue(v IRValue) bool {
	switch val := v.(type) {
	case nil, IRNull:
		return true
	case IRString:
		return val == ""
	case IRArray:
		return len(val) == 0
	case IRObject:
		return len(val) == 0
	default:
		return false
	}
}

// compareKeysRFC8785 orders keys by their UTF-16 code units.
func compareKeysRFC8785(a, b string) int {
	return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
}
