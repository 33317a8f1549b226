package ir

import (
	"fmt"
	"slices"
	"time"
	"unicode/utf16"
)

// IRValue is the sealed set of values a filter, cursor or row may carry:
// IRNull, IRString, IRInt, IRFloat, IRBool, IRTime, IRArray and IRObject.
type IRValue interface {
	irValue()
}

// IRNull is an explicit null. A nil IRValue means the same thing.
type IRNull struct{}

// IRString is a string value.
type IRString string

// IRInt is a 64-bit integer value.
type IRInt int64

// IRFloat is a floating point value. NaN and infinities are rejected by
// every codec.
type IRFloat float64

// IRBool is a boolean value.
type IRBool bool

// IRTime is an instant, always in UTC. Build it with NewIRTime.
type IRTime struct {
	time.Time
}

// IRArray is an ordered list of values.
type IRArray []IRValue

// IRObject maps string keys to values. Iterate with SortedKeys.
type IRObject map[string]IRValue

func (IRNull) irValue() {}
func (IRString) irValue() {}
func (IRInt) irValue() {}
func (IRFloat) irValue() {}
func (IRBool) irValue() {}
func (IRTime) irValue() {}
func (IRArray) irValue() {}
func (IRObject) irValue() {}

func NewIRString(s string) IRString { return IRString(s) }
func NewIRInt(n int64) IRInt { return IRInt(n) }
func NewIRFloat(f float64) IRFloat { return IRFloat(f) }
func NewIRBool(b bool) IRBool { return IRBool(b) }
func NewIRArray(vals ...IRValue) IRArray { return IRArray(vals) }

// NewIRTime normalizes t to UTC and drops the monotonic reading so that
// equal instants compare equal with ==.
func NewIRTime(t time.Time) IRTime {
	return IRTime{Time: t.UTC().Round(0)}
}

// IRPair is one key/value entry for NewIRObjectFromPairs.
type IRPair struct {
	Key   string
	Value IRValue
}

// O builds an IRPair.
func O(key string, value IRValue) IRPair {
	return IRPair{Key: key, Value: value}
}

// NewIRObjectFromPairs builds an object from pairs; a repeated key keeps
// its last value.
//
//	ir.NewIRObjectFromPairs(ir.O("city", ir.IRString("Oslo")))
func NewIRObjectFromPairs(pairs ...IRPair) IRObject {
	obj := make(IRObject, len(pairs))
	for _, p := range pairs {
		obj[p.Key] = p.Value
	}
	return obj
}

func NewIRObjectFromMap(m map[string]IRValue) IRObject {
	return IRObject(m)
}

// IsPrimitive reports whether v is a string, int, float, bool or time.
// Null is not a primitive.
func IsPrimitive(v IRValue) bool {
	switch v.(type) {
	case IRString, IRInt, IRFloat, IRBool, IRTime:
		return true
	}
	return false
}

// IsOrdered reports whether range comparisons apply to v.
func IsOrdered(v IRValue) bool {
	switch v.(type) {
	case IRInt, IRFloat, IRTime:
		return true
	}
	return false
}

// IsNull reports whether v is nil or IRNull.
func IsNull(v IRValue) bool {
	switch v.(type) {
	case nil, IRNull:
		return true
	}
	return false
}

var kindNames = map[string]string{
	"ir.IRNull":   "null",
	"ir.IRString": "string",
	"ir.IRInt":    "int",
	"ir.IRFloat":  "float",
	"ir.IRBool":   "bool",
	"ir.IRTime":   "time",
	"ir.IRArray":  "array",
	"ir.IRObject": "object",
}

// KindOf names v's type for error messages: "string", "array", "nil"...
func KindOf(v IRValue) string {
	if v == nil {
		return "nil"
	}
	t := fmt.Sprintf("%T", v)
	if name, ok := kindNames[t]; ok {
		return name
	}
	return t
}

// SortedKeys returns the keys ordered by UTF-16 code units (RFC 8785),
// which differs from byte order for characters outside the BMP.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
	})
	return keys
}
