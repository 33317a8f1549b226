package criteria

import (
	"github.com/roach88/criteria/internal/ir"
)

// Filter is an immutable leaf predicate: field OPERATOR value.
//
// A Filter can only be obtained from NewFilter, so its value always matches
// the shape its operator requires.
type Filter struct {
	field    string
	operator Operator
	value    ir.IRValue
}

func (Filter) filterItem() {}

// NewFilter validates value against the family of op and returns the Filter.
//
// Fails with ErrUnsupportedOperator when op is outside the enumeration and
// with ErrInvalidFilterValue when the value shape does not fit. Validation is
// structural: JSON object values are checked one level deep only.
func NewFilter(field string, op Operator, value ir.IRValue) (Filter, error) {
	if !op.Valid() {
		return Filter{}, newError(ErrCodeUnsupportedOperator, field, "operator %q is not supported", op)
	}
	if err := validateValue(field, op, value); err != nil {
		return Filter{}, err
	}
	if op.Family() == FamilyNullary {
		value = nil
	}
	return Filter{field: field, operator: op, value: value}, nil
}

// MustFilter is like NewFilter but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFilter(field string, op Operator, value ir.IRValue) Filter {
	f, err := NewFilter(field, op, value)
	if err != nil {
		panic(err)
	}
	return f
}

// Field returns the schema field the filter applies to.
func (f Filter) Field() string { return f.field }

// Operator returns the filter operator.
func (f Filter) Operator() Operator { return f.operator }

// Value returns the filter value; nil for IS_NULL / IS_NOT_NULL.
func (f Filter) Value() ir.IRValue { return f.value }

// ToPrimitive returns a plain snapshot for serialization.
func (f Filter) ToPrimitive() FilterPrimitive {
	return FilterPrimitive{Field: f.field, Operator: f.operator, Value: f.value}
}

func validateValue(field string, op Operator, value ir.IRValue) error {
	invalid := func(format string, args ...any) error {
		e := newError(ErrCodeInvalidFilterValue, field, format, args...)
		e.Details = map[string]string{"operator": string(op), "value_kind": ir.KindOf(value)}
		return e
	}

	switch op.Family() {
	case FamilyString:
		if _, ok := value.(ir.IRString); !ok {
			return invalid("%s requires a string value, got %s", op, ir.KindOf(value))
		}

	case FamilyPrimitive:
		if op.IsRangeComparison() {
			if !ir.IsOrdered(value) {
				return invalid("%s requires a number or time value, got %s", op, ir.KindOf(value))
			}
		} else if !ir.IsPrimitive(value) {
			return invalid("%s requires a primitive value, got %s", op, ir.KindOf(value))
		}

	case FamilyPrimitiveArray:
		arr, ok := value.(ir.IRArray)
		if !ok {
			return invalid("%s requires an array of primitives, got %s", op, ir.KindOf(value))
		}
		if len(arr) == 0 {
			return invalid("%s requires at least one element", op)
		}
		if i, ok := allPrimitive(arr); !ok {
			return invalid("%s element %d is %s, not a primitive", op, i, ir.KindOf(arr[i]))
		}

	case FamilyTuple:
		arr, ok := value.(ir.IRArray)
		if !ok || len(arr) != 2 {
			return invalid("%s requires an array of exactly two primitives", op)
		}
		if i, ok := allPrimitive(arr); !ok {
			return invalid("%s bound %d is %s, not a primitive", op, i, ir.KindOf(arr[i]))
		}

	case FamilyNullary:
		if !ir.IsNull(value) {
			return invalid("%s takes no value, got %s", op, ir.KindOf(value))
		}

	case FamilyArrayElement:
		if ir.IsPrimitive(value) {
			return nil
		}
		inner, ok := singlePath(value)
		if !ok || !ir.IsPrimitive(inner) {
			return invalid("%s requires a primitive or a single {path: primitive} object", op)
		}

	case FamilyArrayCollection:
		arr, ok := value.(ir.IRArray)
		if !ok {
			inner, isPath := singlePath(value)
			if !isPath {
				return invalid("%s requires an array of primitives or a single {path: array} object", op)
			}
			if arr, ok = inner.(ir.IRArray); !ok {
				return invalid("%s path value must be an array, got %s", op, ir.KindOf(inner))
			}
		}
		if i, ok := allPrimitive(arr); !ok {
			return invalid("%s element %d is %s, not a primitive", op, i, ir.KindOf(arr[i]))
		}

	case FamilyJSON:
		obj, ok := value.(ir.IRObject)
		if !ok || len(obj) == 0 {
			return invalid("%s requires a non-empty {path: value} object", op)
		}
		for _, path := range obj.SortedKeys() {
			switch obj[path].(type) {
			case ir.IRString, ir.IRInt, ir.IRFloat, ir.IRBool, ir.IRTime, ir.IRArray, ir.IRObject:
			default:
				return invalid("%s value at path %q is %s; expected primitive, array or object", op, path, ir.KindOf(obj[path]))
			}
		}
	}

	return nil
}

// singlePath unwraps a {path: value} object with exactly one key.
func singlePath(v ir.IRValue) (ir.IRValue, bool) {
	obj, ok := v.(ir.IRObject)
	if !ok || len(obj) != 1 {
		return nil, false
	}
	for _, inner := range obj {
		return inner, true
	}
	return nil, false
}

func allPrimitive(arr ir.IRArray) (int, bool) {
	for i, elem := range arr {
		if !ir.IsPrimitive(elem) {
			return i, false
		}
	}
	return -1, true
}
