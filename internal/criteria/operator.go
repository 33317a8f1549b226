package criteria

// Operator is a filter operator. The set is closed: Valid reports whether a
// value belongs to it, and every translator must handle all of Operators().
type Operator string

// String-pattern operators. Value: a string.
const (
	OpLike           Operator = "LIKE"
	OpNotLike        Operator = "NOT_LIKE"
	OpContains       Operator = "CONTAINS"
	OpNotContains    Operator = "NOT_CONTAINS"
	OpStartsWith     Operator = "STARTS_WITH"
	OpEndsWith       Operator = "ENDS_WITH"
	OpILike          Operator = "ILIKE"
	OpNotILike       Operator = "NOT_ILIKE"
	OpMatchesRegex   Operator = "MATCHES_REGEX"
	OpSetContains    Operator = "SET_CONTAINS"
	OpSetNotContains Operator = "SET_NOT_CONTAINS"
)

// Comparison operators. Value: a primitive; range comparisons need an ordered one.
const (
	OpEquals              Operator = "EQUALS"
	OpNotEquals           Operator = "NOT_EQUALS"
	OpGreaterThan         Operator = "GREATER_THAN"
	OpGreaterThanOrEquals Operator = "GREATER_THAN_OR_EQUALS"
	OpLessThan            Operator = "LESS_THAN"
	OpLessThanOrEquals    Operator = "LESS_THAN_OR_EQUALS"
)

// Membership operators. Value: a non-empty array of primitives.
const (
	OpIn             Operator = "IN"
	OpNotIn          Operator = "NOT_IN"
	OpSetContainsAny Operator = "SET_CONTAINS_ANY"
	OpSetContainsAll Operator = "SET_CONTAINS_ALL"
)

// Range operators. Value: an array of exactly two primitives.
const (
	OpBetween    Operator = "BETWEEN"
	OpNotBetween Operator = "NOT_BETWEEN"
)

// Null checks. Value: absent (nil) or null.
const (
	OpIsNull    Operator = "IS_NULL"
	OpIsNotNull Operator = "IS_NOT_NULL"
)

// Array-element operators. Value: a primitive, or {path: primitive}.
const (
	OpArrayContainsElement    Operator = "ARRAY_CONTAINS_ELEMENT"
	OpArrayNotContainsElement Operator = "ARRAY_NOT_CONTAINS_ELEMENT"
)

// Array-collection operators. Value: an array of primitives, or {path: array}.
const (
	OpArrayContainsAllElements    Operator = "ARRAY_CONTAINS_ALL_ELEMENTS"
	OpArrayContainsAnyElement     Operator = "ARRAY_CONTAINS_ANY_ELEMENT"
	OpArrayNotContainsAllElements Operator = "ARRAY_NOT_CONTAINS_ALL_ELEMENTS"
	OpArrayNotContainsAnyElement  Operator = "ARRAY_NOT_CONTAINS_ANY_ELEMENT"
	OpArrayEquals                 Operator = "ARRAY_EQUALS"
	OpArrayEqualsStrict           Operator = "ARRAY_EQUALS_STRICT"
)

// JSON operators. Value: a non-empty {path: primitive | array | object}.
const (
	OpJSONContains           Operator = "JSON_CONTAINS"
	OpJSONNotContains        Operator = "JSON_NOT_CONTAINS"
	OpJSONContainsAny        Operator = "JSON_CONTAINS_ANY"
	OpJSONNotContainsAny     Operator = "JSON_NOT_CONTAINS_ANY"
	OpJSONContainsAll        Operator = "JSON_CONTAINS_ALL"
	OpJSONNotContainsAll     Operator = "JSON_NOT_CONTAINS_ALL"
	OpJSONPathValueEquals    Operator = "JSON_PATH_VALUE_EQUALS"
	OpJSONPathValueNotEquals Operator = "JSON_PATH_VALUE_NOT_EQUALS"
)

// Family groups operators by the shape of value they require.
type Family string

const (
	FamilyString          Family = "string"
	FamilyPrimitive       Family = "primitive"
	FamilyPrimitiveArray  Family = "primitive_array"
	FamilyTuple           Family = "tuple"
	FamilyNullary         Family = "nullary"
	FamilyArrayElement    Family = "array_element"
	FamilyArrayCollection Family = "array_collection"
	FamilyJSON            Family = "json_object"
)

// operatorTable lists every operator in declaration order with its family.
var operatorTable = []struct {
	op     Operator
	family Family
}{
	{OpEquals, FamilyPrimitive},
	{OpNotEquals, FamilyPrimitive},
	{OpGreaterThan, FamilyPrimitive},
	{OpGreaterThanOrEquals, FamilyPrimitive},
	{OpLessThan, FamilyPrimitive},
	{OpLessThanOrEquals, FamilyPrimitive},

	{OpLike, FamilyString},
	{OpNotLike, FamilyString},
	{OpContains, FamilyString},
	{OpNotContains, FamilyString},
	{OpStartsWith, FamilyString},
	{OpEndsWith, FamilyString},
	{OpILike, FamilyString},
	{OpNotILike, FamilyString},
	{OpMatchesRegex, FamilyString},
	{OpSetContains, FamilyString},
	{OpSetNotContains, FamilyString},

	{OpIn, FamilyPrimitiveArray},
	{OpNotIn, FamilyPrimitiveArray},
	{OpSetContainsAny, FamilyPrimitiveArray},
	{OpSetContainsAll, FamilyPrimitiveArray},

	{OpBetween, FamilyTuple},
	{OpNotBetween, FamilyTuple},

	{OpIsNull, FamilyNullary},
	{OpIsNotNull, FamilyNullary},

	{OpArrayContainsElement, FamilyArrayElement},
	{OpArrayNotContainsElement, FamilyArrayElement},

	{OpArrayContainsAllElements, FamilyArrayCollection},
	{OpArrayContainsAnyElement, FamilyArrayCollection},
	{OpArrayNotContainsAllElements, FamilyArrayCollection},
	{OpArrayNotContainsAnyElement, FamilyArrayCollection},
	{OpArrayEquals, FamilyArrayCollection},
	{OpArrayEqualsStrict, FamilyArrayCollection},

	{OpJSONContains, FamilyJSON},
	{OpJSONNotContains, FamilyJSON},
	{OpJSONContainsAny, FamilyJSON},
	{OpJSONNotContainsAny, FamilyJSON},
	{OpJSONContainsAll, FamilyJSON},
	{OpJSONNotContainsAll, FamilyJSON},
	{OpJSONPathValueEquals, FamilyJSON},
	{OpJSONPathValueNotEquals, FamilyJSON},
}

var operatorFamilies = func() map[Operator]Family {
	m := make(map[Operator]Family, len(operatorTable))
	for _, entry := range operatorTable {
		m[entry.op] = entry.family
	}
	return m
}()

// Operators returns every supported operator in declaration order.
func Operators() []Operator {
	ops := make([]Operator, len(operatorTable))
	for i, entry := range operatorTable {
		ops[i] = entry.op
	}
	return ops
}

// Valid reports whether op belongs to the enumeration.
func (op Operator) Valid() bool {
	_, ok := operatorFamilies[op]
	return ok
}

// Family returns the value-shape family of op, or "" for an unknown operator.
func (op Operator) Family() Family {
	return operatorFamilies[op]
}

// IsRangeComparison reports whether op orders values (>, >=, <, <=).
func (op Operator) IsRangeComparison() bool {
	switch op {
	case OpGreaterThan, OpGreaterThanOrEquals, OpLessThan, OpLessThanOrEquals:
		return true
	default:
		return false
	}
}

// IsNegated reports whether op is the negation of another operator.
func (op Operator) IsNegated() bool {
	switch op {
	case OpNotEquals, OpNotLike, OpNotContains, OpNotILike, OpSetNotContains,
		OpNotIn, OpNotBetween, OpIsNotNull,
		OpArrayNotContainsElement, OpArrayNotContainsAllElements, OpArrayNotContainsAnyElement,
		OpJSONNotContains, OpJSONNotContainsAny, OpJSONNotContainsAll, OpJSONPathValueNotEquals:
		return true
	default:
		return false
	}
}

func (op Operator) String() string {
	return string(op)
}
