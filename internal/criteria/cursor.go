package criteria

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/criteria/internal/ir"
)

// CursorField is one sort-key value of the row a cursor seeks past.
type CursorField struct {
	Field string     `json:"field"`
	Value ir.IRValue `json:"value"`
}

// UnmarshalJSON decodes the value through the IR codec.
func (f *CursorField) UnmarshalJSON(data []byte) error {
	var raw struct {
		Field string          `json:"field"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Field = raw.Field
	f.Value = nil
	if len(raw.Value) > 0 {
		v, err := ir.UnmarshalIRValue(raw.Value)
		if err != nil {
			return fmt.Errorf("cursor field %q: %w", raw.Field, err)
		}
		f.Value = v
	}
	return nil
}

// Cursor is keyset pagination state.
type Cursor struct {
	Fields    []CursorField `json:"fields"`
	Operator  Operator      `json:"operator"`
	Direction Direction     `json:"direction"`
}

// Boundary builds the seek predicate for the cursor.
func (c Cursor) Boundary() (BoolExpr, error) {
	return BuildBoundary(c.Fields, c.Operator)
}

// BoolExpr is a sealed boolean expression tree: Comparison, Conjunction or
// Disjunction. Visitors render it; this package never stringifies it.
type BoolExpr interface {
	boolExpr()
}

// Comparison is field OPERATOR value.
type Comparison struct {
	Field    string
	Operator Operator
	Value    ir.IRValue
}

// Conjunction is the AND of its terms.
type Conjunction struct {
	Terms []BoolExpr
}

// Disjunction is the OR of its terms.
type Disjunction struct {
	Terms []BoolExpr
}

func (Comparison) boolExpr()  {}
func (Conjunction) boolExpr() {}
func (Disjunction) boolExpr() {}

// BuildBoundary returns the keyset boundary for fields f1..fn and seek
// operator OP:
//
//	(f1 OP v1) OR (f1 = v1 AND f2 OP v2) OR ... OR (f1 = v1 AND ... AND fn OP vn)
//
// A single field yields one Comparison. Every field shares one operator;
// mixed per-field directions are not supported.
func BuildBoundary(fields []CursorField, op Operator) (BoolExpr, error) {
	if err := validateCursor(fields, op); err != nil {
		return nil, err
	}

	if len(fields) == 1 {
		return Comparison{Field: fields[0].Field, Operator: op, Value: fields[0].Value}, nil
	}

	clauses := make([]BoolExpr, 0, len(fields))
	for i, f := range fields {
		seek := Comparison{Field: f.Field, Operator: op, Value: f.Value}
		if i == 0 {
			clauses = append(clauses, seek)
			continue
		}
		terms := make([]BoolExpr, 0, i+1)
		for _, prefix := range fields[:i] {
			terms = append(terms, Comparison{Field: prefix.Field, Operator: OpEquals, Value: prefix.Value})
		}
		terms = append(terms, seek)
		clauses = append(clauses, Conjunction{Terms: terms})
	}
	return Disjunction{Terms: clauses}, nil
}

// SeekOperator returns the conventional seek comparison for a scan direction.
func SeekOperator(d Direction) Operator {
	if d == Desc {
		return OpLessThan
	}
	return OpGreaterThan
}

func validateCursor(fields []CursorField, op Operator) error {
	if len(fields) == 0 {
		return newError(ErrCodeEmptyCursor, "", "cursor requires at least one field")
	}
	if !op.IsRangeComparison() {
		return newError(ErrCodeInvalidCursor, "", "cursor operator %q is not a seek comparison", op)
	}
	for _, f := range fields {
		if !ir.IsPrimitive(f.Value) {
			return newError(ErrCodeInvalidCursor, f.Field, "cursor value is %s, not a primitive", ir.KindOf(f.Value))
		}
	}
	return nil
}
