package harness

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/criteria/internal/ir"
)

// Expectation kinds, used to label assertion failures.
const (
	AssertIDs    = "ids"
	AssertCount  = "count"
	AssertSQL    = "sql"
	AssertParams = "params"
	AssertRows   = "rows"
	AssertError  = "error"
)

// AssertionError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Expectation kind
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	SQL      string // Statement that ran, if any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.SQL != "" {
		fmt.Fprintf(&buf, "  SQL: %s\n", e.SQL)
	}

	return buf.String()
}

// EvaluateExpect checks a case result against the case's expectations.
// Returns a slice of error messages for failed expectations.
func EvaluateExpect(c Case, cr *CaseResult) []string {
	var errors []string
	add := func(err error) {
		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	e := c.Expect
	if e.Error != "" {
		add(assertError(cr, e.Error))
		return errors
	}
	if cr.Error != "" {
		add(&AssertionError{Type: AssertError, Expected: "no error", Actual: cr.Error})
		return errors
	}

	if e.SQL != "" {
		add(assertSQL(cr, e.SQL))
	}
	if e.Params != nil {
		add(assertParams(cr, e.Params))
	}
	if e.IDs != nil {
		add(assertIDs(cr, e.IDs))
	}
	if e.Count != nil && int64(len(cr.IDs)) != *e.Count {
		add(&AssertionError{
			Type:     AssertCount,
			Expected: fmt.Sprintf("%d rows", *e.Count),
			Actual:   fmt.Sprintf("%d rows", len(cr.IDs)),
			SQL:      cr.SQL,
		})
	}
	if e.Rows != nil {
		add(assertRows(cr, e.Rows))
	}

	return errors
}

func assertError(cr *CaseResult, want string) error {
	if cr.Error == want {
		return nil
	}
	actual := cr.Error
	if actual == "" {
		actual = fmt.Sprintf("no error (%d rows)", len(cr.IDs))
	}
	return &AssertionError{Type: AssertError, Expected: want, Actual: actual, SQL: cr.SQL}
}

func assertSQL(cr *CaseResult, want string) error {
	if strings.TrimSpace(want) == cr.SQL {
		return nil
	}
	return &AssertionError{Type: AssertSQL, Expected: strings.TrimSpace(want), Actual: cr.SQL}
}

func assertParams(cr *CaseResult, want []any) error {
	expected, err := convertList(want)
	if err != nil {
		return fmt.Errorf("params: %w", err)
	}
	actual, err := convertList(cr.Params)
	if err != nil {
		return fmt.Errorf("params: %w", err)
	}
	if valuesEqual(ir.IRArray(actual), ir.IRArray(expected)) {
		return nil
	}
	return &AssertionError{
		Type:     AssertParams,
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", cr.Params),
		SQL:      cr.SQL,
	}
}

// assertIDs checks the matched identifiers in order.
func assertIDs(cr *CaseResult, want []any) error {
	expected, err := convertList(want)
	if err != nil {
		return fmt.Errorf("ids: %w", err)
	}
	if len(expected) == len(cr.IDs) {
		match := true
		for i := range expected {
			if !valuesEqual(cr.IDs[i], expected[i]) {
				match = false
				break
			}
		}
		if match {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertIDs,
		Expected: formatValues(expected),
		Actual:   formatValues(cr.IDs),
		SQL:      cr.SQL,
	}
}

// assertRows checks matched rows in order. Each expected row is a subset
// match: extra columns in the actual row are ignored.
func assertRows(cr *CaseResult, want []map[string]any) error {
	if len(want) != len(cr.Rows) {
		return &AssertionError{
			Type:     AssertRows,
			Expected: fmt.Sprintf("%d rows", len(want)),
			Actual:   fmt.Sprintf("%d rows", len(cr.Rows)),
			SQL:      cr.SQL,
		}
	}

	for i, raw := range want {
		expected, err := convertRow(raw)
		if err != nil {
			return fmt.Errorf("rows[%d]: %w", i, err)
		}
		for _, key := range expected.SortedKeys() {
			actual, exists := cr.Rows[i][key]
			if !exists {
				return &AssertionError{
					Type:     AssertRows,
					Expected: fmt.Sprintf("rows[%d] field %q to exist", i, key),
					Actual:   fmt.Sprintf("columns: %v", cr.Rows[i].SortedKeys()),
					SQL:      cr.SQL,
				}
			}
			if !valuesEqual(actual, expected[key]) {
				return &AssertionError{
					Type:     AssertRows,
					Expected: fmt.Sprintf("rows[%d].%s = %v (%s)", i, key, expected[key], ir.KindOf(expected[key])),
					Actual:   fmt.Sprintf("rows[%d].%s = %v (%s)", i, key, actual, ir.KindOf(actual)),
					SQL:      cr.SQL,
				}
			}
		}
	}
	return nil
}

func convertList(raw []any) ([]ir.IRValue, error) {
	out := make([]ir.IRValue, len(raw))
	for i, v := range raw {
		conv, err := ir.FromNative(v)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = conv
	}
	return out, nil
}

// valuesEqual compares an actual stored value with an expected one.
// SQLite stores booleans as 0/1 and integral floats may come back as
// integers, so those pairs are compared numerically.
func valuesEqual(actual, expected ir.IRValue) bool {
	switch exp := expected.(type) {
	case ir.IRBool:
		if n, ok := actual.(ir.IRInt); ok {
			return bool(exp) == (n != 0)
		}
	case ir.IRInt:
		if f, ok := actual.(ir.IRFloat); ok {
			return float64(exp) == float64(f)
		}
	case ir.IRFloat:
		if n, ok := actual.(ir.IRInt); ok {
			return float64(exp) == float64(n)
		}
	case ir.IRArray:
		act, ok := actual.(ir.IRArray)
		if !ok || len(act) != len(exp) {
			return false
		}
		for i := range exp {
			if !valuesEqual(act[i], exp[i]) {
				return false
			}
		}
		return true
	case ir.IRObject:
		act, ok := actual.(ir.IRObject)
		if !ok || len(act) != len(exp) {
			return false
		}
		for k, v := range exp {
			if !valuesEqual(act[k], v) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(actual, expected)
}

func formatValues(vals []ir.IRValue) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprintf("%v", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
