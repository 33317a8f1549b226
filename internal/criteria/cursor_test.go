package criteria_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/criteria/internal/criteria"
	"github.com/roach88/criteria/internal/ir"
)

func TestBuildBoundary_SingleField(t *testing.T) {
	expr, err := criteria.BuildBoundary([]criteria.CursorField{{Field: "id", Value: ir.IRInt(7)}}, criteria.OpGreaterThan)

	require.NoError(t, err)
	assert.Equal(t, criteria.Comparison{Field: "id", Operator: criteria.OpGreaterThan, Value: ir.IRInt(7)}, expr)
}

func TestBuildBoundary_TwoFields(t *testing.T) {
	ts := ir.NewIRTime(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	fields := []criteria.CursorField{
		{Field: "created_at", Value: ts},
		{Field: "id", Value: ir.IRString("i-9")},
	}

	expr, err := criteria.BuildBoundary(fields, criteria.OpGreaterThan)

	require.NoError(t, err)
	// (created_at > T) OR (created_at = T AND id > I)
	assert.Equal(t, criteria.Disjunction{Terms: []criteria.BoolExpr{
		criteria.Comparison{Field: "created_at", Operator: criteria.OpGreaterThan, Value: ts},
		criteria.Conjunction{Terms: []criteria.BoolExpr{
			criteria.Comparison{Field: "created_at", Operator: criteria.OpEquals, Value: ts},
			criteria.Comparison{Field: "id", Operator: criteria.OpGreaterThan, Value: ir.IRString("i-9")},
		}},
	}}, expr)
}

func TestBuildBoundary_ThreeFieldsShape(t *testing.T) {
	fields := []criteria.CursorField{
		{Field: "a", Value: ir.IRInt(1)},
		{Field: "b", Value: ir.IRInt(2)},
		{Field: "c", Value: ir.IRInt(3)},
	}

	expr, err := criteria.BuildBoundary(fields, criteria.OpLessThan)
	require.NoError(t, err)

	or, ok := expr.(criteria.Disjunction)
	require.True(t, ok)
	require.Len(t, or.Terms, 3)

	for i, clause := range or.Terms[1:] {
		and, ok := clause.(criteria.Conjunction)
		require.True(t, ok)
		require.Len(t, and.Terms, i+2, "clause %d has %d equalities plus one seek term", i+1, i+1)

		for _, eq := range and.Terms[:len(and.Terms)-1] {
			assert.Equal(t, criteria.OpEquals, eq.(criteria.Comparison).Operator)
		}
		last := and.Terms[len(and.Terms)-1].(criteria.Comparison)
		assert.Equal(t, criteria.OpLessThan, last.Operator)
		assert.Equal(t, fields[i+1].Field, last.Field)
	}
}

func TestBuildBoundary_Errors(t *testing.T) {
	_, err := criteria.BuildBoundary(nil, criteria.OpGreaterThan)
	assert.True(t, errors.Is(err, criteria.ErrEmptyCursor))

	_, err = criteria.BuildBoundary([]criteria.CursorField{{Field: "id", Value: ir.IRInt(1)}}, criteria.OpIn)
	assert.True(t, errors.Is(err, criteria.ErrInvalidCursor))

	_, err = criteria.BuildBoundary([]criteria.CursorField{{Field: "id"}}, criteria.OpGreaterThan)
	assert.True(t, errors.Is(err, criteria.ErrInvalidCursor))
}

func TestSeekOperator(t *testing.T) {
	assert.Equal(t, criteria.OpGreaterThan, criteria.SeekOperator(criteria.Asc))
	assert.Equal(t, criteria.OpLessThan, criteria.SeekOperator(criteria.Desc))
}
