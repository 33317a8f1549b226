package compiler

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/criteria/internal/criteria"
	"github.com/roach88/criteria/internal/ir"
)

const criteriaYAML = `
schema: users
where:
  logical_operator: AND
  items:
    - field: age
      operator: GREATER_THAN
      value: 18
    - logical_operator: OR
      items:
        - field: name
          operator: STARTS_WITH
          value: A
        - field: deleted_at
          operator: IS_NULL
    - field: created_at
      operator: LESS_THAN
      value: {$time: "2024-06-01T00:00:00Z"}
order_by:
  - field: created_at
    direction: DESC
joins:
  - alias: posts
    kind: left
    criteria:
      where:
        logical_operator: AND
        items:
          - field: likes
            operator: BETWEEN
            value: [1, 100]
take: 10
`

func TestDecodeCriteria_YAML(t *testing.T) {
	p, err := DecodeCriteria([]byte(criteriaYAML), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "users", p.Schema)
	require.NotNil(t, p.Where)
	require.Len(t, p.Where.Items, 3)

	age := p.Where.Items[0].Filter
	require.NotNil(t, age)
	assert.Equal(t, ir.IRInt(18), age.Value)

	nested := p.Where.Items[1].Group
	require.NotNil(t, nested)
	assert.Equal(t, criteria.Or, nested.LogicalOperator)
	assert.Nil(t, nested.Items[1].Filter.Value)

	created := p.Where.Items[2].Filter
	require.NotNil(t, created)
	assert.Equal(t, ir.NewIRTime(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)), created.Value)

	require.Len(t, p.Joins, 1)
	assert.Equal(t, criteria.VariantLeft, p.Joins[0].Kind)
	assert.Equal(t, ir.IRArray{ir.IRInt(1), ir.IRInt(100)}, p.Joins[0].Criteria.Where.Items[0].Filter.Value)

	require.NotNil(t, p.Take)
	assert.Equal(t, 10, *p.Take)
}

func TestDecodeCriteria_SniffsFormat(t *testing.T) {
	jsonDoc := []byte(`  {"schema": "users", "take": 5}`)
	p, err := DecodeCriteria(jsonDoc, "")
	require.NoError(t, err)
	assert.Equal(t, "users", p.Schema)

	p, err = DecodeCriteria([]byte("schema: roles\n"), "")
	require.NoError(t, err)
	assert.Equal(t, "roles", p.Schema)
}

func TestDecodeCriteria_RejectsUnknownKeys(t *testing.T) {
	_, err := DecodeCriteria([]byte("schema: users\nlimit: 3\n"), FormatYAML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit")
}

func TestDecodeCriteria_EmptyYAML(t *testing.T) {
	_, err := DecodeCriteria([]byte("# nothing here\n"), FormatYAML)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "criteria", ce.Field)
}

func TestDecodeCriteria_UnknownFormat(t *testing.T) {
	_, err := DecodeCriteria([]byte(`{}`), Format("toml"))
	assert.Error(t, err)
}

func TestCompileCriteria_CUE(t *testing.T) {
	src := `
#Adults: {field: "age", operator: "GREATER_THAN_OR_EQUALS", value: 18}

criteria: {
	schema: "users"
	where: {
		logical_operator: "AND"
		items: [#Adults, {field: "active", operator: "EQUALS", value: true}]
	}
	order_by: [{field: "name", direction: "ASC", nulls_first: true}]
}
`
	p, err := CompileCriteria(cuecontext.New().CompileString(src))
	require.NoError(t, err)

	assert.Equal(t, "users", p.Schema)
	require.Len(t, p.Where.Items, 2)
	assert.Equal(t, criteria.OpGreaterThanOrEquals, p.Where.Items[0].Filter.Operator)
	assert.Equal(t, ir.IRBool(true), p.Where.Items[1].Filter.Value)
	require.Len(t, p.OrderBy, 1)
	assert.True(t, p.OrderBy[0].NullsFirst)
}

func TestCompileCriteria_Incomplete(t *testing.T) {
	v := cuecontext.New().CompileString(`schema: "users", take: int`, cue.Filename("incomplete.cue"))

	_, err := CompileCriteria(v)
	require.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"q.json":      FormatJSON,
		"q.yaml":      FormatYAML,
		"dir/q.YML":   FormatYAML,
		"queries.cue": FormatCUE,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFromPath("q.toml")
	assert.Error(t, err)
}

func TestLoadCriteriaFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "adults.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(criteriaYAML), 0o644))
	p, err := LoadCriteriaFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "users", p.Schema)

	cuePath := filepath.Join(dir, "roles.cue")
	require.NoError(t, os.WriteFile(cuePath, []byte(`criteria: schema: "roles"`), 0o644))
	p, err = LoadCriteriaFile(cuePath)
	require.NoError(t, err)
	assert.Equal(t, "roles", p.Schema)

	_, err = LoadCriteriaFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
