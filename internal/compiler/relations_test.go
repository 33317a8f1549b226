package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/criteria/internal/criteria"
	"github.com/roach88/criteria/internal/testutil"
)

func rel(alias, target string) criteria.Relation {
	return criteria.Relation{
		Alias:         alias,
		Cardinality:   criteria.ManyToOne,
		Target:        target,
		LocalField:    "id",
		RelationField: "id",
	}
}

func node(name string, relations ...criteria.Relation) criteria.Schema {
	return criteria.Schema{Name: name, Identifier: "id", Fields: []string{"id"}, Relations: relations}
}

func TestAnalyzeRelationCycles_InversePair(t *testing.T) {
	warnings := AnalyzeRelationCycles(testutil.Registry())

	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"users", "posts", "users"}, warnings[0].Path)
	assert.Equal(t, "info", warnings[0].Level)
	assert.Equal(t, "Relation cycle: users -> posts -> users", warnings[0].Message)
}

func TestAnalyzeRelationCycles_NoCycles(t *testing.T) {
	reg := criteria.MustRegistry(
		node("a", rel("b", "b")),
		node("b", rel("c", "c")),
		node("c"),
	)

	assert.Empty(t, AnalyzeRelationCycles(reg))
}

func TestAnalyzeRelationCycles_SelfRelation(t *testing.T) {
	reg := criteria.MustRegistry(node("employees", rel("manager", "employees")))

	warnings := AnalyzeRelationCycles(reg)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"employees", "employees"}, warnings[0].Path)
	assert.Equal(t, "warning", warnings[0].Level)
}

func TestAnalyzeRelationCycles_LongCycle(t *testing.T) {
	reg := criteria.MustRegistry(
		node("a", rel("b", "b")),
		node("b", rel("c", "c")),
		node("c", rel("a", "a")),
	)

	warnings := AnalyzeRelationCycles(reg)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"a", "b", "c", "a"}, warnings[0].Path)
	assert.Equal(t, "warning", warnings[0].Level)
}

func TestAnalyzeRelationCycles_Empty(t *testing.T) {
	warnings := AnalyzeRelationCycles(criteria.MustRegistry())
	assert.NotNil(t, warnings)
	assert.Empty(t, warnings)
}
