package criteria_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/criteria/internal/criteria"
	"github.com/roach88/criteria/internal/testutil"
)

func TestSchema_Lookups(t *testing.T) {
	users := testutil.UsersSchema()

	assert.True(t, users.HasField("email"))
	assert.False(t, users.HasField("ghost"))

	rel, ok := users.Relation("roles")
	require.True(t, ok)
	assert.True(t, rel.IsPivot())
	_, ok = users.Relation("friends")
	assert.False(t, ok)

	posts := testutil.PostsSchema()
	assert.Equal(t, "posts", posts.SourceAlias())
}

func TestSchema_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *criteria.Schema)
	}{
		{"missing name", func(s *criteria.Schema) { s.Name = "" }},
		{"no fields", func(s *criteria.Schema) { s.Fields = nil }},
		{"duplicate field", func(s *criteria.Schema) { s.Fields = append(s.Fields, "name") }},
		{"identifier not a field", func(s *criteria.Schema) { s.Identifier = "id" }},
		{"relation without alias", func(s *criteria.Schema) { s.Relations[0].Alias = "" }},
		{"bad cardinality", func(s *criteria.Schema) { s.Relations[0].Cardinality = "some" }},
		{"missing target", func(s *criteria.Schema) { s.Relations[0].Target = "" }},
		{"unknown local field", func(s *criteria.Schema) { s.Relations[0].LocalField = "ghost" }},
		{"missing relation field", func(s *criteria.Schema) { s.Relations[0].RelationField = "" }},
		{"pivot without table", func(s *criteria.Schema) { s.Relations[1].PivotTable = "" }},
		{"pivot local unknown", func(s *criteria.Schema) { s.Relations[1].PivotLocal.Reference = "ghost" }},
		{"pivot field missing", func(s *criteria.Schema) { s.Relations[1].PivotRelation.PivotField = "" }},
		{"duplicate relation", func(s *criteria.Schema) { s.Relations[1].Alias = "posts" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testutil.UsersSchema()
			tt.mutate(&s)
			err := s.Validate()
			assert.True(t, errors.Is(err, criteria.ErrInvalidSchema), "got %v", err)
		})
	}

	valid := testutil.UsersSchema()
	assert.NoError(t, valid.Validate())
}

func TestRegistry(t *testing.T) {
	t.Run("resolves targets", func(t *testing.T) {
		reg, err := criteria.NewRegistry(testutil.UsersSchema(), testutil.PostsSchema(), testutil.RolesSchema())
		require.NoError(t, err)
		assert.Len(t, reg.Schemas(), 3)
		_, ok := reg.Get("comments")
		assert.False(t, ok)
		assert.Panics(t, func() { reg.MustGet("comments") })
	})

	t.Run("missing target schema", func(t *testing.T) {
		_, err := criteria.NewRegistry(testutil.UsersSchema(), testutil.PostsSchema())
		assert.True(t, errors.Is(err, criteria.ErrInvalidSchema))
		assert.Contains(t, err.Error(), "roles")
	})

	t.Run("relation field missing on target", func(t *testing.T) {
		posts := testutil.PostsSchema()
		posts.Fields = []string{"uuid", "title"}
		posts.Relations = nil
		_, err := criteria.NewRegistry(testutil.UsersSchema(), posts, testutil.RolesSchema())
		assert.True(t, errors.Is(err, criteria.ErrInvalidSchema))
		assert.Contains(t, err.Error(), "user_uuid")
	})

	t.Run("duplicate schema", func(t *testing.T) {
		_, err := criteria.NewRegistry(testutil.RolesSchema(), testutil.RolesSchema())
		assert.True(t, errors.Is(err, criteria.ErrInvalidSchema))
	})

	t.Run("registry owns its copies", func(t *testing.T) {
		roles := testutil.RolesSchema()
		reg := criteria.MustRegistry(roles)
		roles.Fields[0] = "mutated"
		assert.True(t, reg.MustGet("roles").HasField("uuid"))
	})
}
