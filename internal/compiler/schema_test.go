package compiler

import (
	"errors"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/criteria/internal/criteria"
)

const usersCUE = `
schema: users: {
	alias:      "u"
	identifier: "uuid"
	fields: {
		uuid:       string
		name:       string
		age:        int
		score:      float
		active:     bool
		tags:       [...string]
		profile:    {...}
		created_at: string
	}
	relations: {
		posts: {
			cardinality:    "one_to_many"
			target:         "posts"
			local_field:    "uuid"
			relation_field: "user_uuid"
		}
		roles: {
			cardinality: "many_to_many"
			target:      "roles"
			pivot_table: "user_roles"
			pivot_local: {pivot_field: "user_uuid", reference: "uuid"}
			pivot_relation: {pivot_field: "role_uuid", reference: "uuid"}
		}
	}
}

schema: posts: {
	identifier: "uuid"
	fields: ["uuid", "user_uuid", "title"]
	relations: publisher: {
		cardinality:    "many_to_one"
		target:         "users"
		local_field:    "user_uuid"
		relation_field: "uuid"
	}
}

schema: roles: {
	identifier: "uuid"
	fields: ["uuid", "name"]
}
`

func compileString(t *testing.T, src string) cue.Value {
	t.Helper()
	v := cuecontext.New().CompileString(src, cue.Filename("schema.cue"))
	require.NoError(t, v.Err())
	return v
}

func TestCompileSchemas_Registry(t *testing.T) {
	reg, err := CompileSchemas(compileString(t, usersCUE))
	require.NoError(t, err)

	assert.Equal(t, []string{"users", "posts", "roles"}, reg.Names())

	users := reg.MustGet("users")
	assert.Equal(t, "u", users.Alias)
	assert.Equal(t, "uuid", users.Identifier)
	assert.Equal(t, []string{"uuid", "name", "age", "score", "active", "tags", "profile", "created_at"}, users.Fields)

	roles, ok := users.Relation("roles")
	require.True(t, ok)
	assert.True(t, roles.IsPivot())
	assert.Equal(t, "user_roles", roles.PivotTable)
	assert.Equal(t, criteria.PivotReference{PivotField: "role_uuid", Reference: "uuid"}, roles.PivotRelation)

	posts := reg.MustGet("posts")
	assert.Equal(t, "posts", posts.SourceAlias())
	publisher, ok := posts.Relation("publisher")
	require.True(t, ok)
	assert.Equal(t, criteria.ManyToOne, publisher.Cardinality)
}

func TestCompileSchema_NameOverride(t *testing.T) {
	v := compileString(t, `schema: a: {name: "accounts", identifier: "id", fields: ["id"]}`)

	s, err := CompileSchema(v.LookupPath(cue.ParsePath("schema.a")))
	require.NoError(t, err)
	assert.Equal(t, "accounts", s.Name)
}

func TestCompileSchema_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{
			name:  "missing identifier",
			src:   `schema: users: fields: ["uuid"]`,
			field: "identifier",
		},
		{
			name:  "missing fields",
			src:   `schema: users: identifier: "uuid"`,
			field: "fields",
		},
		{
			name:  "fields of wrong kind",
			src:   `schema: users: {identifier: "uuid", fields: "uuid"}`,
			field: "fields",
		},
		{
			name: "unsupported field type",
			src: `schema: users: {
	identifier: "uuid"
	fields: {uuid: string, blob: bytes}
}`,
			field: "fields.blob",
		},
		{
			name: "relation without target",
			src: `schema: users: {
	identifier: "uuid"
	fields: ["uuid"]
	relations: posts: {cardinality: "one_to_many", local_field: "uuid", relation_field: "user_uuid"}
}`,
			field: "relations.posts.target",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileSchemas(compileString(t, tt.src))
			require.Error(t, err)

			var ce *CompileError
			require.True(t, errors.As(err, &ce), "want CompileError, got %T: %v", err, err)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCompileSchema_ErrorHasPosition(t *testing.T) {
	_, err := CompileSchemas(compileString(t, "schema: users: {\n\tfields: [\"uuid\"]\n}\n"))
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	require.True(t, ce.Pos.IsValid())
	assert.Equal(t, 1, ce.Pos.Line())
	assert.Contains(t, err.Error(), "schema.cue:1:")
}

func TestCompileSchemas_NoSchemaField(t *testing.T) {
	_, err := CompileSchemas(compileString(t, `other: 1`))

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "schema", ce.Field)
}

func TestCompileSchemas_RegistryValidation(t *testing.T) {
	// Relation targets a schema that is not declared.
	src := `schema: users: {
	identifier: "uuid"
	fields: ["uuid"]
	relations: posts: {cardinality: "one_to_many", target: "posts", local_field: "uuid", relation_field: "user_uuid"}
}`
	_, err := CompileSchemas(compileString(t, src))
	assert.ErrorIs(t, err, criteria.ErrInvalidSchema)
}

func TestCompileSchemas_CUEConflict(t *testing.T) {
	v := cuecontext.New().CompileString(`schema: users: identifier: "uuid"
schema: users: identifier: "id"`, cue.Filename("conflict.cue"))

	_, err := CompileSchemas(v)
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "cue", ce.Field)
	assert.Equal(t, "conflict.cue", ce.Pos.Filename())
}
