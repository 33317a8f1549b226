package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Library(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/library.yaml")
	require.NoError(t, err)

	assert.Equal(t, "library", s.Name)
	assert.Equal(t, filepath.Join("testdata", "scenarios", "schemas.yaml"), s.Schemas)
	require.Len(t, s.Seed, 3)
	assert.Len(t, s.Seed[1].Rows, 4)
	assert.Len(t, s.Links, 3)

	var fileCase Case
	for _, c := range s.Cases {
		if c.Name == "books_by_uk_authors" {
			fileCase = c
		}
	}
	assert.Equal(t, filepath.Join("testdata", "scenarios", "uk_books.json"), fileCase.CriteriaFile)
	assert.False(t, fileCase.HasInlineCriteria())
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	assert.Error(t, err)
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: d\ninline_schema: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			yaml:    "description: d\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: x\n",
			wantErr: "description is required",
		},
		{
			name:    "no schemas",
			yaml:    "name: x\ndescription: d\ncases: [{name: c, criteria: {schema: t}}]\n",
			wantErr: "schemas or inline_schemas is required",
		},
		{
			name: "no cases",
			yaml: `name: x
description: d
inline_schemas: [{name: t, identifier: id, fields: [id]}]
`,
			wantErr: "cases list is required",
		},
		{
			name: "case without criteria",
			yaml: `name: x
description: d
inline_schemas: [{name: t, identifier: id, fields: [id]}]
cases: [{name: c}]
`,
			wantErr: "exactly one of criteria or criteria_file",
		},
		{
			name: "duplicate case",
			yaml: `name: x
description: d
inline_schemas: [{name: t, identifier: id, fields: [id]}]
cases:
  - {name: c, criteria: {schema: t}}
  - {name: c, criteria: {schema: t}}
`,
			wantErr: "duplicate case name",
		},
		{
			name: "error with ids",
			yaml: `name: x
description: d
inline_schemas: [{name: t, identifier: id, fields: [id]}]
cases:
  - {name: c, criteria: {schema: t}, expect: {error: UNKNOWN_FIELD, ids: []}}
`,
			wantErr: "error cannot be combined",
		},
		{
			name: "link without target",
			yaml: `name: x
description: d
inline_schemas: [{name: t, identifier: id, fields: [id]}]
links: [{schema: t, relation: r, local: a}]
cases: [{name: c, criteria: {schema: t}}]
`,
			wantErr: "local and target are required",
		},
		{
			name: "schema path not found",
			yaml: `name: x
description: d
schemas: missing.yaml
cases: [{name: c, criteria: {schema: t}}]
`,
			wantErr: "schema path not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml), t.TempDir())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseScenario_AbsolutePathsKept(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "schemas.yaml")
	require.NoError(t, os.WriteFile(schemaPath, []byte("schemas: [{name: t, identifier: id, fields: [id]}]\n"), 0644))

	data := []byte("name: x\ndescription: d\nschemas: " + schemaPath + "\ncases: [{name: c, criteria: {schema: t}}]\n")
	s, err := ParseScenario(data, "/elsewhere")
	require.NoError(t, err)
	assert.Equal(t, schemaPath, s.Schemas)
}
