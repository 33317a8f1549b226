package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/criteria/internal/testutil"
)

const testSeed = `seed:
  - schema: authors
    rows:
      - {name: Ursula, country: US}
      - {name: Terry, country: UK}
      - {name: Iain, country: UK}
`

// runQueryWith calls runQuery directly so tests can inject an id generator.
func runQueryWith(t *testing.T, opts *QueryOptions, path string) (string, error) {
	t.Helper()
	if opts.Database == "" {
		opts.Database = ":memory:"
	}
	if opts.IDGenerator == nil {
		opts.IDGenerator = testutil.NewSequentialIDGenerator()
	}
	buf := &bytes.Buffer{}
	cmd := NewQueryCommand(opts.RootOptions)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	err := runQuery(opts, path, cmd)
	return buf.String(), err
}

func TestQueryWithSeed(t *testing.T) {
	dir, schemaPath := fixtureDir(t)
	docPath := writeFixture(t, dir, "uk.yaml", ukAuthors)
	seedPath := writeFixture(t, dir, "seed.yaml", testSeed)

	output, err := runQueryWith(t, &QueryOptions{
		RootOptions: &RootOptions{Format: "text", Schema: schemaPath},
		SeedFile:    seedPath,
	}, docPath)
	require.NoError(t, err)

	lines := bytes.Split(bytes.TrimSpace([]byte(output)), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[0]), `"name":"Iain"`)
	assert.Contains(t, string(lines[0]), `"id":"`+testutil.SequentialID(3)+`"`)
	assert.Contains(t, string(lines[1]), `"name":"Terry"`)
	assert.Equal(t, "(2 row(s))", string(lines[2]))
}

func TestQueryJSON(t *testing.T) {
	dir, schemaPath := fixtureDir(t)
	docPath := writeFixture(t, dir, "uk.yaml", ukAuthors)
	seedPath := writeFixture(t, dir, "seed.yaml", testSeed)

	output, err := runQueryWith(t, &QueryOptions{
		RootOptions: &RootOptions{Format: "json", Schema: schemaPath},
		SeedFile:    seedPath,
	}, docPath)
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Schema string           `json:"schema"`
			SQL    string           `json:"sql"`
			Count  int64            `json:"count"`
			Rows   []map[string]any `json:"rows"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "authors", resp.Data.Schema)
	assert.Equal(t, ukAuthorsSQL, resp.Data.SQL)
	assert.Equal(t, int64(2), resp.Data.Count)
	require.Len(t, resp.Data.Rows, 2)
	assert.Equal(t, "Iain", resp.Data.Rows[0]["name"])
	assert.Equal(t, testutil.SequentialID(2), resp.Data.Rows[1]["id"])
}

func TestQueryCount(t *testing.T) {
	dir, schemaPath := fixtureDir(t)
	docPath := writeFixture(t, dir, "uk.yaml", ukAuthors)
	seedPath := writeFixture(t, dir, "seed.yaml", testSeed)

	output, err := runQueryWith(t, &QueryOptions{
		RootOptions: &RootOptions{Format: "text", Schema: schemaPath},
		SeedFile:    seedPath,
		Count:       true,
	}, docPath)
	require.NoError(t, err)
	assert.Equal(t, "2\n", output)
}

func TestQueryEmptyDatabase(t *testing.T) {
	dir, schemaPath := fixtureDir(t)
	docPath := writeFixture(t, dir, "uk.yaml", ukAuthors)

	output, err := runQueryWith(t, &QueryOptions{
		RootOptions: &RootOptions{Format: "text", Schema: schemaPath},
	}, docPath)
	require.NoError(t, err)
	assert.Equal(t, "(0 row(s))\n", output)
}

func TestQueryFileDatabasePersists(t *testing.T) {
	dir, schemaPath := fixtureDir(t)
	docPath := writeFixture(t, dir, "uk.yaml", ukAuthors)
	seedPath := writeFixture(t, dir, "seed.yaml", testSeed)
	dbPath := filepath.Join(dir, "authors.db")

	_, err := runQueryWith(t, &QueryOptions{
		RootOptions: &RootOptions{Format: "text", Schema: schemaPath},
		Database:    dbPath,
		SeedFile:    seedPath,
	}, docPath)
	require.NoError(t, err)

	output, err := runQueryWith(t, &QueryOptions{
		RootOptions: &RootOptions{Format: "text", Schema: schemaPath},
		Database:    dbPath,
		Count:       true,
	}, docPath)
	require.NoError(t, err)
	assert.Equal(t, "2\n", output)
}

func TestQuery_BadSeed(t *testing.T) {
	dir, schemaPath := fixtureDir(t)
	docPath := writeFixture(t, dir, "uk.yaml", ukAuthors)
	seedPath := writeFixture(t, dir, "seed.yaml", "seed:\n  - schema: authors\n    rows:\n      - {nickname: x}\n")

	output, err := runQueryWith(t, &QueryOptions{
		RootOptions: &RootOptions{Format: "text", Schema: schemaPath},
		SeedFile:    seedPath,
	}, docPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, output, "Error [")
}
