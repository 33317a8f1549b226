package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/criteria/internal/criteria"
	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/testutil"
)

func tableNames(t *testing.T, s *Store) []string {
	t.Helper()
	rows, err := s.DB().Query(`SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}

func TestOpen_CreatesTables(t *testing.T) {
	s := createTestStore(t)

	assert.Equal(t, []string{"posts", "roles", "user_roles", "users"}, tableNames(t, s))
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "criteria.db")

	s1, err := Open(path, testutil.Registry())
	require.NoError(t, err)
	_, err = s1.Insert(context.Background(), "roles", ir.IRObject{"uuid": ir.IRString("r1"), "name": ir.IRString("admin")})
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path, testutil.Registry())
	require.NoError(t, err)
	defer s2.Close()

	n, err := s2.Count(context.Background(), criteria.NewRoot(s2.Registry().MustGet("roles")))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestOpen_RequiresRegistry(t *testing.T) {
	_, err := Open(":memory:", nil)
	assert.Error(t, err)
}

func TestOpen_WALMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.db")
	s, err := Open(path, testutil.Registry())
	require.NoError(t, err)
	defer s.Close()

	var mode string
	require.NoError(t, s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestOpen_CaseSensitiveLike(t *testing.T) {
	s := createTestStore(t)

	var matched int
	require.NoError(t, s.DB().QueryRow(`SELECT 'Alice' LIKE 'a%'`).Scan(&matched))
	assert.Equal(t, 0, matched)
}

func TestClose_Nil(t *testing.T) {
	s := &Store{}
	assert.NoError(t, s.Close())
}

func TestCreateTableSQL(t *testing.T) {
	assert.Equal(t,
		`CREATE TABLE IF NOT EXISTS "user_roles" ("user_uuid", "role_uuid", PRIMARY KEY ("user_uuid", "role_uuid"))`,
		createTableSQL("user_roles", []string{"user_uuid", "role_uuid"}, []string{"user_uuid", "role_uuid"}))
}

func TestUUIDv7Generator(t *testing.T) {
	gen := UUIDv7Generator{}
	a, b := gen.Generate(), gen.Generate()

	assert.Len(t, a, 36)
	assert.Equal(t, byte('7'), a[14], "version nibble")
	assert.NotEqual(t, a, b)
}
