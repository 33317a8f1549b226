package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/criteria/internal/criteria"
	"github.com/roach88/criteria/internal/ir"
	"github.com/roach88/criteria/internal/testutil"
)

// createTestStore creates a new in-memory store over the testutil registry
// with sequential row ids.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", testutil.Registry(), WithIDGenerator(testutil.NewSequentialIDGenerator()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func day(month time.Month, d int) ir.IRTime {
	return ir.NewIRTime(time.Date(2024, month, d, 0, 0, 0, 0, time.UTC))
}

func strs(ss ...string) ir.IRArray {
	arr := make(ir.IRArray, len(ss))
	for i, s := range ss {
		arr[i] = ir.IRString(s)
	}
	return arr
}

// seedUsers inserts three users (ids 1..3), three posts (ids 4..6) and two
// roles (ids 7..8):
//
//	1 Alice   30  labels admin,staff  tags [go sql]       Oslo  admin
//	2 bob     17  labels staff        tags [rust]         Paris
//	3 Carol_1 45  labels guest        tags [go rust sql]  Oslo  editor
func seedUsers(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()

	users := []ir.IRObject{
		{
			"name": ir.IRString("Alice"), "email": ir.IRString("alice@example.com"),
			"age": ir.IRInt(30), "score": ir.IRFloat(4.5), "active": ir.IRBool(true),
			"labels": ir.IRString("admin,staff"), "tags": strs("go", "sql"),
			"profile": ir.IRObject{
				"city": ir.IRString("Oslo"), "langs": strs("en", "no"), "level": ir.IRInt(3),
			},
			"created_at": day(time.January, 1),
		},
		{
			"name": ir.IRString("bob"), "email": ir.IRString("bob@test.org"),
			"age": ir.IRInt(17), "score": ir.IRFloat(2), "active": ir.IRBool(false),
			"labels": ir.IRString("staff"), "tags": strs("rust"),
			"profile": ir.IRObject{
				"city": ir.IRString("Paris"), "langs": strs("fr"), "level": ir.IRInt(1),
			},
			"created_at": day(time.February, 1), "deleted_at": day(time.March, 1),
		},
		{
			"name": ir.IRString("Carol_1"), "email": ir.IRString("carol@example.com"),
			"age": ir.IRInt(45), "score": ir.IRFloat(3.25), "active": ir.IRBool(true),
			"labels": ir.IRString("guest"), "tags": strs("go", "rust", "sql"),
			"profile": ir.IRObject{
				"city": ir.IRString("Oslo"), "langs": strs("en"), "level": ir.IRInt(2),
			},
			"created_at": day(time.March, 1),
		},
	}
	for _, u := range users {
		_, err := s.Insert(ctx, "users", u)
		require.NoError(t, err)
	}

	posts := []ir.IRObject{
		{"user_uuid": ir.IRString(testutil.SequentialID(1)), "title": ir.IRString("hello"), "likes": ir.IRInt(10)},
		{"user_uuid": ir.IRString(testutil.SequentialID(1)), "title": ir.IRString("again"), "likes": ir.IRInt(150)},
		{"user_uuid": ir.IRString(testutil.SequentialID(2)), "title": ir.IRString("rust"), "likes": ir.IRInt(50)},
	}
	for _, p := range posts {
		_, err := s.Insert(ctx, "posts", p)
		require.NoError(t, err)
	}

	admin, err := s.Insert(ctx, "roles", ir.IRObject{"name": ir.IRString("admin")})
	require.NoError(t, err)
	editor, err := s.Insert(ctx, "roles", ir.IRObject{"name": ir.IRString("editor")})
	require.NoError(t, err)

	require.NoError(t, s.Link(ctx, "users", "roles", ir.IRString(testutil.SequentialID(1)), admin))
	require.NoError(t, s.Link(ctx, "users", "roles", ir.IRString(testutil.SequentialID(3)), editor))
}

func ids(ns ...int) []ir.IRValue {
	out := make([]ir.IRValue, len(ns))
	for i, n := range ns {
		out[i] = ir.IRString(testutil.SequentialID(n))
	}
	return out
}

func newCriteria(t *testing.T, s *Store, schema string) *criteria.Criteria {
	t.Helper()
	return criteria.NewRoot(s.Registry().MustGet(schema), criteria.WithSequence(testutil.NewDeterministicSequence()))
}

func findIDs(t *testing.T, s *Store, c *criteria.Criteria) []ir.IRValue {
	t.Helper()
	got, err := s.FindIDs(context.Background(), c)
	require.NoError(t, err)
	return got
}
