package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicSequence_StartsAtZero(t *testing.T) {
	seq := NewDeterministicSequence()
	assert.Equal(t, int64(0), seq.Current())
}

func TestDeterministicSequence_NextIncrementsMonotonically(t *testing.T) {
	seq := NewDeterministicSequence()

	assert.Equal(t, int64(1), seq.Next())
	assert.Equal(t, int64(2), seq.Next())
	assert.Equal(t, int64(3), seq.Next())
	assert.Equal(t, int64(3), seq.Current())
}

func TestDeterministicSequence_Reset(t *testing.T) {
	seq := NewDeterministicSequence()
	seq.Next()
	seq.Next()

	seq.Reset()
	assert.Equal(t, int64(0), seq.Current())
	assert.Equal(t, int64(1), seq.Next())
}

func TestDeterministicSequence_ThreadSafe(t *testing.T) {
	seq := NewDeterministicSequence()
	const workers = 50
	const calls = 100

	var wg sync.WaitGroup
	wg.Add(workers)
	results := make([][]int64, workers)
	for i := 0; i < workers; i++ {
		results[i] = make([]int64, calls)
		go func(idx int) {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				results[idx][j] = seq.Next()
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool)
	for _, batch := range results {
		for _, v := range batch {
			require.False(t, seen[v], "duplicate value %d", v)
			seen[v] = true
		}
	}
	assert.Len(t, seen, workers*calls)
}

func TestSequentialIDGenerator(t *testing.T) {
	gen := NewSequentialIDGenerator()

	assert.Equal(t, "00000000-0000-7000-8000-000000000001", gen.Generate())
	assert.Equal(t, "00000000-0000-7000-8000-000000000002", gen.Generate())
	assert.Equal(t, SequentialID(3), gen.Generate())
}

func TestRegistry_FixturesAreValid(t *testing.T) {
	reg := Registry()

	assert.Equal(t, []string{"users", "posts", "roles"}, reg.Names())
	users, ok := reg.Get("users")
	require.True(t, ok)
	assert.Equal(t, "u", users.SourceAlias())
}
