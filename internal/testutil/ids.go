package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDGenerator returns UUID-shaped ids in a fixed sequence:
//
//	00000000-0000-7000-8000-000000000001
//	00000000-0000-7000-8000-000000000002
//
// Row ids in golden files and scenario expectations stay stable across runs.
// Safe for concurrent use.
type SequentialIDGenerator struct {
	mu sync.Mutex
	n  int
}

// NewSequentialIDGenerator creates a generator whose first id ends in 1.
func NewSequentialIDGenerator() *SequentialIDGenerator {
	return &SequentialIDGenerator{}
}

// Generate returns the next id.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return SequentialID(g.n)
}

// SequentialID returns the n-th id SequentialIDGenerator produces.
func SequentialID(n int) string {
	return fmt.Sprintf("00000000-0000-7000-8000-%012d", n)
}
