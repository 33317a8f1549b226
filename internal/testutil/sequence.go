package testutil

import "sync"

// DeterministicSequence is a resettable order sequence for tests.
//
// Unlike criteria.Sequence it can be reset, so the same scenario run twice
// yields identical sequence ids. Safe for concurrent use.
type DeterministicSequence struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicSequence creates a sequence starting at 0.
// The first call to Next returns 1.
func NewDeterministicSequence() *DeterministicSequence {
	return &DeterministicSequence{}
}

// Next increments and returns the next sequence id.
func (s *DeterministicSequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Current returns the last handed-out id without incrementing.
func (s *DeterministicSequence) Current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Reset rewinds to 0. After Reset the next call to Next returns 1.
func (s *DeterministicSequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = 0
}
