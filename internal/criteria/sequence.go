package criteria

import "sync/atomic"

// Sequencer hands out order sequence ids.
//
// Implementations must be strictly increasing and never repeat a value, even
// when called from several goroutines.
type Sequencer interface {
	Next() int64
}

// Sequence is a monotonic counter for order sequence ids.
//
// Safe for concurrent use (atomic operations). There is deliberately no Reset;
// tests that need reproducible ids use testutil.DeterministicSequence.
type Sequence struct {
	seq atomic.Int64
}

// NewSequence creates a new sequence starting at 0.
// The first call to Next returns 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// NewSequenceAt creates a sequence whose next value is start+1.
func NewSequenceAt(start int64) *Sequence {
	s := &Sequence{}
	s.seq.Store(start)
	return s
}

// Next returns the next sequence id. Calls are linearizable.
func (s *Sequence) Next() int64 {
	return s.seq.Add(1)
}

// Current returns the last handed-out id without incrementing.
func (s *Sequence) Current() int64 {
	return s.seq.Load()
}

// processSequence is shared by every Criteria built without WithSequence,
// so orders from different instances interleave in creation order.
var processSequence = NewSequence()

// DefaultSequence returns the process-wide sequence.
func DefaultSequence() *Sequence {
	return processSequence
}
