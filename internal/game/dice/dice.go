// Package dice provides the randomness abstraction used to decide battles.
package dice

import (
	"fmt"
	"sync"
)

// Source is the randomness provider for battle outcomes.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Flip returns true with probability one half.
//
// Precondition: src must be non-nil.
func Flip(src Source) bool {
	return src.Intn(2) == 1
}

// Sequence is a deterministic Source that replays a fixed list of values,
// cycling when exhausted. Each value is reduced modulo n.
//
// Invariant: values is non-empty.
type Sequence struct {
	mu     sync.Mutex
	values []int
	next   int
}

// NewSequence returns a Sequence over values.
//
// Precondition: len(values) > 0 and every value >= 0.
func NewSequence(values ...int) *Sequence {
	if len(values) == 0 {
		panic("dice: NewSequence requires at least one value")
	}
	for _, v := range values {
		if v < 0 {
			panic(fmt.Sprintf("dice: NewSequence value %d is negative", v))
		}
	}
	return &Sequence{values: append([]int(nil), values...)}
}

// Intn returns the next value modulo n.
func (s *Sequence) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.next%len(s.values)]
	s.next++
	return v % n
}
