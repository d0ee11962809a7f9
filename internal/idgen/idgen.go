// Package idgen provides identifier generators that can be swapped in tests.
package idgen

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator interface {
	Next() string
}

// UUID generates random version 4 UUIDs, optionally prefixed.
type UUID struct {
	Prefix string
}

func (g UUID) Next() string {
	return g.Prefix + uuid.NewString()
}

// Sequence generates "<prefix><n>" with n starting at 1.
// Each instance owns its counter, so tests never share ordering.
type Sequence struct {
	mu     sync.Mutex
	prefix string
	n      uint64
}

func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (s *Sequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s%d", s.prefix, s.n)
}

// Reset restarts the sequence at 1.
func (s *Sequence) Reset() {
	s.mu.Lock()
	s.n = 0
	s.mu.Unlock()
}
