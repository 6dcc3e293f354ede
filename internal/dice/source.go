package dice

import (
	"math/rand/v2"
	"sync"
)

// Source is the randomness provider for die rolls.
//
// Implementations shared between goroutines must be safe for concurrent use.
type Source interface {
	// IntN returns a random int in [0, n). n must be > 0.
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// DefaultSource draws from the process-wide math/rand/v2 generator, which is
// randomly seeded at startup and safe for concurrent use.
var DefaultSource Source = globalSource{}

// seededSource is a deterministic PCG generator behind a mutex.
type seededSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededSource returns a deterministic Source: two sources built from the
// same seed yield the same sequence of draws.
func NewSeededSource(seed uint64) Source {
	return &seededSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *seededSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}
