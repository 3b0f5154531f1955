package uno

import (
	"math/rand"
	"sync"
)

// RNG abstracts random number generation for deterministic testing.
type RNG interface {
	// Intn returns a non-negative random int in [0, n).
	Intn(n int) int
}

type lockedRNG struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func (r *lockedRNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Intn(n)
}

// NewRNG returns a seeded RNG that is safe for concurrent use.
func NewRNG(seed int64) RNG {
	return &lockedRNG{rnd: rand.New(rand.NewSource(seed))}
}

// Shuffle permutes s in place with Fisher-Yates.
func Shuffle[T any](rng RNG, s []T) {
	for i := len(s) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// Permutation returns a uniformly shuffled ordering of 1..n.
func Permutation(rng RNG, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	Shuffle(rng, out)
	return out
}
