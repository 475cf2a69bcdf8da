package fixtures

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Rand is the random source used for draws and shuffles.
// Inject a seeded one for reproducible schedules.
type Rand interface {
	// IntN returns a uniform value in [0, n). n must be positive.
	IntN(n int) int
}

// NewRand returns a deterministic source for the given seed.
// The source is safe for concurrent use.
func NewRand(seed uint64) Rand {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// DefaultRand returns a source seeded from the clock.
func DefaultRand() Rand {
	return NewRand(uint64(time.Now().UnixNano()))
}

// Shuffle permutes s in place with a Fisher-Yates shuffle driven by rng.
func Shuffle[T any](s []T, rng Rand) {
	for i := len(s) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}
