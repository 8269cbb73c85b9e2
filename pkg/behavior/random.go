package behavior

import (
	"math/rand/v2"
	"time"
)

// RandomSource supplies uniform numbers in [0, 1).
// *rand.Rand from math/rand/v2 satisfies it; tests inject seeded or scripted sources.
type RandomSource interface {
	Float64() float64
}

// NewRandomSource returns a PCG generator for seed.
// A zero seed picks one from the wall clock.
func NewRandomSource(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// randRange returns a uniform value in [lo, hi).
func randRange(r RandomSource, lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}

// randIndex returns a uniform index in [0, n).
func randIndex(r RandomSource, n int) int {
	i := int(r.Float64() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
