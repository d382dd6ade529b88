package combat

import "math/rand"

// RNG wraps math/rand.Rand with a call counter so runs can be replayed
// from a seed.
type RNG struct {
	seed int64
	src  *rand.Rand
	pos  int64
}

// NewRNG creates a deterministic RNG from a seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		seed: seed,
		src:  rand.New(rand.NewSource(seed)),
	}
}

// Roll returns a random integer in [1, sides].
func (r *RNG) Roll(sides int) int {
	r.pos++
	return r.src.Intn(sides) + 1
}

// Pick returns a random index in [0, n). n must be positive.
func (r *RNG) Pick(n int) int {
	return r.Roll(n) - 1
}

// Seed returns the seed the RNG was created with.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Position returns the number of calls made since creation.
func (r *RNG) Position() int64 {
	return r.pos
}
