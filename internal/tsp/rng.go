package tsp

import (
	"math/rand"
	"time"
)

// NewRNG returns a deterministic random source for the given seed. A zero
// seed selects a time-based source for callers that want fresh randomness
// on every run; pass a nonzero seed for reproducible results.
func NewRNG(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// DeriveSeed mixes a parent seed with a stream identifier through a
// SplitMix64 finalizer, giving parallel workers independent streams from a
// single base seed. The derived seed depends only on its inputs, never on
// how many streams exist or in what order they are derived.
func DeriveSeed(parent int64, stream uint64) int64 {
	x := uint64(parent) + (stream+1)*0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return int64(x)
}

// DeriveRNG is shorthand for a source seeded with DeriveSeed.
func DeriveRNG(parent int64, stream uint64) *rand.Rand {
	return rand.New(rand.NewSource(DeriveSeed(parent, stream)))
}

// RandomPermutation returns a uniformly random permutation of 0..n-1 drawn
// from rng via a Fisher-Yates shuffle.
func RandomPermutation(n int, rng *rand.Rand) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}
