package tsp

import "math/rand"

// Tour is one candidate solution: a permutation of all city indices
// interpreted as a cycle (the last city connects back to the first),
// together with its cached total cost. Every mutation goes through Apply
// with a delta computed for the current state, so the cache never diverges
// from a from-scratch recomputation.
type Tour struct {
	model *Model
	perm  []int
	cost  float64
}

// NewTour creates a tour over the given permutation, validating that it is
// a permutation of 0..Size()-1 and computing the initial cost in O(n).
func NewTour(m *Model, perm []int) (*Tour, error) {
	if m == nil {
		return nil, NewError(ErrInvalidInstance, "nil model").WithOperation("tsp.NewTour")
	}
	if err := validatePermutation(perm, m.n); err != nil {
		return nil, err
	}
	t := &Tour{
		model: m,
		perm:  append([]int(nil), perm...),
	}
	t.cost = cycleCost(m, t.perm)
	return t, nil
}

// NewRandomTour creates a tour over a uniformly shuffled permutation.
func NewRandomTour(m *Model, rng *rand.Rand) *Tour {
	perm := RandomPermutation(m.n, rng)
	return &Tour{
		model: m,
		perm:  perm,
		cost:  cycleCost(m, perm),
	}
}

// Len returns the number of cities in the tour.
func (t *Tour) Len() int {
	return len(t.perm)
}

// Cost returns the cached total cost in O(1).
func (t *Tour) Cost() float64 {
	return t.cost
}

// RecomputeCost returns the full O(n) recomputation of the tour cost. It
// exists for validation and testing: after any sequence of delta-tracked
// mutations it must equal Cost up to floating-point rounding.
func (t *Tour) RecomputeCost() float64 {
	return cycleCost(t.model, t.perm)
}

// City returns the city at the given tour position.
func (t *Tour) City(pos int) int {
	return t.perm[pos]
}

// Sequence returns a copy of the underlying permutation.
func (t *Tour) Sequence() []int {
	return append([]int(nil), t.perm...)
}

// CopySequence copies the permutation into dst, which must have length
// Len(). It lets hot paths reuse a scratch buffer instead of allocating
// through Sequence.
func (t *Tour) CopySequence(dst []int) {
	copy(dst, t.perm)
}

// Clone returns an independent copy sharing the (read-only) model.
func (t *Tour) Clone() *Tour {
	return &Tour{
		model: t.model,
		perm:  append([]int(nil), t.perm...),
		cost:  t.cost,
	}
}

// Model returns the distance model the tour is defined over.
func (t *Tour) Model() *Model {
	return t.model
}

// Apply mutates the permutation according to the move and adds delta to
// the cached cost. The delta must have been computed for this exact tour
// state (see Evaluator.Delta); applying a stale delta desynchronizes the
// cache.
func (t *Tour) Apply(mv Move, delta float64) {
	ApplyMove(t.perm, mv)
	t.cost += delta
}

// cycleCost sums the edge distances implied by perm, including the closing
// edge from the last city back to the first.
func cycleCost(m *Model, perm []int) float64 {
	n := len(perm)
	if n < 2 {
		return 0
	}
	total := 0.0
	for i := 0; i < n-1; i++ {
		total += m.dist[perm[i]*m.n+perm[i+1]]
	}
	total += m.dist[perm[n-1]*m.n+perm[0]]
	return total
}

// validatePermutation rejects sequences that are not a permutation of
// 0..n-1.
func validatePermutation(perm []int, n int) error {
	if len(perm) != n {
		return NewErrorf(ErrInvalidInstance, "permutation has %d entries, want %d", len(perm), n)
	}
	seen := make([]bool, n)
	for pos, c := range perm {
		if c < 0 || c >= n {
			return NewErrorf(ErrInvalidInstance, "city %d at position %d out of range [0,%d)", c, pos, n)
		}
		if seen[c] {
			return NewErrorf(ErrInvalidInstance, "city %d appears more than once", c)
		}
		seen[c] = true
	}
	return nil
}
