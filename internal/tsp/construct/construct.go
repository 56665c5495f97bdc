// Package construct builds starting tours: the deterministic
// nearest-neighbor heuristic and the greedy-randomized construction that
// feeds the GRASP loop.
package construct

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/copyleftdev/TRVLR/internal/tsp"
)

// RCLPolicy selects how the restricted candidate list is assembled at each
// greedy-randomized construction step.
type RCLPolicy string

const (
	// TopK keeps the K nearest unvisited cities.
	TopK RCLPolicy = "top_k"
	// AlphaThreshold keeps every unvisited city whose distance is within
	// min + Alpha*(max-min) of the current city.
	AlphaThreshold RCLPolicy = "alpha_threshold"
)

// RCLConfig parameterizes greedy-randomized construction.
type RCLConfig struct {
	Policy RCLPolicy
	// K is the candidate count for TopK.
	K int
	// Alpha is the greediness dial for AlphaThreshold: 0 admits only the
	// nearest candidates, 1 admits every unvisited city.
	Alpha float64
}

// DefaultRCLConfig returns the usual GRASP setting: the alpha-threshold
// policy with a mildly greedy alpha.
func DefaultRCLConfig() RCLConfig {
	return RCLConfig{Policy: AlphaThreshold, Alpha: 0.3}
}

// Validate rejects parameters outside their documented domains.
func (c RCLConfig) Validate() error {
	switch c.Policy {
	case TopK:
		if c.K < 1 {
			return tsp.NewErrorf(tsp.ErrInvalidConfiguration, "top_k needs K >= 1, got %d", c.K).
				WithOperation("construct.RCLConfig.Validate")
		}
	case AlphaThreshold:
		if c.Alpha < 0 || c.Alpha > 1 {
			return tsp.NewErrorf(tsp.ErrInvalidConfiguration, "alpha %v outside [0,1]", c.Alpha).
				WithOperation("construct.RCLConfig.Validate")
		}
	default:
		return tsp.NewErrorf(tsp.ErrInvalidConfiguration, "unknown rcl policy %q", c.Policy).
			WithOperation("construct.RCLConfig.Validate")
	}
	return nil
}

// NearestNeighbor builds a tour that starts at the given city and always
// visits the nearest unvisited city next, ties broken by the lowest city
// index. The result is deterministic for a fixed start. O(n^2).
func NearestNeighbor(m *tsp.Model, start int) (*tsp.Tour, error) {
	if m == nil || m.Size() == 0 {
		return nil, tsp.NewError(tsp.ErrEmptyInstance, "no cities").
			WithOperation("construct.NearestNeighbor")
	}
	n := m.Size()
	if start < 0 || start >= n {
		return nil, tsp.NewErrorf(tsp.ErrInvalidConfiguration, "start city %d outside [0,%d)", start, n).
			WithOperation("construct.NearestNeighbor")
	}

	perm := make([]int, 0, n)
	visited := make([]bool, n)
	perm = append(perm, start)
	visited[start] = true
	current := start
	for len(perm) < n {
		next := -1
		nextDist := math.Inf(1)
		for c := 0; c < n; c++ {
			if visited[c] {
				continue
			}
			if d := m.Distance(current, c); d < nextDist {
				next, nextDist = c, d
			}
		}
		perm = append(perm, next)
		visited[next] = true
		current = next
	}
	return tsp.NewTour(m, perm)
}

// GreedyRandomized builds a tour from a uniformly random start city. At
// each step it assembles the restricted candidate list per the policy and
// moves to a uniformly drawn member. Alpha 0 and K 1 degenerate to the
// nearest-neighbor choice; alpha 1 yields a uniform random walk over the
// unvisited cities.
func GreedyRandomized(m *tsp.Model, cfg RCLConfig, rng *rand.Rand) (*tsp.Tour, error) {
	if m == nil || m.Size() == 0 {
		return nil, tsp.NewError(tsp.ErrEmptyInstance, "no cities").
			WithOperation("construct.GreedyRandomized")
	}
	if rng == nil {
		return nil, tsp.NewError(tsp.ErrInvalidConfiguration, "nil random source").
			WithOperation("construct.GreedyRandomized")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := m.Size()
	current := rng.Intn(n)
	perm := make([]int, 0, n)
	perm = append(perm, current)

	remaining := make([]int, 0, n-1)
	for c := 0; c < n; c++ {
		if c != current {
			remaining = append(remaining, c)
		}
	}

	dists := make([]float64, 0, n-1)
	rcl := make([]int, 0, n-1) // indices into remaining
	for len(remaining) > 0 {
		dists = dists[:0]
		for _, c := range remaining {
			dists = append(dists, m.Distance(current, c))
		}

		rcl = rcl[:0]
		switch cfg.Policy {
		case TopK:
			rcl = appendNearest(rcl, dists, cfg.K)
		default:
			lo := floats.Min(dists)
			hi := floats.Max(dists)
			threshold := lo + cfg.Alpha*(hi-lo)
			for idx, d := range dists {
				if d <= threshold {
					rcl = append(rcl, idx)
				}
			}
		}

		pick := rcl[rng.Intn(len(rcl))]
		current = remaining[pick]
		perm = append(perm, current)
		remaining = append(remaining[:pick], remaining[pick+1:]...)
	}
	return tsp.NewTour(m, perm)
}

// appendNearest appends the indices of the k smallest distances, ties
// broken by the lower index so k=1 agrees with the nearest-neighbor
// choice.
func appendNearest(rcl []int, dists []float64, k int) []int {
	if k > len(dists) {
		k = len(dists)
	}
	order := make([]int, len(dists))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		if dists[order[a]] != dists[order[b]] {
			return dists[order[a]] < dists[order[b]]
		}
		return order[a] < order[b]
	})
	return append(rcl, order[:k]...)
}
