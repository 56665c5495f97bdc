package tsp

import "fmt"

// MoveKind enumerates the supported neighborhood operators.
type MoveKind uint8

const (
	// SwapMove exchanges the cities at two positions.
	SwapMove MoveKind = iota
	// InsertMove removes the city at one position and reinserts it at
	// another, shifting the cities in between.
	InsertMove
	// TwoOptMove reverses the segment between two positions (half-open:
	// positions I..J-1), replacing two edges of the cycle.
	TwoOptMove
)

// String returns the configuration spelling of the move kind.
func (k MoveKind) String() string {
	switch k {
	case SwapMove:
		return "swap"
	case InsertMove:
		return "insert"
	case TwoOptMove:
		return "two_opt"
	default:
		return fmt.Sprintf("MoveKind(%d)", uint8(k))
	}
}

// ParseMoveKind converts a configuration string into a MoveKind.
func ParseMoveKind(s string) (MoveKind, error) {
	switch s {
	case "swap":
		return SwapMove, nil
	case "insert":
		return InsertMove, nil
	case "two_opt":
		return TwoOptMove, nil
	default:
		return 0, NewErrorf(ErrInvalidConfiguration, "unknown move kind %q", s)
	}
}

// Move describes a candidate perturbation of a tour by two position
// indices. It is a description only: nothing changes until the move is
// passed to Tour.Apply together with its evaluated delta. For SwapMove and
// TwoOptMove the pair is unordered; InsertMove is directional (I is the
// source position, J the destination).
type Move struct {
	Kind MoveKind
	I, J int
}

// Delta returns cost(tour after move) - cost(tour before move) in O(1),
// looking only at the edges incident to the touched positions. The tour is
// not modified.
func Delta(t *Tour, mv Move) float64 {
	switch mv.Kind {
	case SwapMove:
		return deltaSwap(t.model, t.perm, mv.I, mv.J)
	case InsertMove:
		return deltaInsert(t.model, t.perm, mv.I, mv.J)
	case TwoOptMove:
		return deltaTwoOpt(t.model, t.perm, mv.I, mv.J)
	default:
		return 0
	}
}

// ApplyMove mutates a raw permutation according to the move semantics.
// Cost bookkeeping is the caller's responsibility; most callers want
// Tour.Apply instead. It is exported for code that evaluates hypothetical
// successor states, such as reference cost checks and tabu signatures.
func ApplyMove(perm []int, mv Move) {
	switch mv.Kind {
	case SwapMove:
		perm[mv.I], perm[mv.J] = perm[mv.J], perm[mv.I]
	case InsertMove:
		i, j := mv.I, mv.J
		if i == j {
			return
		}
		c := perm[i]
		if i < j {
			copy(perm[i:j], perm[i+1:j+1])
		} else {
			copy(perm[j+1:i+1], perm[j:i])
		}
		perm[j] = c
	case TwoOptMove:
		i, j := mv.I, mv.J
		if i > j {
			i, j = j, i
		}
		for l, r := i, j-1; l < r; l, r = l+1, r-1 {
			perm[l], perm[r] = perm[r], perm[l]
		}
	}
}

// deltaSwap computes the cost change of exchanging perm[i] and perm[j].
// Three cases: the positions are neighbors on the cycle (three edges
// change), they are the endpoints of the closing edge (same, mirrored), or
// they are independent (four edges change).
func deltaSwap(m *Model, perm []int, i, j int) float64 {
	if i == j {
		return 0
	}
	if i > j {
		i, j = j, i
	}
	n := len(perm)
	if n < 3 {
		// A two-city cycle keeps its cost under any swap.
		return 0
	}
	a, b := perm[i], perm[j]

	aPrev := perm[(i-1+n)%n]
	aNext := perm[(i+1)%n]
	bPrev := perm[(j-1+n)%n]
	bNext := perm[(j+1)%n]

	if j == i+1 {
		return m.dist[aPrev*m.n+b] + m.dist[b*m.n+a] + m.dist[a*m.n+bNext] -
			m.dist[aPrev*m.n+a] - m.dist[a*m.n+b] - m.dist[b*m.n+bNext]
	}
	if i == 0 && j == n-1 {
		// b immediately precedes a on the cycle via the closing edge.
		return m.dist[bPrev*m.n+a] + m.dist[a*m.n+b] + m.dist[b*m.n+aNext] -
			m.dist[bPrev*m.n+b] - m.dist[b*m.n+a] - m.dist[a*m.n+aNext]
	}
	return m.dist[aPrev*m.n+b] + m.dist[b*m.n+aNext] + m.dist[bPrev*m.n+a] + m.dist[a*m.n+bNext] -
		m.dist[aPrev*m.n+a] - m.dist[a*m.n+aNext] - m.dist[bPrev*m.n+b] - m.dist[b*m.n+bNext]
}

// deltaTwoOpt computes the cost change of reversing perm[i:j]. Only the
// edge into the segment and the edge out of it change; the interior edges
// keep their cost because distances are symmetric.
func deltaTwoOpt(m *Model, perm []int, i, j int) float64 {
	if i == j {
		return 0
	}
	if i > j {
		i, j = j, i
	}
	n := len(perm)

	im1 := perm[(i-1+n)%n]
	ip1 := perm[i]
	jm1 := perm[j-1]
	jp1 := perm[j%n]

	return m.dist[im1*m.n+jm1] + m.dist[ip1*m.n+jp1] -
		m.dist[im1*m.n+ip1] - m.dist[jm1*m.n+jp1]
}

// deltaInsert computes the cost change of removing the city at position i
// and reinserting it at position j. Three edges change: two around the old
// position are stitched into one, and one edge at the destination splits
// in two. When the destination is adjacent to the source across the ring
// boundary, the neighbor read from the old permutation would be the moved
// city itself, so the formula substitutes the city's other neighbor.
func deltaInsert(m *Model, perm []int, i, j int) float64 {
	if i == j {
		return 0
	}
	n := len(perm)
	a := perm[i]
	aPrev := perm[(i-1+n)%n]
	aNext := perm[(i+1)%n]

	delta := m.dist[aPrev*m.n+aNext] - m.dist[aPrev*m.n+a] - m.dist[a*m.n+aNext]

	var left, right int
	if i < j {
		left = perm[j]
		if rightIdx := (j + 1) % n; rightIdx == i {
			right = aNext
		} else {
			right = perm[rightIdx]
		}
	} else {
		if leftIdx := (j - 1 + n) % n; leftIdx == i {
			left = aPrev
		} else {
			left = perm[leftIdx]
		}
		right = perm[j]
	}

	return delta + m.dist[left*m.n+a] + m.dist[a*m.n+right] - m.dist[left*m.n+right]
}

// Evaluator computes the cost delta of candidate moves. With useDelta set
// it relies on the O(1) incremental formulas; otherwise it applies the
// move to a scratch copy and recomputes the full O(n) cycle cost. Both
// paths agree up to floating-point rounding; the full path is kept as a
// configuration switch to measure the gain of incremental evaluation.
//
// An Evaluator also counts evaluations and is not safe for concurrent use;
// give each worker its own.
type Evaluator struct {
	useDelta bool
	scratch  []int
	evals    int
}

// NewEvaluator creates an evaluator. useDelta selects the incremental path.
func NewEvaluator(useDelta bool) *Evaluator {
	return &Evaluator{useDelta: useDelta}
}

// Delta returns the cost change of applying mv to t without modifying t.
func (e *Evaluator) Delta(t *Tour, mv Move) float64 {
	e.evals++
	if e.useDelta {
		return Delta(t, mv)
	}
	n := t.Len()
	if cap(e.scratch) < n {
		e.scratch = make([]int, n)
	}
	s := e.scratch[:n]
	copy(s, t.perm)
	ApplyMove(s, mv)
	return cycleCost(t.model, s) - t.cost
}

// Evaluations returns the number of Delta calls served so far.
func (e *Evaluator) Evaluations() int {
	return e.evals
}
