package tsp

import "math/rand"

// Neighborhood enumerates every move of one kind for a tour of n cities,
// lazily and in a fixed order, so full scans never materialize the move
// set. Reset rewinds the stream; two passes over the same tour state yield
// identical move sequences.
//
// The enumeration skips no-op pairs: swaps visit unordered position pairs
// i < j, insertions visit all ordered pairs i != j, and segment reversals
// visit pairs with j >= i+2 (reversing a single city changes nothing).
type Neighborhood struct {
	kind MoveKind
	n    int
	i, j int
}

// NewNeighborhood creates an enumerator over all moves of the given kind
// for tours of n cities. Instances of fewer than two cities have empty
// neighborhoods.
func NewNeighborhood(kind MoveKind, n int) *Neighborhood {
	nb := &Neighborhood{kind: kind, n: n}
	nb.Reset()
	return nb
}

// Reset rewinds the enumeration to the first move.
func (nb *Neighborhood) Reset() {
	switch nb.kind {
	case TwoOptMove:
		nb.i, nb.j = 0, 2
	default:
		nb.i, nb.j = 0, 1
	}
}

// Next returns the next move in the enumeration. The second result is
// false once the neighborhood is exhausted.
func (nb *Neighborhood) Next() (Move, bool) {
	switch nb.kind {
	case SwapMove:
		if nb.i >= nb.n-1 {
			return Move{}, false
		}
		mv := Move{Kind: SwapMove, I: nb.i, J: nb.j}
		nb.j++
		if nb.j >= nb.n {
			nb.i++
			nb.j = nb.i + 1
		}
		return mv, true

	case InsertMove:
		if nb.n < 2 || nb.i >= nb.n {
			return Move{}, false
		}
		mv := Move{Kind: InsertMove, I: nb.i, J: nb.j}
		nb.j++
		if nb.j == nb.i {
			nb.j++
		}
		if nb.j >= nb.n {
			nb.i++
			nb.j = 0
			if nb.j == nb.i {
				nb.j++
			}
		}
		return mv, true

	case TwoOptMove:
		if nb.n < 3 || nb.i > nb.n-3 {
			return Move{}, false
		}
		mv := Move{Kind: TwoOptMove, I: nb.i, J: nb.j}
		nb.j++
		if nb.j >= nb.n {
			nb.i++
			nb.j = nb.i + 2
		}
		return mv, true
	}
	return Move{}, false
}

// RandomMove draws one uniformly random move of the given kind for a tour
// of n cities; n must be at least two. The two positions are distinct, and
// segment reversals are normalized to I < J.
func RandomMove(kind MoveKind, n int, rng *rand.Rand) Move {
	i := rng.Intn(n)
	j := rng.Intn(n)
	for j == i {
		j = rng.Intn(n)
	}
	if kind == TwoOptMove && i > j {
		i, j = j, i
	}
	return Move{Kind: kind, I: i, J: j}
}
