package tabu

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/copyleftdev/TRVLR/internal/tsp"
)

// memory is the short-term store of forbidden search states. forbidden is
// consulted before a candidate is chosen; record runs after the chosen
// move has mutated the tour.
type memory interface {
	forbidden(t *tsp.Tour, mv tsp.Move, iter int) bool
	record(t *tsp.Tour, mv tsp.Move, iter int)
}

// moveMemory forbids the position span a move rewrites for a fixed number
// of iterations, regardless of what the tour looks like by then. A move
// and its exact reverse rewrite the same span, so blocking the span blocks
// the reverse for the whole tenure: Swap(i,j) undoes itself, Insert(i,j)
// is undone by Insert(j,i), and a segment reversal is its own inverse.
type moveMemory struct {
	tenure int
	until  map[[2]int]int
}

func newMoveMemory(tenure int) *moveMemory {
	return &moveMemory{tenure: tenure, until: make(map[[2]int]int)}
}

// signature canonicalizes a move to the ordered pair of positions that
// bound the span it rewrites. Segment reversals use the inclusive end,
// position J-1, so reversals that touch the same cities collide.
func signature(mv tsp.Move) [2]int {
	i, j := mv.I, mv.J
	if i > j {
		i, j = j, i
	}
	if mv.Kind == tsp.TwoOptMove {
		j--
	}
	return [2]int{i, j}
}

func (m *moveMemory) forbidden(_ *tsp.Tour, mv tsp.Move, iter int) bool {
	until, ok := m.until[signature(mv)]
	return ok && iter <= until
}

func (m *moveMemory) record(_ *tsp.Tour, mv tsp.Move, iter int) {
	m.until[signature(mv)] = iter + m.tenure
}

// pathMemory forbids revisiting any of the last tenure tours. Tours are
// keyed by an FNV-1a hash of the permutation rotated to start at city 0,
// so all cyclic shifts of one tour share a signature. Checking a candidate
// hashes the tour the move would produce, which costs O(n) per candidate
// against moveMemory's O(1).
type pathMemory struct {
	tenure  int
	seen    map[uint64]struct{}
	order   []uint64
	scratch []int
}

func newPathMemory(tenure int) *pathMemory {
	return &pathMemory{
		tenure: tenure,
		seen:   make(map[uint64]struct{}, tenure),
		order:  make([]uint64, 0, tenure),
	}
}

func (m *pathMemory) forbidden(t *tsp.Tour, mv tsp.Move, _ int) bool {
	s := m.buffer(t.Len())
	t.CopySequence(s)
	tsp.ApplyMove(s, mv)
	_, ok := m.seen[hashPerm(s)]
	return ok
}

func (m *pathMemory) record(t *tsp.Tour, _ tsp.Move, _ int) {
	s := m.buffer(t.Len())
	t.CopySequence(s)
	m.add(hashPerm(s))
}

func (m *pathMemory) buffer(n int) []int {
	if cap(m.scratch) < n {
		m.scratch = make([]int, n)
	}
	return m.scratch[:n]
}

// add inserts a signature, evicting the oldest once tenure signatures are
// held.
func (m *pathMemory) add(key uint64) {
	if _, ok := m.seen[key]; ok {
		return
	}
	if len(m.order) >= m.tenure {
		delete(m.seen, m.order[0])
		m.order = m.order[1:]
	}
	m.seen[key] = struct{}{}
	m.order = append(m.order, key)
}

// hashPerm hashes a permutation rotated so city 0 leads, making the
// signature stable across cyclic shifts of the same tour.
func hashPerm(perm []int) uint64 {
	start := 0
	for i, c := range perm {
		if c == 0 {
			start = i
			break
		}
	}
	n := len(perm)
	h := fnv.New64a()
	var buf [8]byte
	for k := 0; k < n; k++ {
		binary.LittleEndian.PutUint64(buf[:], uint64(perm[(start+k)%n]))
		h.Write(buf[:])
	}
	return h.Sum64()
}
