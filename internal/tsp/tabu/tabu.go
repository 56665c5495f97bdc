// Package tabu implements tabu search: steepest descent over a sampled
// candidate set with a short-term memory that forbids recently used moves
// or recently visited tours, softened by the aspiration rule that a new
// global best is always admissible.
package tabu

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/copyleftdev/TRVLR/internal/tsp"
)

// Policy selects what the short-term memory remembers.
type Policy string

const (
	// FullPath forbids revisiting any of the last Tenure tours.
	FullPath Policy = "full_path"
	// MoveAttr forbids reusing a move's position span for Tenure
	// iterations.
	MoveAttr Policy = "move"
)

// Hook observes every applied move. Iterations that apply no move (all
// candidates tabu without aspiration) are not reported.
type Hook func(iter int, mv tsp.Move, cost, best float64)

// Config parameterizes a tabu search run.
type Config struct {
	// Policy selects the tabu signature: full tours or move attributes.
	Policy Policy
	// Tenure is how many subsequent iterations a signature stays
	// forbidden.
	Tenure int
	// Candidates is how many random moves are sampled per iteration.
	Candidates int
	// MoveKind is the neighborhood sampled for candidates.
	MoveKind tsp.MoveKind
	// MaxIterations caps the run.
	MaxIterations int
	// MaxNoImprove stops the run after this many consecutive iterations
	// without a new global best; 0 disables the cutoff.
	MaxNoImprove int
	// UseDelta selects O(1) incremental cost evaluation.
	UseDelta bool
	// Seed feeds the random source; 0 draws a time-based seed.
	Seed int64
	// Hook, when set, observes every applied move.
	Hook Hook
}

// DefaultConfig returns the usual setting: move-attribute memory with a
// tenure of 10, thirty sampled segment reversals per iteration, and a
// stagnation cutoff of 200.
func DefaultConfig() Config {
	return Config{
		Policy:        MoveAttr,
		Tenure:        10,
		Candidates:    30,
		MoveKind:      tsp.TwoOptMove,
		MaxIterations: 2000,
		MaxNoImprove:  200,
		UseDelta:      true,
	}
}

// Validate rejects parameters outside their documented domains.
func (c Config) Validate() error {
	switch c.Policy {
	case FullPath, MoveAttr:
	default:
		return tsp.NewErrorf(tsp.ErrInvalidConfiguration, "unknown tabu policy %q", c.Policy).
			WithOperation("tabu.Config.Validate")
	}
	if c.Tenure < 1 {
		return tsp.NewErrorf(tsp.ErrInvalidConfiguration, "tenure must be positive, got %d", c.Tenure).
			WithOperation("tabu.Config.Validate")
	}
	if c.Candidates < 1 {
		return tsp.NewErrorf(tsp.ErrInvalidConfiguration, "candidate count must be positive, got %d", c.Candidates).
			WithOperation("tabu.Config.Validate")
	}
	switch c.MoveKind {
	case tsp.SwapMove, tsp.InsertMove, tsp.TwoOptMove:
	default:
		return tsp.NewErrorf(tsp.ErrInvalidConfiguration, "unknown move kind %v", c.MoveKind).
			WithOperation("tabu.Config.Validate")
	}
	if c.MaxIterations < 1 {
		return tsp.NewErrorf(tsp.ErrInvalidConfiguration, "iteration budget must be positive, got %d", c.MaxIterations).
			WithOperation("tabu.Config.Validate")
	}
	if c.MaxNoImprove < 0 {
		return tsp.NewErrorf(tsp.ErrInvalidConfiguration, "stagnation cutoff %d is negative", c.MaxNoImprove).
			WithOperation("tabu.Config.Validate")
	}
	return nil
}

// Solver runs tabu search.
type Solver struct {
	cfg Config
	rng *rand.Rand
}

// New validates the configuration and returns a solver.
func New(cfg Config) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Solver{cfg: cfg, rng: tsp.NewRNG(cfg.Seed)}, nil
}

// Search runs tabu search from cur, mutating it, and returns the best tour
// seen plus the iterations consumed. Each iteration samples Candidates
// random moves, discards the ones that are tabu and would not beat the
// global best, applies the cheapest survivor even when it worsens the
// tour, and records its signature. Iterations where every candidate is
// discarded count toward the stagnation cutoff.
func (s *Solver) Search(ctx context.Context, cur *tsp.Tour, ev *tsp.Evaluator) (*tsp.Tour, int, error) {
	best := cur.Clone()
	if cur.Len() < 2 {
		return best, 0, nil
	}

	var mem memory
	switch s.cfg.Policy {
	case FullPath:
		pm := newPathMemory(s.cfg.Tenure)
		// The starting tour counts as visited.
		pm.record(cur, tsp.Move{}, 0)
		mem = pm
	default:
		mem = newMoveMemory(s.cfg.Tenure)
	}

	noImprove := 0
	iters := 0
	for iters < s.cfg.MaxIterations {
		select {
		case <-ctx.Done():
			return best, iters, ctx.Err()
		default:
		}
		iter := iters
		iters++

		var chosen tsp.Move
		chosenDelta := math.Inf(1)
		found := false
		for c := 0; c < s.cfg.Candidates; c++ {
			mv := tsp.RandomMove(s.cfg.MoveKind, cur.Len(), s.rng)
			delta := ev.Delta(cur, mv)
			if mem.forbidden(cur, mv, iter) && cur.Cost()+delta >= best.Cost() {
				continue
			}
			if delta < chosenDelta {
				chosen, chosenDelta, found = mv, delta, true
			}
		}

		improved := false
		if found {
			cur.Apply(chosen, chosenDelta)
			mem.record(cur, chosen, iter)
			if cur.Cost() < best.Cost() {
				best = cur.Clone()
				improved = true
			}
			if s.cfg.Hook != nil {
				s.cfg.Hook(iter, chosen, cur.Cost(), best.Cost())
			}
		}

		if improved {
			noImprove = 0
		} else {
			noImprove++
			if s.cfg.MaxNoImprove > 0 && noImprove >= s.cfg.MaxNoImprove {
				break
			}
		}
	}
	return best, iters, nil
}

// Solve searches from a random tour drawn from the solver's seed.
func (s *Solver) Solve(ctx context.Context, m *tsp.Model) (*tsp.Result, error) {
	started := time.Now()
	if m == nil || m.Size() == 0 {
		return nil, tsp.NewError(tsp.ErrEmptyInstance, "no cities").
			WithOperation("tabu.Solver.Solve")
	}

	ev := tsp.NewEvaluator(s.cfg.UseDelta)
	cur := tsp.NewRandomTour(m, s.rng)
	best, iters, err := s.Search(ctx, cur, ev)

	return &tsp.Result{
		Tour:        best.Sequence(),
		Cost:        best.Cost(),
		Iterations:  iters,
		Evaluations: ev.Evaluations(),
		Duration:    time.Since(started),
		Meta: map[string]any{
			"policy":     string(s.cfg.Policy),
			"tenure":     s.cfg.Tenure,
			"candidates": s.cfg.Candidates,
			"move_kind":  s.cfg.MoveKind.String(),
			"use_delta":  s.cfg.UseDelta,
		},
	}, err
}
