// Package localsearch implements iterative hill climbing over the tour
// neighborhoods: scan the configured move kinds, apply an improving move,
// repeat until no move improves the tour, optionally restarting from fresh
// random tours and keeping the best local optimum observed.
package localsearch

import (
	"context"
	"math/rand"
	"time"

	"github.com/copyleftdev/TRVLR/internal/tsp"
)

// ScanPolicy picks how a neighborhood scan selects the move to apply.
type ScanPolicy string

const (
	// FirstImprovement applies the first improving move found and rescans.
	FirstImprovement ScanPolicy = "first_improvement"
	// BestImprovement scans the whole neighborhood and applies the move
	// with the most negative delta.
	BestImprovement ScanPolicy = "best_improvement"
)

// improveEps is the minimum cost decrease for a move to count as
// improving. Accepting deltas inside floating-point noise could cycle the
// climb between states of equal true cost.
const improveEps = 1e-9

// Config parameterizes hill climbing.
type Config struct {
	// MoveKinds is the non-empty ordered set of neighborhoods to scan.
	MoveKinds []tsp.MoveKind
	// Scan selects first- or best-improvement scanning.
	Scan ScanPolicy
	// UseDelta selects O(1) incremental cost evaluation; when false every
	// candidate recomputes the full tour cost. Results are identical for
	// the same seed, only slower.
	UseDelta bool
	// MaxIterations caps the number of applied moves per climb; 0 climbs
	// all the way to a local optimum.
	MaxIterations int
	// Starts is the number of random restarts Solve runs.
	Starts int
	// Seed feeds the random starting tours; 0 draws a time-based seed.
	Seed int64
}

// DefaultConfig returns a first-improvement climb of the segment-reversal
// neighborhood with ten random restarts.
func DefaultConfig() Config {
	return Config{
		MoveKinds: []tsp.MoveKind{tsp.TwoOptMove},
		Scan:      FirstImprovement,
		UseDelta:  true,
		Starts:    10,
	}
}

// Validate rejects parameters outside their documented domains.
func (c Config) Validate() error {
	if len(c.MoveKinds) == 0 {
		return tsp.NewError(tsp.ErrInvalidConfiguration, "no move kinds configured").
			WithOperation("localsearch.Config.Validate")
	}
	for _, k := range c.MoveKinds {
		switch k {
		case tsp.SwapMove, tsp.InsertMove, tsp.TwoOptMove:
		default:
			return tsp.NewErrorf(tsp.ErrInvalidConfiguration, "unknown move kind %v", k).
				WithOperation("localsearch.Config.Validate")
		}
	}
	switch c.Scan {
	case FirstImprovement, BestImprovement:
	default:
		return tsp.NewErrorf(tsp.ErrInvalidConfiguration, "unknown scan policy %q", c.Scan).
			WithOperation("localsearch.Config.Validate")
	}
	if c.MaxIterations < 0 {
		return tsp.NewErrorf(tsp.ErrInvalidConfiguration, "iteration budget %d is negative", c.MaxIterations).
			WithOperation("localsearch.Config.Validate")
	}
	if c.Starts < 1 {
		return tsp.NewErrorf(tsp.ErrInvalidConfiguration, "start count must be positive, got %d", c.Starts).
			WithOperation("localsearch.Config.Validate")
	}
	return nil
}

// Solver runs hill climbing. Improve is safe for concurrent use as long as
// every caller supplies its own tour and evaluator; Solve drives the
// multistart loop on the solver's own random source and is not reentrant.
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

// Improve climbs t in place to a local optimum: scan the configured
// neighborhoods, apply the selected improving move, rescan, until no move
// decreases the cost or the iteration budget runs out. Returns the number
// of moves applied. On cancellation the context error is returned and t
// holds the best state reached, since every applied move improved it.
func (s *Solver) Improve(ctx context.Context, t *tsp.Tour, ev *tsp.Evaluator) (int, error) {
	applied := 0
	for s.cfg.MaxIterations == 0 || applied < s.cfg.MaxIterations {
		select {
		case <-ctx.Done():
			return applied, ctx.Err()
		default:
		}

		mv, delta, ok := s.scan(t, ev)
		if !ok {
			return applied, nil
		}
		t.Apply(mv, delta)
		applied++
	}
	return applied, nil
}

// scan selects the next move per the scan policy; ok is false at a local
// optimum.
func (s *Solver) scan(t *tsp.Tour, ev *tsp.Evaluator) (mv tsp.Move, delta float64, ok bool) {
	delta = -improveEps
	for _, kind := range s.cfg.MoveKinds {
		nb := tsp.NewNeighborhood(kind, t.Len())
		for {
			cand, more := nb.Next()
			if !more {
				break
			}
			d := ev.Delta(t, cand)
			if d < delta {
				if s.cfg.Scan == FirstImprovement {
					return cand, d, true
				}
				mv, delta, ok = cand, d, true
			}
		}
	}
	return mv, delta, ok
}

// Solve runs Starts independent climbs from random tours and returns the
// best local optimum found. Result.Iterations counts applied moves across
// all starts.
func (s *Solver) Solve(ctx context.Context, m *tsp.Model) (*tsp.Result, error) {
	started := time.Now()
	if m == nil || m.Size() == 0 {
		return nil, tsp.NewError(tsp.ErrEmptyInstance, "no cities").
			WithOperation("localsearch.Solver.Solve")
	}

	ev := tsp.NewEvaluator(s.cfg.UseDelta)
	var best *tsp.Tour
	applied := 0
	for i := 0; i < s.cfg.Starts; i++ {
		t := tsp.NewRandomTour(m, s.rng)
		moves, err := s.Improve(ctx, t, ev)
		applied += moves
		if best == nil || t.Cost() < best.Cost() {
			best = t
		}
		if err != nil {
			return s.result(best, applied, ev, started), err
		}
	}
	return s.result(best, applied, ev, started), nil
}

func (s *Solver) result(best *tsp.Tour, applied int, ev *tsp.Evaluator, started time.Time) *tsp.Result {
	kinds := make([]string, len(s.cfg.MoveKinds))
	for i, k := range s.cfg.MoveKinds {
		kinds[i] = k.String()
	}
	return &tsp.Result{
		Tour:        best.Sequence(),
		Cost:        best.Cost(),
		Iterations:  applied,
		Evaluations: ev.Evaluations(),
		Duration:    time.Since(started),
		Meta: map[string]any{
			"starts":     s.cfg.Starts,
			"scan":       string(s.cfg.Scan),
			"move_kinds": kinds,
			"use_delta":  s.cfg.UseDelta,
		},
	}
}
