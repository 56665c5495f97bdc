// Package anneal implements simulated annealing over the tour
// neighborhoods. Each iteration samples one random move, always accepts
// improvements, accepts deteriorations with the Metropolis probability
// exp(-delta/T), and cools the temperature. The best tour ever seen is
// tracked separately from the wandering current tour and is what the run
// reports.
package anneal

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/copyleftdev/TRVLR/internal/tsp"
)

// Config parameterizes an annealing run.
type Config struct {
	// T0 is the initial temperature.
	T0 float64
	// Floor stops the run once the temperature is no longer above it.
	Floor float64
	// Schedule cools the temperature after every iteration.
	Schedule Schedule
	// MoveKind is the neighborhood sampled for candidate moves.
	MoveKind tsp.MoveKind
	// MaxIterations caps the run regardless of temperature.
	MaxIterations int
	// UseDelta selects O(1) incremental cost evaluation.
	UseDelta bool
	// Seed feeds the random source; 0 draws a time-based seed.
	Seed int64
}

// DefaultConfig returns the classic setting: geometric cooling from 1000
// down to 1 over at most 5000 iterations, sampling position swaps.
func DefaultConfig() Config {
	return Config{
		T0:            1000,
		Floor:         1,
		Schedule:      Geometric{Gamma: 0.99},
		MoveKind:      tsp.SwapMove,
		MaxIterations: 5000,
		UseDelta:      true,
	}
}

// Validate rejects parameters outside their documented domains.
func (c Config) Validate() error {
	if c.T0 <= 0 {
		return tsp.NewErrorf(tsp.ErrInvalidConfiguration, "initial temperature must be positive, got %v", c.T0).
			WithOperation("anneal.Config.Validate")
	}
	if c.Floor < 0 {
		return tsp.NewErrorf(tsp.ErrInvalidConfiguration, "temperature floor %v is negative", c.Floor).
			WithOperation("anneal.Config.Validate")
	}
	if c.Floor >= c.T0 {
		return tsp.NewErrorf(tsp.ErrInvalidConfiguration, "temperature floor %v not below initial temperature %v", c.Floor, c.T0).
			WithOperation("anneal.Config.Validate")
	}
	if c.Schedule == nil {
		return tsp.NewError(tsp.ErrInvalidConfiguration, "nil cooling schedule").
			WithOperation("anneal.Config.Validate")
	}
	if err := c.Schedule.Validate(); err != nil {
		return err
	}
	switch c.MoveKind {
	case tsp.SwapMove, tsp.InsertMove, tsp.TwoOptMove:
	default:
		return tsp.NewErrorf(tsp.ErrInvalidConfiguration, "unknown move kind %v", c.MoveKind).
			WithOperation("anneal.Config.Validate")
	}
	if c.MaxIterations < 1 {
		return tsp.NewErrorf(tsp.ErrInvalidConfiguration, "iteration budget must be positive, got %d", c.MaxIterations).
			WithOperation("anneal.Config.Validate")
	}
	return nil
}

// Solver runs simulated annealing.
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

// Anneal runs the annealing loop from cur, mutating it, and returns the
// best tour seen plus the iterations consumed. The working tour commonly
// ends worse than the returned best: accepting uphill moves is the point.
func (s *Solver) Anneal(ctx context.Context, cur *tsp.Tour, ev *tsp.Evaluator) (*tsp.Tour, int, error) {
	best := cur.Clone()
	if cur.Len() < 2 {
		return best, 0, nil
	}

	temp := s.cfg.T0
	iters := 0
	for iters < s.cfg.MaxIterations && temp > s.cfg.Floor {
		select {
		case <-ctx.Done():
			return best, iters, ctx.Err()
		default:
		}

		mv := tsp.RandomMove(s.cfg.MoveKind, cur.Len(), s.rng)
		delta := ev.Delta(cur, mv)
		if delta < 0 || s.rng.Float64() < math.Exp(-delta/temp) {
			cur.Apply(mv, delta)
			if cur.Cost() < best.Cost() {
				best = cur.Clone()
			}
		}
		temp = s.cfg.Schedule.Cool(temp)
		iters++
	}
	return best, iters, nil
}

// Solve anneals from a random tour drawn from the solver's seed.
func (s *Solver) Solve(ctx context.Context, m *tsp.Model) (*tsp.Result, error) {
	started := time.Now()
	if m == nil || m.Size() == 0 {
		return nil, tsp.NewError(tsp.ErrEmptyInstance, "no cities").
			WithOperation("anneal.Solver.Solve")
	}

	ev := tsp.NewEvaluator(s.cfg.UseDelta)
	cur := tsp.NewRandomTour(m, s.rng)
	best, iters, err := s.Anneal(ctx, cur, ev)

	meta := map[string]any{
		"t0":        s.cfg.T0,
		"floor":     s.cfg.Floor,
		"move_kind": s.cfg.MoveKind.String(),
		"use_delta": s.cfg.UseDelta,
	}
	switch sch := s.cfg.Schedule.(type) {
	case Geometric:
		meta["cooling"] = "geometric"
		meta["gamma"] = sch.Gamma
	case Linear:
		meta["cooling"] = "linear"
		meta["beta"] = sch.Beta
	}

	return &tsp.Result{
		Tour:        best.Sequence(),
		Cost:        best.Cost(),
		Iterations:  iters,
		Evaluations: ev.Evaluations(),
		Duration:    time.Since(started),
		Meta:        meta,
	}, err
}
