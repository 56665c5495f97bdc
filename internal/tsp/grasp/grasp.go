// Package grasp implements the greedy randomized adaptive search
// procedure: every iteration builds a tour with randomized greedy
// construction, climbs it to a local optimum, and the best local optimum
// across all iterations wins. Iterations are independent, so they fan out
// across a worker pool; each one derives its own random stream from the
// base seed, which makes the outcome identical for any worker count.
package grasp

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/copyleftdev/TRVLR/internal/tsp"
	"github.com/copyleftdev/TRVLR/internal/tsp/construct"
	"github.com/copyleftdev/TRVLR/internal/tsp/localsearch"
)

// Config parameterizes a GRASP run.
type Config struct {
	// Iterations is the number of construct-then-improve rounds.
	Iterations int
	// RCL parameterizes the construction phase.
	RCL construct.RCLConfig
	// Local parameterizes the improvement phase. Its Starts and Seed are
	// ignored: every iteration improves exactly the tour it constructed,
	// on the iteration's own random stream.
	Local localsearch.Config
	// Workers is the number of goroutines running iterations; 1 keeps the
	// loop sequential.
	Workers int
	// Seed feeds the per-iteration random streams; 0 draws a time-based
	// base seed.
	Seed int64
}

// DefaultConfig returns 100 iterations of alpha-threshold construction
// followed by a first-improvement climb, run sequentially.
func DefaultConfig() Config {
	return Config{
		Iterations: 100,
		RCL:        construct.DefaultRCLConfig(),
		Local:      localsearch.DefaultConfig(),
		Workers:    1,
	}
}

// Validate rejects parameters outside their documented domains.
func (c Config) Validate() error {
	if c.Iterations < 1 {
		return tsp.NewErrorf(tsp.ErrInvalidConfiguration, "iteration count must be positive, got %d", c.Iterations).
			WithOperation("grasp.Config.Validate")
	}
	if c.Workers < 1 {
		return tsp.NewErrorf(tsp.ErrInvalidConfiguration, "worker count must be positive, got %d", c.Workers).
			WithOperation("grasp.Config.Validate")
	}
	if err := c.RCL.Validate(); err != nil {
		return err
	}
	lcfg := c.Local
	lcfg.Starts = 1
	return lcfg.Validate()
}

// Solver runs GRASP.
type Solver struct {
	cfg   Config
	local *localsearch.Solver
}

// New validates the configuration and returns a solver.
func New(cfg Config) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lcfg := cfg.Local
	lcfg.Starts = 1
	local, err := localsearch.New(lcfg)
	if err != nil {
		return nil, err
	}
	return &Solver{cfg: cfg, local: local}, nil
}

// iterResult is the outcome of one iteration, reduced by lowest cost with
// ties going to the lowest iteration index so the winner does not depend
// on worker scheduling.
type iterResult struct {
	index int
	perm  []int
	cost  float64
	moves int
	evals int
	err   error
}

// Solve runs the configured number of iterations and returns the best
// local optimum across them. For a nonzero seed the outcome is a pure
// function of seed and configuration, whatever the worker count. On
// cancellation it returns the best tour completed so far together with the
// context error. Result.Iterations counts iterations that produced a tour.
func (s *Solver) Solve(ctx context.Context, m *tsp.Model) (*tsp.Result, error) {
	started := time.Now()
	if m == nil || m.Size() == 0 {
		return nil, tsp.NewError(tsp.ErrEmptyInstance, "no cities").
			WithOperation("grasp.Solver.Solve")
	}

	seed := s.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	jobs := make(chan int)
	out := make(chan iterResult, s.cfg.Workers)
	var wg sync.WaitGroup
	for w := 0; w < s.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out <- s.iterate(ctx, m, i, seed)
			}
		}()
	}
	go func() {
		defer close(jobs)
		for i := 0; i < s.cfg.Iterations; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(out)
	}()

	best := iterResult{index: -1, cost: math.Inf(1)}
	completed := 0
	evals := 0
	moves := 0
	var runErr error
	for r := range out {
		if r.err != nil {
			runErr = r.err
		}
		if r.perm == nil {
			continue
		}
		completed++
		evals += r.evals
		moves += r.moves
		if r.cost < best.cost || (r.cost == best.cost && r.index < best.index) {
			best = r
		}
	}
	if best.index < 0 {
		if runErr == nil {
			runErr = ctx.Err()
		}
		return nil, runErr
	}

	meta := map[string]any{
		"iterations":  s.cfg.Iterations,
		"workers":     s.cfg.Workers,
		"rcl_policy":  string(s.cfg.RCL.Policy),
		"local_moves": moves,
		"scan":        string(s.cfg.Local.Scan),
		"use_delta":   s.cfg.Local.UseDelta,
	}
	switch s.cfg.RCL.Policy {
	case construct.TopK:
		meta["k"] = s.cfg.RCL.K
	default:
		meta["alpha"] = s.cfg.RCL.Alpha
	}

	return &tsp.Result{
		Tour:        best.perm,
		Cost:        best.cost,
		Iterations:  completed,
		Evaluations: evals,
		Duration:    time.Since(started),
		Meta:        meta,
	}, runErr
}

// iterate runs one construct-then-improve round on its own random stream.
func (s *Solver) iterate(ctx context.Context, m *tsp.Model, index int, baseSeed int64) iterResult {
	rng := tsp.DeriveRNG(baseSeed, uint64(index))
	t, err := construct.GreedyRandomized(m, s.cfg.RCL, rng)
	if err != nil {
		return iterResult{index: index, err: err}
	}
	ev := tsp.NewEvaluator(s.cfg.Local.UseDelta)
	moves, err := s.local.Improve(ctx, t, ev)
	return iterResult{
		index: index,
		perm:  t.Sequence(),
		cost:  t.Cost(),
		moves: moves,
		evals: ev.Evaluations(),
		err:   err,
	}
}
