package tsp

import (
	"context"
	"time"
)

// Solver is the contract shared by every search strategy: take a distance
// model, run until a stop criterion fires, and report the best tour found.
//
// Implementations must validate their configuration before the first
// iteration, must never mutate the model, and must draw every stochastic
// choice from their own seeded source. When the context is canceled
// mid-run they return the best result reached so far together with the
// context error, so callers can distinguish a finished run from an
// interrupted one without losing the work already done.
type Solver interface {
	Solve(ctx context.Context, m *Model) (*Result, error)
}

// Result is the outcome of one strategy run.
type Result struct {
	// Tour is the best permutation found.
	Tour []int
	// Cost is the cycle cost of Tour, closing edge included.
	Cost float64
	// Iterations is the number of iterations the strategy executed; what
	// counts as one iteration is strategy-specific and documented there.
	Iterations int
	// Evaluations is the number of candidate cost evaluations served.
	Evaluations int
	// Duration is the wall-clock time the run consumed.
	Duration time.Duration
	// Meta carries strategy-specific run details for reporting.
	Meta map[string]any
}
