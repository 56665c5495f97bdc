// Package solve maps declarative run descriptions onto configured
// solvers. The HTTP service and the batch CLI both speak this vocabulary,
// so a JSON request body and a TOML run file describe jobs the same way.
package solve

import (
	"context"
	"time"

	"github.com/copyleftdev/TRVLR/internal/tsp"
	"github.com/copyleftdev/TRVLR/internal/tsp/anneal"
	"github.com/copyleftdev/TRVLR/internal/tsp/construct"
	"github.com/copyleftdev/TRVLR/internal/tsp/grasp"
	"github.com/copyleftdev/TRVLR/internal/tsp/localsearch"
	"github.com/copyleftdev/TRVLR/internal/tsp/tabu"
	"github.com/copyleftdev/TRVLR/internal/tsplib"
)

// Algorithm names accepted by New.
const (
	NearestNeighbor    = "nearest_neighbor"
	GreedyRandomized   = "greedy_randomized"
	LocalSearch        = "local_search"
	SimulatedAnnealing = "simulated_annealing"
	TabuSearch         = "tabu_search"
	GRASP              = "grasp"
)

// Instance describes where the cities come from. Exactly one source must
// be set.
type Instance struct {
	// Path names a TSPLIB file on disk.
	Path string `json:"path,omitempty" toml:"path"`
	// Coordinates lists inline [x, y] city positions.
	Coordinates [][]float64 `json:"coordinates,omitempty" toml:"coordinates"`
	// Matrix is an inline symmetric distance matrix.
	Matrix [][]float64 `json:"matrix,omitempty" toml:"matrix"`
}

// Model loads or builds the distance model the instance describes.
func (in Instance) Model() (*tsp.Model, error) {
	switch {
	case in.Path != "":
		inst, err := tsplib.Load(in.Path)
		if err != nil {
			return nil, err
		}
		return inst.Model()
	case in.Coordinates != nil:
		coords := make([][2]float64, len(in.Coordinates))
		for i, c := range in.Coordinates {
			if len(c) != 2 {
				return nil, tsp.NewErrorf(tsp.ErrInvalidInstance, "coordinate %d has %d components, want 2", i, len(c)).
					WithOperation("solve.Instance.Model")
			}
			coords[i] = [2]float64{c[0], c[1]}
		}
		return tsp.NewModel(coords)
	case in.Matrix != nil:
		return tsp.NewModelFromMatrix(in.Matrix)
	default:
		return nil, tsp.NewError(tsp.ErrInvalidInstance, "no instance source: set path, coordinates, or matrix").
			WithOperation("solve.Instance.Model")
	}
}

// Options is the flat parameter bag shared by every algorithm; fields that
// do not apply to the selected algorithm are ignored. Zero values defer to
// the algorithm's defaults. Pointer fields distinguish unset from a
// meaningful zero: use_delta false, alpha 0, and floor 0 all change
// behavior.
type Options struct {
	// MoveKinds lists the neighborhoods to use. Local search scans them
	// in order; annealing and tabu search sample the first entry.
	MoveKinds     []string `json:"move_kinds,omitempty" toml:"move_kinds"`
	ScanPolicy    string   `json:"scan_policy,omitempty" toml:"scan_policy"`
	UseDelta      *bool    `json:"use_delta,omitempty" toml:"use_delta"`
	MaxIterations int      `json:"max_iterations,omitempty" toml:"max_iterations"`
	MaxNoImprove  int      `json:"max_no_improve,omitempty" toml:"max_no_improve"`
	Starts        int      `json:"starts,omitempty" toml:"starts"`
	StartCity     int      `json:"start_city,omitempty" toml:"start_city"`

	RCLPolicy string   `json:"rcl_policy,omitempty" toml:"rcl_policy"`
	K         int      `json:"k,omitempty" toml:"k"`
	Alpha     *float64 `json:"alpha,omitempty" toml:"alpha"`

	T0      float64  `json:"t0,omitempty" toml:"t0"`
	Floor   *float64 `json:"floor,omitempty" toml:"floor"`
	Cooling string   `json:"cooling,omitempty" toml:"cooling"`
	Gamma   float64  `json:"gamma,omitempty" toml:"gamma"`
	Beta    float64  `json:"beta,omitempty" toml:"beta"`

	TabuPolicy string `json:"tabu_policy,omitempty" toml:"tabu_policy"`
	Tenure     int    `json:"tenure,omitempty" toml:"tenure"`
	Candidates int    `json:"candidates,omitempty" toml:"candidates"`

	Iterations int   `json:"iterations,omitempty" toml:"iterations"`
	Workers    int   `json:"workers,omitempty" toml:"workers"`
	Seed       int64 `json:"seed,omitempty" toml:"seed"`
}

// New builds the solver named by algorithm, overlaying opts onto the
// algorithm's defaults. Parameter validation happens in the strategy
// packages, so a bad combination fails here with ErrInvalidConfiguration
// before any iteration runs.
func New(algorithm string, opts Options) (tsp.Solver, error) {
	switch algorithm {
	case NearestNeighbor:
		return nnSolver{start: opts.StartCity}, nil
	case GreedyRandomized:
		cfg := opts.rclConfig()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return grSolver{rcl: cfg, seed: opts.Seed}, nil
	case LocalSearch:
		cfg, err := opts.localConfig()
		if err != nil {
			return nil, err
		}
		return localsearch.New(cfg)
	case SimulatedAnnealing:
		cfg, err := opts.annealConfig()
		if err != nil {
			return nil, err
		}
		return anneal.New(cfg)
	case TabuSearch:
		cfg, err := opts.tabuConfig()
		if err != nil {
			return nil, err
		}
		return tabu.New(cfg)
	case GRASP:
		cfg, err := opts.graspConfig()
		if err != nil {
			return nil, err
		}
		return grasp.New(cfg)
	default:
		return nil, tsp.NewErrorf(tsp.ErrInvalidConfiguration, "unknown algorithm %q", algorithm).
			WithOperation("solve.New")
	}
}

func (o Options) moveKindList() ([]tsp.MoveKind, error) {
	if len(o.MoveKinds) == 0 {
		return nil, nil
	}
	kinds := make([]tsp.MoveKind, 0, len(o.MoveKinds))
	for _, s := range o.MoveKinds {
		k, err := tsp.ParseMoveKind(s)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func (o Options) localConfig() (localsearch.Config, error) {
	cfg := localsearch.DefaultConfig()
	kinds, err := o.moveKindList()
	if err != nil {
		return cfg, err
	}
	if len(kinds) > 0 {
		cfg.MoveKinds = kinds
	}
	if o.ScanPolicy != "" {
		cfg.Scan = localsearch.ScanPolicy(o.ScanPolicy)
	}
	if o.UseDelta != nil {
		cfg.UseDelta = *o.UseDelta
	}
	if o.MaxIterations > 0 {
		cfg.MaxIterations = o.MaxIterations
	}
	if o.Starts > 0 {
		cfg.Starts = o.Starts
	}
	cfg.Seed = o.Seed
	return cfg, nil
}

func (o Options) rclConfig() construct.RCLConfig {
	cfg := construct.DefaultRCLConfig()
	if o.RCLPolicy != "" {
		cfg.Policy = construct.RCLPolicy(o.RCLPolicy)
	}
	if o.K > 0 {
		cfg.K = o.K
	}
	if o.Alpha != nil {
		cfg.Alpha = *o.Alpha
	}
	return cfg
}

func (o Options) annealConfig() (anneal.Config, error) {
	cfg := anneal.DefaultConfig()
	kinds, err := o.moveKindList()
	if err != nil {
		return cfg, err
	}
	if len(kinds) > 0 {
		cfg.MoveKind = kinds[0]
	}
	if o.T0 > 0 {
		cfg.T0 = o.T0
	}
	if o.Floor != nil {
		cfg.Floor = *o.Floor
	}
	switch o.Cooling {
	case "":
		if o.Gamma > 0 {
			cfg.Schedule = anneal.Geometric{Gamma: o.Gamma}
		}
	case "geometric":
		g := 0.99
		if o.Gamma > 0 {
			g = o.Gamma
		}
		cfg.Schedule = anneal.Geometric{Gamma: g}
	case "linear":
		cfg.Schedule = anneal.Linear{Beta: o.Beta}
	default:
		return cfg, tsp.NewErrorf(tsp.ErrInvalidConfiguration, "unknown cooling %q", o.Cooling).
			WithOperation("solve.Options")
	}
	if o.MaxIterations > 0 {
		cfg.MaxIterations = o.MaxIterations
	}
	if o.UseDelta != nil {
		cfg.UseDelta = *o.UseDelta
	}
	cfg.Seed = o.Seed
	return cfg, nil
}

func (o Options) tabuConfig() (tabu.Config, error) {
	cfg := tabu.DefaultConfig()
	kinds, err := o.moveKindList()
	if err != nil {
		return cfg, err
	}
	if len(kinds) > 0 {
		cfg.MoveKind = kinds[0]
	}
	if o.TabuPolicy != "" {
		cfg.Policy = tabu.Policy(o.TabuPolicy)
	}
	if o.Tenure > 0 {
		cfg.Tenure = o.Tenure
	}
	if o.Candidates > 0 {
		cfg.Candidates = o.Candidates
	}
	if o.MaxIterations > 0 {
		cfg.MaxIterations = o.MaxIterations
	}
	if o.MaxNoImprove > 0 {
		cfg.MaxNoImprove = o.MaxNoImprove
	}
	if o.UseDelta != nil {
		cfg.UseDelta = *o.UseDelta
	}
	cfg.Seed = o.Seed
	return cfg, nil
}

func (o Options) graspConfig() (grasp.Config, error) {
	cfg := grasp.DefaultConfig()
	if o.Iterations > 0 {
		cfg.Iterations = o.Iterations
	}
	cfg.RCL = o.rclConfig()
	local, err := o.localConfig()
	if err != nil {
		return cfg, err
	}
	cfg.Local = local
	if o.Workers > 0 {
		cfg.Workers = o.Workers
	}
	cfg.Seed = o.Seed
	return cfg, nil
}

// nnSolver adapts deterministic nearest-neighbor construction to the
// Solver contract.
type nnSolver struct {
	start int
}

func (s nnSolver) Solve(ctx context.Context, m *tsp.Model) (*tsp.Result, error) {
	started := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := construct.NearestNeighbor(m, s.start)
	if err != nil {
		return nil, err
	}
	return &tsp.Result{
		Tour:       t.Sequence(),
		Cost:       t.Cost(),
		Iterations: t.Len(),
		Duration:   time.Since(started),
		Meta:       map[string]any{"start_city": s.start},
	}, nil
}

// grSolver adapts a single greedy-randomized construction to the Solver
// contract. GRASP runs the same construction inside its outer loop; this
// exposes it on its own for inspecting what the RCL produces.
type grSolver struct {
	rcl  construct.RCLConfig
	seed int64
}

func (s grSolver) Solve(ctx context.Context, m *tsp.Model) (*tsp.Result, error) {
	started := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := construct.GreedyRandomized(m, s.rcl, tsp.NewRNG(s.seed))
	if err != nil {
		return nil, err
	}
	meta := map[string]any{"rcl_policy": string(s.rcl.Policy)}
	switch s.rcl.Policy {
	case construct.TopK:
		meta["k"] = s.rcl.K
	case construct.AlphaThreshold:
		meta["alpha"] = s.rcl.Alpha
	}
	return &tsp.Result{
		Tour:       t.Sequence(),
		Cost:       t.Cost(),
		Iterations: t.Len(),
		Duration:   time.Since(started),
		Meta:       meta,
	}, nil
}
