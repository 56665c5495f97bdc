package solve

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/TRVLR/internal/tsp"
	"github.com/copyleftdev/TRVLR/internal/tsp/anneal"
	"github.com/copyleftdev/TRVLR/internal/tsp/construct"
	"github.com/copyleftdev/TRVLR/internal/tsp/grasp"
	"github.com/copyleftdev/TRVLR/internal/tsp/localsearch"
	"github.com/copyleftdev/TRVLR/internal/tsp/tabu"
)

func boolPtr(v bool) *bool        { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestNewDispatch(t *testing.T) {
	tests := []struct {
		algorithm string
		check     func(t *testing.T, s tsp.Solver)
	}{
		{NearestNeighbor, func(t *testing.T, s tsp.Solver) {
			assert.IsType(t, nnSolver{}, s)
		}},
		{GreedyRandomized, func(t *testing.T, s tsp.Solver) {
			assert.IsType(t, grSolver{}, s)
		}},
		{LocalSearch, func(t *testing.T, s tsp.Solver) {
			assert.IsType(t, &localsearch.Solver{}, s)
		}},
		{SimulatedAnnealing, func(t *testing.T, s tsp.Solver) {
			assert.IsType(t, &anneal.Solver{}, s)
		}},
		{TabuSearch, func(t *testing.T, s tsp.Solver) {
			assert.IsType(t, &tabu.Solver{}, s)
		}},
		{GRASP, func(t *testing.T, s tsp.Solver) {
			assert.IsType(t, &grasp.Solver{}, s)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.algorithm, func(t *testing.T) {
			s, err := New(tt.algorithm, Options{})
			require.NoError(t, err)
			tt.check(t, s)
		})
	}

	_, err := New("branch_and_bound", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, tsp.ErrInvalidConfiguration)
}

func TestNewPropagatesValidation(t *testing.T) {
	tests := []struct {
		name      string
		algorithm string
		opts      Options
	}{
		{"bad move kind", LocalSearch, Options{MoveKinds: []string{"three_opt"}}},
		{"bad scan policy", LocalSearch, Options{ScanPolicy: "steepest"}},
		{"bad cooling", SimulatedAnnealing, Options{Cooling: "quadratic"}},
		{"bad tabu policy", TabuSearch, Options{TabuPolicy: "frequency"}},
		{"bad rcl policy", GRASP, Options{RCLPolicy: "roulette"}},
		{"alpha out of range", GRASP, Options{Alpha: floatPtr(1.5)}},
		{"bad construction rcl", GreedyRandomized, Options{RCLPolicy: "roulette"}},
		{"construction k zero", GreedyRandomized, Options{RCLPolicy: "top_k"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.algorithm, tt.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, tsp.ErrInvalidConfiguration)
		})
	}
}

func TestLocalConfigOverlay(t *testing.T) {
	cfg, err := Options{}.localConfig()
	require.NoError(t, err)
	assert.Equal(t, localsearch.DefaultConfig().MoveKinds, cfg.MoveKinds)
	assert.True(t, cfg.UseDelta)

	opts := Options{
		MoveKinds:     []string{"swap", "insert", "two_opt"},
		ScanPolicy:    "best_improvement",
		UseDelta:      boolPtr(false),
		MaxIterations: 50,
		Starts:        4,
		Seed:          9,
	}
	cfg, err = opts.localConfig()
	require.NoError(t, err)
	assert.Equal(t, []tsp.MoveKind{tsp.SwapMove, tsp.InsertMove, tsp.TwoOptMove}, cfg.MoveKinds)
	assert.Equal(t, localsearch.BestImprovement, cfg.Scan)
	assert.False(t, cfg.UseDelta)
	assert.Equal(t, 50, cfg.MaxIterations)
	assert.Equal(t, 4, cfg.Starts)
	assert.Equal(t, int64(9), cfg.Seed)
}

func TestAnnealConfigOverlay(t *testing.T) {
	cfg, err := Options{}.annealConfig()
	require.NoError(t, err)
	assert.Equal(t, anneal.DefaultConfig(), cfg)

	// A bare gamma implies geometric cooling.
	cfg, err = Options{Gamma: 0.9}.annealConfig()
	require.NoError(t, err)
	assert.Equal(t, anneal.Geometric{Gamma: 0.9}, cfg.Schedule)

	cfg, err = Options{Cooling: "geometric"}.annealConfig()
	require.NoError(t, err)
	assert.Equal(t, anneal.Geometric{Gamma: 0.99}, cfg.Schedule)

	cfg, err = Options{Cooling: "linear", Beta: 0.5}.annealConfig()
	require.NoError(t, err)
	assert.Equal(t, anneal.Linear{Beta: 0.5}, cfg.Schedule)

	opts := Options{
		MoveKinds: []string{"insert"},
		T0:        50,
		Floor:     floatPtr(0),
	}
	cfg, err = opts.annealConfig()
	require.NoError(t, err)
	assert.Equal(t, tsp.InsertMove, cfg.MoveKind)
	assert.Equal(t, 50.0, cfg.T0)
	assert.Zero(t, cfg.Floor)
}

func TestTabuConfigOverlay(t *testing.T) {
	cfg, err := Options{}.tabuConfig()
	require.NoError(t, err)
	assert.Equal(t, tabu.DefaultConfig(), cfg)

	opts := Options{
		TabuPolicy:   "full_path",
		Tenure:       7,
		Candidates:   12,
		MaxNoImprove: 40,
		UseDelta:     boolPtr(false),
	}
	cfg, err = opts.tabuConfig()
	require.NoError(t, err)
	assert.Equal(t, tabu.FullPath, cfg.Policy)
	assert.Equal(t, 7, cfg.Tenure)
	assert.Equal(t, 12, cfg.Candidates)
	assert.Equal(t, 40, cfg.MaxNoImprove)
	assert.False(t, cfg.UseDelta)
}

func TestGraspConfigOverlay(t *testing.T) {
	opts := Options{
		Iterations: 20,
		Workers:    3,
		RCLPolicy:  "top_k",
		K:          5,
		ScanPolicy: "best_improvement",
		Seed:       4,
	}
	cfg, err := opts.graspConfig()
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Iterations)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, construct.TopK, cfg.RCL.Policy)
	assert.Equal(t, 5, cfg.RCL.K)
	assert.Equal(t, localsearch.BestImprovement, cfg.Local.Scan)
	assert.Equal(t, int64(4), cfg.Seed)
}

// Pointer fields exist so a request can say "use_delta false" or "alpha 0"
// and be distinguished from saying nothing.
func TestOptionsPointerFieldsJSON(t *testing.T) {
	var opts Options
	body := `{"use_delta": false, "alpha": 0, "floor": 0}`
	require.NoError(t, json.Unmarshal([]byte(body), &opts))

	require.NotNil(t, opts.UseDelta)
	assert.False(t, *opts.UseDelta)
	require.NotNil(t, opts.Alpha)
	assert.Zero(t, *opts.Alpha)
	require.NotNil(t, opts.Floor)

	lcfg, err := opts.localConfig()
	require.NoError(t, err)
	assert.False(t, lcfg.UseDelta)
	assert.Zero(t, opts.rclConfig().Alpha)

	acfg, err := opts.annealConfig()
	require.NoError(t, err)
	assert.Zero(t, acfg.Floor)

	var unset Options
	require.NoError(t, json.Unmarshal([]byte(`{"seed": 7}`), &unset))
	assert.Nil(t, unset.UseDelta)
	assert.Nil(t, unset.Alpha)
	assert.Equal(t, 0.3, unset.rclConfig().Alpha)
}

func TestOptionsPointerFieldsTOML(t *testing.T) {
	const doc = `
move_kinds = ["swap"]
use_delta = false
alpha = 0.0
seed = 21
`
	var opts Options
	_, err := toml.Decode(doc, &opts)
	require.NoError(t, err)

	require.NotNil(t, opts.UseDelta)
	assert.False(t, *opts.UseDelta)
	require.NotNil(t, opts.Alpha)
	assert.Zero(t, *opts.Alpha)
	assert.Equal(t, []string{"swap"}, opts.MoveKinds)
	assert.Equal(t, int64(21), opts.Seed)
}

func TestInstanceModel(t *testing.T) {
	t.Run("coordinates", func(t *testing.T) {
		in := Instance{Coordinates: [][]float64{{0, 0}, {3, 0}, {3, 4}}}
		m, err := in.Model()
		require.NoError(t, err)
		assert.Equal(t, 3, m.Size())
		assert.Equal(t, 5.0, m.Distance(0, 2))
	})

	t.Run("matrix", func(t *testing.T) {
		in := Instance{Matrix: [][]float64{{0, 2}, {2, 0}}}
		m, err := in.Model()
		require.NoError(t, err)
		assert.Equal(t, 2, m.Size())
	})

	t.Run("path", func(t *testing.T) {
		const doc = `NAME: two
TYPE: TSP
DIMENSION: 2
EDGE_WEIGHT_TYPE: EUC_2D
NODE_COORD_SECTION
1 0 0
2 0 7
EOF
`
		path := filepath.Join(t.TempDir(), "two.tsp")
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

		m, err := Instance{Path: path}.Model()
		require.NoError(t, err)
		assert.Equal(t, 2, m.Size())
		assert.Equal(t, 7.0, m.Distance(0, 1))
	})

	t.Run("no source", func(t *testing.T) {
		_, err := Instance{}.Model()
		assert.ErrorIs(t, err, tsp.ErrInvalidInstance)
	})

	t.Run("bad coordinate arity", func(t *testing.T) {
		_, err := Instance{Coordinates: [][]float64{{0, 0, 0}}}.Model()
		assert.ErrorIs(t, err, tsp.ErrInvalidInstance)
	})
}

func TestNearestNeighborSolver(t *testing.T) {
	in := Instance{Coordinates: [][]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}}
	m, err := in.Model()
	require.NoError(t, err)

	s, err := New(NearestNeighbor, Options{StartCity: 1})
	require.NoError(t, err)

	res, err := s.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Tour[0])
	assert.InDelta(t, 4.0, res.Cost, 1e-12)
	assert.Equal(t, 1, res.Meta["start_city"])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Solve(ctx, m)
	assert.ErrorIs(t, err, context.Canceled)

	s, err = New(NearestNeighbor, Options{StartCity: 9})
	require.NoError(t, err)
	_, err = s.Solve(context.Background(), m)
	assert.ErrorIs(t, err, tsp.ErrInvalidConfiguration)
}

func TestGreedyRandomizedSolver(t *testing.T) {
	m, err := tsp.GenerateInstance(15, 100, tsp.NewRNG(8))
	require.NoError(t, err)

	s, err := New(GreedyRandomized, Options{Seed: 21})
	require.NoError(t, err)

	res, err := s.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Len(t, res.Tour, 15)
	assert.Equal(t, "alpha_threshold", res.Meta["rcl_policy"])
	assert.Equal(t, 0.3, res.Meta["alpha"])

	rebuilt, err := tsp.NewTour(m, res.Tour)
	require.NoError(t, err)
	assert.InDelta(t, rebuilt.Cost(), res.Cost, 1e-9)

	// The same seed replays the same construction.
	again, err := New(GreedyRandomized, Options{Seed: 21})
	require.NoError(t, err)
	res2, err := again.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, res.Tour, res2.Tour)

	top, err := New(GreedyRandomized, Options{RCLPolicy: "top_k", K: 2, Seed: 21})
	require.NoError(t, err)
	res3, err := top.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, 2, res3.Meta["k"])
	assert.NotContains(t, res3.Meta, "alpha")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Solve(ctx, m)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSolveEndToEnd(t *testing.T) {
	m, err := tsp.GenerateInstance(12, 100, tsp.NewRNG(3))
	require.NoError(t, err)

	tests := []struct {
		algorithm string
		opts      Options
	}{
		{NearestNeighbor, Options{}},
		{GreedyRandomized, Options{Seed: 3}},
		{LocalSearch, Options{Starts: 2, Seed: 3}},
		{SimulatedAnnealing, Options{MaxIterations: 300, Seed: 3}},
		{TabuSearch, Options{MaxIterations: 100, Seed: 3}},
		{GRASP, Options{Iterations: 5, Seed: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.algorithm, func(t *testing.T) {
			s, err := New(tt.algorithm, tt.opts)
			require.NoError(t, err)

			res, err := s.Solve(context.Background(), m)
			require.NoError(t, err)
			require.Len(t, res.Tour, 12)

			seen := make(map[int]bool, 12)
			for _, c := range res.Tour {
				assert.False(t, seen[c])
				seen[c] = true
			}

			check, err := tsp.NewTour(m, res.Tour)
			require.NoError(t, err)
			assert.InDelta(t, check.Cost(), res.Cost, 1e-6)
		})
	}
}
