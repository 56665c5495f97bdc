package grasp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/TRVLR/internal/tsp"
	"github.com/copyleftdev/TRVLR/internal/tsp/construct"
)

func testModel(t *testing.T, n int, seed int64) *tsp.Model {
	t.Helper()
	m, err := tsp.GenerateInstance(n, 100, tsp.NewRNG(seed))
	require.NoError(t, err)
	return m
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"local starts ignored", func(c *Config) { c.Local.Starts = 0 }, false},
		{"zero iterations", func(c *Config) { c.Iterations = 0 }, true},
		{"zero workers", func(c *Config) { c.Workers = 0 }, true},
		{"alpha out of range", func(c *Config) { c.RCL.Alpha = 1.5 }, true},
		{"top_k without k", func(c *Config) { c.RCL = construct.RCLConfig{Policy: construct.TopK} }, true},
		{"bad scan policy", func(c *Config) { c.Local.Scan = "steepest" }, true},
		{"no move kinds", func(c *Config) { c.Local.MoveKinds = nil }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, tsp.ErrInvalidConfiguration)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSolveBeatsItsOwnConstruction(t *testing.T) {
	m := testModel(t, 25, 2)

	cfg := DefaultConfig()
	cfg.Iterations = 40
	cfg.Seed = 11
	s, err := New(cfg)
	require.NoError(t, err)

	res, err := s.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, 40, res.Iterations)
	assert.Positive(t, res.Evaluations)

	check, err := tsp.NewTour(m, res.Tour)
	require.NoError(t, err)
	assert.InDelta(t, check.Cost(), res.Cost, 1e-6)

	// The winner can be no worse than what any single iteration built, and
	// iteration 0's construction replays from the same derived stream.
	built, err := construct.GreedyRandomized(m, cfg.RCL, tsp.DeriveRNG(cfg.Seed, 0))
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Cost, built.Cost())

	random := tsp.NewRandomTour(m, tsp.NewRNG(99))
	assert.Less(t, res.Cost, random.Cost())
}

func TestSolveIndependentOfWorkerCount(t *testing.T) {
	m := testModel(t, 20, 6)

	run := func(workers int) *tsp.Result {
		cfg := DefaultConfig()
		cfg.Iterations = 30
		cfg.Workers = workers
		cfg.Seed = 5
		s, err := New(cfg)
		require.NoError(t, err)
		res, err := s.Solve(context.Background(), m)
		require.NoError(t, err)
		return res
	}

	sequential := run(1)
	parallel := run(4)
	again := run(4)

	assert.Equal(t, sequential.Tour, parallel.Tour)
	assert.Equal(t, sequential.Cost, parallel.Cost)
	assert.Equal(t, sequential.Iterations, parallel.Iterations)
	assert.Equal(t, sequential.Evaluations, parallel.Evaluations)
	assert.Equal(t, parallel.Tour, again.Tour)
}

func TestSolveMeta(t *testing.T) {
	m := testModel(t, 12, 3)

	cfg := DefaultConfig()
	cfg.Iterations = 5
	cfg.Seed = 1
	s, err := New(cfg)
	require.NoError(t, err)

	res, err := s.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, "alpha_threshold", res.Meta["rcl_policy"])
	assert.Equal(t, 0.3, res.Meta["alpha"])
	assert.NotContains(t, res.Meta, "k")
	assert.Equal(t, 1, res.Meta["workers"])

	cfg.RCL = construct.RCLConfig{Policy: construct.TopK, K: 3}
	s, err = New(cfg)
	require.NoError(t, err)

	res, err = s.Solve(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, "top_k", res.Meta["rcl_policy"])
	assert.Equal(t, 3, res.Meta["k"])
	assert.NotContains(t, res.Meta, "alpha")
}

func TestSolveCancellation(t *testing.T) {
	m := testModel(t, 15, 4)

	cfg := DefaultConfig()
	cfg.Iterations = 50
	cfg.Seed = 7
	s, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Iterations already handed to a worker may still finish, so either no
	// tour came back or a partial best did; the context error surfaces in
	// both cases.
	res, err := s.Solve(ctx, m)
	assert.ErrorIs(t, err, context.Canceled)
	if res != nil {
		assert.Len(t, res.Tour, 15)
		assert.Less(t, res.Iterations, 50)
	}
}

func TestSolveEmptyModel(t *testing.T) {
	s, err := New(DefaultConfig())
	require.NoError(t, err)

	_, err = s.Solve(context.Background(), nil)
	assert.ErrorIs(t, err, tsp.ErrEmptyInstance)
}
