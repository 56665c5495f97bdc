package construct

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/TRVLR/internal/tsp"
)

// squareModel is the 5-city fixture: unit square corners plus the center.
func squareModel(t *testing.T) *tsp.Model {
	t.Helper()
	m, err := tsp.NewModel([][2]float64{
		{0, 0},
		{1, 0},
		{1, 1},
		{0, 1},
		{0.5, 0.5},
	})
	require.NoError(t, err)
	return m
}

func assertPermutation(t *testing.T, perm []int, n int) {
	t.Helper()
	require.Len(t, perm, n)
	seen := make([]bool, n)
	for _, c := range perm {
		require.GreaterOrEqual(t, c, 0)
		require.Less(t, c, n)
		require.False(t, seen[c])
		seen[c] = true
	}
}

func TestNearestNeighbor(t *testing.T) {
	m := squareModel(t)

	tour, err := NearestNeighbor(m, 0)
	require.NoError(t, err)

	// From the corner the center is nearest, then the greedy walk picks
	// the lowest-indexed corner on every tie.
	assert.Equal(t, []int{0, 4, 1, 2, 3}, tour.Sequence())
	assert.InDelta(t, 3+math.Sqrt2, tour.Cost(), 1e-12)
}

func TestNearestNeighborStarts(t *testing.T) {
	m := squareModel(t)

	for start := 0; start < m.Size(); start++ {
		tour, err := NearestNeighbor(m, start)
		require.NoError(t, err)
		assertPermutation(t, tour.Sequence(), m.Size())
		assert.Equal(t, start, tour.City(0))

		// Deterministic: the same start must rebuild the same tour
		again, err := NearestNeighbor(m, start)
		require.NoError(t, err)
		assert.Equal(t, tour.Sequence(), again.Sequence())
	}
}

func TestNearestNeighborErrors(t *testing.T) {
	m := squareModel(t)

	_, err := NearestNeighbor(nil, 0)
	assert.ErrorIs(t, err, tsp.ErrEmptyInstance)

	_, err = NearestNeighbor(m, -1)
	assert.ErrorIs(t, err, tsp.ErrInvalidConfiguration)

	_, err = NearestNeighbor(m, 5)
	assert.ErrorIs(t, err, tsp.ErrInvalidConfiguration)
}

func TestRCLConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     RCLConfig
		wantErr bool
	}{
		{"default", DefaultRCLConfig(), false},
		{"top_k", RCLConfig{Policy: TopK, K: 3}, false},
		{"top_k zero", RCLConfig{Policy: TopK}, true},
		{"alpha zero", RCLConfig{Policy: AlphaThreshold, Alpha: 0}, false},
		{"alpha one", RCLConfig{Policy: AlphaThreshold, Alpha: 1}, false},
		{"alpha negative", RCLConfig{Policy: AlphaThreshold, Alpha: -0.1}, true},
		{"alpha above one", RCLConfig{Policy: AlphaThreshold, Alpha: 1.1}, true},
		{"unknown policy", RCLConfig{Policy: "roulette"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, tsp.ErrInvalidConfiguration)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGreedyRandomizedProducesValidTours(t *testing.T) {
	m, err := tsp.GenerateInstance(30, 100, tsp.NewRNG(7))
	require.NoError(t, err)

	configs := []RCLConfig{
		{Policy: AlphaThreshold, Alpha: 0},
		{Policy: AlphaThreshold, Alpha: 0.3},
		{Policy: AlphaThreshold, Alpha: 1},
		{Policy: TopK, K: 1},
		{Policy: TopK, K: 5},
		{Policy: TopK, K: 100}, // clamps to the remaining cities
	}

	for _, cfg := range configs {
		for trial := int64(0); trial < 5; trial++ {
			tour, err := GreedyRandomized(m, cfg, tsp.NewRNG(trial+1))
			require.NoError(t, err)
			assertPermutation(t, tour.Sequence(), m.Size())
			assert.InDelta(t, tour.RecomputeCost(), tour.Cost(), 1e-9)
		}
	}
}

// TestGreedyRandomizedDegeneratesToNearestNeighbor pins the documented
// degenerate settings: alpha 0 and K 1 leave exactly one candidate per
// step, so the walk is the nearest-neighbor tour from the random start.
func TestGreedyRandomizedDegeneratesToNearestNeighbor(t *testing.T) {
	// A random Euclidean instance has unique pairwise distances, so the
	// greedy choice is unambiguous.
	m, err := tsp.GenerateInstance(20, 100, tsp.NewRNG(11))
	require.NoError(t, err)

	for _, cfg := range []RCLConfig{
		{Policy: AlphaThreshold, Alpha: 0},
		{Policy: TopK, K: 1},
	} {
		for seed := int64(1); seed <= 10; seed++ {
			got, err := GreedyRandomized(m, cfg, tsp.NewRNG(seed))
			require.NoError(t, err)

			want, err := NearestNeighbor(m, got.City(0))
			require.NoError(t, err)
			assert.Equal(t, want.Sequence(), got.Sequence())
		}
	}
}

func TestGreedyRandomizedDeterministicPerSeed(t *testing.T) {
	m, err := tsp.GenerateInstance(25, 100, tsp.NewRNG(13))
	require.NoError(t, err)

	cfg := DefaultRCLConfig()
	a, err := GreedyRandomized(m, cfg, tsp.NewRNG(5))
	require.NoError(t, err)
	b, err := GreedyRandomized(m, cfg, tsp.NewRNG(5))
	require.NoError(t, err)
	assert.Equal(t, a.Sequence(), b.Sequence())
}

func TestGreedyRandomizedErrors(t *testing.T) {
	m := squareModel(t)

	_, err := GreedyRandomized(nil, DefaultRCLConfig(), tsp.NewRNG(1))
	assert.ErrorIs(t, err, tsp.ErrEmptyInstance)

	_, err = GreedyRandomized(m, DefaultRCLConfig(), nil)
	assert.ErrorIs(t, err, tsp.ErrInvalidConfiguration)

	_, err = GreedyRandomized(m, RCLConfig{Policy: TopK}, tsp.NewRNG(1))
	assert.ErrorIs(t, err, tsp.ErrInvalidConfiguration)
}

func TestSingleCityInstance(t *testing.T) {
	m, err := tsp.NewModel([][2]float64{{1, 1}})
	require.NoError(t, err)

	tour, err := NearestNeighbor(m, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, tour.Sequence())
	assert.Zero(t, tour.Cost())

	tour, err = GreedyRandomized(m, DefaultRCLConfig(), tsp.NewRNG(1))
	require.NoError(t, err)
	assert.Equal(t, []int{0}, tour.Sequence())
}
