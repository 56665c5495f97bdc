package tsp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// squareCoords is the shared 5-city fixture: the unit square corners in
// order plus the center. Walking the corners and detouring through the
// center costs 3 + sqrt(2).
func squareCoords() [][2]float64 {
	return [][2]float64{
		{0, 0},
		{1, 0},
		{1, 1},
		{0, 1},
		{0.5, 0.5},
	}
}

// squareModel builds the 5-city fixture model.
func squareModel(t *testing.T) *Model {
	t.Helper()
	m, err := NewModel(squareCoords())
	require.NoError(t, err)
	return m
}

// randModel builds a reproducible random Euclidean instance.
func randModel(t testing.TB, n int, seed int64) *Model {
	t.Helper()
	m, err := GenerateInstance(n, 100, NewRNG(seed))
	require.NoError(t, err)
	return m
}

// randMatrixModel builds a reproducible random matrix instance. Its
// distances violate the triangle inequality, which makes it the harsher
// fixture for delta checks.
func randMatrixModel(t testing.TB, n int, seed int64) *Model {
	t.Helper()
	m, err := GenerateMatrix(n, 100, NewRNG(seed))
	require.NoError(t, err)
	return m
}

// assertPermutation fails unless perm is a permutation of 0..n-1.
func assertPermutation(t *testing.T, perm []int, n int) {
	t.Helper()
	require.Len(t, perm, n)
	seen := make([]bool, n)
	for _, c := range perm {
		require.GreaterOrEqual(t, c, 0)
		require.Less(t, c, n)
		require.False(t, seen[c], "city %d appears twice", c)
		seen[c] = true
	}
}
