package tsp

import (
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// expSource adapts *math/rand.Rand to the golang.org/x/exp/rand.Source
// interface that gonum v0.14 distributions take as Src.
type expSource struct{ rng *rand.Rand }

func (s expSource) Uint64() uint64   { return s.rng.Uint64() }
func (s expSource) Seed(seed uint64) { s.rng.Seed(int64(seed)) }

// GenerateInstance builds a model of n cities placed uniformly at random
// in the square [0, side) x [0, side). Benchmarks and tests use it to get
// reproducible instances of arbitrary size from a seeded source.
func GenerateInstance(n int, side float64, rng *rand.Rand) (*Model, error) {
	if n <= 0 {
		return nil, NewErrorf(ErrEmptyInstance, "instance needs at least one city, got %d", n).
			WithOperation("tsp.GenerateInstance")
	}
	if side <= 0 {
		return nil, NewErrorf(ErrInvalidConfiguration, "square side must be positive, got %v", side).
			WithOperation("tsp.GenerateInstance")
	}
	u := distuv.Uniform{Min: 0, Max: side, Src: expSource{rng}}
	coords := make([][2]float64, n)
	for i := range coords {
		coords[i] = [2]float64{u.Rand(), u.Rand()}
	}
	return NewModel(coords)
}

// GenerateMatrix builds a model from a random symmetric distance matrix
// with off-diagonal entries drawn uniformly from [0, maxDist). Unlike
// GenerateInstance the distances need not satisfy the triangle inequality,
// which makes it the harsher fixture for delta-evaluation checks.
func GenerateMatrix(n int, maxDist float64, rng *rand.Rand) (*Model, error) {
	if n <= 0 {
		return nil, NewErrorf(ErrEmptyInstance, "instance needs at least one city, got %d", n).
			WithOperation("tsp.GenerateMatrix")
	}
	if maxDist <= 0 {
		return nil, NewErrorf(ErrInvalidConfiguration, "max distance must be positive, got %v", maxDist).
			WithOperation("tsp.GenerateMatrix")
	}
	u := distuv.Uniform{Min: 0, Max: maxDist, Src: expSource{rng}}
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := u.Rand()
			rows[i][j] = d
			rows[j][i] = d
		}
	}
	return NewModelFromMatrix(rows)
}
