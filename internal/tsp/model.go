// Package tsp implements the core engine for approximate symmetric TSP
// solving: the distance model, tours with delta-tracked costs, the move
// catalog with O(1) incremental evaluation, and the shared solver contract
// consumed by the construction and search strategies in the subpackages.
package tsp

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// symmetryTol bounds the accepted difference between d(i,j) and d(j,i)
// when validating an explicit matrix.
const symmetryTol = 1e-9

// Model owns the city set and the derived pairwise-distance matrix for one
// problem instance. Distances are stored in a flat row-major buffer so the
// hot loops index with a single multiplication. A Model is immutable after
// construction and safe to share across goroutines.
type Model struct {
	n      int
	dist   []float64    // n*n, row-major
	coords [][2]float64 // nil when built from an explicit matrix
}

// NewModel builds a model from city coordinates, computing all pairwise
// Euclidean distances once. It fails with ErrEmptyInstance when no cities
// are given.
func NewModel(coords [][2]float64) (*Model, error) {
	n := len(coords)
	if n == 0 {
		return nil, NewError(ErrEmptyInstance, "no cities").WithOperation("tsp.NewModel")
	}
	m := &Model{
		n:      n,
		dist:   make([]float64, n*n),
		coords: append([][2]float64(nil), coords...),
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := coords[i][0] - coords[j][0]
			dy := coords[i][1] - coords[j][1]
			d := math.Sqrt(dx*dx + dy*dy)
			m.dist[i*n+j] = d
			m.dist[j*n+i] = d
		}
	}
	return m, nil
}

// NewModelFromMatrix builds a model from a pre-supplied distance matrix.
// The matrix must be square and symmetric with a zero diagonal and
// non-negative finite entries; anything else fails with ErrInvalidInstance.
func NewModelFromMatrix(rows [][]float64) (*Model, error) {
	n := len(rows)
	if n == 0 {
		return nil, NewError(ErrEmptyInstance, "no cities").WithOperation("tsp.NewModelFromMatrix")
	}
	m := &Model{n: n, dist: make([]float64, n*n)}
	for i, row := range rows {
		if len(row) != n {
			return nil, NewErrorf(ErrInvalidInstance, "row %d has %d entries, want %d", i, len(row), n).
				WithOperation("tsp.NewModelFromMatrix")
		}
		copy(m.dist[i*n:(i+1)*n], row)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewModelFromDense builds a model from a gonum matrix, applying the same
// validation as NewModelFromMatrix.
func NewModelFromDense(src mat.Matrix) (*Model, error) {
	r, c := src.Dims()
	if r == 0 && c == 0 {
		return nil, NewError(ErrEmptyInstance, "no cities").WithOperation("tsp.NewModelFromDense")
	}
	if r != c {
		return nil, NewErrorf(ErrInvalidInstance, "matrix is %dx%d, want square", r, c).
			WithOperation("tsp.NewModelFromDense")
	}
	m := &Model{n: r, dist: make([]float64, r*r)}
	for i := 0; i < r; i++ {
		for j := 0; j < r; j++ {
			m.dist[i*r+j] = src.At(i, j)
		}
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// validate checks the stored matrix invariants: zero diagonal, symmetry,
// non-negative finite entries.
func (m *Model) validate() error {
	for i := 0; i < m.n; i++ {
		if d := m.dist[i*m.n+i]; math.Abs(d) > symmetryTol {
			return NewErrorf(ErrInvalidInstance, "nonzero diagonal %v at city %d", d, i)
		}
		for j := i + 1; j < m.n; j++ {
			dij := m.dist[i*m.n+j]
			dji := m.dist[j*m.n+i]
			if math.IsNaN(dij) || math.IsInf(dij, 0) {
				return NewErrorf(ErrInvalidInstance, "non-finite distance %v at (%d,%d)", dij, i, j)
			}
			if dij < 0 {
				return NewErrorf(ErrInvalidInstance, "negative distance %v at (%d,%d)", dij, i, j)
			}
			if math.Abs(dij-dji) > symmetryTol {
				return NewErrorf(ErrInvalidInstance, "asymmetric distances at (%d,%d): %v != %v", i, j, dij, dji)
			}
		}
	}
	return nil
}

// Size returns the number of cities.
func (m *Model) Size() int {
	return m.n
}

// Distance returns the distance between two cities. Both indices must be
// in [0, Size()); the hot path performs no bounds checks of its own.
func (m *Model) Distance(i, j int) float64 {
	return m.dist[i*m.n+j]
}

// Coords returns a copy of the city coordinates, or nil when the model was
// built from an explicit matrix.
func (m *Model) Coords() [][2]float64 {
	if m.coords == nil {
		return nil
	}
	return append([][2]float64(nil), m.coords...)
}
