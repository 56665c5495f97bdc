package tsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateInstance(t *testing.T) {
	m, err := GenerateInstance(40, 10, NewRNG(5))
	require.NoError(t, err)
	assert.Equal(t, 40, m.Size())

	for _, c := range m.Coords() {
		assert.GreaterOrEqual(t, c[0], 0.0)
		assert.Less(t, c[0], 10.0)
		assert.GreaterOrEqual(t, c[1], 0.0)
		assert.Less(t, c[1], 10.0)
	}

	// Same seed, same cities
	again, err := GenerateInstance(40, 10, NewRNG(5))
	require.NoError(t, err)
	assert.Equal(t, m.Coords(), again.Coords())
}

func TestGenerateInstanceErrors(t *testing.T) {
	_, err := GenerateInstance(0, 10, NewRNG(1))
	assert.ErrorIs(t, err, ErrEmptyInstance)

	_, err = GenerateInstance(5, 0, NewRNG(1))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestGenerateMatrix(t *testing.T) {
	m, err := GenerateMatrix(25, 50, NewRNG(3))
	require.NoError(t, err)
	assert.Equal(t, 25, m.Size())
	assert.Nil(t, m.Coords())

	for i := 0; i < m.Size(); i++ {
		assert.Zero(t, m.Distance(i, i))
		for j := i + 1; j < m.Size(); j++ {
			assert.Equal(t, m.Distance(i, j), m.Distance(j, i))
			assert.GreaterOrEqual(t, m.Distance(i, j), 0.0)
			assert.Less(t, m.Distance(i, j), 50.0)
		}
	}
}

func TestGenerateMatrixErrors(t *testing.T) {
	_, err := GenerateMatrix(-1, 50, NewRNG(1))
	assert.ErrorIs(t, err, ErrEmptyInstance)

	_, err = GenerateMatrix(5, -2, NewRNG(1))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
