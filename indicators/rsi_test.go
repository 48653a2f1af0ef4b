package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRSISeries(t *testing.T) {
	closes := []float64{
		44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.10, 45.42,
		45.84, 46.08, 45.89, 46.03, 45.61, 46.28, 46.28, 46.00,
	}

	rsi, err := RSISeries(closes, 14)
	require.NoError(t, err)
	require.Len(t, rsi, len(closes))
	for i := 0; i < 14; i++ {
		assert.True(t, math.IsNaN(rsi[i]), "index %d", i)
	}
	// Wilder's worked example
	assert.InDelta(t, 70.53, rsi[14], 0.05)
	assert.Greater(t, rsi[14], rsi[15])
}

func TestRSIBounds(t *testing.T) {
	up := make([]float64, 30)
	down := make([]float64, 30)
	for i := range up {
		up[i] = 1 + float64(i)*0.001
		down[i] = 2 - float64(i)*0.001
	}

	v, err := RSISeries(up, 14)
	require.NoError(t, err)
	assert.InDelta(t, 100, v[len(v)-1], 1e-9)

	v, err = RSISeries(down, 14)
	require.NoError(t, err)
	assert.InDelta(t, 0, v[len(v)-1], 1e-9)
}

func TestRSINotEnoughData(t *testing.T) {
	_, err := RSISeries([]float64{1, 2, 3}, 14)
	assert.Error(t, err)

	_, err = RSISeries([]float64{1, 2, 3}, 1)
	assert.Error(t, err)
}
