package rng

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultUniformRange(t *testing.T) {
	src := New(1)
	for i := 0; i < 1000; i++ {
		u := src.Uniform()
		assert.GreaterOrEqual(t, u, 0.0)
		assert.Less(t, u, 1.0)
	}
}

func TestDefaultDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Uniform(), b.Uniform())
		assert.Equal(t, a.Normal(), b.Normal())
	}
}

func TestTruncatedNormalRespectsBounds(t *testing.T) {
	src := New(7)
	for i := 0; i < 500; i++ {
		upper := src.TruncatedNormal(0, 1, true)
		assert.LessOrEqual(t, upper, 0.0)
		lower := src.TruncatedNormal(0, 1, false)
		assert.GreaterOrEqual(t, lower, 0.0)
	}
}

func TestTruncatedNormalLegacyRespectsBounds(t *testing.T) {
	src := New(7)
	for i := 0; i < 500; i++ {
		upper := src.TruncatedNormalLegacy(0, 1, true)
		assert.LessOrEqual(t, upper, 0.0)
		lower := src.TruncatedNormalLegacy(0, 1, false)
		assert.GreaterOrEqual(t, lower, 0.0)
	}
}

func TestChiSquaredPositive(t *testing.T) {
	src := New(3)
	for i := 0; i < 100; i++ {
		v := src.ChiSquared(5)
		assert.Greater(t, v, 0.0)
	}
}

func TestParallelMeanVarianceMatchesSerial(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i)
	}
	indices := make([]int, 100)
	for i := range indices {
		indices[i] = i
	}

	meanSerial, nSerial := ParallelMeanVariance(values, indices, nil, 1)
	meanParallel, nParallel := ParallelMeanVariance(values, indices, nil, 4)

	assert.InDelta(t, meanSerial, meanParallel, 1e-9)
	assert.Equal(t, nSerial, nParallel)
	assert.InDelta(t, 49.5, meanSerial, 1e-9)
}

func TestParallelMeanVarianceEmpty(t *testing.T) {
	mean, n := ParallelMeanVariance(nil, nil, nil, 4)
	assert.Equal(t, 0.0, mean)
	assert.Equal(t, 0.0, n)
}

func TestParallelMeanVarianceWeighted(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	indices := []int{0, 1, 2, 3}
	weights := []float64{1, 1, 1, 1}
	mean, nEff := ParallelMeanVariance(values, indices, weights, 1)
	assert.InDelta(t, 2.5, mean, 1e-9)
	assert.InDelta(t, 4.0, nEff, 1e-9)
}

func TestStateBytesRoundTripContinuesSameSequence(t *testing.T) {
	src := New(5)
	for i := 0; i < 7; i++ {
		src.Uniform()
	}
	state := src.StateBytes()

	want := make([]float64, 5)
	for i := range want {
		want[i] = src.Uniform()
	}

	resumed := New(999) // different seed: restoring state must override it
	require := assert.New(t)
	require.NoError(resumed.SetStateBytes(state))
	for i := range want {
		require.Equal(want[i], resumed.Uniform())
	}
}

func TestSetStateBytesRejectsWrongLength(t *testing.T) {
	src := New(1)
	assert.Error(t, src.SetStateBytes([]byte{1, 2, 3}))
}

func TestTruncatedNormalIsFinite(t *testing.T) {
	src := New(11)
	v := src.TruncatedNormal(5, 0.01, true)
	assert.False(t, math.IsNaN(v))
	assert.False(t, math.IsInf(v, 0))
}
