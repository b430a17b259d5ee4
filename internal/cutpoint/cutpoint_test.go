package cutpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeOrdinalFewDistinctValues(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	col := Compute(x, Ordinal, 100, true)
	require.Len(t, col.Points, 3)
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, col.Points)
}

func TestComputeOrdinalManyDistinctValuesQuantile(t *testing.T) {
	x := make([]float64, 1000)
	for i := range x {
		x[i] = float64(i)
	}
	col := Compute(x, Ordinal, 20, true)
	assert.LessOrEqual(t, len(col.Points), 20)
	assert.NotEmpty(t, col.Points)
}

func TestComputeOrdinalUniformMode(t *testing.T) {
	x := []float64{0, 10}
	col := Compute(x, Ordinal, 3, false)
	require.Len(t, col.Points, 3)
	assert.InDelta(t, 2.5, col.Points[0], 1e-9)
	assert.InDelta(t, 5.0, col.Points[1], 1e-9)
	assert.InDelta(t, 7.5, col.Points[2], 1e-9)
}

func TestComputeCategorical(t *testing.T) {
	x := []float64{0, 1, 2, 1, 0}
	col := Compute(x, Categorical, 10, true)
	assert.Equal(t, []float64{0, 1, 2}, col.Points)
}

func TestCheckReplacement(t *testing.T) {
	assert.NoError(t, CheckReplacement(5, 5))
	assert.NoError(t, CheckReplacement(5, 6))
	assert.ErrorIs(t, CheckReplacement(5, 4), ErrFewerCuts)
}

func TestScaleResponseRoundTrip(t *testing.T) {
	y := []float64{1, 2, 3, 4, 5}
	scaled, yMin, yMax, yRange := ScaleResponse(y, nil)
	require.Len(t, scaled, 5)
	assert.InDelta(t, -0.5, scaled[0], 1e-9)
	assert.InDelta(t, 0.5, scaled[4], 1e-9)
	for i, v := range y {
		assert.InDelta(t, v, DescaleValue(scaled[i], yMin, yRange), 1e-9)
	}
	assert.Equal(t, 1.0, yMin)
	assert.Equal(t, 5.0, yMax)
}

func TestScaleResponseWithOffset(t *testing.T) {
	y := []float64{3, 5}
	offset := []float64{1, 1}
	scaled, _, _, _ := ScaleResponse(y, offset)
	assert.InDelta(t, -0.5, scaled[0], 1e-9)
	assert.InDelta(t, 0.5, scaled[1], 1e-9)
}

func TestScaleResponseConstant(t *testing.T) {
	y := []float64{4, 4, 4}
	scaled, _, _, yRange := ScaleResponse(y, nil)
	assert.Equal(t, 1.0, yRange)
	for _, v := range scaled {
		assert.Equal(t, -0.5, v)
	}
}

func TestRescalePriorScale(t *testing.T) {
	s := RescalePriorScale(2.0, 10, 20)
	assert.InDelta(t, 0.5, s, 1e-9)
}
