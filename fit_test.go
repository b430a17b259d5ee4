package dbarts

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KARARIS/dbarts/internal/cutpoint"
	"github.com/KARARIS/dbarts/internal/rtree"
)

func syntheticData(n int, seed int64) Data {
	r := rand.New(rand.NewSource(seed))
	x0 := make([]float64, n)
	x1 := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x0[i] = r.Float64()*10 - 5
		x1[i] = r.Float64()*10 - 5
		y[i] = x0[i] + 0.1*x1[i]*x1[i] + r.NormFloat64()*0.2
	}
	return Data{Y: y, X: [][]float64{x0, x1}}
}

func TestCreateFitRejectsBadControl(t *testing.T) {
	control := DefaultControl()
	control.NumTrees = 0
	_, err := CreateFit(control, DefaultModel(), syntheticData(20, 1))
	assert.Equal(t, ErrInvalidNumTrees, err)
}

func TestCreateFitRejectsBadData(t *testing.T) {
	_, err := CreateFit(DefaultControl(), DefaultModel(), Data{})
	assert.Equal(t, ErrEmptyData, err)
}

func TestCreateFitRejectsBinaryResponseWithNonBinaryY(t *testing.T) {
	control := DefaultControl()
	control.ResponseIsBinary = true
	data := syntheticData(20, 1)
	_, err := CreateFit(control, DefaultModel(), data)
	assert.Equal(t, ErrBinaryResponseVals, err)
}

func TestRunSamplerRegressionProducesSensibleFits(t *testing.T) {
	n := 80
	data := syntheticData(n, 1)

	control := DefaultControl()
	control.NumBurnIn = 20
	control.NumSamples = 20
	control.NumTrees = 20
	control.Seed = 1

	fit, err := CreateFit(control, DefaultModel(), data)
	require.NoError(t, err)

	results, err := fit.RunSampler()
	require.NoError(t, err)
	require.Len(t, results.SigmaSamples, 20)
	require.Len(t, results.TrainingSamples, 20)

	for _, sigma := range results.SigmaSamples {
		assert.Greater(t, sigma, 0.0)
		assert.False(t, math.IsNaN(sigma))
	}

	last := results.TrainingSamples[len(results.TrainingSamples)-1]
	require.Len(t, last, n)

	var rmse float64
	for i, v := range last {
		d := v - data.Y[i]
		rmse += d * d
	}
	rmse = math.Sqrt(rmse / float64(n))
	assert.Less(t, rmse, 3.0)
}

func TestRunSamplerBinaryProducesLatentDrivenFits(t *testing.T) {
	n := 60
	r := rand.New(rand.NewSource(2))
	x0 := make([]float64, n)
	y := make([]float64, n)
	for i := range x0 {
		x0[i] = r.Float64()*6 - 3
		if x0[i] > 0 {
			y[i] = 1
		}
	}
	data := Data{Y: y, X: [][]float64{x0}}

	control := DefaultControl()
	control.ResponseIsBinary = true
	control.NumBurnIn = 10
	control.NumSamples = 10
	control.NumTrees = 20
	control.Seed = 2

	fit, err := CreateFit(control, DefaultModel(), data)
	require.NoError(t, err)

	results, err := fit.RunSampler()
	require.NoError(t, err)
	require.Len(t, results.TrainingSamples, 10)
	for _, sigma := range results.SigmaSamples {
		assert.Equal(t, 1.0, sigma)
	}
}

func TestRunSamplerWithTestPredictors(t *testing.T) {
	n := 40
	data := syntheticData(n, 3)
	data.XTest = [][]float64{{0, 1, 2}, {0, 1, 2}}

	control := DefaultControl()
	control.NumBurnIn = 5
	control.NumSamples = 5
	control.NumTrees = 10
	control.Seed = 3

	fit, err := CreateFit(control, DefaultModel(), data)
	require.NoError(t, err)

	results, err := fit.RunSampler()
	require.NoError(t, err)
	require.Len(t, results.TestSamples, 5)
	for _, s := range results.TestSamples {
		require.Len(t, s, 3)
	}
}

func TestSetPredictorRejectsIncompatibleReplacement(t *testing.T) {
	data := syntheticData(60, 4)
	control := DefaultControl()
	control.NumBurnIn = 5
	control.NumSamples = 5
	control.NumTrees = 30
	control.Seed = 4

	fit, err := CreateFit(control, DefaultModel(), data)
	require.NoError(t, err)
	_, err = fit.RunSampler()
	require.NoError(t, err)

	constant := make([]float64, 60)
	err = fit.SetPredictor(0, constant)
	assert.Equal(t, ErrPredictorIncompatible, err)
}

func TestSetPredictorRejectsIncompatibleCategoricalReplacement(t *testing.T) {
	n := 20
	x0 := make([]float64, n)
	y := make([]float64, n)
	for i := range x0 {
		x0[i] = float64(i % 4) // categories 0..3
		y[i] = float64(i)
	}
	data := Data{Y: y, X: [][]float64{x0}, VariableTypes: []cutpoint.VariableType{cutpoint.Categorical}}

	control := DefaultControl()
	control.NumTrees = 1
	fit, err := CreateFit(control, DefaultModel(), data)
	require.NoError(t, err)

	// build a split using category code 3, so the compatibility check must
	// reject a replacement column that only has categories 0..1.
	tree, err := rtree.BuildFromString(&fit.ctx, n, fit.trees[0].EndKind, "N(c,0,8,L(0),L(0))")
	require.NoError(t, err)
	fit.trees[0] = tree

	fewCategories := make([]float64, n)
	for i := range fewCategories {
		fewCategories[i] = float64(i % 2)
	}
	err = fit.SetPredictor(0, fewCategories)
	assert.Equal(t, ErrPredictorIncompatible, err)
}

func TestSetResponseRescalesSigmaPrior(t *testing.T) {
	data := syntheticData(30, 5)
	control := DefaultControl()
	control.NumTrees = 5
	fit, err := CreateFit(control, DefaultModel(), data)
	require.NoError(t, err)

	doubled := make([]float64, len(data.Y))
	for i, v := range data.Y {
		doubled[i] = v * 2
	}
	oldScale := fit.sigmaPrior.Scale
	require.NoError(t, fit.SetResponse(doubled))
	assert.Equal(t, doubled, fit.data.Y)
	// doubling y doubles yRange, so scale_new = scale_old * (1/2)^2.
	assert.InDelta(t, oldScale/4, fit.sigmaPrior.Scale, 1e-12)
}
