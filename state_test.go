package dbarts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	data := syntheticData(40, 9)
	control := DefaultControl()
	control.NumBurnIn = 10
	control.NumSamples = 10
	control.NumTrees = 15
	control.Seed = 9

	fit, err := CreateFit(control, DefaultModel(), data)
	require.NoError(t, err)
	_, err = fit.RunSampler()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "fit.bart")
	require.NoError(t, fit.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, len(fit.trees), len(loaded.trees))
	assert.InDelta(t, fit.sigma, loaded.sigma, 1e-9)
	for i := range fit.totalFit {
		assert.InDelta(t, fit.totalFit[i], loaded.totalFit[i], 1e-9)
	}
	for i, tree := range fit.trees {
		assert.Equal(t, tree.String(), loaded.trees[i].String())
	}
}

func TestLoadFromFileRejectsBadVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bart")
	require.NoError(t, os.WriteFile(path, []byte("garbage!"), 0o644))
	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestSaveLoadThenContinueMatchesUninterruptedRun(t *testing.T) {
	control := DefaultControl()
	control.NumBurnIn = 5
	control.NumSamples = 10
	control.NumTrees = 10
	control.Seed = 77

	reference, err := CreateFit(control, DefaultModel(), syntheticData(40, 6))
	require.NoError(t, err)
	_, err = reference.RunSamplerWithCounts(reference.control.NumBurnIn, 20)
	require.NoError(t, err)

	checkpointed, err := CreateFit(control, DefaultModel(), syntheticData(40, 6))
	require.NoError(t, err)
	_, err = checkpointed.RunSamplerWithCounts(checkpointed.control.NumBurnIn, 10)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "checkpoint.bart")
	require.NoError(t, checkpointed.SaveToFile(path))

	resumed, err := LoadFromFile(path)
	require.NoError(t, err)
	_, err = resumed.RunSamplerWithCounts(0, 10)
	require.NoError(t, err)

	assert.InDelta(t, reference.sigma, resumed.sigma, 1e-9)
	for i := range reference.totalFit {
		assert.InDelta(t, reference.totalFit[i], resumed.totalFit[i], 1e-9)
	}
}

func TestStoreStateOverwritesInPlace(t *testing.T) {
	fit, err := CreateFit(DefaultControl(), DefaultModel(), syntheticData(20, 10))
	require.NoError(t, err)

	var s State
	fit.StoreState(&s)
	assert.Equal(t, len(fit.trees), len(s.TreeStrings))
	assert.Equal(t, fit.sigma, s.Sigma)

	_, err = fit.RunSamplerWithCounts(0, 3)
	require.NoError(t, err)
	fit.StoreState(&s)
	assert.Equal(t, fit.sigma, s.Sigma)
}
