package dbarts

import "github.com/KARARIS/dbarts/internal/rng"

// Control gathers the run-control options of §6: sampler shape, verbosity,
// and the pluggable RNG/callback collaborators.
type Control struct {
	// ResponseIsBinary selects the probit latent-variable augmentation of
	// §4.6 in place of the direct residual-variance draw.
	ResponseIsBinary bool

	// Verbose enables progress logging through the standard library's log
	// package every PrintEvery iterations, matching the teacher's plain
	// stdlib logging posture.
	Verbose bool

	// KeepTrainingFits controls whether Results.TrainingSamples is
	// populated.
	KeepTrainingFits bool

	// UseQuantiles selects quantile-mode cut points; false selects
	// uniform-mode (§4.1).
	UseQuantiles bool

	NumSamples       int
	NumBurnIn        int
	NumTrees         int
	NumThreads       int
	TreeThinningRate int
	PrintEvery       int
	PrintCutoffs     int

	// MatchLegacyLatents selects the MATCH_BAYES_TREE probit-latent scheme
	// (§9 open question 3); default false selects the non-match path.
	MatchLegacyLatents bool

	// Callback, if set, is invoked synchronously after each stored sample
	// with that sample's fits and the current sigma. It must return before
	// the next iteration begins (§5).
	Callback func(sample SampleView, sigma float64)

	// RNG supplies uniform/normal/truncated-normal/chi-squared draws. A
	// zero value selects rng.New(Seed).
	RNG rng.Source

	// Seed is used to construct the default RNG when RNG is nil.
	Seed int64
}

// DefaultControl returns sensible defaults: 1000 burn-in, 1000 samples, 200
// trees, single-threaded, no thinning.
func DefaultControl() Control {
	return Control{
		NumSamples:       1000,
		NumBurnIn:        1000,
		NumTrees:         200,
		NumThreads:       1,
		TreeThinningRate: 1,
		PrintEvery:       100,
		PrintCutoffs:     0,
		KeepTrainingFits: true,
		UseQuantiles:     true,
	}
}

func (c Control) validate() error {
	switch {
	case c.NumSamples < 1:
		return ErrInvalidNumSamples
	case c.NumBurnIn < 0:
		return ErrInvalidNumBurnIn
	case c.NumTrees < 1:
		return ErrInvalidNumTrees
	case c.NumThreads < 1:
		return ErrInvalidNumThreads
	case c.TreeThinningRate < 1:
		return ErrInvalidThinningRate
	case c.PrintEvery <= 0:
		return ErrInvalidPrintEvery
	case c.PrintCutoffs < 0:
		return ErrInvalidPrintCutoffs
	}
	return nil
}

// SampleView is the read-only view of one stored sample passed to Control's
// Callback.
type SampleView struct {
	TrainingFits []float64
	TestFits     []float64
	Sigma        float64
}
