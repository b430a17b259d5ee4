package dbarts

// Results collects the posterior samples produced by RunSampler, one entry
// per stored (post-thinning, post-burn-in) iteration, per §6.
type Results struct {
	// SigmaSamples holds the residual standard deviation in original
	// response units at each stored iteration (always 1, constant, for a
	// binary response, per §4.6's probit parameterization).
	SigmaSamples []float64

	// TrainingSamples[s][i] is the fitted value for training observation i
	// at stored sample s, in original response units. Empty unless
	// Control.KeepTrainingFits is set.
	TrainingSamples [][]float64

	// TestSamples[s][i] is the fitted value for test observation i at
	// stored sample s, in original response units. Empty when Data.XTest
	// is empty.
	TestSamples [][]float64

	// VariableCountSamples[s][j] counts how many internal nodes across the
	// whole ensemble split on predictor j at stored sample s.
	VariableCountSamples [][]int

	// TreeStrings[s][t] is tree t's newline-free serialization at stored
	// sample s, per §6's persisted-state format. Populated for every stored
	// sample.
	TreeStrings [][]string
}
