package dbarts

import "errors"

// Configuration errors, surfaced fatally at CreateFit per §7.
var (
	ErrInvalidNumSamples       = errors.New("dbarts: NumSamples must be >= 1")
	ErrInvalidNumBurnIn        = errors.New("dbarts: NumBurnIn must be >= 0")
	ErrInvalidNumTrees         = errors.New("dbarts: NumTrees must be >= 1")
	ErrInvalidNumThreads       = errors.New("dbarts: NumThreads must be >= 1")
	ErrInvalidThinningRate     = errors.New("dbarts: TreeThinningRate must be >= 1")
	ErrInvalidPrintEvery       = errors.New("dbarts: PrintEvery must be > 0")
	ErrInvalidPrintCutoffs     = errors.New("dbarts: PrintCutoffs must be >= 0")
	ErrProbabilitiesSumTo1     = errors.New("dbarts: BirthOrDeathProbability + SwapProbability + ChangeProbability must sum to 1 within 1e-10")
	ErrInvalidBirthProbability = errors.New("dbarts: BirthProbability must be in [0, 1]")
	ErrInvalidTreePriorBase    = errors.New("dbarts: TreePrior.Base must be in (0, 1)")
	ErrInvalidTreePriorPower   = errors.New("dbarts: TreePrior.Power must be > 0")
	ErrInvalidEndNodeK         = errors.New("dbarts: EndNodePrior K must be > 0")
	ErrInvalidLinRegPrecisions = errors.New("dbarts: EndNodePrior Precisions must have length p+1 and be all positive")
	ErrInvalidResidualPriorDf  = errors.New("dbarts: ResidualVariancePrior Df must be > 0")
	ErrInvalidResidualQuantile = errors.New("dbarts: ResidualVariancePrior Quantile must be in (0, 1)")
	ErrNonPositiveSigmaEst     = errors.New("dbarts: SigmaEstimate must be >= 0")

	ErrEmptyData          = errors.New("dbarts: X and Y must be non-empty")
	ErrLengthMismatch     = errors.New("dbarts: X, Y, Weights, and Offset must agree in length")
	ErrVariableTypeCount  = errors.New("dbarts: VariableTypes and MaxNumCuts must have length p")
	ErrNonPositiveWeight  = errors.New("dbarts: Weights must be strictly positive")
	ErrBinaryResponseVals = errors.New("dbarts: responses must be 0 or 1 when Control.ResponseIsBinary is set")
)

// ErrPredictorIncompatible is returned by SetPredictor/SetPredictors when a
// replacement column yields fewer cut points than the current one or would
// invalidate an existing tree split (§7 "Compatibility" errors). The fit is
// left in its pre-call state.
var ErrPredictorIncompatible = errors.New("dbarts: replacement predictor column is incompatible with existing tree splits")

// ErrModelNotFitted reports that a fit has not run the sampler yet. No
// function in this package returns it.
var ErrModelNotFitted = errors.New("dbarts: fit has not run yet")
