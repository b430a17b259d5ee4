package dbarts

import (
	"log"
	"math"
	"time"

	"github.com/KARARIS/dbarts/internal/cutpoint"
	"github.com/KARARIS/dbarts/internal/prior"
	"github.com/KARARIS/dbarts/internal/rng"
	"github.com/KARARIS/dbarts/internal/rtree"
)

// Fit is a configured, runnable BART sampler: the ensemble of trees plus the
// working state (per-tree fits, residuals, sigma) carried between calls to
// RunSampler, per §6.
type Fit struct {
	control Control
	model   Model
	data    Data

	ctx rtree.Context

	treePrior  prior.TreePrior
	endPrior   rtree.EndNodePriorSource
	sigmaPrior prior.ResidualVariancePrior

	trees    []*rtree.Tree
	treeFits [][]float64 // treeFits[t][i], scaled units
	totalFit []float64   // scaled units

	y       []float64 // working response, scaled units (or latent z for binary)
	yMin    float64
	yRange  float64
	isLatent bool

	sigma float64

	rngSrc rng.Source

	runningTime time.Duration
}

// CreateFit validates control, model, and data, prepares cut points and the
// initial ensemble, and returns a ready-to-run Fit, per §7 (configuration
// errors are fatal here, never during RunSampler).
func CreateFit(control Control, model Model, data Data) (*Fit, error) {
	if err := control.validate(); err != nil {
		return nil, err
	}
	if err := data.validate(); err != nil {
		return nil, err
	}
	p := len(data.X)
	if err := model.validate(p); err != nil {
		return nil, err
	}
	if control.ResponseIsBinary {
		if err := data.binaryResponseOK(); err != nil {
			return nil, err
		}
	}

	n := len(data.Y)

	varTypes := data.VariableTypes
	if varTypes == nil {
		varTypes = make([]cutpoint.VariableType, p)
	}
	maxCuts := data.MaxNumCuts
	if maxCuts == nil {
		maxCuts = make([]int, p)
		for j := range maxCuts {
			maxCuts[j] = 100
		}
	}

	columns := make([]cutpoint.Column, p)
	numCategories := make([]int, p)
	for j := 0; j < p; j++ {
		columns[j] = cutpoint.Compute(data.X[j], varTypes[j], maxCuts[j], control.UseQuantiles)
		if varTypes[j] == cutpoint.Categorical {
			numCategories[j] = len(columns[j].Points)
		}
	}

	weights := data.Weights
	if weights == nil {
		weights = make([]float64, n)
		for i := range weights {
			weights[i] = 1
		}
	}

	ctx := rtree.Context{
		XColumns:      data.X,
		VariableTypes: varTypes,
		Columns:       columns,
		NumCategories: numCategories,
		Weights:       weights,
		NumThreads:    control.NumThreads,
	}

	var y []float64
	var yMin, yRange float64
	isLatent := control.ResponseIsBinary
	if isLatent {
		y = make([]float64, n)
		for i := range y {
			o := 0.0
			if data.Offset != nil {
				o = data.Offset[i]
			}
			if data.Y[i] > 0 {
				y[i] = o + 0.5
			} else {
				y[i] = o - 0.5
			}
		}
		yMin, yRange = 0, 1
	} else {
		var scaled []float64
		scaled, yMin, _, yRange = cutpoint.ScaleResponse(data.Y, data.Offset)
		y = scaled
	}

	sigmaEstimate := data.SigmaEstimate
	if sigmaEstimate <= 0 {
		sigmaEstimate = sampleStdDev(y)
		if sigmaEstimate <= 0 {
			sigmaEstimate = 1
		}
	}

	treePrior := prior.TreePrior{Base: model.TreePrior.Base, Power: model.TreePrior.Power}

	var endPrior rtree.EndNodePriorSource
	var endKind rtree.EndNodeKind
	switch model.EndNodePrior.Kind {
	case rtree.LinRegNormal:
		endPrior = &prior.LinRegNormalPrior{Precisions: model.EndNodePrior.Precisions}
		endKind = rtree.LinRegNormal
	default:
		endPrior = prior.NewMeanNormalPrior(model.EndNodePrior.K, control.ResponseIsBinary, control.NumTrees)
		endKind = rtree.MeanNormal
	}

	sigmaPrior := prior.NewResidualVariancePrior(model.ResidualVariancePrior.Df, model.ResidualVariancePrior.Quantile, sigmaEstimate)

	trees := make([]*rtree.Tree, control.NumTrees)
	treeFits := make([][]float64, control.NumTrees)
	for t := range trees {
		trees[t] = rtree.NewTree(n, endKind)
		treeFits[t] = make([]float64, n)
	}

	rngSrc := control.RNG
	if rngSrc == nil {
		rngSrc = rng.New(control.Seed)
	}

	f := &Fit{
		control:    control,
		model:      model,
		data:       data,
		ctx:        ctx,
		treePrior:  treePrior,
		endPrior:   endPrior,
		sigmaPrior: sigmaPrior,
		trees:      trees,
		treeFits:   treeFits,
		totalFit:   make([]float64, n),
		y:          y,
		yMin:       yMin,
		yRange:     yRange,
		isLatent:   isLatent,
		sigma:      sigmaEstimate,
		rngSrc:     rngSrc,
	}
	return f, nil
}

func sampleStdDev(y []float64) float64 {
	n := len(y)
	if n < 2 {
		return 0
	}
	var mean float64
	for _, v := range y {
		mean += v
	}
	mean /= float64(n)
	var ss float64
	for _, v := range y {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

func (f *Fit) moveProbs() rtree.MoveProbs {
	return rtree.MoveProbs{
		PBirthOrDeath: f.model.BirthOrDeathProbability,
		PSwap:         f.model.SwapProbability,
		PChange:       f.model.ChangeProbability,
		PBirth:        f.model.BirthProbability,
	}
}

// RunSampler runs Control.NumBurnIn discarded iterations followed by
// Control.NumSamples stored iterations (subject to TreeThinningRate), per
// §4.6.
func (f *Fit) RunSampler() (*Results, error) {
	return f.RunSamplerWithCounts(f.control.NumBurnIn, f.control.NumSamples)
}

// RunSamplerWithCounts runs the outer MCMC loop of §4.6 with explicit
// burn-in and sample counts, leaving Fit's ensemble and working state
// advanced for a subsequent call.
func (f *Fit) RunSamplerWithCounts(numBurnIn, numSamples int) (*Results, error) {
	start := time.Now()
	n := len(f.y)
	p := f.ctx.NumVariables()
	hasTest := len(f.data.XTest) > 0

	results := &Results{}

	moveProbs := f.moveProbs()
	partial := make([]float64, n)

	totalIterations := numBurnIn + numSamples*f.control.TreeThinningRate
	for iter := 0; iter < totalIterations; iter++ {
		f.sweepTrees(partial, moveProbs)

		if f.isLatent {
			f.resampleLatents()
		} else {
			f.drawSigma()
		}

		if f.control.Verbose && (iter+1)%f.control.PrintEvery == 0 {
			log.Printf("dbarts: iteration %d/%d, sigma=%.4f", iter+1, totalIterations, f.currentSigmaDisplay())
		}

		if iter < numBurnIn {
			continue
		}
		if (iter-numBurnIn+1)%f.control.TreeThinningRate != 0 {
			continue
		}

		results.SigmaSamples = append(results.SigmaSamples, f.currentSigmaDisplay())

		if f.control.KeepTrainingFits {
			trainFits := make([]float64, n)
			for i := range trainFits {
				o := 0.0
				if !f.isLatent && f.data.Offset != nil {
					o = f.data.Offset[i]
				}
				trainFits[i] = f.descale(f.totalFit[i]) + o
			}
			results.TrainingSamples = append(results.TrainingSamples, trainFits)
		}

		if hasTest {
			testFits := f.computeTestFits()
			results.TestSamples = append(results.TestSamples, testFits)
		}

		counts := make([]int, p)
		for _, tree := range f.trees {
			rtree.VariableUseCounts(tree, p, counts)
		}
		results.VariableCountSamples = append(results.VariableCountSamples, counts)

		treeStrs := make([]string, len(f.trees))
		for t, tree := range f.trees {
			treeStrs[t] = tree.String()
		}
		results.TreeStrings = append(results.TreeStrings, treeStrs)

		if f.control.Callback != nil {
			var sample SampleView
			if f.control.KeepTrainingFits {
				sample.TrainingFits = results.TrainingSamples[len(results.TrainingSamples)-1]
			}
			if hasTest {
				sample.TestFits = results.TestSamples[len(results.TestSamples)-1]
			}
			sample.Sigma = f.currentSigmaDisplay()
			f.control.Callback(sample, sample.Sigma)
		}
	}

	f.runningTime += time.Since(start)
	return results, nil
}

// sweepTrees implements one pass of §4.6's per-tree update: for each tree,
// subtract its current contribution to form partial residuals, propose a
// structural move, redraw every current leaf's posterior parameter (since
// residuals moved even for leaves whose membership did not change), and add
// the refreshed contribution back into the running total.
func (f *Fit) sweepTrees(partial []float64, moveProbs rtree.MoveProbs) {
	n := len(f.y)
	for t, tree := range f.trees {
		oldFit := f.treeFits[t]
		for i := 0; i < n; i++ {
			partial[i] = f.y[i] - f.totalFit[i] + oldFit[i]
		}

		rtree.Propose(&f.ctx, tree, f.treePrior, f.endPrior, f.rngSrc, partial, f.sigma, moveProbs)

		for _, id := range tree.Leaves() {
			node := tree.Node(id)
			f.endPrior.PrepareForLikelihoodAndPosterior(&f.ctx, node, tree.Indices(id), partial, f.sigma)
			f.endPrior.DrawPosterior(node, f.sigma, f.rngSrc)
		}

		newFit := make([]float64, n)
		rtree.ExtractTrainingFits(&f.ctx, tree, f.endPrior, newFit)
		for i := 0; i < n; i++ {
			f.totalFit[i] += newFit[i] - oldFit[i]
		}
		f.treeFits[t] = newFit
	}
}

func (f *Fit) drawSigma() {
	n := len(f.y)
	var ssr, nEff float64
	for i := 0; i < n; i++ {
		w := f.ctx.Weights[i]
		d := f.y[i] - f.totalFit[i]
		ssr += w * d * d
		nEff += w
	}
	f.sigma = f.sigmaPrior.DrawFromPosterior(nEff, ssr, f.rngSrc)
}

// resampleLatents redraws the probit latent response z_i ~
// TruncatedNormal(totalFit_i + offset_i, 1, upper=y_i==0), per §4.6's
// binary-response path. When the RNG is the package default,
// Control.MatchLegacyLatents selects the MATCH_BAYES_TREE rejection scheme
// instead of the default inverse-CDF scheme (§9 open question 3); any other
// RNG always uses its own TruncatedNormal.
func (f *Fit) resampleLatents() {
	def, ok := f.rngSrc.(*rng.Default)
	for i := range f.y {
		upper := f.data.Y[i] == 0
		o := 0.0
		if f.data.Offset != nil {
			o = f.data.Offset[i]
		}
		mean := f.totalFit[i] + o
		if ok && f.control.MatchLegacyLatents {
			f.y[i] = def.TruncatedNormalLegacy(mean, 1, upper)
		} else {
			f.y[i] = f.rngSrc.TruncatedNormal(mean, 1, upper)
		}
	}
}

func (f *Fit) currentSigmaDisplay() float64 {
	if f.isLatent {
		return 1
	}
	return cutpoint.RescaleSigma(f.sigma, f.yRange)
}

func (f *Fit) descale(scaled float64) float64 {
	if f.isLatent {
		return scaled
	}
	return cutpoint.DescaleValue(scaled, f.yMin, f.yRange)
}

// SetResponse replaces the training response in place, rescaling the
// working response and the residual-variance prior's Scale to preserve the
// prior's unscaled quantile, per §7. It leaves Fit unchanged and returns an
// error if newY's length disagrees with the existing data.
func (f *Fit) SetResponse(newY []float64) error {
	if len(newY) != len(f.y) {
		return ErrLengthMismatch
	}
	if f.isLatent {
		for _, v := range newY {
			if v != 0 && v != 1 {
				return ErrBinaryResponseVals
			}
		}
		f.data.Y = append([]float64(nil), newY...)
		for i := range f.y {
			o := 0.0
			if f.data.Offset != nil {
				o = f.data.Offset[i]
			}
			if newY[i] > 0 {
				f.y[i] = o + 0.5
			} else {
				f.y[i] = o - 0.5
			}
		}
		return nil
	}

	scaled, yMin, _, yRange := cutpoint.ScaleResponse(newY, f.data.Offset)
	f.sigmaPrior.Rescale(f.yRange, yRange)
	f.data.Y = append([]float64(nil), newY...)
	f.y = scaled
	f.yMin = yMin
	f.yRange = yRange
	return nil
}

// SetOffset replaces the training offset in place; nil clears it. Rescales
// the working response and residual-variance prior the same way SetResponse
// does, since the offset participates in the same shift-and-scale, per §7.
func (f *Fit) SetOffset(newOffset []float64) error {
	if newOffset != nil && len(newOffset) != len(f.y) {
		return ErrLengthMismatch
	}
	f.data.Offset = newOffset
	return f.SetResponse(f.data.Y)
}

// SetTestOffset replaces the test offset in place; nil clears it.
func (f *Fit) SetTestOffset(newOffset []float64) error {
	if len(f.data.XTest) == 0 {
		return nil
	}
	m := len(f.data.XTest[0])
	if newOffset != nil && len(newOffset) != m {
		return ErrLengthMismatch
	}
	f.data.TestOffset = newOffset
	return nil
}

// checkSplitsCompatible reports whether every existing split on variable j,
// across every tree, still makes sense against newColumn: an ordinal split's
// CutIndex must still be in range, and a categorical split's Mask must not
// reference a category code the replacement column no longer has.
func checkSplitsCompatible(trees []*rtree.Tree, j int, newColumn cutpoint.Column) error {
	numCategories := len(newColumn.Points)
	for _, tree := range trees {
		for _, id := range tree.Internals() {
			n := tree.Node(id)
			if n.Rule.VariableIndex != j {
				continue
			}
			switch n.Rule.Kind {
			case rtree.OrdinalRule:
				if n.Rule.CutIndex >= len(newColumn.Points) {
					return ErrPredictorIncompatible
				}
			case rtree.CategoricalRule:
				if highestSetBit(n.Rule.Mask) >= numCategories {
					return ErrPredictorIncompatible
				}
			}
		}
	}
	return nil
}

func highestSetBit(mask uint64) int {
	highest := -1
	for i := 0; i < 64; i++ {
		if mask&(1<<uint(i)) != 0 {
			highest = i
		}
	}
	return highest
}

// SetPredictor replaces training predictor column j in place. Per §7, a
// replacement that yields fewer cut points than the current column has, or
// that an existing tree split on that variable can no longer use, is
// rejected with ErrPredictorIncompatible and the fit is left in its pre-call
// state.
func (f *Fit) SetPredictor(j int, column []float64) error {
	if j < 0 || j >= f.ctx.NumVariables() || len(column) != len(f.y) {
		return ErrLengthMismatch
	}
	newColumn := cutpoint.Compute(column, f.ctx.VariableTypes[j], f.ctx.Columns[j].MaxNumCuts, f.control.UseQuantiles)
	if err := cutpoint.CheckReplacement(len(f.ctx.Columns[j].Points), len(newColumn.Points)); err != nil {
		return ErrPredictorIncompatible
	}
	if err := checkSplitsCompatible(f.trees, j, newColumn); err != nil {
		return err
	}
	f.data.X[j] = append([]float64(nil), column...)
	f.ctx.XColumns[j] = f.data.X[j]
	f.ctx.Columns[j] = newColumn
	return nil
}

// SetPredictors replaces multiple training predictor columns atomically:
// either every column is accepted, or none are and the fit is left
// unchanged, per §7.
func (f *Fit) SetPredictors(columns map[int][]float64) error {
	for j, col := range columns {
		if j < 0 || j >= f.ctx.NumVariables() || len(col) != len(f.y) {
			return ErrLengthMismatch
		}
	}
	for j, col := range columns {
		newColumn := cutpoint.Compute(col, f.ctx.VariableTypes[j], f.ctx.Columns[j].MaxNumCuts, f.control.UseQuantiles)
		if err := cutpoint.CheckReplacement(len(f.ctx.Columns[j].Points), len(newColumn.Points)); err != nil {
			return ErrPredictorIncompatible
		}
		if err := checkSplitsCompatible(f.trees, j, newColumn); err != nil {
			return err
		}
	}
	for j, col := range columns {
		if err := f.SetPredictor(j, col); err != nil {
			return err
		}
	}
	return nil
}

// SetTestPredictor replaces test predictor column j in place. When XTest was
// previously empty it first allocates p empty columns and fills only column
// j; a column that is already filled can only be replaced by one of the same
// length.
func (f *Fit) SetTestPredictor(j int, column []float64) error {
	if j < 0 || j >= f.ctx.NumVariables() {
		return ErrLengthMismatch
	}
	if len(f.data.XTest) == 0 {
		f.data.XTest = make([][]float64, f.ctx.NumVariables())
	}
	if len(f.data.XTest[j]) != 0 && len(column) != len(f.data.XTest[j]) {
		return ErrLengthMismatch
	}
	f.data.XTest[j] = append([]float64(nil), column...)
	return nil
}

func (f *Fit) computeTestFits() []float64 {
	m := len(f.data.XTest[0])
	p := len(f.data.XTest)
	totalTest := make([]float64, m)
	rows := make([][]float64, m)
	for i := range rows {
		rows[i] = make([]float64, p)
		for j := 0; j < p; j++ {
			rows[i][j] = f.data.XTest[j][i]
		}
	}
	treeTest := make([]float64, m)
	for _, tree := range f.trees {
		rtree.ExtractTestFits(tree, f.endPrior, rows, treeTest)
		for i := range totalTest {
			totalTest[i] += treeTest[i]
		}
	}
	out := make([]float64, m)
	for i, v := range totalTest {
		o := 0.0
		if f.data.TestOffset != nil {
			o = f.data.TestOffset[i]
		}
		out[i] = f.descale(v) + o
	}
	return out
}
