package prior

import (
	"math"

	"github.com/KARARIS/dbarts/internal/numeric"
	"github.com/KARARIS/dbarts/internal/rng"
	"github.com/KARARIS/dbarts/internal/rtree"
)

// MeanNormalPrior is the constant-leaf-mean end-node prior of §4.3:
// mu ~ Normal(0, 1/tau), with sigma_mu derived from the hyperparameter k.
type MeanNormalPrior struct {
	K        float64
	IsBinary bool
	NumTrees int

	sigmaMu float64
	tau     float64
}

// NewMeanNormalPrior derives sigma_mu and tau per §4.3:
// sigma_mu = (isBinary ? 3.0 : 0.5) / (k * sqrt(numTrees)).
func NewMeanNormalPrior(k float64, isBinary bool, numTrees int) *MeanNormalPrior {
	base := 0.5
	if isBinary {
		base = 3.0
	}
	sigmaMu := base / (k * math.Sqrt(float64(numTrees)))
	return &MeanNormalPrior{
		K: k, IsBinary: isBinary, NumTrees: numTrees,
		sigmaMu: sigmaMu, tau: 1 / (sigmaMu * sigmaMu),
	}
}

func (p *MeanNormalPrior) Kind() rtree.EndNodeKind { return rtree.MeanNormal }

// PrepareForLikelihoodAndPosterior computes the leaf's weighted residual
// mean and effective observation count via internal/rng's parallel
// reduction, and the residual variance around that mean for the integrated
// likelihood formula of §4.3.
func (p *MeanNormalPrior) PrepareForLikelihoodAndPosterior(ctx *rtree.Context, node *rtree.Node, indices []int, residuals []float64, sigma float64) {
	mean, nEff := rng.ParallelMeanVariance(residuals, indices, ctx.Weights, ctx.NumThreads)
	node.Scratch.Mean.Mu = mean
	node.Scratch.Mean.NumEffectiveObs = nEff
	node.Scratch.Mean.VarY = numeric.WeightedVariance(residuals, indices, ctx.Weights, mean)
}

// LogIntegratedLikelihood implements §4.3's closed-form marginal likelihood.
func (p *MeanNormalPrior) LogIntegratedLikelihood(node *rtree.Node, sigma float64) float64 {
	nEff := node.Scratch.Mean.NumEffectiveObs
	if nEff <= 0 {
		return math.Inf(-1)
	}
	sigma2 := sigma * sigma
	precision := p.tau + nEff/sigma2
	ybar := node.Scratch.Mean.Mu
	varY := node.Scratch.Mean.VarY

	return 0.5*math.Log(p.tau/precision) -
		0.5*(nEff-1)*varY/sigma2 -
		0.5*(p.tau*nEff*ybar*ybar)/(sigma2*precision)
}

// DrawPosterior samples mu ~ Normal(m, s) per §4.3's posterior moments.
func (p *MeanNormalPrior) DrawPosterior(node *rtree.Node, sigma float64, src rng.Source) {
	nEff := node.Scratch.Mean.NumEffectiveObs
	sigma2 := sigma * sigma
	precisionPost := p.tau + nEff/sigma2
	m := (nEff / sigma2) * node.Scratch.Mean.Mu / precisionPost
	s := 1 / math.Sqrt(precisionPost)
	node.Scratch.Mean.Mu = m + s*src.Normal()
}

// Predict returns the leaf's drawn mean (constant across the leaf).
func (p *MeanNormalPrior) Predict(node *rtree.Node, xRow []float64) float64 {
	return node.Scratch.Mean.Mu
}

var _ rtree.EndNodePriorSource = (*MeanNormalPrior)(nil)
