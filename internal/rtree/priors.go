package rtree

import "github.com/KARARIS/dbarts/internal/rng"

// TreePriorSource is the vtable-style capability a Tree needs from the
// Chipman-George-McCulloch tree prior (§4.2, §9 design note: "vtable-style
// interface abstraction for the three priors, which are looked up rarely").
// internal/prior.TreePrior implements this.
type TreePriorSource interface {
	GrowLogProb(depth int) float64
	NotGrowLogProb(depth int) float64

	// DrawRule samples a variable uniformly among feasible vars and a rule
	// uniformly within that variable's feasible set, returning the rule and
	// its forward log-probability (§4.2).
	DrawRule(src rng.Source, ctx *Context, feasible []FeasibleVar) (rule Rule, logProb float64)

	// RuleLogProb returns the log-probability DrawRule would have assigned
	// to rule, given the same feasible set (used for the reverse-move ratio
	// and for CHANGE/SWAP rule-probability deltas).
	RuleLogProb(rule Rule, feasible []FeasibleVar) float64
}

// EndNodePriorSource is the vtable-style capability a Tree needs from an
// end-node prior (Mean-Normal or LinReg-Normal, §4.3). Both
// internal/prior.MeanNormalPrior and internal/prior.LinRegNormalPrior
// implement this.
type EndNodePriorSource interface {
	Kind() EndNodeKind

	// PrepareForLikelihoodAndPosterior recomputes the leaf's scratch (mu and
	// n_eff for Mean-Normal; XtLeaf/YLeaf/R for LinReg-Normal) from its
	// current observation indices and the current residuals.
	PrepareForLikelihoodAndPosterior(ctx *Context, node *Node, indices []int, residuals []float64, sigma float64)

	// LogIntegratedLikelihood returns the leaf's marginal log-likelihood
	// with the leaf parameter integrated out, given the scratch state left
	// by the most recent PrepareForLikelihoodAndPosterior call.
	LogIntegratedLikelihood(node *Node, sigma float64) float64

	// DrawPosterior samples the leaf parameter from its posterior and
	// stores it back into the node's scratch.
	DrawPosterior(node *Node, sigma float64, src rng.Source)

	// Predict evaluates the drawn leaf parameter against a test row's
	// variable values (for LinReg-Normal, the augmented [1, x...] dot
	// product; for Mean-Normal, just the stored mean).
	Predict(node *Node, xRow []float64) float64
}
