// Package prior implements the three priors of §4.2-4.4: the
// Chipman-George-McCulloch tree-structure prior, the two end-node parameter
// priors (Mean-Normal, LinReg-Normal), and the scaled-inverse-chi-squared
// residual-variance prior. Each is looked up rarely (once per tree per
// iteration), so per the design notes they're modeled as small
// vtable-style types implementing internal/rtree's interfaces rather than
// as sum types.
package prior

import (
	"math"

	"github.com/KARARIS/dbarts/internal/rng"
	"github.com/KARARIS/dbarts/internal/rtree"
)

// TreePrior is the Chipman-George-McCulloch depth-decay prior (§4.2).
type TreePrior struct {
	Base  float64
	Power float64
}

// DefaultTreePrior returns the (base=0.95, power=2.0) default.
func DefaultTreePrior() TreePrior {
	return TreePrior{Base: 0.95, Power: 2.0}
}

func (p TreePrior) growProb(depth int) float64 {
	return p.Base / math.Pow(1+float64(depth), p.Power)
}

// GrowLogProb returns log P_grow(depth).
func (p TreePrior) GrowLogProb(depth int) float64 {
	return math.Log(p.growProb(depth))
}

// NotGrowLogProb returns log(1 - P_grow(depth)).
func (p TreePrior) NotGrowLogProb(depth int) float64 {
	return math.Log(1 - p.growProb(depth))
}

// DrawRule samples a variable uniformly among feasible vars, then a rule
// uniformly within that variable's feasible set (§4.2).
func (p TreePrior) DrawRule(src rng.Source, ctx *rtree.Context, feasible []rtree.FeasibleVar) (rtree.Rule, float64) {
	fv := feasible[uniformIndex(src, len(feasible))]

	var rule rtree.Rule
	if fv.Categorical {
		rule = rtree.Rule{
			Kind:          rtree.CategoricalRule,
			VariableIndex: fv.VariableIndex,
			Mask:          drawNonTrivialSubset(src, fv.CategoryMask),
		}
	} else {
		cutIdx := fv.CutLo + uniformIndex(src, fv.CutHi-fv.CutLo+1)
		rule = rtree.Rule{
			Kind:          rtree.OrdinalRule,
			VariableIndex: fv.VariableIndex,
			CutIndex:      cutIdx,
			CutValue:      ctx.Columns[fv.VariableIndex].Points[cutIdx],
		}
	}
	return rule, p.RuleLogProb(rule, feasible)
}

// RuleLogProb returns the log-probability DrawRule would have assigned to
// rule, given the same feasible set: uniform over variables, uniform over
// that variable's feasible cut values.
func (p TreePrior) RuleLogProb(rule rtree.Rule, feasible []rtree.FeasibleVar) float64 {
	for _, fv := range feasible {
		if fv.VariableIndex != rule.VariableIndex {
			continue
		}
		choices := fv.NumChoices()
		if choices <= 0 {
			continue
		}
		return -math.Log(float64(len(feasible))) - math.Log(float64(choices))
	}
	// rule's variable isn't in the feasible set (can happen when comparing
	// against a stale feasible set across a structural change); fall back
	// to a uniform-variable-only estimate so acceptance ratios stay finite.
	return -math.Log(float64(len(feasible)))
}

func uniformIndex(src rng.Source, n int) int {
	i := int(src.Uniform() * float64(n))
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// drawNonTrivialSubset draws a uniformly random non-empty, proper subset of
// full's set bits, by rejection sampling over random bitmasks.
func drawNonTrivialSubset(src rng.Source, full uint64) uint64 {
	codes := maskBits(full)
	if len(codes) < 2 {
		return full
	}
	for {
		var mask uint64
		for _, c := range codes {
			if src.Uniform() < 0.5 {
				mask |= 1 << uint(c)
			}
		}
		if mask != 0 && mask != full {
			return mask
		}
	}
}

func maskBits(m uint64) []int {
	var out []int
	for i := 0; i < 64; i++ {
		if m&(1<<uint(i)) != 0 {
			out = append(out, i)
		}
	}
	return out
}

var _ rtree.TreePriorSource = TreePrior{}
