package rtree

import (
	"math"

	"github.com/KARARIS/dbarts/internal/rng"
)

// MoveKind identifies which structural proposal (or none) a tree's turn
// resolved to.
type MoveKind int

const (
	MoveNone MoveKind = iota
	MoveBirth
	MoveDeath
	MoveSwap
	MoveChange
)

// MoveProbs holds the per-iteration step probabilities of §4.5. The three
// family probabilities must sum to 1 within 1e-10 (validated by the caller,
// not here: a rejected-by-construction move is never an error per §7).
type MoveProbs struct {
	PBirthOrDeath float64
	PSwap         float64
	PChange       float64
	PBirth        float64
}

// Propose draws and attempts one structural move against tree, mutating it
// in place on acceptance and restoring it byte-identically on rejection. It
// returns which move family was attempted (MoveNone if neither birth nor
// death was available).
func Propose(ctx *Context, tree *Tree, treePrior TreePriorSource, endPrior EndNodePriorSource, src rng.Source, residuals []float64, sigma float64, probs MoveProbs) MoveKind {
	u := src.Uniform()
	switch {
	case u < probs.PBirthOrDeath:
		return proposeBirthOrDeath(ctx, tree, treePrior, endPrior, src, residuals, sigma, probs)
	case u < probs.PBirthOrDeath+probs.PSwap:
		proposeSwap(ctx, tree, treePrior, endPrior, src, residuals, sigma)
		return MoveSwap
	default:
		proposeChange(ctx, tree, treePrior, endPrior, src, residuals, sigma)
		return MoveChange
	}
}

func leafLogLikelihood(ctx *Context, endPrior EndNodePriorSource, tree *Tree, residuals []float64, sigma float64, id NodeID) float64 {
	n := tree.Node(id)
	endPrior.PrepareForLikelihoodAndPosterior(ctx, n, tree.Indices(id), residuals, sigma)
	return endPrior.LogIntegratedLikelihood(n, sigma)
}

func eligibleBirthLeaves(ctx *Context, tree *Tree) []NodeID {
	var out []NodeID
	for _, id := range tree.Leaves() {
		if len(tree.FeasibleVars(ctx, id)) > 0 {
			out = append(out, id)
		}
	}
	return out
}

func eligibleDeathParents(tree *Tree) []NodeID {
	var out []NodeID
	for _, id := range tree.Internals() {
		n := tree.Node(id)
		if tree.Node(n.Left).IsLeaf && tree.Node(n.Right).IsLeaf {
			out = append(out, id)
		}
	}
	return out
}

func pickUniform(src rng.Source, n int) int {
	i := int(src.Uniform() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

func proposeBirthOrDeath(ctx *Context, tree *Tree, treePrior TreePriorSource, endPrior EndNodePriorSource, src rng.Source, residuals []float64, sigma float64, probs MoveProbs) MoveKind {
	birthEligible := eligibleBirthLeaves(ctx, tree)
	deathEligible := eligibleDeathParents(tree)

	doBirth := false
	switch {
	case len(birthEligible) == 0 && len(deathEligible) == 0:
		return MoveNone
	case len(birthEligible) == 0:
		doBirth = false
	case len(deathEligible) == 0:
		doBirth = true
	default:
		doBirth = src.Uniform() < probs.PBirth
	}

	if doBirth {
		proposeBirth(ctx, tree, treePrior, endPrior, src, residuals, sigma, birthEligible, len(deathEligible), probs.PBirth)
		return MoveBirth
	}
	proposeDeath(ctx, tree, treePrior, endPrior, src, residuals, sigma, deathEligible, len(birthEligible), probs.PBirth)
	return MoveDeath
}

// proposeBirth implements §4.5 BIRTH.
func proposeBirth(ctx *Context, tree *Tree, treePrior TreePriorSource, endPrior EndNodePriorSource, src rng.Source, residuals []float64, sigma float64, eligible []NodeID, numDeathBefore int, pBirth float64) {
	leafID := eligible[pickUniform(src, len(eligible))]
	feasible := tree.FeasibleVars(ctx, leafID)
	rule, logRuleProb := treePrior.DrawRule(src, ctx, feasible)

	leafDepth := tree.Node(leafID).Depth
	span := tree.Indices(leafID)
	origSpan := append([]int(nil), span...)

	logOld := leafLogLikelihood(ctx, endPrior, tree, residuals, sigma, leafID)

	left, right := tree.split(ctx, leafID, rule)
	if tree.Node(left).Count == 0 || tree.Node(right).Count == 0 {
		// BIRTH proposals that would leave an empty child are rejected
		// before ever computing an acceptance ratio (§8: numEffectiveObs>0).
		tree.collapse(leafID)
		copy(tree.Indices(leafID), origSpan)
		return
	}

	logNew := leafLogLikelihood(ctx, endPrior, tree, residuals, sigma, left) +
		leafLogLikelihood(ctx, endPrior, tree, residuals, sigma, right)

	numBirthEligible := len(eligible)
	numDeathAfter := numDeathBefore + 1

	forwardP, reverseP := pBirth, 1-pBirth
	if numDeathBefore == 0 {
		forwardP = 1 // birth was forced
	}
	if numBirthEligible == 0 {
		reverseP = 1
	}

	logTransition := math.Log(reverseP) - math.Log(forwardP) +
		math.Log(float64(numBirthEligible)) - math.Log(float64(numDeathAfter))

	logAlpha := treePrior.GrowLogProb(leafDepth) +
		2*treePrior.NotGrowLogProb(leafDepth+1) -
		treePrior.NotGrowLogProb(leafDepth) +
		logRuleProb + logTransition + (logNew - logOld)

	if math.Log(src.Uniform()) >= logAlpha {
		tree.collapse(leafID)
		copy(tree.Indices(leafID), origSpan)
	}
}

// proposeDeath implements §4.5 DEATH, the exact reverse of BIRTH.
func proposeDeath(ctx *Context, tree *Tree, treePrior TreePriorSource, endPrior EndNodePriorSource, src rng.Source, residuals []float64, sigma float64, eligible []NodeID, numBirthBefore int, pBirth float64) {
	parentID := eligible[pickUniform(src, len(eligible))]
	parent := tree.Node(parentID)
	left, right := parent.Left, parent.Right
	rule := parent.Rule
	parentDepth := parent.Depth

	logOld := leafLogLikelihood(ctx, endPrior, tree, residuals, sigma, left) +
		leafLogLikelihood(ctx, endPrior, tree, residuals, sigma, right)

	leftSnapshot := append([]int(nil), tree.Indices(left)...)
	rightSnapshot := append([]int(nil), tree.Indices(right)...)

	tree.collapse(parentID)
	logNew := leafLogLikelihood(ctx, endPrior, tree, residuals, sigma, parentID)

	birthEligibleAfter := len(eligibleBirthLeaves(ctx, tree))
	deathEligibleBefore := len(eligible)

	forwardP, reverseP := 1-pBirth, pBirth
	if deathEligibleBefore == 0 {
		forwardP = 1
	}
	if numBirthBefore == 0 {
		reverseP = 1
	}

	logTransition := math.Log(reverseP) - math.Log(forwardP) +
		math.Log(float64(deathEligibleBefore)) - math.Log(float64(birthEligibleAfter))

	feasible := tree.FeasibleVars(ctx, parentID)
	logRuleProb := treePrior.RuleLogProb(rule, feasible)

	logAlpha := treePrior.NotGrowLogProb(parentDepth) -
		(treePrior.GrowLogProb(parentDepth) + 2*treePrior.NotGrowLogProb(parentDepth+1)) -
		logRuleProb - logTransition + (logNew - logOld)

	if math.Log(src.Uniform()) >= logAlpha {
		// restore the split: recreate left/right exactly as they were.
		left2, right2 := tree.split(ctx, parentID, rule)
		copy(tree.Indices(left2), leftSnapshot)
		copy(tree.Indices(right2), rightSnapshot)
	}
}

// span returns the contiguous [start, start+count) range of ObsIndex
// occupied by id's whole subtree.
func (t *Tree) span(id NodeID) (start, count int) {
	n := t.at(id)
	if n.IsLeaf {
		return n.Start, n.Count
	}
	ls, lc := t.span(n.Left)
	_, rc := t.span(n.Right)
	return ls, lc + rc
}

func (t *Tree) gatherSubtree(id NodeID) []int {
	start, count := t.span(id)
	out := make([]int, count)
	copy(out, t.ObsIndex[start:start+count])
	return out
}

// rebuildPartition re-derives each leaf's [Start,Count) under id from
// scratch, routing indices through the (possibly just-changed) rules. A
// categorical node's missing-value routing is recomputed here too, exactly
// as in split, since SWAP/CHANGE reassign n.Rule directly rather than going
// through split.
func (t *Tree) rebuildPartition(ctx *Context, id NodeID, indices []int, offset int) {
	n := t.at(id)
	if n.IsLeaf {
		copy(t.ObsIndex[offset:offset+len(indices)], indices)
		n.Start = offset
		n.Count = len(indices)
		return
	}
	if n.Rule.Kind == CategoricalRule {
		n.Rule.MissingGoesRight = categoricalMajorityIsRight(ctx.XColumns[n.Rule.VariableIndex], indices, n.Rule.Mask)
	}
	col := ctx.XColumns[n.Rule.VariableIndex]
	var left, right []int
	for _, idx := range indices {
		if n.Rule.GoesLeft(col[idx]) {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	t.rebuildPartition(ctx, n.Left, left, offset)
	t.rebuildPartition(ctx, n.Right, right, offset+len(left))
}

func subtreeLeaves(tree *Tree, id NodeID) []NodeID {
	n := tree.Node(id)
	if n.IsLeaf {
		return []NodeID{id}
	}
	return append(subtreeLeaves(tree, n.Left), subtreeLeaves(tree, n.Right)...)
}

func anyEmptyLeaf(tree *Tree, ids []NodeID) bool {
	for _, id := range ids {
		if tree.Node(id).Count == 0 {
			return true
		}
	}
	return false
}

// proposeSwap implements §4.5 SWAP, including the double-swap variant: when
// the chosen node's two children are both internal and share an identical
// rule, that shared rule and the node's own rule are exchanged (both
// children take the node's rule, the node takes theirs), chosen with
// probability 0.5 over the single swap, per SPEC_FULL.md's open-question
// decision.
func proposeSwap(ctx *Context, tree *Tree, treePrior TreePriorSource, endPrior EndNodePriorSource, src rng.Source, residuals []float64, sigma float64) {
	var candidates []NodeID
	for _, id := range tree.Internals() {
		n := tree.Node(id)
		if !tree.Node(n.Left).IsLeaf || !tree.Node(n.Right).IsLeaf {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return
	}
	nodeID := candidates[pickUniform(src, len(candidates))]
	n := tree.Node(nodeID)
	leftInternal := !tree.Node(n.Left).IsLeaf
	rightInternal := !tree.Node(n.Right).IsLeaf

	doubleEligible := leftInternal && rightInternal &&
		tree.Node(n.Left).Rule == tree.Node(n.Right).Rule

	leaves := subtreeLeaves(tree, nodeID)
	origIndices := tree.gatherSubtree(nodeID)
	logOld := 0.0
	for _, id := range leaves {
		logOld += leafLogLikelihood(ctx, endPrior, tree, residuals, sigma, id)
	}

	oldParentRule := n.Rule
	oldLeftRule := tree.Node(n.Left).Rule
	oldRightRule := tree.Node(n.Right).Rule

	useDouble := doubleEligible && src.Uniform() < 0.5

	// The feasible set at a node depends on its ancestors' rules, so the
	// parent's own feasible set is unaffected by a swap (its ancestors
	// don't change) but an internal child's feasible set changes whenever
	// the parent's rule moves to a different variable or cut range: the
	// child's rule-draw probability must be re-evaluated before/after for
	// every position whose rule actually moves (§4.5: "at the swapped
	// nodes", plural).
	leftChanged := useDouble || leftInternal
	rightChanged := useDouble || (!leftInternal && rightInternal)

	var feasBeforeLeft, feasBeforeRight []FeasibleVar
	if leftChanged {
		feasBeforeLeft = tree.FeasibleVars(ctx, n.Left)
	}
	if rightChanged {
		feasBeforeRight = tree.FeasibleVars(ctx, n.Right)
	}

	if useDouble {
		tree.Node(n.Left).Rule = oldParentRule
		tree.Node(n.Right).Rule = oldParentRule
		tree.Node(nodeID).Rule = oldLeftRule
	} else if leftInternal {
		tree.Node(nodeID).Rule = oldLeftRule
		tree.Node(n.Left).Rule = oldParentRule
	} else {
		tree.Node(nodeID).Rule = oldRightRule
		tree.Node(n.Right).Rule = oldParentRule
	}

	start, _ := tree.span(nodeID)
	tree.rebuildPartition(ctx, nodeID, origIndices, start)

	if anyEmptyLeaf(tree, leaves) {
		// rejected by construction: restore rules and partition.
		tree.Node(nodeID).Rule = oldParentRule
		tree.Node(n.Left).Rule = oldLeftRule
		tree.Node(n.Right).Rule = oldRightRule
		tree.rebuildPartition(ctx, nodeID, origIndices, start)
		return
	}

	logNew := 0.0
	for _, id := range leaves {
		logNew += leafLogLikelihood(ctx, endPrior, tree, residuals, sigma, id)
	}

	// Tree-prior log-ratio: feasible-cut sets at the swapped nodes change
	// because feasibility depends on ancestor splits.
	feasAfterParent := tree.FeasibleVars(ctx, nodeID)
	logPriorNew := treePrior.RuleLogProb(tree.Node(nodeID).Rule, feasAfterParent)
	logPriorOld := treePrior.RuleLogProb(oldParentRule, feasAfterParent)

	if leftChanged {
		feasAfterLeft := tree.FeasibleVars(ctx, n.Left)
		logPriorOld += treePrior.RuleLogProb(oldLeftRule, feasBeforeLeft)
		logPriorNew += treePrior.RuleLogProb(tree.Node(n.Left).Rule, feasAfterLeft)
	}
	if rightChanged {
		feasAfterRight := tree.FeasibleVars(ctx, n.Right)
		logPriorOld += treePrior.RuleLogProb(oldRightRule, feasBeforeRight)
		logPriorNew += treePrior.RuleLogProb(tree.Node(n.Right).Rule, feasAfterRight)
	}

	logAlpha := (logNew - logOld) + (logPriorNew - logPriorOld)
	if math.Log(src.Uniform()) >= logAlpha {
		tree.Node(nodeID).Rule = oldParentRule
		tree.Node(n.Left).Rule = oldLeftRule
		tree.Node(n.Right).Rule = oldRightRule
		tree.rebuildPartition(ctx, nodeID, origIndices, start)
	}
}

// proposeChange implements §4.5 CHANGE.
func proposeChange(ctx *Context, tree *Tree, treePrior TreePriorSource, endPrior EndNodePriorSource, src rng.Source, residuals []float64, sigma float64) {
	candidates := tree.Internals()
	if len(candidates) == 0 {
		return
	}
	nodeID := candidates[pickUniform(src, len(candidates))]
	n := tree.Node(nodeID)

	feasible := tree.FeasibleVars(ctx, nodeID)
	if len(feasible) == 0 {
		return
	}
	newRule, logProbNew := treePrior.DrawRule(src, ctx, feasible)
	oldRule := n.Rule

	leaves := subtreeLeaves(tree, nodeID)
	origIndices := tree.gatherSubtree(nodeID)
	logOld := 0.0
	for _, id := range leaves {
		logOld += leafLogLikelihood(ctx, endPrior, tree, residuals, sigma, id)
	}

	start, _ := tree.span(nodeID)
	n.Rule = newRule
	tree.rebuildPartition(ctx, nodeID, origIndices, start)

	if anyEmptyLeaf(tree, leaves) {
		n.Rule = oldRule
		tree.rebuildPartition(ctx, nodeID, origIndices, start)
		return
	}

	logNew := 0.0
	for _, id := range leaves {
		logNew += leafLogLikelihood(ctx, endPrior, tree, residuals, sigma, id)
	}

	logProbOld := treePrior.RuleLogProb(oldRule, feasible)
	logAlpha := (logNew - logOld) + (logProbOld - logProbNew)

	if math.Log(src.Uniform()) >= logAlpha {
		n.Rule = oldRule
		tree.rebuildPartition(ctx, nodeID, origIndices, start)
	}
}
