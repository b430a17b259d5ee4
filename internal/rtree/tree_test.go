package rtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KARARIS/dbarts/internal/cutpoint"
)

func newTestContext() *Context {
	x0 := []float64{1, 2, 3, 4, 5, 6}
	return &Context{
		XColumns:      [][]float64{x0},
		VariableTypes: []cutpoint.VariableType{cutpoint.Ordinal},
		Columns:       []cutpoint.Column{{Type: cutpoint.Ordinal, Points: []float64{1.5, 2.5, 3.5, 4.5, 5.5}}},
		NumCategories: []int{0},
		Weights:       nil,
		NumThreads:    1,
	}
}

func TestNewTreeSingleLeaf(t *testing.T) {
	tree := NewTree(6, MeanNormal)
	require.Equal(t, 1, tree.NumLeaves())
	leaf := tree.Node(tree.Root)
	assert.True(t, leaf.IsLeaf)
	assert.Equal(t, 6, leaf.Count)
	assert.Equal(t, 0, leaf.Start)
}

func TestSplitAndCollapseRoundTrip(t *testing.T) {
	ctx := newTestContext()
	tree := NewTree(6, MeanNormal)

	rule := Rule{Kind: OrdinalRule, VariableIndex: 0, CutIndex: 2, CutValue: 3.5}
	left, right := tree.split(ctx, tree.Root, rule)

	assert.Equal(t, 2, tree.NumLeaves())
	assert.Equal(t, 3, tree.Node(left).Count)
	assert.Equal(t, 3, tree.Node(right).Count)
	for _, idx := range tree.Indices(left) {
		assert.LessOrEqual(t, ctx.XColumns[0][idx], 3.5)
	}
	for _, idx := range tree.Indices(right) {
		assert.Greater(t, ctx.XColumns[0][idx], 3.5)
	}

	tree.collapse(tree.Root)
	assert.Equal(t, 1, tree.NumLeaves())
	assert.Equal(t, 6, tree.Node(tree.Root).Count)
}

func TestFeasibleVarsRestrictsByAncestor(t *testing.T) {
	ctx := newTestContext()
	tree := NewTree(6, MeanNormal)

	rule := Rule{Kind: OrdinalRule, VariableIndex: 0, CutIndex: 2, CutValue: 3.5}
	left, _ := tree.split(ctx, tree.Root, rule)

	feasible := tree.FeasibleVars(ctx, left)
	require.Len(t, feasible, 1)
	assert.Equal(t, 2, feasible[0].CutHi)
	assert.Equal(t, 0, feasible[0].CutLo)
}

func TestEnumerateLeavesOrdersLeftToRight(t *testing.T) {
	ctx := newTestContext()
	tree := NewTree(6, MeanNormal)
	rule := Rule{Kind: OrdinalRule, VariableIndex: 0, CutIndex: 2, CutValue: 3.5}
	tree.split(ctx, tree.Root, rule)
	tree.EnumerateLeaves()

	leaves := tree.Leaves()
	for i, id := range leaves {
		assert.Equal(t, i, tree.Node(id).EnumerationIndex)
	}
}

func TestTreeStringRoundTripsThroughBuildFromString(t *testing.T) {
	ctx := newTestContext()
	tree := NewTree(6, MeanNormal)
	rule := Rule{Kind: OrdinalRule, VariableIndex: 0, CutIndex: 2, CutValue: 3.5}
	left, _ := tree.split(ctx, tree.Root, rule)
	tree.split(ctx, left, Rule{Kind: OrdinalRule, VariableIndex: 0, CutIndex: 0, CutValue: 1.5})

	s := tree.String()
	rebuilt, err := BuildFromString(ctx, 6, MeanNormal, s)
	require.NoError(t, err)
	assert.Equal(t, s, rebuilt.String())
	assert.Equal(t, tree.NumLeaves(), rebuilt.NumLeaves())
}
