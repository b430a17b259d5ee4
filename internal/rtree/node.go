package rtree

import "gonum.org/v1/gonum/mat"

// NodeID addresses a Node within a Tree's arena. NoNode (-1) marks an
// absent child/parent.
type NodeID int32

const NoNode NodeID = -1

// EndNodeKind tags which end-node model a Tree's leaves use.
type EndNodeKind int

const (
	MeanNormal EndNodeKind = iota
	LinRegNormal
)

// MeanScratch is the Mean-Normal end-node payload (§3): mu holds the
// weighted residual mean before a posterior draw and the drawn leaf mean
// after.
type MeanScratch struct {
	Mu              float64
	NumEffectiveObs float64
	VarY            float64
}

// LinRegScratch is the LinReg-Normal end-node payload (§3): R is the upper
// Cholesky factor of X^T X + diag(lambda)*sigma^2; Coefficients transitions
// from R^-T X^T y to the drawn beta after the posterior draw.
type LinRegScratch struct {
	XtLeaf       *mat.Dense // (p+1) x n_leaf, augmented with an intercept row
	YLeaf        []float64
	R            *mat.TriDense
	Coefficients []float64
}

// Scratch is the tagged end-node payload living inline in every leaf Node.
type Scratch struct {
	Kind   EndNodeKind
	Mean   MeanScratch
	LinReg LinRegScratch
}

// Node is an arena cell: either an internal node (IsLeaf==false, Rule valid,
// Left/Right set) or a leaf (IsLeaf==true, [Start,Start+Count) indexes the
// tree's shared observation-index buffer).
type Node struct {
	IsLeaf bool
	Depth  int
	Parent NodeID

	// internal
	Rule  Rule
	Left  NodeID
	Right NodeID

	// leaf
	Start            int
	Count            int
	EnumerationIndex int
	Scratch          Scratch
}
