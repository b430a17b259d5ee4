package rtree

import "github.com/KARARIS/dbarts/internal/cutpoint"

// Context bundles the read-only, per-fit inputs that Tree operations need:
// the transposed predictor matrix (one slice per column, for fast per-
// variable scans during partitioning) and the prepared cut points.
type Context struct {
	XColumns      [][]float64 // XColumns[j][i] = X[i][j]
	VariableTypes []cutpoint.VariableType
	Columns       []cutpoint.Column
	NumCategories []int // only meaningful where VariableTypes[j] == Categorical
	Weights       []float64
	NumThreads    int
}

// NumVariables returns the number of predictor columns.
func (c *Context) NumVariables() int { return len(c.XColumns) }

// FeasibleVar describes, for one variable at one node, the sub-range of cut
// points (ordinal) or category codes (categorical) still available given
// ancestor splits, per §4.2.
type FeasibleVar struct {
	VariableIndex int
	Categorical   bool
	CutLo, CutHi  int    // inclusive range into Columns[VariableIndex].Points
	CategoryMask  uint64 // categorical: remaining candidate codes
}

// NumChoices returns how many distinct rules this feasible variable offers.
// For a categorical variable, DrawRule samples uniformly over every
// non-empty, proper subset of the feasible category codes, so the count is
// 2^k-2 (k = number of feasible codes), not k itself.
func (f FeasibleVar) NumChoices() int {
	if f.Categorical {
		k := popcount(f.CategoryMask)
		if k < 2 {
			return 0
		}
		return (1 << uint(k)) - 2
	}
	if f.CutHi < f.CutLo {
		return 0
	}
	return f.CutHi - f.CutLo + 1
}

func popcount(m uint64) int {
	n := 0
	for m != 0 {
		m &= m - 1
		n++
	}
	return n
}
