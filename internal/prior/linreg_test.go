package prior

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"

	"github.com/KARARIS/dbarts/internal/rng"
	"github.com/KARARIS/dbarts/internal/rtree"
)

func buildTriDense(rows [][]float64) *mat.TriDense {
	n := len(rows)
	flat := make([]float64, 0, n*n)
	for _, row := range rows {
		flat = append(flat, row...)
	}
	return mat.NewTriDense(n, mat.Upper, flat)
}

func TestLinRegNormalPreparePosteriorAndPredict(t *testing.T) {
	p := &LinRegNormalPrior{Precisions: []float64{1, 1}}
	ctx := &rtree.Context{XColumns: [][]float64{{1, 2, 3, 4, 5}}}
	node := &rtree.Node{}
	residuals := []float64{2, 4, 6, 8, 10}
	indices := []int{0, 1, 2, 3, 4}

	p.PrepareForLikelihoodAndPosterior(ctx, node, indices, residuals, 1.0)
	assert.NotNil(t, node.Scratch.LinReg.R)
	assert.Len(t, node.Scratch.LinReg.Coefficients, 2)

	ll := p.LogIntegratedLikelihood(node, 1.0)
	assert.False(t, math.IsNaN(ll))

	src := rng.New(4)
	p.DrawPosterior(node, 1.0, src)
	assert.Len(t, node.Scratch.LinReg.Coefficients, 2)

	pred := p.Predict(node, []float64{3})
	assert.False(t, math.IsNaN(pred))
}

func TestForwardAndBackSolveInvert(t *testing.T) {
	// A 2x2 upper-triangular system: R = [[2,1],[0,3]], solve R^T z = rhs then R beta = z.
	rMat := buildTriDense([][]float64{{2, 1}, {0, 3}})
	rhs := []float64{4, 11}

	z := forwardSolveLowerFromUpperT(rMat, rhs)
	// R^T z = rhs means [[2,0],[1,3]] z = rhs.
	assert.InDelta(t, 2.0, z[0], 1e-9)
	assert.InDelta(t, 3.0, z[1], 1e-9)

	beta := backSolveUpper(rMat, z)
	// R beta = z means [[2,1],[0,3]] beta = z.
	reconstructed := []float64{2*beta[0] + 1*beta[1], 3 * beta[1]}
	assert.InDelta(t, z[0], reconstructed[0], 1e-9)
	assert.InDelta(t, z[1], reconstructed[1], 1e-9)
}
