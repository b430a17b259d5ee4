package prior

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/KARARIS/dbarts/internal/rng"
	"github.com/KARARIS/dbarts/internal/rtree"
)

// LinRegNormalPrior is the optional per-leaf linear-regression end-node
// prior of §4.3: beta ~ Normal(0, diag(1/precisions)).
type LinRegNormalPrior struct {
	// Precisions has length p+1: index 0 is the intercept's lambda, indices
	// 1..p are the per-predictor lambdas.
	Precisions []float64
}

func (p *LinRegNormalPrior) Kind() rtree.EndNodeKind { return rtree.LinRegNormal }

// PrepareForLikelihoodAndPosterior builds the augmented design matrix for
// the leaf, factors XtX + diag(lambda)*sigma^2 via its upper Cholesky
// factor R (gonum.org/v1/gonum/mat.Cholesky), and stores R^-T X^T y as the
// scratch's pre-draw coefficient vector, per §4.3.
func (p *LinRegNormalPrior) PrepareForLikelihoodAndPosterior(ctx *rtree.Context, node *rtree.Node, indices []int, residuals []float64, sigma float64) {
	dim := len(p.Precisions)
	nLeaf := len(indices)

	xt := mat.NewDense(dim, nLeaf, nil)
	y := make([]float64, nLeaf)
	for col, idx := range indices {
		xt.Set(0, col, 1)
		for row := 1; row < dim; row++ {
			xt.Set(row, col, ctx.XColumns[row-1][idx])
		}
		y[col] = residuals[idx]
	}

	var xtxOuter mat.Dense
	xtxOuter.Mul(xt, xt.T())

	sigma2 := sigma * sigma
	sym := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			v := xtxOuter.At(i, j)
			if i == j {
				v += p.Precisions[i] * sigma2
			}
			sym.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	chol.Factorize(sym)
	var r mat.TriDense
	chol.UTo(&r)

	xty := make([]float64, dim)
	for i := 0; i < dim; i++ {
		var s float64
		for col := 0; col < nLeaf; col++ {
			s += xt.At(i, col) * y[col]
		}
		xty[i] = s
	}

	z := forwardSolveLowerFromUpperT(&r, xty)

	node.Scratch.LinReg = rtree.LinRegScratch{
		XtLeaf:       xt,
		YLeaf:        y,
		R:            &r,
		Coefficients: z,
	}
}

// LogIntegratedLikelihood implements §4.3:
// -sum(log R_ii) - 0.5*y^T(y - X R^-1 R^-T X^T y)/sigma^2, using the
// pre-draw coefficient vector z = R^-T X^T y already in scratch so that
// X R^-1 R^-T X^T y collapses to z^T z.
func (p *LinRegNormalPrior) LogIntegratedLikelihood(node *rtree.Node, sigma float64) float64 {
	s := node.Scratch.LinReg
	dim := len(p.Precisions)
	var sumLogR float64
	for i := 0; i < dim; i++ {
		sumLogR += math.Log(s.R.At(i, i))
	}
	var yty, ztz float64
	for _, v := range s.YLeaf {
		yty += v * v
	}
	for _, v := range s.Coefficients {
		ztz += v * v
	}
	sigma2 := sigma * sigma
	return -sumLogR - 0.5*(yty-ztz)/sigma2
}

// DrawPosterior implements §4.3's posterior draw: w ~ N(0,I), rhs = z + w,
// solve R beta = rhs by back-substitution.
func (p *LinRegNormalPrior) DrawPosterior(node *rtree.Node, sigma float64, src rng.Source) {
	s := &node.Scratch.LinReg
	dim := len(p.Precisions)
	rhs := make([]float64, dim)
	for i := range rhs {
		rhs[i] = s.Coefficients[i] + src.Normal()
	}
	s.Coefficients = backSolveUpper(s.R, rhs)
}

// Predict evaluates the drawn coefficients against the augmented row
// [1, xRow...].
func (p *LinRegNormalPrior) Predict(node *rtree.Node, xRow []float64) float64 {
	beta := node.Scratch.LinReg.Coefficients
	result := beta[0]
	for i, v := range xRow {
		result += beta[i+1] * v
	}
	return result
}

// forwardSolveLowerFromUpperT solves R^T z = rhs where R is upper
// triangular (so R^T is lower triangular), by forward substitution.
func forwardSolveLowerFromUpperT(r *mat.TriDense, rhs []float64) []float64 {
	dim := len(rhs)
	z := make([]float64, dim)
	for i := 0; i < dim; i++ {
		sum := rhs[i]
		for k := 0; k < i; k++ {
			sum -= r.At(k, i) * z[k] // R^T(i,k) = R(k,i)
		}
		z[i] = sum / r.At(i, i)
	}
	return z
}

// backSolveUpper solves R beta = rhs where R is upper triangular, by back
// substitution.
func backSolveUpper(r *mat.TriDense, rhs []float64) []float64 {
	dim := len(rhs)
	beta := make([]float64, dim)
	for i := dim - 1; i >= 0; i-- {
		sum := rhs[i]
		for k := i + 1; k < dim; k++ {
			sum -= r.At(i, k) * beta[k]
		}
		beta[i] = sum / r.At(i, i)
	}
	return beta
}

var _ rtree.EndNodePriorSource = (*LinRegNormalPrior)(nil)
