package dbarts

import (
	"math"

	"github.com/KARARIS/dbarts/internal/rtree"
)

// TreePriorSpec holds the Chipman-George-McCulloch hyperparameters of §4.2.
type TreePriorSpec struct {
	Base  float64
	Power float64
}

// DefaultTreePriorSpec returns the (0.95, 2.0) default.
func DefaultTreePriorSpec() TreePriorSpec {
	return TreePriorSpec{Base: 0.95, Power: 2.0}
}

// EndNodePriorSpec is a tagged variant selecting the end-node model: either
// Mean-Normal (set K) or LinReg-Normal (set Precisions, length p+1), per §6.
type EndNodePriorSpec struct {
	Kind       rtree.EndNodeKind
	K          float64   // Mean-Normal
	Precisions []float64 // LinReg-Normal, length numVariables+1
}

// MeanNormalEndNodePrior builds a Mean-Normal EndNodePriorSpec.
func MeanNormalEndNodePrior(k float64) EndNodePriorSpec {
	return EndNodePriorSpec{Kind: rtree.MeanNormal, K: k}
}

// LinRegNormalEndNodePrior builds a LinReg-Normal EndNodePriorSpec.
func LinRegNormalEndNodePrior(precisions []float64) EndNodePriorSpec {
	return EndNodePriorSpec{Kind: rtree.LinRegNormal, Precisions: precisions}
}

// ResidualVariancePriorSpec holds the §4.4 calibration hyperparameters.
type ResidualVariancePriorSpec struct {
	Df       float64
	Quantile float64
}

// Model gathers the §6 model options: the three step probabilities and the
// three priors.
type Model struct {
	BirthOrDeathProbability float64
	SwapProbability         float64
	ChangeProbability       float64
	BirthProbability        float64

	TreePrior             TreePriorSpec
	EndNodePrior          EndNodePriorSpec
	ResidualVariancePrior ResidualVariancePriorSpec
}

// DefaultModel returns the §4.5 default step probabilities (0.5, 0.1, 0.4),
// birth probability 0.5, default tree prior, a Mean-Normal end-node prior
// with k=2, and a residual-variance prior targeting the 0.9 quantile.
func DefaultModel() Model {
	return Model{
		BirthOrDeathProbability: 0.5,
		SwapProbability:         0.1,
		ChangeProbability:       0.4,
		BirthProbability:        0.5,
		TreePrior:               DefaultTreePriorSpec(),
		EndNodePrior:            MeanNormalEndNodePrior(2.0),
		ResidualVariancePrior:   ResidualVariancePriorSpec{Df: 3, Quantile: 0.9},
	}
}

func (m Model) validate(numVariables int) error {
	sum := m.BirthOrDeathProbability + m.SwapProbability + m.ChangeProbability
	if math.Abs(sum-1) >= 1e-10 {
		return ErrProbabilitiesSumTo1
	}
	if m.BirthProbability < 0 || m.BirthProbability > 1 {
		return ErrInvalidBirthProbability
	}
	if m.TreePrior.Base <= 0 || m.TreePrior.Base >= 1 {
		return ErrInvalidTreePriorBase
	}
	if m.TreePrior.Power <= 0 {
		return ErrInvalidTreePriorPower
	}
	switch m.EndNodePrior.Kind {
	case rtree.MeanNormal:
		if m.EndNodePrior.K <= 0 {
			return ErrInvalidEndNodeK
		}
	case rtree.LinRegNormal:
		if len(m.EndNodePrior.Precisions) != numVariables+1 {
			return ErrInvalidLinRegPrecisions
		}
		for _, lambda := range m.EndNodePrior.Precisions {
			if lambda <= 0 {
				return ErrInvalidLinRegPrecisions
			}
		}
	}
	if m.ResidualVariancePrior.Df <= 0 {
		return ErrInvalidResidualPriorDf
	}
	if m.ResidualVariancePrior.Quantile <= 0 || m.ResidualVariancePrior.Quantile >= 1 {
		return ErrInvalidResidualQuantile
	}
	return nil
}
