// Package cutpoint implements predictor preparation (§4.1 of the sampler
// design): cut-point generation per column and response rescaling to
// [-0.5, 0.5].
package cutpoint

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// VariableType tags a predictor column as continuous or categorical.
type VariableType int

const (
	Ordinal VariableType = iota
	Categorical
)

// ErrFewerCuts is returned when a replacement column would yield fewer cut
// points than an existing tree split requires.
var ErrFewerCuts = errors.New("cutpoint: replacement column has fewer cut points than existing splits require")

// Column holds the prepared cut points for one predictor.
type Column struct {
	Type       VariableType
	MaxNumCuts int
	Points     []float64 // sorted, ascending
}

// Compute derives the cut points for a column of raw values under either
// quantile or uniform mode, per spec §4.1.
func Compute(x []float64, varType VariableType, maxNumCuts int, useQuantiles bool) Column {
	if varType == Categorical {
		return Column{Type: varType, MaxNumCuts: maxNumCuts, Points: distinctSorted(x)}
	}

	if useQuantiles {
		return Column{Type: varType, MaxNumCuts: maxNumCuts, Points: quantileCuts(x, maxNumCuts)}
	}
	return Column{Type: varType, MaxNumCuts: maxNumCuts, Points: uniformCuts(x, maxNumCuts)}
}

func distinctSorted(x []float64) []float64 {
	vals := append([]float64(nil), x...)
	sort.Float64s(vals)
	return uniq(vals)
}

func uniq(sorted []float64) []float64 {
	if len(sorted) == 0 {
		return sorted
	}
	out := sorted[:1]
	for _, v := range sorted[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// quantileCuts implements the quantile-mode cut-point rule of §4.1: if the
// number of distinct values fits within maxNumCuts+1, every gap midpoint is
// used; otherwise numCuts evenly spaced indices into the distinct value array
// are picked (step numUnique/numCuts, centred in each step), and duplicate
// midpoints are dropped.
func quantileCuts(x []float64, maxNumCuts int) []float64 {
	distinct := distinctSorted(x)
	numUnique := len(distinct)
	if numUnique <= 1 {
		return nil
	}
	if numUnique-1 <= maxNumCuts {
		cuts := make([]float64, 0, numUnique-1)
		for i := 0; i+1 < numUnique; i++ {
			cuts = append(cuts, (distinct[i]+distinct[i+1])/2)
		}
		return cuts
	}

	numCuts := maxNumCuts
	cuts := make([]float64, 0, numCuts)
	step := float64(numUnique) / float64(numCuts)
	for i := 0; i < numCuts; i++ {
		idx := int(float64(i)*step + step/2)
		if idx > numUnique-2 {
			idx = numUnique - 2
		}
		cuts = append(cuts, (distinct[idx]+distinct[idx+1])/2)
	}
	return uniq(cuts)
}

// uniformCuts implements the uniform-mode rule of §4.1.
func uniformCuts(x []float64, maxNumCuts int) []float64 {
	if len(x) == 0 || maxNumCuts <= 0 {
		return nil
	}
	xMin, xMax := floats.Min(x), floats.Max(x)
	if xMax <= xMin {
		return nil
	}
	numCuts := maxNumCuts
	cuts := make([]float64, numCuts)
	width := (xMax - xMin) / float64(numCuts+1)
	for i := 0; i < numCuts; i++ {
		cuts[i] = xMin + float64(i+1)*width
	}
	return cuts
}

// CheckReplacement validates §4.1's "replacement must not shrink the cut
// set" rule: replacing a column must yield numCuts[j] >= the previous value.
func CheckReplacement(oldNumCuts, newNumCuts int) error {
	if newNumCuts < oldNumCuts {
		return errors.Wrapf(ErrFewerCuts, "had %d cut points, replacement has %d", oldNumCuts, newNumCuts)
	}
	return nil
}

// ScaleResponse rescales y-offset into [-0.5, 0.5], returning the scaled
// values along with (yMin, yMax, yRange) computed from y-offset, per §3.
func ScaleResponse(y, offset []float64) (yScaled []float64, yMin, yMax, yRange float64) {
	n := len(y)
	shifted := make([]float64, n)
	for i := range y {
		o := 0.0
		if offset != nil {
			o = offset[i]
		}
		shifted[i] = y[i] - o
	}
	yMin, yMax = floats.Min(shifted), floats.Max(shifted)
	yRange = yMax - yMin
	if yRange == 0 {
		yRange = 1
	}
	yScaled = make([]float64, n)
	for i, v := range shifted {
		yScaled[i] = (v-yMin)/yRange - 0.5
	}
	return yScaled, yMin, yMax, yRange
}

// DescaleValue maps a value in scaled [-0.5, 0.5] space back to the original
// response units.
func DescaleValue(scaled, yMin, yRange float64) float64 {
	return (scaled+0.5)*yRange + yMin
}

// RescaleSigma maps a sigma magnitude expressed in scaled units back to
// original units (|c| scaling from a multiplicative response rescale).
func RescaleSigma(sigmaScaled, yRange float64) float64 {
	return sigmaScaled * yRange
}

// RescalePriorScale recomputes a residual-variance prior's scale hyperparameter
// after y or offset is replaced, preserving the *unscaled* prior quantile, per
// §4.4: scale_new = scale_old * (oldRange/newRange)^2.
func RescalePriorScale(oldScale, oldRange, newRange float64) float64 {
	ratio := oldRange / newRange
	return oldScale * ratio * ratio
}
