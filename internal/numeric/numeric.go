// Package numeric provides small generic reduction helpers shared across the
// sampler's data-preparation and leaf-update code paths.
package numeric

import "golang.org/x/exp/constraints"

// Sum returns the sum of data.
func Sum[T constraints.Float | constraints.Integer](data []T) T {
	var s T
	for _, d := range data {
		s += d
	}
	return s
}

// Mean returns the arithmetic mean of data, or 0 for an empty slice.
func Mean[T constraints.Float | constraints.Integer](data []T) float64 {
	if len(data) == 0 {
		return 0
	}
	return float64(Sum(data)) / float64(len(data))
}

// WeightedMean returns the weighted mean of values over the given indices,
// using weights[idx] when weights is non-nil, or a plain mean otherwise. It
// also returns the effective observation count (sum of weights, or the
// element count when unweighted).
func WeightedMean(values []float64, indices []int, weights []float64) (mean, numEffectiveObs float64) {
	if len(indices) == 0 {
		return 0, 0
	}
	if weights == nil {
		var s float64
		for _, idx := range indices {
			s += values[idx]
		}
		n := float64(len(indices))
		return s / n, n
	}
	var sw, swv float64
	for _, idx := range indices {
		w := weights[idx]
		sw += w
		swv += w * values[idx]
	}
	if sw == 0 {
		return 0, 0
	}
	return swv / sw, sw
}

// WeightedVariance returns the (sample) weighted variance of values around
// mean, over the given indices: the (weighted) sum of squares divided by the
// element count minus one, or by the sum of weights minus one.
func WeightedVariance(values []float64, indices []int, weights []float64, mean float64) float64 {
	if len(indices) <= 1 {
		return 0
	}
	if weights == nil {
		var ss float64
		for _, idx := range indices {
			d := values[idx] - mean
			ss += d * d
		}
		return ss / float64(len(indices)-1)
	}
	var sw, ss float64
	for _, idx := range indices {
		w := weights[idx]
		d := values[idx] - mean
		sw += w
		ss += w * d * d
	}
	if sw <= 1 {
		return 0
	}
	return ss / (sw - 1)
}

// VSub returns a - b element-wise.
func VSub[T constraints.Float | constraints.Integer](a, b []T) []T {
	if len(a) != len(b) {
		panic("numeric: VSub mismatched slice lengths")
	}
	result := make([]T, len(a))
	for i := range a {
		result[i] = a[i] - b[i]
	}
	return result
}
