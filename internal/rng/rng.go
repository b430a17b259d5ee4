// Package rng supplies the sampler's default random-number source and its
// data-parallel reduction helper. Both are external collaborators per the
// design (§2, §5): the MCMC core only ever calls through the Source
// interface and ParallelMeanVariance, never touching math/rand or a thread
// pool directly, so a caller can swap in a reproducible or GPU-backed
// implementation without touching the core.
package rng

import (
	"encoding/binary"
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Source is the Rng collaborator: uniform, standard-normal, truncated-normal,
// and chi-squared draws, sequenced by the caller (§5: "draws are sequenced
// in the order described in §4").
type Source interface {
	Uniform() float64
	Normal() float64
	// TruncatedNormal draws from Normal(mean, sd) truncated to [-inf, 0] when
	// upper is true, or [0, +inf] when upper is false.
	TruncatedNormal(mean, sd float64, upper bool) float64
	ChiSquared(df float64) float64
}

// Default is the package's concrete Source, built on math/rand for the
// uniform/normal primitives (as the teacher's gboost does for subsampling)
// and gonum.org/v1/gonum/stat/distuv for chi-squared draws. It sits on a
// splitMix64 generator rather than math/rand's own default source because
// the latter's internal state isn't exported: a persisted fit (§6, §8) needs
// to resume the exact same draw sequence after SaveToFile/LoadFromFile, and
// that requires a source whose entire state is capturable.
type Default struct {
	r   *rand.Rand
	src *splitMix64
}

// New returns a Default seeded deterministically from seed.
func New(seed int64) *Default {
	src := newSplitMix64(seed)
	return &Default{r: rand.New(src), src: src}
}

// StateBytes returns the generator's full internal state. Round-tripping it
// through SetStateBytes on a freshly seeded Default continues the exact same
// draw sequence, which is what the persisted-state round-trip law requires.
func (d *Default) StateBytes() []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, d.src.state)
	return b
}

// SetStateBytes restores a state previously captured by StateBytes.
func (d *Default) SetStateBytes(b []byte) error {
	if len(b) != 8 {
		return errors.New("rng: invalid state length")
	}
	d.src.state = binary.BigEndian.Uint64(b)
	return nil
}

// splitMix64 is a minimal math/rand.Source with a single uint64 of state,
// unlike the stdlib's default generator whose internal array isn't exposed
// for serialization.
type splitMix64 struct {
	state uint64
}

func newSplitMix64(seed int64) *splitMix64 {
	s := &splitMix64{}
	s.Seed(seed)
	return s
}

func (s *splitMix64) Seed(seed int64) { s.state = uint64(seed) }

func (s *splitMix64) Int63() int64 { return int64(s.next() >> 1) }

func (s *splitMix64) next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func (d *Default) Uniform() float64 { return d.r.Float64() }
func (d *Default) Normal() float64  { return d.r.NormFloat64() }

// ChiSquared draws a single value from a chi-squared distribution with df
// degrees of freedom via gonum.org/v1/gonum/stat/distuv.
func (d *Default) ChiSquared(df float64) float64 {
	dist := distuv.ChiSquared{K: df, Src: d.r}
	return dist.Rand()
}

// TruncatedNormal implements the non-MATCH_BAYES_TREE path (§9 open question
// 3, default): inverse-CDF sampling via distuv.Normal.Quantile, which is
// numerically stable across the full truncation range without rejection
// sampling.
func (d *Default) TruncatedNormal(mean, sd float64, upper bool) float64 {
	dist := distuv.Normal{Mu: mean, Sigma: sd, Src: d.r}
	cdf0 := dist.CDF(0)
	u := d.r.Float64()
	var p float64
	if upper {
		// truncate to (-inf, 0]: draw uniformly within [0, CDF(0)]
		p = u * cdf0
	} else {
		// truncate to [0, +inf): draw uniformly within [CDF(0), 1]
		p = cdf0 + u*(1-cdf0)
	}
	p = math.Min(math.Max(p, 1e-12), 1-1e-12)
	return dist.Quantile(p)
}

// TruncatedNormalLegacy implements the MATCH_BAYES_TREE path: rejection
// sampling against the standard normal, matching the original source's
// simpler (and slower) scheme bit-for-bit in spirit if not in draw sequence.
func (d *Default) TruncatedNormalLegacy(mean, sd float64, upper bool) float64 {
	for {
		z := mean + sd*d.r.NormFloat64()
		if upper && z <= 0 {
			return z
		}
		if !upper && z >= 0 {
			return z
		}
	}
}

// ParallelMeanVariance computes the weighted mean of values over indices and
// the effective observation count (sum of weights, or the index count when
// weights is nil), dispatching across numThreads goroutines when numThreads>1.
// It stands in for the external thread pool named in §5: no leaf update
// mutates shared state, each worker writes only to its own partial-sum
// slice, and the final reduction happens on the calling goroutine.
func ParallelMeanVariance(values []float64, indices []int, weights []float64, numThreads int) (mean, numEffectiveObs float64) {
	if len(indices) == 0 {
		return 0, 0
	}
	if numThreads < 1 {
		numThreads = 1
	}
	if numThreads == 1 || len(indices) < 2*numThreads {
		return chunkMean(values, indices, weights)
	}

	chunks := splitIndices(indices, numThreads)
	type partial struct {
		sum, weight float64
	}
	results := make([]partial, len(chunks))
	done := make(chan int, len(chunks))
	for ci, chunk := range chunks {
		go func(ci int, chunk []int) {
			m, w := chunkMean(values, chunk, weights)
			results[ci] = partial{sum: m * w, weight: w}
			done <- ci
		}(ci, chunk)
	}
	for range chunks {
		<-done
	}

	var totalSum, totalWeight float64
	for _, p := range results {
		totalSum += p.sum
		totalWeight += p.weight
	}
	if totalWeight == 0 {
		return 0, 0
	}
	return totalSum / totalWeight, totalWeight
}

func chunkMean(values []float64, indices []int, weights []float64) (mean, numEffectiveObs float64) {
	gathered := make([]float64, len(indices))
	var gatheredWeights []float64
	if weights != nil {
		gatheredWeights = make([]float64, len(indices))
	}
	for i, idx := range indices {
		gathered[i] = values[idx]
		if weights != nil {
			gatheredWeights[i] = weights[idx]
		}
	}
	if weights == nil {
		return stat.Mean(gathered, nil), float64(len(indices))
	}
	return stat.Mean(gathered, gatheredWeights), floats.Sum(gatheredWeights)
}

func splitIndices(indices []int, numThreads int) [][]int {
	n := len(indices)
	chunkSize := (n + numThreads - 1) / numThreads
	var chunks [][]int
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		chunks = append(chunks, indices[start:end])
	}
	return chunks
}
