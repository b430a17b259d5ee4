package prior

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KARARIS/dbarts/internal/rng"
)

func TestNewResidualVariancePriorCalibratesQuantile(t *testing.T) {
	p := NewResidualVariancePrior(3, 0.9, 1.0)
	assert.Greater(t, p.Scale, 0.0)
	assert.Equal(t, 3.0, p.Df)
}

func TestDrawFromPosteriorPositive(t *testing.T) {
	p := NewResidualVariancePrior(3, 0.9, 1.0)
	src := rng.New(9)
	for i := 0; i < 200; i++ {
		sigma := p.DrawFromPosterior(50, 40, src)
		assert.Greater(t, sigma, 0.0)
		assert.False(t, math.IsNaN(sigma))
	}
}

func TestRescalePreservesRelativeScale(t *testing.T) {
	p := ResidualVariancePrior{Df: 3, Scale: 2.0}
	p.Rescale(10, 20)
	assert.InDelta(t, 0.5, p.Scale, 1e-9)
}

func TestStdNormalQuantileSymmetric(t *testing.T) {
	assert.InDelta(t, 0, stdNormalQuantile(0.5), 1e-6)
	lo := stdNormalQuantile(0.1)
	hi := stdNormalQuantile(0.9)
	assert.InDelta(t, -lo, hi, 1e-6)
}
