package dbarts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultControlValidates(t *testing.T) {
	assert.NoError(t, DefaultControl().validate())
}

func TestControlValidateRejectsBadFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Control)
		wantErr error
	}{
		{"numSamples", func(c *Control) { c.NumSamples = 0 }, ErrInvalidNumSamples},
		{"numBurnIn", func(c *Control) { c.NumBurnIn = -1 }, ErrInvalidNumBurnIn},
		{"numTrees", func(c *Control) { c.NumTrees = 0 }, ErrInvalidNumTrees},
		{"numThreads", func(c *Control) { c.NumThreads = 0 }, ErrInvalidNumThreads},
		{"thinningRate", func(c *Control) { c.TreeThinningRate = 0 }, ErrInvalidThinningRate},
		{"printEvery", func(c *Control) { c.PrintEvery = 0 }, ErrInvalidPrintEvery},
		{"printCutoffs", func(c *Control) { c.PrintCutoffs = -1 }, ErrInvalidPrintCutoffs},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultControl()
			tt.mutate(&c)
			assert.Equal(t, tt.wantErr, c.validate())
		})
	}
}
