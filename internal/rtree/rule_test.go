package rtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleGoesLeftOrdinal(t *testing.T) {
	r := Rule{Kind: OrdinalRule, VariableIndex: 0, CutValue: 5}
	assert.True(t, r.GoesLeft(5))
	assert.True(t, r.GoesLeft(4.9))
	assert.False(t, r.GoesLeft(5.1))
}

func TestRuleGoesLeftCategorical(t *testing.T) {
	r := Rule{Kind: CategoricalRule, VariableIndex: 0, Mask: 0b0101}
	assert.True(t, r.GoesLeft(0))
	assert.False(t, r.GoesLeft(1))
	assert.True(t, r.GoesLeft(2))
	assert.False(t, r.GoesLeft(3))
}

func TestRuleGoesLeftCategoricalOutOfRange(t *testing.T) {
	left := Rule{Kind: CategoricalRule, VariableIndex: 0, Mask: 0b01}
	assert.True(t, left.GoesLeft(-1))
	assert.True(t, left.GoesLeft(64))

	right := Rule{Kind: CategoricalRule, VariableIndex: 0, Mask: 0b01, MissingGoesRight: true}
	assert.False(t, right.GoesLeft(-1))
	assert.False(t, right.GoesLeft(64))
}

func TestRuleGoesLeftNoRule(t *testing.T) {
	r := Rule{}
	assert.True(t, r.GoesLeft(0))
}
