package eval

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gridform/gridform/token"
	"github.com/gridform/gridform/value"
)

func TestApplyScalarBinaryPlusOnOppositeInfinitiesYieldsPositiveInfinity(t *testing.T) {
	got := applyScalarBinary(token.PLUS, value.Infinity{Negative: false}, value.Infinity{Negative: true})
	assert.Equal(t, value.Infinity{Negative: false}, got)
}

func TestApplyScalarBinaryDivByZeroYieldsSignedInfinity(t *testing.T) {
	got := applyScalarBinary(token.SLASH, value.Number{V: 1}, value.Number{V: 0})
	assert.Equal(t, value.Infinity{Negative: false}, got)

	got = applyScalarBinary(token.SLASH, value.Number{V: -1}, value.Number{V: 0})
	assert.Equal(t, value.Infinity{Negative: true}, got)
}

func TestApplyScalarBinaryZeroDivZeroYieldsNumError(t *testing.T) {
	got := applyScalarBinary(token.SLASH, value.Number{V: 0}, value.Number{V: 0})
	assert.Equal(t, value.Error{K: value.ErrNum}, got)
}

func TestApplyScalarBinaryShortCircuitsOnLeftErrorBeforeRight(t *testing.T) {
	got := applyScalarBinary(token.PLUS, value.Error{K: value.ErrRef}, value.Error{K: value.ErrValue})
	assert.Equal(t, value.Error{K: value.ErrRef}, got)
}

func TestApplyScalarBinaryConcatenationCoercesBothSides(t *testing.T) {
	got := applyScalarBinary(token.AMP, value.Number{V: 1}, value.Boolean{V: true})
	assert.Equal(t, value.String{V: "1TRUE"}, got)
}

func TestApplyScalarBinaryComparisonUsesCrossTypeOrdering(t *testing.T) {
	got := applyScalarBinary(token.LT, value.Number{V: 5}, value.String{V: "a"})
	assert.Equal(t, value.Boolean{V: true}, got)
}

func TestApplyUnaryPostfixPercent(t *testing.T) {
	got := applyUnary(token.ASTERISK, true, value.Number{V: 50})
	assert.Equal(t, value.Number{V: 0.5}, got)
}

func TestApplyUnaryMinusPropagatesError(t *testing.T) {
	got := applyUnary(token.MINUS, false, value.Error{K: value.ErrName})
	assert.Equal(t, value.Error{K: value.ErrName}, got)
}

func TestOpDivInfinityOverInfinityIsNumError(t *testing.T) {
	got := opDiv(math.Inf(1), math.Inf(1))
	assert.Equal(t, value.Error{K: value.ErrNum}, got)
}

func TestOpDivByInfinityIsZero(t *testing.T) {
	got := opDiv(5, math.Inf(1))
	assert.Equal(t, value.Number{V: 0}, got)
}
