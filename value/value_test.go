package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewNumberConvertsNaNToNumError(t *testing.T) {
	v := NewNumber(nanValue())
	errKind, ok := IsError(v)
	assert.True(t, ok)
	assert.Equal(t, ErrNum, errKind)
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}

func TestNewNumberConvertsInfToSignedInfinity(t *testing.T) {
	v := NewNumber(math.Inf(1))
	inf, ok := v.(Infinity)
	assert.True(t, ok)
	assert.False(t, inf.Negative)
	assert.Equal(t, "INFINITY", v.Serialized())

	v = NewNumber(math.Inf(-1))
	inf, ok = v.(Infinity)
	assert.True(t, ok)
	assert.True(t, inf.Negative)
	assert.Equal(t, "-INFINITY", v.Serialized())
}

func TestErrorKindSerializedMatchesWireFormat(t *testing.T) {
	cases := map[ErrorKind]string{
		ErrDiv0:  "#DIV/0!",
		ErrNA:    "#N/A",
		ErrName:  "#NAME?",
		ErrNum:   "#NUM!",
		ErrRef:   "#REF!",
		ErrValue: "#VALUE!",
		ErrCycle: "#CYCLE!",
		ErrError: "#ERROR!",
		ErrSpill: "#SPILL!",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.Serialized())
	}
}

func TestToNumberCoercions(t *testing.T) {
	n, err := ToNumber(Boolean{V: true})
	assert.Nil(t, err)
	assert.Equal(t, float64(1), n)

	n, err = ToNumber(Empty{})
	assert.Nil(t, err)
	assert.Equal(t, float64(0), n)

	n, err = ToNumber(String{V: "3.5"})
	assert.Nil(t, err)
	assert.Equal(t, 3.5, n)

	_, err = ToNumber(String{V: "not a number"})
	assert.NotNil(t, err)
	assert.Equal(t, ErrValue, err.K)
}

func TestToBoolCoercions(t *testing.T) {
	b, err := ToBool(String{V: "TRUE"})
	assert.Nil(t, err)
	assert.True(t, b)

	b, err = ToBool(Number{V: 0})
	assert.Nil(t, err)
	assert.False(t, b)

	_, err = ToBool(String{V: "maybe"})
	assert.NotNil(t, err)
}

func TestCompareCrossTypeOrdersNumberBeforeStringBeforeBoolean(t *testing.T) {
	assert.Equal(t, -1, Compare(Number{V: 5}, String{V: "a"}))
	assert.Equal(t, -1, Compare(String{V: "z"}, Boolean{V: false}))
	assert.Equal(t, 1, Compare(Boolean{V: true}, Number{V: 100}))
}

func TestCompareWithinNumberType(t *testing.T) {
	assert.Equal(t, -1, Compare(Number{V: 1}, Number{V: 2}))
	assert.Equal(t, 0, Compare(Number{V: 2}, Number{V: 2}))
	assert.Equal(t, 1, Compare(Number{V: 3}, Number{V: 2}))
}

func TestEqualRequiresSameTypeRankAndCrossTypeNeverEqual(t *testing.T) {
	assert.True(t, Equal(Number{V: 10}, Number{V: 10}))
	assert.False(t, Equal(Number{V: 10}, String{V: "10"}))
}

func TestEmptyIsDistinctFromEmptyString(t *testing.T) {
	assert.NotEqual(t, Empty{}.Kind(), String{}.Kind())
	assert.Equal(t, "", Empty{}.Serialized())
	assert.Equal(t, "", String{V: ""}.Serialized())
}
