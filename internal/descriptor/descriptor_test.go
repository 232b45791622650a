package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinaryDistance(t *testing.T) {
	a := Binary{0b00000000, 0b11111111}
	b := Binary{0b00000001, 0b11111110}

	assert.Equal(t, 0.0, a.Distance(a))
	assert.Equal(t, 2.0, a.Distance(b))
	assert.Equal(t, a.Distance(b), b.Distance(a))
}

func TestBinaryDistancePanicsOnLengthMismatch(t *testing.T) {
	a := Binary{0x00}
	b := Binary{0x00, 0x01}
	assert.Panics(t, func() { a.Distance(b) })
}

func TestBinaryMeanOfMajorityVote(t *testing.T) {
	trait := BinaryTrait{}
	set := []Binary{
		{0b00000001},
		{0b00000001},
		{0b00000000},
	}
	mean := trait.MeanOf(set)
	assert.Equal(t, Binary{0b00000001}, mean)
}

func TestBinaryMeanOfTieBreaksToZero(t *testing.T) {
	trait := BinaryTrait{}
	set := []Binary{
		{0b00000001},
		{0b00000000},
	}
	mean := trait.MeanOf(set)
	assert.Equal(t, Binary{0b00000000}, mean)
}

func TestBinaryStringRoundTrip(t *testing.T) {
	trait := BinaryTrait{}
	d := Binary{1, 2, 255, 0}
	s := d.String()
	parsed, err := trait.Parse(s)
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
}

func TestRealDistance(t *testing.T) {
	a := Real{0, 0}
	b := Real{3, 4}
	assert.Equal(t, 0.0, a.Distance(a))
	assert.Equal(t, 5.0, a.Distance(b))
}

func TestRealMeanOf(t *testing.T) {
	trait := RealTrait{}
	set := []Real{{1, 2}, {3, 4}, {5, 0}}
	mean := trait.MeanOf(set)
	assert.InDeltaSlice(t, []float64(Real{3, 2}), []float64(mean), 1e-9)
}

func TestRealStringRoundTrip(t *testing.T) {
	trait := RealTrait{}
	d := Real{1.5, -2.25, 0}
	s := d.String()
	parsed, err := trait.Parse(s)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64(d), []float64(parsed), 1e-12)
}
