package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestField_Basics(t *testing.T) {
	f := NewField(4, 3)
	assert.True(t, f.IsZero())
	assert.Len(t, f.U, 12)

	f.Set(2, 1, 3, 4)
	u, v := f.At(2, 1)
	assert.Equal(t, float32(3), u)
	assert.Equal(t, float32(4), v)
	assert.InDelta(t, 5.0, f.Magnitude(2, 1), 1e-9)
	assert.False(t, f.IsZero())
	assert.Equal(t, "flow 4x3", f.String())

	mags := f.Magnitudes()
	assert.Len(t, mags, 12)
	assert.InDelta(t, 5.0, mags[1*4+2], 1e-9)
	assert.Zero(t, mags[0])
}

func TestField_AddAndClone(t *testing.T) {
	a := NewField(2, 2)
	b := NewField(2, 2)
	a.Set(0, 0, 1, 2)
	b.Set(0, 0, 0.5, -1)
	b.Set(1, 1, 2, 2)

	sum := a.Add(b)
	u, v := sum.At(0, 0)
	assert.Equal(t, float32(1.5), u)
	assert.Equal(t, float32(1), v)
	u, v = sum.At(1, 1)
	assert.Equal(t, float32(2), u)
	assert.Equal(t, float32(2), v)

	// Operands are untouched.
	u, _ = a.At(0, 0)
	assert.Equal(t, float32(1), u)

	c := a.Clone()
	c.Set(0, 0, 9, 9)
	u, _ = a.At(0, 0)
	assert.Equal(t, float32(1), u)
}
