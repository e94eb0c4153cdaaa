package flow

import (
	"fmt"
	"math"
)

// Field is a dense per-pixel displacement field. U is horizontal motion
// (positive right) and V vertical motion (positive down), in pixels.
type Field struct {
	Width  int
	Height int
	U      []float32
	V      []float32
}

// NewField allocates a zero field.
func NewField(width, height int) *Field {
	return &Field{
		Width:  width,
		Height: height,
		U:      make([]float32, width*height),
		V:      make([]float32, width*height),
	}
}

// At returns the vector at (x, y).
func (f *Field) At(x, y int) (u, v float32) {
	i := y*f.Width + x
	return f.U[i], f.V[i]
}

// Set writes the vector at (x, y).
func (f *Field) Set(x, y int, u, v float32) {
	i := y*f.Width + x
	f.U[i], f.V[i] = u, v
}

// Magnitude returns the vector length at (x, y).
func (f *Field) Magnitude(x, y int) float64 {
	u, v := f.At(x, y)
	return math.Hypot(float64(u), float64(v))
}

// Magnitudes returns the vector length of every pixel, row-major.
func (f *Field) Magnitudes() []float64 {
	out := make([]float64, len(f.U))
	for i := range f.U {
		out[i] = math.Hypot(float64(f.U[i]), float64(f.V[i]))
	}
	return out
}

// IsZero reports whether every vector is exactly (0, 0).
func (f *Field) IsZero() bool {
	for i := range f.U {
		if f.U[i] != 0 || f.V[i] != 0 {
			return false
		}
	}
	return true
}

// Add returns f + other.
func (f *Field) Add(other *Field) *Field {
	out := NewField(f.Width, f.Height)
	for i := range f.U {
		out.U[i] = f.U[i] + other.U[i]
		out.V[i] = f.V[i] + other.V[i]
	}
	return out
}

// Clone returns a deep copy.
func (f *Field) Clone() *Field {
	out := NewField(f.Width, f.Height)
	copy(out.U, f.U)
	copy(out.V, f.V)
	return out
}

// String implements fmt.Stringer.
func (f *Field) String() string {
	return fmt.Sprintf("flow %dx%d", f.Width, f.Height)
}
