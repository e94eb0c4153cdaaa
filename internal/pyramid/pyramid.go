// Package pyramid builds multi-resolution image pyramids.
package pyramid

import (
	"fmt"
	"math"

	apperrors "go-optical-flow/internal/errors"
	"go-optical-flow/internal/imaging"
)

// Pyramid is a read-only sequence of images. Level 0 is the original
// resolution and each following level is scaled by the build factor.
// Levels are shared, not copied: callers must not mutate them.
type Pyramid struct {
	levels []*imaging.Image
	scale  float64
}

// Build returns a pyramid of the given number of levels. Each level is a
// bilinear resize of the previous one by scale along both axes, with no
// blur before the resize. Level 0 aliases img, so img must not be modified
// while the pyramid is in use.
func Build(img *imaging.Image, levels int, scale float64) (Pyramid, error) {
	if levels < 1 {
		return Pyramid{}, apperrors.NewInvalidParameterError(
			fmt.Sprintf("level count must be >= 1, got %d", levels), nil)
	}
	if !(scale > 0 && scale < 1) {
		return Pyramid{}, apperrors.NewInvalidParameterError(
			fmt.Sprintf("scale factor must be in (0, 1), got %v", scale), nil)
	}
	if img == nil || img.Empty() {
		return Pyramid{}, apperrors.NewInvalidParameterError("cannot build a pyramid of an empty image", nil)
	}

	out := make([]*imaging.Image, 1, levels)
	out[0] = img
	for k := 1; k < levels; k++ {
		prev := out[k-1]
		w := int(math.Floor(float64(prev.Width) * scale))
		h := int(math.Floor(float64(prev.Height) * scale))
		if w == 0 || h == 0 {
			return Pyramid{}, apperrors.NewPyramidCollapseError(
				fmt.Sprintf("level %d of %s would be %dx%d", k, img, w, h), nil)
		}
		out = append(out, imaging.ResizeBilinear(prev, w, h))
	}
	return Pyramid{levels: out, scale: scale}, nil
}

// Len returns the number of levels.
func (p Pyramid) Len() int {
	return len(p.levels)
}

// Level returns level k; it panics if k is out of range.
func (p Pyramid) Level(k int) *imaging.Image {
	return p.levels[k]
}

// Finest returns level 0.
func (p Pyramid) Finest() *imaging.Image {
	return p.levels[0]
}

// Coarsest returns the smallest level.
func (p Pyramid) Coarsest() *imaging.Image {
	return p.levels[len(p.levels)-1]
}

// Scale returns the per-level scale factor.
func (p Pyramid) Scale() float64 {
	return p.scale
}

// Sizes returns the width and height of every level.
func (p Pyramid) Sizes() [][2]int {
	sizes := make([][2]int, len(p.levels))
	for i, l := range p.levels {
		sizes[i] = [2]int{l.Width, l.Height}
	}
	return sizes
}

// SameShape reports whether two pyramids have identical level sizes.
func SameShape(a, b Pyramid) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := range a.levels {
		if !imaging.SameSize(a.levels[i], b.levels[i]) {
			return false
		}
	}
	return true
}
