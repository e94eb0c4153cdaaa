package flow

import (
	"fmt"

	apperrors "go-optical-flow/internal/errors"
	"go-optical-flow/internal/imaging"
	"go-optical-flow/internal/pyramid"
)

// Refine estimates flow coarse-to-fine over two pyramids. Starting at the
// coarsest level, the running estimate is upsampled to the next level,
// frame2 is warped back by it, and the residual Lucas-Kanade solve is added.
// A single-level pyramid gives exactly LucasKanade on level 0.
//
// Unlike LucasKanade, the border band of the result carries the upsampled
// coarse estimate rather than zero.
func Refine(p1, p2 pyramid.Pyramid, opts Options) (*Field, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if p1.Len() == 0 || !pyramid.SameShape(p1, p2) {
		return nil, apperrors.NewDimensionMismatchError(
			fmt.Sprintf("pyramid shapes differ: %v vs %v", p1.Sizes(), p2.Sizes()), nil)
	}

	var estimate *Field
	for k := p1.Len() - 1; k >= 0; k-- {
		l1, l2 := p1.Level(k), p2.Level(k)

		target := l2
		if estimate != nil {
			estimate = Upsample(estimate, l1.Width, l1.Height)
			target = Warp(l2, estimate)
		}

		residual, err := LucasKanade(l1, target, opts)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", k, err)
		}
		if estimate == nil {
			estimate = residual
		} else {
			estimate = estimate.Add(residual)
		}
	}
	return estimate, nil
}

// Upsample resizes a field to width x height and rescales the vectors by
// the size ratio of each axis.
func Upsample(f *Field, width, height int) *Field {
	u := imaging.ResizeBilinear(&imaging.Image{Pix: f.U, Width: f.Width, Height: f.Height}, width, height)
	v := imaging.ResizeBilinear(&imaging.Image{Pix: f.V, Width: f.Width, Height: f.Height}, width, height)

	sx := float32(width) / float32(f.Width)
	sy := float32(height) / float32(f.Height)
	out := &Field{Width: width, Height: height, U: u.Pix, V: v.Pix}
	for i := range out.U {
		out.U[i] *= sx
		out.V[i] *= sy
	}
	return out
}

// Warp samples img at each pixel displaced by the field, so that a frame
// moved by f lines up with its predecessor. The field must match img.
func Warp(img *imaging.Image, f *Field) *imaging.Image {
	out := imaging.NewImage(img.Width, img.Height)
	for y := 0; y < img.Height; y++ {
		row := out.Row(y)
		for x := range row {
			u, v := f.At(x, y)
			row[x] = img.Bilinear(float64(x)+float64(u), float64(y)+float64(v))
		}
	}
	return out
}
