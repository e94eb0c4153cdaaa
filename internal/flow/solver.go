// Package flow estimates dense optical flow with the Lucas-Kanade method.
//
// LucasKanade solves one resolution level: every pixel whose window lies
// fully inside the frame gets the least-squares displacement of its window,
// and the border band and ill-conditioned windows stay at exactly (0, 0).
// Refine is the opt-in coarse-to-fine variant that warps each level by the
// estimate of the level above it.
package flow

import (
	"fmt"

	apperrors "go-optical-flow/internal/errors"
	"go-optical-flow/internal/gradient"
	"go-optical-flow/internal/imaging"
)

// LucasKanade computes the flow from frame1 to frame2.
func LucasKanade(frame1, frame2 *imaging.Image, opts Options) (*Field, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if !imaging.SameSize(frame1, frame2) {
		return nil, apperrors.NewDimensionMismatchError(
			fmt.Sprintf("frame sizes differ: %s vs %s", frame1, frame2), nil)
	}

	grads, err := gradient.ComputeWith(frame1, frame2, opts.Operator)
	if err != nil {
		return nil, err
	}
	return solveField(grads, opts), nil
}

// products caches the per-pixel terms summed over each window.
type products struct {
	width              int
	xx, xy, yy, xt, yt []float32
}

func newProducts(g *gradient.Field) products {
	n := len(g.Ix.Pix)
	p := products{
		width: g.Ix.Width,
		xx:    make([]float32, n),
		xy:    make([]float32, n),
		yy:    make([]float32, n),
		xt:    make([]float32, n),
		yt:    make([]float32, n),
	}
	for i := 0; i < n; i++ {
		ix, iy, it := g.Ix.Pix[i], g.Iy.Pix[i], g.It.Pix[i]
		p.xx[i] = ix * ix
		p.xy[i] = ix * iy
		p.yy[i] = iy * iy
		p.xt[i] = ix * it
		p.yt[i] = iy * it
	}
	return p
}

// window accumulates the normal equations of the window centred at (x, y).
func (p products) window(x, y, half int) tensor {
	var t tensor
	for wy := y - half; wy <= y+half; wy++ {
		base := wy * p.width
		for i := base + x - half; i <= base+x+half; i++ {
			t.xx += float64(p.xx[i])
			t.xy += float64(p.xy[i])
			t.yy += float64(p.yy[i])
			t.bx -= float64(p.xt[i])
			t.by -= float64(p.yt[i])
		}
	}
	return t
}

func solveField(g *gradient.Field, opts Options) *Field {
	w, h := g.Ix.Width, g.Ix.Height
	out := NewField(w, h)
	half := opts.WindowSize / 2
	if w <= 2*half || h <= 2*half {
		return out
	}

	p := newProducts(g)
	rows := func(start, end int) {
		for y := start; y < end; y++ {
			for x := half; x < w-half; x++ {
				t := p.window(x, y, half)
				if t.condition() >= opts.ConditionThreshold {
					continue
				}
				u, v := t.solve()
				out.Set(x, y, float32(u), float32(v))
			}
		}
	}

	// Rows are offset so chunks index [half, h-half).
	n := h - 2*half
	if opts.Pool == nil {
		rows(half, h-half)
	} else {
		opts.Pool.ParallelFor(n, func(start, end int) {
			rows(start+half, end+half)
		})
	}
	return out
}
