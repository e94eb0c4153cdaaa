package imaging

import "math"

// ResizeBilinear resamples img to width x height using bilinear
// interpolation with pixel-centre alignment and replicated edges.
// No pre-filter is applied, so downsampling aliases.
func ResizeBilinear(img *Image, width, height int) *Image {
	out := NewImage(width, height)
	if out.Empty() || img.Empty() {
		return out
	}

	scaleX := float64(img.Width) / float64(width)
	scaleY := float64(img.Height) / float64(height)

	xs := make([]axisSample, width)
	for dx := range xs {
		xs[dx] = sampleAxis(dx, scaleX, img.Width)
	}

	for dy := 0; dy < height; dy++ {
		sy := sampleAxis(dy, scaleY, img.Height)
		row0 := img.Row(sy.i0)
		row1 := img.Row(sy.i1)
		dst := out.Row(dy)
		for dx, sx := range xs {
			top := row0[sx.i0]*(1-sx.frac) + row0[sx.i1]*sx.frac
			bottom := row1[sx.i0]*(1-sx.frac) + row1[sx.i1]*sx.frac
			dst[dx] = top*(1-sy.frac) + bottom*sy.frac
		}
	}
	return out
}

// axisSample is the pair of source indices and the blend weight of the
// second one for a destination coordinate.
type axisSample struct {
	i0, i1 int
	frac   float32
}

func sampleAxis(d int, scale float64, size int) axisSample {
	src := (float64(d)+0.5)*scale - 0.5
	if src < 0 {
		src = 0
	}
	i0 := int(math.Floor(src))
	frac := float32(src - float64(i0))
	if i0 >= size-1 {
		return axisSample{i0: size - 1, i1: size - 1}
	}
	return axisSample{i0: i0, i1: i0 + 1, frac: frac}
}

// Bilinear samples img at a fractional position, replicating edge pixels
// outside the image.
func (img *Image) Bilinear(x, y float64) float32 {
	x0f, y0f := math.Floor(x), math.Floor(y)
	fx, fy := float32(x-x0f), float32(y-y0f)
	x0, y0 := int(x0f), int(y0f)

	p00 := img.AtClamped(x0, y0)
	p10 := img.AtClamped(x0+1, y0)
	p01 := img.AtClamped(x0, y0+1)
	p11 := img.AtClamped(x0+1, y0+1)

	top := p00*(1-fx) + p10*fx
	bottom := p01*(1-fx) + p11*fx
	return top*(1-fy) + bottom*fy
}
