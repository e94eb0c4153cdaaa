// Package gradient computes the spatial derivatives of a frame and the
// temporal derivative between two frames.
package gradient

import (
	"fmt"
	"strings"

	apperrors "go-optical-flow/internal/errors"
	"go-optical-flow/internal/imaging"
)

// Operator names a 3x3 derivative kernel.
type Operator string

const (
	// Sobel is the basic 3x3 derivative kernel.
	Sobel Operator = "sobel"
	// Scharr is the rotation-invariant 3x3 variant.
	Scharr Operator = "scharr"
)

// kernel holds the smoothing and difference taps of a separable 3x3
// derivative operator. Derivative along x is smooth(y) * diff(x).
type kernel struct {
	smooth [3]float32
	diff   [3]float32
}

// Taps are scaled so a unit intensity ramp yields a unit derivative.
var kernels = map[Operator]kernel{
	Sobel:  {smooth: [3]float32{1.0 / 4, 2.0 / 4, 1.0 / 4}, diff: [3]float32{-0.5, 0, 0.5}},
	Scharr: {smooth: [3]float32{3.0 / 16, 10.0 / 16, 3.0 / 16}, diff: [3]float32{-0.5, 0, 0.5}},
}

// ParseOperator resolves a configured operator name.
func ParseOperator(name string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sobel", "basic":
		return Sobel, nil
	case "scharr", "rotation-invariant":
		return Scharr, nil
	default:
		return "", apperrors.NewUnknownOperatorError(
			fmt.Sprintf("unknown operator %q, use \"sobel\" or \"scharr\"", name), nil)
	}
}

// Field holds the derivatives of a frame pair. All three images share the
// frame dimensions.
type Field struct {
	Ix *imaging.Image
	Iy *imaging.Image
	It *imaging.Image
}

// Compute derives Ix and Iy from frameT with the Sobel kernel and
// It = frameT1 - frameT.
func Compute(frameT, frameT1 *imaging.Image) (*Field, error) {
	return ComputeWith(frameT, frameT1, Sobel)
}

// ComputeWith is Compute with a chosen spatial operator.
func ComputeWith(frameT, frameT1 *imaging.Image, op Operator) (*Field, error) {
	if !imaging.SameSize(frameT, frameT1) {
		return nil, apperrors.NewDimensionMismatchError(
			fmt.Sprintf("frame sizes differ: %s vs %s", frameT, frameT1), nil)
	}
	ix, iy, err := Spatial(frameT, op)
	if err != nil {
		return nil, err
	}
	return &Field{
		Ix: ix,
		Iy: iy,
		It: imaging.Sub(frameT1, frameT),
	}, nil
}

// Spatial computes Ix and Iy of a frame. Pixels outside the frame are
// the replicated edge pixels.
func Spatial(frame *imaging.Image, op Operator) (ix, iy *imaging.Image, err error) {
	k, ok := kernels[op]
	if !ok {
		return nil, nil, apperrors.NewUnknownOperatorError(
			fmt.Sprintf("unknown operator %q", op), nil)
	}

	w, h := frame.Width, frame.Height
	ix = imaging.NewImage(w, h)
	iy = imaging.NewImage(w, h)

	for y := 0; y < h; y++ {
		rows := [3][]float32{
			frame.Row(imaging.Clamp(y-1, h)),
			frame.Row(y),
			frame.Row(imaging.Clamp(y+1, h)),
		}
		outX := ix.Row(y)
		outY := iy.Row(y)
		for x := 0; x < w; x++ {
			cols := [3]int{imaging.Clamp(x-1, w), x, imaging.Clamp(x+1, w)}
			var gx, gy float32
			for j := 0; j < 3; j++ {
				for i := 0; i < 3; i++ {
					v := rows[j][cols[i]]
					gx += k.smooth[j] * k.diff[i] * v
					gy += k.diff[j] * k.smooth[i] * v
				}
			}
			outX[x] = gx
			outY[x] = gy
		}
	}
	return ix, iy, nil
}
