// Package imaging holds the float32 single-channel image used by the flow
// core, plus conversions from Go's image types and the edge-handling and
// resampling helpers shared by the gradient, pyramid and flow packages.
package imaging

import (
	"fmt"
	"image"
	"image/color"
)

// Luminance weights applied to multi-channel sources.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Image is a row-major grid of float32 intensities with origin top-left.
// Values stay on the 0..255 scale of 8-bit sources.
type Image struct {
	Pix    []float32
	Width  int
	Height int
}

// NewImage allocates a zeroed image. Non-positive dimensions yield an empty image.
func NewImage(width, height int) *Image {
	if width <= 0 || height <= 0 {
		return &Image{}
	}
	return &Image{
		Pix:    make([]float32, width*height),
		Width:  width,
		Height: height,
	}
}

// FromPixels copies width*height samples into a new Image.
func FromPixels(width, height int, pix []float32) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", width, height)
	}
	if len(pix) != width*height {
		return nil, fmt.Errorf("expected %d samples for %dx%d image, got %d", width*height, width, height, len(pix))
	}
	img := NewImage(width, height)
	copy(img.Pix, pix)
	return img, nil
}

// FromImage converts any image.Image to a single-channel float image.
// Gray sources are widened without loss; color sources are reduced by
// luminance.
func FromImage(src image.Image) *Image {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	img := NewImage(width, height)
	if len(img.Pix) == 0 {
		return img
	}

	switch s := src.(type) {
	case *image.Gray:
		for y := 0; y < height; y++ {
			row := s.Pix[y*s.Stride : y*s.Stride+width]
			out := img.Pix[y*width : (y+1)*width]
			for x, v := range row {
				out[x] = float32(v)
			}
		}
	case *image.Gray16:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				img.Pix[(y-bounds.Min.Y)*width+(x-bounds.Min.X)] = float32(s.Gray16At(x, y).Y) / 257
			}
		}
	default:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				img.Pix[(y-bounds.Min.Y)*width+(x-bounds.Min.X)] = luminance(src.At(x, y))
			}
		}
	}
	return img
}

// luminance reduces a color to intensity on the 0..255 scale.
func luminance(c color.Color) float32 {
	r, g, b, _ := c.RGBA()
	// RGBA returns 16-bit channels; 257 maps 0xffff back to 255.
	return float32((lumaR*float64(r) + lumaG*float64(g) + lumaB*float64(b)) / 257)
}

// At returns the sample at (x, y). Out-of-range coordinates read as zero.
func (img *Image) At(x, y int) float32 {
	if x < 0 || x >= img.Width || y < 0 || y >= img.Height {
		return 0
	}
	return img.Pix[y*img.Width+x]
}

// AtClamped returns the sample at (x, y) with edge pixels replicated
// outside the image.
func (img *Image) AtClamped(x, y int) float32 {
	return img.Pix[Clamp(y, img.Height)*img.Width+Clamp(x, img.Width)]
}

// Set writes the sample at (x, y); out-of-range writes are ignored.
func (img *Image) Set(x, y int, v float32) {
	if x < 0 || x >= img.Width || y < 0 || y >= img.Height {
		return
	}
	img.Pix[y*img.Width+x] = v
}

// Row returns the samples of row y.
func (img *Image) Row(y int) []float32 {
	if y < 0 || y >= img.Height {
		return nil
	}
	return img.Pix[y*img.Width : (y+1)*img.Width]
}

// Bounds returns the image rectangle.
func (img *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, img.Width, img.Height)
}

// Empty reports whether the image has no samples.
func (img *Image) Empty() bool {
	return img.Width <= 0 || img.Height <= 0
}

// Clone returns a deep copy.
func (img *Image) Clone() *Image {
	out := &Image{Width: img.Width, Height: img.Height}
	if img.Pix != nil {
		out.Pix = make([]float32, len(img.Pix))
		copy(out.Pix, img.Pix)
	}
	return out
}

// SameSize reports whether both images have identical dimensions.
func SameSize(a, b *Image) bool {
	return a.Width == b.Width && a.Height == b.Height
}

// Sub returns the pixelwise difference a - b. The images must share a size.
func Sub(a, b *Image) *Image {
	out := NewImage(a.Width, a.Height)
	for i := range out.Pix {
		out.Pix[i] = a.Pix[i] - b.Pix[i]
	}
	return out
}

// ToGray renders the image as *image.Gray, clamping to 0..255.
func (img *Image) ToGray() *image.Gray {
	gray := image.NewGray(img.Bounds())
	for i, v := range img.Pix {
		switch {
		case v <= 0:
			gray.Pix[i] = 0
		case v >= 255:
			gray.Pix[i] = 255
		default:
			gray.Pix[i] = uint8(v + 0.5)
		}
	}
	return gray
}

// String implements fmt.Stringer.
func (img *Image) String() string {
	return fmt.Sprintf("%dx%d", img.Width, img.Height)
}

// Clamp returns index clamped to [0, size-1], replicating edge pixels.
func Clamp(index, size int) int {
	if index < 0 {
		return 0
	}
	if index >= size {
		return size - 1
	}
	return index
}
