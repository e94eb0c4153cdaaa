package validation

import (
	"fmt"
	"image"

	apperrors "go-optical-flow/internal/errors"
)

// FrameLimits bounds the frames accepted for analysis
type FrameLimits struct {
	MaxWidth          int
	MaxHeight         int
	MaxSequenceFrames int
}

// DefaultFrameLimits returns the default frame limits
func DefaultFrameLimits() FrameLimits {
	return FrameLimits{
		MaxWidth:          4096,
		MaxHeight:         4096,
		MaxSequenceFrames: 64,
	}
}

// FrameValidator checks frames before they reach the solver
type FrameValidator struct {
	limits FrameLimits
}

// NewFrameValidator creates a frame validator with default limits
func NewFrameValidator() *FrameValidator {
	return &FrameValidator{limits: DefaultFrameLimits()}
}

// NewFrameValidatorWithLimits creates a frame validator with custom limits
func NewFrameValidatorWithLimits(limits FrameLimits) *FrameValidator {
	return &FrameValidator{limits: limits}
}

// Limits returns the configured limits
func (v *FrameValidator) Limits() FrameLimits {
	return v.limits
}

// ValidateDimensions checks a frame size against the limits
func (v *FrameValidator) ValidateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return apperrors.NewValidationError(fmt.Sprintf("frame must be non-empty, got %dx%d", width, height), nil)
	}
	if width > v.limits.MaxWidth || height > v.limits.MaxHeight {
		return apperrors.NewValidationError(
			fmt.Sprintf("frame %dx%d exceeds the %dx%d limit", width, height, v.limits.MaxWidth, v.limits.MaxHeight), nil)
	}
	return nil
}

// ValidateFrame checks a decoded frame
func (v *FrameValidator) ValidateFrame(img image.Image) error {
	if img == nil {
		return apperrors.NewValidationError("frame is missing", nil)
	}
	b := img.Bounds()
	return v.ValidateDimensions(b.Dx(), b.Dy())
}

// ValidatePair checks both frames and that they share a size
func (v *FrameValidator) ValidatePair(frame1, frame2 image.Image) error {
	if err := v.ValidateFrame(frame1); err != nil {
		return err
	}
	if err := v.ValidateFrame(frame2); err != nil {
		return err
	}
	if b1, b2 := frame1.Bounds(), frame2.Bounds(); b1.Dx() != b2.Dx() || b1.Dy() != b2.Dy() {
		return apperrors.NewDimensionMismatchError(
			fmt.Sprintf("frame sizes differ: %dx%d vs %dx%d", b1.Dx(), b1.Dy(), b2.Dx(), b2.Dy()), nil)
	}
	return nil
}

// ValidateSequenceLength checks the number of frames of a sequence
func (v *FrameValidator) ValidateSequenceLength(n int) error {
	if n < 2 {
		return apperrors.NewValidationError(fmt.Sprintf("a sequence needs at least 2 frames, got %d", n), nil)
	}
	if n > v.limits.MaxSequenceFrames {
		return apperrors.NewValidationError(
			fmt.Sprintf("sequence of %d frames exceeds the limit of %d", n, v.limits.MaxSequenceFrames), nil)
	}
	return nil
}

// ValidateRawFrame checks inline samples against their declared size
func (v *FrameValidator) ValidateRawFrame(width, height, samples int) error {
	if err := v.ValidateDimensions(width, height); err != nil {
		return err
	}
	if samples != width*height {
		return apperrors.NewValidationError(
			fmt.Sprintf("frame %dx%d needs %d samples, got %d", width, height, width*height, samples), nil)
	}
	return nil
}
