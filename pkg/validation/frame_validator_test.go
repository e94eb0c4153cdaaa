package validation

import (
	"image"
	"testing"

	apperrors "go-optical-flow/internal/errors"
)

func TestDefaultFrameLimits(t *testing.T) {
	limits := DefaultFrameLimits()
	if limits.MaxWidth != 4096 || limits.MaxHeight != 4096 {
		t.Errorf("Expected 4096x4096, got %dx%d", limits.MaxWidth, limits.MaxHeight)
	}
	if limits.MaxSequenceFrames != 64 {
		t.Errorf("Expected 64 frames, got %d", limits.MaxSequenceFrames)
	}
	if NewFrameValidator().Limits() != limits {
		t.Error("Expected NewFrameValidator to use the default limits")
	}
}

func TestValidateDimensions(t *testing.T) {
	v := NewFrameValidatorWithLimits(FrameLimits{MaxWidth: 100, MaxHeight: 50, MaxSequenceFrames: 4})

	tests := []struct {
		name    string
		w, h    int
		wantErr bool
	}{
		{"within limits", 100, 50, false},
		{"single pixel", 1, 1, false},
		{"too wide", 101, 50, true},
		{"too tall", 100, 51, true},
		{"empty", 0, 10, true},
		{"negative", 10, -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateDimensions(tt.w, tt.h)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateDimensions(%d, %d) error = %v, wantErr %v", tt.w, tt.h, err, tt.wantErr)
			}
			if err != nil && !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}
}

func TestValidatePair(t *testing.T) {
	v := NewFrameValidator()
	a := image.NewGray(image.Rect(0, 0, 20, 10))
	b := image.NewGray(image.Rect(5, 5, 25, 15))
	c := image.NewGray(image.Rect(0, 0, 10, 10))

	if err := v.ValidatePair(a, b); err != nil {
		t.Errorf("Expected frames of equal size to pass regardless of origin, got %v", err)
	}
	if err := v.ValidatePair(a, c); !apperrors.IsType(err, apperrors.ErrorTypeDimensionMismatch) {
		t.Errorf("Expected dimension mismatch, got %v", err)
	}
	if err := v.ValidatePair(nil, a); !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Expected validation error for a missing frame, got %v", err)
	}
}

func TestValidateSequenceLength(t *testing.T) {
	v := NewFrameValidatorWithLimits(FrameLimits{MaxWidth: 10, MaxHeight: 10, MaxSequenceFrames: 3})

	for n, wantErr := range map[int]bool{0: true, 1: true, 2: false, 3: false, 4: true} {
		err := v.ValidateSequenceLength(n)
		if (err != nil) != wantErr {
			t.Errorf("ValidateSequenceLength(%d) error = %v, wantErr %v", n, err, wantErr)
		}
	}
}

func TestValidateRawFrame(t *testing.T) {
	v := NewFrameValidator()

	if err := v.ValidateRawFrame(4, 3, 12); err != nil {
		t.Errorf("Expected matching sample count to pass, got %v", err)
	}
	if err := v.ValidateRawFrame(4, 3, 11); !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Expected validation error for short samples, got %v", err)
	}
	if err := v.ValidateRawFrame(0, 3, 0); err == nil {
		t.Error("Expected empty frame to fail")
	}
}
