// Package storage fetches and decodes frames from remote stores.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	apperrors "go-optical-flow/internal/errors"
	"go-optical-flow/pkg/validation"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// MaxFrameBytes bounds the encoded size of a single frame.
const MaxFrameBytes = 64 << 20

// FrameFetcher retrieves one decoded frame.
type FrameFetcher interface {
	FetchFrame(ctx context.Context, frameURL string) (image.Image, error)
}

// decodeFrame buffers the encoded frame and checks the dimensions declared
// in its header against limits before any pixel is decoded. Zero limits
// disable the dimension check.
func decodeFrame(r io.Reader, frameURL string, limits validation.FrameLimits) (image.Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFrameBytes+1))
	if err != nil {
		return nil, apperrors.NewNetworkError(fmt.Sprintf("failed to read frame %s", frameURL), err)
	}
	if len(data) > MaxFrameBytes {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("frame %s exceeds %d encoded bytes", frameURL, MaxFrameBytes), nil)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewProcessingError(fmt.Sprintf("failed to decode frame %s", frameURL), err)
	}
	if limits.MaxWidth > 0 && limits.MaxHeight > 0 {
		if err := validation.NewFrameValidatorWithLimits(limits).ValidateDimensions(cfg.Width, cfg.Height); err != nil {
			return nil, err
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewProcessingError(fmt.Sprintf("failed to decode frame %s", frameURL), err)
	}
	return img, nil
}
