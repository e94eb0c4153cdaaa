package repository

import (
	"context"
	"image"
)

// FrameRepository defines the data access operations for frames
type FrameRepository interface {
	// FetchFrame retrieves one frame from a URL
	FetchFrame(ctx context.Context, frameURL string) (image.Image, error)

	// FetchFrames retrieves several frames concurrently, in input order
	FetchFrames(ctx context.Context, frameURLs []string) ([]image.Image, error)

	// ValidateFrameURL validates if the provided URL is acceptable
	ValidateFrameURL(frameURL string) error
}

// FetchListener is told about every fetch outcome. It may be called
// concurrently.
type FetchListener func(frameURL string, img image.Image, err error)
