package repository

import (
	"context"
	"fmt"
	"image"

	"go-optical-flow/internal/storage"
	"go-optical-flow/pkg/validation"

	"golang.org/x/sync/errgroup"
)

// DefaultFetchConcurrency bounds parallel downloads of one sequence.
const DefaultFetchConcurrency = 4

// frameRepository implements FrameRepository on top of a storage fetcher
type frameRepository struct {
	fetcher     storage.FrameFetcher
	validator   *validation.URLValidator
	concurrency int
	listener    FetchListener
}

// NewFrameRepository creates a frame repository. listener may be nil.
func NewFrameRepository(fetcher storage.FrameFetcher, validator *validation.URLValidator, listener FetchListener) FrameRepository {
	if validator == nil {
		validator = validation.NewURLValidator()
	}
	return &frameRepository{
		fetcher:     fetcher,
		validator:   validator,
		concurrency: DefaultFetchConcurrency,
		listener:    listener,
	}
}

// FetchFrame validates the URL and retrieves the frame
func (r *frameRepository) FetchFrame(ctx context.Context, frameURL string) (image.Image, error) {
	if err := r.ValidateFrameURL(frameURL); err != nil {
		return nil, err
	}
	img, err := r.fetcher.FetchFrame(ctx, frameURL)
	if r.listener != nil {
		r.listener(frameURL, img, err)
	}
	return img, err
}

// FetchFrames validates every URL up front, then downloads with bounded
// concurrency. The first failure cancels the remaining downloads.
func (r *frameRepository) FetchFrames(ctx context.Context, frameURLs []string) ([]image.Image, error) {
	if err := r.validator.ValidateFrameURLs(frameURLs); err != nil {
		return nil, err
	}

	frames := make([]image.Image, len(frameURLs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, u := range frameURLs {
		i, u := i, u
		g.Go(func() error {
			img, err := r.FetchFrame(gctx, u)
			if err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			frames[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}

// ValidateFrameURL validates if the provided URL is acceptable
func (r *frameRepository) ValidateFrameURL(frameURL string) error {
	return r.validator.ValidateFrameURL(frameURL)
}
