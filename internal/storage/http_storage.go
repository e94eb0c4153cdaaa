package storage

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"time"

	apperrors "go-optical-flow/internal/errors"
	"go-optical-flow/pkg/validation"
)

const fetchAttempts = 3

// HTTPFrameFetcher downloads frames over HTTP(S) with retries.
type HTTPFrameFetcher struct {
	client  *http.Client
	backoff time.Duration
	limits  validation.FrameLimits
}

// NewHTTPFrameFetcher creates an HTTP frame fetcher whose requests time out
// after timeout
func NewHTTPFrameFetcher(timeout time.Duration) *HTTPFrameFetcher {
	transport := &http.Transport{
		// Connection pooling for short bursts of frame downloads
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		DisableCompression:     false,
		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPFrameFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,

			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		backoff: time.Second,
		limits:  validation.DefaultFrameLimits(),
	}
}

// WithBackoff sets the base delay between attempts; attempt n waits n*d.
func (h *HTTPFrameFetcher) WithBackoff(d time.Duration) *HTTPFrameFetcher {
	h.backoff = d
	return h
}

// WithLimits sets the largest frame dimensions the fetcher will decode.
func (h *HTTPFrameFetcher) WithLimits(limits validation.FrameLimits) *HTTPFrameFetcher {
	h.limits = limits
	return h
}

// Limits returns the dimension limits applied before decoding.
func (h *HTTPFrameFetcher) Limits() validation.FrameLimits {
	return h.limits
}

// FetchFrame downloads and decodes a frame. Network errors and 5xx
// responses are retried; 4xx responses fail at once.
func (h *HTTPFrameFetcher) FetchFrame(ctx context.Context, frameURL string) (image.Image, error) {
	var lastErr error

	for attempt := 0; attempt < fetchAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, apperrors.NewTimeoutError("frame fetch cancelled", ctx.Err())
			case <-time.After(time.Duration(attempt) * h.backoff):
			}
		}

		img, retry, err := h.fetchOnce(ctx, frameURL)
		if err == nil {
			return img, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}
	}

	return nil, apperrors.NewNetworkError(
		fmt.Sprintf("failed to fetch frame after %d attempts", fetchAttempts), lastErr)
}

// fetchOnce performs a single request and reports whether a failure is
// worth retrying.
func (h *HTTPFrameFetcher) fetchOnce(ctx context.Context, frameURL string) (image.Image, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, frameURL, nil)
	if err != nil {
		return nil, false, apperrors.NewValidationError("invalid frame URL", err)
	}
	req.Header.Set("Accept", "image/png, image/jpeg, image/gif, */*")
	req.Header.Set("User-Agent", "Go-Optical-Flow/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, apperrors.NewTimeoutError("frame fetch cancelled", ctx.Err())
		}
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		img, err := decodeFrame(resp.Body, frameURL, h.limits)
		return img, false, err
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, apperrors.NewNotFoundError(
			fmt.Sprintf("client error: status code %d", resp.StatusCode), nil)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, false, apperrors.NewNetworkError(
			fmt.Sprintf("client error: status code %d", resp.StatusCode), nil)
	default:
		return nil, true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	}
}
