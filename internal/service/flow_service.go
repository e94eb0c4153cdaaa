package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"go-optical-flow/internal/analyzer"
	apperrors "go-optical-flow/internal/errors"
	"go-optical-flow/internal/gradient"
	"go-optical-flow/internal/imaging"
	"go-optical-flow/internal/logger"
	"go-optical-flow/internal/observer"
	"go-optical-flow/internal/repository"
	"go-optical-flow/pkg/models"

	"github.com/sirupsen/logrus"
)

// FlowService defines the flow operations exposed over HTTP
type FlowService interface {
	// ComputeFlow fetches two frames and estimates the flow between them
	ComputeFlow(ctx context.Context, request models.FlowRequest) (*models.FlowResult, error)

	// ComputeSequenceFlow fetches a sequence and estimates every consecutive pair
	ComputeSequenceFlow(ctx context.Context, request models.SequenceRequest) (*models.SequenceResult, error)

	// ComputeRawFlow estimates the flow between two inline frames
	ComputeRawFlow(ctx context.Context, request models.RawFlowRequest) (*models.FlowResult, error)

	// ResolveOptions applies request overrides to the service defaults
	ResolveOptions(overrides models.FlowOptionsRequest) (analyzer.AnalysisOptions, error)
}

type requestIDKey struct{}

// WithRequestID tags ctx with the request ID used in events and logs
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFrom returns the request ID stored by WithRequestID
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// flowService implements FlowService
type flowService struct {
	frameRepo       repository.FrameRepository
	analyzer        analyzer.FlowAnalyzer
	validator       FrameValidator
	publisher       observer.Subject
	defaults        analyzer.AnalysisOptions
	analysisTimeout time.Duration
	metrics         analyzer.MetricsCalculator
}

// FrameValidator checks frames before they reach the analyzer
type FrameValidator interface {
	ValidatePair(frame1, frame2 image.Image) error
	ValidateFrame(img image.Image) error
	ValidateSequenceLength(n int) error
	ValidateRawFrame(width, height, samples int) error
}

// NewFlowService creates a new flow service. publisher may be nil.
func NewFlowService(
	frameRepository repository.FrameRepository,
	flowAnalyzer analyzer.FlowAnalyzer,
	validator FrameValidator,
	publisher observer.Subject,
	defaults analyzer.AnalysisOptions,
	analysisTimeout time.Duration,
) FlowService {
	return &flowService{
		frameRepo:       frameRepository,
		analyzer:        flowAnalyzer,
		validator:       validator,
		publisher:       publisher,
		defaults:        defaults,
		analysisTimeout: analysisTimeout,
		metrics:         analyzer.NewMetricsCalculator(),
	}
}

// ComputeFlow performs pair analysis on two fetched frames
func (s *flowService) ComputeFlow(ctx context.Context, request models.FlowRequest) (*models.FlowResult, error) {
	opts, err := s.ResolveOptions(request.Options)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	s.notify(ctx, observer.FlowEvent{EventType: observer.FlowStarted, Pairs: 1})

	frames, err := s.frameRepo.FetchFrames(ctx, []string{request.Frame1URL, request.Frame2URL})
	if err != nil {
		return nil, s.fail(ctx, start, wrapFetchError(err))
	}
	if err := s.validator.ValidatePair(frames[0], frames[1]); err != nil {
		return nil, s.fail(ctx, start, err)
	}

	result, err := s.runAnalysis(ctx, func() (analyzer.AnalysisResult, error) {
		return s.analyzer.AnalyzePair(frames[0], frames[1], opts)
	})
	if err != nil {
		return nil, s.fail(ctx, start, err)
	}

	result.ID = RequestIDFrom(ctx)
	result.Frame1URL = request.Frame1URL
	result.Frame2URL = request.Frame2URL
	s.complete(ctx, start, 1, resolvedPixels(result))
	return &result, nil
}

// ComputeSequenceFlow performs pair analysis on every consecutive pair
func (s *flowService) ComputeSequenceFlow(ctx context.Context, request models.SequenceRequest) (*models.SequenceResult, error) {
	if err := s.validator.ValidateSequenceLength(len(request.FrameURLs)); err != nil {
		return nil, err
	}
	opts, err := s.ResolveOptions(request.Options)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	pairs := len(request.FrameURLs) - 1
	s.notify(ctx, observer.FlowEvent{EventType: observer.FlowStarted, Pairs: pairs})

	frames, err := s.frameRepo.FetchFrames(ctx, request.FrameURLs)
	if err != nil {
		return nil, s.fail(ctx, start, wrapFetchError(err))
	}
	for i := 1; i < len(frames); i++ {
		if err := s.validator.ValidatePair(frames[i-1], frames[i]); err != nil {
			return nil, s.fail(ctx, start, fmt.Errorf("frames %d and %d: %w", i-1, i, err))
		}
	}

	var results []analyzer.AnalysisResult
	_, err = s.runAnalysis(ctx, func() (analyzer.AnalysisResult, error) {
		var err error
		results, err = s.analyzer.AnalyzeSequence(frames, opts)
		return analyzer.AnalysisResult{}, err
	})
	if err != nil {
		return nil, s.fail(ctx, start, err)
	}

	summaries := make([][]models.LevelSummary, len(results))
	var resolved int
	for i := range results {
		results[i].Frame1URL = request.FrameURLs[i]
		results[i].Frame2URL = request.FrameURLs[i+1]
		summaries[i] = results[i].Levels
		resolved += resolvedPixels(results[i])
	}

	sequence := &models.SequenceResult{
		ID:                RequestIDFrom(ctx),
		Timestamp:         start,
		ProcessingTimeSec: time.Since(start).Seconds(),
		Frames:            len(frames),
		Pairs:             results,
		Summary:           s.metrics.Aggregate(summaries),
	}
	s.complete(ctx, start, pairs, resolved)
	return sequence, nil
}

// ComputeRawFlow analyzes two inline frames; nothing is fetched
func (s *flowService) ComputeRawFlow(ctx context.Context, request models.RawFlowRequest) (*models.FlowResult, error) {
	opts, err := s.ResolveOptions(request.Options)
	if err != nil {
		return nil, err
	}

	frame1, err := s.rawImage(request.Frame1)
	if err != nil {
		return nil, apperrors.NewValidationError("frame1 is invalid", err)
	}
	frame2, err := s.rawImage(request.Frame2)
	if err != nil {
		return nil, apperrors.NewValidationError("frame2 is invalid", err)
	}
	if !imaging.SameSize(frame1, frame2) {
		return nil, apperrors.NewDimensionMismatchError(
			fmt.Sprintf("frame sizes differ: %s vs %s", frame1, frame2), nil)
	}

	start := time.Now()
	s.notify(ctx, observer.FlowEvent{EventType: observer.FlowStarted, Pairs: 1})

	result, err := s.runAnalysis(ctx, func() (analyzer.AnalysisResult, error) {
		return s.analyzer.AnalyzeImages(frame1, frame2, opts)
	})
	if err != nil {
		return nil, s.fail(ctx, start, err)
	}

	result.ID = RequestIDFrom(ctx)
	s.complete(ctx, start, 1, resolvedPixels(result))
	return &result, nil
}

// ResolveOptions overlays the non-nil request fields on the defaults and
// validates the outcome
func (s *flowService) ResolveOptions(overrides models.FlowOptionsRequest) (analyzer.AnalysisOptions, error) {
	opts := s.defaults

	if overrides.PyramidLevels != nil {
		opts.PyramidLevels = *overrides.PyramidLevels
	}
	if overrides.ScaleFactor != nil {
		opts.ScaleFactor = *overrides.ScaleFactor
	}
	if overrides.WindowSize != nil {
		opts = opts.WithWindowSize(*overrides.WindowSize)
	}
	if overrides.ConditionThreshold != nil {
		opts = opts.WithConditionThreshold(*overrides.ConditionThreshold)
	}
	if overrides.Operator != nil {
		opts = opts.WithOperator(gradient.Operator(*overrides.Operator))
	}
	if overrides.Strategy != nil {
		opts = opts.WithStrategy(*overrides.Strategy)
	}
	if overrides.IncludeField {
		opts = opts.WithField()
	}

	if err := opts.Validate(); err != nil {
		return analyzer.AnalysisOptions{}, err
	}
	return opts, nil
}

func (s *flowService) rawImage(frame models.RawFrame) (*imaging.Image, error) {
	if err := s.validator.ValidateRawFrame(frame.Width, frame.Height, len(frame.Pixels)); err != nil {
		return nil, err
	}
	return imaging.FromPixels(frame.Width, frame.Height, frame.Pixels)
}

// runAnalysis bounds the CPU-bound solve by the analysis timeout. The solve
// itself is not interruptible, so the deadline is checked on both sides.
func (s *flowService) runAnalysis(ctx context.Context, run func() (analyzer.AnalysisResult, error)) (analyzer.AnalysisResult, error) {
	if s.analysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.analysisTimeout)
		defer cancel()
	}

	if err := ctx.Err(); err != nil {
		return analyzer.AnalysisResult{}, apperrors.NewTimeoutError("flow analysis cancelled", err)
	}
	result, err := run()
	if err != nil {
		return analyzer.AnalysisResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return analyzer.AnalysisResult{}, apperrors.NewTimeoutError("flow analysis exceeded its deadline", err)
	}
	return result, nil
}

func (s *flowService) notify(ctx context.Context, event observer.FlowEvent) {
	if s.publisher == nil {
		return
	}
	event.RequestID = RequestIDFrom(ctx)
	s.publisher.NotifyObservers(ctx, event)
}

func (s *flowService) fail(ctx context.Context, start time.Time, err error) error {
	s.notify(ctx, observer.FlowEvent{
		EventType:      observer.FlowFailed,
		ProcessingTime: time.Since(start),
		ErrorMessage:   err.Error(),
	})
	logger.WithRequest(RequestIDFrom(ctx)).WithError(err).Debug("flow request failed")
	return err
}

func (s *flowService) complete(ctx context.Context, start time.Time, pairs, resolved int) {
	elapsed := time.Since(start)
	s.notify(ctx, observer.FlowEvent{
		EventType:      observer.FlowCompleted,
		Pairs:          pairs,
		ResolvedPixels: resolved,
		ProcessingTime: elapsed,
		Success:        true,
	})
	logger.WithRequest(RequestIDFrom(ctx)).WithFields(logrus.Fields{
		"pairs":              pairs,
		"resolved_pixels":    resolved,
		"processing_time_ms": elapsed.Milliseconds(),
	}).Debug("flow request completed")
}

// resolvedPixels counts the resolved pixels of the finest solved level.
func resolvedPixels(result analyzer.AnalysisResult) int {
	if len(result.Levels) == 0 {
		return 0
	}
	return result.Levels[0].ResolvedPixels
}

// wrapFetchError keeps typed repository errors and classifies the rest.
func wrapFetchError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("frame fetch timeout", err)
	}
	return apperrors.NewNetworkError("failed to fetch frames", err)
}
