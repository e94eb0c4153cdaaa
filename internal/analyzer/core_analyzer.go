package analyzer

import (
	"fmt"
	"image"
	"time"

	apperrors "go-optical-flow/internal/errors"
	"go-optical-flow/internal/imaging"
	"go-optical-flow/internal/logger"
	"go-optical-flow/internal/pyramid"
	"go-optical-flow/internal/strategy"
	"go-optical-flow/internal/workerpool"
	"go-optical-flow/pkg/models"

	"github.com/sirupsen/logrus"
)

// coreAnalyzer implements FlowAnalyzer and orchestrates the pyramid,
// strategy and solver for each frame pair
type coreAnalyzer struct {
	workerPool        *workerpool.WorkerPool
	metricsCalculator MetricsCalculator
}

// NewFlowAnalyzer creates a flow analyzer backed by a pool of the given
// size; workers <= 0 uses GOMAXPROCS
func NewFlowAnalyzer(workers int) FlowAnalyzer {
	workerPool := workerpool.NewWorkerPool(workers)
	workerPool.Start()

	return &coreAnalyzer{
		workerPool:        workerPool,
		metricsCalculator: NewMetricsCalculator(),
	}
}

// AnalyzePair converts both frames to intensity images and analyzes them
func (ca *coreAnalyzer) AnalyzePair(frame1, frame2 image.Image, opts AnalysisOptions) (AnalysisResult, error) {
	if frame1 == nil || frame2 == nil {
		return AnalysisResult{}, apperrors.NewValidationError("both frames are required", nil)
	}
	return ca.AnalyzeImages(imaging.FromImage(frame1), imaging.FromImage(frame2), opts)
}

// AnalyzeImages analyzes a pair of intensity images, splitting the solve
// across the worker pool
func (ca *coreAnalyzer) AnalyzeImages(frame1, frame2 *imaging.Image, opts AnalysisOptions) (AnalysisResult, error) {
	return ca.analyze(frame1, frame2, opts, ca.workerPool)
}

// AnalyzeSequence analyzes every consecutive pair of frames. Pairs run
// concurrently on the pool, each solved sequentially, and results keep
// pair order. The first failing pair fails the whole sequence.
func (ca *coreAnalyzer) AnalyzeSequence(frames []image.Image, opts AnalysisOptions) ([]AnalysisResult, error) {
	if len(frames) < 2 {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("a sequence needs at least 2 frames, got %d", len(frames)), nil)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	for i, f := range frames {
		if f == nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("frame %d is missing", i), nil)
		}
	}

	images := make([]*imaging.Image, len(frames))
	ca.workerPool.ParallelFor(len(frames), func(start, end int) {
		for i := start; i < end; i++ {
			images[i] = imaging.FromImage(frames[i])
		}
	})

	pairs := len(images) - 1
	results := make([]AnalysisResult, pairs)
	errs := make([]error, pairs)
	done := make(chan struct{}, pairs)
	for i := 0; i < pairs; i++ {
		i := i
		job := func() {
			defer func() { done <- struct{}{} }()
			results[i], errs[i] = ca.analyze(images[i], images[i+1], opts, nil)
		}
		if !ca.workerPool.Submit(job) {
			job()
		}
	}
	for i := 0; i < pairs; i++ {
		<-done
	}

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("pair %d: %w", i, err)
		}
	}
	return results, nil
}

// analyze runs one pair; pool may be nil for a sequential solve.
func (ca *coreAnalyzer) analyze(frame1, frame2 *imaging.Image, opts AnalysisOptions, pool *workerpool.WorkerPool) (AnalysisResult, error) {
	start := time.Now()

	if err := opts.Validate(); err != nil {
		return AnalysisResult{}, err
	}
	if frame1 == nil || frame2 == nil || frame1.Empty() || frame2.Empty() {
		return AnalysisResult{}, apperrors.NewValidationError("frames must be non-empty", nil)
	}
	if !imaging.SameSize(frame1, frame2) {
		return AnalysisResult{}, apperrors.NewDimensionMismatchError(
			fmt.Sprintf("frame sizes differ: %s vs %s", frame1, frame2), nil)
	}

	levelStrategy, err := strategy.ParseStrategy(opts.Strategy)
	if err != nil {
		return AnalysisResult{}, err
	}
	p1, err := pyramid.Build(frame1, opts.PyramidLevels, opts.ScaleFactor)
	if err != nil {
		return AnalysisResult{}, err
	}
	p2, err := pyramid.Build(frame2, opts.PyramidLevels, opts.ScaleFactor)
	if err != nil {
		return AnalysisResult{}, err
	}

	flowOpts := opts.flowOptions().WithPool(pool)
	levels, err := strategy.NewStrategyContext(levelStrategy).Execute(p1, p2, flowOpts)
	if err != nil {
		return AnalysisResult{}, err
	}

	result := AnalysisResult{
		Timestamp: start,
		Width:     frame1.Width,
		Height:    frame1.Height,
		Parameters: models.FlowParameters{
			PyramidLevels:      opts.PyramidLevels,
			ScaleFactor:        opts.ScaleFactor,
			WindowSize:         opts.WindowSize,
			ConditionThreshold: opts.ConditionThreshold,
			Operator:           string(flowOpts.Operator),
			Strategy:           levelStrategy.GetStrategyName(),
		},
		Levels: make([]models.LevelSummary, 0, len(levels)),
	}
	for _, lf := range levels {
		result.Levels = append(result.Levels, ca.metricsCalculator.Summarize(lf.Level, lf.Field))
	}
	if opts.IncludeField && len(levels) > 0 {
		f := levels[0].Field
		result.Field = &models.DenseField{Width: f.Width, Height: f.Height, U: f.U, V: f.V}
	}
	result.ProcessingTimeSec = time.Since(start).Seconds()

	logger.WithFields(logrus.Fields{
		"width":              result.Width,
		"height":             result.Height,
		"levels":             opts.PyramidLevels,
		"window_size":        opts.WindowSize,
		"strategy":           result.Parameters.Strategy,
		"processing_time_ms": time.Since(start).Milliseconds(),
	}).Debug("flow pair analyzed")

	return result, nil
}

// Close releases the worker pool
func (ca *coreAnalyzer) Close() error {
	ca.workerPool.Close()
	return nil
}
