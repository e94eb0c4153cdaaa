package analyzer

import (
	"image"

	"go-optical-flow/internal/flow"
	"go-optical-flow/internal/imaging"
	"go-optical-flow/pkg/models"
)

// FlowAnalyzer defines the main interface for flow analysis
type FlowAnalyzer interface {
	// AnalyzePair estimates the flow from frame1 to frame2
	AnalyzePair(frame1, frame2 image.Image, opts AnalysisOptions) (AnalysisResult, error)

	// AnalyzeImages is AnalyzePair for frames already in intensity form
	AnalyzeImages(frame1, frame2 *imaging.Image, opts AnalysisOptions) (AnalysisResult, error)

	// AnalyzeSequence analyzes every consecutive pair, in order
	AnalyzeSequence(frames []image.Image, opts AnalysisOptions) ([]AnalysisResult, error)

	// Lifecycle management
	Close() error
}

// MetricsCalculator handles flow statistics
type MetricsCalculator interface {
	Summarize(level int, f *flow.Field) models.LevelSummary
	Aggregate(pairs [][]models.LevelSummary) []models.LevelSummary
}
