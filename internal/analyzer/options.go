package analyzer

import (
	"fmt"

	apperrors "go-optical-flow/internal/errors"
	"go-optical-flow/internal/flow"
	"go-optical-flow/internal/gradient"
	"go-optical-flow/internal/strategy"
)

// AnalysisOptions provides flexible configuration for flow analysis
type AnalysisOptions struct {
	// Pyramid
	PyramidLevels int
	ScaleFactor   float64

	// Solver
	WindowSize         int
	ConditionThreshold float64
	Operator           gradient.Operator

	// Strategy selects which levels are solved, see strategy.ParseStrategy
	Strategy string

	// IncludeField attaches the dense level 0 field to the result
	IncludeField bool
}

// DefaultOptions returns the reference analysis settings
func DefaultOptions() AnalysisOptions {
	return AnalysisOptions{
		PyramidLevels:      3,
		ScaleFactor:        0.5,
		WindowSize:         7,
		ConditionThreshold: flow.DefaultConditionThreshold,
		Operator:           gradient.Sobel,
		Strategy:           strategy.ReferenceName,
		IncludeField:       false,
	}
}

// FastOptions returns options that solve the original resolution only
func FastOptions() AnalysisOptions {
	opts := DefaultOptions()
	opts.PyramidLevels = 1
	opts.WindowSize = 5
	opts.Strategy = strategy.FineName
	return opts
}

// RefinedOptions returns options for coarse-to-fine estimation
func RefinedOptions() AnalysisOptions {
	opts := DefaultOptions()
	opts.Strategy = strategy.CoarseToFineName
	return opts
}

// WithWindowSize returns options with the given solver window
func (opts AnalysisOptions) WithWindowSize(size int) AnalysisOptions {
	opts.WindowSize = size
	return opts
}

// WithPyramid returns options with the given level count and scale factor
func (opts AnalysisOptions) WithPyramid(levels int, scale float64) AnalysisOptions {
	opts.PyramidLevels = levels
	opts.ScaleFactor = scale
	return opts
}

// WithOperator returns options using the given derivative operator
func (opts AnalysisOptions) WithOperator(op gradient.Operator) AnalysisOptions {
	opts.Operator = op
	return opts
}

// WithStrategy returns options using the named level strategy
func (opts AnalysisOptions) WithStrategy(name string) AnalysisOptions {
	opts.Strategy = name
	return opts
}

// WithConditionThreshold returns options with the given rejection threshold
func (opts AnalysisOptions) WithConditionThreshold(threshold float64) AnalysisOptions {
	opts.ConditionThreshold = threshold
	return opts
}

// WithField returns options that attach the dense field to results
func (opts AnalysisOptions) WithField() AnalysisOptions {
	opts.IncludeField = true
	return opts
}

// Validate checks every option before any frame is touched.
func (opts AnalysisOptions) Validate() error {
	if opts.PyramidLevels < 1 {
		return apperrors.NewInvalidParameterError(
			fmt.Sprintf("pyramid levels must be >= 1, got %d", opts.PyramidLevels), nil)
	}
	if !(opts.ScaleFactor > 0 && opts.ScaleFactor < 1) {
		return apperrors.NewInvalidParameterError(
			fmt.Sprintf("scale factor must be in (0, 1), got %v", opts.ScaleFactor), nil)
	}
	if _, err := gradient.ParseOperator(string(opts.Operator)); err != nil {
		return err
	}
	if _, err := strategy.ParseStrategy(opts.Strategy); err != nil {
		return err
	}
	return opts.flowOptions().Validate()
}

// flowOptions maps the analysis options onto solver options. The operator
// is normalised so aliases such as "basic" reach the solver resolved.
func (opts AnalysisOptions) flowOptions() flow.Options {
	op, err := gradient.ParseOperator(string(opts.Operator))
	if err != nil {
		op = opts.Operator
	}
	return flow.DefaultOptions().
		WithWindowSize(opts.WindowSize).
		WithConditionThreshold(opts.ConditionThreshold).
		WithOperator(op)
}
