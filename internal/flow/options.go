package flow

import (
	"fmt"
	"math"

	apperrors "go-optical-flow/internal/errors"
	"go-optical-flow/internal/gradient"
	"go-optical-flow/internal/workerpool"
)

const (
	// DefaultWindowSize is the window used when none is configured.
	DefaultWindowSize = 5
	// DefaultConditionThreshold rejects windows whose structure tensor is
	// this ill-conditioned or worse.
	DefaultConditionThreshold = 1000.0
)

// Options configures a Lucas-Kanade solve.
type Options struct {
	// WindowSize is the odd side length of the least-squares window.
	WindowSize int
	// ConditionThreshold is the smallest condition number that is rejected.
	ConditionThreshold float64
	// Operator selects the spatial derivative kernel.
	Operator gradient.Operator
	// Pool partitions rows across workers; nil solves rows sequentially.
	Pool *workerpool.WorkerPool
}

// DefaultOptions returns the reference solver settings.
func DefaultOptions() Options {
	return Options{
		WindowSize:         DefaultWindowSize,
		ConditionThreshold: DefaultConditionThreshold,
		Operator:           gradient.Sobel,
	}
}

// WithWindowSize returns options with the given window size
func (opts Options) WithWindowSize(size int) Options {
	opts.WindowSize = size
	return opts
}

// WithConditionThreshold returns options with the given rejection threshold
func (opts Options) WithConditionThreshold(threshold float64) Options {
	opts.ConditionThreshold = threshold
	return opts
}

// WithOperator returns options using the given derivative kernel
func (opts Options) WithOperator(op gradient.Operator) Options {
	opts.Operator = op
	return opts
}

// WithPool returns options that solve rows on the given pool
func (opts Options) WithPool(pool *workerpool.WorkerPool) Options {
	opts.Pool = pool
	return opts
}

// Validate checks the solver parameters. The operator itself is checked
// by the gradient package.
func (opts Options) Validate() error {
	if opts.WindowSize < 1 || opts.WindowSize%2 == 0 {
		return apperrors.NewInvalidParameterError(
			fmt.Sprintf("window size must be an odd integer >= 1, got %d", opts.WindowSize), nil)
	}
	if !(opts.ConditionThreshold > 1) || math.IsInf(opts.ConditionThreshold, 0) {
		return apperrors.NewInvalidParameterError(
			fmt.Sprintf("condition threshold must be a finite number > 1, got %v", opts.ConditionThreshold), nil)
	}
	return nil
}
