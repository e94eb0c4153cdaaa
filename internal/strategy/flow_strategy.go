package strategy

import (
	"fmt"
	"strings"

	apperrors "go-optical-flow/internal/errors"
	"go-optical-flow/internal/flow"
	"go-optical-flow/internal/pyramid"
)

// Strategy names accepted by ParseStrategy.
const (
	ReferenceName    = "reference"
	FineName         = "fine"
	CoarseToFineName = "coarse-to-fine"
)

// LevelFlow is the flow solved at one pyramid level.
type LevelFlow struct {
	Level int
	Field *flow.Field
}

// FlowStrategy decides which pyramid levels are solved and how.
type FlowStrategy interface {
	Estimate(p1, p2 pyramid.Pyramid, opts flow.Options) ([]LevelFlow, error)
	GetStrategyName() string
}

// ReferenceStrategy solves the finest and the coarsest level independently.
// With a single-level pyramid the one level is solved once.
type ReferenceStrategy struct{}

// NewReferenceStrategy creates the default level strategy
func NewReferenceStrategy() FlowStrategy {
	return &ReferenceStrategy{}
}

// Estimate returns level 0 first, then the coarsest level.
func (s *ReferenceStrategy) Estimate(p1, p2 pyramid.Pyramid, opts flow.Options) ([]LevelFlow, error) {
	if err := checkShapes(p1, p2); err != nil {
		return nil, err
	}
	levels := []int{0}
	if p1.Len() > 1 {
		levels = append(levels, p1.Len()-1)
	}

	out := make([]LevelFlow, 0, len(levels))
	for _, k := range levels {
		f, err := flow.LucasKanade(p1.Level(k), p2.Level(k), opts)
		if err != nil {
			return nil, fmt.Errorf("level %d: %w", k, err)
		}
		out = append(out, LevelFlow{Level: k, Field: f})
	}
	return out, nil
}

// GetStrategyName returns the strategy name
func (s *ReferenceStrategy) GetStrategyName() string {
	return ReferenceName
}

// FineStrategy solves level 0 only.
type FineStrategy struct{}

// NewFineStrategy creates a strategy that ignores coarser levels
func NewFineStrategy() FlowStrategy {
	return &FineStrategy{}
}

// Estimate solves the finest level
func (s *FineStrategy) Estimate(p1, p2 pyramid.Pyramid, opts flow.Options) ([]LevelFlow, error) {
	if err := checkShapes(p1, p2); err != nil {
		return nil, err
	}
	f, err := flow.LucasKanade(p1.Finest(), p2.Finest(), opts)
	if err != nil {
		return nil, err
	}
	return []LevelFlow{{Level: 0, Field: f}}, nil
}

// GetStrategyName returns the strategy name
func (s *FineStrategy) GetStrategyName() string {
	return FineName
}

// CoarseToFineStrategy propagates the estimate from the coarsest level down
// to level 0.
type CoarseToFineStrategy struct{}

// NewCoarseToFineStrategy creates the refining strategy
func NewCoarseToFineStrategy() FlowStrategy {
	return &CoarseToFineStrategy{}
}

// Estimate returns the refined level 0 field
func (s *CoarseToFineStrategy) Estimate(p1, p2 pyramid.Pyramid, opts flow.Options) ([]LevelFlow, error) {
	f, err := flow.Refine(p1, p2, opts)
	if err != nil {
		return nil, err
	}
	return []LevelFlow{{Level: 0, Field: f}}, nil
}

// GetStrategyName returns the strategy name
func (s *CoarseToFineStrategy) GetStrategyName() string {
	return CoarseToFineName
}

// ParseStrategy resolves a strategy by name. The empty string selects the
// reference strategy.
func ParseStrategy(name string) (FlowStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ReferenceName:
		return NewReferenceStrategy(), nil
	case FineName:
		return NewFineStrategy(), nil
	case CoarseToFineName, "pyramidal":
		return NewCoarseToFineStrategy(), nil
	default:
		return nil, apperrors.NewInvalidParameterError(fmt.Sprintf("unknown flow strategy %q", name), nil)
	}
}

func checkShapes(p1, p2 pyramid.Pyramid) error {
	if p1.Len() == 0 || !pyramid.SameShape(p1, p2) {
		return apperrors.NewDimensionMismatchError(
			fmt.Sprintf("pyramid shapes differ: %v vs %v", p1.Sizes(), p2.Sizes()), nil)
	}
	return nil
}

// StrategyContext manages the level strategy
type StrategyContext struct {
	strategy FlowStrategy
}

// NewStrategyContext creates a new strategy context
func NewStrategyContext(strategy FlowStrategy) *StrategyContext {
	return &StrategyContext{
		strategy: strategy,
	}
}

// SetStrategy changes the level strategy
func (c *StrategyContext) SetStrategy(strategy FlowStrategy) {
	c.strategy = strategy
}

// Execute estimates flow using the current strategy
func (c *StrategyContext) Execute(p1, p2 pyramid.Pyramid, opts flow.Options) ([]LevelFlow, error) {
	return c.strategy.Estimate(p1, p2, opts)
}

// GetCurrentStrategy returns the current strategy name
func (c *StrategyContext) GetCurrentStrategy() string {
	return c.strategy.GetStrategyName()
}
