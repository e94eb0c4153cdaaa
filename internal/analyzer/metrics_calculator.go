package analyzer

import (
	"math"
	"sync"

	"go-optical-flow/internal/flow"
	"go-optical-flow/pkg/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// metricsCalculator implements MetricsCalculator with Gonum statistics
type metricsCalculator struct {
	slicePool sync.Pool
}

// NewMetricsCalculator creates a new flow metrics calculator using Gonum
func NewMetricsCalculator() MetricsCalculator {
	return &metricsCalculator{
		slicePool: sync.Pool{
			New: func() interface{} {
				s := make([]float64, 0, 4096)
				return &s
			},
		},
	}
}

// Summarize computes the statistics of one solved level. A pixel counts as
// resolved when its vector is not exactly (0, 0).
func (mc *metricsCalculator) Summarize(level int, f *flow.Field) models.LevelSummary {
	summary := models.LevelSummary{
		Level:  level,
		Width:  f.Width,
		Height: f.Height,
	}
	total := f.Width * f.Height
	if total == 0 {
		return summary
	}

	buf := mc.slicePool.Get().(*[]float64)
	defer mc.slicePool.Put(buf)
	mags := (*buf)[:0]

	var sumU, sumV float64
	for i := range f.U {
		u, v := float64(f.U[i]), float64(f.V[i])
		if u == 0 && v == 0 {
			continue
		}
		sumU += u
		sumV += v
		mags = append(mags, math.Hypot(u, v))
	}
	*buf = mags

	n := len(mags)
	summary.ResolvedPixels = n
	summary.ResolvedFraction = float64(n) / float64(total)
	if n == 0 {
		return summary
	}

	summary.MeanMagnitude, summary.StdDevMagnitude = stat.PopMeanStdDev(mags, nil)
	summary.MaxMagnitude = floats.Max(mags)
	summary.MeanU = sumU / float64(n)
	summary.MeanV = sumV / float64(n)
	summary.DominantDirectionDeg = direction(summary.MeanU, summary.MeanV)
	return summary
}

// direction returns the angle of (u, v) in degrees in [0, 360), measured
// from +x towards +y.
func direction(u, v float64) float64 {
	if u == 0 && v == 0 {
		return 0
	}
	deg := math.Atan2(v, u) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Aggregate folds the summaries of several pairs together, weighting each
// level by its resolved pixel count. Summaries are matched by position.
func (mc *metricsCalculator) Aggregate(pairs [][]models.LevelSummary) []models.LevelSummary {
	if len(pairs) == 0 {
		return nil
	}
	out := make([]models.LevelSummary, len(pairs[0]))
	for i := range out {
		means := make([]float64, 0, len(pairs))
		weights := make([]float64, 0, len(pairs))
		us := make([]float64, 0, len(pairs))
		vs := make([]float64, 0, len(pairs))
		maxes := make([]float64, 0, len(pairs))
		var resolved, pixels int

		for _, levels := range pairs {
			if i >= len(levels) {
				continue
			}
			s := levels[i]
			out[i].Level, out[i].Width, out[i].Height = s.Level, s.Width, s.Height
			resolved += s.ResolvedPixels
			pixels += s.Width * s.Height
			if s.ResolvedPixels == 0 {
				continue
			}
			means = append(means, s.MeanMagnitude)
			us = append(us, s.MeanU)
			vs = append(vs, s.MeanV)
			maxes = append(maxes, s.MaxMagnitude)
			weights = append(weights, float64(s.ResolvedPixels))
		}

		out[i].ResolvedPixels = resolved
		if pixels > 0 {
			out[i].ResolvedFraction = float64(resolved) / float64(pixels)
		}
		if len(weights) == 0 {
			continue
		}
		out[i].MeanMagnitude = stat.Mean(means, weights)
		out[i].MeanU = stat.Mean(us, weights)
		out[i].MeanV = stat.Mean(vs, weights)
		out[i].MaxMagnitude = floats.Max(maxes)
		out[i].DominantDirectionDeg = direction(out[i].MeanU, out[i].MeanV)
	}
	return out
}
