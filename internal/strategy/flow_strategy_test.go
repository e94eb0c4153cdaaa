package strategy

import (
	"math"
	"testing"

	apperrors "go-optical-flow/internal/errors"
	"go-optical-flow/internal/flow"
	"go-optical-flow/internal/imaging"
	"go-optical-flow/internal/pyramid"
)

func pattern(w, h int, dx float64) *imaging.Image {
	img := imaging.NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			fx := float64(x) - dx
			img.Set(x, y, float32(128+60*math.Sin(fx/5)*math.Cos(float64(y)/7)))
		}
	}
	return img
}

func pyramids(t *testing.T, levels int) (pyramid.Pyramid, pyramid.Pyramid) {
	t.Helper()
	p1, err := pyramid.Build(pattern(64, 48, 0), levels, 0.5)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	p2, err := pyramid.Build(pattern(64, 48, 1), levels, 0.5)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return p1, p2
}

func TestStrategies_Levels(t *testing.T) {
	tests := []struct {
		name       string
		strategy   FlowStrategy
		levels     int
		wantLevels []int
		wantSizes  [][2]int
	}{
		{"reference three levels", NewReferenceStrategy(), 3, []int{0, 2}, [][2]int{{64, 48}, {16, 12}}},
		{"reference single level", NewReferenceStrategy(), 1, []int{0}, [][2]int{{64, 48}}},
		{"fine", NewFineStrategy(), 3, []int{0}, [][2]int{{64, 48}}},
		{"coarse-to-fine", NewCoarseToFineStrategy(), 3, []int{0}, [][2]int{{64, 48}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p1, p2 := pyramids(t, tt.levels)
			got, err := tt.strategy.Estimate(p1, p2, flow.DefaultOptions())
			if err != nil {
				t.Fatalf("Estimate() error = %v", err)
			}
			if len(got) != len(tt.wantLevels) {
				t.Fatalf("got %d levels, want %d", len(got), len(tt.wantLevels))
			}
			for i, lf := range got {
				if lf.Level != tt.wantLevels[i] {
					t.Errorf("result %d level = %d, want %d", i, lf.Level, tt.wantLevels[i])
				}
				if lf.Field.Width != tt.wantSizes[i][0] || lf.Field.Height != tt.wantSizes[i][1] {
					t.Errorf("result %d size = %s, want %v", i, lf.Field, tt.wantSizes[i])
				}
			}
		})
	}
}

func TestReferenceStrategy_LevelsAreIndependent(t *testing.T) {
	p1, p2 := pyramids(t, 3)
	got, err := NewReferenceStrategy().Estimate(p1, p2, flow.DefaultOptions())
	if err != nil {
		t.Fatalf("Estimate() error = %v", err)
	}

	want, err := flow.LucasKanade(p1.Coarsest(), p2.Coarsest(), flow.DefaultOptions())
	if err != nil {
		t.Fatalf("LucasKanade() error = %v", err)
	}
	for i := range want.U {
		if got[1].Field.U[i] != want.U[i] || got[1].Field.V[i] != want.V[i] {
			t.Fatalf("coarsest level differs from a direct solve at %d", i)
		}
	}
}

func TestStrategies_RejectMismatchedPyramids(t *testing.T) {
	p1, _ := pyramids(t, 3)
	_, p2 := pyramids(t, 2)

	for _, s := range []FlowStrategy{NewReferenceStrategy(), NewFineStrategy(), NewCoarseToFineStrategy()} {
		_, err := s.Estimate(p1, p2, flow.DefaultOptions())
		if !apperrors.IsType(err, apperrors.ErrorTypeDimensionMismatch) {
			t.Errorf("%s: expected dimension mismatch, got %v", s.GetStrategyName(), err)
		}
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"", ReferenceName, false},
		{"reference", ReferenceName, false},
		{" FINE ", FineName, false},
		{"coarse-to-fine", CoarseToFineName, false},
		{"pyramidal", CoarseToFineName, false},
		{"horn-schunck", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s, err := ParseStrategy(tt.input)
			if tt.wantErr {
				if !apperrors.IsType(err, apperrors.ErrorTypeInvalidParameter) {
					t.Errorf("expected invalid parameter, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s.GetStrategyName() != tt.want {
				t.Errorf("got %s, want %s", s.GetStrategyName(), tt.want)
			}
		})
	}
}

func TestStrategyContext(t *testing.T) {
	ctx := NewStrategyContext(NewReferenceStrategy())
	if ctx.GetCurrentStrategy() != ReferenceName {
		t.Errorf("got %s", ctx.GetCurrentStrategy())
	}

	ctx.SetStrategy(NewFineStrategy())
	if ctx.GetCurrentStrategy() != FineName {
		t.Errorf("got %s", ctx.GetCurrentStrategy())
	}

	p1, p2 := pyramids(t, 2)
	got, err := ctx.Execute(p1, p2, flow.DefaultOptions())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(got) != 1 || got[0].Level != 0 {
		t.Errorf("unexpected levels %+v", got)
	}
}
