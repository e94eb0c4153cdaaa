package analyzer

import (
	"image"
	"image/color"
	"math"
	"testing"

	apperrors "go-optical-flow/internal/errors"
	"go-optical-flow/internal/imaging"
)

// createTexturedFrame creates a smooth grayscale pattern shifted right by dx
func createTexturedFrame(width, height int, dx float64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			fx := float64(x) - dx
			v := 128 + 60*math.Sin(fx/5)*math.Cos(float64(y)/7) + 30*math.Sin((fx+float64(y))/11)
			img.SetGray(x, y, color.Gray{Y: uint8(math.Round(v))})
		}
	}
	return img
}

// createColorFrame renders the textured pattern into an RGBA image
func createColorFrame(width, height int, dx float64) *image.RGBA {
	gray := createTexturedFrame(width, height, dx)
	img := image.NewRGBA(gray.Bounds())
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g := gray.GrayAt(x, y).Y
			img.Set(x, y, color.RGBA{g, g, g, 255})
		}
	}
	return img
}

func newTestAnalyzer(t *testing.T) FlowAnalyzer {
	t.Helper()
	a := NewFlowAnalyzer(4)
	if a == nil {
		t.Fatal("Expected non-nil analyzer")
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestAnalyzePair_IdenticalFrames(t *testing.T) {
	a := newTestAnalyzer(t)
	frame := createTexturedFrame(64, 48, 0)

	result, err := a.AnalyzePair(frame, frame, DefaultOptions())
	if err != nil {
		t.Fatalf("AnalyzePair() error = %v", err)
	}
	if result.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}
	if result.Width != 64 || result.Height != 48 {
		t.Errorf("Expected 64x48, got %dx%d", result.Width, result.Height)
	}
	if len(result.Levels) != 2 {
		t.Fatalf("Expected finest and coarsest summaries, got %d", len(result.Levels))
	}
	for _, level := range result.Levels {
		if level.ResolvedPixels != 0 {
			t.Errorf("Level %d: expected zero flow, got %d resolved pixels", level.Level, level.ResolvedPixels)
		}
	}
	if result.Field != nil {
		t.Error("Expected no dense field unless requested")
	}
}

func TestAnalyzePair_ReferenceLevels(t *testing.T) {
	a := newTestAnalyzer(t)
	result, err := a.AnalyzePair(createTexturedFrame(64, 48, 0), createTexturedFrame(64, 48, 1), DefaultOptions())
	if err != nil {
		t.Fatalf("AnalyzePair() error = %v", err)
	}

	want := []struct{ level, w, h int }{{0, 64, 48}, {2, 16, 12}}
	for i, w := range want {
		got := result.Levels[i]
		if got.Level != w.level || got.Width != w.w || got.Height != w.h {
			t.Errorf("Summary %d: got level %d %dx%d, want level %d %dx%d",
				i, got.Level, got.Width, got.Height, w.level, w.w, w.h)
		}
	}
	if result.Parameters.Strategy != "reference" || result.Parameters.Operator != "sobel" {
		t.Errorf("Unexpected parameters %+v", result.Parameters)
	}
}

func TestAnalyzePair_Translation(t *testing.T) {
	a := newTestAnalyzer(t)
	opts := FastOptions().WithField()

	result, err := a.AnalyzePair(createTexturedFrame(80, 60, 0), createTexturedFrame(80, 60, 1), opts)
	if err != nil {
		t.Fatalf("AnalyzePair() error = %v", err)
	}
	if len(result.Levels) != 1 {
		t.Fatalf("Expected one summary, got %d", len(result.Levels))
	}

	level := result.Levels[0]
	if level.ResolvedFraction < 0.5 {
		t.Errorf("Expected most pixels resolved, got %f", level.ResolvedFraction)
	}
	if math.Abs(level.MeanU-1) > 0.2 {
		t.Errorf("Expected mean u ~1, got %f", level.MeanU)
	}
	if math.Abs(level.MeanV) > 0.2 {
		t.Errorf("Expected mean v ~0, got %f", level.MeanV)
	}
	if level.DominantDirectionDeg > 15 && level.DominantDirectionDeg < 345 {
		t.Errorf("Expected rightward motion, got %f degrees", level.DominantDirectionDeg)
	}

	if result.Field == nil {
		t.Fatal("Expected dense field")
	}
	if result.Field.Width != 80 || result.Field.Height != 60 || len(result.Field.U) != 80*60 {
		t.Errorf("Unexpected field shape %dx%d (%d values)", result.Field.Width, result.Field.Height, len(result.Field.U))
	}
}

func TestAnalyzePair_ColorInput(t *testing.T) {
	a := newTestAnalyzer(t)
	gray, err := a.AnalyzePair(createTexturedFrame(40, 40, 0), createTexturedFrame(40, 40, 1), FastOptions())
	if err != nil {
		t.Fatalf("gray: %v", err)
	}
	rgba, err := a.AnalyzePair(createColorFrame(40, 40, 0), createColorFrame(40, 40, 1), FastOptions())
	if err != nil {
		t.Fatalf("rgba: %v", err)
	}
	if math.Abs(gray.Levels[0].MeanU-rgba.Levels[0].MeanU) > 1e-3 {
		t.Errorf("Gray and neutral RGBA frames should agree: %f vs %f", gray.Levels[0].MeanU, rgba.Levels[0].MeanU)
	}
}

func TestAnalyzePair_Errors(t *testing.T) {
	a := newTestAnalyzer(t)

	tests := []struct {
		name     string
		frame1   image.Image
		frame2   image.Image
		opts     AnalysisOptions
		wantType apperrors.ErrorType
	}{
		{"size mismatch", createTexturedFrame(100, 100, 0), createTexturedFrame(80, 80, 0), DefaultOptions(), apperrors.ErrorTypeDimensionMismatch},
		{"even window", createTexturedFrame(32, 32, 0), createTexturedFrame(32, 32, 0), DefaultOptions().WithWindowSize(4), apperrors.ErrorTypeInvalidParameter},
		{"zero levels", createTexturedFrame(32, 32, 0), createTexturedFrame(32, 32, 0), DefaultOptions().WithPyramid(0, 0.5), apperrors.ErrorTypeInvalidParameter},
		{"pyramid collapse", createTexturedFrame(8, 8, 0), createTexturedFrame(8, 8, 0), DefaultOptions().WithPyramid(5, 0.5), apperrors.ErrorTypePyramidCollapse},
		{"missing frame", nil, createTexturedFrame(8, 8, 0), DefaultOptions(), apperrors.ErrorTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.AnalyzePair(tt.frame1, tt.frame2, tt.opts)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !apperrors.IsType(err, tt.wantType) {
				t.Errorf("Expected %s, got %v", tt.wantType, err)
			}
		})
	}
}

func TestAnalyzeImages_EmptyFrame(t *testing.T) {
	a := newTestAnalyzer(t)
	_, err := a.AnalyzeImages(imaging.NewImage(0, 0), imaging.NewImage(0, 0), DefaultOptions())
	if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestAnalyzeSequence(t *testing.T) {
	a := newTestAnalyzer(t)

	frames := make([]image.Image, 5)
	for i := range frames {
		frames[i] = createTexturedFrame(64, 48, float64(i))
	}

	results, err := a.AnalyzeSequence(frames, FastOptions())
	if err != nil {
		t.Fatalf("AnalyzeSequence() error = %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("Expected 4 pair results, got %d", len(results))
	}
	for i, r := range results {
		if math.Abs(r.Levels[0].MeanU-1) > 0.2 {
			t.Errorf("Pair %d: expected mean u ~1, got %f", i, r.Levels[0].MeanU)
		}
	}
}

func TestAnalyzeSequence_MatchesPairs(t *testing.T) {
	a := newTestAnalyzer(t)
	frames := []image.Image{
		createTexturedFrame(48, 48, 0),
		createTexturedFrame(48, 48, 0),
		createTexturedFrame(48, 48, 2),
	}

	results, err := a.AnalyzeSequence(frames, FastOptions())
	if err != nil {
		t.Fatalf("AnalyzeSequence() error = %v", err)
	}
	if results[0].Levels[0].ResolvedPixels != 0 {
		t.Error("Expected identical first pair to give zero flow")
	}

	pair, err := a.AnalyzePair(frames[1], frames[2], FastOptions())
	if err != nil {
		t.Fatalf("AnalyzePair() error = %v", err)
	}
	if pair.Levels[0].MeanU != results[1].Levels[0].MeanU {
		t.Errorf("Sequence pair differs from direct pair: %f vs %f", results[1].Levels[0].MeanU, pair.Levels[0].MeanU)
	}
}

func TestAnalyzeSequence_Errors(t *testing.T) {
	a := newTestAnalyzer(t)

	_, err := a.AnalyzeSequence([]image.Image{createTexturedFrame(16, 16, 0)}, DefaultOptions())
	if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Expected validation error for a single frame, got %v", err)
	}

	frames := []image.Image{
		createTexturedFrame(32, 32, 0),
		createTexturedFrame(32, 32, 1),
		createTexturedFrame(24, 24, 0),
	}
	results, err := a.AnalyzeSequence(frames, FastOptions())
	if !apperrors.IsType(err, apperrors.ErrorTypeDimensionMismatch) {
		t.Errorf("Expected dimension mismatch, got %v", err)
	}
	if results != nil {
		t.Error("Expected no partial results")
	}
}

func TestClose_StillAnalyzes(t *testing.T) {
	a := NewFlowAnalyzer(2)
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	frame := createTexturedFrame(32, 32, 0)
	if _, err := a.AnalyzePair(frame, frame, DefaultOptions()); err != nil {
		t.Errorf("Expected inline fallback after Close, got %v", err)
	}
}
