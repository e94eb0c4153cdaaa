package models

import "time"

// FlowResult is the outcome of estimating flow between one pair of frames.
type FlowResult struct {
	ID                string    `json:"id,omitempty"`
	Frame1URL         string    `json:"frame1_url,omitempty"`
	Frame2URL         string    `json:"frame2_url,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
	ProcessingTimeSec float64   `json:"processing_time_sec"`

	Width      int            `json:"width"`
	Height     int            `json:"height"`
	Parameters FlowParameters `json:"parameters"`

	// Levels holds one summary per solved pyramid level, level 0 first.
	Levels []LevelSummary `json:"levels"`

	// Field is the dense level 0 flow, only filled on request.
	Field *DenseField `json:"field,omitempty"`
}

// FlowParameters records the settings a result was computed with.
type FlowParameters struct {
	PyramidLevels      int     `json:"pyramid_levels"`
	ScaleFactor        float64 `json:"scale_factor"`
	WindowSize         int     `json:"window_size"`
	ConditionThreshold float64 `json:"condition_threshold"`
	Operator           string  `json:"operator"`
	Strategy           string  `json:"strategy"`
}

// LevelSummary describes the flow solved at one pyramid level.
// Statistics other than the pixel counts cover resolved pixels only.
type LevelSummary struct {
	Level  int `json:"level"`
	Width  int `json:"width"`
	Height int `json:"height"`

	ResolvedPixels   int     `json:"resolved_pixels"`
	ResolvedFraction float64 `json:"resolved_fraction"`

	MeanMagnitude   float64 `json:"mean_magnitude"`
	MaxMagnitude    float64 `json:"max_magnitude"`
	StdDevMagnitude float64 `json:"stddev_magnitude"`
	MeanU           float64 `json:"mean_u"`
	MeanV           float64 `json:"mean_v"`

	// DominantDirectionDeg is the angle of the mean vector, counter-clockwise
	// from +x with y pointing down the image, in [0, 360).
	DominantDirectionDeg float64 `json:"dominant_direction_deg"`
}

// DenseField is the wire form of a flow field, row-major.
type DenseField struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	U      []float32 `json:"u"`
	V      []float32 `json:"v"`
}

// SequenceResult holds the results of every consecutive pair of a sequence.
type SequenceResult struct {
	ID                string       `json:"id,omitempty"`
	Timestamp         time.Time    `json:"timestamp"`
	ProcessingTimeSec float64      `json:"processing_time_sec"`
	Frames            int          `json:"frames"`
	Pairs             []FlowResult `json:"pairs"`

	// Summary folds the per-pair level summaries together, weighted by
	// resolved pixels.
	Summary []LevelSummary `json:"summary"`
}
