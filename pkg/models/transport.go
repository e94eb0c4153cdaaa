package models

// FlowOptionsRequest overrides the configured flow settings for one request.
// Nil fields keep the server defaults.
type FlowOptionsRequest struct {
	PyramidLevels      *int     `json:"pyramid_levels,omitempty"`
	ScaleFactor        *float64 `json:"scale_factor,omitempty"`
	WindowSize         *int     `json:"window_size,omitempty"`
	ConditionThreshold *float64 `json:"condition_threshold,omitempty"`
	Operator           *string  `json:"operator,omitempty"`
	Strategy           *string  `json:"strategy,omitempty"`
	IncludeField       bool     `json:"include_field,omitempty"`
}

// FlowRequest asks for the flow between two frames fetched by URL.
type FlowRequest struct {
	Frame1URL string             `json:"frame1_url" binding:"required,url"`
	Frame2URL string             `json:"frame2_url" binding:"required,url"`
	Options   FlowOptionsRequest `json:"options,omitempty"`
}

// SequenceRequest asks for the flow of every consecutive pair of frames.
type SequenceRequest struct {
	FrameURLs []string           `json:"frame_urls" binding:"required,min=2,dive,url"`
	Options   FlowOptionsRequest `json:"options,omitempty"`
}

// RawFrame is an inline grayscale frame, row-major on the 0..255 scale.
type RawFrame struct {
	Width  int       `json:"width" binding:"required,min=1"`
	Height int       `json:"height" binding:"required,min=1"`
	Pixels []float32 `json:"pixels" binding:"required"`
}

// RawFlowRequest asks for the flow between two inline frames.
type RawFlowRequest struct {
	Frame1  RawFrame           `json:"frame1"`
	Frame2  RawFrame           `json:"frame2"`
	Options FlowOptionsRequest `json:"options,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
}
