package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-optical-flow/internal/analyzer"
	"go-optical-flow/internal/config"
	apperrors "go-optical-flow/internal/errors"
	"go-optical-flow/internal/observer"
	"go-optical-flow/internal/service"
	"go-optical-flow/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubService returns canned results and records the request ID it saw
type stubService struct {
	err       error
	requestID string
	frames    int
}

func (s *stubService) ComputeFlow(ctx context.Context, request models.FlowRequest) (*models.FlowResult, error) {
	s.requestID = service.RequestIDFrom(ctx)
	if s.err != nil {
		return nil, s.err
	}
	return &models.FlowResult{ID: s.requestID, Frame1URL: request.Frame1URL, Width: 8, Height: 6}, nil
}

func (s *stubService) ComputeSequenceFlow(ctx context.Context, request models.SequenceRequest) (*models.SequenceResult, error) {
	s.frames = len(request.FrameURLs)
	if s.err != nil {
		return nil, s.err
	}
	return &models.SequenceResult{Frames: len(request.FrameURLs)}, nil
}

func (s *stubService) ComputeRawFlow(ctx context.Context, request models.RawFlowRequest) (*models.FlowResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.FlowResult{Width: request.Frame1.Width, Height: request.Frame1.Height}, nil
}

func (s *stubService) ResolveOptions(overrides models.FlowOptionsRequest) (analyzer.AnalysisOptions, error) {
	return analyzer.DefaultOptions(), nil
}

type stubMetrics struct{}

func (stubMetrics) GetMetrics() observer.MetricsSnapshot {
	return observer.MetricsSnapshot{TotalRequests: 7}
}

func newTestHandler(svc service.FlowService) http.Handler {
	gin.SetMode(gin.TestMode)
	return NewHandler(svc, stubMetrics{}, &config.Config{
		RequestTimeout:     5 * time.Second,
		MaxRequestBodySize: 1 << 20,
	})
}

func do(t *testing.T, h http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v[0])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestHandler(&stubService{})

	rec := do(t, h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "available", health.Status)

	rec = do(t, h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var snapshot observer.MetricsSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Equal(t, int64(7), snapshot.TotalRequests)
}

func TestComputeFlow_RequestID(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(svc)
	body := `{"frame1_url":"https://frames.test/0.png","frame2_url":"https://frames.test/1.png"}`

	t.Run("generated", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/v1/flow", body, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		id := rec.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
		assert.Equal(t, id, svc.requestID)
	})

	t.Run("propagated", func(t *testing.T) {
		id := uuid.NewString()
		rec := do(t, h, http.MethodPost, "/v1/flow", body, http.Header{RequestIDHeader: {id}})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, id, rec.Header().Get(RequestIDHeader))

		var result models.FlowResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, id, result.ID)
		assert.Equal(t, "https://frames.test/0.png", result.Frame1URL)
	})

	t.Run("malformed header replaced", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/v1/flow", body, http.Header{RequestIDHeader: {"not a uuid"}})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEqual(t, "not a uuid", rec.Header().Get(RequestIDHeader))
	})
}

func TestComputeFlow_BadRequest(t *testing.T) {
	h := newTestHandler(&stubService{})

	for name, body := range map[string]string{
		"not json":    `{`,
		"missing url": `{"frame1_url":"https://frames.test/0.png"}`,
		"invalid url": `{"frame1_url":"nope","frame2_url":"https://frames.test/1.png"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/flow", body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.RequestID)
		})
	}
}

func TestComputeFlow_ErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperrors.NewInvalidParameterError("window", nil), http.StatusBadRequest},
		{apperrors.NewUnknownOperatorError("op", nil), http.StatusBadRequest},
		{apperrors.NewDimensionMismatchError("size", nil), http.StatusUnprocessableEntity},
		{apperrors.NewPyramidCollapseError("tiny", nil), http.StatusUnprocessableEntity},
		{apperrors.NewNotFoundError("gone", nil), http.StatusNotFound},
		{apperrors.NewTimeoutError("slow", nil), http.StatusGatewayTimeout},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{assert.AnError, http.StatusInternalServerError},
	}
	body := `{"frame1_url":"https://frames.test/0.png","frame2_url":"https://frames.test/1.png"}`

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			h := newTestHandler(&stubService{err: tt.err})
			rec := do(t, h, http.MethodPost, "/v1/flow", body, nil)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestComputeSequenceFlow(t *testing.T) {
	svc := &stubService{}
	h := newTestHandler(svc)

	rec := do(t, h, http.MethodPost, "/v1/flow/sequence",
		`{"frame_urls":["https://frames.test/0.png","https://frames.test/1.png","https://frames.test/2.png"]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 3, svc.frames)

	rec = do(t, h, http.MethodPost, "/v1/flow/sequence", `{"frame_urls":["https://frames.test/0.png"]}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComputeRawFlow(t *testing.T) {
	h := newTestHandler(&stubService{})
	body := `{"frame1":{"width":2,"height":2,"pixels":[1,2,3,4]},"frame2":{"width":2,"height":2,"pixels":[1,2,3,4]}}`

	rec := do(t, h, http.MethodPost, "/v1/flow/raw", body, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result models.FlowResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Width)
}

func TestRequestSizeLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(&stubService{}, nil, &config.Config{RequestTimeout: time.Second, MaxRequestBodySize: 64})

	big := `{"frame1_url":"https://frames.test/` + strings.Repeat("a", 200) + `.png","frame2_url":"https://frames.test/1.png"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/flow", bytes.NewBufferString(big))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
