package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-optical-flow/internal/config"
	apperrors "go-optical-flow/internal/errors"
	"go-optical-flow/internal/logger"
	"go-optical-flow/internal/observer"
	"go-optical-flow/internal/service"
	"go-optical-flow/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// MetricsProvider exposes aggregated service metrics
type MetricsProvider interface {
	GetMetrics() observer.MetricsSnapshot
}

func NewHandler(flowService service.FlowService, metrics MetricsProvider, cfg *config.Config) http.Handler {
	r := gin.New()

	// Add middleware
	r.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	r.GET("/metrics", metricsHandler(metrics))

	v1 := r.Group("/v1")
	v1.POST("/flow", computeFlow(flowService, cfg))
	v1.POST("/flow/sequence", computeSequenceFlow(flowService, cfg))
	v1.POST("/flow/raw", computeRawFlow(flowService, cfg))

	return r
}

func computeFlow(svc service.FlowService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.FlowRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		ctx, cancel := requestContext(c, cfg)
		defer cancel()

		result, err := svc.ComputeFlow(ctx, req)
		if err != nil {
			respondError(c, determineStatusCode(err), "flow estimation failed", err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func computeSequenceFlow(svc service.FlowService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SequenceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		ctx, cancel := requestContext(c, cfg)
		defer cancel()

		result, err := svc.ComputeSequenceFlow(ctx, req)
		if err != nil {
			respondError(c, determineStatusCode(err), "sequence flow estimation failed", err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func computeRawFlow(svc service.FlowService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RawFlowRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		ctx, cancel := requestContext(c, cfg)
		defer cancel()

		result, err := svc.ComputeRawFlow(ctx, req)
		if err != nil {
			respondError(c, determineStatusCode(err), "flow estimation failed", err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// requestContext bounds a request by the configured timeout and tags it
// with the request ID.
func requestContext(c *gin.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
	return service.WithRequestID(ctx, c.GetString(requestIDKey)), cancel
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "available",
		Version: "1.0.0",
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

func metricsHandler(metrics MetricsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.JSON(http.StatusOK, observer.MetricsSnapshot{})
			return
		}
		c.JSON(http.StatusOK, metrics.GetMetrics())
	}
}

// Middleware and helper functions
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithRequest(c.GetString(requestIDKey)).WithFields(logrus.Fields{
			"method":             c.Request.Method,
			"path":               c.Request.URL.Path,
			"status":             c.Writer.Status(),
			"ip":                 c.ClientIP(),
			"processing_time_ms": time.Since(start).Milliseconds(),
		}).Info("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err.Err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	requestID := c.GetString(requestIDKey)

	// Log the error with context
	logger.WithRequest(requestID).WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:     http.StatusText(code),
		Message:   fmt.Sprintf("%s: %v", message, err),
		RequestID: requestID,
	})
}
