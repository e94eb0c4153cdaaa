package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	// Flow core errors
	ErrorTypeDimensionMismatch ErrorType = "dimension_mismatch"
	ErrorTypeInvalidParameter  ErrorType = "invalid_parameter"
	ErrorTypeUnknownOperator   ErrorType = "unknown_operator"
	ErrorTypePyramidCollapse   ErrorType = "pyramid_collapse"

	// Service errors
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeProcessing ErrorType = "processing"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

func newError(errorType ErrorType, statusCode int, message string, cause error) *AppError {
	return &AppError{
		Type:       errorType,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// NewDimensionMismatchError reports inputs whose shapes differ
func NewDimensionMismatchError(message string, cause error) *AppError {
	return newError(ErrorTypeDimensionMismatch, http.StatusUnprocessableEntity, message, cause)
}

// NewInvalidParameterError reports an out-of-range window size, level count or scale factor
func NewInvalidParameterError(message string, cause error) *AppError {
	return newError(ErrorTypeInvalidParameter, http.StatusBadRequest, message, cause)
}

// NewUnknownOperatorError reports an unrecognized derivative kernel name
func NewUnknownOperatorError(message string, cause error) *AppError {
	return newError(ErrorTypeUnknownOperator, http.StatusBadRequest, message, cause)
}

// NewPyramidCollapseError reports a pyramid level that would have zero size
func NewPyramidCollapseError(message string, cause error) *AppError {
	return newError(ErrorTypePyramidCollapse, http.StatusUnprocessableEntity, message, cause)
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message, cause)
}

// NewNetworkError creates a new network error
func NewNetworkError(message string, cause error) *AppError {
	return newError(ErrorTypeNetwork, http.StatusBadGateway, message, cause)
}

// NewProcessingError creates a new processing error
func NewProcessingError(message string, cause error) *AppError {
	return newError(ErrorTypeProcessing, http.StatusUnprocessableEntity, message, cause)
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return newError(ErrorTypeTimeout, http.StatusGatewayTimeout, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message, cause)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, cause error) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, message, cause)
}

// IsType checks if the error, or any error it wraps, is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
