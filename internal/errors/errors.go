// Package errors provides typed error definitions for nodestack.
// This package consolidates error handling and provides structured error types
// that can be used for better error classification and handling.
package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents a unique identifier for different error types
type ErrorCode string

const (
	// Configuration errors
	ErrConfigNotFound    ErrorCode = "CONFIG_NOT_FOUND"
	ErrConfigInvalid     ErrorCode = "CONFIG_INVALID"
	ErrConfigParse       ErrorCode = "CONFIG_PARSE"
	ErrConfigValidation  ErrorCode = "CONFIG_VALIDATION"
	ErrUnknownDependency ErrorCode = "UNKNOWN_DEPENDENCY"

	// Graph errors
	ErrDependencyCycle ErrorCode = "DEPENDENCY_CYCLE"

	// Service errors
	ErrServiceNotFound   ErrorCode = "SERVICE_NOT_FOUND"
	ErrServiceNotRunning ErrorCode = "SERVICE_NOT_RUNNING"

	// Runtime errors
	ErrRuntimeUnavailable ErrorCode = "RUNTIME_UNAVAILABLE"
	ErrRuntimeCommand     ErrorCode = "RUNTIME_COMMAND"
	ErrContainerNotFound  ErrorCode = "CONTAINER_NOT_FOUND"
	ErrRestartFailed      ErrorCode = "RESTART_FAILED"
	ErrPlanNotFound       ErrorCode = "PLAN_NOT_FOUND"

	// Probe errors
	ErrProbeTimeout  ErrorCode = "PROBE_TIMEOUT"
	ErrProbeRefused  ErrorCode = "PROBE_REFUSED"
	ErrProbeProtocol ErrorCode = "PROBE_PROTOCOL"

	// Database errors
	ErrDatabaseConnection ErrorCode = "DATABASE_CONNECTION"
	ErrDatabaseQuery      ErrorCode = "DATABASE_QUERY"
	ErrDatabaseMigration  ErrorCode = "DATABASE_MIGRATION"

	// Validation errors
	ErrValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrInvalidEndpoint  ErrorCode = "INVALID_ENDPOINT"

	// Internal errors
	ErrInternal     ErrorCode = "INTERNAL_ERROR"
	ErrTimeout      ErrorCode = "TIMEOUT"
	ErrCancelled    ErrorCode = "CANCELLED"
	ErrShuttingDown ErrorCode = "SHUTTING_DOWN"
)

// StackError represents a structured error with additional context
type StackError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	Context    map[string]interface{} `json:"context,omitempty"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *StackError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *StackError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *StackError) WithContext(key string, value interface{}) *StackError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithCause adds the underlying cause error
func (e *StackError) WithCause(cause error) *StackError {
	e.Cause = cause
	return e
}

// GetHTTPStatus returns the appropriate HTTP status code for this error
func (e *StackError) GetHTTPStatus() int {
	if e.HTTPStatus != 0 {
		return e.HTTPStatus
	}

	// Default status codes based on error type
	switch e.Code {
	case ErrConfigNotFound, ErrServiceNotFound, ErrContainerNotFound, ErrPlanNotFound:
		return http.StatusNotFound
	case ErrValidationFailed, ErrInvalidInput, ErrInvalidEndpoint, ErrUnknownDependency, ErrDependencyCycle:
		return http.StatusBadRequest
	case ErrServiceNotRunning:
		return http.StatusConflict
	case ErrTimeout, ErrProbeTimeout:
		return http.StatusRequestTimeout
	case ErrRuntimeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new StackError
func New(code ErrorCode, message string) *StackError {
	return &StackError{
		Code:    code,
		Message: message,
	}
}

// NewWithDetails creates a new StackError with details
func NewWithDetails(code ErrorCode, message, details string) *StackError {
	return &StackError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Wrap creates a new StackError that wraps an existing error
func Wrap(code ErrorCode, message string, cause error) *StackError {
	return &StackError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithDetails creates a new StackError with details that wraps an existing error
func WrapWithDetails(code ErrorCode, message, details string, cause error) *StackError {
	return &StackError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// IsStackError checks if an error is a StackError
func IsStackError(err error) bool {
	_, ok := err.(*StackError)
	return ok
}

// GetCode extracts the error code from an error, if it's a StackError
func GetCode(err error) ErrorCode {
	if se, ok := err.(*StackError); ok {
		return se.Code
	}
	return ""
}

// HasCode checks if an error has a specific error code
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}
