// Package errors provides the application error type shared by the research
// engine, its remote stage adapters and the HTTP surface. Every error carries
// a machine-readable code, a message safe to show to a user, an HTTP status and
// a retryable flag derived from the code.
package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable reports whether repeating the operation may succeed.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the status used when the error reaches an HTTP client.
	HTTPStatus int `json:"-"`
	// Details carries structured context (stage, query, service...).
	Details map[string]any `json:"details,omitempty"`
	// Cause is the wrapped error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithDetails merges details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	for k, v := range details {
		e.WithDetail(k, v)
	}
	return e
}

// New creates an AppError whose Retryable flag follows the code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Transport / availability ---

// ServiceUnavailable reports a dependency that cannot take requests right now.
func ServiceUnavailable(service string) *AppError {
	return New(ErrCodeServiceUnavailable,
		fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service),
		http.StatusServiceUnavailable).WithDetail("service", service)
}

// ConnectionFailed reports a dependency that could not be reached at all.
func ConnectionFailed(service string) *AppError {
	return New(ErrCodeConnectionFailed,
		fmt.Sprintf("Unable to connect to %s. Please verify the service is running.", service),
		http.StatusServiceUnavailable).WithDetail("service", service)
}

// Timeout reports an operation that ran out of time or was canceled.
func Timeout(operation string) *AppError {
	return New(ErrCodeTimeout, "The request took too long. Please try again.",
		http.StatusGatewayTimeout).WithDetail("operation", operation)
}

// RateLimited reports an upstream or local rate limit.
func RateLimited() *AppError {
	return New(ErrCodeRateLimited, "Too many requests. Please wait a moment and try again.",
		http.StatusTooManyRequests)
}

// ExternalServiceError wraps a rejection returned by a remote service.
func ExternalServiceError(service string, cause error) *AppError {
	return New(ErrCodeExternalService,
		fmt.Sprintf("The %s service encountered an error. Please try again.", service),
		http.StatusBadGateway).WithDetail("service", service).WithCause(cause)
}

// MalformedResponse reports a remote reply that could not be decoded into the
// expected shape.
func MalformedResponse(service string, cause error) *AppError {
	return New(ErrCodeMalformedResponse,
		fmt.Sprintf("The %s service returned a response that could not be understood.", service),
		http.StatusBadGateway).WithDetail("service", service).WithCause(cause)
}

// --- Input ---

// InvalidInput reports a rejected field value.
func InvalidInput(field, reason string) *AppError {
	e := New(ErrCodeInvalidInput, fmt.Sprintf("Invalid input: %s", reason), http.StatusBadRequest)
	if field != "" {
		e.WithDetail("field", field)
	}
	return e
}

// Validation reports one or more failed validation rules.
func Validation(message string) *AppError {
	return New(ErrCodeInvalidInput, message, http.StatusBadRequest)
}

// NotFound reports a missing resource.
func NotFound(resource, id string) *AppError {
	e := New(ErrCodeNotFound, fmt.Sprintf("The requested %s was not found.", resource), http.StatusNotFound).
		WithDetail("resource", resource)
	if id != "" {
		e.WithDetail("id", id)
	}
	return e
}

// Internal wraps an unexpected failure.
func Internal(cause error) *AppError {
	return New(ErrCodeInternal, "An unexpected error occurred. Please try again or contact support.",
		http.StatusInternalServerError).WithCause(cause)
}

// --- Research pipeline ---

// PlanningFailed reports that the plan stage could not produce a work plan.
// It terminates the run.
func PlanningFailed(cause error) *AppError {
	return New(ErrCodePlanningFailed, "Planning the research searches failed.",
		http.StatusBadGateway).WithDetail("stage", "plan").WithCause(cause)
}

// SearchFailed reports a single failed search. The executor drops it from the
// result set and the run continues.
func SearchFailed(query string, cause error) *AppError {
	return New(ErrCodeSearchFailed, fmt.Sprintf("Search %q failed.", query),
		http.StatusBadGateway).WithDetails(map[string]any{"stage": "search", "query": query}).WithCause(cause)
}

// SynthesisFailed reports that the report could not be written. It terminates
// the run.
func SynthesisFailed(cause error) *AppError {
	return New(ErrCodeSynthesisFailed, "Writing the research report failed.",
		http.StatusBadGateway).WithDetail("stage", "write").WithCause(cause)
}
