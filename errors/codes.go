package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Availability errors. All of them are retryable.
const (
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeConnectionFailed   ErrorCode = "CONNECTION_FAILED"
	ErrCodeTimeout            ErrorCode = "TIMEOUT"
	ErrCodeRateLimited        ErrorCode = "RATE_LIMITED"
)

// Input and resource errors.
const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
)

// Remote and internal errors.
const (
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
	ErrCodeExternalService   ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
)

// Research pipeline errors.
const (
	// ErrCodePlanningFailed marks a fatal failure of the plan stage.
	ErrCodePlanningFailed ErrorCode = "PLANNING_FAILED"
	// ErrCodeSearchFailed marks a failed fan-out search. Never fatal.
	ErrCodeSearchFailed ErrorCode = "SEARCH_FAILED"
	// ErrCodeSynthesisFailed marks a fatal failure of the write stage.
	ErrCodeSynthesisFailed ErrorCode = "SYNTHESIS_FAILED"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeConnectionFailed:   true,
	ErrCodeTimeout:            true,
	ErrCodeRateLimited:        true,
	ErrCodeExternalService:    true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
