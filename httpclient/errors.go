package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/kbukum/deepresearch/errors"
)

// maxErrorBody caps how much of a rejected reply is kept in error details.
const maxErrorBody = 512

// ClassifyStatus converts a non-2xx reply from service into an AppError.
// It returns nil for 2xx.
func ClassifyStatus(service string, statusCode int, body []byte) *apperrors.AppError {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	cause := fmt.Errorf("HTTP %d", statusCode)
	var e *apperrors.AppError
	switch {
	case statusCode == http.StatusTooManyRequests:
		e = apperrors.RateLimited().WithDetail("service", service).WithCause(cause)
	case statusCode == http.StatusServiceUnavailable:
		e = apperrors.ServiceUnavailable(service).WithCause(cause)
	case statusCode >= 500:
		e = apperrors.ExternalServiceError(service, cause)
	default:
		// 4xx: the request itself was rejected, retrying cannot help.
		e = apperrors.ExternalServiceError(service, cause)
		e.Retryable = false
	}
	e.WithDetail("status", statusCode)
	if len(body) > 0 {
		e.WithDetail("body", truncate(body))
	}
	return e
}

// transportError classifies a failure to get any reply at all.
func transportError(ctx context.Context, service string, err error) *apperrors.AppError {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout(service + " request").WithCause(err)
	}
	return apperrors.ConnectionFailed(service).WithCause(err)
}

func truncate(body []byte) string {
	if len(body) <= maxErrorBody {
		return string(body)
	}
	return string(body[:maxErrorBody]) + "..."
}
