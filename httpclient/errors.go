package httpclient

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/kbukum/streamkit/errors"
)

// ClassifyStatusCode converts an HTTP status code into an AppError.
// Returns nil for 2xx status codes. Server-side failures and 429 are
// retryable; other client errors are not.
func ClassifyStatusCode(statusCode int, target string, body []byte) *errors.AppError {
	var err *errors.AppError
	switch {
	case statusCode >= 200 && statusCode < 300:
		return nil
	case statusCode == http.StatusNotFound:
		err = errors.NotFound("endpoint", target)
	case statusCode == http.StatusTooManyRequests:
		err = errors.ServiceUnavailable(target)
	case statusCode >= 400 && statusCode < 500:
		err = errors.InvalidInput("", http.StatusText(statusCode))
	default:
		err = errors.ServiceUnavailable(target)
	}
	err = err.WithDetail("status", statusCode)
	if len(body) > 0 {
		err = err.WithDetail("body", truncate(string(body), 512))
	}
	return err
}

// transportError maps a failed round trip to an AppError.
func transportError(ctx context.Context, target string, err error) *errors.AppError {
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Timeout(target).WithCause(err)
	}
	return errors.ConnectionFailed(target).WithCause(err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
