package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// APIError is a non-2xx response from the retrieval service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("retrieval service status %d: %s", e.StatusCode, e.Body)
}

// IsTransient reports whether an error is worth retrying: timeouts, rate
// limits, and server-side failures. Malformed responses and client errors are
// not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}
