package errs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// IsTransientStatus reports whether an HTTP status from an upstream service
// is worth retrying.
func IsTransientStatus(status int) bool {
	return status == http.StatusTooManyRequests ||
		status == http.StatusRequestTimeout ||
		status >= http.StatusInternalServerError
}

// FromStatus wraps an upstream API failure, marking it retryable when the
// status code says the service may recover.
func FromStatus(kind Kind, op string, status int, body string) error {
	err := fmt.Errorf("upstream status %d: %s", status, body)
	if IsTransientStatus(status) {
		return Transient(kind, op, err)
	}
	return E(kind, op, err)
}

// FromTransport wraps a failure to reach an upstream service. Timeouts and
// network errors are retryable; cancellation is not.
func FromTransport(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return E(kind, op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Transient(kind, op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return Transient(kind, op, err)
	}
	return E(kind, op, err)
}
