package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// ConnectionError means the backend session could not be established or
// maintained. It is fatal for the current operation but recoverable on
// the next call via reconnect.
type ConnectionError struct {
	Endpoint string
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s failed after %d attempt(s): %v", e.Endpoint, e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// RateLimitError means the backend explicitly rejected the request for
// quota reasons. It must never be retried inline; the caller decides
// whether and when to resubmit.
type RateLimitError struct {
	Operation string
	Target    string
	Remaining int
	ResetTime time.Time
}

func (e *RateLimitError) Error() string {
	if e.ResetTime.IsZero() {
		return fmt.Sprintf("%s %q rate limited by backend", e.Operation, e.Target)
	}
	return fmt.Sprintf("%s %q rate limited by backend (remaining %d, resets %s)",
		e.Operation, e.Target, e.Remaining, e.ResetTime.Format(time.RFC3339))
}

// OperationError means the backend answered but the response was not a
// success: a non-2xx status, a missing or false success indicator, or a
// payload that does not match the expected shape. It carries the
// server-provided detail and is not retried.
type OperationError struct {
	Operation  string
	Target     string
	StatusCode int
	Attempts   int
	Message    string
}

func (e *OperationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %q failed with status %d: %s", e.Operation, e.Target, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %q failed: %s", e.Operation, e.Target, e.Message)
}

// isRetriable reports whether an error is a transient transport failure
// worth retrying locally. Rate-limit and operation errors are handled
// before this check and never reach it.
func isRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := err.Error()
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"timeout",
		"temporary failure",
		"no such host",
		"EOF",
	} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}
