package discovery

import (
	"net/http"
	"strconv"
	"time"
)

// Rate-limit response headers consumed from the backend.
const (
	headerRateLimitUsed      = "X-RateLimit-Used"
	headerRateLimitRemaining = "X-RateLimit-Remaining"
	headerRateLimitReset     = "X-RateLimit-Reset"
)

// RateLimitWindow tracks the backend-reported request quota for the
// current window. It is owned exclusively by the Manager and mutated
// only from response metadata.
type RateLimitWindow struct {
	RequestsMade      int       `json:"requests_made"`
	RequestsRemaining int       `json:"requests_remaining"`
	ResetTime         time.Time `json:"reset_time"`
	WindowStart       time.Time `json:"window_start"`
}

// IsLimited reports whether the quota is exhausted and the window has
// not reset yet. A window that never reported headers is unlimited.
func (w RateLimitWindow) IsLimited(now time.Time) bool {
	if w.WindowStart.IsZero() {
		return false
	}
	return w.RequestsRemaining <= 0 && !w.ResetTime.IsZero() && now.Before(w.ResetTime)
}

// windowFromHeaders folds rate-limit response headers into the previous
// window. Responses without rate-limit headers leave the window
// untouched. The reset header accepts either a unix timestamp or a
// seconds-from-now delta.
func windowFromHeaders(h http.Header, prev RateLimitWindow, now time.Time) RateLimitWindow {
	remaining, haveRemaining := headerInt(h, headerRateLimitRemaining)
	used, haveUsed := headerInt(h, headerRateLimitUsed)
	reset, haveReset := headerInt(h, headerRateLimitReset)

	if !haveRemaining && !haveUsed && !haveReset {
		return prev
	}

	next := prev
	if next.WindowStart.IsZero() {
		next.WindowStart = now
	}
	if haveRemaining {
		next.RequestsRemaining = remaining
	}
	if haveUsed {
		next.RequestsMade = used
	}
	if haveReset {
		resetTime := resolveReset(reset, now)
		if !resetTime.Equal(next.ResetTime) {
			next.ResetTime = resetTime
			next.WindowStart = now
		}
	}
	return next
}

// resolveReset interprets the reset header value: large values are unix
// timestamps, small ones are seconds until reset.
func resolveReset(v int, now time.Time) time.Time {
	const unixThreshold = 100_000_000 // ~1973, safely below any live timestamp
	if v > unixThreshold {
		return time.Unix(int64(v), 0)
	}
	return now.Add(time.Duration(v) * time.Second)
}

func headerInt(h http.Header, key string) (int, bool) {
	raw := h.Get(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
