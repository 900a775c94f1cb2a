// Package resilience provides the retry policy and circuit breaker applied
// to every outbound call made during an extraction run.
package resilience

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// StatusError reports a non-2xx HTTP response from a storefront or API.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d from %s", e.Code, e.URL)
}

// NewStatusError builds a StatusError for the given response code and URL.
func NewStatusError(code int, url string) *StatusError {
	return &StatusError{Code: code, URL: url}
}

// RateLimitError reports a server-signaled 429. It is transient but callers
// may want to distinguish it from ordinary 5xx churn.
type RateLimitError struct {
	URL string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by %s", e.URL)
}

// IsTransient reports whether an error is safe to retry: retryable HTTP
// statuses, network timeouts, connection resets, and DNS hiccups.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return IsTransientStatus(se.Code)
	}

	var rle *RateLimitError
	if errors.As(err, &rle) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// Wrapped client errors that only surface as strings.
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientStatus reports whether an HTTP status code is worth retrying.
// 404 and 403 are terminal for a storefront fetch; 429 is transient but
// subject to the shared rate limiter.
func IsTransientStatus(code int) bool {
	switch code {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// IsRateLimited reports whether the error chain contains a 429 signal.
func IsRateLimited(err error) bool {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Code == 429
}
