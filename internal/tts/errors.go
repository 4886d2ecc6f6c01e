package tts

import (
	"errors"
	"fmt"
	"net/http"
)

// TimeoutError reports that connection establishment or a read exceeded its
// configured bound. Never retried by this package.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	if e.Err == nil {
		return "kokoro tts: request timed out"
	}
	return fmt.Sprintf("kokoro tts: request timed out: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// StatusError reports a non-success HTTP response from the Kokoro server.
// The status code, request ID and body are carried unmodified for the caller
// to interpret.
type StatusError struct {
	StatusCode int
	RequestID  string
	Message    string
	Body       []byte
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("kokoro tts: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("kokoro tts: status %d", e.StatusCode)
}

// ConnectionError reports any transport failure that is neither a timeout
// nor a status response: DNS, connection reset, malformed stream.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return "kokoro tts: connection error"
	}
	return fmt.Sprintf("kokoro tts: connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IsRetryable classifies an error for callers that own retry policy.
// Timeouts and connection faults are retryable, as are server-side status
// errors (5xx) and rate limiting (429). Other status errors indicate a bad
// request and will not succeed on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= http.StatusInternalServerError ||
			statusErr.StatusCode == http.StatusTooManyRequests
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return true
	}

	var connErr *ConnectionError
	return errors.As(err, &connErr)
}
