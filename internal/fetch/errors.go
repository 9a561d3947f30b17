package fetch

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransport marks network, DNS and timeout failures that outlasted every retry.
	ErrTransport = errors.New("transport error")
	// ErrRateLimited marks a request still answered with 429 after every retry.
	ErrRateLimited = errors.New("rate limited")
	// ErrTerminalHTTP marks any other non-200 status. These are never retried.
	ErrTerminalHTTP = errors.New("terminal http status")
)

// HTTPError is a non-200 answer from the upstream, with the raw status code.
type HTTPError struct {
	StatusCode int
	Body       string
	Attempts   int
}

func (e *HTTPError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("http status %d after %d attempt(s): %s", e.StatusCode, e.Attempts, body)
}

// Unwrap maps the status onto the error taxonomy.
func (e *HTTPError) Unwrap() error {
	if e.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	return ErrTerminalHTTP
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}
