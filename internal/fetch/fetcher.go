// Package fetch performs upstream GETs with backoff and pacing.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultMaxRetries is the retry budget after the first attempt.
const DefaultMaxRetries = 6

// Response is the outcome of one Fetch call. StatusCode is 0 when no response was ever received.
type Response struct {
	StatusCode int
	Body       []byte
	Attempts   int
}

// Fetcher issues blocking GET requests, one at a time, retrying transport failures and 429s.
type Fetcher struct {
	client     *resty.Client
	clock      Clock
	logger     *slog.Logger
	maxRetries int
	timeout    time.Duration
	userAgent  string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithMaxRetries sets the retry budget. Negative values are treated as 0.
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) {
		if n < 0 {
			n = 0
		}
		f.maxRetries = n
	}
}

// WithClock replaces the clock used for backoff sleeps.
func WithClock(c Clock) Option {
	return func(f *Fetcher) { f.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) { f.timeout = d }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// NewFetcher creates a Fetcher. Defaults: 6 retries, system clock, 60s timeout.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		clock:      SystemClock{},
		logger:     slog.Default(),
		maxRetries: DefaultMaxRetries,
		timeout:    defaultTimeout,
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.client = newRestyClient(f.timeout, f.userAgent, f.logger)
	return f
}

// MaxRetries returns the configured retry budget.
func (f *Fetcher) MaxRetries() int { return f.maxRetries }

// transportBackoff is 2^attempt seconds.
func transportBackoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

// rateLimitBackoff is 2*2^attempt seconds.
func rateLimitBackoff(attempt int) time.Duration {
	return 2 * transportBackoff(attempt)
}

// Fetch GETs url. A 200 returns at once with a nil error. A 429 or a transport failure is retried up to
// MaxRetries times with exponential backoff; any other status is returned at once as an *HTTPError.
// When the budget runs out the last status (0 if none) is returned with ErrRateLimited or ErrTransport.
// A cancelled ctx aborts the pending request or sleep.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Response, error) {
	var (
		status  int
		body    []byte
		lastErr error
	)
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		resp, err := f.client.R().SetContext(ctx).Get(url)
		if err != nil {
			if ctx.Err() != nil {
				return Response{StatusCode: status, Body: body, Attempts: attempt + 1}, ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %w", ErrTransport, err)
			if attempt == f.maxRetries {
				break
			}
			wait := transportBackoff(attempt)
			f.logger.Warn("fetch transport failure, backing off", "url", Redact(url), "attempt", attempt+1, "wait", wait, "error", err)
			if err := f.clock.Sleep(ctx, wait); err != nil {
				return Response{StatusCode: status, Body: body, Attempts: attempt + 1}, err
			}
			continue
		}

		status = resp.StatusCode()
		body = resp.Body()
		switch status {
		case http.StatusOK:
			return Response{StatusCode: status, Body: body, Attempts: attempt + 1}, nil
		case http.StatusTooManyRequests:
			lastErr = &HTTPError{StatusCode: status, Body: string(body), Attempts: attempt + 1}
			if attempt < f.maxRetries {
				wait := rateLimitBackoff(attempt)
				f.logger.Warn("429 received, backing off", "url", Redact(url), "attempt", attempt+1, "wait", wait)
				if err := f.clock.Sleep(ctx, wait); err != nil {
					return Response{StatusCode: status, Body: body, Attempts: attempt + 1}, err
				}
			}
		default:
			f.logger.Debug("terminal http status", "url", Redact(url), "status", status)
			return Response{StatusCode: status, Body: body, Attempts: attempt + 1},
				&HTTPError{StatusCode: status, Body: string(body), Attempts: attempt + 1}
		}
	}
	attempts := f.maxRetries + 1
	if he, ok := lastErr.(*HTTPError); ok {
		he.Attempts = attempts
	} else {
		lastErr = fmt.Errorf("after %d attempts: %w", attempts, lastErr)
	}
	return Response{StatusCode: status, Body: body, Attempts: attempts}, lastErr
}
