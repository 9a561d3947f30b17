package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock records sleeps and advances virtual time instead of blocking.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestFetcher(clock Clock, opts ...Option) *Fetcher {
	base := []Option{WithClock(clock), WithLogger(quietLogger()), WithTimeout(5 * time.Second)}
	return NewFetcher(append(base, opts...)...)
}

// statusServer answers with 429 for the first n requests, then with final.
func statusServer(t *testing.T, n int32, final int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := atomic.AddInt32(&calls, 1)
		if n < 0 || c <= n {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"slow down"}`))
			return
		}
		w.WriteHeader(final)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func assertStrictlyIncreasing(t *testing.T, sleeps []time.Duration) {
	t.Helper()
	for i := 1; i < len(sleeps); i++ {
		assert.Greater(t, sleeps[i], sleeps[i-1], "sleep %d", i)
	}
}

func TestFetchSuccessFirstTry(t *testing.T) {
	srv, calls := statusServer(t, 0, http.StatusOK, `{"ok":true}`)
	clock := newFakeClock()
	f := newTestFetcher(clock)

	resp, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"ok":true}`, string(resp.Body))
	assert.Equal(t, 1, resp.Attempts)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Empty(t, clock.Sleeps())
}

func TestFetchRetries429ThenSucceeds(t *testing.T) {
	for _, k := range []int32{1, 3, 5} {
		srv, calls := statusServer(t, k, http.StatusOK, "data")
		clock := newFakeClock()
		f := newTestFetcher(clock)

		resp, err := f.Fetch(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int32(k+1), atomic.LoadInt32(calls))
		assert.Equal(t, int(k+1), resp.Attempts)

		sleeps := clock.Sleeps()
		require.Len(t, sleeps, int(k))
		assertStrictlyIncreasing(t, sleeps)
		assert.Equal(t, 2*time.Second, sleeps[0])
	}
}

func TestFetchAlways429(t *testing.T) {
	srv, calls := statusServer(t, -1, http.StatusOK, "")
	clock := newFakeClock()
	f := newTestFetcher(clock)

	resp, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, StatusOf(err))
	assert.Equal(t, int32(DefaultMaxRetries+1), atomic.LoadInt32(calls))
	assert.Equal(t, DefaultMaxRetries+1, resp.Attempts)

	sleeps := clock.Sleeps()
	assert.Equal(t, []time.Duration{
		2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 32 * time.Second, 64 * time.Second,
	}, sleeps)
}

func TestFetchCustomRetryBudget(t *testing.T) {
	srv, calls := statusServer(t, -1, http.StatusOK, "")
	f := newTestFetcher(newFakeClock(), WithMaxRetries(2))

	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
	assert.Equal(t, 2, f.MaxRetries())
}

func TestFetchTerminalStatusNotRetried(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusForbidden} {
		srv, calls := statusServer(t, 0, code, "nope")
		clock := newFakeClock()
		f := newTestFetcher(clock)

		resp, err := f.Fetch(context.Background(), srv.URL)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrTerminalHTTP))
		assert.False(t, errors.Is(err, ErrRateLimited))
		assert.Equal(t, code, resp.StatusCode)
		assert.Equal(t, code, StatusOf(err))
		assert.Equal(t, int32(1), atomic.LoadInt32(calls))
		assert.Empty(t, clock.Sleeps())
	}
}

func TestFetchTerminalAfter429(t *testing.T) {
	srv, calls := statusServer(t, 2, http.StatusNotFound, "")
	clock := newFakeClock()
	f := newTestFetcher(clock)

	resp, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTerminalHTTP))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
	assert.Len(t, clock.Sleeps(), 2)
}

func TestFetchTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	clock := newFakeClock()
	f := newTestFetcher(clock, WithMaxRetries(3))

	resp, err := f.Fetch(context.Background(), url)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransport))
	assert.Equal(t, 0, resp.StatusCode)
	assert.Equal(t, 4, resp.Attempts)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}, clock.Sleeps())
}

func TestFetchCancelledContext(t *testing.T) {
	srv, calls := statusServer(t, -1, http.StatusOK, "")
	f := newTestFetcher(newFakeClock())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.LessOrEqual(t, atomic.LoadInt32(calls), int32(1))
}

func TestRedactHidesAPIKey(t *testing.T) {
	got := Redact("https://www.alphavantage.co/query?function=GLOBAL_QUOTE&symbol=IBM&apikey=SECRET")
	assert.NotContains(t, got, "SECRET")
	assert.Contains(t, got, "symbol=IBM")
}
