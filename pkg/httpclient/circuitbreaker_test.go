package httpclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// shopServer answers every request with the status held in status and
// counts the hits.
func shopServer(t *testing.T, status *atomic.Int32, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(`{"success":false,"message":"shop down"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestBreaker(name string, minRequests uint32, timeout time.Duration) *CircuitBreakerClient {
	cfg := DefaultCircuitBreakerConfig(name)
	cfg.MinRequests = minRequests
	cfg.Timeout = timeout
	return NewCircuitBreakerClient(New(Config{Timeout: 2 * time.Second, MaxConnsPerHost: 4}), cfg, testLogger())
}

func TestDefaultCircuitBreakerConfig(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("shop-api")

	assert.Equal(t, "shop-api", cfg.Name)
	assert.Equal(t, uint32(1), cfg.MaxRequests)
	assert.Equal(t, 60*time.Second, cfg.Interval)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 0.5, cfg.FailureRatio)
	assert.Equal(t, uint32(5), cfg.MinRequests)
}

func TestCircuitBreaker_PassesHealthyResponses(t *testing.T) {
	var status, hits atomic.Int32
	status.Store(http.StatusOK)
	srv := shopServer(t, &status, &hits)
	cb := newTestBreaker("cb-healthy", 1, time.Minute)

	resp, err := doGet(context.Background(), cb, srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.NoError(t, cb.Check(context.Background()))
}

func TestCircuitBreaker_ServerErrorBecomesStatusError(t *testing.T) {
	var status, hits atomic.Int32
	status.Store(http.StatusBadGateway)
	srv := shopServer(t, &status, &hits)
	cb := newTestBreaker("cb-status", 10, time.Minute)

	_, err := doGet(context.Background(), cb, srv.URL)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "shop down")
}

func TestCircuitBreaker_TripsAndRejects(t *testing.T) {
	var status, hits atomic.Int32
	status.Store(http.StatusServiceUnavailable)
	srv := shopServer(t, &status, &hits)
	cb := newTestBreaker("cb-trip", 3, time.Minute)

	for i := 0; i < 3; i++ {
		_, err := doGet(context.Background(), cb, srv.URL)
		require.Error(t, err)
	}
	require.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := doGet(context.Background(), cb, srv.URL)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(3), hits.Load(), "open breaker must not reach the upstream")

	checkErr := cb.Check(context.Background())
	require.Error(t, checkErr)
	assert.Contains(t, checkErr.Error(), "cb-trip")
}

func TestCircuitBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	var status, hits atomic.Int32
	status.Store(http.StatusNotFound)
	srv := shopServer(t, &status, &hits)
	cb := newTestBreaker("cb-4xx", 1, time.Minute)

	for i := 0; i < 5; i++ {
		resp, err := doGet(context.Background(), cb, srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_CancelledRequestsDoNotTrip(t *testing.T) {
	var status, hits atomic.Int32
	status.Store(http.StatusOK)
	srv := shopServer(t, &status, &hits)
	cb := newTestBreaker("cb-cancel", 1, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 3; i++ {
		_, err := doGet(ctx, cb, srv.URL)
		require.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_RecoversThroughHalfOpen(t *testing.T) {
	var status, hits atomic.Int32
	status.Store(http.StatusInternalServerError)
	srv := shopServer(t, &status, &hits)
	cb := newTestBreaker("cb-recover", 1, 50*time.Millisecond)

	_, err := doGet(context.Background(), cb, srv.URL)
	require.Error(t, err)
	require.Equal(t, gobreaker.StateOpen, cb.State())

	status.Store(http.StatusOK)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, gobreaker.StateHalfOpen, cb.State())

	resp, err := doGet(context.Background(), cb, srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_Fallback(t *testing.T) {
	var status, hits atomic.Int32
	status.Store(http.StatusInternalServerError)
	srv := shopServer(t, &status, &hits)

	errFallback := errors.New("shop api unavailable")
	var calls atomic.Int32
	cb := newTestBreaker("cb-fallback", 1, time.Minute).
		WithFallback(func(_ context.Context, err error) (*http.Response, error) {
			calls.Add(1)
			assert.ErrorIs(t, err, ErrCircuitOpen)
			return nil, errFallback
		})

	// While closed the upstream failure comes back as is.
	_, err := doGet(context.Background(), cb, srv.URL)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Zero(t, calls.Load())

	_, err = doGet(context.Background(), cb, srv.URL)
	assert.ErrorIs(t, err, errFallback)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCircuitBreaker_FallbackCanAnswer(t *testing.T) {
	var status, hits atomic.Int32
	status.Store(http.StatusInternalServerError)
	srv := shopServer(t, &status, &hits)

	cb := newTestBreaker("cb-fallback-answer", 1, time.Minute).
		WithFallback(func(context.Context, error) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusServiceUnavailable,
				Body:       io.NopCloser(strings.NewReader(`{"success":false}`)),
			}, nil
		})

	_, _ = doGet(context.Background(), cb, srv.URL)
	resp, err := doGet(context.Background(), cb, srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(1), hits.Load())
}

func TestCircuitBreaker_SatisfiesDoer(t *testing.T) {
	var _ Doer = (*CircuitBreakerClient)(nil)
}
