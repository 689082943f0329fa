package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
	"github.com/vladislavdragonenkov/webstore/internal/metrics"
	"github.com/vladislavdragonenkov/webstore/internal/resilience"
)

type item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func noSleep(context.Context, time.Duration) error { return nil }

func newRegistry(maxAttempts, threshold int) *resilience.Registry {
	return resilience.NewRegistry(
		resilience.RetryConfig{MaxAttempts: maxAttempts, Base: 2, Unit: time.Millisecond},
		resilience.BreakerConfig{FailureThreshold: threshold, BreakDuration: time.Minute},
		resilience.WithRegistrySleep(noSleep),
	)
}

func newClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	c, err := New(Endpoint{Name: "webstore-api", BaseURL: srv.URL}, opts...)
	require.NoError(t, err)
	return c
}

func TestGetDecodesBody(t *testing.T) {
	var gotPath, gotRequestID, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRequestID = r.Header.Get(HeaderRequestID)
		gotAccept = r.Header.Get("Accept")
		_ = json.NewEncoder(w).Encode(item{ID: 7, Name: "Widget"})
	}))
	defer srv.Close()

	c := newClient(t, srv)
	got, err := GetJSON[item](context.Background(), c, "api/products/7")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, item{ID: 7, Name: "Widget"}, *got)
	assert.Equal(t, "/api/products/7", gotPath)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "application/json", gotAccept)
}

func TestBaseURLWithPathPrefix(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c, err := New(Endpoint{Name: "webstore-api", BaseURL: srv.URL + "/store"})
	require.NoError(t, err)

	var out []item
	found, err := c.Get(context.Background(), "/api/orders/user/alice%20smith", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "/store/api/orders/user/alice%20smith", gotPath)
}

func TestNewRejectsRelativeBaseURL(t *testing.T) {
	_, err := New(Endpoint{Name: "webstore-api", BaseURL: "localhost"})
	assert.Error(t, err)
}

func TestGetNotFoundIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := newClient(t, srv, WithPolicy(newRegistry(5, 5).Pipeline("webstore-api")))

	got, err := GetJSON[item](context.Background(), c, "api/employees/100")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = c.Delete(context.Background(), "api/employees/100")
	assert.True(t, IsNotFound(err))
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestServerErrorsAreRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(item{ID: 1})
	}))
	defer srv.Close()

	c := newClient(t, srv, WithPolicy(newRegistry(5, 5).Pipeline("webstore-api")))
	resp, err := c.Post(context.Background(), "api/products/new", item{Name: "Widget"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.EqualValues(t, 3, calls.Load())
}

func TestRetryExhaustionSurfacesTransportFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"database is down"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newClient(t, srv, WithPolicy(newRegistry(4, 10).Pipeline("webstore-api")))
	_, err := c.Get(context.Background(), "api/employees", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.True(t, resilience.IsTransient(err))
	assert.Contains(t, err.Error(), "database is down")
	assert.EqualValues(t, 4, calls.Load())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newClient(t, srv, WithPolicy(newRegistry(5, 5).Pipeline("webstore-api")))
	_, err := c.Put(context.Background(), "api/employees", item{})

	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.False(t, resilience.IsTransient(err))
	assert.EqualValues(t, 1, calls.Load())
}

func TestMalformedBodyIsDataError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	c := newClient(t, srv, WithPolicy(newRegistry(5, 5).Pipeline("webstore-api")))
	_, err := GetJSON[item](context.Background(), c, "api/products/1")

	assert.ErrorIs(t, err, domain.ErrMalformedData)
	assert.NotErrorIs(t, err, domain.ErrTransport)
	assert.EqualValues(t, 1, calls.Load())
}

func TestOversizedBodyNamesLimit(t *testing.T) {
	body := `{"id":7,"name":"Widget"}`
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path == "/api/unavailable" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	policy := WithPolicy(newRegistry(2, 5).Pipeline("webstore-api"))

	exact := newClient(t, srv, policy, WithMaxResponseBytes(int64(len(body))))
	got, err := GetJSON[item](context.Background(), exact, "api/products/7")
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)

	small := newClient(t, srv, policy, WithMaxResponseBytes(int64(len(body)-1)))
	calls.Store(0)
	_, err = GetJSON[item](context.Background(), small, "api/products/7")
	require.ErrorIs(t, err, domain.ErrMalformedData)
	assert.Contains(t, err.Error(), "exceeds 23 bytes")
	assert.False(t, resilience.IsTransient(err))
	assert.EqualValues(t, 1, calls.Load())

	calls.Store(0)
	_, err = small.Get(context.Background(), "api/unavailable", nil)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.EqualValues(t, 2, calls.Load())
}

func TestNetworkFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Endpoint{Name: "webstore-api", BaseURL: url}, WithPolicy(newRegistry(2, 5).Pipeline("webstore-api")))
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "api/employees", nil)
	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.True(t, resilience.IsTransient(err))
}

func TestOpenCircuitRejectsWithoutNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	reg := newRegistry(1, 2)
	employees := newClient(t, srv, WithPolicy(reg.Pipeline("webstore-api")))
	products := newClient(t, srv, WithPolicy(reg.Pipeline("webstore-api")))

	_, _ = employees.Get(context.Background(), "api/employees", nil)
	_, _ = products.Get(context.Background(), "api/products/sections", nil)
	require.EqualValues(t, 2, calls.Load())

	_, err := employees.Get(context.Background(), "api/employees", nil)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.EqualValues(t, 2, calls.Load())
}

func TestCallTimeoutBoundsBlockingCall(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := newClient(t, srv, WithCallTimeout(50*time.Millisecond), WithPolicy(newRegistry(3, 5).Pipeline("webstore-api")))

	start := time.Now()
	_, err := c.Get(context.Background(), "api/employees", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCancelledCallIsNotCountedByBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	reg := newRegistry(1, 1)
	c := newClient(t, srv, WithPolicy(reg.Pipeline("webstore-api")))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := c.Get(ctx, "api/employees", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, resilience.StateClosed, reg.Breaker("webstore-api").State())
}

func TestMetricsRecordAttempts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("true"))
	}))
	defer srv.Close()

	m := metrics.NewClientMetricsWithRegisterer(prometheus.NewRegistry())
	c := newClient(t, srv, WithMetrics(m), WithAttemptTimeout(time.Second))

	resp, err := c.Put(context.Background(), "api/employees", item{ID: 1})
	require.NoError(t, err)
	ok, err := DecodeBool(resp)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStatusErrorClassification(t *testing.T) {
	tests := []struct {
		code      int
		transient bool
		target    error
	}{
		{http.StatusNotFound, false, domain.ErrNotFound},
		{http.StatusBadRequest, false, domain.ErrBadRequest},
		{http.StatusConflict, false, domain.ErrBadRequest},
		{http.StatusConflict, false, domain.ErrConflict},
		{http.StatusTooManyRequests, false, domain.ErrBadRequest},
		{http.StatusRequestTimeout, true, domain.ErrTransport},
		{http.StatusInternalServerError, true, domain.ErrTransport},
		{http.StatusGatewayTimeout, true, domain.ErrTransport},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			err := &StatusError{Endpoint: "webstore-api", Method: "GET", Path: "api/x", StatusCode: tt.code}
			assert.Equal(t, tt.transient, err.Transient())
			assert.ErrorIs(t, err, tt.target)
		})
	}
}
