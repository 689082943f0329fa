package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testError struct {
	id        int
	transient bool
}

func (e *testError) Error() string   { return fmt.Sprintf("test error %d", e.id) }
func (e *testError) Transient() bool { return e.transient }

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func fixedJitter(d time.Duration) func(time.Duration) time.Duration {
	return func(time.Duration) time.Duration { return d }
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	if cfg.MaxAttempts != 5 {
		t.Fatalf("unexpected MaxAttempts: %d", cfg.MaxAttempts)
	}
	if cfg.Base != 2 || cfg.Unit != time.Second || cfg.JitterBound != time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestRetryMasksBoundedTransientFailures(t *testing.T) {
	for failures := 0; failures < 5; failures++ {
		t.Run(fmt.Sprintf("%d failures", failures), func(t *testing.T) {
			rec := &sleepRecorder{}
			r := NewRetry("api", DefaultRetryConfig(), WithSleep(rec.sleep), WithJitter(fixedJitter(250*time.Millisecond)))

			attempts := 0
			err := r.Execute(context.Background(), func(context.Context) error {
				attempts++
				if attempts <= failures {
					return &testError{id: attempts, transient: true}
				}
				return nil
			})

			require.NoError(t, err)
			assert.Equal(t, failures+1, attempts)
			require.Len(t, rec.delays, failures)
			for i, d := range rec.delays {
				assert.Equal(t, r.Backoff(i+1)+250*time.Millisecond, d)
			}
		})
	}
}

func TestRetryExhaustionReturnsLastFailure(t *testing.T) {
	rec := &sleepRecorder{}
	r := NewRetry("api", DefaultRetryConfig(), WithSleep(rec.sleep))

	attempts := 0
	var last error
	err := r.Execute(context.Background(), func(context.Context) error {
		attempts++
		last = &testError{id: attempts, transient: true}
		return last
	})

	assert.Equal(t, 5, attempts)
	assert.Same(t, last, err)
	assert.Len(t, rec.delays, 4)
}

func TestRetryDoesNotRepeatNonTransientFailure(t *testing.T) {
	rec := &sleepRecorder{}
	r := NewRetry("api", DefaultRetryConfig(), WithSleep(rec.sleep))
	want := &testError{id: 1}

	attempts := 0
	err := r.Execute(context.Background(), func(context.Context) error {
		attempts++
		return want
	})

	assert.Same(t, want, err)
	assert.Equal(t, 1, attempts)
	assert.Empty(t, rec.delays)
}

func TestRetryStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRetry("api", DefaultRetryConfig(), WithSleep(func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	attempts := 0
	err := r.Execute(ctx, func(context.Context) error {
		attempts++
		return &testError{id: attempts, transient: true}
	})

	assert.Equal(t, 1, attempts)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsTransient(err))
}

func TestBackoffGrowsMonotonically(t *testing.T) {
	r := NewRetry("api", DefaultRetryConfig())

	assert.Equal(t, 2*time.Second, r.Backoff(1))
	assert.Equal(t, 4*time.Second, r.Backoff(2))
	prev := time.Duration(0)
	for attempt := 1; attempt < 80; attempt++ {
		d := r.Backoff(attempt)
		assert.GreaterOrEqual(t, d, prev, "attempt %d", attempt)
		prev = d
	}
}

func TestJitterWithinBound(t *testing.T) {
	bound := 100 * time.Millisecond
	for i := 0; i < 10000; i++ {
		j := uniformJitter(bound)
		if j < 0 || j >= bound {
			t.Fatalf("jitter %s outside [0, %s)", j, bound)
		}
	}
	assert.Zero(t, uniformJitter(0))

	r := NewRetry("api", RetryConfig{MaxAttempts: 3, Base: 2, Unit: time.Millisecond, JitterBound: bound})
	for attempt := 1; attempt <= 3; attempt++ {
		d := r.Delay(attempt)
		assert.GreaterOrEqual(t, d, r.Backoff(attempt))
		assert.Less(t, d, r.Backoff(attempt)+bound)
	}
}

func TestRetryNormalizesConfig(t *testing.T) {
	r := NewRetry("api", RetryConfig{MaxAttempts: 0, Base: 0.5, Unit: -time.Second, JitterBound: -1})
	cfg := r.Config()
	assert.Equal(t, 1, cfg.MaxAttempts)
	assert.Equal(t, float64(1), cfg.Base)
	assert.Zero(t, cfg.Unit)
	assert.Zero(t, cfg.JitterBound)
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var _ net.Error = timeoutError{}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"transient typed error", &testError{transient: true}, true},
		{"non-transient typed error", &testError{}, false},
		{"wrapped transient", fmt.Errorf("call: %w", &testError{transient: true}), true},
		{"net error", &net.OpError{Op: "dial", Err: timeoutError{}}, true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"cancelled", context.Canceled, false},
		{"cancelled with transient", errors.Join(context.Canceled, &testError{transient: true}), false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestChainOrder(t *testing.T) {
	var calls []string
	wrap := func(name string) Policy {
		return PolicyFunc(func(ctx context.Context, op Operation) error {
			calls = append(calls, name+":before")
			err := op(ctx)
			calls = append(calls, name+":after")
			return err
		})
	}

	err := Chain(wrap("outer"), wrap("inner")).Execute(context.Background(), func(context.Context) error {
		calls = append(calls, "op")
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"outer:before", "inner:before", "op", "inner:after", "outer:after"}, calls)
}
