package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	log "github.com/sirupsen/logrus"
)

// RetryConfig конфигурация повторов. Задержка после попытки n равна
// Unit * Base^n плюс случайный jitter из [0, JitterBound).
type RetryConfig struct {
	// MaxAttempts — общее число сетевых попыток, включая первую.
	MaxAttempts int
	Base        float64
	Unit        time.Duration
	JitterBound time.Duration
}

// DefaultRetryConfig возвращает конфигурацию по умолчанию.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 5,
		Base:        2,
		Unit:        time.Second,
		JitterBound: time.Second,
	}
}

func (c RetryConfig) normalized() RetryConfig {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.Base < 1 {
		c.Base = 1
	}
	if c.Unit < 0 {
		c.Unit = 0
	}
	if c.JitterBound < 0 {
		c.JitterBound = 0
	}
	return c
}

// Retry повторяет операцию при временных ошибках. Состояние попыток
// живёт только в рамках одного вызова Execute.
type Retry struct {
	endpoint string
	config   RetryConfig
	sleep    func(ctx context.Context, d time.Duration) error
	jitter   func(bound time.Duration) time.Duration
	observer Observer
	logger   *log.Entry
}

// RetryOption настраивает Retry.
type RetryOption func(*Retry)

// WithSleep подменяет ожидание между попытками.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(r *Retry) {
		if sleep != nil {
			r.sleep = sleep
		}
	}
}

// WithJitter подменяет генератор jitter.
func WithJitter(jitter func(bound time.Duration) time.Duration) RetryOption {
	return func(r *Retry) {
		if jitter != nil {
			r.jitter = jitter
		}
	}
}

// WithRetryObserver задаёт получателя событий повторов.
func WithRetryObserver(observer Observer) RetryOption {
	return func(r *Retry) {
		if observer != nil {
			r.observer = observer
		}
	}
}

// WithRetryLogger задаёт логгер.
func WithRetryLogger(logger *log.Entry) RetryOption {
	return func(r *Retry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRetry создаёт политику повторов для endpoint.
func NewRetry(endpoint string, config RetryConfig, opts ...RetryOption) *Retry {
	r := &Retry{
		endpoint: endpoint,
		config:   config.normalized(),
		sleep:    sleepContext,
		jitter:   uniformJitter,
		observer: NopObserver{},
		logger:   log.WithField("component", "retry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config возвращает действующую конфигурацию.
func (r *Retry) Config() RetryConfig {
	return r.config
}

// Backoff возвращает задержку без jitter после попытки attempt (с 1).
func (r *Retry) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := float64(r.config.Unit) * math.Pow(r.config.Base, float64(attempt))
	if d >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// Delay возвращает полную задержку после попытки attempt.
func (r *Retry) Delay(attempt int) time.Duration {
	backoff := r.Backoff(attempt)
	jitter := r.jitter(r.config.JitterBound)
	if backoff > math.MaxInt64-jitter {
		return time.Duration(math.MaxInt64)
	}
	return backoff + jitter
}

// Execute выполняет операцию, повторяя её при временных ошибках. После
// исчерпания попыток возвращается последняя ошибка без изменений.
func (r *Retry) Execute(ctx context.Context, op Operation) error {
	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			if attempt > 1 {
				r.logger.WithFields(log.Fields{
					"endpoint": r.endpoint,
					"attempt":  attempt,
				}).Info("Call succeeded after retry")
			}
			return nil
		}

		if !IsTransient(err) {
			return err
		}
		if attempt >= r.config.MaxAttempts {
			r.logger.WithFields(log.Fields{
				"endpoint":     r.endpoint,
				"max_attempts": r.config.MaxAttempts,
				"error":        err,
			}).Error("Call failed after all retry attempts")
			return err
		}
		if ctx.Err() != nil {
			return errors.Join(ctx.Err(), err)
		}

		delay := r.Delay(attempt)
		r.observer.OnRetry(r.endpoint, attempt, delay, err)
		r.logger.WithFields(log.Fields{
			"endpoint": r.endpoint,
			"attempt":  attempt,
			"delay":    delay,
			"error":    err,
		}).Warn("Call failed, retrying")

		if sleepErr := r.sleep(ctx, delay); sleepErr != nil {
			return errors.Join(sleepErr, err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func uniformJitter(bound time.Duration) time.Duration {
	if bound <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(bound)))
}
