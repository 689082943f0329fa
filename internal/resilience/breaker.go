package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/webstore/internal/domain"
)

// ErrCircuitOpen возвращается, когда breaker отклонил вызов без обращения к сети.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State — состояние circuit breaker.
type State int32

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// OpenError — отказ breaker. Совпадает с ErrCircuitOpen и
// domain.ErrServiceUnavailable через errors.Is.
type OpenError struct {
	Endpoint   string
	State      State
	RetryAfter time.Duration
}

func (e *OpenError) Error() string {
	if e.State == StateHalfOpen {
		return fmt.Sprintf("endpoint %s: %s (trial call in flight)", e.Endpoint, ErrCircuitOpen)
	}
	return fmt.Sprintf("endpoint %s: %s, retry after %s", e.Endpoint, ErrCircuitOpen, e.RetryAfter)
}

func (e *OpenError) Unwrap() []error {
	return []error{ErrCircuitOpen, domain.ErrServiceUnavailable}
}

// BreakerConfig конфигурация circuit breaker.
type BreakerConfig struct {
	// FailureThreshold — число подряд идущих временных ошибок до размыкания.
	FailureThreshold int
	// BreakDuration — сколько breaker остаётся разомкнутым.
	BreakDuration time.Duration
	// FailureWindow, если задано, сбрасывает счётчик, когда предыдущая
	// ошибка старше окна.
	FailureWindow time.Duration
}

// DefaultBreakerConfig возвращает конфигурацию по умолчанию.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		BreakDuration:    30 * time.Second,
	}
}

func (c BreakerConfig) normalized() BreakerConfig {
	if c.FailureThreshold < 1 {
		c.FailureThreshold = 1
	}
	if c.BreakDuration < 0 {
		c.BreakDuration = 0
	}
	if c.FailureWindow < 0 {
		c.FailureWindow = 0
	}
	return c
}

// CircuitBreaker защищает один endpoint. Экземпляр общий для всех
// клиентов endpoint, все переходы выполняются под мьютексом.
type CircuitBreaker struct {
	endpoint string
	config   BreakerConfig
	now      func() time.Time
	observer Observer
	logger   *log.Entry

	mu            sync.Mutex
	state         State
	failures      int
	lastFailure   time.Time
	openedAt      time.Time
	trialInFlight bool
}

// BreakerOption настраивает CircuitBreaker.
type BreakerOption func(*CircuitBreaker)

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) BreakerOption {
	return func(cb *CircuitBreaker) {
		if now != nil {
			cb.now = now
		}
	}
}

// WithBreakerObserver задаёт получателя событий breaker.
func WithBreakerObserver(observer Observer) BreakerOption {
	return func(cb *CircuitBreaker) {
		if observer != nil {
			cb.observer = observer
		}
	}
}

// WithBreakerLogger задаёт логгер.
func WithBreakerLogger(logger *log.Entry) BreakerOption {
	return func(cb *CircuitBreaker) {
		if logger != nil {
			cb.logger = logger
		}
	}
}

// NewCircuitBreaker создаёт breaker в состоянии Closed.
func NewCircuitBreaker(endpoint string, config BreakerConfig, opts ...BreakerOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		endpoint: endpoint,
		config:   config.normalized(),
		now:      time.Now,
		observer: NopObserver{},
		logger:   log.WithField("component", "circuit-breaker"),
		state:    StateClosed,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

// Endpoint возвращает имя защищаемого endpoint.
func (cb *CircuitBreaker) Endpoint() string {
	return cb.endpoint
}

// State возвращает текущее состояние. Истёкший Open переводится в HalfOpen.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	change := cb.advance(cb.now())
	state := cb.state
	cb.mu.Unlock()

	cb.notify(change)
	return state
}

// Execute выполняет операцию, если breaker её допускает.
func (cb *CircuitBreaker) Execute(ctx context.Context, op Operation) error {
	trial, err := cb.admit()
	if err != nil {
		cb.observer.OnRejected(cb.endpoint)
		return err
	}

	opErr := op(ctx)
	cb.record(trial, opErr)
	return opErr
}

func (cb *CircuitBreaker) admit() (bool, error) {
	now := cb.now()

	cb.mu.Lock()
	change := cb.advance(now)
	var (
		trial bool
		err   error
	)
	switch cb.state {
	case StateOpen:
		err = &OpenError{
			Endpoint:   cb.endpoint,
			State:      StateOpen,
			RetryAfter: cb.openedAt.Add(cb.config.BreakDuration).Sub(now),
		}
	case StateHalfOpen:
		if cb.trialInFlight {
			err = &OpenError{Endpoint: cb.endpoint, State: StateHalfOpen}
		} else {
			cb.trialInFlight = true
			trial = true
		}
	}
	cb.mu.Unlock()

	cb.notify(change)
	return trial, err
}

func (cb *CircuitBreaker) record(trial bool, err error) {
	now := cb.now()
	failure := IsTransient(err)

	cb.mu.Lock()
	var change *stateChange
	switch {
	case trial:
		cb.trialInFlight = false
		if errors.Is(err, context.Canceled) {
			// Пробный вызов отменён клиентом: следующий вызов станет пробным.
			break
		}
		if failure {
			change = cb.transition(StateOpen, now)
		} else {
			change = cb.transition(StateClosed, now)
		}
	case cb.state != StateClosed:
		// Поздний результат вызова, допущенного до размыкания.
	case errors.Is(err, context.Canceled):
	case failure:
		if cb.config.FailureWindow > 0 && !cb.lastFailure.IsZero() && now.Sub(cb.lastFailure) > cb.config.FailureWindow {
			cb.failures = 0
		}
		cb.failures++
		cb.lastFailure = now
		if cb.failures >= cb.config.FailureThreshold {
			change = cb.transition(StateOpen, now)
		}
	default:
		cb.failures = 0
		cb.lastFailure = time.Time{}
	}
	cb.mu.Unlock()

	cb.notify(change)
}

type stateChange struct {
	from, to State
	failures int
}

// advance переводит истёкший Open в HalfOpen. Вызывается под мьютексом.
func (cb *CircuitBreaker) advance(now time.Time) *stateChange {
	if cb.state == StateOpen && !now.Before(cb.openedAt.Add(cb.config.BreakDuration)) {
		return cb.transition(StateHalfOpen, now)
	}
	return nil
}

// transition меняет состояние. Вызывается под мьютексом.
func (cb *CircuitBreaker) transition(to State, now time.Time) *stateChange {
	change := &stateChange{from: cb.state, to: to, failures: cb.failures}
	cb.state = to
	switch to {
	case StateOpen:
		cb.openedAt = now
		cb.failures = 0
		cb.lastFailure = time.Time{}
	case StateHalfOpen:
		cb.trialInFlight = false
	case StateClosed:
		cb.failures = 0
		cb.lastFailure = time.Time{}
	}
	return change
}

func (cb *CircuitBreaker) notify(change *stateChange) {
	if change == nil || change.from == change.to {
		return
	}
	cb.observer.OnStateChange(cb.endpoint, change.from, change.to)

	entry := cb.logger.WithFields(log.Fields{
		"endpoint": cb.endpoint,
		"from":     change.from.String(),
		"to":       change.to.String(),
	})
	switch change.to {
	case StateOpen:
		entry.WithField("failures", change.failures).Warn("Circuit breaker opened")
	case StateHalfOpen:
		entry.Info("Circuit breaker half-open")
	case StateClosed:
		entry.Info("Circuit breaker closed")
	}
}
