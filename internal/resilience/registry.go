package resilience

import (
	"context"
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Registry выдаёт по одному breaker на имя endpoint. Все клиенты,
// созданные для одного имени, видят общее состояние.
type Registry struct {
	retryConfig   RetryConfig
	breakerConfig BreakerConfig
	observer      Observer
	logger        *log.Entry
	now           func() time.Time
	sleep         func(ctx context.Context, d time.Duration) error
	jitter        func(bound time.Duration) time.Duration

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// RegistryOption настраивает Registry.
type RegistryOption func(*Registry)

// WithObserver задаёт получателя событий для всех политик реестра.
func WithObserver(observer Observer) RegistryOption {
	return func(r *Registry) {
		if observer != nil {
			r.observer = observer
		}
	}
}

// WithLogger задаёт базовый логгер политик.
func WithLogger(logger *log.Entry) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRegistryClock подменяет время для всех breaker.
func WithRegistryClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// WithRegistrySleep подменяет ожидание между повторами.
func WithRegistrySleep(sleep func(ctx context.Context, d time.Duration) error) RegistryOption {
	return func(r *Registry) { r.sleep = sleep }
}

// WithRegistryJitter подменяет генератор jitter.
func WithRegistryJitter(jitter func(bound time.Duration) time.Duration) RegistryOption {
	return func(r *Registry) { r.jitter = jitter }
}

// NewRegistry создаёт реестр с общими конфигурациями политик.
func NewRegistry(retry RetryConfig, breaker BreakerConfig, opts ...RegistryOption) *Registry {
	r := &Registry{
		retryConfig:   retry,
		breakerConfig: breaker,
		observer:      NopObserver{},
		logger:        log.WithField("component", "resilience"),
		breakers:      make(map[string]*CircuitBreaker),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Breaker возвращает breaker endpoint, создавая его при первом обращении.
func (r *Registry) Breaker(endpoint string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cb, ok := r.breakers[endpoint]; ok {
		return cb
	}
	cb := NewCircuitBreaker(endpoint, r.breakerConfig,
		WithClock(r.now),
		WithBreakerObserver(r.observer),
		WithBreakerLogger(r.logger.WithField("endpoint", endpoint)),
	)
	r.breakers[endpoint] = cb
	return cb
}

// Retry создаёт политику повторов для endpoint. Состояние повторов не
// разделяется, поэтому экземпляр можно создавать на каждого клиента.
func (r *Registry) Retry(endpoint string) *Retry {
	return NewRetry(endpoint, r.retryConfig,
		WithSleep(r.sleep),
		WithJitter(r.jitter),
		WithRetryObserver(r.observer),
		WithRetryLogger(r.logger.WithField("endpoint", endpoint)),
	)
}

// Pipeline возвращает цепочку endpoint: breaker снаружи, повторы внутри.
func (r *Registry) Pipeline(endpoint string) Policy {
	return Chain(r.Breaker(endpoint), r.Retry(endpoint))
}

// BreakerStatus — снимок состояния одного breaker.
type BreakerStatus struct {
	Endpoint string
	State    State
}

// Snapshot возвращает состояния всех breaker, отсортированные по имени.
func (r *Registry) Snapshot() []BreakerStatus {
	r.mu.Lock()
	breakers := make([]*CircuitBreaker, 0, len(r.breakers))
	for _, cb := range r.breakers {
		breakers = append(breakers, cb)
	}
	r.mu.Unlock()

	out := make([]BreakerStatus, 0, len(breakers))
	for _, cb := range breakers {
		out = append(out, BreakerStatus{Endpoint: cb.Endpoint(), State: cb.State()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Endpoint < out[j].Endpoint })
	return out
}
