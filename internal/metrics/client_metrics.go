package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vladislavdragonenkov/webstore/internal/resilience"
)

// ClientMetrics содержит метрики исходящих вызовов типизированных клиентов
// и реализует resilience.Observer.
type ClientMetrics struct {
	requestDuration    *prometheus.HistogramVec
	requestsTotal      *prometheus.CounterVec
	retriesTotal       *prometheus.CounterVec
	rejectedTotal      *prometheus.CounterVec
	breakerState       *prometheus.GaugeVec
	breakerTransitions *prometheus.CounterVec
}

var _ resilience.Observer = (*ClientMetrics)(nil)

// NewClientMetrics создаёт метрики в реестре по умолчанию.
func NewClientMetrics() *ClientMetrics {
	return NewClientMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewClientMetricsWithRegisterer создаёт метрики в указанном реестре.
func NewClientMetricsWithRegisterer(registerer prometheus.Registerer) *ClientMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &ClientMetrics{
		requestDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "webstore_client_request_duration_seconds",
			Help:    "Duration of single outbound HTTP attempts in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"endpoint", "method"}),
		requestsTotal: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "webstore_client_requests_total",
			Help: "Total number of outbound HTTP attempts by status code",
		}, []string{"endpoint", "method", "code"}),
		retriesTotal: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "webstore_client_retries_total",
			Help: "Total number of retries scheduled after transient failures",
		}, []string{"endpoint"}),
		rejectedTotal: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "webstore_client_rejected_total",
			Help: "Total number of calls rejected by an open circuit breaker",
		}, []string{"endpoint"}),
		breakerState: registerGaugeVec(registerer, prometheus.GaugeOpts{
			Name: "webstore_client_circuit_state",
			Help: "Circuit breaker state per endpoint (0 closed, 1 open, 2 half-open)",
		}, []string{"endpoint"}),
		breakerTransitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "webstore_client_circuit_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		}, []string{"endpoint", "from", "to"}),
	}
}

// ObserveRequest записывает одну сетевую попытку. status 0 означает
// сетевую ошибку без ответа.
func (m *ClientMetrics) ObserveRequest(endpoint, method string, status int, duration time.Duration) {
	code := "network_error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.requestDuration.WithLabelValues(endpoint, method).Observe(duration.Seconds())
	m.requestsTotal.WithLabelValues(endpoint, method, code).Inc()
}

// OnRetry увеличивает счётчик повторов.
func (m *ClientMetrics) OnRetry(endpoint string, _ int, _ time.Duration, _ error) {
	m.retriesTotal.WithLabelValues(endpoint).Inc()
}

// OnStateChange фиксирует переход breaker.
func (m *ClientMetrics) OnStateChange(endpoint string, from, to resilience.State) {
	m.breakerState.WithLabelValues(endpoint).Set(float64(to))
	m.breakerTransitions.WithLabelValues(endpoint, from.String(), to.String()).Inc()
}

// OnRejected увеличивает счётчик отклонённых вызовов.
func (m *ClientMetrics) OnRejected(endpoint string) {
	m.rejectedTotal.WithLabelValues(endpoint).Inc()
}
