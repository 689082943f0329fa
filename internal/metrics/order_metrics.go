package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics содержит метрики оформления заказов.
type OrderMetrics struct {
	ordersCreated prometheus.Counter
	ordersFailed  prometheus.Counter
	orderTotal    prometheus.Histogram
	orderItems    prometheus.Histogram
	outboxEvents  prometheus.Counter
}

// NewOrderMetrics создаёт метрики в реестре по умолчанию.
func NewOrderMetrics() *OrderMetrics {
	return NewOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewOrderMetricsWithRegisterer создаёт метрики в указанном реестре.
func NewOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "webstore_orders_created_total",
			Help: "Total number of orders created",
		}),
		ordersFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "webstore_orders_failed_total",
			Help: "Total number of order creations that failed",
		}),
		orderTotal: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "webstore_order_total_price",
			Help:    "Total price of created orders",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
		orderItems: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "webstore_order_items",
			Help:    "Number of product units in created orders",
			Buckets: []float64{1, 2, 3, 5, 10, 20, 50},
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "webstore_outbox_events_total",
			Help: "Total number of outbox events enqueued",
		}),
	}
}

// RecordOrderCreated фиксирует созданный заказ.
func (m *OrderMetrics) RecordOrderCreated(total float64, items int) {
	m.ordersCreated.Inc()
	m.orderTotal.Observe(total)
	m.orderItems.Observe(float64(items))
}

// RecordOrderFailed увеличивает счётчик неудачных заказов.
func (m *OrderMetrics) RecordOrderFailed() {
	m.ordersFailed.Inc()
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *OrderMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}
