// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/Lixing-Zhang/kart-challenge/cart-engine/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "cart_engine"

// Metrics groups the collectors for HTTP traffic and cart operations
type Metrics struct {
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	CartOperations *prometheus.CounterVec
	OrdersTotal    prometheus.Counter
	OrderRevenue   prometheus.Counter
	StateRecovered *prometheus.CounterVec
}

// New registers all collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		CartOperations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_operations_total",
			Help:      "Cart operations by operation and result.",
		}, []string{"operation", "result"}),
		OrdersTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_completed_total",
			Help:      "Orders completed.",
		}),
		OrderRevenue: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_revenue_minor_units_total",
			Help:      "Sum of payable order totals in minor currency units.",
		}),
		StateRecovered: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_recovered_total",
			Help:      "Persisted state replaced by a default after a load failure.",
		}, []string{"aggregate"}),
	}
}

// ObserveOutcome counts a cart operation outcome. Safe on a nil receiver.
func (m *Metrics) ObserveOutcome(operation string, out models.Outcome) {
	if m == nil {
		return
	}
	result := "success"
	if !out.Success {
		result = string(out.Reason)
	}
	m.CartOperations.WithLabelValues(operation, result).Inc()
}

// ObserveOrder records a completed order. Safe on a nil receiver.
func (m *Metrics) ObserveOrder(order models.Order) {
	if m == nil {
		return
	}
	m.OrdersTotal.Inc()
	m.OrderRevenue.Add(float64(order.TotalAfterDiscount))
}

// ObserveRecovery counts a fallback to default state. Safe on a nil receiver.
func (m *Metrics) ObserveRecovery(aggregate string) {
	if m == nil {
		return
	}
	m.StateRecovered.WithLabelValues(aggregate).Inc()
}
