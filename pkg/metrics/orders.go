package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records order lifecycle activity: status transitions, email
// dispatch outcomes and payment gateway latency.
type OrderMetrics struct {
	transitions   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	gateway       *prometheus.HistogramVec
	checkouts     *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_order_transitions_total",
		Help: "Applied order status transitions.",
	}, []string{"from", "to", "source"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_order_notifications_total",
		Help: "Order emails by template and outcome.",
	}, []string{"template", "outcome"})
	gateway := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_payment_gateway_duration_seconds",
		Help:    "Latency of payment initiation calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "outcome"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_checkouts_total",
		Help: "Checkout attempts by payment method and outcome.",
	}, []string{"payment_method", "outcome"})
	reg.MustRegister(transitions, notifications, gateway, checkouts)
	return &OrderMetrics{
		transitions:   transitions,
		notifications: notifications,
		gateway:       gateway,
		checkouts:     checkouts,
	}
}

// RecordTransition counts an applied status change. source is confirm, cancel, staff or reconcile.
func (m *OrderMetrics) RecordTransition(from, to, source string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to), normalizeLabel(source)).Inc()
}

// RecordNotification counts an email attempt.
func (m *OrderMetrics) RecordNotification(template string, err error) {
	if m == nil || m.notifications == nil {
		return
	}
	m.notifications.WithLabelValues(normalizeLabel(template), outcome(err)).Inc()
}

// ObserveGateway records the duration of a payment initiation call.
func (m *OrderMetrics) ObserveGateway(provider string, duration time.Duration, err error) {
	if m == nil || m.gateway == nil {
		return
	}
	m.gateway.WithLabelValues(normalizeLabel(provider), outcome(err)).Observe(duration.Seconds())
}

// RecordCheckout counts a checkout attempt.
func (m *OrderMetrics) RecordCheckout(paymentMethod string, err error) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(paymentMethod), outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
