package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records gateway callback traffic and finalize outcomes.
type PaymentMetrics struct {
	callbacks *prometheus.CounterVec
	finalize  *prometheus.CounterVec
	gateway   *prometheus.HistogramVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	callbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_callbacks_total",
		Help: "Gateway callbacks received, by channel and outcome.",
	}, []string{"channel", "outcome"})
	finalize := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_finalize_total",
		Help: "Finalize attempts, by result (settled, duplicate, unverified, error).",
	}, []string{"result"})
	gateway := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_call_seconds",
		Help:    "Duration of calls to the payment processor.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(callbacks, finalize, gateway)
	return &PaymentMetrics{
		callbacks: callbacks,
		finalize:  finalize,
		gateway:   gateway,
	}
}

// IncCallback counts one received gateway callback.
func (p *PaymentMetrics) IncCallback(channel, outcome string) {
	if p == nil || p.callbacks == nil {
		return
	}
	p.callbacks.WithLabelValues(normalizeLabel(channel), normalizeLabel(outcome)).Inc()
}

// IncFinalize counts one finalize attempt by result.
func (p *PaymentMetrics) IncFinalize(result string) {
	if p == nil || p.finalize == nil {
		return
	}
	p.finalize.WithLabelValues(normalizeLabel(result)).Inc()
}

// ObserveGatewayCall records the duration of one processor round trip.
func (p *PaymentMetrics) ObserveGatewayCall(operation string, duration time.Duration) {
	if p == nil || p.gateway == nil {
		return
	}
	p.gateway.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
