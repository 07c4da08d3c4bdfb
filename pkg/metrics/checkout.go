package metrics

import "github.com/prometheus/client_golang/prometheus"

// CheckoutMetrics counts checkout stage outcomes and failed operator
// notifications.
type CheckoutMetrics struct {
	outcomes      *prometheus.CounterVec
	notifyFailure prometheus.Counter
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "outcomes_total",
		Help:      "Checkout stage results by outcome.",
	}, []string{"stage", "outcome"})
	notifyFailure := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "checkout",
		Name:      "notification_failures_total",
		Help:      "Operator notifications that could not be delivered.",
	})
	reg.MustRegister(outcomes, notifyFailure)
	return &CheckoutMetrics{outcomes: outcomes, notifyFailure: notifyFailure}
}

func (c *CheckoutMetrics) ObserveCheckout(stage, outcome string) {
	if c == nil || c.outcomes == nil {
		return
	}
	c.outcomes.WithLabelValues(normalizeLabel(stage), normalizeLabel(outcome)).Inc()
}

func (c *CheckoutMetrics) IncNotificationFailure() {
	if c == nil || c.notifyFailure == nil {
		return
	}
	c.notifyFailure.Inc()
}
