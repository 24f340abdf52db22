package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics tracks provider calls, webhook outcomes and reconciliation
// decisions.
type PaymentMetrics struct {
	providerCallDuration *prometheus.HistogramVec
	paymentsCreated      *prometheus.CounterVec
	webhooksReceived     *prometheus.CounterVec
	reconcileDecisions   *prometheus.CounterVec
	reconcileConflicts   *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment collectors on registerer.
func NewPaymentMetrics(registerer prometheus.Registerer, cfg Config) (*PaymentMetrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	constLabels := prometheus.Labels{
		"service": cfg.service(),
		"env":     cfg.environment(),
	}

	providerCallDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        "paygate_provider_call_duration_seconds",
			Help:        "Latency of outbound payment provider calls.",
			Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
			ConstLabels: constLabels,
		},
		[]string{"provider", "operation", "result"}, // ok | error | timeout
	)

	paymentsCreated := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "paygate_payments_created_total",
			Help:        "Payment creation attempts by provider and result.",
			ConstLabels: constLabels,
		},
		[]string{"provider", "result"},
	)

	webhooksReceived := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "paygate_webhooks_received_total",
			Help:        "Inbound webhooks by provider and acknowledged status.",
			ConstLabels: constLabels,
		},
		[]string{"provider", "status"},
	)

	reconcileDecisions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "paygate_reconcile_decisions_total",
			Help:        "Reconciliation decisions by source and outcome.",
			ConstLabels: constLabels,
		},
		[]string{"source", "decision"}, // applied | duplicate | regression
	)

	reconcileConflicts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "paygate_reconcile_conflicts_total",
			Help:        "Compare-and-swap conflicts retried during reconciliation.",
			ConstLabels: constLabels,
		},
		[]string{"source"},
	)

	for _, c := range []prometheus.Collector{
		providerCallDuration,
		paymentsCreated,
		webhooksReceived,
		reconcileDecisions,
		reconcileConflicts,
	} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}

	return &PaymentMetrics{
		providerCallDuration: providerCallDuration,
		paymentsCreated:      paymentsCreated,
		webhooksReceived:     webhooksReceived,
		reconcileDecisions:   reconcileDecisions,
		reconcileConflicts:   reconcileConflicts,
	}, nil
}

func (m *PaymentMetrics) ObserveProviderCall(provider, operation, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.providerCallDuration.WithLabelValues(provider, operation, result).Observe(d.Seconds())
}

func (m *PaymentMetrics) IncPaymentCreated(provider, result string) {
	if m == nil {
		return
	}
	m.paymentsCreated.WithLabelValues(provider, result).Inc()
}

func (m *PaymentMetrics) IncWebhook(provider, status string) {
	if m == nil {
		return
	}
	m.webhooksReceived.WithLabelValues(provider, status).Inc()
}

func (m *PaymentMetrics) IncReconcileDecision(source, decision string) {
	if m == nil {
		return
	}
	m.reconcileDecisions.WithLabelValues(source, decision).Inc()
}

func (m *PaymentMetrics) IncReconcileConflict(source string) {
	if m == nil {
		return
	}
	m.reconcileConflicts.WithLabelValues(source).Inc()
}
