package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestPaymentMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPaymentMetrics(reg, Config{ServiceName: "paygate", Environment: "test"})
	require.NoError(t, err)

	m.IncWebhook("paymob", "received")
	m.IncWebhook("paymob", "received")
	m.IncReconcileDecision("webhook", "applied")
	m.ObserveProviderCall("stripe", "create", "ok", 120*time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(m.webhooksReceived.WithLabelValues("paymob", "received")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.reconcileDecisions.WithLabelValues("webhook", "applied")))
	require.Equal(t, 1, testutil.CollectAndCount(m.providerCallDuration))
}

func TestPaymentMetricsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPaymentMetrics(reg, Config{})
	require.NoError(t, err)
	_, err = NewPaymentMetrics(reg, Config{})
	require.Error(t, err)
}

func TestNilPaymentMetricsIsSafe(t *testing.T) {
	var m *PaymentMetrics
	m.IncWebhook("cod", "unsupported")
	m.IncReconcileConflict("verify")
}

func TestFilterAttributesDropsIdentifiers(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("provider", "paymob"),
		attribute.String("order_id", "ORD-1001"),
	)
	require.Len(t, attrs, 1)
	require.Equal(t, attribute.Key("provider"), attrs[0].Key)
}
