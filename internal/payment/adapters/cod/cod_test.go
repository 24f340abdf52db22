package cod

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
	"github.com/stretchr/testify/require"
)

func newAdapter(t *testing.T) *Adapter {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	adapter, err := NewFactory(node).NewAdapter(paymentdomain.AdapterConfig{Provider: ProviderName})
	require.NoError(t, err)
	return adapter.(*Adapter)
}

func TestCreatePaymentIsSynchronous(t *testing.T) {
	adapter := newAdapter(t)
	res, err := adapter.CreatePayment(context.Background(), paymentdomain.PaymentRequest{OrderID: "ORD-1001"})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Empty(t, res.RedirectURL)
	require.Equal(t, paymentdomain.PaymentStatusPending, res.Status)
	require.True(t, adapter.MatchesTransactionID(res.TransactionID))

	again, err := adapter.CreatePayment(context.Background(), paymentdomain.PaymentRequest{OrderID: "ORD-1001"})
	require.NoError(t, err)
	require.NotEqual(t, res.TransactionID, again.TransactionID)
}

func TestVerifyReportsPending(t *testing.T) {
	adapter := newAdapter(t)
	cb, err := adapter.VerifyPayment(context.Background(), "cod_1234")
	require.NoError(t, err)
	require.Equal(t, paymentdomain.PaymentStatusPending, cb.Status)

	_, err = adapter.VerifyPayment(context.Background(), "cs_1234")
	require.ErrorIs(t, err, paymentdomain.ErrInvalidTransaction)
}

func TestWebhookUnsupported(t *testing.T) {
	adapter := newAdapter(t)
	_, err := adapter.ParseWebhook(context.Background(), paymentdomain.WebhookPayload{Body: []byte(`{}`)})
	require.ErrorIs(t, err, paymentdomain.ErrWebhookUnsupported)
}

func TestFactoryNeedsNode(t *testing.T) {
	_, err := NewFactory(nil).NewAdapter(paymentdomain.AdapterConfig{})
	require.ErrorIs(t, err, paymentdomain.ErrInvalidConfig)
}
