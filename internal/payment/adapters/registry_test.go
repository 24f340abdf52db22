package adapters_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paygate/internal/payment/adapters"
	"github.com/smallbiznis/paygate/internal/payment/adapters/cod"
	"github.com/smallbiznis/paygate/internal/payment/adapters/paymob"
	"github.com/smallbiznis/paygate/internal/payment/adapters/stripe"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) *adapters.Registry {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	reg := adapters.NewRegistry(paymob.NewFactory(nil), stripe.NewFactory(nil), cod.NewFactory(node))

	require.NoError(t, reg.Configure(paymentdomain.AdapterConfig{
		Provider: "cod",
		Methods:  []paymentdomain.MethodConfig{{Method: "cash", DisplayName: "Cash on delivery"}},
	}))
	require.NoError(t, reg.Configure(paymentdomain.AdapterConfig{
		Provider: "Paymob",
		Methods:  []paymentdomain.MethodConfig{{Method: "card", DisplayName: "Card"}, {Method: "wallet"}},
		Config: map[string]any{
			"api_key": "k", "hmac_secret": "h", "iframe_id": "1", "card_integration_id": 10,
		},
	}))
	return reg
}

func TestRegistryLookup(t *testing.T) {
	reg := newRegistry(t)

	adapter, err := reg.Adapter("PAYMOB")
	require.NoError(t, err)
	require.Equal(t, "paymob", adapter.Provider())

	_, err = reg.Adapter("stripe")
	require.ErrorIs(t, err, paymentdomain.ErrUnknownProvider)
	require.True(t, reg.ProviderExists("stripe"))
	require.False(t, reg.ProviderExists("paypal"))
}

func TestRegistryListAvailableMethods(t *testing.T) {
	reg := newRegistry(t)
	methods := reg.ListAvailableMethods()
	require.Equal(t, []paymentdomain.AvailableMethod{
		{Provider: "cod", Method: "cash", DisplayName: "Cash on delivery"},
		{Provider: "paymob", Method: "card", DisplayName: "Card"},
		{Provider: "paymob", Method: "wallet", DisplayName: "wallet"},
	}, methods)

	require.True(t, reg.SupportsMethod("paymob", "CARD"))
	require.False(t, reg.SupportsMethod("cod", "card"))
}

func TestRegistryDetectProvider(t *testing.T) {
	reg := newRegistry(t)
	require.Equal(t, "paymob", reg.DetectProvider("123456789"))
	require.Equal(t, "cod", reg.DetectProvider("cod_998877"))
	require.Equal(t, "", reg.DetectProvider("cs_test_1"))
	require.Equal(t, "", reg.DetectProvider(""))
}

type shapeless struct {
	name string
}

func (s shapeless) Provider() string { return s.name }
func (s shapeless) CreatePayment(context.Context, paymentdomain.PaymentRequest) (*paymentdomain.PaymentCreationResult, error) {
	return nil, nil
}
func (s shapeless) VerifyPayment(context.Context, string) (*paymentdomain.PaymentCallback, error) {
	return nil, nil
}
func (s shapeless) ParseWebhook(context.Context, paymentdomain.WebhookPayload) (*paymentdomain.PaymentCallback, error) {
	return nil, nil
}
func (s shapeless) MapStatus(string) paymentdomain.PaymentStatus {
	return paymentdomain.PaymentStatusPending
}
func (s shapeless) MatchesTransactionID(string) bool { return true }
func (s shapeless) ParseRedirect(url.Values) paymentdomain.RedirectResult {
	return paymentdomain.RedirectResult{}
}

type shapelessFactory struct{ name string }

func (f shapelessFactory) Provider() string { return f.name }
func (f shapelessFactory) NewAdapter(paymentdomain.AdapterConfig) (paymentdomain.Adapter, error) {
	return shapeless{name: f.name}, nil
}

func TestRegistryDetectProviderAmbiguous(t *testing.T) {
	reg := adapters.NewRegistry(shapelessFactory{"alpha"}, shapelessFactory{"beta"})
	require.NoError(t, reg.Configure(paymentdomain.AdapterConfig{Provider: "alpha"}))
	require.Equal(t, "alpha", reg.DetectProvider("anything"))

	require.NoError(t, reg.Configure(paymentdomain.AdapterConfig{Provider: "beta"}))
	require.Equal(t, "", reg.DetectProvider("anything"))
}

func TestRegistryConfigureUnknownFactory(t *testing.T) {
	reg := adapters.NewRegistry()
	err := reg.Configure(paymentdomain.AdapterConfig{Provider: "paypal"})
	require.ErrorIs(t, err, paymentdomain.ErrUnknownProvider)
}
