package paymob

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
	"github.com/stretchr/testify/require"
)

const testHMACSecret = "hmac-secret"

func newTestAdapter(t *testing.T, handler http.Handler) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	adapter, err := NewFactory(srv.Client()).NewAdapter(paymentdomain.AdapterConfig{
		Provider: ProviderName,
		Config: map[string]any{
			"api_key":               "key",
			"hmac_secret":           testHMACSecret,
			"iframe_id":             "777",
			"card_integration_id":   "1001",
			"wallet_integration_id": 1002,
			"base_url":              srv.URL,
		},
	})
	require.NoError(t, err)
	return adapter.(*Adapter)
}

func acceptAPI(t *testing.T) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/tokens", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "auth-token"})
	})
	mux.HandleFunc("/api/ecommerce/orders", func(w http.ResponseWriter, r *http.Request) {
		var body orderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.MerchantOrderID == "ORD-DUP" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"duplicate"}`))
			return
		}
		require.Equal(t, int64(12550), body.AmountCents)
		_, _ = w.Write([]byte(`{"id": 123456789}`))
	})
	mux.HandleFunc("/api/acceptance/payment_keys", func(w http.ResponseWriter, r *http.Request) {
		var body paymentKeyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "123456789", body.OrderID.String())
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "pay-token"})
	})
	return mux
}

func TestCreatePaymentCard(t *testing.T) {
	adapter := newTestAdapter(t, acceptAPI(t))

	res, err := adapter.CreatePayment(context.Background(), paymentdomain.PaymentRequest{
		OrderID:  "ORD-1001",
		Amount:   decimal.RequireFromString("125.50"),
		Currency: "egp",
		Method:   MethodCard,
		Customer: paymentdomain.CustomerContact{FirstName: "Mona", Email: "mona@example.com"},
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "123456789", res.TransactionID)
	require.Equal(t, "ORD-1001", res.ReferenceNumber)
	require.Equal(t, paymentdomain.PaymentStatusPending, res.Status)
	require.Contains(t, res.RedirectURL, "/api/acceptance/iframes/777?payment_token=pay-token")
}

func TestCreatePaymentBusinessDecline(t *testing.T) {
	adapter := newTestAdapter(t, acceptAPI(t))

	res, err := adapter.CreatePayment(context.Background(), paymentdomain.PaymentRequest{
		OrderID:  "ORD-DUP",
		Amount:   decimal.NewFromInt(10),
		Currency: "EGP",
		Method:   MethodCard,
	})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, "duplicate", res.Error)
}

func TestCreatePaymentRetryReusesRegisteredOrder(t *testing.T) {
	adapter := newTestAdapter(t, acceptAPI(t))

	// The merchant order id is already registered, so a second
	// register_order call would be refused.
	res, err := adapter.CreatePayment(context.Background(), paymentdomain.PaymentRequest{
		OrderID:               "ORD-DUP",
		Amount:                decimal.RequireFromString("125.50"),
		Currency:              "EGP",
		Method:                MethodCard,
		PreviousTransactionID: "123456789",
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "123456789", res.TransactionID)
	require.Equal(t, "ORD-DUP", res.ReferenceNumber)

	// Anything that is not a Paymob order id registers a fresh order.
	res, err = adapter.CreatePayment(context.Background(), paymentdomain.PaymentRequest{
		OrderID:               "ORD-DUP",
		Amount:                decimal.RequireFromString("125.50"),
		Currency:              "EGP",
		Method:                MethodCard,
		PreviousTransactionID: "cs_test_1",
	})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, "duplicate", res.Error)
}

func TestCreatePaymentTransportTimeout(t *testing.T) {
	adapter := newTestAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := adapter.CreatePayment(ctx, paymentdomain.PaymentRequest{OrderID: "ORD-1", Method: MethodCard, Amount: decimal.NewFromInt(1)})
	require.Error(t, err)
	require.True(t, errors.Is(err, paymentdomain.ErrProviderTimeout))
}

func TestCreatePaymentUnknownMethod(t *testing.T) {
	adapter := newTestAdapter(t, acceptAPI(t))
	res, err := adapter.CreatePayment(context.Background(), paymentdomain.PaymentRequest{OrderID: "ORD-1", Method: "bnpl"})
	require.NoError(t, err)
	require.False(t, res.Success)
}

func signedCallback(t *testing.T, txn transaction, secret string) paymentdomain.WebhookPayload {
	t.Helper()
	obj, err := json.Marshal(txn)
	require.NoError(t, err)
	body, err := json.Marshal(map[string]any{"type": "TRANSACTION", "obj": json.RawMessage(obj)})
	require.NoError(t, err)
	return paymentdomain.WebhookPayload{
		Body:  body,
		Query: url.Values{"hmac": {hex.EncodeToString(sign(secret, txn))}},
	}
}

func sampleTransaction() transaction {
	return transaction{
		ID:            "9001",
		AmountCents:   "12550",
		CreatedAt:     "2024-05-01T10:00:00.000000",
		Currency:      "EGP",
		IntegrationID: "1001",
		Order:         transactionOrder{ID: "123456789", MerchantOrderID: "ORD-1001"},
		Owner:         "42",
		SourceData:    sourceData{Pan: "2346", SubType: "MasterCard", Type: "card"},
		Success:       true,
	}
}

func TestParseWebhookSuccess(t *testing.T) {
	adapter := newTestAdapter(t, http.NotFoundHandler())

	cb, err := adapter.ParseWebhook(context.Background(), signedCallback(t, sampleTransaction(), testHMACSecret))
	require.NoError(t, err)
	require.Equal(t, "123456789", cb.TransactionID)
	require.Equal(t, "9001", cb.ReferenceNumber)
	require.Equal(t, "ORD-1001", cb.OrderID)
	require.Equal(t, paymentdomain.PaymentStatusCompleted, cb.Status)
	require.True(t, decimal.RequireFromString("125.5").Equal(cb.Amount))
	require.NotNil(t, cb.PaidAt)
}

func TestParseWebhookPaidAtFallsBackToClock(t *testing.T) {
	adapter := newTestAdapter(t, http.NotFoundHandler())
	clockAt := time.Date(2024, 6, 2, 8, 30, 0, 0, time.UTC)
	adapter.now = func() time.Time { return clockAt }

	cb, err := adapter.ParseWebhook(context.Background(), signedCallback(t, sampleTransaction(), testHMACSecret))
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), *cb.PaidAt)

	for _, raw := range []string{"", "yesterday"} {
		txn := sampleTransaction()
		txn.CreatedAt = raw
		cb, err := adapter.ParseWebhook(context.Background(), signedCallback(t, txn, testHMACSecret))
		require.NoError(t, err)
		require.Equal(t, clockAt, *cb.PaidAt)
	}
}

func TestParseWebhookRejectsBadSignature(t *testing.T) {
	adapter := newTestAdapter(t, http.NotFoundHandler())

	payload := signedCallback(t, sampleTransaction(), "other-secret")
	_, err := adapter.ParseWebhook(context.Background(), payload)
	require.ErrorIs(t, err, paymentdomain.ErrInvalidSignature)

	payload.Query = url.Values{}
	_, err = adapter.ParseWebhook(context.Background(), payload)
	require.ErrorIs(t, err, paymentdomain.ErrInvalidSignature)
}

func TestParseWebhookTamperedAmount(t *testing.T) {
	adapter := newTestAdapter(t, http.NotFoundHandler())

	txn := sampleTransaction()
	payload := signedCallback(t, txn, testHMACSecret)
	tampered := txn
	tampered.AmountCents = "1"
	forged := signedCallback(t, tampered, testHMACSecret)
	forged.Query = payload.Query

	_, err := adapter.ParseWebhook(context.Background(), forged)
	require.ErrorIs(t, err, paymentdomain.ErrInvalidSignature)
}

func TestParseWebhookIgnoresOtherTypes(t *testing.T) {
	adapter := newTestAdapter(t, http.NotFoundHandler())

	txn := sampleTransaction()
	obj, _ := json.Marshal(txn)
	body, _ := json.Marshal(map[string]any{"type": "TOKEN", "obj": json.RawMessage(obj)})
	_, err := adapter.ParseWebhook(context.Background(), paymentdomain.WebhookPayload{
		Body:  body,
		Query: url.Values{"hmac": {hex.EncodeToString(sign(testHMACSecret, txn))}},
	})
	require.ErrorIs(t, err, paymentdomain.ErrEventIgnored)
}

func TestVerifyPaymentInquiry(t *testing.T) {
	mux := acceptAPI(t)
	mux.HandleFunc("/api/ecommerce/orders/transaction_inquiry", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer auth-token", r.Header.Get("Authorization"))
		txn := sampleTransaction()
		txn.Success = false
		txn.IsRefunded = true
		_ = json.NewEncoder(w).Encode(txn)
	})
	adapter := newTestAdapter(t, mux)

	cb, err := adapter.VerifyPayment(context.Background(), "123456789")
	require.NoError(t, err)
	require.Equal(t, paymentdomain.PaymentStatusRefunded, cb.Status)
	require.Equal(t, "refunded", cb.ProviderStatus)
	require.Nil(t, cb.PaidAt)
}

func TestVerifyPaymentRejectsMalformedID(t *testing.T) {
	adapter := newTestAdapter(t, http.NotFoundHandler())
	_, err := adapter.VerifyPayment(context.Background(), "cs_test")
	require.ErrorIs(t, err, paymentdomain.ErrInvalidTransaction)
}

func TestMapStatusFallsBackToPending(t *testing.T) {
	adapter := &Adapter{}
	require.Equal(t, paymentdomain.PaymentStatusFailed, adapter.MapStatus("declined"))
	require.Equal(t, paymentdomain.PaymentStatusPending, adapter.MapStatus("mystery"))
}

func TestParseRedirect(t *testing.T) {
	adapter := &Adapter{}
	res := adapter.ParseRedirect(url.Values{
		"success":           {"true"},
		"merchant_order_id": {"ORD-1001"},
		"order":             {"123456789"},
	})
	require.True(t, res.Success)
	require.Equal(t, "ORD-1001", res.OrderID)
	require.Equal(t, "123456789", res.TransactionID)
}

func TestMatchesTransactionID(t *testing.T) {
	adapter := &Adapter{}
	require.True(t, adapter.MatchesTransactionID("123456789"))
	require.False(t, adapter.MatchesTransactionID("cs_test_123"))
	require.False(t, adapter.MatchesTransactionID("cod_1234567"))
}

func TestFactoryRequiresSettings(t *testing.T) {
	_, err := NewFactory(nil).NewAdapter(paymentdomain.AdapterConfig{Provider: ProviderName, Config: map[string]any{"api_key": "k"}})
	require.Error(t, err)
}
