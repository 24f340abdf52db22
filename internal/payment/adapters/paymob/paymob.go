// Package paymob integrates the Paymob Accept API: hosted iframe checkout,
// HMAC-signed transaction callbacks and order inquiry.
package paymob

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/paygate/internal/payment/adapters"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
)

const (
	ProviderName   = "paymob"
	defaultBaseURL = "https://accept.paymob.com"

	MethodCard   = "card"
	MethodWallet = "wallet"

	paymentKeyExpirySeconds = 3600
)

// Paymob order ids are plain integers.
var transactionIDPattern = regexp.MustCompile(`^\d{6,12}$`)

var statusMap = map[string]paymentdomain.PaymentStatus{
	"success":  paymentdomain.PaymentStatusCompleted,
	"pending":  paymentdomain.PaymentStatusProcessing,
	"declined": paymentdomain.PaymentStatusFailed,
	"voided":   paymentdomain.PaymentStatusCancelled,
	"refunded": paymentdomain.PaymentStatusRefunded,
	"expired":  paymentdomain.PaymentStatusExpired,
}

type Factory struct {
	client *http.Client
	now    func() time.Time
}

func NewFactory(client *http.Client) *Factory {
	if client == nil {
		client = adapters.NewHTTPClient()
	}
	return &Factory{client: client, now: time.Now}
}

func (f *Factory) Provider() string { return ProviderName }

func (f *Factory) NewAdapter(cfg paymentdomain.AdapterConfig) (paymentdomain.Adapter, error) {
	settings := adapters.Settings(cfg.Config)
	if err := settings.Require("api_key", "hmac_secret", "iframe_id"); err != nil {
		return nil, err
	}

	integrations := map[string]int64{}
	for _, method := range []string{MethodCard, MethodWallet} {
		id, err := settings.Int64(method + "_integration_id")
		if err != nil {
			return nil, err
		}
		if id > 0 {
			integrations[method] = id
		}
	}
	if len(integrations) == 0 {
		return nil, paymentdomain.ErrInvalidConfig
	}

	baseURL := settings.String("base_url")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Adapter{
		client:       f.client,
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       settings.String("api_key"),
		hmacSecret:   settings.String("hmac_secret"),
		iframeID:     settings.String("iframe_id"),
		integrations: integrations,
		now:          f.now,
	}, nil
}

type Adapter struct {
	client       *http.Client
	baseURL      string
	apiKey       string
	hmacSecret   string
	iframeID     string
	integrations map[string]int64
	now          func() time.Time
}

func (a *Adapter) Provider() string { return ProviderName }

func (a *Adapter) MapStatus(providerStatus string) paymentdomain.PaymentStatus {
	if status, ok := statusMap[strings.ToLower(strings.TrimSpace(providerStatus))]; ok {
		return status
	}
	return paymentdomain.PaymentStatusPending
}

func (a *Adapter) MatchesTransactionID(transactionID string) bool {
	return transactionIDPattern.MatchString(transactionID)
}

func (a *Adapter) VerifyPayment(ctx context.Context, transactionID string) (*paymentdomain.PaymentCallback, error) {
	orderID, err := strconv.ParseInt(strings.TrimSpace(transactionID), 10, 64)
	if err != nil || orderID <= 0 {
		return nil, paymentdomain.ErrInvalidTransaction
	}
	token, err := a.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	req, err := adapters.NewJSONRequest(ctx, http.MethodPost, a.baseURL+"/api/ecommerce/orders/transaction_inquiry", map[string]any{
		"auth_token": token,
		"order_id":   orderID,
	})
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := adapters.Do(ctx, a.client, ProviderName, "transaction_inquiry", req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		// No transaction has been attempted against this order yet.
		return &paymentdomain.PaymentCallback{
			Provider:       ProviderName,
			TransactionID:  strconv.FormatInt(orderID, 10),
			Status:         paymentdomain.PaymentStatusPending,
			ProviderStatus: "pending",
		}, nil
	}
	if !resp.OK() {
		return nil, &paymentdomain.ProviderError{Provider: ProviderName, Op: "transaction_inquiry", Err: errorFromBody(resp)}
	}

	var txn transaction
	if err := resp.Decode(&txn); err != nil {
		return nil, err
	}
	return a.callbackFromTransaction(txn)
}

func (a *Adapter) callbackFromTransaction(txn transaction) (*paymentdomain.PaymentCallback, error) {
	orderID := txn.Order.ID.String()
	if orderID == "" || orderID == "0" {
		return nil, paymentdomain.ErrInvalidPayload
	}
	native := txn.nativeStatus()
	cb := &paymentdomain.PaymentCallback{
		Provider:        ProviderName,
		TransactionID:   orderID,
		ReferenceNumber: txn.ID.String(),
		OrderID:         strings.TrimSpace(txn.Order.MerchantOrderID),
		Status:          a.MapStatus(native),
		ProviderStatus:  native,
		Amount:          fromCents(txn.AmountCents),
		Currency:        strings.ToUpper(txn.Currency),
	}
	if cb.Status == paymentdomain.PaymentStatusCompleted {
		cb.PaidAt = txn.createdAt(a.now)
	}
	return cb, nil
}
