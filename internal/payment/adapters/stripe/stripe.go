// Package stripe integrates Stripe Checkout Sessions over the form-encoded
// REST API.
package stripe

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/paygate/internal/payment/adapters"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
)

const (
	ProviderName   = "stripe"
	defaultBaseURL = "https://api.stripe.com"

	defaultSignatureTolerance = 5 * time.Minute
)

var transactionIDPattern = regexp.MustCompile(`^cs_[A-Za-z0-9_]+$`)

// Native statuses are "<object>.<status>" so session and intent vocabularies
// cannot collide.
var statusMap = map[string]paymentdomain.PaymentStatus{
	"session.open":                           paymentdomain.PaymentStatusPending,
	"session.unpaid":                         paymentdomain.PaymentStatusPending,
	"session.paid":                           paymentdomain.PaymentStatusCompleted,
	"session.no_payment_required":            paymentdomain.PaymentStatusCompleted,
	"session.expired":                        paymentdomain.PaymentStatusExpired,
	"session.async_failed":                   paymentdomain.PaymentStatusFailed,
	"payment_intent.processing":              paymentdomain.PaymentStatusProcessing,
	"payment_intent.requires_action":         paymentdomain.PaymentStatusProcessing,
	"payment_intent.succeeded":               paymentdomain.PaymentStatusCompleted,
	"payment_intent.payment_failed":          paymentdomain.PaymentStatusFailed,
	"payment_intent.canceled":                paymentdomain.PaymentStatusCancelled,
	"charge.refunded":                        paymentdomain.PaymentStatusRefunded,
	"payment_intent.requires_payment_method": paymentdomain.PaymentStatusPending,
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
	if err := settings.Require("secret_key", "webhook_secret"); err != nil {
		return nil, err
	}
	tolerance, err := settings.Duration("signature_tolerance", defaultSignatureTolerance)
	if err != nil {
		return nil, err
	}
	baseURL := settings.String("base_url")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{
		client:        f.client,
		baseURL:       strings.TrimRight(baseURL, "/"),
		secretKey:     settings.String("secret_key"),
		webhookSecret: settings.String("webhook_secret"),
		tolerance:     tolerance,
		now:           f.now,
	}, nil
}

type Adapter struct {
	client        *http.Client
	baseURL       string
	secretKey     string
	webhookSecret string
	tolerance     time.Duration
	now           func() time.Time
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

// CreatePayment opens a hosted Checkout Session for the order total.
func (a *Adapter) CreatePayment(ctx context.Context, req paymentdomain.PaymentRequest) (*paymentdomain.PaymentCreationResult, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("client_reference_id", req.OrderID)
	form.Set("success_url", withSessionPlaceholder(req.ReturnURL))
	form.Set("cancel_url", req.CancelURL)
	form.Set("metadata[order_id]", req.OrderID)
	form.Set("payment_intent_data[metadata][order_id]", req.OrderID)
	if req.Customer.Email != "" {
		form.Set("customer_email", req.Customer.Email)
	}
	if method := strings.TrimSpace(req.Method); method != "" {
		form.Set("payment_method_types[0]", method)
	}

	currency := strings.ToLower(req.Currency)
	if len(req.Items) == 0 {
		form.Set("line_items[0][quantity]", "1")
		form.Set("line_items[0][price_data][currency]", currency)
		form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(toMinor(req.Amount), 10))
		form.Set("line_items[0][price_data][product_data][name]", "Order "+req.OrderID)
	}
	for i, item := range req.Items {
		prefix := "line_items[" + strconv.Itoa(i) + "]"
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
		form.Set(prefix+"[price_data][currency]", currency)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(toMinor(item.UnitPrice), 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
	}

	httpReq, err := a.newRequest(ctx, http.MethodPost, "/v1/checkout/sessions", form)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := adapters.Do(ctx, a.client, ProviderName, "create_session", httpReq)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return &paymentdomain.PaymentCreationResult{
			Success:  false,
			Provider: ProviderName,
			Status:   paymentdomain.PaymentStatusFailed,
			Error:    apiErrorMessage(resp),
		}, nil
	}

	var session checkoutSession
	if err := resp.Decode(&session); err != nil {
		return nil, err
	}
	if session.ID == "" {
		return nil, paymentdomain.ErrInvalidPayload
	}
	return &paymentdomain.PaymentCreationResult{
		Success:         true,
		Provider:        ProviderName,
		TransactionID:   session.ID,
		ReferenceNumber: session.PaymentIntent,
		RedirectURL:     session.URL,
		Status:          paymentdomain.PaymentStatusPending,
	}, nil
}

// VerifyPayment retrieves the Checkout Session behind transactionID.
func (a *Adapter) VerifyPayment(ctx context.Context, transactionID string) (*paymentdomain.PaymentCallback, error) {
	transactionID = strings.TrimSpace(transactionID)
	if !strings.HasPrefix(transactionID, "cs_") {
		return nil, paymentdomain.ErrInvalidTransaction
	}
	req, err := a.newRequest(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(transactionID), nil)
	if err != nil {
		return nil, err
	}
	resp, err := adapters.Do(ctx, a.client, ProviderName, "retrieve_session", req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, paymentdomain.ErrInvalidTransaction
	}
	if !resp.OK() {
		return nil, &paymentdomain.ProviderError{Provider: ProviderName, Op: "retrieve_session", Err: apiError(resp)}
	}
	var session checkoutSession
	if err := resp.Decode(&session); err != nil {
		return nil, err
	}
	return a.callbackFromSession(session, "", a.now()), nil
}

func (a *Adapter) newRequest(ctx context.Context, method, path string, form url.Values) (*http.Request, error) {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(a.secretKey, "")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return req, nil
}

// callbackFromSession derives the canonical callback. override replaces the
// session-derived native status when the event itself carries the outcome.
func (a *Adapter) callbackFromSession(s checkoutSession, override string, at time.Time) *paymentdomain.PaymentCallback {
	native := override
	if native == "" {
		native = s.nativeStatus()
	}
	cb := &paymentdomain.PaymentCallback{
		Provider:        ProviderName,
		TransactionID:   s.ID,
		ReferenceNumber: s.PaymentIntent,
		OrderID:         s.orderID(),
		Status:          a.MapStatus(native),
		ProviderStatus:  native,
		Amount:          fromMinor(s.AmountTotal),
		Currency:        strings.ToUpper(s.Currency),
	}
	if cb.Status == paymentdomain.PaymentStatusCompleted {
		paid := at.UTC()
		cb.PaidAt = &paid
	}
	return cb
}

// withSessionPlaceholder asks Stripe to append the session id on return.
func withSessionPlaceholder(returnURL string) string {
	if returnURL == "" || strings.Contains(returnURL, "{CHECKOUT_SESSION_ID}") {
		return returnURL
	}
	sep := "?"
	if strings.Contains(returnURL, "?") {
		sep = "&"
	}
	return returnURL + sep + "session_id={CHECKOUT_SESSION_ID}"
}

func toMinor(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func fromMinor(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}
