package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
)

const signatureHeader = "Stripe-Signature"

// ParseWebhook verifies the Stripe-Signature header and maps the handled
// event types onto a canonical callback.
func (a *Adapter) ParseWebhook(_ context.Context, payload paymentdomain.WebhookPayload) (*paymentdomain.PaymentCallback, error) {
	if err := a.verifySignature(payload.Headers.Get(signatureHeader), payload.Body); err != nil {
		return nil, err
	}

	var evt event
	if err := json.Unmarshal(payload.Body, &evt); err != nil || evt.Type == "" {
		return nil, paymentdomain.ErrInvalidPayload
	}
	occurredAt := time.Unix(evt.Created, 0).UTC()
	if evt.Created == 0 {
		occurredAt = a.now().UTC()
	}

	switch evt.Type {
	case "checkout.session.completed":
		return a.sessionCallback(evt, "", occurredAt)
	case "checkout.session.async_payment_succeeded":
		return a.sessionCallback(evt, "session.paid", occurredAt)
	case "checkout.session.async_payment_failed":
		return a.sessionCallback(evt, "session.async_failed", occurredAt)
	case "checkout.session.expired":
		return a.sessionCallback(evt, "session.expired", occurredAt)
	case "payment_intent.processing", "payment_intent.payment_failed", "payment_intent.canceled":
		return a.intentCallback(evt, occurredAt)
	case "charge.refunded":
		return a.refundCallback(evt)
	default:
		return nil, paymentdomain.ErrEventIgnored
	}
}

func (a *Adapter) sessionCallback(evt event, override string, at time.Time) (*paymentdomain.PaymentCallback, error) {
	var session checkoutSession
	if err := json.Unmarshal(evt.Data.Object, &session); err != nil || session.ID == "" {
		return nil, paymentdomain.ErrInvalidPayload
	}
	return a.callbackFromSession(session, override, at), nil
}

func (a *Adapter) intentCallback(evt event, at time.Time) (*paymentdomain.PaymentCallback, error) {
	var intent paymentIntent
	if err := json.Unmarshal(evt.Data.Object, &intent); err != nil || intent.ID == "" {
		return nil, paymentdomain.ErrInvalidPayload
	}
	native := "payment_intent." + strings.TrimPrefix(evt.Type, "payment_intent.")
	// Orders store the checkout session as the transaction id, so the intent
	// is only a reference here.
	cb := &paymentdomain.PaymentCallback{
		Provider:        ProviderName,
		ReferenceNumber: intent.ID,
		OrderID:         strings.TrimSpace(intent.Metadata["order_id"]),
		Status:          a.MapStatus(native),
		ProviderStatus:  native,
		Amount:          fromMinor(intent.Amount),
		Currency:        strings.ToUpper(intent.Currency),
	}
	if cb.Status == paymentdomain.PaymentStatusCompleted {
		paid := at
		cb.PaidAt = &paid
	}
	return cb, nil
}

// refundCallback only reports full refunds; partial refunds leave the
// payment completed.
func (a *Adapter) refundCallback(evt event) (*paymentdomain.PaymentCallback, error) {
	var ch charge
	if err := json.Unmarshal(evt.Data.Object, &ch); err != nil || ch.ID == "" {
		return nil, paymentdomain.ErrInvalidPayload
	}
	if !ch.Refunded {
		return nil, paymentdomain.ErrEventIgnored
	}
	return &paymentdomain.PaymentCallback{
		Provider:        ProviderName,
		ReferenceNumber: ch.PaymentIntent,
		OrderID:         strings.TrimSpace(ch.Metadata["order_id"]),
		Status:          paymentdomain.PaymentStatusRefunded,
		ProviderStatus:  "charge.refunded",
		Amount:          fromMinor(ch.AmountRefunded),
		Currency:        strings.ToUpper(ch.Currency),
	}, nil
}

func (a *Adapter) verifySignature(header string, body []byte) error {
	timestamp, signatures := parseSignatureHeader(header)
	if timestamp == "" || len(signatures) == 0 {
		return paymentdomain.ErrInvalidSignature
	}
	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return paymentdomain.ErrInvalidSignature
	}
	age := a.now().Sub(time.Unix(unix, 0))
	if age < 0 {
		age = -age
	}
	if a.tolerance > 0 && age > a.tolerance {
		return paymentdomain.ErrInvalidSignature
	}

	expected := computeSignature(a.webhookSecret, timestamp, body)
	for _, sig := range signatures {
		given, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, given) {
			return nil
		}
	}
	return paymentdomain.ErrInvalidSignature
}

func parseSignatureHeader(header string) (string, []string) {
	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signatures = append(signatures, value)
		}
	}
	return timestamp, signatures
}

func computeSignature(secret, timestamp string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return mac.Sum(nil)
}

// ParseRedirect reads the success_url query. The session id placeholder is
// filled by Stripe when the return URL carries {CHECKOUT_SESSION_ID}.
func (a *Adapter) ParseRedirect(query url.Values) paymentdomain.RedirectResult {
	return paymentdomain.RedirectResult{
		Success:       !strings.EqualFold(query.Get("canceled"), "true"),
		OrderID:       strings.TrimSpace(query.Get("orderId")),
		TransactionID: strings.TrimSpace(query.Get("session_id")),
	}
}
