package domain

import (
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// Address is the postal address forwarded to providers that require billing data.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country"`
}

// CustomerContact is the customer data copied into a payment request.
type CustomerContact struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   Address
}

// LineItem is a single order line as sent to a provider.
type LineItem struct {
	ID        string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// PaymentRequest is composed fresh for every creation attempt and never mutated afterwards.
type PaymentRequest struct {
	OrderID    string
	Amount     decimal.Decimal
	Currency   string
	Customer   CustomerContact
	Items      []LineItem
	Method     string
	ReturnURL  string
	CancelURL  string
	WebhookURL string
	// PreviousTransactionID is the transaction of the order's last attempt
	// with the same provider. Providers that key attempts by merchant order
	// id reuse it instead of registering the order again.
	PreviousTransactionID string
}

// PaymentCreationResult is returned by adapters and surfaced to the caller as-is.
type PaymentCreationResult struct {
	Success         bool          `json:"success"`
	Provider        string        `json:"provider"`
	TransactionID   string        `json:"transactionId,omitempty"`
	ReferenceNumber string        `json:"referenceNumber,omitempty"`
	RedirectURL     string        `json:"redirectUrl,omitempty"`
	Status          PaymentStatus `json:"status,omitempty"`
	Error           string        `json:"error,omitempty"`
}

// PaymentCallback is the canonical callback produced by adapter parsers only.
// Webhooks and verification both yield this shape so that a single
// reconciliation path handles them.
type PaymentCallback struct {
	Provider        string
	TransactionID   string
	ReferenceNumber string
	OrderID         string
	Status          PaymentStatus
	ProviderStatus  string
	Amount          decimal.Decimal
	Currency        string
	PaidAt          *time.Time
}

// WebhookPayload carries an inbound provider notification untouched.
type WebhookPayload struct {
	Body    []byte
	Headers http.Header
	Query   url.Values
}

// RedirectResult is what a browser redirect claims. It is never payment proof.
type RedirectResult struct {
	Success       bool
	OrderID       string
	TransactionID string
}

// AvailableMethod describes one provider/method pair offered at checkout.
type AvailableMethod struct {
	Provider    string `json:"provider"`
	Method      string `json:"method"`
	DisplayName string `json:"displayName"`
}

type CreatePaymentInput struct {
	OrderID   string
	Provider  string
	Method    string
	ReturnURL string
	CancelURL string
}

// VerifyResult reports the order's payment state after a verification pass.
type VerifyResult struct {
	TransactionID string          `json:"transactionId"`
	OrderID       string          `json:"orderId"`
	Status        PaymentStatus   `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	PaidAt        *time.Time      `json:"paidAt"`
}

// Webhook acknowledgement statuses for deliveries that were not reconciled.
const (
	AckStatusUnsupported    = "unsupported"
	AckStatusRejected       = "rejected"
	AckStatusIgnored        = "ignored"
	AckStatusInvalidPayload = "invalid_payload"
	AckStatusOrderNotFound  = "order_not_found"
	AckStatusError          = "error"
)

// WebhookAck is the body returned to a provider. It is always sent with HTTP 200.
type WebhookAck struct {
	Received bool   `json:"received"`
	OrderID  string `json:"orderId,omitempty"`
	Status   string `json:"status"`
}
