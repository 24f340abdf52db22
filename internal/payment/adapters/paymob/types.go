package paymob

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/paygate/internal/payment/adapters"
)

type authResponse struct {
	Token string `json:"token"`
}

type orderItem struct {
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

type orderRequest struct {
	AuthToken       string      `json:"auth_token"`
	DeliveryNeeded  bool        `json:"delivery_needed"`
	AmountCents     int64       `json:"amount_cents"`
	Currency        string      `json:"currency"`
	MerchantOrderID string      `json:"merchant_order_id"`
	Items           []orderItem `json:"items"`
}

type orderResponse struct {
	ID json.Number `json:"id"`
}

type billingData struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Street      string `json:"street"`
	Building    string `json:"building"`
	Floor       string `json:"floor"`
	Apartment   string `json:"apartment"`
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
	PostalCode  string `json:"postal_code"`
}

type paymentKeyRequest struct {
	AuthToken         string      `json:"auth_token"`
	AmountCents       int64       `json:"amount_cents"`
	Expiration        int         `json:"expiration"`
	OrderID           json.Number `json:"order_id"`
	BillingData       billingData `json:"billing_data"`
	Currency          string      `json:"currency"`
	IntegrationID     int64       `json:"integration_id"`
	LockOrderWhenPaid bool        `json:"lock_order_when_paid"`
}

type paymentKeyResponse struct {
	Token string `json:"token"`
}

type walletSource struct {
	Identifier string `json:"identifier"`
	Subtype    string `json:"subtype"`
}

type walletPayRequest struct {
	Source       walletSource `json:"source"`
	PaymentToken string       `json:"payment_token"`
}

type walletPayResponse struct {
	RedirectURL string `json:"redirect_url"`
}

type transactionOrder struct {
	ID              json.Number `json:"id"`
	MerchantOrderID string      `json:"merchant_order_id"`
}

type sourceData struct {
	Pan     string `json:"pan"`
	SubType string `json:"sub_type"`
	Type    string `json:"type"`
}

// transaction is the "obj" of a TRANSACTION callback and the body of an
// inquiry reply.
type transaction struct {
	ID                   json.Number      `json:"id"`
	AmountCents          json.Number      `json:"amount_cents"`
	CreatedAt            string           `json:"created_at"`
	Currency             string           `json:"currency"`
	ErrorOccured         bool             `json:"error_occured"`
	HasParentTransaction bool             `json:"has_parent_transaction"`
	IntegrationID        json.Number      `json:"integration_id"`
	Is3DSecure           bool             `json:"is_3d_secure"`
	IsAuth               bool             `json:"is_auth"`
	IsCapture            bool             `json:"is_capture"`
	IsRefunded           bool             `json:"is_refunded"`
	IsStandalonePayment  bool             `json:"is_standalone_payment"`
	IsVoided             bool             `json:"is_voided"`
	Order                transactionOrder `json:"order"`
	Owner                json.Number      `json:"owner"`
	Pending              bool             `json:"pending"`
	SourceData           sourceData       `json:"source_data"`
	Success              bool             `json:"success"`
}

type callbackEnvelope struct {
	Type string          `json:"type"`
	Obj  json.RawMessage `json:"obj"`
}

// nativeStatus collapses Paymob's flag set into one status word.
func (t transaction) nativeStatus() string {
	switch {
	case t.IsRefunded:
		return "refunded"
	case t.IsVoided:
		return "voided"
	case t.Pending:
		return "pending"
	case t.Success:
		return "success"
	default:
		return "declined"
	}
}

// createdAt falls back to now when Paymob omits or mangles created_at.
func (t transaction) createdAt(now func() time.Time) *time.Time {
	fallback := now().UTC()
	raw := strings.TrimSpace(t.CreatedAt)
	if raw == "" {
		return &fallback
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			parsed = parsed.UTC()
			return &parsed
		}
	}
	return &fallback
}

func toCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func fromCents(cents json.Number) decimal.Decimal {
	value, err := decimal.NewFromString(cents.String())
	if err != nil {
		return decimal.Zero
	}
	return value.Shift(-2)
}

func orNA(value string) string {
	if strings.TrimSpace(value) == "" {
		return "NA"
	}
	return value
}

type errorReply struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

func errorFromBody(resp *adapters.Response) error {
	var reply errorReply
	if err := resp.Decode(&reply); err == nil {
		if reply.Detail != "" {
			return errors.New(reply.Detail)
		}
		if reply.Message != "" {
			return errors.New(reply.Message)
		}
	}
	return fmt.Errorf("status %d", resp.StatusCode)
}
