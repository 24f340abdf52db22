package stripe

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/smallbiznis/paygate/internal/payment/adapters"
)

type checkoutSession struct {
	ID                string            `json:"id"`
	Object            string            `json:"object"`
	URL               string            `json:"url"`
	Status            string            `json:"status"`
	PaymentStatus     string            `json:"payment_status"`
	PaymentIntent     string            `json:"payment_intent"`
	ClientReferenceID string            `json:"client_reference_id"`
	AmountTotal       int64             `json:"amount_total"`
	Currency          string            `json:"currency"`
	Metadata          map[string]string `json:"metadata"`
}

func (s checkoutSession) nativeStatus() string {
	if s.Status == "expired" {
		return "session.expired"
	}
	if s.PaymentStatus != "" {
		return "session." + s.PaymentStatus
	}
	return "session.open"
}

func (s checkoutSession) orderID() string {
	if id := strings.TrimSpace(s.ClientReferenceID); id != "" {
		return id
	}
	return strings.TrimSpace(s.Metadata["order_id"])
}

type paymentIntent struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata"`
}

type charge struct {
	ID             string            `json:"id"`
	PaymentIntent  string            `json:"payment_intent"`
	Amount         int64             `json:"amount"`
	AmountRefunded int64             `json:"amount_refunded"`
	Refunded       bool              `json:"refunded"`
	Currency       string            `json:"currency"`
	Metadata       map[string]string `json:"metadata"`
}

type event struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type apiErrorReply struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func apiError(resp *adapters.Response) error {
	var reply apiErrorReply
	if err := resp.Decode(&reply); err == nil && reply.Error.Message != "" {
		return errors.New(reply.Error.Message)
	}
	return fmt.Errorf("status %d", resp.StatusCode)
}

func apiErrorMessage(resp *adapters.Response) string {
	return apiError(resp).Error()
}
