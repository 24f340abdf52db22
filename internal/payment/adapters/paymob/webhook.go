package paymob

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
)

const callbackTypeTransaction = "TRANSACTION"

// ParseWebhook authenticates a processed-transaction callback. Paymob signs
// a fixed concatenation of obj fields with HMAC-SHA512 and passes the digest
// in the hmac query parameter.
func (a *Adapter) ParseWebhook(_ context.Context, payload paymentdomain.WebhookPayload) (*paymentdomain.PaymentCallback, error) {
	signature := strings.TrimSpace(payload.Query.Get("hmac"))
	if signature == "" {
		return nil, paymentdomain.ErrInvalidSignature
	}

	var envelope callbackEnvelope
	if err := json.Unmarshal(payload.Body, &envelope); err != nil || len(envelope.Obj) == 0 {
		return nil, paymentdomain.ErrInvalidPayload
	}
	var txn transaction
	if err := json.Unmarshal(envelope.Obj, &txn); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}

	if !a.validSignature(txn, signature) {
		return nil, paymentdomain.ErrInvalidSignature
	}
	if !strings.EqualFold(envelope.Type, callbackTypeTransaction) {
		return nil, paymentdomain.ErrEventIgnored
	}

	return a.callbackFromTransaction(txn)
}

func (a *Adapter) validSignature(txn transaction, signature string) bool {
	expected := sign(a.hmacSecret, txn)
	given, err := hex.DecodeString(strings.ToLower(signature))
	if err != nil {
		return false
	}
	return hmac.Equal(expected, given)
}

func sign(secret string, txn transaction) []byte {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(signatureBase(txn)))
	return mac.Sum(nil)
}

// signatureBase lists the callback fields in the order Paymob hashes them.
func signatureBase(t transaction) string {
	fields := []string{
		t.AmountCents.String(),
		t.CreatedAt,
		t.Currency,
		strconv.FormatBool(t.ErrorOccured),
		strconv.FormatBool(t.HasParentTransaction),
		t.ID.String(),
		t.IntegrationID.String(),
		strconv.FormatBool(t.Is3DSecure),
		strconv.FormatBool(t.IsAuth),
		strconv.FormatBool(t.IsCapture),
		strconv.FormatBool(t.IsRefunded),
		strconv.FormatBool(t.IsStandalonePayment),
		strconv.FormatBool(t.IsVoided),
		t.Order.ID.String(),
		t.Owner.String(),
		strconv.FormatBool(t.Pending),
		t.SourceData.Pan,
		t.SourceData.SubType,
		t.SourceData.Type,
		strconv.FormatBool(t.Success),
	}
	return strings.Join(fields, "")
}

// ParseRedirect reads the query Paymob appends when returning the shopper.
func (a *Adapter) ParseRedirect(query url.Values) paymentdomain.RedirectResult {
	transactionID := strings.TrimSpace(query.Get("order"))
	if transactionID == "" {
		transactionID = strings.TrimSpace(query.Get("id"))
	}
	return paymentdomain.RedirectResult{
		Success:       strings.EqualFold(strings.TrimSpace(query.Get("success")), "true"),
		OrderID:       strings.TrimSpace(query.Get("merchant_order_id")),
		TransactionID: transactionID,
	}
}
