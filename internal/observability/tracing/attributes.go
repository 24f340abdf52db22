package tracing

import (
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

var sensitiveAttributeKeys = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"webhook_secret",
	"authorization",
	"hmac",
	"signature",
}

// Payment attribute keys shared by provider adapters and the reconciler.
const (
	AttrProvider      = attribute.Key("payment.provider")
	AttrOperation     = attribute.Key("payment.operation")
	AttrOrderID       = attribute.Key("payment.order_id")
	AttrTransactionID = attribute.Key("payment.transaction_id")
	AttrStatus        = attribute.Key("payment.status")
	AttrDecision      = attribute.Key("payment.decision")
)

// PaymentAttributes builds span attributes for a provider interaction,
// skipping empty values.
func PaymentAttributes(provider, orderID, transactionID string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if provider != "" {
		attrs = append(attrs, AttrProvider.String(provider))
	}
	if orderID != "" {
		attrs = append(attrs, AttrOrderID.String(orderID))
	}
	if transactionID != "" {
		attrs = append(attrs, AttrTransactionID.String(transactionID))
	}
	return attrs
}

// SafeAttributes drops attributes with sensitive keys.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if isSensitiveKey(string(attr.Key)) {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

// SafeError replaces an error with a type-only error to avoid leaking details.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%T", err)
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, needle := range sensitiveAttributeKeys {
		if strings.Contains(key, needle) {
			return true
		}
	}
	return false
}
