package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest       = errors.New("invalid_request")
	ErrInvalidOrder         = errors.New("invalid_order")
	ErrInvalidProvider      = errors.New("invalid_provider")
	ErrInvalidMethod        = errors.New("invalid_method")
	ErrInvalidTransaction   = errors.New("invalid_transaction")
	ErrOrderNotFound        = errors.New("order_not_found")
	ErrCustomerNotFound     = errors.New("customer_not_found")
	ErrUnknownProvider      = errors.New("unknown_provider")
	ErrAmbiguousProvider    = errors.New("ambiguous_provider")
	ErrInvalidSignature     = errors.New("invalid_signature")
	ErrInvalidPayload       = errors.New("invalid_payload")
	ErrEventIgnored         = errors.New("event_ignored")
	ErrWebhookUnsupported   = errors.New("webhook_unsupported")
	ErrInvalidConfig        = errors.New("invalid_config")
	ErrProviderTransport    = errors.New("provider_transport_error")
	ErrProviderTimeout      = errors.New("provider_timeout")
	ErrConcurrentUpdate     = errors.New("concurrent_update")
	ErrEncryptionKeyMissing = errors.New("encryption_key_missing")
	ErrOrderAlreadyPaid     = errors.New("order_already_paid")
)

// ProviderError reports a transport-level failure talking to a provider.
// It unwraps to ErrProviderTimeout or ErrProviderTransport.
type ProviderError struct {
	Provider string
	Op       string
	Timeout  bool
	Err      error
}

func (e *ProviderError) Error() string {
	kind := ErrProviderTransport
	if e.Timeout {
		kind = ErrProviderTimeout
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s %s", kind, e.Provider, e.Op)
	}
	return fmt.Sprintf("%s: %s %s: %v", kind, e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	kind := ErrProviderTransport
	if e.Timeout {
		kind = ErrProviderTimeout
	}
	if e.Err == nil {
		return []error{kind}
	}
	return []error{kind, e.Err}
}
