package domain

import (
	"context"
	"net/url"
)

// Adapter translates between one payment provider and the canonical model.
type Adapter interface {
	Provider() string
	// CreatePayment returns Success=false for business declines and an error
	// only for transport faults.
	CreatePayment(ctx context.Context, req PaymentRequest) (*PaymentCreationResult, error)
	VerifyPayment(ctx context.Context, transactionID string) (*PaymentCallback, error)
	// ParseWebhook must authenticate the payload before reading any field.
	ParseWebhook(ctx context.Context, payload WebhookPayload) (*PaymentCallback, error)
	// MapStatus falls back to pending for unknown provider codes.
	MapStatus(providerStatus string) PaymentStatus
}

// TransactionMatcher is implemented by adapters whose identifiers have a recognizable shape.
type TransactionMatcher interface {
	MatchesTransactionID(transactionID string) bool
}

// RedirectParser is implemented by adapters that complete through a browser redirect.
type RedirectParser interface {
	ParseRedirect(query url.Values) RedirectResult
}

// MethodConfig is one checkout method exposed by a provider.
type MethodConfig struct {
	Method      string `yaml:"method"`
	DisplayName string `yaml:"display_name"`
}

type AdapterConfig struct {
	Provider string
	Methods  []MethodConfig
	Config   map[string]any
}

type AdapterFactory interface {
	Provider() string
	NewAdapter(config AdapterConfig) (Adapter, error)
}
