package adapters

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
)

// Registry holds the adapter factories known to the binary and the adapters
// configured for this deployment.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]paymentdomain.AdapterFactory
	adapters  map[string]paymentdomain.Adapter
	methods   map[string][]paymentdomain.MethodConfig
	order     []string
}

func NewRegistry(factories ...paymentdomain.AdapterFactory) *Registry {
	r := &Registry{
		factories: make(map[string]paymentdomain.AdapterFactory, len(factories)),
		adapters:  make(map[string]paymentdomain.Adapter),
		methods:   make(map[string][]paymentdomain.MethodConfig),
	}
	for _, factory := range factories {
		if factory == nil {
			continue
		}
		r.factories[normalize(factory.Provider())] = factory
	}
	return r
}

// ProviderExists reports whether a factory is compiled in for provider.
func (r *Registry) ProviderExists(provider string) bool {
	if r == nil {
		return false
	}
	_, ok := r.factories[normalize(provider)]
	return ok
}

// Configure builds the provider's adapter and makes it available for lookups.
func (r *Registry) Configure(cfg paymentdomain.AdapterConfig) error {
	if r == nil {
		return paymentdomain.ErrUnknownProvider
	}
	provider := normalize(cfg.Provider)
	factory, ok := r.factories[provider]
	if !ok {
		return fmt.Errorf("%w: %s", paymentdomain.ErrUnknownProvider, cfg.Provider)
	}
	cfg.Provider = provider
	adapter, err := factory.NewAdapter(cfg)
	if err != nil {
		return fmt.Errorf("configure %s: %w", provider, err)
	}

	methods := make([]paymentdomain.MethodConfig, 0, len(cfg.Methods))
	for _, m := range cfg.Methods {
		name := strings.TrimSpace(m.Method)
		if name == "" {
			continue
		}
		display := strings.TrimSpace(m.DisplayName)
		if display == "" {
			display = name
		}
		methods = append(methods, paymentdomain.MethodConfig{Method: name, DisplayName: display})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[provider]; !exists {
		r.order = append(r.order, provider)
		sort.Strings(r.order)
	}
	r.adapters[provider] = adapter
	r.methods[provider] = methods
	return nil
}

// Adapter returns the configured adapter or ErrUnknownProvider.
func (r *Registry) Adapter(provider string) (paymentdomain.Adapter, error) {
	if r == nil {
		return nil, paymentdomain.ErrUnknownProvider
	}
	r.mu.RLock()
	adapter, ok := r.adapters[normalize(provider)]
	r.mu.RUnlock()
	if !ok {
		return nil, paymentdomain.ErrUnknownProvider
	}
	return adapter, nil
}

// ListAvailableMethods returns every configured provider/method pair in a
// stable order.
func (r *Registry) ListAvailableMethods() []paymentdomain.AvailableMethod {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]paymentdomain.AvailableMethod, 0)
	for _, provider := range r.order {
		for _, m := range r.methods[provider] {
			out = append(out, paymentdomain.AvailableMethod{
				Provider:    provider,
				Method:      m.Method,
				DisplayName: m.DisplayName,
			})
		}
	}
	return out
}

// SupportsMethod reports whether provider offers method at checkout.
func (r *Registry) SupportsMethod(provider, method string) bool {
	if r == nil {
		return false
	}
	method = strings.TrimSpace(method)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.methods[normalize(provider)] {
		if strings.EqualFold(m.Method, method) {
			return true
		}
	}
	return false
}

// DetectProvider returns the provider whose identifier shape matches
// transactionID, or "" when none or several match.
func (r *Registry) DetectProvider(transactionID string) string {
	if r == nil {
		return ""
	}
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return ""
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	found := ""
	for _, provider := range r.order {
		matcher, ok := r.adapters[provider].(paymentdomain.TransactionMatcher)
		if !ok || !matcher.MatchesTransactionID(transactionID) {
			continue
		}
		if found != "" {
			return ""
		}
		found = provider
	}
	return found
}

func normalize(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}
