package payment

import (
	"fmt"
	"sort"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paygate/internal/config"
	"github.com/smallbiznis/paygate/internal/payment/adapters"
	"github.com/smallbiznis/paygate/internal/payment/adapters/cod"
	"github.com/smallbiznis/paygate/internal/payment/adapters/paymob"
	"github.com/smallbiznis/paygate/internal/payment/adapters/stripe"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type RegistryParams struct {
	fx.In

	Cfg   config.Config
	Log   *zap.Logger
	GenID *snowflake.Node
}

// NewRegistry configures every enabled provider from config. Settings
// prefixed with "enc:" are decrypted with the provider config secret.
func NewRegistry(p RegistryParams) (*adapters.Registry, error) {
	client := adapters.NewHTTPClient()
	registry := adapters.NewRegistry(
		paymob.NewFactory(client),
		stripe.NewFactory(client),
		cod.NewFactory(p.GenID),
	)
	box := adapters.NewSecretBox(p.Cfg.Payment.ProviderConfigSecret)
	log := p.Log.Named("payment.registry")

	names := make([]string, 0, len(p.Cfg.Payment.Providers))
	for name := range p.Cfg.Payment.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		provider := p.Cfg.Payment.Providers[name]
		if !provider.Enabled {
			continue
		}
		if !registry.ProviderExists(name) {
			return nil, fmt.Errorf("%w: %s", paymentdomain.ErrUnknownProvider, name)
		}
		settings, err := box.DecryptSettings(provider.Settings)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", name, err)
		}
		methods := make([]paymentdomain.MethodConfig, 0, len(provider.Methods))
		for _, m := range provider.Methods {
			methods = append(methods, paymentdomain.MethodConfig{Method: m.Method, DisplayName: m.DisplayName})
		}
		if err := registry.Configure(paymentdomain.AdapterConfig{
			Provider: name,
			Methods:  methods,
			Config:   settings,
		}); err != nil {
			return nil, err
		}
		log.Info("payment provider configured", zap.String("provider", name), zap.Int("methods", len(methods)))
	}
	return registry, nil
}
