package payment

import (
	"testing"

	"github.com/smallbiznis/paygate/internal/config"
	"github.com/smallbiznis/paygate/internal/payment/adapters"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
	"github.com/smallbiznis/paygate/internal/testkit"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRegistryDecryptsProviderSecrets(t *testing.T) {
	box := adapters.NewSecretBox("config-secret")
	sealed, err := box.Encrypt("sk_test_123")
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Payment.ProviderConfigSecret = "config-secret"
	cfg.Payment.Providers["stripe"] = config.ProviderConfig{
		Enabled: true,
		Methods: []config.MethodConfig{{Method: "card", DisplayName: "Card (Stripe)"}},
		Settings: map[string]any{
			"secret_key":     sealed,
			"webhook_secret": "whsec_test",
		},
	}
	cfg.Payment.Providers["paymob"] = config.ProviderConfig{Enabled: false}

	registry, err := NewRegistry(RegistryParams{Cfg: cfg, Log: zap.NewNop(), GenID: testkit.NewNode(t)})
	require.NoError(t, err)

	require.Equal(t, []paymentdomain.AvailableMethod{
		{Provider: "cod", Method: "cash", DisplayName: "Cash on delivery"},
		{Provider: "stripe", Method: "card", DisplayName: "Card (Stripe)"},
	}, registry.ListAvailableMethods())

	_, err = registry.Adapter("paymob")
	require.ErrorIs(t, err, paymentdomain.ErrUnknownProvider)
	require.Equal(t, "stripe", registry.DetectProvider("cs_test_a1"))
	require.Equal(t, "cod", registry.DetectProvider("cod_1234"))
}

func TestNewRegistryRejectsUnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Payment.Providers["fawry"] = config.ProviderConfig{Enabled: true}

	_, err := NewRegistry(RegistryParams{Cfg: cfg, Log: zap.NewNop(), GenID: testkit.NewNode(t)})
	require.ErrorIs(t, err, paymentdomain.ErrUnknownProvider)
}

func TestNewRegistryRequiresKeyForSealedSettings(t *testing.T) {
	sealed, err := adapters.NewSecretBox("config-secret").Encrypt("sk_test_123")
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Payment.Providers["stripe"] = config.ProviderConfig{
		Enabled:  true,
		Settings: map[string]any{"secret_key": sealed, "webhook_secret": "whsec"},
	}

	_, err = NewRegistry(RegistryParams{Cfg: cfg, Log: zap.NewNop(), GenID: testkit.NewNode(t)})
	require.ErrorIs(t, err, paymentdomain.ErrEncryptionKeyMissing)
}
