package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 15*time.Second, cfg.Payment.ProviderTimeout)
	assert.True(t, cfg.Payment.Providers["cod"].Enabled)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{name: "valid default config", modify: func(c *Config) {}},
		{name: "unsupported driver", modify: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{name: "missing dsn", modify: func(c *Config) { c.Database.DSN = "" }, wantErr: true},
		{name: "relative public url", modify: func(c *Config) { c.URLs.PublicBaseURL = "/api" }, wantErr: true},
		{name: "zero provider timeout", modify: func(c *Config) { c.Payment.ProviderTimeout = 0 }, wantErr: true},
		{name: "zero reconcile attempts", modify: func(c *Config) { c.Payment.ReconcileMaxAttempts = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paygate.yaml")
	content := `
environment: staging
urls:
  public_base_url: https://pay.example.com
payment:
  provider_timeout: 12s
  providers:
    paymob:
      enabled: true
      methods:
        - method: card
          display_name: Credit / Debit card
      settings:
        api_key: abc
        card_integration_id: 1234
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := Default()
	require.NoError(t, LoadFile(path, &cfg))

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "https://pay.example.com", cfg.URLs.PublicBaseURL)
	assert.Equal(t, "http://localhost:3000", cfg.URLs.StorefrontURL)
	assert.Equal(t, 12*time.Second, cfg.Payment.ProviderTimeout)

	paymob := cfg.Payment.Providers["paymob"]
	assert.True(t, paymob.Enabled)
	require.Len(t, paymob.Methods, 1)
	assert.Equal(t, "card", paymob.Methods[0].Method)
	assert.Equal(t, "abc", paymob.Settings["api_key"])
}

func TestApplyEnvOverridesProviderSettings(t *testing.T) {
	cfg := Default()
	err := applyEnv(&cfg, []string{
		"PAYGATE_ENV=production",
		"PAYMENT_PROVIDER_TIMEOUT=10s",
		"PAYGATE_PROVIDER_STRIPE_ENABLED=true",
		"PAYGATE_PROVIDER_STRIPE_WEBHOOK_SECRET=whsec_123",
	})
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 10*time.Second, cfg.Payment.ProviderTimeout)
	stripe := cfg.Payment.Providers["stripe"]
	assert.True(t, stripe.Enabled)
	assert.Equal(t, "whsec_123", stripe.Settings["webhook_secret"])
}

func TestApplyEnvRejectsBadDuration(t *testing.T) {
	cfg := Default()
	err := applyEnv(&cfg, []string{"PAYMENT_PROVIDER_TIMEOUT=soon"})
	assert.Error(t, err)
}

func TestWebhookURLIsDerived(t *testing.T) {
	cfg := Default()
	cfg.URLs.PublicBaseURL = "https://pay.example.com/"
	assert.Equal(t, "https://pay.example.com/payments/webhook/paymob", cfg.WebhookURL("paymob"))
}
