package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigFile points at an optional YAML file layered over the defaults.
	EnvConfigFile     = "PAYGATE_CONFIG"
	DefaultConfigFile = "paygate.yaml"

	providerEnvPrefix = "PAYGATE_PROVIDER_"
)

// Load builds the configuration with layered precedence:
// 1. Defaults
// 2. YAML file (PAYGATE_CONFIG, or paygate.yaml in the working directory)
// 3. Environment variables
func Load() (Config, error) {
	cfg := Default()

	path := strings.TrimSpace(os.Getenv(EnvConfigFile))
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if err := LoadFile(path, &cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg, os.Environ()); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile merges a YAML document into cfg. Keys absent from the file keep their current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, environ []string) error {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[key] = value
	}

	setString(env, "PAYGATE_ENV", &cfg.Environment)
	setString(env, "PAYGATE_VERSION", &cfg.Version)
	setString(env, "LOG_LEVEL", &cfg.LogLevel)
	setString(env, "HTTP_ADDR", &cfg.HTTP.Addr)
	setString(env, "DATABASE_DRIVER", &cfg.Database.Driver)
	setString(env, "DATABASE_DSN", &cfg.Database.DSN)
	setString(env, "PUBLIC_BASE_URL", &cfg.URLs.PublicBaseURL)
	setString(env, "STOREFRONT_URL", &cfg.URLs.StorefrontURL)
	setString(env, "PAYMENT_PROVIDER_CONFIG_SECRET", &cfg.Payment.ProviderConfigSecret)
	setString(env, "OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.Observability.Tracing.ExporterEndpoint)
	setString(env, "OTEL_EXPORTER_OTLP_PROTOCOL", &cfg.Observability.Tracing.ExporterProtocol)
	setString(env, "OUTBOX_NATS_URL", &cfg.Outbox.NATSURL)
	setString(env, "OUTBOX_NATS_SUBJECT", &cfg.Outbox.NATSSubject)

	var errs []error
	errs = append(errs,
		setDuration(env, "PAYMENT_PROVIDER_TIMEOUT", &cfg.Payment.ProviderTimeout),
		setDuration(env, "PAYMENT_METHODS_CACHE_TTL", &cfg.Payment.MethodsCacheTTL),
		setBool(env, "OTEL_ENABLED", &cfg.Observability.Tracing.Enabled),
		setBool(env, "METRICS_ENABLED", &cfg.Observability.Metrics.Enabled),
		setBool(env, "RUN_MIGRATIONS", &cfg.Bootstrap.RunMigrations),
		setBool(env, "SEED_DEMO_DATA", &cfg.Bootstrap.SeedDemoData),
		setBool(env, "OUTBOX_RELAY_ENABLED", &cfg.Outbox.RelayEnabled),
		setDuration(env, "OUTBOX_RELAY_INTERVAL", &cfg.Outbox.RelayInterval),
		setDuration(env, "PENDING_VERIFY_STALE_AFTER", &cfg.Scheduler.StaleAfter),
	)
	if raw, ok := env["OTEL_SAMPLING_RATIO"]; ok && strings.TrimSpace(raw) != "" {
		ratio, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("OTEL_SAMPLING_RATIO: %w", err))
		} else {
			cfg.Observability.Tracing.SamplingRatio = ratio
		}
	}

	applyProviderEnv(cfg, env)
	return errors.Join(errs...)
}

// applyProviderEnv maps PAYGATE_PROVIDER_<NAME>_<SETTING> onto provider settings,
// e.g. PAYGATE_PROVIDER_PAYMOB_HMAC_SECRET sets providers.paymob.settings.hmac_secret.
// PAYGATE_PROVIDER_<NAME>_ENABLED toggles the provider itself.
func applyProviderEnv(cfg *Config, env map[string]string) {
	if cfg.Payment.Providers == nil {
		cfg.Payment.Providers = map[string]ProviderConfig{}
	}
	for key, value := range env {
		if !strings.HasPrefix(key, providerEnvPrefix) {
			continue
		}
		rest := strings.TrimPrefix(key, providerEnvPrefix)
		name, setting, ok := strings.Cut(rest, "_")
		if !ok || name == "" || setting == "" {
			continue
		}
		name = strings.ToLower(name)
		setting = strings.ToLower(setting)

		provider := cfg.Payment.Providers[name]
		if setting == "enabled" {
			if parsed, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
				provider.Enabled = parsed
			}
		} else {
			if provider.Settings == nil {
				provider.Settings = map[string]any{}
			}
			provider.Settings[setting] = value
		}
		cfg.Payment.Providers[name] = provider
	}
}

func setString(env map[string]string, key string, dst *string) {
	if value, ok := env[key]; ok && strings.TrimSpace(value) != "" {
		*dst = strings.TrimSpace(value)
	}
}

func setDuration(env map[string]string, key string, dst *time.Duration) error {
	value, ok := env[key]
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = parsed
	return nil
}

func setBool(env map[string]string, key string, dst *bool) error {
	value, ok := env[key]
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = parsed
	return nil
}
