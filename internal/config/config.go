package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	Environment   string              `yaml:"environment"`
	ServiceName   string              `yaml:"service_name"`
	Version       string              `yaml:"version"`
	LogLevel      string              `yaml:"log_level"`
	HTTP          HTTPConfig          `yaml:"http"`
	Database      DatabaseConfig      `yaml:"database"`
	URLs          URLConfig           `yaml:"urls"`
	Payment       PaymentConfig       `yaml:"payment"`
	Observability ObservabilityConfig `yaml:"observability"`
	Bootstrap     BootstrapConfig     `yaml:"bootstrap"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Outbox        OutboxConfig        `yaml:"outbox"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
}

type HTTPConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver"`
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type URLConfig struct {
	// PublicBaseURL is where providers reach this service; webhook URLs derive from it.
	PublicBaseURL string `yaml:"public_base_url"`
	// StorefrontURL hosts the checkout success and cancel pages.
	StorefrontURL string `yaml:"storefront_url"`
}

type PaymentConfig struct {
	ProviderTimeout      time.Duration             `yaml:"provider_timeout"`
	MethodsCacheTTL      time.Duration             `yaml:"methods_cache_ttl"`
	ReconcileMaxAttempts int                       `yaml:"reconcile_max_attempts"`
	ProviderConfigSecret string                    `yaml:"provider_config_secret"`
	Providers            map[string]ProviderConfig `yaml:"providers"`
}

type ProviderConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Methods  []MethodConfig `yaml:"methods"`
	Settings map[string]any `yaml:"settings"`
}

type MethodConfig struct {
	Method      string `yaml:"method"`
	DisplayName string `yaml:"display_name"`
}

type ObservabilityConfig struct {
	Tracing TracingConfig `yaml:"tracing"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type TracingConfig struct {
	Enabled          bool    `yaml:"enabled"`
	ExporterEndpoint string  `yaml:"exporter_endpoint"`
	ExporterProtocol string  `yaml:"exporter_protocol"`
	SamplingRatio    float64 `yaml:"sampling_ratio"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type BootstrapConfig struct {
	RunMigrations bool `yaml:"run_migrations"`
	SeedDemoData  bool `yaml:"seed_demo_data"`
}

type RateLimitConfig struct {
	CreatePaymentLimit  int           `yaml:"create_payment_limit"`
	CreatePaymentWindow time.Duration `yaml:"create_payment_window"`
}

// OutboxConfig drives the relay. With NATSURL empty, records go to the log.
type OutboxConfig struct {
	RelayEnabled  bool          `yaml:"relay_enabled"`
	RelayInterval time.Duration `yaml:"relay_interval"`
	BatchSize     int           `yaml:"batch_size"`
	NATSURL       string        `yaml:"nats_url"`
	NATSSubject   string        `yaml:"nats_subject"`
}

// SchedulerConfig drives the pending payment verification pass.
type SchedulerConfig struct {
	StaleAfter time.Duration `yaml:"stale_after"`
	BatchSize  int           `yaml:"batch_size"`
}

func Default() Config {
	return Config{
		Environment: "development",
		ServiceName: "paygate",
		Version:     "dev",
		LogLevel:    "info",
		HTTP: HTTPConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:       "sqlite",
			DSN:          "file:paygate.db?_busy_timeout=5000",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		URLs: URLConfig{
			PublicBaseURL: "http://localhost:8080",
			StorefrontURL: "http://localhost:3000",
		},
		Payment: PaymentConfig{
			ProviderTimeout:      15 * time.Second,
			MethodsCacheTTL:      time.Minute,
			ReconcileMaxAttempts: 3,
			Providers: map[string]ProviderConfig{
				"cod": {
					Enabled: true,
					Methods: []MethodConfig{{Method: "cash", DisplayName: "Cash on delivery"}},
				},
			},
		},
		Observability: ObservabilityConfig{
			Tracing: TracingConfig{ExporterProtocol: "grpc", SamplingRatio: 0.1},
			Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
		},
		Bootstrap: BootstrapConfig{RunMigrations: true},
		RateLimit: RateLimitConfig{
			CreatePaymentLimit:  30,
			CreatePaymentWindow: time.Minute,
		},
		Outbox: OutboxConfig{
			RelayEnabled:  true,
			RelayInterval: 5 * time.Second,
			BatchSize:     100,
			NATSSubject:   "paygate.payments",
		},
		Scheduler: SchedulerConfig{
			StaleAfter: 30 * time.Minute,
			BatchSize:  50,
		},
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

// WebhookURL is the provider callback endpoint. It is always derived from configuration.
func (c Config) WebhookURL(provider string) string {
	return strings.TrimRight(c.URLs.PublicBaseURL, "/") + "/payments/webhook/" + url.PathEscape(provider)
}

func (c Config) Validate() error {
	var errs []error
	switch strings.ToLower(strings.TrimSpace(c.Database.Driver)) {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	for name, value := range map[string]string{
		"urls.public_base_url": c.URLs.PublicBaseURL,
		"urls.storefront_url":  c.URLs.StorefrontURL,
	} {
		parsed, err := url.Parse(strings.TrimSpace(value))
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute URL", name))
		}
	}
	if c.Payment.ProviderTimeout <= 0 {
		errs = append(errs, errors.New("payment.provider_timeout must be positive"))
	}
	if c.Payment.ReconcileMaxAttempts <= 0 {
		errs = append(errs, errors.New("payment.reconcile_max_attempts must be positive"))
	}
	if c.Outbox.RelayEnabled && c.Outbox.RelayInterval <= 0 {
		errs = append(errs, errors.New("outbox.relay_interval must be positive"))
	}
	if c.Scheduler.StaleAfter <= 0 {
		errs = append(errs, errors.New("scheduler.stale_after must be positive"))
	}
	return errors.Join(errs...)
}
