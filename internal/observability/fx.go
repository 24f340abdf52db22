package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/paygate/internal/config"
	"github.com/smallbiznis/paygate/internal/observability/logger"
	"github.com/smallbiznis/paygate/internal/observability/metrics"
	"github.com/smallbiznis/paygate/internal/observability/tracing"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("observability",
	fx.Provide(NewLogger),
	fx.Provide(NewTracerProvider),
	fx.Provide(NewMetricsConfig),
	fx.Provide(NewPaymentMetrics),
	fx.Provide(NewHTTPMetrics),
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)

func NewLogger(cfg config.Config) (*zap.Logger, error) {
	return logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: !cfg.IsProduction(),
		ServiceName: cfg.ServiceName,
		Version:     cfg.Version,
	})
}

func NewTracerProvider(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*sdktrace.TracerProvider, error) {
	tc := cfg.Observability.Tracing
	return tracing.NewProvider(lc, tracing.Config{
		Enabled:          tc.Enabled,
		ServiceName:      cfg.ServiceName,
		ServiceVersion:   cfg.Version,
		Environment:      cfg.Environment,
		ExporterEndpoint: tc.ExporterEndpoint,
		ExporterProtocol: tc.ExporterProtocol,
		SamplingRatio:    tc.SamplingRatio,
	}, log.Named("tracing"))
}

func NewMetricsConfig(cfg config.Config) metrics.Config {
	return metrics.Config{ServiceName: cfg.ServiceName, Environment: cfg.Environment}
}

func NewPaymentMetrics(cfg metrics.Config) (*metrics.PaymentMetrics, error) {
	return metrics.NewPaymentMetrics(prometheus.DefaultRegisterer, cfg)
}

func NewHTTPMetrics(cfg metrics.Config) (*metrics.HTTPMetrics, error) {
	return metrics.NewHTTPMetrics(cfg, otel.GetMeterProvider())
}
