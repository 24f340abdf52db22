package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetrics records request latency per route template. Raw paths would
// carry transaction ids, so unmatched requests are folded into "unmatched".
type HTTPMetrics struct {
	latency  metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
}

func NewHTTPMetrics(cfg Config, provider metric.MeterProvider) (*HTTPMetrics, error) {
	meter := provider.Meter(cfg.service() + "/http")

	latency, err := meter.Float64Histogram("paygate.http.request.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency of HTTP requests served by paygate."),
	)
	if err != nil {
		return nil, err
	}
	inFlight, err := meter.Int64UpDownCounter("paygate.http.requests.in_flight",
		metric.WithDescription("Requests currently being served."),
	)
	if err != nil {
		return nil, err
	}
	return &HTTPMetrics{latency: latency, inFlight: inFlight}, nil
}

func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		route := routeLabel(c.FullPath())
		routeAttr := metric.WithAttributes(attribute.String("route", route))

		m.inFlight.Add(ctx, 1, routeAttr)
		started := time.Now()
		defer func() {
			m.inFlight.Add(ctx, -1, routeAttr)
			m.RecordRequest(ctx, route, c.Writer.Status(), time.Since(started))
		}()
		c.Next()
	}
}

func (m *HTTPMetrics) RecordRequest(ctx context.Context, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("route", routeLabel(route)),
		attribute.String("status_code", strconv.Itoa(status)),
	)
	m.latency.Record(ctx, float64(elapsed.Microseconds())/1000, metric.WithAttributes(attrs...))
}

func routeLabel(route string) string {
	if route == "" {
		return "unmatched"
	}
	return route
}
