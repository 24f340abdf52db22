package tracing

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const providerClientTracer = "paygate/provider-client"

// WrapHTTPClient returns a copy of client whose requests to payment providers
// run inside a client span and carry the trace headers. Query strings are
// never recorded since some providers put tokens there.
func WrapHTTPClient(client *http.Client) *http.Client {
	wrapped := &http.Client{}
	if client != nil {
		*wrapped = *client
	}
	next := wrapped.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	wrapped.Transport = &providerTransport{next: next, tracer: otel.Tracer(providerClientTracer)}
	return wrapped
}

type providerTransport struct {
	next   http.RoundTripper
	tracer trace.Tracer
}

func (t *providerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil || req.URL == nil {
		return t.next.RoundTrip(req)
	}

	ctx, span := t.tracer.Start(req.Context(), req.Method+" "+req.URL.Host,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(SafeAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.host", req.URL.Host),
			attribute.String("http.path", req.URL.Path),
		)...),
	)
	defer span.End()

	req = req.WithContext(ctx)
	InjectContext(ctx, propagation.HeaderCarrier(req.Header))

	started := time.Now()
	resp, err := t.next.RoundTrip(req)
	span.SetAttributes(attribute.Int64("http.client_duration_ms", time.Since(started).Milliseconds()))
	if err != nil {
		span.RecordError(SafeError(err))
		span.SetStatus(codes.Error, "provider unreachable")
		return resp, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
	return resp, nil
}
