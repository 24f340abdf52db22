package logger

import (
	"context"
	"testing"

	obscontext "github.com/smallbiznis/paygate/internal/observability/context"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContextIncludesTraceAndRequest(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	orig := zap.L()
	zap.ReplaceGlobals(zap.New(core))
	defer zap.ReplaceGlobals(orig)

	traceID, _ := trace.TraceIDFromHex("0123456789abcdef0123456789abcdef")
	spanID, _ := trace.SpanIDFromHex("0123456789abcdef")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = obscontext.WithRequestID(ctx, "req-1")
	ctx = obscontext.WithProvider(ctx, "paymob")
	ctx = obscontext.WithOrderID(ctx, "ORD-1001")

	FromContext(ctx).Info("hello")
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["trace_id"] != traceID.String() {
		t.Fatalf("expected trace_id %q, got %q", traceID.String(), fields["trace_id"])
	}
	if fields["span_id"] != spanID.String() {
		t.Fatalf("expected span_id %q, got %q", spanID.String(), fields["span_id"])
	}
	if fields["request_id"] != "req-1" {
		t.Fatalf("expected request_id req-1, got %v", fields["request_id"])
	}
	if fields["provider"] != "paymob" || fields["order_id"] != "ORD-1001" {
		t.Fatalf("expected payment fields, got %v", fields)
	}
}

func TestWithPlainContextAddsNothing(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	With(zap.New(core), context.Background()).Info("plain")
	if got := len(logs.All()[0].Context); got != 0 {
		t.Fatalf("expected no fields, got %d", got)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	orig := zap.L()
	defer zap.ReplaceGlobals(orig)
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
