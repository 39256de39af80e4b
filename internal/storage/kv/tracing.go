package kv

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tidekv/engine/internal/tracing"
)

const tracerName = "tidekv.kv"

func startSpan(ctx context.Context, name, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(attribute.String(tracing.AttrOperation, operation))
	span.SetAttributes(attrs...)
	return ctx, span
}

// StartSetSpan starts a span for Set operation
func StartSetSpan(ctx context.Context, key string) (context.Context, trace.Span) {
	return startSpan(ctx, "kv.set", "set", attribute.String(tracing.AttrKey, key))
}

// StartGetSpan starts a span for Get operation
func StartGetSpan(ctx context.Context, key string) (context.Context, trace.Span) {
	return startSpan(ctx, "kv.get", "get", attribute.String(tracing.AttrKey, key))
}

// StartDeleteSpan starts a span for Delete operation
func StartDeleteSpan(ctx context.Context, key string) (context.Context, trace.Span) {
	return startSpan(ctx, "kv.delete", "delete", attribute.String(tracing.AttrKey, key))
}

// StartExpireSpan starts a span for SetExpiration operation
func StartExpireSpan(ctx context.Context, key string, at Timestamp) (context.Context, trace.Span) {
	return startSpan(ctx, "kv.expire", "expire",
		attribute.String(tracing.AttrKey, key),
		attribute.Int64(tracing.AttrExpiresAt, int64(at)),
	)
}

// StartTTLSpan starts a span for TimeToLive operation
func StartTTLSpan(ctx context.Context, key string) (context.Context, trace.Span) {
	return startSpan(ctx, "kv.ttl", "ttl", attribute.String(tracing.AttrKey, key))
}

// StartReapSpan starts a span for one reaper pass
func StartReapSpan(ctx context.Context, limit int) (context.Context, trace.Span) {
	return startSpan(ctx, "kv.reap", "reap", attribute.Int(tracing.AttrBatchLimit, limit))
}

// RecordHit marks the span as having found the key
func RecordHit(span trace.Span) {
	span.SetAttributes(attribute.String(tracing.AttrStatus, "hit"))
}

// RecordMiss marks the span as not having found a live key
func RecordMiss(span trace.Span) {
	span.SetAttributes(attribute.String(tracing.AttrStatus, "miss"))
}

// RecordReaped records how many keys a reaper pass removed
func RecordReaped(span trace.Span, n int) {
	span.SetAttributes(attribute.Int(tracing.AttrReaped, n))
}
