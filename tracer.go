package roleguard

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Tracer is a generic tracing interface for the engine.
type Tracer interface {
	StartSpan(ctx context.Context, operationName string) (context.Context, Span)
}

// Span is a unit of traced work.
type Span interface {
	Finish()
	SetTag(key string, value any)
	// LogFields records alternating key/value pairs as a span event.
	LogFields(fields ...any)
}

// NoopTracer is a default tracer that does nothing.
type NoopTracer struct{}

func (t *NoopTracer) StartSpan(ctx context.Context, operationName string) (context.Context, Span) {
	return ctx, &NoopSpan{}
}

type NoopSpan struct{}

func (s *NoopSpan) Finish()                      {}
func (s *NoopSpan) SetTag(key string, value any) {}
func (s *NoopSpan) LogFields(fields ...any)      {}

// OpenTelemetryTracer implements the Tracer interface using OpenTelemetry.
type OpenTelemetryTracer struct {
	tracer oteltrace.Tracer
}

func NewOpenTelemetryTracer(tracer oteltrace.Tracer) Tracer {
	return &OpenTelemetryTracer{tracer: tracer}
}

func (t *OpenTelemetryTracer) StartSpan(ctx context.Context, operationName string) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, operationName)
	return ctx, &OpenTelemetrySpan{span: span}
}

// OpenTelemetrySpan implements the Span interface using OpenTelemetry.
type OpenTelemetrySpan struct {
	span oteltrace.Span
}

func (s *OpenTelemetrySpan) Finish() {
	s.span.End()
}

func (s *OpenTelemetrySpan) SetTag(key string, value any) {
	s.span.SetAttributes(attribute.String(key, fmt.Sprint(value)))
}

func (s *OpenTelemetrySpan) LogFields(kv ...any) {
	attrs := make([]attribute.KeyValue, 0, len(kv)/2)
	for key, value := range fields(kv) {
		attrs = append(attrs, attribute.String(key, fmt.Sprint(value)))
	}
	s.span.AddEvent("log", oteltrace.WithAttributes(attrs...))
}
