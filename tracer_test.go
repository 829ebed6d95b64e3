package roleguard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNoopTracer(t *testing.T) {
	tracer := &NoopTracer{}
	ctx := context.Background()
	gotCtx, span := tracer.StartSpan(ctx, "test_span")

	_, ok := span.(*NoopSpan)
	assert.True(t, ok, "Should return a NoopSpan")
	assert.Equal(t, ctx, gotCtx)

	// Test span methods - these should not panic
	span.Finish()
	span.SetTag("tag", "value")
	span.LogFields("field1", "value1", "field2", "value2")
}

func TestOpenTelemetryTracer(t *testing.T) {
	t.Run("noop provider", func(t *testing.T) {
		tracer := NewOpenTelemetryTracer(noop.NewTracerProvider().Tracer("test"))

		_, span := tracer.StartSpan(context.Background(), "test_span")
		_, ok := span.(*OpenTelemetrySpan)
		assert.True(t, ok, "Should return an OpenTelemetrySpan")

		span.SetTag("tag", "value")
		span.LogFields("field1", "value1")
		span.Finish()
	})

	t.Run("recording provider", func(t *testing.T) {
		recorder := tracetest.NewSpanRecorder()
		provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
		tracer := NewOpenTelemetryTracer(provider.Tracer("test"))

		_, span := tracer.StartSpan(context.Background(), "test_span")
		span.SetTag("count", 3)
		span.LogFields("reason", "missing role")
		span.Finish()

		ended := recorder.Ended()
		require.Len(t, ended, 1)
		assert.Equal(t, "test_span", ended[0].Name())
		assert.Contains(t, ended[0].Attributes(), attribute.String("count", "3"))
		require.Len(t, ended[0].Events(), 1)
		assert.Equal(t, "log", ended[0].Events()[0].Name)
		assert.Contains(t, ended[0].Events()[0].Attributes, attribute.String("reason", "missing role"))
	})
}

func TestEngine_TracesAuthorize(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	engine, issuer := newTestEngine(t, WithTracer(NewOpenTelemetryTracer(provider.Tracer("roleguard"))))
	ctx := context.Background()

	engine.Authorize(ctx, issuer.Token(t, "admin"), "hasAnyRole(ROLE_ADMIN, ROLE_USER)")
	engine.Authorize(ctx, issuer.Token(t, "user"), "ROLE_ADMIN")

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	allowed := ended[0]
	assert.Equal(t, "roleguard.Authorize", allowed.Name())
	assert.Contains(t, allowed.Attributes(), attribute.String("roleguard.policy", "hasAnyRole(ROLE_ADMIN, ROLE_USER)"))
	assert.Contains(t, allowed.Attributes(), attribute.String("roleguard.decision", "allow"))
	assert.Empty(t, allowed.Events())

	denied := ended[1]
	assert.Contains(t, denied.Attributes(), attribute.String("roleguard.decision", "deny"))
	assert.Contains(t, denied.Attributes(), attribute.String("roleguard.error_code", "insufficient_roles"))
	require.Len(t, denied.Events(), 1)
	assert.Contains(t, denied.Events()[0].Attributes, attribute.String("kind", "InvalidRoles"))
}
