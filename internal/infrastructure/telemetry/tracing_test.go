package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared"
)

func setupRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = provider.Shutdown(context.Background())
	})
	return recorder
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, a := range attrs {
		m[string(a.Key)] = a.Value
	}
	return m
}

func TestStartServiceSpan(t *testing.T) {
	recorder := setupRecorder(t)

	_, span := StartServiceSpan(context.Background(), "BasketService", "AddItem",
		WithAttribute("quantity", 3),
		WithSpanKind(trace.SpanKindServer),
	)
	EndSpan(span, nil)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "BasketService.AddItem", spans[0].Name())
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, "BasketService", attrs["service.name"].AsString())
	assert.Equal(t, int64(3), attrs["quantity"].AsInt64())
}

func TestEndSpan_DomainErrorIsNotFailure(t *testing.T) {
	recorder := setupRecorder(t)

	_, span := StartSpan(context.Background(), "checkout")
	EndSpan(span, shared.ErrValidation.WithMessage("basket is empty"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "domain_error", spans[0].Events()[0].Name)
}

func TestEndSpan_InfrastructureErrorFails(t *testing.T) {
	recorder := setupRecorder(t)

	_, span := StartSpan(context.Background(), "checkout")
	EndSpan(span, errors.New("connection reset"))

	_, conflictSpan := StartSpan(context.Background(), "checkout")
	EndSpan(conflictSpan, shared.ErrConcurrencyConflict)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "connection reset", spans[0].Status().Description)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestSetAttributes(t *testing.T) {
	recorder := setupRecorder(t)

	_, span := StartSpan(context.Background(), "attrs")
	SetAttributes(span,
		"s", "v",
		"i64", int64(7),
		"f", 1.5,
		"b", true,
		"d", 1500*time.Millisecond,
		42, "ignored",
		"dangling",
	)
	span.End()

	attrs := attrMap(recorder.Ended()[0].Attributes())
	assert.Equal(t, "v", attrs["s"].AsString())
	assert.Equal(t, int64(7), attrs["i64"].AsInt64())
	assert.Equal(t, 1.5, attrs["f"].AsFloat64())
	assert.True(t, attrs["b"].AsBool())
	assert.Equal(t, int64(1500), attrs["d"].AsInt64())
	assert.NotContains(t, attrs, "dangling")
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.EnableSpanProfiles())
	assert.False(t, tp.IsSpanProfilesEnabled())
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOnSampler")
	assert.Equal(t, "AlwaysOffSampler", samplerFor(0).Description())
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}
