package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/fyrsmithlabs/memoryd/internal/config"
)

func TestNewDisabled(t *testing.T) {
	tel, err := New(context.Background(), config.TelemetryConfig{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, tel)

	assert.False(t, tel.IsEnabled())
	health := tel.Health()
	assert.True(t, health.Healthy)
	assert.False(t, health.Degraded)

	// Disabled telemetry still hands out usable (no-op) instruments.
	tracer := tel.Tracer("test")
	require.NotNil(t, tracer)
	_, span := tracer.Start(context.Background(), "op")
	span.End()

	meter := tel.Meter("test")
	require.NotNil(t, meter)

	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.NoError(t, tel.ForceFlush(context.Background()))
}

func TestNilReceiverSafe(t *testing.T) {
	var tel *Telemetry

	assert.False(t, tel.IsEnabled())
	assert.Nil(t, tel.LoggerProvider())
	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.NoError(t, tel.ForceFlush(context.Background()))

	health := tel.Health()
	assert.False(t, health.Healthy)
	assert.True(t, health.Degraded)

	require.NotNil(t, tel.Tracer("test"))
	require.NotNil(t, tel.Meter("test"))
}

func TestShutdownMarksUnhealthy(t *testing.T) {
	tel, err := New(context.Background(), config.TelemetryConfig{Enabled: false})
	require.NoError(t, err)

	require.NoError(t, tel.Shutdown(context.Background()))
	assert.False(t, tel.Health().Healthy)
	assert.False(t, tel.IsEnabled())
}

func TestTestTelemetryRecordsSpans(t *testing.T) {
	tt := NewTestTelemetry()

	tracer := tt.Tracer("memoryd-test")
	_, span := tracer.Start(context.Background(), "memory.store")
	span.SetAttributes(attribute.String("memory.codename", "alpha"))
	span.End()

	tt.AssertSpanExists(t, "memory.store")
	tt.AssertSpanAttribute(t, "memory.store", "memory.codename", "alpha")
	assert.Nil(t, tt.SpanByName("memory.delete"))
}

func TestTestTelemetrySpanStatusAndKind(t *testing.T) {
	tt := NewTestTelemetry()

	tracer := tt.Tracer("memoryd-test")
	_, span := tracer.Start(context.Background(), "memory.search",
		oteltrace.WithSpanKind(oteltrace.SpanKindInternal))
	span.End()

	recorded := tt.SpanByName("memory.search")
	require.NotNil(t, recorded)
	assert.Equal(t, oteltrace.SpanKindInternal, recorded.SpanKind())
}

func TestStripScheme(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://localhost:4318", "localhost:4318"},
		{"https://otel.example.com:443", "otel.example.com:443"},
		{"localhost:4317", "localhost:4317"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, stripScheme(tt.in))
	}
}

func TestSetLoggerProvider(t *testing.T) {
	tel, err := New(context.Background(), config.TelemetryConfig{Enabled: false})
	require.NoError(t, err)

	assert.Nil(t, tel.LoggerProvider())
	tel.SetLoggerProvider(nil)
	assert.Nil(t, tel.LoggerProvider())
}
