package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	cfg := NewDefaultConfig()
	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, logger)

	assert.True(t, logger.Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Enabled(zapcore.DebugLevel))

	// Context methods must not panic on a bare context.
	ctx := context.Background()
	logger.Info(ctx, "started")
	logger.Named("sub").Debug(ctx, "suppressed")
	assert.NoError(t, logger.Sync())
}

func TestNewLoggerRejectsInvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"
	_, err := NewLogger(cfg, nil)
	assert.Error(t, err)

	cfg = NewDefaultConfig()
	cfg.Output = OutputConfig{}
	_, err = NewLogger(cfg, nil)
	assert.Error(t, err)
}

func TestFromSettings(t *testing.T) {
	cfg, err := FromSettings("debug", "console")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, cfg.Level)
	assert.Equal(t, "console", cfg.Format)

	_, err = FromSettings("shouty", "json")
	assert.Error(t, err)
}

func TestContextFieldsWithTrace(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01},
		SpanID:     trace.SpanID{0x02},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = WithRequestID(ctx, "req-123")

	fields := ContextFields(ctx)

	keys := make(map[string]bool, len(fields))
	for _, f := range fields {
		keys[f.Key] = true
	}
	assert.True(t, keys["trace_id"])
	assert.True(t, keys["span_id"])
	assert.True(t, keys["trace_sampled"])
	assert.True(t, keys["request.id"])
}

func TestContextFieldsEmpty(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")
	assert.Equal(t, "abc", RequestIDFromContext(ctx))
	assert.Equal(t, "", RequestIDFromContext(context.Background()))
}
