package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerProvider_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), LogsConfig{}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	assert.False(t, lp.ZapCore(zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))
	assert.NoError(t, lp.Shutdown(context.Background()))

	var nilProvider *LoggerProvider
	assert.False(t, nilProvider.IsEnabled())
}

func TestWithMinLevel(t *testing.T) {
	inner, recorded := observer.New(zapcore.DebugLevel)
	core := withMinLevel(inner, zapcore.WarnLevel)

	l := zap.New(core).With(zap.String("component", "basket"))
	l.Info("dropped")
	l.Warn("kept")

	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0].Message)
	assert.Equal(t, "basket", entries[0].ContextMap()["component"])
	assert.False(t, core.Enabled(zapcore.DebugLevel))
}
