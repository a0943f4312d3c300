package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Level(t *testing.T) {
	logger, err := New("storefront", "debug")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = New("storefront", "")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))

	_, err = New("storefront", "chatty")
	assert.Error(t, err)
}

func TestLog_DropsEmptyFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	Log(logger, "order placed", Fields{SessionID: "s-1", OrderID: "o-1", Status: "PLACED"})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "order placed", entry.Message)
	assert.Equal(t, map[string]any{
		"session_id": "s-1",
		"order_id":   "o-1",
		"status":     "PLACED",
	}, entry.ContextMap())
}

func TestFields_Duration(t *testing.T) {
	fields := Fields{DurationMS: 12}.Zap()
	require.Len(t, fields, 1)
	assert.Equal(t, "duration_ms", fields[0].Key)
	assert.Equal(t, int64(12), fields[0].Integer)
}
