package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.WarnLevel},
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{" error ", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.ErrorContains(t, err, "invalid log level")
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("warn", false, &buf)
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown", zap.String("account", "0xabc"))
	require.NoError(t, log.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "tokenlaunch")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, `"account": "0xabc"`)
}

func TestNewVerboseForcesDebug(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("error", true, &buf)
	require.NoError(t, err)

	log.Debug("details")
	assert.Contains(t, buf.String(), "details")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New("chatty", false, nil)
	assert.Error(t, err)
}
