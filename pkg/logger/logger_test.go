package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" DEBUG ", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestNewLogger_JSONConsole(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := NewLogger(Options{Level: "info", Format: "json", Console: &buf})
	require.NoError(t, err)
	defer closer.Close()

	log.Info("registered push token", "identity", "did:plc:abc", "platform", "ios")
	log.Debug("suppressed at info level")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "registered push token", entry["msg"])
	assert.Equal(t, "did:plc:abc", entry["identity"])
	assert.Equal(t, "ios", entry["platform"])
	assert.NotContains(t, buf.String(), "suppressed")
}

func TestNewLogger_FansOutToFile(t *testing.T) {
	var buf bytes.Buffer
	logFile := filepath.Join(t.TempDir(), "logs", "registry.log")

	log, closer, err := NewLogger(Options{Format: "text", File: logFile, Console: &buf})
	require.NoError(t, err)

	log.Warn("persist failed", "operation", "register")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "persist failed")
	assert.Contains(t, string(data), "operation=register")
	assert.Contains(t, buf.String(), "persist failed")
}
