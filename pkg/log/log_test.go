package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandler_JSONFormat(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(newHandler(&buf, "info", "json"))
	logger.Info("api started", "port", 9081)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "api started", record["msg"])
	assert.Equal(t, float64(9081), record["port"])
}

func TestNewHandler_TextFormatByDefault(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(newHandler(&buf, "info", ""))
	logger.Info("api started")

	assert.Contains(t, buf.String(), "msg=")
	assert.False(t, strings.HasPrefix(strings.TrimSpace(buf.String()), "{"))
}

func TestNewHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(newHandler(&buf, "warn", "text"))
	logger.Info("quiet")
	logger.Warn("loud")

	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestNewHandler_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(newHandler(&buf, "chatty", "text"))
	logger.Debug("hidden")
	logger.Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
