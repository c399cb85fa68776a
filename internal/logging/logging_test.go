// ABOUTME: Tests for logger construction and the console handler
// ABOUTME: Checks level filtering, JSON output, and attribute rendering without colors

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/gemini-bridge/internal/config"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "info", Format: "json"}, &buf)

	logger.With("component", "store").Info("opened", "path", "/tmp/x.db")
	logger.Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "opened", rec["msg"])
	assert.Equal(t, "store", rec["component"])
	assert.Equal(t, "/tmp/x.db", rec["path"])
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "debug", Format: "text"}, &buf)

	logger.With("component", "invoker").Warn("tool run failed", "exit_code", 1)

	out := buf.String()
	assert.Contains(t, out, "WRN tool run failed")
	assert.Contains(t, out, " component=invoker")
	assert.Contains(t, out, " exit_code=1")
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.Less(t, strings.Index(out, "component="), strings.Index(out, "exit_code="))
}

func TestNew_ConsoleLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "warn"}, &buf)

	logger.Info("quiet")
	logger.Error("loud")

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "ERR loud")
}

func TestNew_ConsoleGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.LoggingConfig{Level: "info"}, &buf)

	logger.WithGroup("http").Info("request", "status", 200, slog.Group("req", "method", "GET"))

	out := buf.String()
	assert.Contains(t, out, " http.status=200")
	assert.Contains(t, out, " http.req.method=GET")
}
