package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestSetup_WritesFileAndConsole(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "gh-monitor.log")
	var console bytes.Buffer

	logger, closer, err := Setup(Options{File: logFile, Level: "info", Console: &console})
	require.NoError(t, err)

	logger.Info("refreshed dataset", "repos", 3)
	logger.Debug("hidden at info")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "refreshed dataset")
	assert.Contains(t, string(data), "repos=3")
	assert.NotContains(t, string(data), "hidden at info")

	assert.Contains(t, console.String(), "refreshed dataset")
}

func TestSetup_QuietSkipsConsole(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "gh-monitor.log")
	var console bytes.Buffer

	logger, closer, err := Setup(Options{File: logFile, Level: "debug", Quiet: true, Console: &console})
	require.NoError(t, err)
	defer closer.Close()

	logger.Debug("render tick")
	assert.Empty(t, console.String())
}

func TestMultiHandler_Enabled(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)

	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))

	logger := slog.New(h).With("component", "daemon")
	logger.Info("started")

	assert.Empty(t, a.String())
	assert.Contains(t, b.String(), "component=daemon")
	assert.Contains(t, b.String(), "started")
}
