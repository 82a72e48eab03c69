package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestTerminalLevels(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Options{Writer: &buf})
	require.NoError(t, err)
	l.Debug("hidden")
	l.Info("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "k=v")

	buf.Reset()
	l, err = New(Options{Writer: &buf, Quiet: true, Verbose: true})
	require.NoError(t, err)
	l.Warn("dropped")
	l.Error("kept")
	assert.NotContains(t, buf.String(), "dropped", "quiet wins over verbose")
	assert.Contains(t, buf.String(), "kept")

	l.SetLevel(slog.LevelDebug)
	l.Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestFileSink(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "tt.log")
	l, err := New(Options{Writer: &buf, File: path, MaxSizeMB: 1, MaxBackups: 1})
	require.NoError(t, err)

	l.Debug("scan complete", "files", 3)
	require.NoError(t, l.Close())

	assert.Empty(t, buf.String(), "terminal stays at info")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &rec))
	assert.Equal(t, "scan complete", rec["msg"])
	assert.Equal(t, float64(3), rec["files"])
}

func TestBadLevel(t *testing.T) {
	_, err := New(Options{Level: "chatty"})
	assert.Error(t, err)
}
