package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"camsort/internal/messages"
)

func TestHandlerRendersPlaceholders(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelInfo)

	logger.Info(messages.Copying, "files_number", 3, "folder_name", "2024-05-01 10:00:00")

	require.Equal(t, "INFO : Copying 3 files into 2024-05-01 10:00:00...\n", buf.String())
}

func TestHandlerAppendsUnconsumedAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelDebug)

	logger.Error(messages.OperationFailed, "operation", "copy", "e", errors.New("disk full"), "path", "/tmp/a.jpg")

	require.Equal(t, "ERROR: copy failed: disk full\tpath=/tmp/a.jpg\n", buf.String())
}

func TestHandlerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, slog.LevelWarn)

	logger.Debug("debug line")
	logger.Info("info line")
	logger.Warn("warn line")

	require.Equal(t, "WARN : warn line\n", buf.String())
}

func TestHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf, nil).WithAttrs([]slog.Attr{slog.String("source_folder", "/card")})
	slog.New(h).Info(messages.LookingThrough)

	require.Equal(t, "INFO : Looking through '/card'...\n", buf.String())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNewFileLoggerWritesBothSinks(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	logger, f, err := NewFileLogger(filepath.Join(dir, "log"), &console, slog.LevelInfo)
	require.NoError(t, err)
	defer f.Close()

	logger.Info(messages.FoundNothing, "file_path", "results.csv")
	logger.Debug("hidden")

	require.Equal(t, "INFO : Found nothing in 'results.csv'.\n", console.String())

	data, err := os.ReadFile(filepath.Join(dir, "log", "camsort.log"))
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	require.Contains(t, line, "\tINFO : Found nothing in 'results.csv'.")
	require.NotContains(t, string(data), "hidden")
}

func TestNopLogger(t *testing.T) {
	l := Nop()
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x")
}
