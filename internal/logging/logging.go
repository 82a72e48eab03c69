// Package logging builds the process logger. There is no package-level
// logger: main constructs one and passes it down.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	// Level for the terminal handler: debug, info, warn or error.
	Level string
	// Verbose forces debug and Quiet forces error on the terminal handler.
	Verbose bool
	Quiet   bool
	// Writer is the terminal sink; os.Stderr when nil.
	Writer io.Writer

	// File enables a JSON log file rotated by size. Empty disables it.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// Logger owns the handlers behind a *slog.Logger so the file sink can be
// closed on exit.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
	file  io.Closer
}

// New builds a logger that fans out to the terminal and, when configured,
// to a rotating file that always records at debug level.
func New(opts Options) (*Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	switch {
	case opts.Quiet:
		lvl = slog.LevelError
	case opts.Verbose:
		lvl = slog.LevelDebug
	}
	level := new(slog.LevelVar)
	level.Set(lvl)

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	handlers := []slog.Handler{
		slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}),
	}

	l := &Logger{level: level}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		rot := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		handlers = append(handlers, slog.NewJSONHandler(rot, &slog.HandlerOptions{Level: slog.LevelDebug}))
		l.file = rot
	}

	l.Logger = slog.New(slogmulti.Fanout(handlers...))
	return l, nil
}

// SetLevel changes the terminal level at runtime.
func (l *Logger) SetLevel(lvl slog.Level) {
	l.level.Set(lvl)
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps a level name to a slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
