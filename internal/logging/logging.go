// Package logging provides the leveled log sink used by every phase.
//
// Messages are keys from package messages; the key/value arguments are both slog
// attributes and the named parameters substituted into the key's placeholders.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"camsort/internal/messages"
)

// Logger is the log sink the core writes to.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// nopLogger discards all output. Use in tests.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nopLogger{} }

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	Level      slog.Leveler // Minimum level; defaults to Info
	Timestamps bool         // Prefix lines with an RFC 3339 UTC timestamp
}

// Handler is a slog.Handler that renders records as
//
//	[<timestamp>\t]<LEVEL>: <message with placeholders substituted>[\tkey=value ...]
//
// Attributes consumed by a placeholder are not repeated after the message.
type Handler struct {
	mu    *sync.Mutex
	w     io.Writer
	opts  HandlerOptions
	attrs []slog.Attr
}

// NewHandler creates a Handler writing to w.
func NewHandler(w io.Writer, opts *HandlerOptions) *Handler {
	h := &Handler{mu: &sync.Mutex{}, w: w}
	if opts != nil {
		h.opts = *opts
	}
	return h
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})

	params := make(map[string]any, len(attrs))
	for _, a := range attrs {
		params[a.Key] = a.Value.Resolve().Any()
	}

	consumed := make(map[string]bool)
	for _, name := range messages.Placeholders(r.Message) {
		consumed[name] = true
	}

	var b strings.Builder
	if h.opts.Timestamps {
		b.WriteString(r.Time.UTC().Format("2006-01-02T15:04:05Z"))
		b.WriteString("\t")
	}
	fmt.Fprintf(&b, "%-5s: %s", levelName(r.Level), messages.Format(r.Message, params))
	for _, a := range attrs {
		if consumed[a.Key] {
			continue
		}
		fmt.Fprintf(&b, "\t%s=%v", a.Key, a.Value.Resolve().Any())
	}
	b.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{
		mu:    h.mu,
		w:     h.w,
		opts:  h.opts,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *Handler) WithGroup(string) slog.Handler { return h }

// levelName matches the short level names of the console format.
func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// ParseLevel converts a level name ("debug", "info", "warn", "error") to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// slogAdapter wraps *slog.Logger to satisfy Logger.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }

// FromSlog adapts an existing *slog.Logger.
func FromSlog(l *slog.Logger) Logger {
	return &slogAdapter{l: l}
}

// New creates a Logger that writes rendered lines to w.
func New(w io.Writer, level slog.Level) Logger {
	return FromSlog(slog.New(NewHandler(w, &HandlerOptions{Level: level})))
}

// NewFileLogger creates a Logger that writes to both logDir/camsort.log and console.
// The file lines carry timestamps; the console lines do not.
// It returns the Logger and the open log file (for cleanup).
func NewFileLogger(logDir string, console io.Writer, level slog.Level) (Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "camsort.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	handler := &fanoutHandler{handlers: []slog.Handler{
		NewHandler(f, &HandlerOptions{Level: level, Timestamps: true}),
		NewHandler(console, &HandlerOptions{Level: level}),
	}}
	return FromSlog(slog.New(handler)), f, nil
}

// fanoutHandler forwards each record to every handler that accepts its level.
type fanoutHandler struct {
	handlers []slog.Handler
}

func (f *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: next}
}

func (f *fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}
	return &fanoutHandler{handlers: next}
}
