// Package log provides a concurrency-safe structured logging interface
// over log/slog with functional-option configuration and a trace level
// below debug.
package log

import (
	"context"
	"io"
	"log/slog"
	"math"
	"strings"
)

// LevelTrace is a severity below slog.LevelDebug for high-volume
// diagnostics such as per-lookup cache traces.
const LevelTrace = slog.Level(-8)

// Format represents the output format for log messages.
type Format int

const (
	// FormatText emits human-readable key=value lines.
	FormatText Format = iota

	// FormatJSON emits one JSON object per message.
	FormatJSON
)

// DefaultLevel is the default log level.
const DefaultLevel = slog.LevelInfo

// config holds the handler configuration assembled by options.
type config struct {
	writer io.Writer
	level  slog.Leveler
	format Format
	source bool
}

// Option adjusts one handler setting.
type Option func(config) config

// WithLevel sets the minimum severity of emitted messages.
func WithLevel(level slog.Level) Option {
	return func(cfg config) config {
		cfg.level = level

		return cfg
	}
}

// WithFormat selects the output format.
func WithFormat(format Format) Option {
	return func(cfg config) config {
		cfg.format = format

		return cfg
	}
}

// WithSource includes the caller's file and line in each message.
func WithSource(enable bool) Option {
	return func(cfg config) config {
		cfg.source = enable

		return cfg
	}
}

// ParseLevel parses a string representation of a log level. "trace" is
// recognized explicitly; other spellings follow
// [slog.Level.UnmarshalText]. Unparseable input yields DefaultLevel.
func ParseLevel(s string) slog.Level {
	if strings.EqualFold(s, "trace") {
		return LevelTrace
	}

	level := new(slog.Level)
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return DefaultLevel
	}

	return *level
}

// Logger is a thin wrapper over [slog.Logger] adding the trace level.
// The zero value is unusable; construct with [Make] or [Discard].
type Logger struct {
	*slog.Logger
}

// Make builds a [Logger] writing to w. Without options it emits
// [FormatText] at [DefaultLevel] with no caller info.
func Make(w io.Writer, opts ...Option) Logger {
	cfg := config{
		writer: w,
		level:  DefaultLevel,
		format: FormatText,
	}

	for _, opt := range opts {
		cfg = opt(cfg)
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     cfg.level,
		AddSource: cfg.source,
	}

	var handler slog.Handler
	if cfg.format == FormatJSON {
		handler = slog.NewJSONHandler(cfg.writer, handlerOpts)
	} else {
		handler = slog.NewTextHandler(cfg.writer, handlerOpts)
	}

	return Logger{Logger: slog.New(handler)}
}

// Discard returns a Logger that drops every message.
func Discard() Logger {
	return Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.Level(math.MaxInt),
	}))}
}

// With derives a [Logger] attaching attrs to every message.
func (l Logger) With(attrs ...slog.Attr) Logger {
	if l.Logger == nil {
		return Discard()
	}

	return Logger{Logger: slog.New(l.Handler().WithAttrs(attrs))}
}

// Trace logs at [LevelTrace].
func (l Logger) Trace(msg string, args ...any) {
	l.Log(context.Background(), LevelTrace, msg, args...)
}

// TraceContext logs at [LevelTrace] with a context.
func (l Logger) TraceContext(ctx context.Context, msg string, args ...any) {
	l.Log(ctx, LevelTrace, msg, args...)
}
