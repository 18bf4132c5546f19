package auth

import (
	"io"
	"log/slog"
	"strings"
)

// SlogLogger adapts a *slog.Logger to Logger
type SlogLogger struct {
	l *slog.Logger
}

func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{l: l}
}

// NewLogger builds a JSON or text slog handler writing to w at the given level.
func NewLogger(w io.Writer, level string, json bool) *SlogLogger {
	opts := &slog.HandlerOptions{Level: ParseLogLevel(level)}

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &SlogLogger{l: slog.New(handler)}
}

// ParseLogLevel defaults to info for anything it does not recognize.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (s *SlogLogger) Debug(msg string, args ...any) {
	s.l.Debug(msg, args...)
}

func (s *SlogLogger) Info(msg string, args ...any) {
	s.l.Info(msg, args...)
}

func (s *SlogLogger) Warn(msg string, args ...any) {
	s.l.Warn(msg, args...)
}

func (s *SlogLogger) Error(msg string, args ...any) {
	s.l.Error(msg, args...)
}

func (s *SlogLogger) With(args ...any) *SlogLogger {
	return &SlogLogger{l: s.l.With(args...)}
}

// Slog exposes the underlying logger for libraries that want one.
func (s *SlogLogger) Slog() *slog.Logger {
	return s.l
}

type defLogger struct{}

func (defLogger) Debug(msg string, args ...any) {
	slog.Default().Debug(msg, append([]any{"component", "auth"}, args...)...)
}

func (defLogger) Info(msg string, args ...any) {
	slog.Default().Info(msg, append([]any{"component", "auth"}, args...)...)
}

func (defLogger) Warn(msg string, args ...any) {
	slog.Default().Warn(msg, append([]any{"component", "auth"}, args...)...)
}

func (defLogger) Error(msg string, args ...any) {
	slog.Default().Error(msg, append([]any{"component", "auth"}, args...)...)
}

func resolveLogger(logger Logger) Logger {
	if logger == nil {
		return defLogger{}
	}
	return logger
}
