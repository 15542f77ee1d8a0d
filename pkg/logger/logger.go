package logger

import (
	"log/slog"
	"os"
	"strings"
)

// Logger is a thin wrapper over slog so packages depend on a stable local type
// instead of the stdlib handler wiring.
type Logger struct {
	l *slog.Logger
}

// New builds a logger writing JSON to stderr. level accepts debug/info/warn/error
// (case-insensitive); anything else means info.
func New(level string) *Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return &Logger{l: slog.New(h)}
}

// NewFromEnv reads LOG_LEVEL.
func NewFromEnv() *Logger {
	return New(os.Getenv("LOG_LEVEL"))
}

// Nop discards everything; used in tests.
func Nop() *Logger {
	return &Logger{l: slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.Level(127)}))}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func (lg *Logger) Debug(msg string, args ...any) { lg.l.Debug(msg, args...) }
func (lg *Logger) Info(msg string, args ...any)  { lg.l.Info(msg, args...) }
func (lg *Logger) Warn(msg string, args ...any)  { lg.l.Warn(msg, args...) }
func (lg *Logger) Error(msg string, args ...any) { lg.l.Error(msg, args...) }

// With returns a logger with preset attributes.
func (lg *Logger) With(args ...any) *Logger {
	return &Logger{l: lg.l.With(args...)}
}
