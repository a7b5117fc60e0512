package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// parseLogLevel converts a string log level to slog.Level. Invalid or empty
// input defaults to INFO.
func parseLogLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogLevel returns the log level from the LOG_LEVEL environment variable.
func LogLevel() slog.Level {
	return parseLogLevel(os.Getenv("LOG_LEVEL"))
}

// NewLogger creates a structured logger with the configured log level.
// In stdio mode (MCP over pipes) it writes text to stderr so log lines do
// not interfere with the protocol on stdout; otherwise it writes JSON to
// stdout for structured collection.
func NewLogger(stdioMode bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: LogLevel()}

	if stdioMode {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// NewTextLogger creates a text logger writing to output. Used by the
// one-shot CLI lookup mode and tests.
func NewTextLogger(output io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: LogLevel()}))
}
