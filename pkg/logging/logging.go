// Package logging configures the process-wide structured logger.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// SetDefaultStructuredLogger installs a JSON slog handler as the default
// logger, tagged with the service name and version. The level is taken from
// the LOG_LEVEL environment variable and defaults to info.
func SetDefaultStructuredLogger(name, version string) {
	level := ParseLevel(os.Getenv("LOG_LEVEL"))

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler).With(
		slog.String("service", name),
		slog.String("version", version),
	)
	slog.SetDefault(logger)
}

// SetDebugLogger installs a JSON slog handler at debug level regardless of
// LOG_LEVEL. Used by the --debug CLI flag.
func SetDebugLogger(name, version string) {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(handler).With(
		slog.String("service", name),
		slog.String("version", version),
	)
	slog.SetDefault(logger)
}

// SetQuietLogger raises the default logger level so that only errors are
// emitted. Used by CLI invocations where structured logs would pollute the
// command output.
func SetQuietLogger() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})
	slog.SetDefault(slog.New(handler))
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
