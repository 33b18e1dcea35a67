// Package observability provides the shared logger and metrics used across
// the service.
package observability

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide structured logger. Production
// environments log JSON; everything else gets human-readable text.
func NewLogger(environment string) *slog.Logger {
	var handler slog.Handler
	switch environment {
	case "production", "staging":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler).With("service", "messaging-relay")
}
