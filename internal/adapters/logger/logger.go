// Package logger constructs the application logger on top of log/slog.
package logger

import (
	"log/slog"
	"os"
)

// New creates the application logger. Output goes to stderr so pipeline
// command output on stdout stays clean.
func New() *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(handler)
}
