package logger

import (
	"log/slog"
	"os"
)

// New returns the root structured logger. Level defaults to info; set
// LOG_LEVEL=debug to see per-source aggregation failures in detail.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
