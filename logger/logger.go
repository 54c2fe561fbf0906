package logger

import (
	"log/slog"
	"os"
)

// InitLogger sets up the global structured logger.
// JSON handler writing to stdout, debug level.
func InitLogger() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
}
