package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENVIRONMENT=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithOwner returns a logger with the owning identity attached. Use this for
// all logging within one reconciliation pass.
func WithOwner(ownerEmail string) *slog.Logger {
	return slog.With("owner", ownerEmail)
}

// WithBot returns a logger scoped to one bot's lifecycle.
func WithBot(logger *slog.Logger, botID string) *slog.Logger {
	return logger.With("bot_id", botID)
}
