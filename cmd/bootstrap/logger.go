package bootstrap

import (
	"log/slog"

	"stayhub/internal/handler/middleware"
	"stayhub/internal/pkg/config"

	"go.uber.org/fx"
)

var LoggerModule = fx.Module("logger",
	fx.Provide(
		NewLogger,
	),
)

// NewLogger is JSON in release mode and tint-colored otherwise; it also becomes slog's default.
func NewLogger(cfg config.Config) *slog.Logger {
	return middleware.NewLogger(cfg.Log).GetSlogLogger()
}
