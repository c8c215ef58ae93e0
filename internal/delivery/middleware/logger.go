package middleware

import (
	"log/slog"

	"storefront/config"

	"github.com/labstack/echo/v4"
	slogecho "github.com/samber/slog-echo"
)

// NewLoggerMiddleware returns the access log middleware. Successful requests are logged
// at info in debug mode and at debug otherwise; failures are always warn or error.
func NewLoggerMiddleware(logger *slog.Logger, cfg *config.Config) echo.MiddlewareFunc {
	level := slog.LevelDebug
	if cfg.Env.Debug {
		level = slog.LevelInfo
	}

	return slogecho.NewWithConfig(logger, slogecho.Config{
		DefaultLevel:     level,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
		WithUserAgent:    true,
		WithRequestID:    true,
		Filters: []slogecho.Filter{
			slogecho.IgnorePath("/health"),
		},
	})
}
