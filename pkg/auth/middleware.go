package auth

import (
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/takutakahashi/push-registry/internal/domain/entities"
)

// RequireAuthorization rejects requests the authorizer does not accept with
// entities.ErrUnauthorized, which the HTTP error handler maps to 401.
func RequireAuthorization(gate string, authorizer Authorizer, logger *slog.Logger) echo.MiddlewareFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if authorizer.Authorize(c.Request()) {
				return next(c)
			}
			logger.Warn("authorization failed",
				"gate", gate,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"remote_ip", c.RealIP(),
			)
			return fmt.Errorf("%s gate: %w", gate, entities.ErrUnauthorized)
		}
	}
}
