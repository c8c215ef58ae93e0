package middleware

import (
	"log/slog"
	"strings"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/service"

	"github.com/labstack/echo/v4"
)

// IdentityMiddleware resolves the shopper identity from an optional Bearer token.
// Requests without a token are guests; a token that fails validation is rejected.
type IdentityMiddleware struct {
	tokens service.IdentityTokenService
	logger *slog.Logger
}

// NewIdentityMiddleware creates the identity middleware. A nil token service treats
// every request as a guest.
func NewIdentityMiddleware(tokens service.IdentityTokenService, logger *slog.Logger) *IdentityMiddleware {
	return &IdentityMiddleware{tokens: tokens, logger: logger}
}

func (m *IdentityMiddleware) Process(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" || m.tokens == nil {
			deliverycontext.SetIdentity(c, entity.Guest())

			return next(c)
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			return domainerrors.ErrInvalidIdentity.WithDetails("authorization header must be a Bearer token")
		}

		identity, _, err := m.tokens.ParseIdentity(tokenString)
		if err != nil {
			deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).
				Debug("Rejected identity token", slog.Any("error", err))

			return domainerrors.ErrInvalidIdentity
		}

		deliverycontext.SetIdentity(c, identity)

		return next(c)
	}
}
