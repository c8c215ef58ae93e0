package middleware

import (
	"log/slog"
	"net/http"

	"storefront/config"
	deliverycontext "storefront/internal/delivery/context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// SessionMiddleware binds every request to a browser session through an opaque cookie.
type SessionMiddleware struct {
	cookieName string
	secure     bool
	logger     *slog.Logger
}

// NewSessionMiddleware creates the session cookie middleware.
func NewSessionMiddleware(cfg *config.Config, logger *slog.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		cookieName: cfg.Session.CookieName,
		secure:     cfg.Session.CookieSecure,
		logger:     logger,
	}
}

// Process reuses the session cookie when it holds a UUID and issues a new session otherwise.
func (m *SessionMiddleware) Process(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		sessionID := ""
		if cookie, err := c.Cookie(m.cookieName); err == nil {
			if parsed, err := uuid.Parse(cookie.Value); err == nil {
				sessionID = parsed.String()
			}
		}

		if sessionID == "" {
			sessionID = uuid.NewString()
			c.SetCookie(&http.Cookie{
				Name:     m.cookieName,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				Secure:   m.secure,
				SameSite: http.SameSiteLaxMode,
			})
			deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).
				Debug("Issued browser session", slog.String("session_id", sessionID))
		}

		deliverycontext.SetSessionID(c, sessionID)

		return next(c)
	}
}
