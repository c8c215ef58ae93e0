package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/config"
	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()

	return echo.New().NewContext(req, rec), rec
}

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		reuse    bool
	}{
		{name: "reuses client id", incoming: "checkout-123", reuse: true},
		{name: "generates when missing", incoming: ""},
		{name: "rejects whitespace", incoming: "bad id"},
		{name: "rejects oversized", incoming: strings.Repeat("a", maxRequestIDLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(deliverycontext.HeaderXRequestID, tt.incoming)
			}
			c, rec := newContext(req)

			var fromCtx string
			err := NewRequestIDMiddleware(discardLogger()).Process(func(c echo.Context) error {
				fromCtx = deliverycontext.GetRequestIDFromContext(c.Request().Context())
				assert.NotNil(t, deliverycontext.GetLogger(c.Request().Context()))

				return nil
			})(c)
			require.NoError(t, err)

			got := rec.Header().Get(deliverycontext.HeaderXRequestID)
			assert.Equal(t, got, fromCtx)
			assert.Equal(t, got, deliverycontext.GetRequestID(c))
			if tt.reuse {
				assert.Equal(t, tt.incoming, got)
			} else {
				_, err := uuid.Parse(got)
				assert.NoError(t, err)
			}
		})
	}
}

func newSessionConfig() *config.Config {
	return &config.Config{Session: &config.SessionConfig{CookieName: "sf_session", CookieSecure: true}}
}

func TestSessionMiddleware_IssuesCookie(t *testing.T) {
	c, rec := newContext(httptest.NewRequest(http.MethodGet, "/", nil))

	err := NewSessionMiddleware(newSessionConfig(), discardLogger()).Process(func(echo.Context) error { return nil })(c)
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sf_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, cookies[0].Value, deliverycontext.GetSessionID(c))
}

func TestSessionMiddleware_ReusesValidCookie(t *testing.T) {
	sessionID := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sf_session", Value: sessionID})
	c, rec := newContext(req)

	err := NewSessionMiddleware(newSessionConfig(), discardLogger()).Process(func(echo.Context) error { return nil })(c)
	require.NoError(t, err)

	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, sessionID, deliverycontext.GetSessionID(c))
}

func TestSessionMiddleware_ReplacesForgedCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sf_session", Value: "user-1"})
	c, rec := newContext(req)

	err := NewSessionMiddleware(newSessionConfig(), discardLogger()).Process(func(echo.Context) error { return nil })(c)
	require.NoError(t, err)

	require.Len(t, rec.Result().Cookies(), 1)
	assert.NotEqual(t, "user-1", deliverycontext.GetSessionID(c))
}

type stubTokens struct {
	identity entity.Identity
	err      error
}

func (s stubTokens) IssueToken(entity.Identity, string) (string, error) {
	return "", nil
}

func (s stubTokens) ParseIdentity(string) (entity.Identity, *service.IdentityClaims, error) {
	return s.identity, nil, s.err
}

func TestIdentityMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		tokens  service.IdentityTokenService
		want    entity.Identity
		wantErr bool
	}{
		{name: "no header is guest", tokens: stubTokens{}, want: entity.Guest()},
		{name: "valid token", header: "Bearer abc", tokens: stubTokens{identity: entity.AuthenticatedUser(7)}, want: entity.AuthenticatedUser(7)},
		{name: "not bearer", header: "Basic abc", tokens: stubTokens{}, wantErr: true},
		{name: "rejected token", header: "Bearer abc", tokens: stubTokens{err: errors.New("expired")}, wantErr: true},
		{name: "no token service", header: "Bearer abc", want: entity.Guest()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			c, _ := newContext(req)

			called := false
			err := NewIdentityMiddleware(tt.tokens, discardLogger()).Process(func(echo.Context) error {
				called = true

				return nil
			})(c)

			if tt.wantErr {
				assert.True(t, domainerrors.IsKind(err, domainerrors.KindUnauthorized))
				assert.False(t, called)

				return
			}
			require.NoError(t, err)
			assert.True(t, called)
			assert.Equal(t, tt.want, deliverycontext.GetIdentity(c))
		})
	}
}
