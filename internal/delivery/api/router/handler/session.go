// Package handler contains the echo handlers of the storefront API.
package handler

import (
	"net/http"

	"storefront/internal/delivery/api/response"
	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// sessionOf returns the service bundle and identity of the request.
func sessionOf(c echo.Context, sessions usecase.SessionUsecase) (*usecase.SessionBundle, entity.Identity) {
	identity := deliverycontext.GetIdentity(c)
	bundle := sessions.Session(c.Request().Context(), deliverycontext.GetSessionID(c), identity)

	return bundle, identity
}

// HealthCheck reports that the API is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"})
}
