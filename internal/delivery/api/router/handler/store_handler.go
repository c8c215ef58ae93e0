package handler

import (
	"log/slog"
	"net/http"

	"storefront/internal/delivery/api/response"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// StoreHandlerParams holds dependencies for StoreHandler, injected by Fx.
type StoreHandlerParams struct {
	fx.In

	StoreData usecase.StoreDataUsecase
	Logger    *slog.Logger
}

// StoreHandler serves the backend data the checkout form is built from.
type StoreHandler struct {
	storeData usecase.StoreDataUsecase
	logger    *slog.Logger
}

// NewStoreHandler is the constructor for StoreHandler
func NewStoreHandler(params StoreHandlerParams) *StoreHandler {
	return &StoreHandler{
		storeData: params.StoreData,
		logger:    params.Logger,
	}
}

// GetCountries lists countries and their states.
func (h *StoreHandler) GetCountries(c echo.Context) error {
	countries, err := h.storeData.Countries(c.Request().Context())
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, countries)
}

// GetPaymentGateways lists the enabled payment gateways.
func (h *StoreHandler) GetPaymentGateways(c echo.Context) error {
	gateways, err := h.storeData.PaymentGateways(c.Request().Context())
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, gateways)
}

// GetShippingOptions lists shipping zones with their enabled methods.
func (h *StoreHandler) GetShippingOptions(c echo.Context) error {
	options, err := h.storeData.ShippingOptions(c.Request().Context())
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, options)
}
