package handler

import (
	"log/slog"
	"net/http"

	"storefront/internal/delivery/api/response"
	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// CartHandlerParams holds dependencies for CartHandler, injected by Fx.
type CartHandlerParams struct {
	fx.In

	Sessions  usecase.SessionUsecase
	StoreData usecase.StoreDataUsecase
	Logger    *slog.Logger
}

// CartHandler serves the cart of the current session and identity.
type CartHandler struct {
	sessions  usecase.SessionUsecase
	storeData usecase.StoreDataUsecase
	logger    *slog.Logger
}

// NewCartHandler is the constructor for CartHandler
func NewCartHandler(params CartHandlerParams) *CartHandler {
	return &CartHandler{
		sessions:  params.Sessions,
		storeData: params.StoreData,
		logger:    params.Logger,
	}
}

// UpdateQuantityRequest sets the quantity of a cart line. Zero or less removes the line.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// SelectShippingRequest picks a shipping method by method or rate ID.
type SelectShippingRequest struct {
	MethodID string `json:"methodId" validate:"required"`
}

// GetCart returns items, totals and applied coupons.
func (h *CartHandler) GetCart(c echo.Context) error {
	bundle, identity := sessionOf(c, h.sessions)

	return h.summary(c, http.StatusOK, bundle, identity)
}

// AddItem puts a product into the cart.
func (h *CartHandler) AddItem(c echo.Context) error {
	var req usecase.AddItemInput
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid cart item")
	}

	if err := c.Validate(&req); err != nil {
		return response.HandleAppError(c, err)
	}

	bundle, identity := sessionOf(c, h.sessions)
	if _, err := bundle.Cart.AddItem(identity, &req); err != nil {
		return response.HandleAppError(c, err)
	}

	return h.summary(c, http.StatusCreated, bundle, identity)
}

// UpdateItem changes the quantity of the line identified by the key path parameter.
func (h *CartHandler) UpdateItem(c echo.Context) error {
	var req UpdateQuantityRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid quantity")
	}

	bundle, identity := sessionOf(c, h.sessions)
	if _, err := bundle.Cart.SetQuantity(identity, c.Param("key"), req.Quantity); err != nil {
		return response.HandleAppError(c, err)
	}

	return h.summary(c, http.StatusOK, bundle, identity)
}

// RemoveItem drops the line identified by the key path parameter.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	bundle, identity := sessionOf(c, h.sessions)
	bundle.Cart.RemoveItem(identity, c.Param("key"))

	return h.summary(c, http.StatusOK, bundle, identity)
}

// ClearCart empties the cart, its shipping selection and applied coupons.
func (h *CartHandler) ClearCart(c echo.Context) error {
	bundle, identity := sessionOf(c, h.sessions)
	bundle.Cart.Clear(identity)

	return response.Success(c, http.StatusOK, bundle.Cart.Summary(identity))
}

// SelectShipping resolves the method against the backend's enabled shipping methods.
func (h *CartHandler) SelectShipping(c echo.Context) error {
	var req SelectShippingRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid shipping method")
	}

	if err := c.Validate(&req); err != nil {
		return response.HandleAppError(c, err)
	}

	selection, err := h.storeData.FindShippingMethod(c.Request().Context(), req.MethodID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	bundle, identity := sessionOf(c, h.sessions)
	bundle.Cart.SetShipping(identity, selection)

	return response.Success(c, http.StatusOK, bundle.Cart.Summary(identity))
}

// ClearShipping removes the shipping selection.
func (h *CartHandler) ClearShipping(c echo.Context) error {
	bundle, identity := sessionOf(c, h.sessions)
	bundle.Cart.SetShipping(identity, nil)

	return response.Success(c, http.StatusOK, bundle.Cart.Summary(identity))
}

// summary writes the cart after bringing coupon discounts in line with its items.
// Coupons the backend rejects for the edited cart are reported next to the summary.
// Other refresh failures keep the last computed discounts and are retried on the next read.
func (h *CartHandler) summary(c echo.Context, statusCode int, bundle *usecase.SessionBundle, identity entity.Identity) error {
	_, err := bundle.Coupons.Refresh(c.Request().Context(), identity)
	if err != nil && !domainerrors.IsKind(err, domainerrors.KindInvalidCoupon) {
		deliverycontext.GetLoggerOrDefault(c.Request().Context(), h.logger).
			Warn("Failed to refresh coupon discounts", slog.Any("error", err))
		err = nil
	}

	return response.Outcome(c, statusCode, bundle.Cart.Summary(identity), err)
}
