package handler

import (
	"log/slog"
	"net/http"

	"storefront/internal/delivery/api/response"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// CouponHandlerParams holds dependencies for CouponHandler, injected by Fx.
type CouponHandlerParams struct {
	fx.In

	Sessions usecase.SessionUsecase
	Logger   *slog.Logger
}

// CouponHandler validates, applies and removes coupons on the current cart.
type CouponHandler struct {
	sessions usecase.SessionUsecase
	logger   *slog.Logger
}

// NewCouponHandler is the constructor for CouponHandler
func NewCouponHandler(params CouponHandlerParams) *CouponHandler {
	return &CouponHandler{
		sessions: params.Sessions,
		logger:   params.Logger,
	}
}

// ValidateCouponRequest checks a code. Live requests come from a text field as the
// shopper types and are debounced.
type ValidateCouponRequest struct {
	Code string `json:"code"`
	Live bool   `json:"live"`
}

// ApplyCouponRequest applies a code to the cart.
type ApplyCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

// Validate checks a code against the current cart without applying it.
func (h *CouponHandler) Validate(c echo.Context) error {
	var req ValidateCouponRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid coupon")
	}

	bundle, identity := sessionOf(c, h.sessions)
	ctx := c.Request().Context()

	validate := bundle.Coupons.Validate
	if req.Live {
		validate = bundle.Coupons.ValidateDebounced
	}

	result, err := validate(ctx, identity, req.Code)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, result)
}

// Apply adds a code and returns the recomputed cart. A rejected code leaves the
// cart as it was and is reported next to it.
func (h *CouponHandler) Apply(c echo.Context) error {
	var req ApplyCouponRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid coupon")
	}

	if err := c.Validate(&req); err != nil {
		return response.HandleAppError(c, err)
	}

	bundle, identity := sessionOf(c, h.sessions)
	_, err := bundle.Coupons.Apply(c.Request().Context(), identity, req.Code)

	return response.Outcome(c, http.StatusOK, bundle.Cart.Summary(identity), err)
}

// Remove drops the code in the path and returns the recomputed cart.
func (h *CouponHandler) Remove(c echo.Context) error {
	bundle, identity := sessionOf(c, h.sessions)
	_, err := bundle.Coupons.Remove(c.Request().Context(), identity, c.Param("code"))

	return response.Outcome(c, http.StatusOK, bundle.Cart.Summary(identity), err)
}
