package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"storefront/internal/delivery/api/response"
	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// CheckoutHandlerParams holds dependencies for CheckoutHandler, injected by Fx.
type CheckoutHandlerParams struct {
	fx.In

	Sessions usecase.SessionUsecase
	Logger   *slog.Logger
}

// CheckoutHandler drives the checkout attempt of the current session.
type CheckoutHandler struct {
	sessions usecase.SessionUsecase
	logger   *slog.Logger
}

// NewCheckoutHandler is the constructor for CheckoutHandler
func NewCheckoutHandler(params CheckoutHandlerParams) *CheckoutHandler {
	return &CheckoutHandler{
		sessions: params.Sessions,
		logger:   params.Logger,
	}
}

// CheckoutView is the confirmation page state: the attempt status and the last form.
type CheckoutView struct {
	Status entity.CheckoutStatus `json:"status"`
	Form   *entity.CheckoutForm  `json:"form,omitempty"`
}

// Submit validates the form, places the order and starts the payment.
func (h *CheckoutHandler) Submit(c echo.Context) error {
	var form entity.CheckoutForm
	if err := c.Bind(&form); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid checkout form")
	}

	bundle, identity := sessionOf(c, h.sessions)
	status, err := bundle.Checkout.Submit(c.Request().Context(), identity, &form)
	if status == nil {
		return response.HandleAppError(c, err)
	}

	if err != nil {
		deliverycontext.GetLoggerOrDefault(c.Request().Context(), h.logger).Debug("Checkout submit did not complete",
			slog.String("state", string(status.State)),
			slog.String("kind", string(domainerrors.KindOf(err))),
		)
	}

	return response.Outcome(c, http.StatusOK, status, err)
}

// ConfirmPayment resumes an attempt waiting for payment.
func (h *CheckoutHandler) ConfirmPayment(c echo.Context) error {
	var input entity.PaymentInput
	if err := c.Bind(&input); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid payment input")
	}

	bundle, _ := sessionOf(c, h.sessions)
	status, err := bundle.Checkout.ConfirmPayment(c.Request().Context(), input)
	if status == nil {
		return response.HandleAppError(c, err)
	}

	return response.Outcome(c, http.StatusOK, status, err)
}

// Cancel abandons an attempt waiting for payment.
func (h *CheckoutHandler) Cancel(c echo.Context) error {
	bundle, _ := sessionOf(c, h.sessions)
	status, err := bundle.Checkout.Cancel(c.Request().Context())
	if status == nil {
		return response.HandleAppError(c, err)
	}

	return response.Outcome(c, http.StatusOK, status, err)
}

// GetCheckout returns the attempt status together with the last submitted form.
// The form carries no payment credentials; those only travel with ConfirmPayment.
func (h *CheckoutHandler) GetCheckout(c echo.Context) error {
	bundle, _ := sessionOf(c, h.sessions)

	return response.Success(c, http.StatusOK, CheckoutView{
		Status: bundle.Checkout.Status(),
		Form:   bundle.Checkout.Form(),
	})
}

// GetOrder re-reads the session's current order from the backend.
func (h *CheckoutHandler) GetOrder(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid order ID")
	}

	bundle, _ := sessionOf(c, h.sessions)
	if bundle.Checkout.Status().OrderID != orderID {
		return response.HandleAppError(c, domainerrors.ErrOrderNotFound)
	}

	order, err := bundle.Checkout.Reconcile(c.Request().Context())
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, order)
}
