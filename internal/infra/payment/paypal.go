package payment

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/service"
	"storefront/internal/errors"

	"github.com/plutov/paypal/v4"
)

const (
	approveLinkRel      = "approve"
	payerActionLinkRel  = "payer-action"
	paypalStatusDone    = "COMPLETED"
	approvalReason      = "Approve the payment with PayPal to finish your order"
	paypalUserActionPay = "PAY_NOW"
)

// paypalOrders is the subset of the PayPal Orders API used by the redirect adapter.
type paypalOrders interface {
	CreateOrder(ctx context.Context, intent string, purchaseUnits []paypal.PurchaseUnitRequest, source *paypal.PaymentSource, appContext *paypal.ApplicationContext) (*paypal.Order, error)
	GetOrder(ctx context.Context, orderID string) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string, captureOrderRequest paypal.CaptureOrderRequest) (*paypal.CaptureOrderResponse, error)
}

// RedirectOptions configures the approval round trip.
type RedirectOptions struct {
	ReturnURL string
	CancelURL string
	BrandName string
}

// redirectAdapter sends the shopper to PayPal for approval and captures on return.
type redirectAdapter struct {
	orders paypalOrders
	opts   RedirectOptions
	logger *slog.Logger
}

// NewRedirectAdapter creates the PayPal adapter.
func NewRedirectAdapter(clientID, secret, apiBase string, opts RedirectOptions, logger *slog.Logger) (service.PaymentAdapter, error) {
	c, err := paypal.NewClient(clientID, secret, apiBase)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create PayPal client")
	}

	return newRedirectAdapter(c, opts, logger), nil
}

func newRedirectAdapter(orders paypalOrders, opts RedirectOptions, logger *slog.Logger) *redirectAdapter {
	return &redirectAdapter{
		orders: orders,
		opts:   opts,
		logger: logger.With(slog.String("gateway", "paypal")),
	}
}

func (a *redirectAdapter) Flow() entity.PaymentFlow {
	return entity.PaymentFlowRedirect
}

// Begin creates the PayPal order on the first call and captures it when the shopper returns approved.
// A shopper who backs out is reported as Cancelled.
func (a *redirectAdapter) Begin(ctx context.Context, req *entity.PaymentRequest) (entity.PaymentOutcome, error) {
	if req.Input.Cancelled {
		a.logger.Info("PayPal approval cancelled", slog.Int64("order_id", req.OrderID))

		return entity.PaymentOutcome{Kind: entity.OutcomeCancelled, Reason: "Payment was cancelled"}, nil
	}

	if req.Input.ApprovalID != "" {
		return a.capture(ctx, req)
	}

	if req.Handle != nil && req.Handle.ApprovalHandle != "" {
		return a.resume(ctx, req.Handle.ApprovalHandle)
	}

	return a.create(ctx, req)
}

func (a *redirectAdapter) create(ctx context.Context, req *entity.PaymentRequest) (entity.PaymentOutcome, error) {
	reference := strconv.FormatInt(req.OrderID, 10)
	units := []paypal.PurchaseUnitRequest{{
		ReferenceID: reference,
		CustomID:    reference,
		InvoiceID:   "order-" + reference,
		Amount: &paypal.PurchaseUnitAmount{
			Currency: req.Currency,
			Value:    req.Amount.StringFixed(2),
		},
	}}
	appContext := &paypal.ApplicationContext{
		BrandName:  a.opts.BrandName,
		ReturnURL:  a.opts.ReturnURL,
		CancelURL:  a.opts.CancelURL,
		UserAction: paypalUserActionPay,
	}

	order, err := a.orders.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, appContext)
	if err != nil {
		return a.classify(req.OrderID, err)
	}

	a.logger.Info("PayPal order created",
		slog.Int64("order_id", req.OrderID),
		slog.String("paypal_order_id", order.ID),
	)

	return approvalOutcome(order), nil
}

func (a *redirectAdapter) resume(ctx context.Context, paypalOrderID string) (entity.PaymentOutcome, error) {
	order, err := a.orders.GetOrder(ctx, paypalOrderID)
	if err != nil {
		return a.classify(0, err)
	}

	return approvalOutcome(order), nil
}

func (a *redirectAdapter) capture(ctx context.Context, req *entity.PaymentRequest) (entity.PaymentOutcome, error) {
	approvalID := req.Input.ApprovalID
	if req.Handle != nil && req.Handle.ApprovalHandle != "" && req.Handle.ApprovalHandle != approvalID {
		return entity.Failed("This PayPal approval does not belong to the current order"), nil
	}

	resp, err := a.orders.CaptureOrder(ctx, approvalID, paypal.CaptureOrderRequest{})
	if err != nil {
		return a.classify(req.OrderID, err)
	}

	if resp.Status != paypalStatusDone {
		a.logger.Info("PayPal capture not completed",
			slog.Int64("order_id", req.OrderID),
			slog.String("status", resp.Status),
		)

		return entity.PaymentOutcome{Kind: entity.OutcomeProcessing, Reason: "Your PayPal payment is pending"}, nil
	}

	return entity.Succeeded(captureID(resp)), nil
}

// classify maps PayPal API errors. Instrument problems are declines; anything else is a gateway failure.
func (a *redirectAdapter) classify(orderID int64, err error) (entity.PaymentOutcome, error) {
	var apiErr *paypal.ErrorResponse
	if errors.As(err, &apiErr) {
		status := 0
		if apiErr.Response != nil {
			status = apiErr.Response.StatusCode
		}

		a.logger.Warn("PayPal rejected the request",
			slog.Int64("order_id", orderID),
			slog.Int("status", status),
			slog.String("name", apiErr.Name),
			slog.String("message", apiErr.Message),
		)

		if status == http.StatusUnprocessableEntity {
			return entity.Failed(declineReason(apiErr)), nil
		}

		return entity.PaymentOutcome{}, domainerrors.ErrServer.WithDetails("paypal: " + apiErr.Message)
	}

	a.logger.Warn("PayPal unreachable", slog.Int64("order_id", orderID), slog.Any("error", err))

	return entity.PaymentOutcome{}, domainerrors.ErrNetwork.WithDetails("paypal: " + err.Error())
}

func declineReason(apiErr *paypal.ErrorResponse) string {
	for _, detail := range apiErr.Details {
		if detail.Description != "" {
			return detail.Description
		}
	}
	if apiErr.Message != "" {
		return apiErr.Message
	}

	return "PayPal declined the payment"
}

func approvalOutcome(order *paypal.Order) entity.PaymentOutcome {
	outcome := entity.PaymentOutcome{
		Kind:           entity.OutcomeRequiresAction,
		Reason:         approvalReason,
		ApprovalHandle: order.ID,
	}
	for _, link := range order.Links {
		if link.Rel == approveLinkRel || link.Rel == payerActionLinkRel {
			outcome.RedirectURL = link.Href

			break
		}
	}

	return outcome
}

func captureID(resp *paypal.CaptureOrderResponse) string {
	for _, unit := range resp.PurchaseUnits {
		if unit.Payments == nil {
			continue
		}
		for _, capture := range unit.Payments.Captures {
			if capture.ID != "" {
				return capture.ID
			}
		}
	}

	return resp.ID
}
