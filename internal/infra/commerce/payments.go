package commerce

import (
	"context"
	"log/slog"
	"net/http"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
)

// CreatePaymentIntent prepares a card payment for an order.
func (c *client) CreatePaymentIntent(ctx context.Context, orderID int64) (*entity.PaymentIntent, error) {
	var intent entity.PaymentIntent
	if err := c.do(ctx, http.MethodPost, storefrontPathPrefix+"/payment-intent", nil, paymentIntentRequest{OrderID: orderID}, &intent); err != nil {
		return nil, err
	}

	if intent.ClientSecret == "" {
		return nil, domainerrors.ErrServer.WithDetails("payment intent response has no client secret")
	}

	return &intent, nil
}

// ConfirmPayment reports a gateway-side success so the backend can settle the order.
func (c *client) ConfirmPayment(ctx context.Context, orderID int64, method entity.PaymentMethod, transactionID string) (*entity.PaymentConfirmation, error) {
	req := confirmPaymentRequest{
		OrderID:       orderID,
		PaymentMethod: method,
		TransactionID: transactionID,
	}

	var confirmation entity.PaymentConfirmation
	if err := c.do(ctx, http.MethodPost, storefrontPathPrefix+"/confirm-payment", nil, req, &confirmation); err != nil {
		return nil, err
	}

	c.logger.Info("Payment confirmation received",
		slog.Int64("order_id", orderID),
		slog.Bool("success", confirmation.Success),
		slog.String("order_status", string(confirmation.OrderStatus)),
	)

	return &confirmation, nil
}
