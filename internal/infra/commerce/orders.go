package commerce

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"storefront/internal/domain/entity"
)

func orderPath(orderID int64) string {
	return wcPathPrefix + "/orders/" + strconv.FormatInt(orderID, 10)
}

// CreateOrder creates a new order from the draft.
func (c *client) CreateOrder(ctx context.Context, draft *entity.OrderDraft) (*entity.CheckoutOrder, error) {
	var order entity.CheckoutOrder
	if err := c.do(ctx, http.MethodPost, wcPathPrefix+"/orders", nil, newCreateOrderRequest(draft), &order); err != nil {
		return nil, err
	}

	c.logger.Info("Order created",
		slog.Int64("order_id", order.ID),
		slog.String("status", string(order.Status)),
		slog.String("payment_method", string(draft.PaymentMethod)),
	)

	return &order, nil
}

// UpdateOrderStatus sets the order status and records note as an order note.
// A failed note is logged only; the status change is what callers depend on.
func (c *client) UpdateOrderStatus(ctx context.Context, orderID int64, status entity.OrderStatus, note string) (*entity.CheckoutOrder, error) {
	var order entity.CheckoutOrder
	if err := c.do(ctx, http.MethodPut, orderPath(orderID), nil, updateOrderRequest{Status: status}, &order); err != nil {
		return nil, err
	}

	if note != "" {
		if err := c.do(ctx, http.MethodPost, orderPath(orderID)+"/notes", nil, orderNoteRequest{Note: note}, nil); err != nil {
			c.logger.Warn("Failed to add order note",
				slog.Int64("order_id", orderID),
				slog.Any("error", err),
			)
		}
	}

	return &order, nil
}

// GetOrder reads the authoritative order record.
func (c *client) GetOrder(ctx context.Context, orderID int64) (*entity.CheckoutOrder, error) {
	var order entity.CheckoutOrder
	if err := c.do(ctx, http.MethodGet, orderPath(orderID), nil, nil, &order); err != nil {
		return nil, err
	}

	return &order, nil
}
