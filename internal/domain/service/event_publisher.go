package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/entity"
)

// OrderEvent is emitted when a checkout attempt settles.
type OrderEvent struct {
	RequestID     string               `json:"request_id,omitempty"` // For distributed tracing
	SessionID     string               `json:"session_id"`
	Identity      string               `json:"identity"`
	OrderID       int64                `json:"order_id"`
	OrderNumber   string               `json:"order_number,omitempty"`
	State         entity.CheckoutState `json:"state"`
	PaymentMethod entity.PaymentMethod `json:"payment_method"`
	Total         decimal.Decimal      `json:"total"`
	Currency      string               `json:"currency,omitempty"`
	TransactionID string               `json:"transaction_id,omitempty"`
	ErrorCode     string               `json:"error_code,omitempty"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishOrderEvent publishes a settled checkout attempt
	PublishOrderEvent(ctx context.Context, event *OrderEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
