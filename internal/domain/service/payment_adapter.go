package service

import (
	"context"

	"storefront/internal/domain/entity"
)

// PaymentAdapter bridges the checkout orchestrator to one payment gateway SDK.
type PaymentAdapter interface {
	// Flow returns the confirmation flow the adapter implements.
	Flow() entity.PaymentFlow

	// Begin starts or resumes a payment for an order and reports what the gateway said.
	// An error is returned only when the gateway could not be reached.
	Begin(ctx context.Context, req *entity.PaymentRequest) (entity.PaymentOutcome, error)
}
