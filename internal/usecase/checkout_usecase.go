package usecase

import (
	"context"

	"storefront/internal/domain/entity"
)

// CheckoutUsecase drives one browser session's checkout attempt from form submission
// to a confirmed order. At most one step runs at a time.
type CheckoutUsecase interface {
	// Submit validates the form, creates the order and starts the payment.
	// It returns once the attempt waits for the shopper or has settled.
	Submit(ctx context.Context, identity entity.Identity, form *entity.CheckoutForm) (*entity.CheckoutStatus, error)

	// ConfirmPayment resumes an attempt waiting for payment with what the shopper supplied.
	// Recoverable payment errors are returned together with the current status.
	ConfirmPayment(ctx context.Context, input entity.PaymentInput) (*entity.CheckoutStatus, error)

	// Cancel abandons an attempt waiting for payment. The backend order is left untouched.
	Cancel(ctx context.Context) (*entity.CheckoutStatus, error)

	// Reconcile re-reads the current order from the backend and settles the attempt
	// when the backend already considers it paid.
	Reconcile(ctx context.Context) (*entity.CheckoutOrder, error)

	// Status returns a snapshot of the attempt.
	Status() entity.CheckoutStatus

	// Form returns the last submitted form so the shopper never has to retype it.
	Form() *entity.CheckoutForm

	// OnSuccess registers a listener called when an attempt completes.
	OnSuccess(listener func(status entity.CheckoutStatus))

	// OnError registers a listener called when an attempt fails.
	OnError(listener func(status entity.CheckoutStatus, err error))
}
