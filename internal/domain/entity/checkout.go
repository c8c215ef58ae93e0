package entity

import (
	"github.com/shopspring/decimal"
)

// CheckoutState is a state of the checkout orchestrator.
type CheckoutState string

const (
	CheckoutIdle              CheckoutState = "idle"
	CheckoutValidating        CheckoutState = "validating"
	CheckoutCreatingOrder     CheckoutState = "creating_order"
	CheckoutAwaitingPayment   CheckoutState = "awaiting_payment"
	CheckoutConfirmingPayment CheckoutState = "confirming_payment"
	CheckoutCompleted         CheckoutState = "completed"
	CheckoutFailed            CheckoutState = "failed"
	CheckoutCancelled         CheckoutState = "cancelled"
)

// IsTerminal reports whether no further automatic transitions occur from the state.
func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutCompleted || s == CheckoutFailed || s == CheckoutCancelled
}

// IsBusy reports whether the UI must block re-submission.
func (s CheckoutState) IsBusy() bool {
	switch s {
	case CheckoutValidating, CheckoutCreatingOrder, CheckoutConfirmingPayment:
		return true
	default:
		return false
	}
}

// CheckoutForm is the shopper's submitted checkout form.
type CheckoutForm struct {
	Billing            Address            `json:"billing"`
	ShipToDifferent    bool               `json:"shipToDifferentAddress"`
	Shipping           Address            `json:"shipping"`
	PaymentMethod      PaymentMethod      `json:"paymentMethod"`
	PaymentMethodTitle string             `json:"paymentMethodTitle,omitempty"`
	CustomerNote       string             `json:"customerNote,omitempty"`
	ShippingMethod     *ShippingSelection `json:"shippingMethod,omitempty"`
}

// CheckoutStatus is a snapshot of the orchestrator for the confirmation page.
type CheckoutStatus struct {
	State         CheckoutState   `json:"state"`
	OrderID       int64           `json:"orderId,omitempty"`
	OrderNumber   string          `json:"orderNumber,omitempty"`
	PaymentMethod PaymentMethod   `json:"paymentMethod,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency,omitempty"`
	Handle        *PaymentHandle  `json:"payment,omitempty"`
	Message       string          `json:"message,omitempty"`
	RedirectURL   string          `json:"redirectUrl,omitempty"`
	ErrorCode     string          `json:"errorCode,omitempty"`
}
