package entity

import (
	"github.com/shopspring/decimal"
)

// PaymentHandle pairs a checkout order with a gateway-side payment object.
// It exists only between order creation and payment confirmation.
type PaymentHandle struct {
	ClientSecret         string `json:"clientSecret,omitempty"`   // Card flow: payment intent client secret.
	ApprovalHandle       string `json:"approvalHandle,omitempty"` // Redirect flow: gateway order id awaiting approval.
	GatewayTransactionID string `json:"gatewayTransactionId,omitempty"`
}

// PaymentInput is what the shopper supplied on the payment step.
type PaymentInput struct {
	PaymentMethodID string `json:"paymentMethodId,omitempty"` // Card flow: tokenised card from the card element.
	ApprovalID      string `json:"approvalId,omitempty"`      // Redirect flow: gateway order id returned after approval.
	PayerID         string `json:"payerId,omitempty"`         // Redirect flow: payer returned after approval.
	Cancelled       bool   `json:"cancelled,omitempty"`       // Shopper backed out of the gateway UI.
}

// PaymentRequest is everything a payment adapter needs to start or resume a payment.
type PaymentRequest struct {
	OrderID  int64
	Amount   decimal.Decimal
	Currency string
	Billing  Address
	Handle   *PaymentHandle
	Input    PaymentInput
}

// OutcomeKind enumerates what the gateway reported.
type OutcomeKind string

const (
	OutcomeSucceeded      OutcomeKind = "succeeded"
	OutcomeProcessing     OutcomeKind = "processing"
	OutcomeRequiresAction OutcomeKind = "requires_action"
	OutcomeFailed         OutcomeKind = "failed"
	OutcomeCancelled      OutcomeKind = "cancelled"
)

// PaymentOutcome is the gateway-side result of a payment attempt.
type PaymentOutcome struct {
	Kind                 OutcomeKind
	GatewayTransactionID string // Set when Kind is OutcomeSucceeded.
	Reason               string // Human-readable reason for failures or required actions.
	RedirectURL          string // Where the shopper must go to approve or verify.
	ApprovalHandle       string // Gateway-side object awaiting approval.
}

// Succeeded builds a success outcome.
func Succeeded(txnID string) PaymentOutcome {
	return PaymentOutcome{Kind: OutcomeSucceeded, GatewayTransactionID: txnID}
}

// Failed builds a failure outcome.
func Failed(reason string) PaymentOutcome {
	return PaymentOutcome{Kind: OutcomeFailed, Reason: reason}
}

// PaymentIntent is returned by the backend when a card payment is prepared for an order.
type PaymentIntent struct {
	ClientSecret string `json:"clientSecret"`
	IntentID     string `json:"intentId"`
}

// PaymentConfirmation is the backend acknowledgement of a gateway success.
type PaymentConfirmation struct {
	Success     bool        `json:"success"`
	OrderStatus OrderStatus `json:"order_status"`
	OrderNumber string      `json:"order_number"`
	Message     string      `json:"message,omitempty"`
}
