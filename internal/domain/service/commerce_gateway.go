// Package service defines the contracts of external collaborators used by the use cases.
package service

import (
	"context"

	"storefront/internal/domain/entity"

	"github.com/shopspring/decimal"
)

// CouponCartContext describes the cart a coupon computation applies to.
type CouponCartContext struct {
	CartToken  entity.CartToken
	CustomerID int64
	LineItems  []entity.OrderLineItem
	Codes      []string // Codes that must be applied, in application order.
}

// CouponComputation is the backend's answer to a coupon apply or recompute call.
type CouponComputation struct {
	Coupons  []entity.AppliedCoupon
	TaxTotal decimal.Decimal
}

// CommerceGateway is the single chokepoint for every remote commerce call.
// Errors are classified as NetworkError, ValidationError (HTTP 4xx) or ServerError (5xx, malformed body).
type CommerceGateway interface {
	// CreateOrder creates a new order from the draft.
	CreateOrder(ctx context.Context, draft *entity.OrderDraft) (*entity.CheckoutOrder, error)

	// UpdateOrderStatus moves an order to status and records note on it.
	UpdateOrderStatus(ctx context.Context, orderID int64, status entity.OrderStatus, note string) (*entity.CheckoutOrder, error)

	// GetOrder reads the authoritative order record.
	GetOrder(ctx context.Context, orderID int64) (*entity.CheckoutOrder, error)

	// GetPaymentGateways lists payment gateways configured on the backend.
	GetPaymentGateways(ctx context.Context) ([]entity.PaymentGateway, error)

	// GetShippingZones lists shipping zones.
	GetShippingZones(ctx context.Context) ([]entity.ShippingZone, error)

	// GetShippingMethods lists the methods of a shipping zone.
	GetShippingMethods(ctx context.Context, zoneID int64) ([]entity.ShippingMethod, error)

	// GetCountries lists countries and their states.
	GetCountries(ctx context.Context) ([]entity.Country, error)

	// ValidateCoupon looks a coupon up without applying it.
	ValidateCoupon(ctx context.Context, code string) (*entity.CouponInfo, error)

	// ApplyCoupons computes the discounts of the given codes against the cart.
	// A rejected code fails the whole call with a ValidationError.
	ApplyCoupons(ctx context.Context, cart *CouponCartContext) (*CouponComputation, error)

	// CreatePaymentIntent prepares a card payment scoped to an order.
	CreatePaymentIntent(ctx context.Context, orderID int64) (*entity.PaymentIntent, error)

	// ConfirmPayment reports a gateway-side success to the backend.
	ConfirmPayment(ctx context.Context, orderID int64, method entity.PaymentMethod, transactionID string) (*entity.PaymentConfirmation, error)
}
