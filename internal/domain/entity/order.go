package entity

import (
	"github.com/shopspring/decimal"
)

// OrderStatus is the WooCommerce order status. The backend value is authoritative.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusOnHold     OrderStatus = "on-hold"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusFailed     OrderStatus = "failed"
)

// IsPaid reports whether the backend considers the order settled or accepted for fulfilment.
func (s OrderStatus) IsPaid() bool {
	return s == OrderStatusProcessing || s == OrderStatusCompleted || s == OrderStatusOnHold
}

// PaymentMethod identifies a WooCommerce payment gateway.
type PaymentMethod string

const (
	PaymentMethodStripe PaymentMethod = "stripe"
	PaymentMethodPayPal PaymentMethod = "paypal"
	PaymentMethodPPCP   PaymentMethod = "ppcp-gateway"
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodBACS   PaymentMethod = "bacs"
	PaymentMethodCheque PaymentMethod = "cheque"
)

// PaymentFlow groups payment methods by how they are confirmed.
type PaymentFlow int

const (
	PaymentFlowUnknown PaymentFlow = iota
	PaymentFlowCard                // Card confirmation through a payment intent.
	PaymentFlowRedirect            // Redirect/approval at the gateway.
	PaymentFlowOffline             // No confirmation step (cash on delivery, bank transfer).
)

// Flow returns the confirmation flow used by the payment method.
func (m PaymentMethod) Flow() PaymentFlow {
	switch m {
	case PaymentMethodStripe:
		return PaymentFlowCard
	case PaymentMethodPayPal, PaymentMethodPPCP:
		return PaymentFlowRedirect
	case PaymentMethodCOD, PaymentMethodBACS, PaymentMethodCheque:
		return PaymentFlowOffline
	default:
		return PaymentFlowUnknown
	}
}

// Address is a billing or shipping address in WooCommerce shape.
type Address struct {
	FirstName string `json:"first_name" validate:"notblank"`
	LastName  string `json:"last_name" validate:"notblank"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address_1" validate:"notblank"`
	Address2  string `json:"address_2,omitempty"`
	City      string `json:"city" validate:"notblank"`
	State     string `json:"state" validate:"notblank"`
	Postcode  string `json:"postcode" validate:"notblank"`
	Country   string `json:"country" validate:"notblank"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// OrderLineItem is a line of an order draft or order.
type OrderLineItem struct {
	ProductID   int64           `json:"product_id"`
	VariationID int64           `json:"variation_id,omitempty"`
	Quantity    int             `json:"quantity"`
	Name        string          `json:"name,omitempty"`
	Total       decimal.Decimal `json:"total,omitempty"`
}

// CouponLine references an applied coupon code on an order.
type CouponLine struct {
	Code string `json:"code"`
}

// ShippingLine is the shipping method charged on an order.
type ShippingLine struct {
	MethodID    string          `json:"method_id"`
	MethodTitle string          `json:"method_title"`
	Total       decimal.Decimal `json:"total"`
}

// OrderDraft is the payload sent to the backend to create an order.
type OrderDraft struct {
	PaymentMethod      PaymentMethod   `json:"payment_method"`
	PaymentMethodTitle string          `json:"payment_method_title,omitempty"`
	SetPaid            bool            `json:"set_paid"`
	Billing            Address         `json:"billing"`
	Shipping           Address         `json:"shipping"`
	LineItems          []OrderLineItem `json:"line_items"`
	CouponLines        []CouponLine    `json:"coupon_lines"`
	ShippingLines      []ShippingLine  `json:"shipping_lines,omitempty"`
	CustomerNote       string          `json:"customer_note,omitempty"`
	CustomerID         int64           `json:"customer_id"`
}

// CheckoutOrder is the backend-owned order record.
type CheckoutOrder struct {
	ID            int64           `json:"id"`
	Number        string          `json:"number"`
	Status        OrderStatus     `json:"status"`
	Currency      string          `json:"currency"`
	Total         decimal.Decimal `json:"total"`
	Billing       Address         `json:"billing"`
	Shipping      Address         `json:"shipping"`
	LineItems     []OrderLineItem `json:"line_items"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
}

// PaymentGateway is a payment method enabled on the backend.
type PaymentGateway struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
	Order       int    `json:"order"`
}

// ShippingZone is a backend shipping zone.
type ShippingZone struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// ShippingMethod is a method configured inside a shipping zone.
type ShippingMethod struct {
	InstanceID int64           `json:"instance_id"`
	MethodID   string          `json:"method_id"`
	Title      string          `json:"title"`
	Enabled    bool            `json:"enabled"`
	Cost       decimal.Decimal `json:"cost"`
}

// ShippingOption is a zone together with its enabled methods, used to populate forms.
type ShippingOption struct {
	Zone    ShippingZone     `json:"zone"`
	Methods []ShippingMethod `json:"methods"`
}

// Country is a backend country with its states.
type Country struct {
	Code   string         `json:"code"`
	Name   string         `json:"name"`
	States []CountryState `json:"states"`
}

// CountryState is a state or province of a country.
type CountryState struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
