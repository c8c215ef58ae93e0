package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType enumerates the WooCommerce coupon discount strategies.
type DiscountType string

const (
	DiscountPercent      DiscountType = "percent"
	DiscountFixedCart    DiscountType = "fixed_cart"
	DiscountFixedProduct DiscountType = "fixed_product"
)

// IsKnown reports whether the backend returned a supported discount type.
func (t DiscountType) IsKnown() bool {
	switch t {
	case DiscountPercent, DiscountFixedCart, DiscountFixedProduct:
		return true
	default:
		return false
	}
}

// AppliedCoupon is a coupon accepted by the backend for the current cart.
// DiscountTotal and DiscountTax are always values computed by the backend.
type AppliedCoupon struct {
	Code          string          `json:"code"`
	DiscountType  DiscountType    `json:"discountType"`
	Amount        decimal.Decimal `json:"amount"`
	DiscountTotal decimal.Decimal `json:"discountTotal"`
	DiscountTax   decimal.Decimal `json:"discountTax"`
}

// CouponInfo is the read-only view of a coupon used for live validation feedback.
type CouponInfo struct {
	Code          string          `json:"code"`
	DiscountType  DiscountType    `json:"discountType"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description,omitempty"`
	MinimumAmount decimal.Decimal `json:"minimumAmount"`
	MaximumAmount decimal.Decimal `json:"maximumAmount"`
	ExpiresAt     *time.Time      `json:"expiresAt,omitempty"`
	UsageLimit    int             `json:"usageLimit,omitempty"` // Zero means unlimited.
	UsageCount    int             `json:"usageCount"`
}

// CouponValidation is the result of a pure coupon lookup.
type CouponValidation struct {
	Valid  bool        `json:"valid"`
	Error  string      `json:"error,omitempty"`
	Coupon *CouponInfo `json:"coupon,omitempty"`
}

// NormalizeCouponCode lower-cases and trims a code the way WooCommerce stores it.
func NormalizeCouponCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
