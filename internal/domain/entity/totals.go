package entity

import (
	"github.com/shopspring/decimal"
)

// CartTotals is derived from items, applied coupons and the shipping selection.
type CartTotals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discountTotal"`
	TaxTotal      decimal.Decimal `json:"taxTotal"`
	ShippingTotal decimal.Decimal `json:"shippingTotal"`
	Total         decimal.Decimal `json:"total"`
}

// ComputeTotals recomputes the cart totals.
// total = subtotal - discountTotal + taxTotal + shippingTotal, never negative.
func ComputeTotals(items []CartItem, coupons []AppliedCoupon, shipping *ShippingSelection, taxTotal decimal.Decimal) CartTotals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}

	discount := decimal.Zero
	for _, coupon := range coupons {
		discount = discount.Add(coupon.DiscountTotal)
	}

	shippingTotal := decimal.Zero
	if shipping != nil {
		shippingTotal = shipping.Total
	}

	total := subtotal.Sub(discount).Add(taxTotal).Add(shippingTotal)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return CartTotals{
		Subtotal:      subtotal.Round(2),
		DiscountTotal: discount.Round(2),
		TaxTotal:      taxTotal.Round(2),
		ShippingTotal: shippingTotal.Round(2),
		Total:         total.Round(2),
	}
}
