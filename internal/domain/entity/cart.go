package entity

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// CartToken is an opaque identifier of the form {guest|user-<id>}-{timestamp}-{random}.
// A token always belongs to the identity whose namespace is its first segment.
type CartToken string

// CartItem is a single purchasable variant inside a cart.
type CartItem struct {
	Key         string          `json:"key"`                   // Unique per purchasable variant inside one cart.
	ProductID   int64           `json:"productId"`             // WooCommerce product ID.
	VariationID int64           `json:"variationId,omitempty"` // WooCommerce variation ID, zero for simple products.
	Quantity    int             `json:"quantity"`              // Always >= 1 once stored.
	Name        string          `json:"name"`                  // Display name captured at add-time.
	UnitPrice   decimal.Decimal `json:"unitPrice"`             // Advisory price snapshot captured at add-time.
	ImageURL    string          `json:"imageUrl,omitempty"`    // Product thumbnail.
	Slug        string          `json:"slug,omitempty"`        // Product slug for links.
}

// ItemKey derives the cart key of a product/variation pair.
func ItemKey(productID, variationID int64) string {
	if variationID == 0 {
		return strconv.FormatInt(productID, 10)
	}

	return strconv.FormatInt(productID, 10) + ":" + strconv.FormatInt(variationID, 10)
}

// LineTotal returns the advisory price of the line.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ShippingSelection is the shipping method the shopper picked for the cart.
type ShippingSelection struct {
	MethodID string          `json:"methodId"`
	Title    string          `json:"title"`
	Total    decimal.Decimal `json:"total"`
}

// CartSummary is what the rest of the application sees of a cart.
type CartSummary struct {
	Token          CartToken          `json:"token,omitempty"`
	Items          []CartItem         `json:"items"`
	Totals         CartTotals         `json:"totals"`
	AppliedCoupons []AppliedCoupon    `json:"appliedCoupons"`
	Shipping       *ShippingSelection `json:"shipping,omitempty"`
	IsHydrated     bool               `json:"isHydrated"` // Storage has been read at least once for this identity.
}
