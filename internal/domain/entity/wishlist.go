package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// WishlistItem is a product saved for later. Wishlists are sets keyed by product ID.
type WishlistItem struct {
	ProductID int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageURL  string          `json:"imageUrl,omitempty"`
	Slug      string          `json:"slug,omitempty"`
	AddedAt   time.Time       `json:"addedAt"`
}
