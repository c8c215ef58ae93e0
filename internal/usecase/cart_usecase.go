// Package usecase contains the application-specific business rules.
package usecase

import (
	"storefront/internal/domain/entity"
)

// AddItemInput describes a product the shopper puts into the cart.
type AddItemInput struct {
	ProductID   int64  `json:"productId" validate:"required,gt=0"`
	VariationID int64  `json:"variationId" validate:"gte=0"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
	Name        string `json:"name" validate:"required"`
	UnitPrice   string `json:"unitPrice" validate:"required,numeric"`
	ImageURL    string `json:"imageUrl"`
	Slug        string `json:"slug"`
}

// CartUsecase persists one cart per identity inside a browser session.
// Reads and writes under one identity never touch another identity's entries.
type CartUsecase interface {
	// GetToken returns the cart token of identity, if one was issued.
	GetToken(identity entity.Identity) (entity.CartToken, bool)

	// SetToken stores token for identity. Tokens of another namespace are refused.
	SetToken(identity entity.Identity, token entity.CartToken) error

	// Clear removes the token, items, shipping selection and applied coupons of identity.
	Clear(identity entity.Identity)

	// GetItems returns the stored items of identity. A corrupt entry is dropped and reads as empty.
	GetItems(identity entity.Identity) []entity.CartItem

	// SaveItems replaces the stored items of identity.
	SaveItems(identity entity.Identity, items []entity.CartItem)

	// GenerateToken creates a fresh token in the namespace of identity.
	GenerateToken(identity entity.Identity) entity.CartToken

	// IsValidToken reports whether token has the {guest|user-<id>}-{timestamp}-{random} shape.
	IsValidToken(token entity.CartToken) bool

	// Migrate moves the cart of from into to, replacing whatever to held.
	// The source entry is cleared when from is a guest. The destination gets a new
	// cart token, so coupons applied under the old token do not follow the items.
	// Returns the items held by to afterwards.
	Migrate(from, to entity.Identity) []entity.CartItem

	// AddItem adds the product, merging quantities with an existing line of the same key.
	AddItem(identity entity.Identity, input *AddItemInput) ([]entity.CartItem, error)

	// RemoveItem drops the line with key.
	RemoveItem(identity entity.Identity, key string) []entity.CartItem

	// SetQuantity updates the quantity of a line. A quantity of zero or less removes it.
	SetQuantity(identity entity.Identity, key string, quantity int) ([]entity.CartItem, error)

	// SetShipping stores the shipping selection. Nil clears it.
	SetShipping(identity entity.Identity, selection *entity.ShippingSelection)

	// GetShipping returns the stored shipping selection, if any.
	GetShipping(identity entity.Identity) *entity.ShippingSelection

	// Summary returns items, totals and applied coupons of identity.
	Summary(identity entity.Identity) *entity.CartSummary
}
