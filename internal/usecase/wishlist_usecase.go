package usecase

import (
	"storefront/internal/domain/entity"
)

// WishlistUsecase persists one wishlist per identity. A wishlist is a set keyed by product ID.
type WishlistUsecase interface {
	// Items returns the wishlist of identity.
	Items(identity entity.Identity) []entity.WishlistItem

	// Add saves item unless its product is already present.
	Add(identity entity.Identity, item entity.WishlistItem) []entity.WishlistItem

	// Remove drops productID from the wishlist.
	Remove(identity entity.Identity, productID int64) []entity.WishlistItem

	// Contains reports whether productID is saved.
	Contains(identity entity.Identity, productID int64) bool

	// Clear empties the wishlist of identity.
	Clear(identity entity.Identity)

	// Migrate merges the wishlist of from into to: the items of to come first, followed by
	// every item of from whose product is not already present. A guest source is cleared.
	Migrate(from, to entity.Identity)
}
