package usecase

import (
	"context"
	"time"

	"storefront/internal/domain/entity"
)

// SessionBundle is the set of services bound to one browser session.
type SessionBundle struct {
	ID       string
	Cart     CartUsecase
	Wishlist WishlistUsecase
	Coupons  CouponUsecase
	Checkout CheckoutUsecase
}

// SessionUsecase hands out per-session service bundles and observes identity changes.
type SessionUsecase interface {
	// Session returns the bundle of sessionID, creating it on first use.
	// When identity moves from a guest to an authenticated user, the guest cart and
	// wishlist are migrated to the user before the bundle is returned.
	Session(ctx context.Context, sessionID string, identity entity.Identity) *SessionBundle

	// Evict drops the bundle of sessionID. Stored data is kept.
	Evict(sessionID string)

	// Sweep evicts every bundle idle since before now minus the idle TTL and returns how many were dropped.
	Sweep(now time.Time) int

	// Len returns the number of live bundles.
	Len() int
}
