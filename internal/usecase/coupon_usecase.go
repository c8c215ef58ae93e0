package usecase

import (
	"context"

	"storefront/internal/domain/entity"
)

// CouponUsecase validates and applies coupons to the cart of an identity.
// Applied coupons belong to the cart token they were applied to.
type CouponUsecase interface {
	// Validate looks the code up without changing any state.
	// An unknown or unusable coupon yields Valid=false, not an error.
	Validate(ctx context.Context, identity entity.Identity, code string) (*entity.CouponValidation, error)

	// ValidateDebounced waits for the debounce window and validates the code,
	// unless a newer call arrived in the meantime, in which case it returns ErrSuperseded.
	ValidateDebounced(ctx context.Context, identity entity.Identity, code string) (*entity.CouponValidation, error)

	// Apply adds the code to the applied set using the discounts computed by the backend.
	Apply(ctx context.Context, identity entity.Identity, code string) ([]entity.AppliedCoupon, error)

	// Remove drops the code and has the backend recompute the remaining coupons.
	Remove(ctx context.Context, identity entity.Identity, code string) ([]entity.AppliedCoupon, error)

	// Refresh has the backend recompute the applied coupons after a cart edit.
	// A set the backend rejects for the new cart is dropped and the rejection returned.
	Refresh(ctx context.Context, identity entity.Identity) ([]entity.AppliedCoupon, error)

	// Applied returns the coupons applied to the current cart of identity.
	Applied(identity entity.Identity) []entity.AppliedCoupon

	// Reset discards every applied coupon of identity.
	Reset(identity entity.Identity)
}
