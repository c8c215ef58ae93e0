package impl

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/domain/service"
	"storefront/internal/errors"
	"storefront/internal/usecase"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

type couponService struct {
	store    repository.KVStore
	cart     usecase.CartUsecase
	gateway  service.CommerceGateway
	debounce time.Duration
	logger   *slog.Logger
	now      func() time.Time

	lookups singleflight.Group

	mu      sync.Mutex
	pending chan struct{}
}

// NewCouponService creates the coupon engine of one browser session.
func NewCouponService(
	store repository.KVStore,
	cart usecase.CartUsecase,
	gateway service.CommerceGateway,
	debounce time.Duration,
	logger *slog.Logger,
) usecase.CouponUsecase {
	return &couponService{
		store:    store,
		cart:     cart,
		gateway:  gateway,
		debounce: debounce,
		logger:   logger.With(slog.String("component", "coupon")),
		now:      time.Now,
	}
}

// Validate looks the coupon up and checks it against the current cart.
// Identical lookups in flight share one backend call.
func (s *couponService) Validate(ctx context.Context, identity entity.Identity, code string) (*entity.CouponValidation, error) {
	normalized := entity.NormalizeCouponCode(code)
	if normalized == "" {
		return &entity.CouponValidation{Error: "Please enter a coupon code"}, nil
	}

	result, err, _ := s.lookups.Do(normalized, func() (any, error) {
		return s.gateway.ValidateCoupon(ctx, normalized)
	})
	if err != nil {
		if domainerrors.IsKind(err, domainerrors.KindValidation) {
			return &entity.CouponValidation{Error: domainerrors.UserMessage(err)}, nil
		}

		return nil, err
	}

	info, ok := result.(*entity.CouponInfo)
	if !ok || info == nil {
		return nil, errors.WithStack(domainerrors.ErrServer.WithDetails("empty coupon lookup result"))
	}

	if reason := s.unusableReason(info, subtotalOf(s.cart.GetItems(identity))); reason != "" {
		return &entity.CouponValidation{Error: reason, Coupon: info}, nil
	}

	return &entity.CouponValidation{Valid: true, Coupon: info}, nil
}

func (s *couponService) ValidateDebounced(ctx context.Context, identity entity.Identity, code string) (*entity.CouponValidation, error) {
	mine := make(chan struct{})

	s.mu.Lock()
	if s.pending != nil {
		close(s.pending)
	}
	s.pending = mine
	s.mu.Unlock()

	timer := time.NewTimer(s.debounce)
	defer timer.Stop()

	select {
	case <-mine:
		return nil, domainerrors.ErrSuperseded
	case <-ctx.Done():
		s.release(mine)

		return nil, errors.WithStack(ctx.Err())
	case <-timer.C:
	}

	s.release(mine)

	return s.Validate(ctx, identity, code)
}

// Apply checks for duplicates locally, then has the backend compute the discounts of
// the whole applied set including the new code.
func (s *couponService) Apply(ctx context.Context, identity entity.Identity, code string) ([]entity.AppliedCoupon, error) {
	normalized := entity.NormalizeCouponCode(code)
	if normalized == "" {
		return nil, domainerrors.ErrValidation.WithMessage("Please enter a coupon code")
	}

	items := s.cart.GetItems(identity)
	token := s.cartToken(identity, len(items) > 0)
	state := loadCouponState(s.store, identity, token, s.logger)

	for _, applied := range state.Coupons {
		if entity.NormalizeCouponCode(applied.Code) == normalized {
			return state.Coupons, domainerrors.ErrDuplicateCoupon.WithDetails(normalized)
		}
	}

	if len(items) == 0 {
		return state.Coupons, domainerrors.ErrEmptyCart
	}

	codes := append(codesOf(state.Coupons), normalized)

	computed, err := s.compute(ctx, identity, token, items, codes)
	if err != nil {
		return state.Coupons, err
	}

	s.logger.Debug("Coupon applied", slog.String("code", normalized), slog.Int("applied", len(computed.Coupons)))

	return computed.Coupons, nil
}

// Remove drops the code and replaces the remaining discounts and the tax total with
// the backend's recomputation, also when no coupon is left. The stored set is
// unchanged when the recomputation fails.
func (s *couponService) Remove(ctx context.Context, identity entity.Identity, code string) ([]entity.AppliedCoupon, error) {
	normalized := entity.NormalizeCouponCode(code)
	token, _ := s.cart.GetToken(identity)
	state := loadCouponState(s.store, identity, token, s.logger)

	remaining := make([]string, 0, len(state.Coupons))
	found := false
	for _, applied := range state.Coupons {
		if entity.NormalizeCouponCode(applied.Code) == normalized {
			found = true

			continue
		}
		remaining = append(remaining, applied.Code)
	}
	if !found {
		return state.Coupons, nil
	}

	items := s.cart.GetItems(identity)
	if len(items) == 0 {
		s.Reset(identity)

		return []entity.AppliedCoupon{}, nil
	}

	computed, err := s.compute(ctx, identity, token, items, remaining)
	if err != nil {
		return state.Coupons, err
	}

	return computed.Coupons, nil
}

// Refresh recomputes the applied coupons when the cart changed since the backend
// last computed them. A set the backend no longer accepts is discarded and the
// rejection is returned.
func (s *couponService) Refresh(ctx context.Context, identity entity.Identity) ([]entity.AppliedCoupon, error) {
	token, _ := s.cart.GetToken(identity)
	state := loadCouponState(s.store, identity, token, s.logger)
	if len(state.Coupons) == 0 && state.TaxTotal.IsZero() {
		return []entity.AppliedCoupon{}, nil
	}

	items := s.cart.GetItems(identity)
	if len(items) == 0 {
		s.Reset(identity)

		return []entity.AppliedCoupon{}, nil
	}

	if state.Basis == basisOf(items) {
		return state.Coupons, nil
	}

	computed, err := s.compute(ctx, identity, token, items, codesOf(state.Coupons))
	if err != nil {
		if domainerrors.IsKind(err, domainerrors.KindInvalidCoupon) {
			s.Reset(identity)
			s.logger.Info("Dropped coupons rejected for the edited cart",
				slog.Int("coupons", len(state.Coupons)),
				slog.String("reason", domainerrors.UserMessage(err)),
			)

			return []entity.AppliedCoupon{}, err
		}

		return state.Coupons, err
	}

	return computed.Coupons, nil
}

func (s *couponService) Applied(identity entity.Identity) []entity.AppliedCoupon {
	token, _ := s.cart.GetToken(identity)
	coupons := loadCouponState(s.store, identity, token, s.logger).Coupons
	if coupons == nil {
		return []entity.AppliedCoupon{}
	}

	return coupons
}

func (s *couponService) Reset(identity entity.Identity) {
	s.store.Remove(storageKey(appliedCouponsPrefix, identity))
}

func (s *couponService) compute(
	ctx context.Context,
	identity entity.Identity,
	token entity.CartToken,
	items []entity.CartItem,
	codes []string,
) (*service.CouponComputation, error) {
	computed, err := s.gateway.ApplyCoupons(ctx, &service.CouponCartContext{
		CartToken:  token,
		CustomerID: identity.UserID,
		LineItems:  lineItemsFrom(items),
		Codes:      codes,
	})
	if err != nil {
		if domainerrors.IsKind(err, domainerrors.KindValidation) {
			return nil, domainerrors.ErrInvalidCoupon.WithMessage(domainerrors.UserMessage(err))
		}

		return nil, err
	}

	coupons := computed.Coupons
	if coupons == nil {
		coupons = []entity.AppliedCoupon{}
	}
	saveCouponState(s.store, identity, couponState{
		Token:    token,
		Basis:    basisOf(items),
		Coupons:  coupons,
		TaxTotal: computed.TaxTotal,
	}, s.logger)

	return &service.CouponComputation{Coupons: coupons, TaxTotal: computed.TaxTotal}, nil
}

// cartToken returns the token of the current cart, issuing one when the cart has items
// but no token yet.
func (s *couponService) cartToken(identity entity.Identity, hasItems bool) entity.CartToken {
	if token, ok := s.cart.GetToken(identity); ok || !hasItems {
		return token
	}

	token := s.cart.GenerateToken(identity)
	if err := s.cart.SetToken(identity, token); err != nil {
		s.logger.Warn("Failed to issue cart token", slog.Any("error", err))
	}

	return token
}

func (s *couponService) unusableReason(info *entity.CouponInfo, subtotal decimal.Decimal) string {
	switch {
	case !info.DiscountType.IsKnown():
		return "This coupon type is not supported"
	case info.ExpiresAt != nil && !s.now().Before(*info.ExpiresAt):
		return "This coupon has expired"
	case info.UsageLimit > 0 && info.UsageCount >= info.UsageLimit:
		return "This coupon has reached its usage limit"
	case info.MinimumAmount.IsPositive() && subtotal.LessThan(info.MinimumAmount):
		return fmt.Sprintf("The minimum spend for this coupon is %s", info.MinimumAmount.StringFixed(2))
	case info.MaximumAmount.IsPositive() && subtotal.GreaterThan(info.MaximumAmount):
		return fmt.Sprintf("The maximum spend for this coupon is %s", info.MaximumAmount.StringFixed(2))
	default:
		return ""
	}
}

func codesOf(coupons []entity.AppliedCoupon) []string {
	codes := make([]string, 0, len(coupons)+1)
	for _, applied := range coupons {
		codes = append(codes, applied.Code)
	}

	return codes
}

func (s *couponService) release(mine chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == mine {
		s.pending = nil
	}
}
