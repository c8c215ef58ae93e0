package impl

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/service"
	mockservice "storefront/internal/mocks/service"
	"storefront/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type couponFixture struct {
	cart    usecase.CartUsecase
	coupons usecase.CouponUsecase
	gateway *mockservice.MockCommerceGateway
}

func newCouponFixture(t *testing.T, debounce time.Duration) *couponFixture {
	store := newTestStore()
	cart := NewCartService(store, discardLogger())
	gateway := mockservice.NewMockCommerceGateway(t)

	return &couponFixture{
		cart:    cart,
		coupons: NewCouponService(store, cart, gateway, debounce, discardLogger()),
		gateway: gateway,
	}
}

func codesAre(codes ...string) any {
	return mock.MatchedBy(func(c *service.CouponCartContext) bool {
		if len(codes) == 0 {
			return len(c.Codes) == 0
		}

		return assert.ObjectsAreEqual(codes, c.Codes)
	})
}

func percentOff(code, discount string) entity.AppliedCoupon {
	return entity.AppliedCoupon{
		Code:          code,
		DiscountType:  entity.DiscountPercent,
		Amount:        decimal.NewFromInt(10),
		DiscountTotal: decimal.RequireFromString(discount),
		DiscountTax:   decimal.Zero,
	}
}

func quantityIs(quantity int) any {
	return mock.MatchedBy(func(c *service.CouponCartContext) bool {
		return len(c.LineItems) == 1 && c.LineItems[0].Quantity == quantity
	})
}

func fixedCart(code, amount string) entity.AppliedCoupon {
	return entity.AppliedCoupon{
		Code:          code,
		DiscountType:  entity.DiscountFixedCart,
		Amount:        decimal.RequireFromString(amount),
		DiscountTotal: decimal.RequireFromString(amount),
		DiscountTax:   decimal.Zero,
	}
}

func TestCouponService_ApplyRejectsDuplicateWithoutNetwork(t *testing.T) {
	f := newCouponFixture(t, time.Millisecond)
	guest := entity.Guest()
	addItem(t, f.cart, guest, 1, 1, "50.00")

	f.gateway.On("ApplyCoupons", mock.Anything, codesAre("save10")).
		Return(&service.CouponComputation{Coupons: []entity.AppliedCoupon{fixedCart("save10", "10")}}, nil).
		Once()

	applied, err := f.coupons.Apply(context.Background(), guest, "SAVE10")
	require.NoError(t, err)
	require.Len(t, applied, 1)

	applied, err = f.coupons.Apply(context.Background(), guest, "SAVE10")
	assert.True(t, domainerrors.IsKind(err, domainerrors.KindDuplicateCoupon))
	assert.Len(t, applied, 1)
	assert.Len(t, f.coupons.Applied(guest), 1)
	f.gateway.AssertNumberOfCalls(t, "ApplyCoupons", 1)
}

func TestCouponService_FixedCartRoundTrip(t *testing.T) {
	f := newCouponFixture(t, time.Millisecond)
	guest := entity.Guest()
	addItem(t, f.cart, guest, 1, 2, "10.00")
	require.Equal(t, "20.00", f.cart.Summary(guest).Totals.Total.StringFixed(2))

	f.gateway.On("ApplyCoupons", mock.Anything, codesAre("five")).
		Return(&service.CouponComputation{Coupons: []entity.AppliedCoupon{fixedCart("five", "5.00")}, TaxTotal: decimal.Zero}, nil).
		Once()

	_, err := f.coupons.Apply(context.Background(), guest, "five")
	require.NoError(t, err)
	assert.Equal(t, "15.00", f.cart.Summary(guest).Totals.Total.StringFixed(2))

	f.gateway.On("ApplyCoupons", mock.Anything, codesAre()).
		Return(&service.CouponComputation{Coupons: []entity.AppliedCoupon{}, TaxTotal: decimal.Zero}, nil).
		Once()

	remaining, err := f.coupons.Remove(context.Background(), guest, "FIVE")
	require.NoError(t, err)
	assert.Empty(t, remaining)
	assert.Equal(t, "20.00", f.cart.Summary(guest).Totals.Total.StringFixed(2))
}

func TestCouponService_RemoveRecomputesRemaining(t *testing.T) {
	f := newCouponFixture(t, time.Millisecond)
	guest := entity.Guest()
	addItem(t, f.cart, guest, 1, 1, "100.00")

	f.gateway.On("ApplyCoupons", mock.Anything, codesAre("a")).
		Return(&service.CouponComputation{Coupons: []entity.AppliedCoupon{fixedCart("a", "10")}}, nil).Once()
	f.gateway.On("ApplyCoupons", mock.Anything, codesAre("a", "b")).
		Return(&service.CouponComputation{Coupons: []entity.AppliedCoupon{fixedCart("a", "8"), fixedCart("b", "5")}}, nil).Once()
	f.gateway.On("ApplyCoupons", mock.Anything, codesAre("b")).
		Return(&service.CouponComputation{Coupons: []entity.AppliedCoupon{fixedCart("b", "6")}}, nil).Once()

	_, err := f.coupons.Apply(context.Background(), guest, "a")
	require.NoError(t, err)
	_, err = f.coupons.Apply(context.Background(), guest, "b")
	require.NoError(t, err)

	remaining, err := f.coupons.Remove(context.Background(), guest, "a")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "6", remaining[0].DiscountTotal.String())
	assert.Equal(t, "94.00", f.cart.Summary(guest).Totals.Total.StringFixed(2))
}

func TestCouponService_RemovingLastCouponAsksBackendForTotals(t *testing.T) {
	f := newCouponFixture(t, time.Millisecond)
	guest := entity.Guest()
	addItem(t, f.cart, guest, 1, 1, "40.00")

	f.gateway.On("ApplyCoupons", mock.Anything, codesAre("five")).
		Return(&service.CouponComputation{Coupons: []entity.AppliedCoupon{fixedCart("five", "5")}, TaxTotal: decimal.RequireFromString("3.15")}, nil).
		Once()
	f.gateway.On("ApplyCoupons", mock.Anything, codesAre()).
		Return(&service.CouponComputation{Coupons: []entity.AppliedCoupon{}, TaxTotal: decimal.RequireFromString("3.60")}, nil).
		Once()

	_, err := f.coupons.Apply(context.Background(), guest, "five")
	require.NoError(t, err)

	remaining, err := f.coupons.Remove(context.Background(), guest, "five")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	totals := f.cart.Summary(guest).Totals
	assert.Equal(t, "3.60", totals.TaxTotal.StringFixed(2))
	assert.Equal(t, "43.60", totals.Total.StringFixed(2))
	f.gateway.AssertNumberOfCalls(t, "ApplyCoupons", 2)
}

func TestCouponService_RemoveKeepsSetWhenRecomputeFails(t *testing.T) {
	f := newCouponFixture(t, time.Millisecond)
	guest := entity.Guest()
	addItem(t, f.cart, guest, 1, 1, "40.00")

	f.gateway.On("ApplyCoupons", mock.Anything, codesAre("five")).
		Return(&service.CouponComputation{Coupons: []entity.AppliedCoupon{fixedCart("five", "5")}}, nil).Once()
	f.gateway.On("ApplyCoupons", mock.Anything, codesAre()).Return(nil, domainerrors.ErrNetwork).Once()

	_, err := f.coupons.Apply(context.Background(), guest, "five")
	require.NoError(t, err)

	remaining, err := f.coupons.Remove(context.Background(), guest, "five")
	assert.True(t, domainerrors.IsKind(err, domainerrors.KindNetwork))
	assert.Len(t, remaining, 1)
	assert.Len(t, f.coupons.Applied(guest), 1)
}

func TestCouponService_RefreshFollowsCartEdits(t *testing.T) {
	f := newCouponFixture(t, time.Millisecond)
	guest := entity.Guest()
	addItem(t, f.cart, guest, 1, 1, "20.00")

	f.gateway.On("ApplyCoupons", mock.Anything, quantityIs(1)).
		Return(&service.CouponComputation{Coupons: []entity.AppliedCoupon{percentOff("ten", "2.00")}}, nil).Once()
	f.gateway.On("ApplyCoupons", mock.Anything, quantityIs(5)).
		Return(&service.CouponComputation{Coupons: []entity.AppliedCoupon{percentOff("ten", "10.00")}}, nil).Once()

	_, err := f.coupons.Apply(context.Background(), guest, "ten")
	require.NoError(t, err)

	unchanged, err := f.coupons.Refresh(context.Background(), guest)
	require.NoError(t, err)
	assert.Equal(t, "2", unchanged[0].DiscountTotal.String())

	_, err = f.cart.SetQuantity(guest, entity.ItemKey(1, 0), 5)
	require.NoError(t, err)

	refreshed, err := f.coupons.Refresh(context.Background(), guest)
	require.NoError(t, err)
	require.Len(t, refreshed, 1)

	totals := f.cart.Summary(guest).Totals
	assert.Equal(t, "100.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "10.00", totals.DiscountTotal.StringFixed(2))
	assert.Equal(t, "90.00", totals.Total.StringFixed(2))

	_, err = f.coupons.Refresh(context.Background(), guest)
	require.NoError(t, err)
	f.gateway.AssertNumberOfCalls(t, "ApplyCoupons", 2)
}

func TestCouponService_RefreshDropsRejectedSet(t *testing.T) {
	f := newCouponFixture(t, time.Millisecond)
	guest := entity.Guest()
	addItem(t, f.cart, guest, 1, 3, "20.00")

	f.gateway.On("ApplyCoupons", mock.Anything, quantityIs(3)).
		Return(&service.CouponComputation{Coupons: []entity.AppliedCoupon{fixedCart("big", "10")}}, nil).Once()
	f.gateway.On("ApplyCoupons", mock.Anything, quantityIs(1)).
		Return(nil, domainerrors.ErrValidation.WithMessage("The minimum spend for this coupon is 50.00")).Once()

	_, err := f.coupons.Apply(context.Background(), guest, "big")
	require.NoError(t, err)

	_, err = f.cart.SetQuantity(guest, entity.ItemKey(1, 0), 1)
	require.NoError(t, err)

	applied, err := f.coupons.Refresh(context.Background(), guest)
	assert.True(t, domainerrors.IsKind(err, domainerrors.KindInvalidCoupon))
	assert.Equal(t, "The minimum spend for this coupon is 50.00", domainerrors.UserMessage(err))
	assert.Empty(t, applied)
	assert.Empty(t, f.coupons.Applied(guest))
	assert.Equal(t, "20.00", f.cart.Summary(guest).Totals.Total.StringFixed(2))
}

func TestCouponService_RefreshKeepsSetOnNetworkError(t *testing.T) {
	f := newCouponFixture(t, time.Millisecond)
	guest := entity.Guest()
	addItem(t, f.cart, guest, 1, 1, "20.00")

	f.gateway.On("ApplyCoupons", mock.Anything, quantityIs(1)).
		Return(&service.CouponComputation{Coupons: []entity.AppliedCoupon{percentOff("ten", "2.00")}}, nil).Once()
	f.gateway.On("ApplyCoupons", mock.Anything, quantityIs(2)).Return(nil, domainerrors.ErrNetwork).Once()

	_, err := f.coupons.Apply(context.Background(), guest, "ten")
	require.NoError(t, err)
	addItem(t, f.cart, guest, 1, 1, "20.00")

	applied, err := f.coupons.Refresh(context.Background(), guest)
	assert.True(t, domainerrors.IsKind(err, domainerrors.KindNetwork))
	assert.Len(t, applied, 1)
	assert.Len(t, f.coupons.Applied(guest), 1)
}

func TestCouponService_ApplyClassifiesBackendErrors(t *testing.T) {
	t.Run("rejected coupon", func(t *testing.T) {
		f := newCouponFixture(t, time.Millisecond)
		addItem(t, f.cart, entity.Guest(), 1, 1, "5.00")
		f.gateway.On("ApplyCoupons", mock.Anything, mock.Anything).
			Return(nil, domainerrors.ErrValidation.WithMessage("Coupon usage limit has been reached.")).Once()

		_, err := f.coupons.Apply(context.Background(), entity.Guest(), "used")
		assert.True(t, domainerrors.IsKind(err, domainerrors.KindInvalidCoupon))
		assert.Equal(t, "Coupon usage limit has been reached.", domainerrors.UserMessage(err))
		assert.Empty(t, f.coupons.Applied(entity.Guest()))
	})

	t.Run("network failure", func(t *testing.T) {
		f := newCouponFixture(t, time.Millisecond)
		addItem(t, f.cart, entity.Guest(), 1, 1, "5.00")
		f.gateway.On("ApplyCoupons", mock.Anything, mock.Anything).Return(nil, domainerrors.ErrNetwork).Once()

		_, err := f.coupons.Apply(context.Background(), entity.Guest(), "any")
		assert.True(t, domainerrors.IsKind(err, domainerrors.KindNetwork))
	})
}

func TestCouponService_ApplyOnEmptyCart(t *testing.T) {
	f := newCouponFixture(t, time.Millisecond)

	_, err := f.coupons.Apply(context.Background(), entity.Guest(), "save10")
	assert.True(t, domainerrors.IsKind(err, domainerrors.KindEmptyCart))
	f.gateway.AssertNotCalled(t, "ApplyCoupons", mock.Anything, mock.Anything)
}

func TestCouponService_StateFollowsCartToken(t *testing.T) {
	f := newCouponFixture(t, time.Millisecond)
	guest := entity.Guest()
	addItem(t, f.cart, guest, 1, 1, "30.00")
	f.gateway.On("ApplyCoupons", mock.Anything, codesAre("ten")).
		Return(&service.CouponComputation{Coupons: []entity.AppliedCoupon{fixedCart("ten", "10")}}, nil).Once()

	_, err := f.coupons.Apply(context.Background(), guest, "ten")
	require.NoError(t, err)
	require.Len(t, f.coupons.Applied(guest), 1)

	f.cart.Clear(guest)
	addItem(t, f.cart, guest, 1, 1, "30.00")

	assert.Empty(t, f.coupons.Applied(guest))
	assert.Equal(t, "30.00", f.cart.Summary(guest).Totals.Total.StringFixed(2))
}

func TestCouponService_Validate(t *testing.T) {
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name      string
		info      *entity.CouponInfo
		lookupErr error
		wantValid bool
		wantError string
	}{
		{
			name:      "valid",
			info:      &entity.CouponInfo{Code: "ok", DiscountType: entity.DiscountPercent, Amount: decimal.NewFromInt(10)},
			wantValid: true,
		},
		{
			name:      "unknown",
			lookupErr: domainerrors.ErrValidation.WithMessage(`Coupon "nope" does not exist`),
			wantError: `Coupon "nope" does not exist`,
		},
		{
			name:      "expired",
			info:      &entity.CouponInfo{Code: "old", DiscountType: entity.DiscountPercent, ExpiresAt: &past},
			wantError: "This coupon has expired",
		},
		{
			name:      "usage limit",
			info:      &entity.CouponInfo{Code: "used", DiscountType: entity.DiscountFixedCart, UsageLimit: 5, UsageCount: 5},
			wantError: "This coupon has reached its usage limit",
		},
		{
			name:      "minimum spend",
			info:      &entity.CouponInfo{Code: "big", DiscountType: entity.DiscountFixedCart, MinimumAmount: decimal.NewFromInt(100)},
			wantError: "The minimum spend for this coupon is 100.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCouponFixture(t, time.Millisecond)
			addItem(t, f.cart, entity.Guest(), 1, 2, "20.00")
			f.gateway.On("ValidateCoupon", mock.Anything, "code").Return(tt.info, tt.lookupErr).Once()

			result, err := f.coupons.Validate(context.Background(), entity.Guest(), " CODE ")
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, result.Valid)
			assert.Equal(t, tt.wantError, result.Error)
		})
	}
}

func TestCouponService_ValidateNetworkErrorIsReturned(t *testing.T) {
	f := newCouponFixture(t, time.Millisecond)
	f.gateway.On("ValidateCoupon", mock.Anything, "code").Return(nil, domainerrors.ErrNetwork).Once()

	_, err := f.coupons.Validate(context.Background(), entity.Guest(), "code")
	assert.True(t, domainerrors.IsKind(err, domainerrors.KindNetwork))
}

func TestCouponService_ValidateEmptyCodeSkipsLookup(t *testing.T) {
	f := newCouponFixture(t, time.Millisecond)

	result, err := f.coupons.Validate(context.Background(), entity.Guest(), "   ")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	f.gateway.AssertNotCalled(t, "ValidateCoupon", mock.Anything, mock.Anything)
}

func TestCouponService_ConcurrentValidationsShareLookup(t *testing.T) {
	f := newCouponFixture(t, time.Millisecond)
	release := make(chan struct{})
	var lookups atomic.Int32

	f.gateway.On("ValidateCoupon", mock.Anything, "shared").
		Run(func(mock.Arguments) {
			lookups.Add(1)
			<-release
		}).
		Return(&entity.CouponInfo{Code: "shared", DiscountType: entity.DiscountPercent}, nil)

	var wg sync.WaitGroup
	results := make([]*entity.CouponValidation, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = f.coupons.Validate(context.Background(), entity.Guest(), "shared")
		}()
	}

	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), lookups.Load())
	for _, result := range results {
		require.NotNil(t, result)
		assert.True(t, result.Valid)
	}
}

func TestCouponService_ValidateDebouncedSupersedesOlderCalls(t *testing.T) {
	f := newCouponFixture(t, 200*time.Millisecond)
	f.gateway.On("ValidateCoupon", mock.Anything, "second").
		Return(&entity.CouponInfo{Code: "second", DiscountType: entity.DiscountPercent}, nil).Once()

	firstErr := make(chan error, 1)
	go func() {
		_, err := f.coupons.ValidateDebounced(context.Background(), entity.Guest(), "first")
		firstErr <- err
	}()

	time.Sleep(30 * time.Millisecond)
	result, err := f.coupons.ValidateDebounced(context.Background(), entity.Guest(), "second")
	require.NoError(t, err)
	assert.True(t, result.Valid)

	assert.True(t, domainerrors.IsKind(<-firstErr, domainerrors.KindSuperseded))
	f.gateway.AssertNotCalled(t, "ValidateCoupon", mock.Anything, "first")
}

func TestCouponService_ValidateDebouncedHonoursContext(t *testing.T) {
	f := newCouponFixture(t, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.coupons.ValidateDebounced(ctx, entity.Guest(), "code")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCouponService_GuestCouponsStayBehindOnSignIn(t *testing.T) {
	f := newCouponFixture(t, time.Millisecond)
	guest, user := entity.Guest(), entity.AuthenticatedUser(4)
	addItem(t, f.cart, guest, 1, 2, "10.00")

	f.gateway.On("ApplyCoupons", mock.Anything, codesAre("five")).
		Return(&service.CouponComputation{Coupons: []entity.AppliedCoupon{fixedCart("five", "5.00")}}, nil).
		Once()

	_, err := f.coupons.Apply(context.Background(), guest, "five")
	require.NoError(t, err)

	migrated := f.cart.Migrate(guest, user)

	require.Len(t, migrated, 1)
	assert.Empty(t, f.coupons.Applied(user))
	assert.Equal(t, "20.00", f.cart.Summary(user).Totals.Total.StringFixed(2))
}
