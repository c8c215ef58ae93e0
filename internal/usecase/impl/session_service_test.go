package impl

import (
	"context"
	"testing"
	"time"

	"storefront/config"
	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"
	"storefront/internal/infra/kvstore"
	mockservice "storefront/internal/mocks/service"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionManager(t *testing.T) (usecase.SessionUsecase, *sessionManager) {
	cfg := &config.Config{
		KVStore:  &config.KVStoreConfig{Driver: config.KVDriverMemory, OpTimeout: time.Second},
		Checkout: &config.CheckoutConfig{FallbackCountry: "IN", Currency: "INR"},
		Coupon:   &config.CouponConfig{Debounce: time.Millisecond},
		Session:  &config.SessionConfig{IdleTTL: 30 * time.Minute, AwaitingPaymentTTL: 24 * time.Hour},
	}
	gateway := mockservice.NewMockCommerceGateway(t)

	manager := NewSessionManager(SessionManagerParams{
		Config:    cfg,
		Logger:    discardLogger(),
		Stores:    kvstore.NewStoreFactory(kvstore.NewMemoryBackend(), cfg, discardLogger()),
		Gateway:   gateway,
		StoreData: NewStoreDataService(gateway, discardLogger()),
		Adapters: []service.PaymentAdapter{
			mockservice.NewMockPaymentAdapter(t, entity.PaymentFlowCard),
			nil,
		},
	})

	impl, ok := manager.(*sessionManager)
	require.True(t, ok)

	return manager, impl
}

func TestSessionManager_ReusesBundlePerSession(t *testing.T) {
	manager, _ := newTestSessionManager(t)
	ctx := context.Background()

	first := manager.Session(ctx, "s1", entity.Guest())
	again := manager.Session(ctx, "s1", entity.Guest())
	other := manager.Session(ctx, "s2", entity.Guest())

	assert.Same(t, first, again)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, manager.Len())
}

func TestSessionManager_SessionsDoNotShareCarts(t *testing.T) {
	manager, _ := newTestSessionManager(t)
	ctx := context.Background()

	addItem(t, manager.Session(ctx, "s1", entity.Guest()).Cart, entity.Guest(), 1, 1, "1.00")

	assert.Empty(t, manager.Session(ctx, "s2", entity.Guest()).Cart.GetItems(entity.Guest()))
}

func TestSessionManager_SignInMigratesGuestData(t *testing.T) {
	manager, _ := newTestSessionManager(t)
	ctx := context.Background()
	guest, user := entity.Guest(), entity.AuthenticatedUser(77)

	bundle := manager.Session(ctx, "s1", guest)
	addItem(t, bundle.Cart, guest, 1, 2, "5.00")
	bundle.Wishlist.Add(guest, entity.WishlistItem{ProductID: 1})
	bundle.Wishlist.Add(user, entity.WishlistItem{ProductID: 2})

	bundle = manager.Session(ctx, "s1", user)

	items := bundle.Cart.GetItems(user)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Empty(t, bundle.Cart.GetItems(guest))
	assert.ElementsMatch(t, []int64{1, 2}, wishlistIDs(bundle.Wishlist.Items(user)))

	addItem(t, bundle.Cart, user, 3, 1, "1.00")
	bundle = manager.Session(ctx, "s1", user)
	assert.Len(t, bundle.Cart.GetItems(user), 2)
}

func TestSessionManager_SweepEvictsIdleSessions(t *testing.T) {
	manager, impl := newTestSessionManager(t)
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	impl.now = func() time.Time { return start }
	manager.Session(ctx, "old", entity.Guest())
	impl.now = func() time.Time { return start.Add(20 * time.Minute) }
	manager.Session(ctx, "recent", entity.Guest())

	evicted := manager.Sweep(start.Add(40 * time.Minute))

	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, manager.Len())

	manager.Evict("recent")
	assert.Equal(t, 0, manager.Len())
}

type stateCheckout struct {
	usecase.CheckoutUsecase
	state entity.CheckoutState
}

func (c stateCheckout) Status() entity.CheckoutStatus {
	return entity.CheckoutStatus{State: c.state, OrderID: 501}
}

func TestSessionManager_SweepKeepsOrdersAwaitingPayment(t *testing.T) {
	manager, impl := newTestSessionManager(t)
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	impl.now = func() time.Time { return start }

	states := map[string]entity.CheckoutState{
		"awaiting":   entity.CheckoutAwaitingPayment,
		"confirming": entity.CheckoutConfirmingPayment,
		"failed":     entity.CheckoutFailed,
		"completed":  entity.CheckoutCompleted,
	}
	for id, state := range states {
		bundle := manager.Session(ctx, id, entity.Guest())
		bundle.Checkout = stateCheckout{state: state}
	}

	evicted := manager.Sweep(start.Add(2 * time.Hour))
	assert.Equal(t, 2, evicted)
	assert.Equal(t, 2, manager.Len())

	awaiting := manager.Session(ctx, "awaiting", entity.Guest())
	assert.Equal(t, int64(501), awaiting.Checkout.Status().OrderID)

	evicted = manager.Sweep(start.Add(26 * time.Hour))
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, manager.Len())
}

func TestSessionManager_AdaptersKeyedByFlow(t *testing.T) {
	_, impl := newTestSessionManager(t)

	require.Len(t, impl.adapters, 1)
	assert.Contains(t, impl.adapters, entity.PaymentFlowCard)
}
