package impl

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"storefront/config"
	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"
	"storefront/internal/domain/service"
	"storefront/internal/usecase"

	"github.com/go-playground/validator/v10"
	"go.uber.org/fx"
)

// SessionManagerParams holds the dependencies of the session manager, injected by Fx.
type SessionManagerParams struct {
	fx.In

	Lc        fx.Lifecycle `optional:"true"`
	Config    *config.Config
	Logger    *slog.Logger
	Stores    repository.KVStoreFactory
	Gateway   service.CommerceGateway
	StoreData usecase.StoreDataUsecase
	Publisher service.EventPublisher   `optional:"true"`
	Adapters  []service.PaymentAdapter `group:"payment_adapters"`
}

type sessionEntry struct {
	bundle *usecase.SessionBundle

	mu       sync.Mutex
	identity entity.Identity
	lastSeen time.Time
}

type sessionManager struct {
	cfg       *config.Config
	logger    *slog.Logger
	stores    repository.KVStoreFactory
	gateway   service.CommerceGateway
	storeData usecase.StoreDataUsecase
	publisher service.EventPublisher
	adapters  map[entity.PaymentFlow]service.PaymentAdapter
	validate  *validator.Validate
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// NewSessionManager creates the manager of per-session service bundles. Idle bundles
// are swept in the background while the application runs.
func NewSessionManager(params SessionManagerParams) usecase.SessionUsecase {
	adapters := make(map[entity.PaymentFlow]service.PaymentAdapter, len(params.Adapters))
	for _, adapter := range params.Adapters {
		if adapter != nil {
			adapters[adapter.Flow()] = adapter
		}
	}

	m := &sessionManager{
		cfg:       params.Config,
		logger:    params.Logger.With(slog.String("component", "session_manager")),
		stores:    params.Stores,
		gateway:   params.Gateway,
		storeData: params.StoreData,
		publisher: params.Publisher,
		adapters:  adapters,
		validate:  NewFormValidator(),
		now:       time.Now,
		sessions:  make(map[string]*sessionEntry),
	}

	if params.Lc != nil && params.Config.Session.IdleTTL > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		params.Lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go m.sweepLoop(ctx, params.Config.Session.IdleTTL/2)

				return nil
			},
			OnStop: func(context.Context) error {
				cancel()

				return nil
			},
		})
	}

	return m
}

// Session returns the bundle of sessionID. A guest to user change migrates the
// guest cart (replace) and wishlist (merge) before the bundle is handed out.
func (m *sessionManager) Session(_ context.Context, sessionID string, identity entity.Identity) *usecase.SessionBundle {
	m.mu.Lock()
	entry, ok := m.sessions[sessionID]
	if !ok {
		entry = &sessionEntry{bundle: m.newBundle(sessionID), identity: entity.Guest()}
		m.sessions[sessionID] = entry
	}
	m.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.lastSeen = m.now()
	previous := entry.identity
	entry.identity = identity

	if previous.IsGuest() && !identity.IsGuest() {
		entry.bundle.Cart.Migrate(previous, identity)
		entry.bundle.Wishlist.Migrate(previous, identity)
		m.logger.Info("Session signed in",
			slog.String("session_id", sessionID),
			slog.String("identity", identity.Namespace()),
		)
	}

	return entry.bundle
}

func (m *sessionManager) Evict(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
}

// Sweep drops bundles idle for longer than the idle TTL. Bundles in the middle of a
// checkout step are kept. Bundles whose order waits for payment (PayPal approval,
// 3-D Secure) are kept until the awaiting-payment TTL.
func (m *sessionManager) Sweep(now time.Time) int {
	cutoff := now.Add(-m.cfg.Session.IdleTTL)
	awaitingCutoff := now.Add(-max(m.cfg.Session.AwaitingPaymentTTL, m.cfg.Session.IdleTTL))

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, entry := range m.sessions {
		entry.mu.Lock()
		lastSeen := entry.lastSeen
		entry.mu.Unlock()

		state := entry.bundle.Checkout.Status().State
		switch {
		case !lastSeen.Before(cutoff), state.IsBusy():
			continue
		case state == entity.CheckoutAwaitingPayment && !lastSeen.Before(awaitingCutoff):
			continue
		}
		delete(m.sessions, id)
		evicted++
	}

	if evicted > 0 {
		m.logger.Debug("Evicted idle sessions", slog.Int("count", evicted))
	}

	return evicted
}

func (m *sessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}

func (m *sessionManager) newBundle(sessionID string) *usecase.SessionBundle {
	store := m.stores.ForSession(sessionID)
	cart := NewCartService(store, m.logger)
	wishlist := NewWishlistService(store, m.logger)
	coupons := NewCouponService(store, cart, m.gateway, m.cfg.Coupon.Debounce, m.logger)
	checkout := NewCheckoutService(CheckoutDeps{
		SessionID:       sessionID,
		Cart:            cart,
		Coupons:         coupons,
		StoreData:       m.storeData,
		Gateway:         m.gateway,
		Adapters:        m.adapters,
		Publisher:       m.publisher,
		Validate:        m.validate,
		Logger:          m.logger,
		FallbackCountry: m.cfg.Checkout.FallbackCountry,
		Currency:        m.cfg.Checkout.Currency,
		OfflineNote:     m.cfg.Checkout.OfflineNote,
	})

	return &usecase.SessionBundle{
		ID:       sessionID,
		Cart:     cart,
		Wishlist: wishlist,
		Coupons:  coupons,
		Checkout: checkout,
	}
}

func (m *sessionManager) sweepLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}
