package impl

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var cartTokenPattern = regexp.MustCompile(`^(guest|user-\d+)-\d+-[A-Za-z0-9]+$`)

type cartService struct {
	store  repository.KVStore
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	hydrated map[string]bool
}

// NewCartService creates the cart persistence manager of one browser session.
func NewCartService(store repository.KVStore, logger *slog.Logger) usecase.CartUsecase {
	return &cartService{
		store:    store,
		logger:   logger.With(slog.String("component", "cart")),
		now:      time.Now,
		hydrated: make(map[string]bool),
	}
}

// GetToken returns the cart token of identity. A stored token that is malformed or
// issued to another namespace is discarded.
func (s *cartService) GetToken(identity entity.Identity) (entity.CartToken, bool) {
	key := storageKey(cartTokenPrefix, identity)

	raw, ok := s.store.Get(key)
	if !ok {
		return "", false
	}

	token := entity.CartToken(raw)
	if !s.IsValidToken(token) || !tokenBelongsTo(token, identity) {
		s.logger.Warn("Discarding foreign or malformed cart token",
			slog.String("identity", identity.Namespace()),
			slog.String("token", raw),
		)
		s.store.Remove(key)

		return "", false
	}

	return token, true
}

func (s *cartService) SetToken(identity entity.Identity, token entity.CartToken) error {
	if !s.IsValidToken(token) || !tokenBelongsTo(token, identity) {
		return domainerrors.ErrValidation.WithMessage("Cart token does not belong to this shopper")
	}

	s.store.Set(storageKey(cartTokenPrefix, identity), string(token))

	return nil
}

func (s *cartService) Clear(identity entity.Identity) {
	s.store.Remove(storageKey(cartTokenPrefix, identity))
	s.store.Remove(storageKey(cartItemsPrefix, identity))
	s.store.Remove(storageKey(cartShippingPrefix, identity))
	s.store.Remove(storageKey(appliedCouponsPrefix, identity))
}

func (s *cartService) GetItems(identity entity.Identity) []entity.CartItem {
	s.markHydrated(identity)

	var stored []entity.CartItem
	if !readJSON(s.store, storageKey(cartItemsPrefix, identity), &stored, s.logger) {
		return []entity.CartItem{}
	}

	items := make([]entity.CartItem, 0, len(stored))
	seen := make(map[string]bool, len(stored))
	for _, item := range stored {
		if item.Key == "" || item.Quantity < 1 || seen[item.Key] {
			continue
		}
		seen[item.Key] = true
		items = append(items, item)
	}

	return items
}

// SaveItems replaces the stored items. The first write issues the cart token.
func (s *cartService) SaveItems(identity entity.Identity, items []entity.CartItem) {
	if items == nil {
		items = []entity.CartItem{}
	}

	s.ensureToken(identity)
	writeJSON(s.store, storageKey(cartItemsPrefix, identity), items, s.logger)

	if len(items) == 0 {
		s.store.Remove(storageKey(appliedCouponsPrefix, identity))
	}
}

// GenerateToken returns {namespace}-{unix millis}-{random alphanumerics}.
func (s *cartService) GenerateToken(identity entity.Identity) entity.CartToken {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")

	return entity.CartToken(identity.Namespace() + "-" + strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + random)
}

func (s *cartService) IsValidToken(token entity.CartToken) bool {
	return cartTokenPattern.MatchString(string(token))
}

// Migrate replaces the cart of to with the cart of from. Carts are not merged:
// quantities of the same product in both carts are ambiguous to combine.
// An empty source leaves the destination untouched. The items of to after the
// call are returned.
func (s *cartService) Migrate(from, to entity.Identity) []entity.CartItem {
	if from.Namespace() == to.Namespace() {
		return s.GetItems(to)
	}

	items := s.GetItems(from)
	if len(items) == 0 {
		return s.GetItems(to)
	}

	shipping := s.GetShipping(from)

	s.Clear(to)
	s.SaveItems(to, items)
	if shipping != nil {
		s.SetShipping(to, shipping)
	}

	if from.IsGuest() {
		s.Clear(from)
	}

	s.logger.Info("Cart migrated",
		slog.String("from", from.Namespace()),
		slog.String("to", to.Namespace()),
		slog.Int("items", len(items)),
	)

	return items
}

func (s *cartService) AddItem(identity entity.Identity, input *usecase.AddItemInput) ([]entity.CartItem, error) {
	if input == nil || input.ProductID <= 0 {
		return nil, domainerrors.ErrValidation.WithMessage("Please choose a product")
	}
	if input.Quantity < 1 {
		return nil, domainerrors.ErrValidation.WithMessage("Quantity must be at least 1")
	}

	price, err := decimal.NewFromString(input.UnitPrice)
	if err != nil || price.IsNegative() {
		return nil, domainerrors.ErrValidation.WithMessage("Invalid product price").WithDetails(input.UnitPrice)
	}

	key := entity.ItemKey(input.ProductID, input.VariationID)
	items := s.GetItems(identity)

	merged := false
	for i := range items {
		if items[i].Key == key {
			items[i].Quantity += input.Quantity
			merged = true

			break
		}
	}
	if !merged {
		items = append(items, entity.CartItem{
			Key:         key,
			ProductID:   input.ProductID,
			VariationID: input.VariationID,
			Quantity:    input.Quantity,
			Name:        input.Name,
			UnitPrice:   price,
			ImageURL:    input.ImageURL,
			Slug:        input.Slug,
		})
	}

	s.SaveItems(identity, items)

	return items, nil
}

func (s *cartService) RemoveItem(identity entity.Identity, key string) []entity.CartItem {
	items := s.GetItems(identity)

	kept := items[:0]
	for _, item := range items {
		if item.Key != key {
			kept = append(kept, item)
		}
	}

	s.SaveItems(identity, kept)

	return kept
}

func (s *cartService) SetQuantity(identity entity.Identity, key string, quantity int) ([]entity.CartItem, error) {
	if quantity <= 0 {
		return s.RemoveItem(identity, key), nil
	}

	items := s.GetItems(identity)
	for i := range items {
		if items[i].Key == key {
			items[i].Quantity = quantity
			s.SaveItems(identity, items)

			return items, nil
		}
	}

	return nil, domainerrors.ErrValidation.WithMessage("This item is not in your cart").WithDetails(key)
}

func (s *cartService) SetShipping(identity entity.Identity, selection *entity.ShippingSelection) {
	key := storageKey(cartShippingPrefix, identity)
	if selection == nil {
		s.store.Remove(key)

		return
	}

	writeJSON(s.store, key, selection, s.logger)
}

func (s *cartService) GetShipping(identity entity.Identity) *entity.ShippingSelection {
	var selection entity.ShippingSelection
	if !readJSON(s.store, storageKey(cartShippingPrefix, identity), &selection, s.logger) {
		return nil
	}

	return &selection
}

func (s *cartService) Summary(identity entity.Identity) *entity.CartSummary {
	items := s.GetItems(identity)
	shipping := s.GetShipping(identity)
	token, _ := s.GetToken(identity)
	coupons := loadCouponState(s.store, identity, token, s.logger)

	applied := coupons.Coupons
	if applied == nil {
		applied = []entity.AppliedCoupon{}
	}

	return &entity.CartSummary{
		Token:          token,
		Items:          items,
		Totals:         entity.ComputeTotals(items, applied, shipping, coupons.TaxTotal),
		AppliedCoupons: applied,
		Shipping:       shipping,
		IsHydrated:     s.isHydrated(identity),
	}
}

func (s *cartService) ensureToken(identity entity.Identity) entity.CartToken {
	if token, ok := s.GetToken(identity); ok {
		return token
	}

	token := s.GenerateToken(identity)
	s.store.Set(storageKey(cartTokenPrefix, identity), string(token))

	return token
}

func (s *cartService) markHydrated(identity entity.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hydrated[identity.Namespace()] = true
}

func (s *cartService) isHydrated(identity entity.Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hydrated[identity.Namespace()]
}

func tokenBelongsTo(token entity.CartToken, identity entity.Identity) bool {
	return strings.HasPrefix(string(token), identity.Namespace()+"-")
}
