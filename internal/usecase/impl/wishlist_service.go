package impl

import (
	"log/slog"
	"time"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"
	"storefront/internal/usecase"
)

type wishlistService struct {
	store  repository.KVStore
	logger *slog.Logger
	now    func() time.Time
}

// NewWishlistService creates the wishlist persistence manager of one browser session.
func NewWishlistService(store repository.KVStore, logger *slog.Logger) usecase.WishlistUsecase {
	return &wishlistService{
		store:  store,
		logger: logger.With(slog.String("component", "wishlist")),
		now:    time.Now,
	}
}

func (s *wishlistService) Items(identity entity.Identity) []entity.WishlistItem {
	var stored []entity.WishlistItem
	if !readJSON(s.store, storageKey(wishlistItemsPrefix, identity), &stored, s.logger) {
		return []entity.WishlistItem{}
	}

	return dedupeWishlist(stored)
}

func (s *wishlistService) Add(identity entity.Identity, item entity.WishlistItem) []entity.WishlistItem {
	items := s.Items(identity)
	if item.ProductID <= 0 || containsProduct(items, item.ProductID) {
		return items
	}

	if item.AddedAt.IsZero() {
		item.AddedAt = s.now().UTC()
	}
	items = append(items, item)
	s.save(identity, items)

	return items
}

func (s *wishlistService) Remove(identity entity.Identity, productID int64) []entity.WishlistItem {
	items := s.Items(identity)

	kept := items[:0]
	for _, item := range items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	s.save(identity, kept)

	return kept
}

func (s *wishlistService) Contains(identity entity.Identity, productID int64) bool {
	return containsProduct(s.Items(identity), productID)
}

func (s *wishlistService) Clear(identity entity.Identity) {
	s.store.Remove(storageKey(wishlistItemsPrefix, identity))
}

func (s *wishlistService) Migrate(from, to entity.Identity) {
	if from.Namespace() == to.Namespace() {
		return
	}

	incoming := s.Items(from)
	if len(incoming) == 0 {
		return
	}

	merged := s.Items(to)
	added := 0
	for _, item := range incoming {
		if !containsProduct(merged, item.ProductID) {
			merged = append(merged, item)
			added++
		}
	}
	s.save(to, merged)

	if from.IsGuest() {
		s.Clear(from)
	}

	s.logger.Info("Wishlist merged",
		slog.String("from", from.Namespace()),
		slog.String("to", to.Namespace()),
		slog.Int("added", added),
	)
}

func (s *wishlistService) save(identity entity.Identity, items []entity.WishlistItem) {
	writeJSON(s.store, storageKey(wishlistItemsPrefix, identity), items, s.logger)
}

func containsProduct(items []entity.WishlistItem, productID int64) bool {
	for _, item := range items {
		if item.ProductID == productID {
			return true
		}
	}

	return false
}

func dedupeWishlist(items []entity.WishlistItem) []entity.WishlistItem {
	out := make([]entity.WishlistItem, 0, len(items))
	for _, item := range items {
		if item.ProductID > 0 && !containsProduct(out, item.ProductID) {
			out = append(out, item)
		}
	}

	return out
}
