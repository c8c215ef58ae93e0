package impl

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"

	"github.com/shopspring/decimal"
)

// Storage key prefixes. Every entry is namespaced as <prefix>-<guest|user-{id}>.
const (
	cartTokenPrefix      = "cart-token"
	cartItemsPrefix      = "cart-items"
	cartShippingPrefix   = "cart-shipping"
	wishlistItemsPrefix  = "wishlist-items"
	appliedCouponsPrefix = "applied-coupons"
)

func storageKey(prefix string, identity entity.Identity) string {
	return prefix + "-" + identity.Namespace()
}

// readJSON decodes the entry under key into out. A corrupt entry is removed so the
// next read starts clean.
func readJSON(store repository.KVStore, key string, out any, logger *slog.Logger) bool {
	raw, ok := store.Get(key)
	if !ok || raw == "" {
		return false
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		logger.Warn("Dropping corrupt storage entry",
			slog.String("key", key),
			slog.Any("error", err),
		)
		store.Remove(key)

		return false
	}

	return true
}

func writeJSON(store repository.KVStore, key string, value any, logger *slog.Logger) {
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Error("Failed to encode storage entry",
			slog.String("key", key),
			slog.Any("error", err),
		)

		return
	}

	store.Set(key, string(raw))
}

// couponState is the applied coupon set of one cart token. Basis fingerprints the
// items the discounts were computed for.
type couponState struct {
	Token    entity.CartToken       `json:"token"`
	Basis    string                 `json:"basis,omitempty"`
	Coupons  []entity.AppliedCoupon `json:"coupons"`
	TaxTotal decimal.Decimal        `json:"taxTotal"`
}

// loadCouponState returns the coupons applied to token. State saved for another
// token belongs to a cleared or migrated cart and reads as empty.
func loadCouponState(store repository.KVStore, identity entity.Identity, token entity.CartToken, logger *slog.Logger) couponState {
	var state couponState
	if token == "" || !readJSON(store, storageKey(appliedCouponsPrefix, identity), &state, logger) {
		return couponState{Token: token}
	}

	if state.Token != token {
		return couponState{Token: token}
	}

	return state
}

func saveCouponState(store repository.KVStore, identity entity.Identity, state couponState, logger *slog.Logger) {
	writeJSON(store, storageKey(appliedCouponsPrefix, identity), state, logger)
}

func lineItemsFrom(items []entity.CartItem) []entity.OrderLineItem {
	lines := make([]entity.OrderLineItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, entity.OrderLineItem{
			ProductID:   item.ProductID,
			VariationID: item.VariationID,
			Quantity:    item.Quantity,
			Name:        item.Name,
		})
	}

	return lines
}

// basisOf fingerprints the lines that drive coupon discounts.
func basisOf(items []entity.CartItem) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString(item.Key)
		b.WriteByte('x')
		b.WriteString(strconv.Itoa(item.Quantity))
		b.WriteByte('@')
		b.WriteString(item.UnitPrice.String())
		b.WriteByte(';')
	}

	return b.String()
}

func subtotalOf(items []entity.CartItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}

	return subtotal
}
