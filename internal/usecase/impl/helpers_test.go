package impl

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"
	"storefront/internal/infra/kvstore"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore() repository.KVStore {
	return kvstore.NewSessionStore(kvstore.NewMemoryBackend(), "test-session", time.Second, discardLogger())
}

func addItem(t *testing.T, cart usecase.CartUsecase, identity entity.Identity, productID int64, quantity int, price string) {
	t.Helper()

	_, err := cart.AddItem(identity, &usecase.AddItemInput{
		ProductID: productID,
		Quantity:  quantity,
		Name:      "Product",
		UnitPrice: price,
	})
	require.NoError(t, err)
}

func productIDs(items []entity.CartItem) []int64 {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	return ids
}
