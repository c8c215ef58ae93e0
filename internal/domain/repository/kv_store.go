// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"

	"github.com/pkg/errors"
)

// ErrKeyNotFound is returned by a KVBackend when the key does not exist.
var ErrKeyNotFound = errors.New("key not found")

// KVStore is the session-scoped key-value store used by the cart, wishlist and coupon components.
// Calls never fail from the caller's point of view: backend failures are logged,
// Get reports the key as absent and Set/Remove become no-ops.
type KVStore interface {
	// Get returns the value stored under key and whether it was present.
	Get(key string) (string, bool)

	// Set stores value under key.
	Set(key, value string)

	// Remove deletes key.
	Remove(key string)

	// Keys lists every key of the store.
	Keys() []string
}

// KVBackend is the fallible storage engine behind a KVStore.
type KVBackend interface {
	// Get returns ErrKeyNotFound when the key does not exist.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists all keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// KVStoreFactory opens the KVStore of one browser session.
type KVStoreFactory interface {
	ForSession(sessionID string) KVStore
}
