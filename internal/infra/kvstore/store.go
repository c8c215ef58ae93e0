// Package kvstore provides the session-scoped key-value store and its storage backends.
package kvstore

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"storefront/internal/domain/repository"
	"storefront/internal/errors"
)

const sessionKeyPrefix = "sess:"

// sessionStore implements repository.KVStore on top of a KVBackend.
// Every key is stored under the session prefix so sessions never see each other's entries.
type sessionStore struct {
	backend   repository.KVBackend
	prefix    string
	opTimeout time.Duration
	logger    *slog.Logger
}

// NewSessionStore scopes backend to one browser session.
func NewSessionStore(backend repository.KVBackend, sessionID string, opTimeout time.Duration, logger *slog.Logger) repository.KVStore {
	return &sessionStore{
		backend:   backend,
		prefix:    SessionPrefix(sessionID),
		opTimeout: opTimeout,
		logger:    logger.With(slog.String("session_id", sessionID)),
	}
}

// SessionPrefix returns the key prefix owned by a session.
func SessionPrefix(sessionID string) string {
	return sessionKeyPrefix + sessionID + ":"
}

func (s *sessionStore) Get(key string) (string, bool) {
	ctx, cancel := s.opContext()
	defer cancel()

	value, err := s.backend.Get(ctx, s.prefix+key)
	if err != nil {
		if !errors.Is(err, repository.ErrKeyNotFound) {
			s.logger.Warn("KV get failed, treating key as absent",
				slog.String("key", key),
				slog.Any("error", err),
			)
		}

		return "", false
	}

	return value, true
}

func (s *sessionStore) Set(key, value string) {
	ctx, cancel := s.opContext()
	defer cancel()

	if err := s.backend.Set(ctx, s.prefix+key, value); err != nil {
		s.logger.Warn("KV set failed, value not persisted",
			slog.String("key", key),
			slog.Int("size", len(value)),
			slog.Any("error", err),
		)
	}
}

func (s *sessionStore) Remove(key string) {
	ctx, cancel := s.opContext()
	defer cancel()

	if err := s.backend.Delete(ctx, s.prefix+key); err != nil {
		s.logger.Warn("KV remove failed",
			slog.String("key", key),
			slog.Any("error", err),
		)
	}
}

func (s *sessionStore) Keys() []string {
	ctx, cancel := s.opContext()
	defer cancel()

	keys, err := s.backend.Keys(ctx, s.prefix)
	if err != nil {
		s.logger.Warn("KV keys failed, returning none", slog.Any("error", err))

		return []string{}
	}

	result := make([]string, 0, len(keys))
	for _, key := range keys {
		if trimmed, ok := strings.CutPrefix(key, s.prefix); ok {
			result = append(result, trimmed)
		}
	}

	return result
}

func (s *sessionStore) opContext() (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return context.WithCancel(context.Background())
	}

	return context.WithTimeout(context.Background(), s.opTimeout)
}
