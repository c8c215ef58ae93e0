package kvstore

import (
	"context"
	"strings"
	"time"

	"storefront/internal/domain/repository"
	"storefront/internal/errors"

	"github.com/redis/go-redis/v9"
)

const redisScanCount = 100

// redisBackend stores entries as plain redis strings.
type redisBackend struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisBackend wraps a redis client. A positive ttl expires keys that are not written again.
func NewRedisBackend(client redis.UniversalClient, ttl time.Duration) repository.KVBackend {
	return &redisBackend{client: client, ttl: ttl}
}

func (b *redisBackend) Get(ctx context.Context, key string) (string, error) {
	value, err := b.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", repository.ErrKeyNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "redis get %s", key)
	}

	return value, nil
}

func (b *redisBackend) Set(ctx context.Context, key, value string) error {
	if err := b.client.Set(ctx, key, value, b.ttl).Err(); err != nil {
		return errors.Wrapf(err, "redis set %s", key)
	}

	return nil
}

func (b *redisBackend) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, key).Err(); err != nil {
		return errors.Wrapf(err, "redis del %s", key)
	}

	return nil
}

func (b *redisBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	iter := b.client.Scan(ctx, 0, escapeGlob(prefix)+"*", redisScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "redis scan")
	}

	return keys, nil
}

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globReplacer.Replace(s)
}
