package kvstore

import (
	"context"
	"log/slog"
	"time"

	"storefront/config"
	"storefront/internal/domain/lifecycle"
	"storefront/internal/domain/repository"
	"storefront/internal/errors"
	"storefront/internal/infra/persistence/postgres"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// buckets
	_ "gocloud.dev/blob/gcsblob"  // gs:// buckets
	_ "gocloud.dev/blob/memblob"  // mem:// buckets
)

// BackendParams holds dependencies for the KV backend, injected by Fx
type BackendParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewBackend creates the KV backend selected by kvStore.driver
func NewBackend(params BackendParams) (repository.KVBackend, error) {
	cfg := params.Config.KVStore
	logger := params.Logger

	switch cfg.Driver {
	case "", config.KVDriverMemory:
		logger.Info("Using in-memory KV store")

		return NewMemoryBackend(), nil

	case config.KVDriverRedis:
		return newRedisFromConfig(params)

	case config.KVDriverBlob:
		return newBlobFromConfig(params)

	case config.KVDriverPostgres:
		db, err := postgres.New(postgres.Params{
			Lifecycle: params.Lc,
			Config:    params.Config,
			Logger:    logger,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("Using PostgreSQL KV store")

		return postgres.NewKVBackend(db), nil

	default:
		return nil, errors.Errorf("unknown kv store driver: %s", cfg.Driver)
	}
}

func newRedisFromConfig(params BackendParams) (repository.KVBackend, error) {
	cfg := params.Config.Redis
	if cfg == nil || cfg.Addr == "" {
		return nil, errors.New("redis address is required for the redis kv driver")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	params.Lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			ctx, cancel := context.WithTimeout(startCtx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := client.Ping(ctx).Err(); err != nil {
				return errors.Wrap(err, "failed to ping redis")
			}

			return nil
		},
		OnStop: func(_ context.Context) error {
			params.Logger.Info("Closing redis KV client")

			return errors.WithStack(client.Close())
		},
	})

	params.Logger.Info("Using redis KV store",
		slog.String("addr", cfg.Addr),
		slog.Duration("key_ttl", cfg.KeyTTL),
	)

	return NewRedisBackend(client, cfg.KeyTTL), nil
}

func newBlobFromConfig(params BackendParams) (repository.KVBackend, error) {
	bucketURL := params.Config.KVStore.BucketURL
	if bucketURL == "" {
		return nil, errors.New("bucket url is required for the blob kv driver")
	}

	bucket, err := blob.OpenBucket(params.Ctx, bucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open bucket %s", bucketURL)
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			params.Logger.Info("Closing blob KV bucket")

			return errors.WithStack(bucket.Close())
		},
	})

	params.Logger.Info("Using blob KV store", slog.String("bucket_url", bucketURL))

	return NewBlobBackend(bucket), nil
}

type storeFactory struct {
	backend   repository.KVBackend
	opTimeout time.Duration
	logger    *slog.Logger
}

// NewStoreFactory opens session-scoped stores on top of the configured backend.
func NewStoreFactory(backend repository.KVBackend, cfg *config.Config, logger *slog.Logger) repository.KVStoreFactory {
	return &storeFactory{
		backend:   backend,
		opTimeout: cfg.KVStore.OpTimeout,
		logger:    logger,
	}
}

func (f *storeFactory) ForSession(sessionID string) repository.KVStore {
	return NewSessionStore(f.backend, sessionID, f.opTimeout, f.logger)
}

// Module provides the KV backend FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewBackend, NewStoreFactory),
)
