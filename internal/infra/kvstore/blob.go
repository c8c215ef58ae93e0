package kvstore

import (
	"context"
	"io"

	"storefront/internal/domain/repository"
	"storefront/internal/errors"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

const blobContentType = "application/json"

// blobBackend stores every entry as one object of a gocloud.dev bucket.
type blobBackend struct {
	bucket *blob.Bucket
}

// NewBlobBackend wraps an opened bucket.
func NewBlobBackend(bucket *blob.Bucket) repository.KVBackend {
	return &blobBackend{bucket: bucket}
}

func (b *blobBackend) Get(ctx context.Context, key string) (string, error) {
	data, err := b.bucket.ReadAll(ctx, key)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return "", repository.ErrKeyNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "blob read %s", key)
	}

	return string(data), nil
}

func (b *blobBackend) Set(ctx context.Context, key, value string) error {
	opts := &blob.WriterOptions{ContentType: blobContentType}
	if err := b.bucket.WriteAll(ctx, key, []byte(value), opts); err != nil {
		return errors.Wrapf(err, "blob write %s", key)
	}

	return nil
}

func (b *blobBackend) Delete(ctx context.Context, key string) error {
	err := b.bucket.Delete(ctx, key)
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return errors.Wrapf(err, "blob delete %s", key)
	}

	return nil
}

func (b *blobBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	iter := b.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "blob list")
		}
		if obj.IsDir {
			continue
		}
		keys = append(keys, obj.Key)
	}

	return keys, nil
}
