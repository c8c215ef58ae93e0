// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"strings"
	"time"

	"storefront/internal/domain/repository"
	"storefront/internal/errors"
	"storefront/internal/infra/persistence/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// kvBackend implements repository.KVBackend on the storefront_kv table.
type kvBackend struct {
	db *gorm.DB
}

// NewKVBackend is the constructor for kvBackend.
func NewKVBackend(db *gorm.DB) repository.KVBackend {
	return &kvBackend{db: db}
}

// Migrate creates the storefront_kv table when it does not exist.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return errors.Wrap(db.WithContext(ctx).AutoMigrate(&model.KVEntryModel{}), "failed to migrate storefront_kv")
}

func (b *kvBackend) Get(ctx context.Context, key string) (string, error) {
	var entry model.KVEntryModel

	if err := b.db.WithContext(ctx).
		Where("key = ?", key).
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", repository.ErrKeyNotFound
		}

		return "", errors.Wrap(err, "failed to read kv entry")
	}

	return entry.Value, nil
}

func (b *kvBackend) Set(ctx context.Context, key, value string) error {
	now := time.Now()
	entry := &model.KVEntryModel{Key: key, Value: value, CreatedAt: now, UpdatedAt: now}

	if err := b.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(entry).Error; err != nil {
		return errors.Wrap(err, "failed to upsert kv entry")
	}

	return nil
}

func (b *kvBackend) Delete(ctx context.Context, key string) error {
	if err := b.db.WithContext(ctx).
		Where("key = ?", key).
		Delete(&model.KVEntryModel{}).Error; err != nil {
		return errors.Wrap(err, "failed to delete kv entry")
	}

	return nil
}

func (b *kvBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	if err := b.db.WithContext(ctx).
		Model(&model.KVEntryModel{}).
		Where("key LIKE ?", escapeLike(prefix)+"%").
		Order("key").
		Pluck("key", &keys).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list kv keys")
	}

	return keys, nil
}

var likeReplacer = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeReplacer.Replace(s)
}
