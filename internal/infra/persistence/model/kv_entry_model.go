package model

import (
	"time"
)

// KVEntryModel is the GORM-specific struct for the 'storefront_kv' table.
// Each row is one session-scoped key of the storefront key-value store.
type KVEntryModel struct {
	Key       string `gorm:"type:varchar(512);primaryKey"`
	Value     string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (KVEntryModel) TableName() string {
	return "storefront_kv"
}
