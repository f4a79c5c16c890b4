package models

import "time"

// KeyValue is a single record of the local key-value store.
type KeyValue struct {
	Key       string    `gorm:"primaryKey"`
	Value     string    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (KeyValue) TableName() string {
	return "kv_store"
}
