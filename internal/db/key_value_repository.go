package db

import (
	"context"
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type KeyValueRepository struct {
	database *gorm.DB
}

func NewKeyValueRepository(database *gorm.DB) *KeyValueRepository {
	return &KeyValueRepository{database: database}
}

func (repo *KeyValueRepository) Get(ctx context.Context, key string) (string, bool, error) {
	record := models.KeyValue{}
	result := repo.database.WithContext(ctx).
		Where("key = ?", key).
		Limit(1).
		Find(&record)
	if result.Error != nil {
		return "", false, result.Error
	}
	if result.RowsAffected == 0 {
		return "", false, nil
	}
	return record.Value, true, nil
}

// Put replaces the whole value stored under key in a single statement.
func (repo *KeyValueRepository) Put(ctx context.Context, key string, value string) error {
	record := models.KeyValue{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	return repo.database.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&record).Error
}

func (repo *KeyValueRepository) Delete(ctx context.Context, key string) error {
	return repo.database.WithContext(ctx).Where("key = ?", key).Delete(&models.KeyValue{}).Error
}
