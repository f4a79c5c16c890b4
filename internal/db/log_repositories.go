package db

import (
	"context"
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
	"gorm.io/gorm"
)

type SymptomLogRepository struct {
	database *gorm.DB
}

func NewSymptomLogRepository(database *gorm.DB) *SymptomLogRepository {
	return &SymptomLogRepository{database: database}
}

func (repo *SymptomLogRepository) Create(ctx context.Context, entry *models.SymptomLogEntry) error {
	return repo.database.WithContext(ctx).Create(entry).Error
}

func (repo *SymptomLogRepository) ListNewestFirst(ctx context.Context) ([]models.SymptomLogEntry, error) {
	entries := make([]models.SymptomLogEntry, 0)
	if err := repo.database.WithContext(ctx).
		Order("date DESC, timestamp DESC, id DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

type MoodEntryRepository struct {
	database *gorm.DB
}

func NewMoodEntryRepository(database *gorm.DB) *MoodEntryRepository {
	return &MoodEntryRepository{database: database}
}

func (repo *MoodEntryRepository) Create(ctx context.Context, entry *models.MoodEntry) error {
	return repo.database.WithContext(ctx).Create(entry).Error
}

func (repo *MoodEntryRepository) ListNewestFirst(ctx context.Context) ([]models.MoodEntry, error) {
	entries := make([]models.MoodEntry, 0)
	if err := repo.database.WithContext(ctx).
		Order("timestamp DESC, id DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (repo *MoodEntryRepository) ListRange(ctx context.Context, fromStart time.Time, toEnd time.Time) ([]models.MoodEntry, error) {
	entries := make([]models.MoodEntry, 0)
	if err := repo.database.WithContext(ctx).
		Where("date >= ? AND date < ?", fromStart, toEnd).
		Order("timestamp DESC, id DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
