package db

import (
	"context"
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
	"gorm.io/gorm"
)

type ReminderRepository struct {
	database *gorm.DB
}

func NewReminderRepository(database *gorm.DB) *ReminderRepository {
	return &ReminderRepository{database: database}
}

// EnqueueReplacingKind cancels every pending reminder of the same kind and
// stores the new one in the same transaction.
func (repo *ReminderRepository) EnqueueReplacingKind(ctx context.Context, reminder *models.PendingReminder) error {
	return repo.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PendingReminder{}).
			Where("kind = ? AND status = ?", reminder.Kind, models.ReminderStatusPending).
			Update("status", models.ReminderStatusCancelled).Error; err != nil {
			return err
		}
		if reminder.Status == "" {
			reminder.Status = models.ReminderStatusPending
		}
		return tx.Create(reminder).Error
	})
}

// CancelPending cancels the reminder behind token when it has not been
// dispatched yet and reports whether anything changed.
func (repo *ReminderRepository) CancelPending(ctx context.Context, token string) (bool, error) {
	result := repo.database.WithContext(ctx).
		Model(&models.PendingReminder{}).
		Where("token = ? AND status = ?", token, models.ReminderStatusPending).
		Update("status", models.ReminderStatusCancelled)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CancelAllPending cancels every reminder that has not been dispatched yet.
func (repo *ReminderRepository) CancelAllPending(ctx context.Context) (int64, error) {
	result := repo.database.WithContext(ctx).
		Model(&models.PendingReminder{}).
		Where("status = ?", models.ReminderStatusPending).
		Update("status", models.ReminderStatusCancelled)
	return result.RowsAffected, result.Error
}

func (repo *ReminderRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]models.PendingReminder, error) {
	if limit <= 0 {
		limit = 100
	}
	reminders := make([]models.PendingReminder, 0)
	if err := repo.database.WithContext(ctx).
		Where("status = ? AND fire_at <= ?", models.ReminderStatusPending, now).
		Order("fire_at ASC, id ASC").
		Limit(limit).
		Find(&reminders).Error; err != nil {
		return nil, err
	}
	return reminders, nil
}

func (repo *ReminderRepository) ListPending(ctx context.Context) ([]models.PendingReminder, error) {
	reminders := make([]models.PendingReminder, 0)
	if err := repo.database.WithContext(ctx).
		Where("status = ?", models.ReminderStatusPending).
		Order("fire_at ASC, id ASC").
		Find(&reminders).Error; err != nil {
		return nil, err
	}
	return reminders, nil
}

func (repo *ReminderRepository) FindByToken(ctx context.Context, token string) (models.PendingReminder, bool, error) {
	reminder := models.PendingReminder{}
	result := repo.database.WithContext(ctx).Where("token = ?", token).Limit(1).Find(&reminder)
	if result.Error != nil {
		return models.PendingReminder{}, false, result.Error
	}
	if result.RowsAffected == 0 {
		return models.PendingReminder{}, false, nil
	}
	return reminder, true, nil
}

// MarkStatus moves a pending reminder to a terminal status. Reminders that
// were cancelled in the meantime keep their status.
func (repo *ReminderRepository) MarkStatus(ctx context.Context, id uint, status string, lastError string) error {
	return repo.database.WithContext(ctx).
		Model(&models.PendingReminder{}).
		Where("id = ? AND status = ?", id, models.ReminderStatusPending).
		Updates(map[string]any{
			"status":     status,
			"last_error": lastError,
		}).Error
}
