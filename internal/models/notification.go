package models

import (
	"errors"
	"time"
)

type ReminderKind string

const (
	ReminderBeforePeriod ReminderKind = "before_period"
	ReminderPeriodStart  ReminderKind = "period_start"
	ReminderOvulation    ReminderKind = "ovulation"
)

// ReminderKinds lists every reminder kind in scheduling order.
func ReminderKinds() []ReminderKind {
	return []ReminderKind{ReminderBeforePeriod, ReminderPeriodStart, ReminderOvulation}
}

type ReminderState string

const (
	ReminderDisabled ReminderState = "disabled"
	ReminderArmed    ReminderState = "armed"
	ReminderFired    ReminderState = "fired"
)

const DefaultReminderDaysBefore = 7

type NotificationPreferences struct {
	BeforePeriodEnabled  bool `json:"before_period_enabled"`
	ReminderDaysBefore   int  `json:"reminder_days_before"`
	OnPeriodStartEnabled bool `json:"on_period_start_enabled"`
	OnOvulationEnabled   bool `json:"on_ovulation_enabled"`
}

func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		BeforePeriodEnabled:  true,
		ReminderDaysBefore:   DefaultReminderDaysBefore,
		OnPeriodStartEnabled: true,
		OnOvulationEnabled:   false,
	}
}

func IsValidReminderDaysBefore(days int) bool {
	switch days {
	case 3, 5, 7:
		return true
	default:
		return false
	}
}

func (prefs NotificationPreferences) Enabled(kind ReminderKind) bool {
	switch kind {
	case ReminderBeforePeriod:
		return prefs.BeforePeriodEnabled
	case ReminderPeriodStart:
		return prefs.OnPeriodStartEnabled
	case ReminderOvulation:
		return prefs.OnOvulationEnabled
	default:
		return false
	}
}

func (prefs NotificationPreferences) AnyEnabled() bool {
	return prefs.BeforePeriodEnabled || prefs.OnPeriodStartEnabled || prefs.OnOvulationEnabled
}

type NotificationRequest struct {
	Kind   ReminderKind `json:"kind"`
	FireAt time.Time    `json:"fire_at"`
	Title  string       `json:"title"`
	Body   string       `json:"body"`
}

const (
	ReminderStatusPending    = "pending"
	ReminderStatusCancelled  = "cancelled"
	ReminderStatusSent       = "sent"
	ReminderStatusFailed     = "failed"
	ReminderStatusSuppressed = "suppressed"
	ReminderStatusExpired    = "expired"
)

// PendingReminder is a delivery request handed to the local reminder queue.
type PendingReminder struct {
	ID        uint      `gorm:"primaryKey"`
	Token     string    `gorm:"not null;uniqueIndex"`
	Kind      string    `gorm:"not null;index"`
	FireAt    time.Time `gorm:"not null;index"`
	Title     string    `gorm:"not null"`
	Body      string    `gorm:"not null"`
	Status    string    `gorm:"not null;default:pending;index"`
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

var ErrInvalidReminderDays = errors.New("reminder days must be 3, 5 or 7")

func (prefs NotificationPreferences) Validate() error {
	if !IsValidReminderDaysBefore(prefs.ReminderDaysBefore) {
		return ErrInvalidReminderDays
	}
	return nil
}
