package services

import (
	"fmt"
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
)

// ReminderCopy holds the user-facing text of every reminder kind.
// BeforePeriodBody is a format string taking the day count.
type ReminderCopy struct {
	BeforePeriodTitle string
	BeforePeriodBody  string
	PeriodStartTitle  string
	PeriodStartBody   string
	OvulationTitle    string
	OvulationBody     string
}

func DefaultReminderCopy() ReminderCopy {
	return ReminderCopy{
		BeforePeriodTitle: "Period Reminder",
		BeforePeriodBody:  "Your period is expected in %d days.",
		PeriodStartTitle:  "Period Start",
		PeriodStartBody:   "Your period is expected to start today.",
		OvulationTitle:    "Ovulation Day",
		OvulationBody:     "Today is your predicted ovulation day.",
	}
}

type MessageTranslator interface {
	Translate(language string, key string) string
}

func ReminderCopyFromMessages(messages MessageTranslator, language string) ReminderCopy {
	fallback := DefaultReminderCopy()
	if messages == nil {
		return fallback
	}

	translate := func(key string, fallbackValue string) string {
		if value := messages.Translate(language, key); value != "" && value != key {
			return value
		}
		return fallbackValue
	}
	return ReminderCopy{
		BeforePeriodTitle: translate("reminder.before_period.title", fallback.BeforePeriodTitle),
		BeforePeriodBody:  translate("reminder.before_period.body", fallback.BeforePeriodBody),
		PeriodStartTitle:  translate("reminder.period_start.title", fallback.PeriodStartTitle),
		PeriodStartBody:   translate("reminder.period_start.body", fallback.PeriodStartBody),
		OvulationTitle:    translate("reminder.ovulation.title", fallback.OvulationTitle),
		OvulationBody:     translate("reminder.ovulation.body", fallback.OvulationBody),
	}
}

// BuildReminders derives the reminder requests for prediction. Each kind is
// gated by its toggle and kept only when it fires strictly after now.
// timeOfDay is the wall-clock time each reminder fires on its day.
func BuildReminders(prediction models.CyclePrediction, prefs models.NotificationPreferences, now time.Time, reminderCopy ReminderCopy, timeOfDay time.Duration) []models.NotificationRequest {
	requests := make([]models.NotificationRequest, 0, 3)
	if prediction.NextPeriod.IsZero() {
		return requests
	}
	hour := int(timeOfDay / time.Hour)
	minute := int((timeOfDay % time.Hour) / time.Minute)

	add := func(kind models.ReminderKind, day time.Time, title string, body string) {
		year, month, date := day.Date()
		fireAt := time.Date(year, month, date, hour, minute, 0, 0, day.Location())
		if !fireAt.After(now) {
			return
		}
		requests = append(requests, models.NotificationRequest{
			Kind:   kind,
			FireAt: fireAt,
			Title:  title,
			Body:   body,
		})
	}

	if prefs.BeforePeriodEnabled {
		days := prefs.ReminderDaysBefore
		add(
			models.ReminderBeforePeriod,
			prediction.NextPeriod.AddDate(0, 0, -days),
			reminderCopy.BeforePeriodTitle,
			fmt.Sprintf(reminderCopy.BeforePeriodBody, days),
		)
	}
	if prefs.OnPeriodStartEnabled {
		add(models.ReminderPeriodStart, prediction.NextPeriod, reminderCopy.PeriodStartTitle, reminderCopy.PeriodStartBody)
	}
	if prefs.OnOvulationEnabled {
		add(models.ReminderOvulation, prediction.OvulationDay, reminderCopy.OvulationTitle, reminderCopy.OvulationBody)
	}
	return requests
}
