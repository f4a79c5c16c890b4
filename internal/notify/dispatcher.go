package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/cyclecast/internal/models"
	"github.com/terraincognita07/cyclecast/internal/services"
)

const (
	DefaultDispatchSpec = "@every 1m"
	DefaultMaxLateness  = 12 * time.Hour
	defaultBatchSize    = 50
	dispatchTimeout     = time.Minute
)

type DueReminderStore interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]models.PendingReminder, error)
	MarkStatus(ctx context.Context, id uint, status string, lastError string) error
}

// SessionSource provides the preferences stored at dispatch time.
type SessionSource interface {
	Load(ctx context.Context) services.Session
}

type DispatcherOptions struct {
	Spec        string
	MaxLateness time.Duration
	BatchSize   int
	Location    *time.Location
	Logger      logrus.FieldLogger
	OnDelivered func(token string)
	Now         func() time.Time
}

type DispatchReport struct {
	Sent       int
	Failed     int
	Suppressed int
	Expired    int
}

// Dispatcher periodically sends reminders that have come due.
type Dispatcher struct {
	store    DueReminderStore
	sender   Sender
	sessions SessionSource
	options  DispatcherOptions
	log      logrus.FieldLogger
	engine   *cron.Cron

	mu sync.Mutex
}

func NewDispatcher(store DueReminderStore, sender Sender, sessions SessionSource, options DispatcherOptions) *Dispatcher {
	if strings.TrimSpace(options.Spec) == "" {
		options.Spec = DefaultDispatchSpec
	}
	if options.MaxLateness <= 0 {
		options.MaxLateness = DefaultMaxLateness
	}
	if options.BatchSize <= 0 {
		options.BatchSize = defaultBatchSize
	}
	if options.Location == nil {
		options.Location = time.UTC
	}
	if options.Logger == nil {
		options.Logger = logrus.StandardLogger()
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if sender == nil {
		sender = NoneSender{}
	}

	return &Dispatcher{
		store:    store,
		sender:   sender,
		sessions: sessions,
		options:  options,
		log:      options.Logger.WithField("component", "dispatcher"),
		engine:   cron.New(cron.WithLocation(options.Location)),
	}
}

func (dispatcher *Dispatcher) Start() error {
	_, err := dispatcher.engine.AddFunc(dispatcher.options.Spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()

		report, err := dispatcher.DispatchDue(ctx, dispatcher.options.Now())
		if err != nil {
			dispatcher.log.WithError(err).Error("dispatch due reminders failed")
			return
		}
		if report != (DispatchReport{}) {
			dispatcher.log.WithFields(logrus.Fields{
				"sent":       report.Sent,
				"failed":     report.Failed,
				"suppressed": report.Suppressed,
				"expired":    report.Expired,
			}).Info("due reminders dispatched")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule dispatcher %q: %w", dispatcher.options.Spec, err)
	}

	dispatcher.engine.Start()
	dispatcher.log.WithFields(logrus.Fields{
		"spec":    dispatcher.options.Spec,
		"channel": dispatcher.sender.Channel(),
	}).Info("dispatcher started")
	return nil
}

// Stop waits for a running dispatch to finish.
func (dispatcher *Dispatcher) Stop() {
	<-dispatcher.engine.Stop().Done()
	dispatcher.log.Info("dispatcher stopped")
}

// DispatchDue settles every pending reminder with FireAt <= now. With
// notifications switched off every due reminder is suppressed.
func (dispatcher *Dispatcher) DispatchDue(ctx context.Context, now time.Time) (DispatchReport, error) {
	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()

	due, err := dispatcher.store.ListDue(ctx, now.UTC(), dispatcher.options.BatchSize)
	if err != nil {
		return DispatchReport{}, fmt.Errorf("list due reminders: %w", err)
	}
	if len(due) == 0 {
		return DispatchReport{}, nil
	}

	prefs := models.DefaultNotificationPreferences()
	if dispatcher.sessions != nil {
		session := dispatcher.sessions.Load(ctx)
		if session.Preferences != nil {
			prefs = *session.Preferences
		}
		if !session.NotificationsEnabled {
			prefs = models.NotificationPreferences{ReminderDaysBefore: prefs.ReminderDaysBefore}
		}
	}

	report := DispatchReport{}
	for _, reminder := range due {
		status, lastError := dispatcher.settle(ctx, reminder, prefs, now)
		if err := dispatcher.store.MarkStatus(ctx, reminder.ID, status, lastError); err != nil {
			return report, fmt.Errorf("mark reminder %s %s: %w", reminder.Token, status, err)
		}

		switch status {
		case models.ReminderStatusSent:
			report.Sent++
			if dispatcher.options.OnDelivered != nil {
				dispatcher.options.OnDelivered(reminder.Token)
			}
		case models.ReminderStatusFailed:
			report.Failed++
		case models.ReminderStatusSuppressed:
			report.Suppressed++
		case models.ReminderStatusExpired:
			report.Expired++
		}
	}
	return report, nil
}

func (dispatcher *Dispatcher) settle(ctx context.Context, reminder models.PendingReminder, prefs models.NotificationPreferences, now time.Time) (string, string) {
	entry := dispatcher.log.WithFields(logrus.Fields{"kind": reminder.Kind, "token": reminder.Token})

	if now.Sub(reminder.FireAt) > dispatcher.options.MaxLateness {
		entry.Warn("reminder expired before dispatch")
		return models.ReminderStatusExpired, ""
	}
	if !prefs.Enabled(models.ReminderKind(reminder.Kind)) {
		entry.Info("reminder suppressed by preferences")
		return models.ReminderStatusSuppressed, ""
	}
	if err := dispatcher.sender.Send(ctx, reminder); err != nil {
		entry.WithError(err).Warn("reminder send failed")
		return models.ReminderStatusFailed, err.Error()
	}
	return models.ReminderStatusSent, ""
}
