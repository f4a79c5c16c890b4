package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/cyclecast/internal/models"
)

type AuthResult struct {
	Granted bool
	Reason  string
}

type Ack struct {
	Token string
}

// Deliverer hands reminder requests to whatever actually fires them.
type Deliverer interface {
	RequestAuthorization(ctx context.Context) (AuthResult, error)
	Deliver(ctx context.Context, request models.NotificationRequest) (Ack, error)
}

// Canceller is implemented by deliverers that can withdraw a pending request.
type Canceller interface {
	Cancel(ctx context.Context, token string) error
}

type SchedulerOptions struct {
	Copy      ReminderCopy
	TimeOfDay time.Duration
	Logger    logrus.FieldLogger
}

type ScheduledReminder struct {
	Request models.NotificationRequest `json:"request"`
	Token   string                     `json:"token"`
}

type FailedReminder struct {
	Request models.NotificationRequest `json:"request"`
	Err     error                      `json:"-"`
}

type ScheduleResult struct {
	Scheduled []ScheduledReminder
	Failed    []FailedReminder
}

type ScheduleOutcome struct {
	Result ScheduleResult
	Err    error
}

type armedReminder struct {
	token  string
	fireAt time.Time
}

// NotificationScheduler tracks the state of every reminder kind and
// forwards scheduling to its Deliverer. It is safe for concurrent use.
type NotificationScheduler struct {
	deliverer    Deliverer
	reminderCopy ReminderCopy
	timeOfDay    time.Duration
	log          logrus.FieldLogger

	authMu     sync.Mutex
	authorized bool

	mu     sync.Mutex
	armed  map[models.ReminderKind]armedReminder
	states map[models.ReminderKind]models.ReminderState

	inflight sync.WaitGroup
	closed   bool
}

func NewNotificationScheduler(deliverer Deliverer, options SchedulerOptions) *NotificationScheduler {
	if options.Copy == (ReminderCopy{}) {
		options.Copy = DefaultReminderCopy()
	}
	if options.Logger == nil {
		options.Logger = logrus.StandardLogger()
	}

	states := make(map[models.ReminderKind]models.ReminderState, len(models.ReminderKinds()))
	for _, kind := range models.ReminderKinds() {
		states[kind] = models.ReminderDisabled
	}
	return &NotificationScheduler{
		deliverer:    deliverer,
		reminderCopy: options.Copy,
		timeOfDay:    options.TimeOfDay,
		log:          options.Logger,
		armed:        make(map[models.ReminderKind]armedReminder),
		states:       states,
	}
}

// ScheduleReminders replaces every armed reminder with the ones derived from
// prediction and prefs. A denied authorization yields an empty result and
// ErrPermissionDenied. Delivery failures are reported per request.
func (scheduler *NotificationScheduler) ScheduleReminders(ctx context.Context, prediction models.CyclePrediction, prefs models.NotificationPreferences, now time.Time) (ScheduleResult, error) {
	if prefs.BeforePeriodEnabled {
		if err := prefs.Validate(); err != nil {
			return ScheduleResult{}, err
		}
	}
	if err := scheduler.authorize(ctx); err != nil {
		return ScheduleResult{}, err
	}

	requests := BuildReminders(prediction, prefs, now, scheduler.reminderCopy, scheduler.timeOfDay)
	if err := scheduler.cancelArmed(ctx, func(models.ReminderKind) bool { return true }); err != nil {
		scheduler.log.WithError(err).Warn("scheduler: cancel previous reminders failed")
	}
	scheduler.mu.Lock()
	for kind := range scheduler.states {
		scheduler.states[kind] = models.ReminderDisabled
	}
	scheduler.mu.Unlock()

	result := ScheduleResult{
		Scheduled: make([]ScheduledReminder, 0, len(requests)),
		Failed:    make([]FailedReminder, 0),
	}
	for _, request := range requests {
		ack, err := scheduler.deliverer.Deliver(ctx, request)
		if err != nil {
			wrapped := fmt.Errorf("%w: %s: %v", ErrDeliveryFailed, request.Kind, err)
			scheduler.log.WithError(err).WithField("kind", request.Kind).Warn("scheduler: reminder delivery failed")
			result.Failed = append(result.Failed, FailedReminder{Request: request, Err: wrapped})
			continue
		}

		scheduler.mu.Lock()
		scheduler.armed[request.Kind] = armedReminder{token: ack.Token, fireAt: request.FireAt}
		scheduler.states[request.Kind] = models.ReminderArmed
		scheduler.mu.Unlock()

		result.Scheduled = append(result.Scheduled, ScheduledReminder{Request: request, Token: ack.Token})
	}
	return result, nil
}

// ScheduleRemindersAsync runs ScheduleReminders on its own goroutine. The
// returned channel receives exactly one outcome.
func (scheduler *NotificationScheduler) ScheduleRemindersAsync(ctx context.Context, prediction models.CyclePrediction, prefs models.NotificationPreferences, now time.Time) <-chan ScheduleOutcome {
	outcome := make(chan ScheduleOutcome, 1)

	scheduler.mu.Lock()
	if scheduler.closed {
		scheduler.mu.Unlock()
		outcome <- ScheduleOutcome{Err: ErrSchedulerClosed}
		close(outcome)
		return outcome
	}
	scheduler.inflight.Add(1)
	scheduler.mu.Unlock()

	go func() {
		defer scheduler.inflight.Done()
		defer close(outcome)

		result, err := scheduler.ScheduleReminders(ctx, prediction, prefs, now)
		outcome <- ScheduleOutcome{Result: result, Err: err}
	}()
	return outcome
}

// ApplyPreferences cancels armed reminders whose toggle is now off.
func (scheduler *NotificationScheduler) ApplyPreferences(ctx context.Context, prefs models.NotificationPreferences) error {
	return scheduler.cancelArmed(ctx, func(kind models.ReminderKind) bool {
		return !prefs.Enabled(kind)
	})
}

// Restore arms every kind that still has a pending row in the delivery
// queue. It is meant for startup, before any reminder is scheduled.
func (scheduler *NotificationScheduler) Restore(pending []models.PendingReminder) {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()

	for _, reminder := range pending {
		kind := models.ReminderKind(reminder.Kind)
		if _, known := scheduler.states[kind]; !known {
			continue
		}
		if current, ok := scheduler.armed[kind]; ok && current.fireAt.After(reminder.FireAt) {
			continue
		}
		scheduler.armed[kind] = armedReminder{token: reminder.Token, fireAt: reminder.FireAt}
		scheduler.states[kind] = models.ReminderArmed
	}
}

// MarkFired moves the reminder behind token from armed to fired.
func (scheduler *NotificationScheduler) MarkFired(token string) {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()

	for kind, reminder := range scheduler.armed {
		if reminder.token != token {
			continue
		}
		delete(scheduler.armed, kind)
		scheduler.states[kind] = models.ReminderFired
		return
	}
}

func (scheduler *NotificationScheduler) States() map[models.ReminderKind]models.ReminderState {
	scheduler.mu.Lock()
	defer scheduler.mu.Unlock()

	states := make(map[models.ReminderKind]models.ReminderState, len(scheduler.states))
	for kind, state := range scheduler.states {
		states[kind] = state
	}
	return states
}

// Close waits for in-flight async scheduling and rejects new async calls.
func (scheduler *NotificationScheduler) Close() {
	scheduler.mu.Lock()
	scheduler.closed = true
	scheduler.mu.Unlock()

	scheduler.inflight.Wait()
}

// authorize asks the deliverer once. Grants are remembered, denials are
// asked again on the next call.
func (scheduler *NotificationScheduler) authorize(ctx context.Context) error {
	scheduler.authMu.Lock()
	defer scheduler.authMu.Unlock()

	if scheduler.authorized {
		return nil
	}
	auth, err := scheduler.deliverer.RequestAuthorization(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	if !auth.Granted {
		if auth.Reason != "" {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, auth.Reason)
		}
		return ErrPermissionDenied
	}
	scheduler.authorized = true
	return nil
}

// cancelArmed disarms every kind matched by shouldCancel. Deliverers without
// cancellation rely on suppression when the reminder comes due.
func (scheduler *NotificationScheduler) cancelArmed(ctx context.Context, shouldCancel func(models.ReminderKind) bool) error {
	scheduler.mu.Lock()
	tokens := make(map[models.ReminderKind]string)
	for kind, reminder := range scheduler.armed {
		if !shouldCancel(kind) {
			continue
		}
		tokens[kind] = reminder.token
		delete(scheduler.armed, kind)
		scheduler.states[kind] = models.ReminderDisabled
	}
	scheduler.mu.Unlock()

	canceller, ok := scheduler.deliverer.(Canceller)
	if !ok {
		return nil
	}

	var errs []error
	for kind, token := range tokens {
		if err := canceller.Cancel(ctx, token); err != nil {
			errs = append(errs, fmt.Errorf("cancel %s: %w", kind, err))
		}
	}
	return errors.Join(errs...)
}
