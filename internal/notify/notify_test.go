package notify

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/terraincognita07/cyclecast/internal/db"
	"github.com/terraincognita07/cyclecast/internal/models"
	"github.com/terraincognita07/cyclecast/internal/services"
)

type recordingSender struct {
	mu      sync.Mutex
	sent    []models.PendingReminder
	sendErr error
	denied  bool
}

func (sender *recordingSender) Channel() string {
	return "recording"
}

func (sender *recordingSender) Authorize(context.Context) (services.AuthResult, error) {
	if sender.denied {
		return services.AuthResult{Granted: false, Reason: "denied"}, nil
	}
	return services.AuthResult{Granted: true}, nil
}

func (sender *recordingSender) Send(_ context.Context, reminder models.PendingReminder) error {
	sender.mu.Lock()
	defer sender.mu.Unlock()
	if sender.sendErr != nil {
		return sender.sendErr
	}
	sender.sent = append(sender.sent, reminder)
	return nil
}

type staticSessions struct {
	session services.Session
}

func (source staticSessions) Load(context.Context) services.Session {
	return source.session
}

func quietLogger() logrus.FieldLogger {
	log, _ := test.NewNullLogger()
	return log
}

func openTestRepositories(t *testing.T) *db.Repositories {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "cyclecast-notify.db"), quietLogger())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("open sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db.NewRepositories(database)
}

func TestQueueDelivererEnqueuesAndCancels(t *testing.T) {
	repos := openTestRepositories(t)
	deliverer := NewQueueDeliverer(repos.Reminders, &recordingSender{})
	ctx := context.Background()

	fireAt := time.Date(2024, time.January, 22, 0, 0, 0, 0, time.FixedZone("UTC+3", 3*60*60))
	ack, err := deliverer.Deliver(ctx, models.NotificationRequest{
		Kind:   models.ReminderBeforePeriod,
		FireAt: fireAt,
		Title:  "Period Reminder",
		Body:   "Your period is expected in 7 days.",
	})
	if err != nil {
		t.Fatalf("Deliver() unexpected error: %v", err)
	}
	if ack.Token == "" {
		t.Fatal("expected a delivery token")
	}

	stored, found, err := repos.Reminders.FindByToken(ctx, ack.Token)
	if err != nil || !found {
		t.Fatalf("expected queued reminder, found=%v err=%v", found, err)
	}
	if !stored.FireAt.Equal(fireAt) || stored.Status != models.ReminderStatusPending {
		t.Fatalf("unexpected stored reminder %#v", stored)
	}

	if err := deliverer.Cancel(ctx, ack.Token); err != nil {
		t.Fatalf("Cancel() unexpected error: %v", err)
	}
	if err := deliverer.Cancel(ctx, ack.Token); err != nil {
		t.Fatalf("second Cancel() unexpected error: %v", err)
	}
	stored, _, _ = repos.Reminders.FindByToken(ctx, ack.Token)
	if stored.Status != models.ReminderStatusCancelled {
		t.Fatalf("expected cancelled reminder, got %q", stored.Status)
	}
}

func TestQueueDelivererAuthorizationFollowsSender(t *testing.T) {
	t.Parallel()

	granted, err := NewQueueDeliverer(nil, &recordingSender{}).RequestAuthorization(context.Background())
	if err != nil || !granted.Granted {
		t.Fatalf("expected granted authorization, got %#v err=%v", granted, err)
	}

	denied, err := NewQueueDeliverer(nil, nil).RequestAuthorization(context.Background())
	if err != nil || denied.Granted {
		t.Fatalf("expected none channel to deny authorization, got %#v err=%v", denied, err)
	}
}

func TestDispatchDueSettlesEveryReminder(t *testing.T) {
	repos := openTestRepositories(t)
	ctx := context.Background()
	now := time.Date(2024, time.January, 22, 9, 0, 0, 0, time.UTC)

	reminders := []*models.PendingReminder{
		{Token: "sent", Kind: string(models.ReminderBeforePeriod), FireAt: now.Add(-time.Hour), Title: "Period Reminder", Body: "soon"},
		{Token: "suppressed", Kind: string(models.ReminderOvulation), FireAt: now.Add(-2 * time.Hour), Title: "Ovulation Day", Body: "today"},
		{Token: "expired", Kind: string(models.ReminderPeriodStart), FireAt: now.Add(-48 * time.Hour), Title: "Period Start", Body: "today"},
	}
	for _, reminder := range reminders {
		if err := repos.Reminders.EnqueueReplacingKind(ctx, reminder); err != nil {
			t.Fatalf("enqueue %s: %v", reminder.Token, err)
		}
	}

	sender := &recordingSender{}
	delivered := make([]string, 0)
	dispatcher := NewDispatcher(repos.Reminders, sender, staticSessions{session: services.Session{
		NotificationsEnabled: true,
		Preferences: &models.NotificationPreferences{
			BeforePeriodEnabled:  true,
			ReminderDaysBefore:   7,
			OnPeriodStartEnabled: true,
			OnOvulationEnabled:   false,
		},
	}}, DispatcherOptions{
		Logger:      quietLogger(),
		OnDelivered: func(token string) { delivered = append(delivered, token) },
	})

	report, err := dispatcher.DispatchDue(ctx, now)
	if err != nil {
		t.Fatalf("DispatchDue() unexpected error: %v", err)
	}
	if report != (DispatchReport{Sent: 1, Suppressed: 1, Expired: 1}) {
		t.Fatalf("unexpected dispatch report %#v", report)
	}
	if len(sender.sent) != 1 || sender.sent[0].Token != "sent" {
		t.Fatalf("expected only the due before-period reminder to be sent, got %#v", sender.sent)
	}
	if len(delivered) != 1 || delivered[0] != "sent" {
		t.Fatalf("expected delivery callback for sent reminder, got %v", delivered)
	}

	expectedStatus := map[string]string{
		"sent":       models.ReminderStatusSent,
		"suppressed": models.ReminderStatusSuppressed,
		"expired":    models.ReminderStatusExpired,
	}
	for token, status := range expectedStatus {
		stored, _, err := repos.Reminders.FindByToken(ctx, token)
		if err != nil {
			t.Fatalf("find %s: %v", token, err)
		}
		if stored.Status != status {
			t.Fatalf("expected %s to be %s, got %s", token, status, stored.Status)
		}
	}

	report, err = dispatcher.DispatchDue(ctx, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("second DispatchDue() unexpected error: %v", err)
	}
	if report != (DispatchReport{}) {
		t.Fatalf("expected nothing left to dispatch, got %#v", report)
	}
}

func TestDispatchDueSuppressesEverythingWhenNotificationsDisabled(t *testing.T) {
	repos := openTestRepositories(t)
	ctx := context.Background()
	now := time.Date(2024, time.January, 22, 9, 0, 0, 0, time.UTC)

	reminder := &models.PendingReminder{Token: "muted", Kind: string(models.ReminderBeforePeriod), FireAt: now.Add(-time.Hour), Title: "Period Reminder", Body: "soon"}
	if err := repos.Reminders.EnqueueReplacingKind(ctx, reminder); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	prefs := models.DefaultNotificationPreferences()
	sender := &recordingSender{}
	dispatcher := NewDispatcher(repos.Reminders, sender, staticSessions{session: services.Session{
		NotificationsEnabled: false,
		Preferences:          &prefs,
	}}, DispatcherOptions{Logger: quietLogger()})

	report, err := dispatcher.DispatchDue(ctx, now)
	if err != nil {
		t.Fatalf("DispatchDue() unexpected error: %v", err)
	}
	if report != (DispatchReport{Suppressed: 1}) {
		t.Fatalf("expected one suppressed reminder, got %#v", report)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected nothing to be sent, got %#v", sender.sent)
	}
	stored, _, err := repos.Reminders.FindByToken(ctx, "muted")
	if err != nil {
		t.Fatalf("find muted: %v", err)
	}
	if stored.Status != models.ReminderStatusSuppressed {
		t.Fatalf("expected muted reminder to be suppressed, got %s", stored.Status)
	}
}

func TestDispatchDueRecordsSendFailure(t *testing.T) {
	repos := openTestRepositories(t)
	ctx := context.Background()
	now := time.Date(2024, time.January, 29, 0, 5, 0, 0, time.UTC)

	reminder := &models.PendingReminder{Token: "failing", Kind: string(models.ReminderPeriodStart), FireAt: now.Add(-5 * time.Minute), Title: "Period Start", Body: "today"}
	if err := repos.Reminders.EnqueueReplacingKind(ctx, reminder); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	sender := &recordingSender{sendErr: errors.New("telegram unreachable")}
	dispatcher := NewDispatcher(repos.Reminders, sender, nil, DispatcherOptions{Logger: quietLogger()})

	report, err := dispatcher.DispatchDue(ctx, now)
	if err != nil {
		t.Fatalf("DispatchDue() unexpected error: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("expected one failed reminder, got %#v", report)
	}
	stored, _, _ := repos.Reminders.FindByToken(ctx, "failing")
	if stored.Status != models.ReminderStatusFailed || stored.LastError != "telegram unreachable" {
		t.Fatalf("expected failure to be recorded, got status=%q last_error=%q", stored.Status, stored.LastError)
	}
}

func TestDispatcherRejectsInvalidSpec(t *testing.T) {
	t.Parallel()

	dispatcher := NewDispatcher(nil, nil, nil, DispatcherOptions{Spec: "every now and then", Logger: quietLogger()})
	if err := dispatcher.Start(); err == nil {
		t.Fatal("expected invalid cron spec to be rejected")
	}
}

func TestDispatcherStartAndStop(t *testing.T) {
	t.Parallel()

	dispatcher := NewDispatcher(nil, &recordingSender{}, nil, DispatcherOptions{Spec: "@every 1h", Logger: quietLogger()})
	if err := dispatcher.Start(); err != nil {
		t.Fatalf("Start() unexpected error: %v", err)
	}
	dispatcher.Stop()
}

func TestSchedulerQueueAndDispatcherCancelDisabledReminder(t *testing.T) {
	repos := openTestRepositories(t)
	ctx := context.Background()

	sender := &recordingSender{}
	scheduler := services.NewNotificationScheduler(NewQueueDeliverer(repos.Reminders, sender), services.SchedulerOptions{Logger: quietLogger()})
	defer scheduler.Close()

	prediction := services.ComputeCyclePrediction(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), 28)
	prefs := models.DefaultNotificationPreferences()
	result, err := scheduler.ScheduleReminders(ctx, prediction, prefs, time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ScheduleReminders() unexpected error: %v", err)
	}
	if len(result.Scheduled) != 2 {
		t.Fatalf("expected 2 queued reminders, got %d", len(result.Scheduled))
	}

	prefs.BeforePeriodEnabled = false
	if err := scheduler.ApplyPreferences(ctx, prefs); err != nil {
		t.Fatalf("ApplyPreferences() unexpected error: %v", err)
	}

	pending, err := repos.Reminders.ListPending(ctx)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Kind != string(models.ReminderPeriodStart) {
		t.Fatalf("expected only the period start reminder to stay queued, got %#v", pending)
	}

	dispatcher := NewDispatcher(repos.Reminders, sender, staticSessions{session: services.Session{NotificationsEnabled: true, Preferences: &prefs}}, DispatcherOptions{
		Logger:      quietLogger(),
		OnDelivered: scheduler.MarkFired,
	})
	report, err := dispatcher.DispatchDue(ctx, time.Date(2024, time.January, 29, 0, 1, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("DispatchDue() unexpected error: %v", err)
	}
	if report.Sent != 1 {
		t.Fatalf("expected the period start reminder to be sent, got %#v", report)
	}
	if state := scheduler.States()[models.ReminderPeriodStart]; state != models.ReminderFired {
		t.Fatalf("expected period start reminder to be fired, got %s", state)
	}
}
