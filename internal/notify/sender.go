package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/cyclecast/internal/models"
	"github.com/terraincognita07/cyclecast/internal/services"
)

const (
	ChannelTelegram = "telegram"
	ChannelLog      = "log"
	ChannelNone     = "none"
)

var (
	ErrDeliveryDisabled = errors.New("reminder delivery is disabled")
	ErrUnknownChannel   = errors.New("unknown notification channel")
)

// Sender pushes a due reminder to the user.
type Sender interface {
	Channel() string
	Authorize(ctx context.Context) (services.AuthResult, error)
	Send(ctx context.Context, reminder models.PendingReminder) error
}

// LogSender writes reminders to the application log.
type LogSender struct {
	log logrus.FieldLogger
}

func NewLogSender(log logrus.FieldLogger) *LogSender {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogSender{log: log}
}

func (sender *LogSender) Channel() string {
	return ChannelLog
}

func (sender *LogSender) Authorize(context.Context) (services.AuthResult, error) {
	return services.AuthResult{Granted: true}, nil
}

func (sender *LogSender) Send(_ context.Context, reminder models.PendingReminder) error {
	sender.log.WithFields(logrus.Fields{
		"kind":    reminder.Kind,
		"token":   reminder.Token,
		"fire_at": reminder.FireAt,
	}).Infof("reminder: %s: %s", reminder.Title, reminder.Body)
	return nil
}

// NoneSender refuses every authorization request.
type NoneSender struct{}

func (NoneSender) Channel() string {
	return ChannelNone
}

func (NoneSender) Authorize(context.Context) (services.AuthResult, error) {
	return services.AuthResult{Granted: false, Reason: "notifications are disabled"}, nil
}

func (NoneSender) Send(context.Context, models.PendingReminder) error {
	return ErrDeliveryDisabled
}

func formatReminderText(reminder models.PendingReminder) string {
	title := strings.TrimSpace(reminder.Title)
	body := strings.TrimSpace(reminder.Body)
	switch {
	case title == "":
		return body
	case body == "":
		return title
	default:
		return fmt.Sprintf("%s\n%s", title, body)
	}
}
