package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/cyclecast/internal/i18n"
	"github.com/terraincognita07/cyclecast/internal/models"
	"github.com/terraincognita07/cyclecast/internal/services"
)

const (
	defaultAccessTokenTTL = 24 * time.Hour
	loginAttemptLimit     = 5
	loginAttemptWindow    = 15 * time.Minute
)

// ReminderQueue is the view of the delivery queue the HTTP layer needs.
type ReminderQueue interface {
	ListPending(ctx context.Context) ([]models.PendingReminder, error)
	CancelAllPending(ctx context.Context) (int64, error)
}

// Dependencies carries everything the HTTP layer needs. Now defaults to
// time.Now and Location to UTC.
type Dependencies struct {
	Sessions  *services.SessionStore
	Scheduler *services.NotificationScheduler
	Reminders ReminderQueue
	Symptoms  *services.SymptomLogService
	Moods     *services.MoodService
	Access    *services.AccessService
	I18n      *i18n.Manager
	SecretKey string
	Location  *time.Location
	Logger    logrus.FieldLogger
	Now       func() time.Time
}

type Handler struct {
	sessions     *services.SessionStore
	scheduler    *services.NotificationScheduler
	reminders    ReminderQueue
	symptoms     *services.SymptomLogService
	moods        *services.MoodService
	access       *services.AccessService
	i18n         *i18n.Manager
	secretKey    []byte
	location     *time.Location
	log          logrus.FieldLogger
	now          func() time.Time
	loginLimiter *attemptLimiter
}

func NewHandler(deps Dependencies) (*Handler, error) {
	switch {
	case deps.Sessions == nil:
		return nil, errors.New("session store is required")
	case deps.Scheduler == nil:
		return nil, errors.New("notification scheduler is required")
	case deps.Reminders == nil:
		return nil, errors.New("reminder store is required")
	case deps.Symptoms == nil || deps.Moods == nil:
		return nil, errors.New("log services are required")
	case deps.Access == nil:
		return nil, errors.New("access service is required")
	case deps.I18n == nil:
		return nil, errors.New("i18n manager is required")
	case strings.TrimSpace(deps.SecretKey) == "":
		return nil, errors.New("secret key is required")
	}

	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Handler{
		sessions:     deps.Sessions,
		scheduler:    deps.Scheduler,
		reminders:    deps.Reminders,
		symptoms:     deps.Symptoms,
		moods:        deps.Moods,
		access:       deps.Access,
		i18n:         deps.I18n,
		secretKey:    []byte(deps.SecretKey),
		location:     deps.Location,
		log:          deps.Logger,
		now:          deps.Now,
		loginLimiter: newAttemptLimiter(),
	}, nil
}
