package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/cyclecast/internal/models"
	"github.com/terraincognita07/cyclecast/internal/services"
)

type scheduledReminderResponse struct {
	Kind   models.ReminderKind `json:"kind"`
	FireAt time.Time           `json:"fire_at"`
	Title  string              `json:"title"`
	Body   string              `json:"body"`
	Token  string              `json:"token"`
}

type failedReminderResponse struct {
	Kind   models.ReminderKind `json:"kind"`
	FireAt time.Time           `json:"fire_at"`
	Error  string              `json:"error"`
}

type pendingReminderResponse struct {
	Token  string    `json:"token"`
	Kind   string    `json:"kind"`
	FireAt time.Time `json:"fire_at"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
}

// ScheduleReminders arms reminders for the stored cycle and preferences.
func (handler *Handler) ScheduleReminders(c *fiber.Ctx) error {
	ctx := c.UserContext()
	session := handler.sessions.Load(ctx)
	if session.Input == nil {
		return apiError(c, fiber.StatusBadRequest, "last period start is required")
	}
	if !session.NotificationsEnabled {
		return apiError(c, fiber.StatusConflict, "notifications are disabled")
	}

	now := handler.now()
	prediction, err := services.PredictCycle(*session.Input, now, handler.location)
	if err != nil {
		return cycleInputError(c, err)
	}
	prefs := models.DefaultNotificationPreferences()
	if session.Preferences != nil {
		prefs = *session.Preferences
	}

	var outcome services.ScheduleOutcome
	select {
	case outcome = <-handler.scheduler.ScheduleRemindersAsync(ctx, prediction, prefs, now):
	case <-ctx.Done():
		return apiError(c, fiber.StatusServiceUnavailable, "request cancelled")
	}

	switch {
	case errors.Is(outcome.Err, services.ErrPermissionDenied):
		return apiError(c, fiber.StatusForbidden, outcome.Err.Error())
	case errors.Is(outcome.Err, services.ErrInvalidReminderDays):
		return apiError(c, fiber.StatusUnprocessableEntity, outcome.Err.Error())
	case errors.Is(outcome.Err, services.ErrSchedulerClosed):
		return apiError(c, fiber.StatusServiceUnavailable, "scheduler is shutting down")
	case outcome.Err != nil:
		return handler.internalError(c, outcome.Err, "failed to schedule reminders")
	}

	scheduled := make([]scheduledReminderResponse, 0, len(outcome.Result.Scheduled))
	for _, reminder := range outcome.Result.Scheduled {
		scheduled = append(scheduled, scheduledReminderResponse{
			Kind:   reminder.Request.Kind,
			FireAt: reminder.Request.FireAt,
			Title:  reminder.Request.Title,
			Body:   reminder.Request.Body,
			Token:  reminder.Token,
		})
	}
	failed := make([]failedReminderResponse, 0, len(outcome.Result.Failed))
	for _, reminder := range outcome.Result.Failed {
		failed = append(failed, failedReminderResponse{
			Kind:   reminder.Request.Kind,
			FireAt: reminder.Request.FireAt,
			Error:  reminder.Err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"scheduled": scheduled,
		"failed":    failed,
	})
}

func (handler *Handler) ListReminders(c *fiber.Ctx) error {
	pending, err := handler.reminders.ListPending(c.UserContext())
	if err != nil {
		return handler.internalError(c, err, "failed to load reminders")
	}

	items := make([]pendingReminderResponse, 0, len(pending))
	for _, reminder := range pending {
		items = append(items, pendingReminderResponse{
			Token:  reminder.Token,
			Kind:   reminder.Kind,
			FireAt: reminder.FireAt,
			Title:  reminder.Title,
			Body:   reminder.Body,
		})
	}
	return c.JSON(fiber.Map{
		"states":  handler.scheduler.States(),
		"pending": items,
	})
}
