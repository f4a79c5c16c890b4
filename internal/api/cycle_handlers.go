package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/cyclecast/internal/models"
	"github.com/terraincognita07/cyclecast/internal/services"
)

var (
	errInvalidInput       = errors.New("invalid input")
	errInvalidPeriodStart = errors.New("invalid last period start")
)

// cycleInputPayload keeps CycleLength a pointer so an omitted length can
// default while an explicit 0 is rejected.
type cycleInputPayload struct {
	LastPeriodStart string `json:"last_period_start"`
	CycleLength     *int   `json:"cycle_length"`
}

type cycleInputResponse struct {
	LastPeriodStart string `json:"last_period_start"`
	CycleLength     int    `json:"cycle_length"`
}

type preferencesPayload struct {
	BeforePeriodEnabled  bool  `json:"before_period_enabled"`
	ReminderDaysBefore   int   `json:"reminder_days_before"`
	OnPeriodStartEnabled bool  `json:"on_period_start_enabled"`
	OnOvulationEnabled   bool  `json:"on_ovulation_enabled"`
	NotificationsEnabled *bool `json:"notifications_enabled,omitempty"`
}

type sessionResponse struct {
	Input                *cycleInputResponse             `json:"input"`
	Preferences          *models.NotificationPreferences `json:"preferences"`
	NotificationsEnabled bool                            `json:"notifications_enabled"`
	Returning            bool                            `json:"returning"`
}

type predictionResponse struct {
	LastPeriodStart      string `json:"last_period_start"`
	CycleLength          int    `json:"cycle_length"`
	NextPeriod           string `json:"next_period"`
	OvulationDay         string `json:"ovulation_day"`
	FertileWindowStart   string `json:"fertile_window_start"`
	FertileWindowEnd     string `json:"fertile_window_end"`
	FollicularPhaseStart string `json:"follicular_phase_start"`
	FollicularPhaseEnd   string `json:"follicular_phase_end"`
	HasFollicularPhase   bool   `json:"has_follicular_phase"`
	Today                string `json:"today"`
	CycleDay             int    `json:"cycle_day"`
	Phase                string `json:"phase"`
	PhaseLabel           string `json:"phase_label"`
}

// GetSession reports the stored session. Returning is true once a cycle
// input has been saved.
func (handler *Handler) GetSession(c *fiber.Ctx) error {
	ctx := c.UserContext()
	response := buildSessionResponse(handler.sessions.Load(ctx))
	response.Returning = handler.sessions.HasStoredInput(ctx)
	return c.JSON(response)
}

func (handler *Handler) UpdateCycleInput(c *fiber.Ctx) error {
	payload := cycleInputPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, errInvalidInput.Error())
	}

	input, err := handler.cycleInputFromPayload(payload)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, errInvalidPeriodStart.Error())
	}
	if err := services.ValidateCycleInput(input, handler.now(), handler.location); err != nil {
		return cycleInputError(c, err)
	}

	ctx := c.UserContext()
	session := handler.sessions.Load(ctx)
	if err := handler.sessions.Save(ctx, &input, session.Preferences); err != nil {
		return handler.internalError(c, err, "failed to save session")
	}
	handler.rescheduleReminders(ctx, input, session)

	response := buildSessionResponse(handler.sessions.Load(ctx))
	response.Returning = true
	return c.JSON(response)
}

// rescheduleReminders drops every queued reminder built from the previous
// input and, when notifications are on, schedules the new ones.
func (handler *Handler) rescheduleReminders(ctx context.Context, input models.CycleInput, session services.Session) {
	if err := handler.scheduler.ApplyPreferences(ctx, models.NotificationPreferences{}); err != nil {
		handler.log.WithError(err).Warn("api: cancel armed reminders")
	}
	if _, err := handler.reminders.CancelAllPending(ctx); err != nil {
		handler.log.WithError(err).Warn("api: cancel queued reminders")
	}
	if !session.NotificationsEnabled {
		return
	}

	prefs := models.DefaultNotificationPreferences()
	if session.Preferences != nil {
		prefs = *session.Preferences
	}
	prediction := services.ComputeCyclePrediction(services.DateAtLocation(input.LastPeriodStart, handler.location), input.CycleLength)
	result, err := handler.scheduler.ScheduleReminders(ctx, prediction, prefs, handler.now())
	if err != nil {
		handler.log.WithError(err).Warn("api: reschedule reminders")
		return
	}
	for _, failed := range result.Failed {
		handler.log.WithError(failed.Err).WithField("kind", failed.Request.Kind).Warn("api: reschedule reminder failed")
	}
}

// UpdatePreferences stores the reminder toggles and cancels any armed
// reminder whose toggle was switched off.
func (handler *Handler) UpdatePreferences(c *fiber.Ctx) error {
	payload := preferencesPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	prefs := models.NotificationPreferences{
		BeforePeriodEnabled:  payload.BeforePeriodEnabled,
		ReminderDaysBefore:   payload.ReminderDaysBefore,
		OnPeriodStartEnabled: payload.OnPeriodStartEnabled,
		OnOvulationEnabled:   payload.OnOvulationEnabled,
	}
	if prefs.ReminderDaysBefore == 0 {
		prefs.ReminderDaysBefore = models.DefaultReminderDaysBefore
	}
	if err := prefs.Validate(); err != nil {
		return apiError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	ctx := c.UserContext()
	session := handler.sessions.Load(ctx)
	enabled := session.NotificationsEnabled
	if payload.NotificationsEnabled != nil {
		enabled = *payload.NotificationsEnabled
	}
	if err := handler.sessions.SaveWithNotifications(ctx, session.Input, &prefs, enabled); err != nil {
		return handler.internalError(c, err, "failed to save session")
	}

	effective := prefs
	if !enabled {
		effective = models.NotificationPreferences{ReminderDaysBefore: prefs.ReminderDaysBefore}
	}
	if err := handler.scheduler.ApplyPreferences(ctx, effective); err != nil {
		handler.log.WithError(err).Warn("api: cancel disabled reminders")
	}
	return c.JSON(buildSessionResponse(handler.sessions.Load(ctx)))
}

// Predict uses the posted cycle input when present, the stored one otherwise.
func (handler *Handler) Predict(c *fiber.Ctx) error {
	input, err := handler.resolveCycleInput(c)
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}

	now := handler.now()
	prediction, err := services.PredictCycle(input, now, handler.location)
	if err != nil {
		return cycleInputError(c, err)
	}
	return c.JSON(handler.buildPredictionResponse(prediction, now, handler.requestLanguage(c)))
}

func (handler *Handler) resolveCycleInput(c *fiber.Ctx) (models.CycleInput, error) {
	if hasBody(c) {
		payload := cycleInputPayload{}
		if err := c.BodyParser(&payload); err != nil {
			return models.CycleInput{}, errInvalidInput
		}
		input, err := handler.cycleInputFromPayload(payload)
		if err != nil {
			return models.CycleInput{}, errInvalidPeriodStart
		}
		return input, nil
	}

	session := handler.sessions.Load(c.UserContext())
	if session.Input == nil {
		return models.CycleInput{}, nil
	}
	return *session.Input, nil
}

func (handler *Handler) cycleInputFromPayload(payload cycleInputPayload) (models.CycleInput, error) {
	input := models.CycleInput{CycleLength: models.DefaultCycleLength}
	if payload.CycleLength != nil {
		input.CycleLength = *payload.CycleLength
	}
	if payload.LastPeriodStart == "" {
		return input, nil
	}
	start, err := handler.parseDay(payload.LastPeriodStart)
	if err != nil {
		return models.CycleInput{}, err
	}
	input.LastPeriodStart = start
	return input, nil
}

func cycleInputError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrMissingCycleInput):
		return apiError(c, fiber.StatusBadRequest, "last period start is required")
	case errors.Is(err, services.ErrInvalidCycleInput):
		return apiError(c, fiber.StatusUnprocessableEntity, err.Error())
	default:
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}
}

func (handler *Handler) buildPredictionResponse(prediction models.CyclePrediction, now time.Time, language string) predictionResponse {
	today := services.DateAtLocation(now, handler.location)
	phase := services.DetectCyclePhase(prediction, today)
	return predictionResponse{
		LastPeriodStart:      formatDay(prediction.LastPeriodStart),
		CycleLength:          prediction.CycleLength,
		NextPeriod:           formatDay(prediction.NextPeriod),
		OvulationDay:         formatDay(prediction.OvulationDay),
		FertileWindowStart:   formatDay(prediction.FertileWindowStart),
		FertileWindowEnd:     formatDay(prediction.FertileWindowEnd),
		FollicularPhaseStart: formatDay(prediction.FollicularPhaseStart),
		FollicularPhaseEnd:   formatDay(prediction.FollicularPhaseEnd),
		HasFollicularPhase:   prediction.HasFollicularPhase(),
		Today:                formatDay(today),
		CycleDay:             services.CycleDay(prediction, today),
		Phase:                string(phase),
		PhaseLabel:           handler.i18n.Translate(language, "phase."+string(phase)),
	}
}

func buildSessionResponse(session services.Session) sessionResponse {
	response := sessionResponse{
		Preferences:          session.Preferences,
		NotificationsEnabled: session.NotificationsEnabled,
	}
	if session.Input != nil {
		response.Input = &cycleInputResponse{
			LastPeriodStart: formatDay(session.Input.LastPeriodStart),
			CycleLength:     session.Input.CycleLength,
		}
	}
	return response
}
