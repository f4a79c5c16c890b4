package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/cyclecast/internal/services"
)

type symptomLogRequest struct {
	Date       string   `json:"date"`
	SymptomIDs []string `json:"symptom_ids"`
}

type moodRequest struct {
	Mood string `json:"mood"`
}

func (handler *Handler) GetSymptomCatalog(c *fiber.Ctx) error {
	return c.JSON(handler.symptoms.Catalog())
}

// LogSymptoms records symptoms for the given date, today when omitted.
func (handler *Handler) LogSymptoms(c *fiber.Ctx) error {
	request := symptomLogRequest{}
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	now := handler.now()
	day := now
	if strings.TrimSpace(request.Date) != "" {
		parsed, err := handler.parseDay(request.Date)
		if err != nil {
			return apiError(c, fiber.StatusBadRequest, "invalid date")
		}
		day = parsed
	}

	entry, err := handler.symptoms.LogSymptoms(c.UserContext(), day, request.SymptomIDs, now)
	switch {
	case errors.Is(err, services.ErrNoSymptomsSelected), errors.Is(err, services.ErrUnknownSymptom):
		return apiError(c, fiber.StatusBadRequest, err.Error())
	case err != nil:
		return handler.internalError(c, err, "failed to log symptoms")
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// GetSymptomHistory lists entries newest first; ?group=date groups them
// per calendar day.
func (handler *Handler) GetSymptomHistory(c *fiber.Ctx) error {
	if strings.EqualFold(c.Query("group"), "date") {
		days, err := handler.symptoms.HistoryByDate(c.UserContext())
		if err != nil {
			return handler.internalError(c, err, "failed to load symptom history")
		}
		return c.JSON(days)
	}

	entries, err := handler.symptoms.History(c.UserContext())
	if err != nil {
		return handler.internalError(c, err, "failed to load symptom history")
	}
	return c.JSON(entries)
}

func (handler *Handler) GetSymptomStats(c *fiber.Ctx) error {
	frequencies, err := handler.symptoms.Frequencies(c.UserContext())
	if err != nil {
		return handler.internalError(c, err, "failed to load symptom stats")
	}
	return c.JSON(frequencies)
}

func (handler *Handler) LogMood(c *fiber.Ctx) error {
	request := moodRequest{}
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	entry, err := handler.moods.LogMood(c.UserContext(), request.Mood, handler.now())
	switch {
	case errors.Is(err, services.ErrUnknownMood):
		return apiError(c, fiber.StatusBadRequest, err.Error())
	case err != nil:
		return handler.internalError(c, err, "failed to log mood")
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (handler *Handler) GetMoodHistory(c *fiber.Ctx) error {
	entries, err := handler.moods.History(c.UserContext())
	if err != nil {
		return handler.internalError(c, err, "failed to load mood history")
	}
	return c.JSON(entries)
}

func (handler *Handler) GetTodaysMood(c *fiber.Ctx) error {
	entry, found, err := handler.moods.TodaysMood(c.UserContext(), handler.now())
	if err != nil {
		return handler.internalError(c, err, "failed to load mood")
	}
	if !found {
		return c.JSON(fiber.Map{"mood": nil})
	}
	return c.JSON(fiber.Map{"mood": entry})
}

func (handler *Handler) GetMoodStats(c *fiber.Ctx) error {
	stats, err := handler.moods.MonthlyStats(c.UserContext(), handler.now())
	if err != nil {
		return handler.internalError(c, err, "failed to load mood stats")
	}
	return c.JSON(stats)
}
