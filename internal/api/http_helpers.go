package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// internalError logs err and answers with a generic message.
func (handler *Handler) internalError(c *fiber.Ctx, err error, message string) error {
	handler.log.WithError(err).WithField("path", c.Path()).Error("api: " + message)
	return apiError(c, fiber.StatusInternalServerError, message)
}

// hasBody reports whether the request carries a non-blank payload.
func hasBody(c *fiber.Ctx) bool {
	return strings.TrimSpace(string(c.Body())) != ""
}

func (handler *Handler) parseDay(raw string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, strings.TrimSpace(raw), handler.location)
}

func formatDay(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Format(dateLayout)
}

// requestLanguage prefers ?lang and falls back to Accept-Language.
func (handler *Handler) requestLanguage(c *fiber.Ctx) string {
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return handler.i18n.NormalizeLanguage(lang)
	}
	return handler.i18n.DetectFromAcceptLanguage(c.Get(fiber.HeaderAcceptLanguage))
}

func (handler *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"languages": handler.i18n.SupportedLanguages(),
	})
}
