package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	registerAPIRoutes(app, handler)
}

func registerAPIRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api")

	access := api.Group("/access")
	access.Post("/login", handler.Login)
	access.Put("/passcode", handler.AccessRequired, handler.SetPasscode)
	access.Delete("/passcode", handler.AccessRequired, handler.ClearPasscode)

	session := api.Group("/session", handler.AccessRequired)
	session.Get("", handler.GetSession)
	session.Put("/input", handler.UpdateCycleInput)
	session.Put("/preferences", handler.UpdatePreferences)

	api.Post("/predictions", handler.AccessRequired, handler.Predict)

	reminders := api.Group("/reminders", handler.AccessRequired)
	reminders.Get("", handler.ListReminders)
	reminders.Post("", handler.ScheduleReminders)

	symptoms := api.Group("/symptoms", handler.AccessRequired)
	symptoms.Get("/catalog", handler.GetSymptomCatalog)
	symptoms.Post("/log", handler.LogSymptoms)
	symptoms.Get("/history", handler.GetSymptomHistory)
	symptoms.Get("/stats", handler.GetSymptomStats)

	moods := api.Group("/moods", handler.AccessRequired)
	moods.Post("", handler.LogMood)
	moods.Get("/history", handler.GetMoodHistory)
	moods.Get("/today", handler.GetTodaysMood)
	moods.Get("/stats", handler.GetMoodStats)
}
