package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/terraincognita07/cyclecast/internal/db"
	"github.com/terraincognita07/cyclecast/internal/i18n"
	"github.com/terraincognita07/cyclecast/internal/notify"
	"github.com/terraincognita07/cyclecast/internal/services"
)

var testNow = time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)

type testApp struct {
	app       *fiber.App
	repos     *db.Repositories
	scheduler *services.NotificationScheduler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	log, _ := test.NewNullLogger()
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "cyclecast-api-test.db"), log)
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

	i18nManager, err := i18n.NewEmbeddedManager("en")
	if err != nil {
		t.Fatalf("init i18n: %v", err)
	}

	repos := db.NewRepositories(database)
	scheduler := services.NewNotificationScheduler(
		notify.NewQueueDeliverer(repos.Reminders, notify.NewLogSender(log)),
		services.SchedulerOptions{Logger: log},
	)
	t.Cleanup(scheduler.Close)

	handler, err := NewHandler(Dependencies{
		Sessions:  services.NewSessionStore(repos.KeyValues, time.UTC, log),
		Scheduler: scheduler,
		Reminders: repos.Reminders,
		Symptoms:  services.NewSymptomLogService(repos.SymptomLogs, time.UTC),
		Moods:     services.NewMoodService(repos.Moods, time.UTC),
		Access:    services.NewAccessService(repos.KeyValues),
		I18n:      i18nManager,
		SecretKey: "test-secret-key-0123456789abcdef",
		Location:  time.UTC,
		Logger:    log,
		Now:       func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("init handler: %v", err)
	}

	app := fiber.New()
	RegisterRoutes(app, handler)
	return &testApp{app: app, repos: repos, scheduler: scheduler}
}

func (app *testApp) do(t *testing.T, method string, path string, body string, headers ...string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	request := httptest.NewRequest(method, path, reader)
	if body != "" {
		request.Header.Set("Content-Type", "application/json")
	}
	for index := 0; index+1 < len(headers); index += 2 {
		request.Header.Set(headers[index], headers[index+1])
	}

	response, err := app.app.Test(request, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	t.Cleanup(func() {
		_ = response.Body.Close()
	})
	return response
}

func expectStatus(t *testing.T, response *http.Response, status int) {
	t.Helper()
	if response.StatusCode != status {
		payload, _ := io.ReadAll(response.Body)
		t.Fatalf("expected status %d, got %d: %s", status, response.StatusCode, string(payload))
	}
}

func decodeJSON[T any](t *testing.T, response *http.Response) T {
	t.Helper()

	var value T
	if err := json.NewDecoder(response.Body).Decode(&value); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return value
}

func errorMessage(t *testing.T, response *http.Response) string {
	t.Helper()
	return decodeJSON[map[string]string](t, response)["error"]
}
