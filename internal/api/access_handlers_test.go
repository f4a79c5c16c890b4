package api

import (
	"net/http"
	"testing"
	"time"
)

func TestAccessRoutesAreOpenWithoutPasscode(t *testing.T) {
	app := newTestApp(t)

	expectStatus(t, app.do(t, http.MethodGet, "/api/session", ""), http.StatusOK)

	response := app.do(t, http.MethodPost, "/api/access/login", `{"passcode":"1234"}`)
	expectStatus(t, response, http.StatusConflict)
}

func TestPasscodeLocksAPIUntilLogin(t *testing.T) {
	app := newTestApp(t)

	expectStatus(t, app.do(t, http.MethodPut, "/api/access/passcode", `{"passcode":"12"}`), http.StatusUnprocessableEntity)
	expectStatus(t, app.do(t, http.MethodPut, "/api/access/passcode", `{"passcode":"river-stone"}`), http.StatusOK)

	expectStatus(t, app.do(t, http.MethodGet, "/api/session", ""), http.StatusUnauthorized)
	expectStatus(t, app.do(t, http.MethodGet, "/api/session", "", "Authorization", "Bearer not-a-token"), http.StatusUnauthorized)
	expectStatus(t, app.do(t, http.MethodGet, "/healthz", ""), http.StatusOK)

	response := app.do(t, http.MethodPost, "/api/access/login", `{"passcode":"wrong-stone"}`)
	expectStatus(t, response, http.StatusUnauthorized)

	response = app.do(t, http.MethodPost, "/api/access/login", `{"passcode":"river-stone"}`)
	expectStatus(t, response, http.StatusOK)
	login := decodeJSON[struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}](t, response)
	if login.Token == "" {
		t.Fatal("expected access token")
	}
	if !login.ExpiresAt.Equal(testNow.Add(defaultAccessTokenTTL)) {
		t.Fatalf("expected expiry %s, got %s", testNow.Add(defaultAccessTokenTTL), login.ExpiresAt)
	}

	bearer := "Bearer " + login.Token
	expectStatus(t, app.do(t, http.MethodGet, "/api/session", "", "Authorization", bearer), http.StatusOK)

	expectStatus(t, app.do(t, http.MethodPut, "/api/access/passcode", `{"current":"wrong-stone","passcode":"new-stone"}`, "Authorization", bearer), http.StatusForbidden)
	expectStatus(t, app.do(t, http.MethodDelete, "/api/access/passcode", `{"current":"river-stone"}`, "Authorization", bearer), http.StatusOK)
	expectStatus(t, app.do(t, http.MethodGet, "/api/session", ""), http.StatusOK)
}

func TestLoginIsRateLimited(t *testing.T) {
	app := newTestApp(t)

	expectStatus(t, app.do(t, http.MethodPut, "/api/access/passcode", `{"passcode":"river-stone"}`), http.StatusOK)
	for attempt := 0; attempt < loginAttemptLimit; attempt++ {
		expectStatus(t, app.do(t, http.MethodPost, "/api/access/login", `{"passcode":"wrong-stone"}`), http.StatusUnauthorized)
	}

	response := app.do(t, http.MethodPost, "/api/access/login", `{"passcode":"river-stone"}`)
	expectStatus(t, response, http.StatusTooManyRequests)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	app := newTestApp(t)
	expectStatus(t, app.do(t, http.MethodPut, "/api/access/passcode", `{"passcode":"river-stone"}`), http.StatusOK)

	handler := &Handler{secretKey: []byte("test-secret-key-0123456789abcdef")}
	token, _, err := handler.buildToken(testNow.Add(-48*time.Hour), defaultAccessTokenTTL)
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	expectStatus(t, app.do(t, http.MethodGet, "/api/session", "", "Authorization", "Bearer "+token), http.StatusUnauthorized)
}

func TestTokenSignedWithAnotherKeyIsRejected(t *testing.T) {
	app := newTestApp(t)
	expectStatus(t, app.do(t, http.MethodPut, "/api/access/passcode", `{"passcode":"river-stone"}`), http.StatusOK)

	handler := &Handler{secretKey: []byte("another-secret-key-0123456789abcd")}
	token, _, err := handler.buildToken(testNow, defaultAccessTokenTTL)
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	expectStatus(t, app.do(t, http.MethodGet, "/api/session", "", "Authorization", "Bearer "+token), http.StatusUnauthorized)
}

func TestAttemptLimiterPrunesOutsideWindow(t *testing.T) {
	t.Parallel()

	limiter := newAttemptLimiter()
	const key = "192.0.2.10"

	for offset := 0; offset < loginAttemptLimit-1; offset++ {
		limiter.addFailure(key, testNow.Add(-loginAttemptWindow-time.Duration(offset+1)*time.Minute), loginAttemptWindow)
	}
	limiter.addFailure(key, testNow.Add(-time.Minute), loginAttemptWindow)
	if limiter.tooManyRecent(key, testNow, 2, loginAttemptWindow) {
		t.Fatal("expected attempts older than the window to be pruned")
	}

	limiter.addFailure(key, testNow, loginAttemptWindow)
	if !limiter.tooManyRecent(key, testNow, 2, loginAttemptWindow) {
		t.Fatal("expected two recent failures to hit a limit of 2")
	}
	if limiter.tooManyRecent("198.51.100.7", testNow, 1, loginAttemptWindow) {
		t.Fatal("expected other clients to be unaffected")
	}

	limiter.reset(key)
	if limiter.tooManyRecent(key, testNow, 1, loginAttemptWindow) {
		t.Fatal("expected no attempts after reset")
	}
}
