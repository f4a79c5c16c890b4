package i18n

import (
	"errors"
	"testing"
	"testing/fstest"
)

func TestNewEmbeddedManagerNormalizesDefaultLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		language string
		expected string
	}{
		{name: "english", language: "en", expected: LangEN},
		{name: "russian region tag", language: "ru_RU", expected: LangRU},
		{name: "unsupported", language: "de", expected: LangEN},
		{name: "empty", language: "", expected: LangEN},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			manager, err := NewEmbeddedManager(tt.language)
			if err != nil {
				t.Fatalf("NewEmbeddedManager() unexpected error: %v", err)
			}
			if manager.DefaultLanguage() != tt.expected {
				t.Fatalf("expected default language %q, got %q", tt.expected, manager.DefaultLanguage())
			}
		})
	}
}

func TestTranslateFallsBackToDefaultLanguageAndKey(t *testing.T) {
	t.Parallel()

	locales := fstest.MapFS{
		"en.json": {Data: []byte(`{"greeting":"Hello","only.en":"English only"}`)},
		"ru.json": {Data: []byte(`{"greeting":"Привет"}`)},
	}
	manager, err := NewManager(LangEN, locales)
	if err != nil {
		t.Fatalf("NewManager() unexpected error: %v", err)
	}

	if got := manager.Translate("ru", "greeting"); got != "Привет" {
		t.Fatalf("expected russian greeting, got %q", got)
	}
	if got := manager.Translate("ru", "only.en"); got != "English only" {
		t.Fatalf("expected default language fallback, got %q", got)
	}
	if got := manager.Translate("ru", "missing.key"); got != "missing.key" {
		t.Fatalf("expected key fallback, got %q", got)
	}
}

func TestNewManagerRequiresEnglishAndRussian(t *testing.T) {
	t.Parallel()

	locales := fstest.MapFS{
		"en.json": {Data: []byte(`{"greeting":"Hello"}`)},
	}
	if _, err := NewManager(LangEN, locales); !errors.Is(err, ErrLocaleMissing) {
		t.Fatalf("expected ErrLocaleMissing, got %v", err)
	}
}

func TestDetectFromAcceptLanguage(t *testing.T) {
	t.Parallel()

	manager, err := NewEmbeddedManager(LangEN)
	if err != nil {
		t.Fatalf("NewEmbeddedManager() unexpected error: %v", err)
	}

	if got := manager.DetectFromAcceptLanguage("de-DE,ru;q=0.8,en;q=0.5"); got != LangRU {
		t.Fatalf("expected ru, got %q", got)
	}
	if got := manager.DetectFromAcceptLanguage("fr"); got != LangEN {
		t.Fatalf("expected default language, got %q", got)
	}
}

func TestTranslatefFormatsReminderBody(t *testing.T) {
	t.Parallel()

	manager, err := NewEmbeddedManager(LangEN)
	if err != nil {
		t.Fatalf("NewEmbeddedManager() unexpected error: %v", err)
	}

	got := manager.Translatef(LangEN, "reminder.before_period.body", 5)
	if got != "Your period is expected in 5 days." {
		t.Fatalf("unexpected reminder body %q", got)
	}
}
