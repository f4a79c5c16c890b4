package i18n

import (
	"encoding/json"
	"io/fs"
	"sort"
	"strings"
	"testing"
)

func TestLocaleKeysParity(t *testing.T) {
	en := mustLoadLocaleMessages(t, LangEN)
	ru := mustLoadLocaleMessages(t, LangRU)

	if missing := missingKeys(en, ru); len(missing) > 0 {
		t.Errorf("keys missing in ru locale: %s", strings.Join(missing, ", "))
	}
	if missing := missingKeys(ru, en); len(missing) > 0 {
		t.Errorf("keys missing in en locale: %s", strings.Join(missing, ", "))
	}
}

func TestLocaleFormatVerbsMatch(t *testing.T) {
	en := mustLoadLocaleMessages(t, LangEN)
	ru := mustLoadLocaleMessages(t, LangRU)

	for key, value := range en {
		if strings.Count(value, "%") != strings.Count(ru[key], "%") {
			t.Errorf("format verbs differ for %q: en=%q ru=%q", key, value, ru[key])
		}
	}
}

func mustLoadLocaleMessages(t *testing.T, language string) map[string]string {
	t.Helper()

	content, err := fs.ReadFile(embeddedLocales, "locales/"+language+".json")
	if err != nil {
		t.Fatalf("read locale %q: %v", language, err)
	}

	messages := map[string]string{}
	if err := json.Unmarshal(content, &messages); err != nil {
		t.Fatalf("parse locale %q: %v", language, err)
	}
	if len(messages) == 0 {
		t.Fatalf("locale %q is empty", language)
	}
	return messages
}

func missingKeys(source map[string]string, target map[string]string) []string {
	missing := make([]string, 0)
	for key := range source {
		if _, ok := target[key]; !ok {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}
