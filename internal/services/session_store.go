package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/cyclecast/internal/models"
)

// SessionStorageKey is the fixed key of the persisted session record.
const SessionStorageKey = "cycleTrackerData"

const sessionDateLayout = "2006-01-02"

type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key string, value string) error
}

type Session struct {
	Input                *models.CycleInput
	Preferences          *models.NotificationPreferences
	NotificationsEnabled bool
}

type SessionStore struct {
	kv       KeyValueStore
	location *time.Location
	log      logrus.FieldLogger
}

type sessionRecord struct {
	LastPeriodStart      string                   `json:"lastPeriodStart,omitempty"`
	CycleLength          flexibleInt              `json:"cycleLength,omitempty"`
	NotificationsEnabled bool                     `json:"notificationsEnabled"`
	NotificationPrefs    *sessionPreferenceRecord `json:"notificationPrefs,omitempty"`
}

type sessionPreferenceRecord struct {
	BeforePeriod  bool `json:"beforePeriod"`
	ReminderDays  int  `json:"reminderDays"`
	OnPeriodStart bool `json:"onPeriodStart"`
	OnOvulation   bool `json:"onOvulation"`
}

// flexibleInt accepts both 28 and "28" on read and always writes a number.
type flexibleInt int

func (value *flexibleInt) UnmarshalJSON(raw []byte) error {
	text := strings.TrimSpace(string(raw))
	if text == "null" {
		*value = 0
		return nil
	}
	if strings.HasPrefix(text, `"`) {
		var quoted string
		if err := json.Unmarshal(raw, &quoted); err != nil {
			return err
		}
		text = strings.TrimSpace(quoted)
		if text == "" {
			*value = 0
			return nil
		}
	}
	parsed, err := strconv.Atoi(text)
	if err != nil {
		return fmt.Errorf("parse cycle length %q: %w", text, err)
	}
	*value = flexibleInt(parsed)
	return nil
}

func NewSessionStore(kv KeyValueStore, location *time.Location, log logrus.FieldLogger) *SessionStore {
	if location == nil {
		location = time.UTC
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SessionStore{kv: kv, location: location, log: log}
}

// Load never fails: missing or unreadable data yields an empty session.
func (store *SessionStore) Load(ctx context.Context) Session {
	record, found, err := store.readRecord(ctx)
	if err != nil {
		store.log.WithError(err).Warn("session: stored data ignored")
		return Session{}
	}
	if !found {
		return Session{}
	}

	session, err := store.sessionFromRecord(record)
	if err != nil {
		store.log.WithError(err).Warn("session: stored data ignored")
		return Session{}
	}
	return session
}

// Save replaces the stored record with input and prefs in one write. The
// notifications flag of the previous record is carried over.
func (store *SessionStore) Save(ctx context.Context, input *models.CycleInput, prefs *models.NotificationPreferences) error {
	enabled := false
	if previous, found, err := store.readRecord(ctx); err == nil && found {
		enabled = previous.NotificationsEnabled
	}
	return store.write(ctx, input, prefs, enabled)
}

// SaveWithNotifications replaces the whole record, flag included, in one write.
func (store *SessionStore) SaveWithNotifications(ctx context.Context, input *models.CycleInput, prefs *models.NotificationPreferences, enabled bool) error {
	return store.write(ctx, input, prefs, enabled)
}

func (store *SessionStore) HasStoredInput(ctx context.Context) bool {
	return store.Load(ctx).Input != nil
}

func (store *SessionStore) write(ctx context.Context, input *models.CycleInput, prefs *models.NotificationPreferences, enabled bool) error {
	record := sessionRecord{NotificationsEnabled: enabled}
	if input != nil && input.HasLastPeriodStart() {
		record.LastPeriodStart = DateAtLocation(input.LastPeriodStart, store.location).Format(sessionDateLayout)
		record.CycleLength = flexibleInt(input.CycleLength)
	}
	if prefs != nil {
		record.NotificationPrefs = &sessionPreferenceRecord{
			BeforePeriod:  prefs.BeforePeriodEnabled,
			ReminderDays:  prefs.ReminderDaysBefore,
			OnPeriodStart: prefs.OnPeriodStartEnabled,
			OnOvulation:   prefs.OnOvulationEnabled,
		}
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := store.kv.Put(ctx, SessionStorageKey, string(payload)); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (store *SessionStore) readRecord(ctx context.Context) (sessionRecord, bool, error) {
	raw, found, err := store.kv.Get(ctx, SessionStorageKey)
	if err != nil {
		return sessionRecord{}, false, fmt.Errorf("%w: %v", ErrPersistenceRead, err)
	}
	if !found || strings.TrimSpace(raw) == "" {
		return sessionRecord{}, false, nil
	}

	record := sessionRecord{}
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return sessionRecord{}, false, fmt.Errorf("%w: %v", ErrPersistenceRead, err)
	}
	return record, true, nil
}

func (store *SessionStore) sessionFromRecord(record sessionRecord) (Session, error) {
	session := Session{NotificationsEnabled: record.NotificationsEnabled}

	if rawDate := strings.TrimSpace(record.LastPeriodStart); rawDate != "" {
		start, err := parseSessionDate(rawDate, store.location)
		if err != nil {
			return Session{}, fmt.Errorf("%w: %v", ErrPersistenceRead, err)
		}
		cycleLength := int(record.CycleLength)
		if cycleLength == 0 {
			cycleLength = models.DefaultCycleLength
		}
		session.Input = &models.CycleInput{LastPeriodStart: start, CycleLength: cycleLength}
	}

	if record.NotificationPrefs != nil {
		session.Preferences = &models.NotificationPreferences{
			BeforePeriodEnabled:  record.NotificationPrefs.BeforePeriod,
			ReminderDaysBefore:   record.NotificationPrefs.ReminderDays,
			OnPeriodStartEnabled: record.NotificationPrefs.OnPeriodStart,
			OnOvulationEnabled:   record.NotificationPrefs.OnOvulation,
		}
	}
	return session, nil
}

// parseSessionDate accepts plain dates as well as RFC 3339 timestamps.
func parseSessionDate(raw string, location *time.Location) (time.Time, error) {
	if parsed, err := time.ParseInLocation(sessionDateLayout, raw, location); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last period start %q: %w", raw, err)
	}
	return DateAtLocation(parsed, location), nil
}
