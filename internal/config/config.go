package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/terraincognita07/cyclecast/internal/notify"
	"github.com/terraincognita07/cyclecast/internal/security"
)

var (
	ErrInsecureSecretKey  = errors.New("SECRET_KEY is insecure")
	ErrInvalidPort        = errors.New("invalid PORT")
	ErrInvalidChannel     = errors.New("invalid NOTIFY_CHANNEL")
	ErrTelegramIncomplete = errors.New("telegram channel needs TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID")
)

var insecureSecretKeys = map[string]struct{}{
	"change_me_in_production":                    {},
	"replace_with_at_least_32_random_characters": {},
}

// AppConfig holds everything the binary reads from the environment.
type AppConfig struct {
	DBPath          string
	Port            string
	Location        *time.Location
	SecretKey       string
	SecretGenerated bool
	LogLevel        string
	Environment     string
	DefaultLanguage string

	NotifyChannel    string
	TelegramBotToken string
	TelegramChatID   int64

	DispatchCronSpec    string
	ReminderHour        int
	ReminderMaxLateness time.Duration

	// Warnings collects fallbacks applied while loading, logged once the
	// logger exists.
	Warnings []string
}

// Load reads the optional .env file and then the process environment.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{
		DBPath:          getEnv("DB_PATH", filepath.Join("data", "cyclecast.db")),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Environment:     strings.ToLower(getEnv("ENVIRONMENT", "development")),
		DefaultLanguage: strings.ToLower(getEnv("DEFAULT_LANGUAGE", "en")),
	}

	var err error
	if cfg.Port, err = resolvePort(); err != nil {
		return nil, err
	}

	cfg.Location = loadLocation(getEnv("TZ", "UTC"), cfg)

	if cfg.SecretKey, cfg.SecretGenerated, err = resolveSecretKey(); err != nil {
		return nil, err
	}
	if cfg.SecretGenerated {
		cfg.Warnings = append(cfg.Warnings, "SECRET_KEY is not set; access tokens will not survive a restart")
	}

	if err := cfg.loadNotifications(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReminderTimeOfDay is the offset from midnight at which reminders fire.
func (cfg *AppConfig) ReminderTimeOfDay() time.Duration {
	return time.Duration(cfg.ReminderHour) * time.Hour
}

func (cfg *AppConfig) loadNotifications() error {
	cfg.TelegramBotToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	if rawChatID := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); rawChatID != "" {
		chatID, err := strconv.ParseInt(rawChatID, 10, 64)
		if err != nil || chatID == 0 {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID %q", rawChatID)
		}
		cfg.TelegramChatID = chatID
	}

	defaultChannel := notify.ChannelLog
	if cfg.TelegramBotToken != "" {
		defaultChannel = notify.ChannelTelegram
	}
	cfg.NotifyChannel = strings.ToLower(getEnv("NOTIFY_CHANNEL", defaultChannel))
	switch cfg.NotifyChannel {
	case notify.ChannelTelegram:
		if cfg.TelegramBotToken == "" || cfg.TelegramChatID == 0 {
			return ErrTelegramIncomplete
		}
	case notify.ChannelLog, notify.ChannelNone:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidChannel, cfg.NotifyChannel)
	}

	cfg.DispatchCronSpec = getEnv("DISPATCH_CRON_SPEC", "@every 1m")
	if _, err := cron.ParseStandard(cfg.DispatchCronSpec); err != nil {
		return fmt.Errorf("invalid DISPATCH_CRON_SPEC %q: %w", cfg.DispatchCronSpec, err)
	}

	cfg.ReminderHour = 0
	if raw := strings.TrimSpace(os.Getenv("REMINDER_HOUR")); raw != "" {
		hour, err := strconv.Atoi(raw)
		if err != nil || hour < 0 || hour > 23 {
			return fmt.Errorf("invalid REMINDER_HOUR %q: expected 0-23", raw)
		}
		cfg.ReminderHour = hour
	}

	cfg.ReminderMaxLateness = 12 * time.Hour
	if raw := strings.TrimSpace(os.Getenv("REMINDER_MAX_LATENESS")); raw != "" {
		lateness, err := time.ParseDuration(raw)
		if err != nil || lateness <= 0 {
			return fmt.Errorf("invalid REMINDER_MAX_LATENESS %q", raw)
		}
		cfg.ReminderMaxLateness = lateness
	}
	return nil
}

// resolveSecretKey returns SECRET_KEY, or a random key when it is unset.
// Placeholders and short keys are rejected.
func resolveSecretKey() (string, bool, error) {
	secret := strings.TrimSpace(os.Getenv("SECRET_KEY"))
	if secret == "" {
		generated, err := security.GenerateSecretKey()
		if err != nil {
			return "", false, fmt.Errorf("generate secret key: %w", err)
		}
		return generated, true, nil
	}
	if _, insecure := insecureSecretKeys[strings.ToLower(secret)]; insecure {
		return "", false, fmt.Errorf("%w: placeholder value", ErrInsecureSecretKey)
	}
	if len(secret) < security.MinSecretKeyLength {
		return "", false, fmt.Errorf("%w: must be at least %d characters", ErrInsecureSecretKey, security.MinSecretKeyLength)
	}
	return secret, false, nil
}

func resolvePort() (string, error) {
	raw := getEnv("PORT", "8080")
	port, err := strconv.Atoi(raw)
	if err != nil || port < 1 || port > 65535 {
		return "", fmt.Errorf("%w: %q", ErrInvalidPort, raw)
	}
	return strconv.Itoa(port), nil
}

func loadLocation(name string, cfg *AppConfig) *time.Location {
	location, err := time.LoadLocation(name)
	if err != nil {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("invalid TZ %q, falling back to UTC", name))
		return time.UTC
	}
	return location
}

func getEnv(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
