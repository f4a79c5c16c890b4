package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
)

var (
	ErrUnknownMood       = errors.New("unknown mood")
	ErrMoodLogFailed     = errors.New("log mood failed")
	ErrMoodHistoryFailed = errors.New("load mood history failed")
)

type MoodEntryRepository interface {
	Create(ctx context.Context, entry *models.MoodEntry) error
	ListNewestFirst(ctx context.Context) ([]models.MoodEntry, error)
	ListRange(ctx context.Context, fromStart time.Time, toEnd time.Time) ([]models.MoodEntry, error)
}

type MoodCount struct {
	Mood  string `json:"mood"`
	Score int    `json:"score"`
	Count int    `json:"count"`
}

type MoodService struct {
	moods    MoodEntryRepository
	catalog  []models.Mood
	location *time.Location
}

func NewMoodService(moods MoodEntryRepository, location *time.Location) *MoodService {
	if location == nil {
		location = time.UTC
	}
	return &MoodService{
		moods:    moods,
		catalog:  models.DefaultMoods(),
		location: location,
	}
}

func (service *MoodService) Catalog() []models.Mood {
	result := make([]models.Mood, len(service.catalog))
	copy(result, service.catalog)
	return result
}

// ResolveMood matches label case-insensitively against the catalog.
func (service *MoodService) ResolveMood(label string) (models.Mood, error) {
	trimmed := strings.TrimSpace(label)
	for _, mood := range service.catalog {
		if strings.EqualFold(mood.Label, trimmed) {
			return mood, nil
		}
	}
	return models.Mood{}, fmt.Errorf("%w: %q", ErrUnknownMood, trimmed)
}

func (service *MoodService) LogMood(ctx context.Context, label string, at time.Time) (models.MoodEntry, error) {
	mood, err := service.ResolveMood(label)
	if err != nil {
		return models.MoodEntry{}, err
	}

	entry := models.MoodEntry{
		Date:      storageDay(DateAtLocation(at, service.location)),
		Mood:      mood.Label,
		Timestamp: at.UTC(),
	}
	if err := service.moods.Create(ctx, &entry); err != nil {
		return models.MoodEntry{}, fmt.Errorf("%w: %v", ErrMoodLogFailed, err)
	}
	return entry, nil
}

// TodaysMood returns the latest entry logged on the local calendar day of now.
func (service *MoodService) TodaysMood(ctx context.Context, now time.Time) (models.MoodEntry, bool, error) {
	today := storageDay(DateAtLocation(now, service.location))
	entries, err := service.moods.ListRange(ctx, today, today.AddDate(0, 0, 1))
	if err != nil {
		return models.MoodEntry{}, false, fmt.Errorf("%w: %v", ErrMoodHistoryFailed, err)
	}
	if len(entries) == 0 {
		return models.MoodEntry{}, false, nil
	}
	return entries[0], true, nil
}

func (service *MoodService) History(ctx context.Context) ([]models.MoodEntry, error) {
	entries, err := service.moods.ListNewestFirst(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMoodHistoryFailed, err)
	}
	return entries, nil
}

// MonthlyStats counts entries per catalog mood within the calendar month of
// now, in catalog order.
func (service *MoodService) MonthlyStats(ctx context.Context, now time.Time) ([]MoodCount, error) {
	local := DateAtLocation(now, service.location)
	monthStart := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, time.UTC)
	entries, err := service.moods.ListRange(ctx, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMoodHistoryFailed, err)
	}

	counts := make(map[string]int, len(service.catalog))
	for _, entry := range entries {
		counts[entry.Mood]++
	}

	result := make([]MoodCount, 0, len(service.catalog))
	for _, mood := range service.catalog {
		result = append(result, MoodCount{Mood: mood.Label, Score: mood.Score, Count: counts[mood.Label]})
	}
	return result, nil
}
