package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
)

var (
	ErrNoSymptomsSelected   = errors.New("select at least one symptom")
	ErrUnknownSymptom       = errors.New("unknown symptom")
	ErrSymptomLogFailed     = errors.New("log symptoms failed")
	ErrSymptomHistoryFailed = errors.New("load symptom history failed")
)

type SymptomLogRepository interface {
	Create(ctx context.Context, entry *models.SymptomLogEntry) error
	ListNewestFirst(ctx context.Context) ([]models.SymptomLogEntry, error)
}

type SymptomFrequency struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Count     int    `json:"count"`
	TotalDays int    `json:"total_days"`
}

type SymptomDay struct {
	Date    time.Time                `json:"date"`
	Entries []models.SymptomLogEntry `json:"entries"`
}

type SymptomLogService struct {
	logs     SymptomLogRepository
	catalog  []models.Symptom
	byID     map[string]models.Symptom
	location *time.Location
}

func NewSymptomLogService(logs SymptomLogRepository, location *time.Location) *SymptomLogService {
	if location == nil {
		location = time.UTC
	}
	catalog := models.DefaultSymptoms()
	byID := make(map[string]models.Symptom, len(catalog))
	for _, symptom := range catalog {
		byID[symptom.ID] = symptom
	}
	return &SymptomLogService{
		logs:     logs,
		catalog:  catalog,
		byID:     byID,
		location: location,
	}
}

func (service *SymptomLogService) Catalog() []models.Symptom {
	result := make([]models.Symptom, len(service.catalog))
	copy(result, service.catalog)
	return result
}

// ValidateSymptomIDs trims, de-duplicates and sorts ids. Every id must be in
// the catalog.
func (service *SymptomLogService) ValidateSymptomIDs(ids []string) ([]string, error) {
	unique := make(map[string]struct{}, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, ok := service.byID[id]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSymptom, id)
		}
		unique[id] = struct{}{}
	}
	if len(unique) == 0 {
		return nil, ErrNoSymptomsSelected
	}

	result := make([]string, 0, len(unique))
	for id := range unique {
		result = append(result, id)
	}
	sort.Strings(result)
	return result, nil
}

func (service *SymptomLogService) LogSymptoms(ctx context.Context, date time.Time, symptomIDs []string, now time.Time) (models.SymptomLogEntry, error) {
	ids, err := service.ValidateSymptomIDs(symptomIDs)
	if err != nil {
		return models.SymptomLogEntry{}, err
	}

	entry := models.SymptomLogEntry{
		Date:       storageDay(DateAtLocation(date, service.location)),
		SymptomIDs: ids,
		Timestamp:  now.UTC(),
	}
	if err := service.logs.Create(ctx, &entry); err != nil {
		return models.SymptomLogEntry{}, fmt.Errorf("%w: %v", ErrSymptomLogFailed, err)
	}
	return entry, nil
}

// History returns every entry, most recent first.
func (service *SymptomLogService) History(ctx context.Context) ([]models.SymptomLogEntry, error) {
	entries, err := service.logs.ListNewestFirst(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSymptomHistoryFailed, err)
	}
	return entries, nil
}

func (service *SymptomLogService) HistoryByDate(ctx context.Context) ([]SymptomDay, error) {
	entries, err := service.History(ctx)
	if err != nil {
		return nil, err
	}

	days := make([]SymptomDay, 0)
	for _, entry := range entries {
		if len(days) > 0 && sameDay(days[len(days)-1].Date, entry.Date) {
			days[len(days)-1].Entries = append(days[len(days)-1].Entries, entry)
			continue
		}
		days = append(days, SymptomDay{Date: entry.Date, Entries: []models.SymptomLogEntry{entry}})
	}
	return days, nil
}

// Frequencies counts on how many logged days each symptom appeared.
func (service *SymptomLogService) Frequencies(ctx context.Context) ([]SymptomFrequency, error) {
	entries, err := service.History(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []SymptomFrequency{}, nil
	}

	loggedDays := make(map[string]struct{})
	seen := make(map[string]map[string]struct{})
	for _, entry := range entries {
		day := entry.Date.Format("2006-01-02")
		loggedDays[day] = struct{}{}
		for _, id := range entry.SymptomIDs {
			if seen[id] == nil {
				seen[id] = make(map[string]struct{})
			}
			seen[id][day] = struct{}{}
		}
	}

	result := make([]SymptomFrequency, 0, len(seen))
	for id, days := range seen {
		symptom, ok := service.byID[id]
		if !ok {
			continue
		}
		result = append(result, SymptomFrequency{
			ID:        symptom.ID,
			Name:      symptom.Name,
			Category:  symptom.Category,
			Count:     len(days),
			TotalDays: len(loggedDays),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Count == result[j].Count {
			return result[i].Name < result[j].Name
		}
		return result[i].Count > result[j].Count
	})
	return result, nil
}
