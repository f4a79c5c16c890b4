package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
)

type memoryKeyValueStore struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
	putErr error
	puts   int
}

func newMemoryKeyValueStore() *memoryKeyValueStore {
	return &memoryKeyValueStore{values: map[string]string{}}
}

func (store *memoryKeyValueStore) Get(_ context.Context, key string) (string, bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.getErr != nil {
		return "", false, store.getErr
	}
	value, ok := store.values[key]
	return value, ok, nil
}

func (store *memoryKeyValueStore) Put(_ context.Context, key string, value string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.puts++
	if store.putErr != nil {
		return store.putErr
	}
	store.values[key] = value
	return nil
}

func (store *memoryKeyValueStore) Delete(_ context.Context, key string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.values, key)
	return nil
}

type stubDeliverer struct {
	mu sync.Mutex

	authResults  []AuthResult
	authCalls    int
	authInFlight int
	authMaxSeen  int
	authDelay    time.Duration

	failKinds map[models.ReminderKind]bool
	delivered []models.NotificationRequest
	tokens    int
}

func (stub *stubDeliverer) RequestAuthorization(context.Context) (AuthResult, error) {
	stub.mu.Lock()
	stub.authInFlight++
	if stub.authInFlight > stub.authMaxSeen {
		stub.authMaxSeen = stub.authInFlight
	}
	call := stub.authCalls
	stub.authCalls++
	stub.mu.Unlock()

	if stub.authDelay > 0 {
		time.Sleep(stub.authDelay)
	}

	stub.mu.Lock()
	defer stub.mu.Unlock()
	stub.authInFlight--
	if len(stub.authResults) == 0 {
		return AuthResult{Granted: true}, nil
	}
	if call >= len(stub.authResults) {
		return stub.authResults[len(stub.authResults)-1], nil
	}
	return stub.authResults[call], nil
}

func (stub *stubDeliverer) Deliver(_ context.Context, request models.NotificationRequest) (Ack, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.failKinds[request.Kind] {
		return Ack{}, errors.New("push service unavailable")
	}
	stub.tokens++
	stub.delivered = append(stub.delivered, request)
	return Ack{Token: fmt.Sprintf("%s-%d", request.Kind, stub.tokens)}, nil
}

func (stub *stubDeliverer) authCallCount() int {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	return stub.authCalls
}

type cancellingDeliverer struct {
	stubDeliverer
	cancelled []string
	cancelErr error
}

func (stub *cancellingDeliverer) Cancel(_ context.Context, token string) error {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.cancelErr != nil {
		return stub.cancelErr
	}
	stub.cancelled = append(stub.cancelled, token)
	return nil
}

func (stub *cancellingDeliverer) cancelledTokens() []string {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	result := append([]string(nil), stub.cancelled...)
	sort.Strings(result)
	return result
}

type memorySymptomLogRepo struct {
	entries   []models.SymptomLogEntry
	createErr error
	listErr   error
}

func (repo *memorySymptomLogRepo) Create(_ context.Context, entry *models.SymptomLogEntry) error {
	if repo.createErr != nil {
		return repo.createErr
	}
	entry.ID = uint(len(repo.entries) + 1)
	repo.entries = append(repo.entries, *entry)
	return nil
}

func (repo *memorySymptomLogRepo) ListNewestFirst(context.Context) ([]models.SymptomLogEntry, error) {
	if repo.listErr != nil {
		return nil, repo.listErr
	}
	result := append([]models.SymptomLogEntry(nil), repo.entries...)
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	return result, nil
}

type memoryMoodRepo struct {
	entries []models.MoodEntry
}

func (repo *memoryMoodRepo) Create(_ context.Context, entry *models.MoodEntry) error {
	entry.ID = uint(len(repo.entries) + 1)
	repo.entries = append(repo.entries, *entry)
	return nil
}

func (repo *memoryMoodRepo) ListNewestFirst(context.Context) ([]models.MoodEntry, error) {
	result := append([]models.MoodEntry(nil), repo.entries...)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	return result, nil
}

func (repo *memoryMoodRepo) ListRange(ctx context.Context, fromStart time.Time, toEnd time.Time) ([]models.MoodEntry, error) {
	all, _ := repo.ListNewestFirst(ctx)
	result := make([]models.MoodEntry, 0, len(all))
	for _, entry := range all {
		if !entry.Date.Before(fromStart) && entry.Date.Before(toEnd) {
			result = append(result, entry)
		}
	}
	return result, nil
}

func mustDate(value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return parsed
}
