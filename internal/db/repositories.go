package db

import "gorm.io/gorm"

type Repositories struct {
	KeyValues   *KeyValueRepository
	SymptomLogs *SymptomLogRepository
	Moods       *MoodEntryRepository
	Reminders   *ReminderRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		KeyValues:   NewKeyValueRepository(database),
		SymptomLogs: NewSymptomLogRepository(database),
		Moods:       NewMoodEntryRepository(database),
		Reminders:   NewReminderRepository(database),
	}
}
