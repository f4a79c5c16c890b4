package models

import "time"

type Mood struct {
	Label string `json:"label"`
	Score int    `json:"score"`
}

type MoodEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      time.Time `gorm:"type:date;not null;index" json:"date"`
	Mood      string    `gorm:"not null" json:"mood"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
}

func DefaultMoods() []Mood {
	return []Mood{
		{Label: "Excited", Score: 5},
		{Label: "Happy", Score: 4},
		{Label: "Content", Score: 3},
		{Label: "Meh", Score: 2},
		{Label: "Sad", Score: 1},
		{Label: "Stressed", Score: 0},
	}
}
