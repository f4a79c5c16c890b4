package models

import "time"

const (
	SymptomCategoryPhysical  = "physical"
	SymptomCategoryEmotional = "emotional"
	SymptomCategoryOther     = "other"
	SymptomCategoryPregnancy = "pregnancy"
)

type Symptom struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type SymptomLogEntry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Date       time.Time `gorm:"type:date;not null;index" json:"date"`
	SymptomIDs []string  `gorm:"serializer:json" json:"symptom_ids"`
	Timestamp  time.Time `gorm:"not null" json:"timestamp"`
}

func DefaultSymptoms() []Symptom {
	return []Symptom{
		{ID: "cramps", Name: "Cramps", Category: SymptomCategoryPhysical},
		{ID: "headache", Name: "Headache", Category: SymptomCategoryPhysical},
		{ID: "bloating", Name: "Bloating", Category: SymptomCategoryPhysical},
		{ID: "fatigue", Name: "Fatigue", Category: SymptomCategoryPhysical},
		{ID: "breast_tenderness", Name: "Breast Tenderness", Category: SymptomCategoryPhysical},
		{ID: "acne", Name: "Acne", Category: SymptomCategoryPhysical},
		{ID: "backache", Name: "Backache", Category: SymptomCategoryPhysical},
		{ID: "nausea", Name: "Nausea", Category: SymptomCategoryPhysical},
		{ID: "dizziness", Name: "Dizziness", Category: SymptomCategoryPhysical},
		{ID: "constipation", Name: "Constipation", Category: SymptomCategoryPhysical},
		{ID: "diarrhea", Name: "Diarrhea", Category: SymptomCategoryPhysical},

		{ID: "anxiety", Name: "Anxiety", Category: SymptomCategoryEmotional},
		{ID: "mood_swings", Name: "Mood Swings", Category: SymptomCategoryEmotional},
		{ID: "irritability", Name: "Irritability", Category: SymptomCategoryEmotional},
		{ID: "depression", Name: "Depression", Category: SymptomCategoryEmotional},
		{ID: "crying_spells", Name: "Crying Spells", Category: SymptomCategoryEmotional},

		{ID: "insomnia", Name: "Insomnia", Category: SymptomCategoryOther},
		{ID: "food_cravings", Name: "Food Cravings", Category: SymptomCategoryOther},
		{ID: "appetite_changes", Name: "Appetite Changes", Category: SymptomCategoryOther},
		{ID: "hot_flashes", Name: "Hot Flashes", Category: SymptomCategoryOther},

		{ID: "missed_period", Name: "Missed Period", Category: SymptomCategoryPregnancy},
		{ID: "morning_sickness", Name: "Morning Sickness", Category: SymptomCategoryPregnancy},
		{ID: "frequent_urination", Name: "Frequent Urination", Category: SymptomCategoryPregnancy},
		{ID: "food_aversions", Name: "Food Aversions", Category: SymptomCategoryPregnancy},
		{ID: "metallic_taste", Name: "Metallic Taste", Category: SymptomCategoryPregnancy},
		{ID: "heightened_smell", Name: "Heightened Sense of Smell", Category: SymptomCategoryPregnancy},
		{ID: "light_spotting", Name: "Light Spotting", Category: SymptomCategoryPregnancy},
		{ID: "breast_changes", Name: "Breast Changes", Category: SymptomCategoryPregnancy},
	}
}
