package services

import (
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
)

// DetectCyclePhase places day inside the predicted cycle. Days outside
// [LastPeriodStart, NextPeriod) are unknown.
func DetectCyclePhase(prediction models.CyclePrediction, day time.Time) models.CyclePhase {
	if prediction.LastPeriodStart.IsZero() {
		return models.PhaseUnknown
	}
	today := dateOnly(day.In(prediction.LastPeriodStart.Location()))
	if today.Before(prediction.LastPeriodStart) || !today.Before(prediction.NextPeriod) {
		return models.PhaseUnknown
	}

	switch {
	case today.Before(prediction.FollicularPhaseStart):
		return models.PhaseMenstrual
	case sameDay(today, prediction.OvulationDay):
		return models.PhaseOvulation
	case betweenInclusive(today, prediction.FertileWindowStart, prediction.FertileWindowEnd):
		return models.PhaseFertile
	case prediction.HasFollicularPhase() && betweenInclusive(today, prediction.FollicularPhaseStart, prediction.FollicularPhaseEnd):
		return models.PhaseFollicular
	case today.After(prediction.FertileWindowEnd):
		return models.PhaseLuteal
	default:
		return models.PhaseUnknown
	}
}

// CycleDay is 1 on the last period start and 0 before it.
func CycleDay(prediction models.CyclePrediction, day time.Time) int {
	if prediction.LastPeriodStart.IsZero() {
		return 0
	}
	today := dateOnly(day.In(prediction.LastPeriodStart.Location()))
	if today.Before(prediction.LastPeriodStart) {
		return 0
	}
	return daysBetween(prediction.LastPeriodStart, today) + 1
}
