package services

import (
	"fmt"
	"time"

	"github.com/terraincognita07/cyclecast/internal/models"
)

// MaxLastPeriodAgeDays bounds how far back a last period start may be entered.
const MaxLastPeriodAgeDays = 90

func ValidateCycleInput(input models.CycleInput, now time.Time, location *time.Location) error {
	if !input.HasLastPeriodStart() {
		return ErrMissingCycleInput
	}
	if input.CycleLength < models.MinCycleLength || input.CycleLength > models.MaxCycleLength {
		return fmt.Errorf("%w: cycle length %d outside %d-%d", ErrInvalidCycleInput, input.CycleLength, models.MinCycleLength, models.MaxCycleLength)
	}

	today := DateAtLocation(now, location)
	start := DateAtLocation(input.LastPeriodStart, location)
	if start.After(today) {
		return fmt.Errorf("%w: last period start is in the future", ErrInvalidCycleInput)
	}
	if start.Before(today.AddDate(0, 0, -MaxLastPeriodAgeDays)) {
		return fmt.Errorf("%w: last period start is more than %d days ago", ErrInvalidCycleInput, MaxLastPeriodAgeDays)
	}
	return nil
}

// ComputeCyclePrediction derives every window from the start date alone.
// It does not validate its arguments.
func ComputeCyclePrediction(lastPeriodStart time.Time, cycleLength int) models.CyclePrediction {
	start := dateOnly(lastPeriodStart)
	nextPeriod := start.AddDate(0, 0, cycleLength)
	ovulation := nextPeriod.AddDate(0, 0, -models.LutealPhaseDays)
	fertileStart := ovulation.AddDate(0, 0, -models.FertileDaysBeforeOvulation)

	return models.CyclePrediction{
		LastPeriodStart:      start,
		CycleLength:          cycleLength,
		NextPeriod:           nextPeriod,
		OvulationDay:         ovulation,
		FertileWindowStart:   fertileStart,
		FertileWindowEnd:     ovulation.AddDate(0, 0, models.FertileDaysAfterOvulation),
		FollicularPhaseStart: start.AddDate(0, 0, models.MenstrualPhaseDays),
		FollicularPhaseEnd:   fertileStart.AddDate(0, 0, -1),
	}
}

func PredictCycle(input models.CycleInput, now time.Time, location *time.Location) (models.CyclePrediction, error) {
	if err := ValidateCycleInput(input, now, location); err != nil {
		return models.CyclePrediction{}, err
	}
	return ComputeCyclePrediction(DateAtLocation(input.LastPeriodStart, location), input.CycleLength), nil
}
