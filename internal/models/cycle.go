package models

import "time"

const (
	MinCycleLength     = 21
	MaxCycleLength     = 35
	DefaultCycleLength = 28

	LutealPhaseDays            = 14
	FertileDaysBeforeOvulation = 5
	FertileDaysAfterOvulation  = 1
	MenstrualPhaseDays         = 5
)

type CycleInput struct {
	LastPeriodStart time.Time `json:"last_period_start"`
	CycleLength     int       `json:"cycle_length"`
}

func (input CycleInput) HasLastPeriodStart() bool {
	return !input.LastPeriodStart.IsZero()
}

type CyclePrediction struct {
	LastPeriodStart      time.Time `json:"last_period_start"`
	CycleLength          int       `json:"cycle_length"`
	NextPeriod           time.Time `json:"next_period"`
	OvulationDay         time.Time `json:"ovulation_day"`
	FertileWindowStart   time.Time `json:"fertile_window_start"`
	FertileWindowEnd     time.Time `json:"fertile_window_end"`
	FollicularPhaseStart time.Time `json:"follicular_phase_start"`
	FollicularPhaseEnd   time.Time `json:"follicular_phase_end"`
}

// HasFollicularPhase reports whether the low-fertility window is non-empty.
// Cycles shorter than 25 days place its end before its start.
func (prediction CyclePrediction) HasFollicularPhase() bool {
	return !prediction.FollicularPhaseEnd.Before(prediction.FollicularPhaseStart)
}

type CyclePhase string

const (
	PhaseMenstrual  CyclePhase = "menstrual"
	PhaseFollicular CyclePhase = "follicular"
	PhaseFertile    CyclePhase = "fertile"
	PhaseOvulation  CyclePhase = "ovulation"
	PhaseLuteal     CyclePhase = "luteal"
	PhaseUnknown    CyclePhase = "unknown"
)
