package services

import (
	"errors"

	"github.com/terraincognita07/cyclecast/internal/models"
)

var (
	ErrMissingCycleInput = errors.New("last period start is required")
	ErrInvalidCycleInput = errors.New("invalid cycle input")
)

var (
	ErrPermissionDenied = errors.New("notification permission denied")
	ErrDeliveryFailed   = errors.New("reminder delivery failed")
	ErrSchedulerClosed  = errors.New("notification scheduler closed")
)

// ErrPersistenceRead marks stored session data that could not be decoded.
// It is logged and never returned to callers.
var ErrPersistenceRead = errors.New("read stored session failed")

var ErrInvalidReminderDays = models.ErrInvalidReminderDays
