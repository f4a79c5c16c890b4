package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	AccessPasscodeKey    = "accessPasscodeHash"
	MinPasscodeLength    = 4
	maxPasscodeByteCount = 72
)

var (
	ErrPasscodeInvalid  = errors.New("invalid passcode")
	ErrPasscodeMissing  = errors.New("passcode is not configured")
	ErrPasscodeTooShort = errors.New("passcode is too short")
	ErrPasscodeTooLong  = errors.New("passcode is too long")
	ErrAccessStore      = errors.New("access store failed")
)

type AccessStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

// AccessService guards the local API with an optional passcode whose bcrypt
// hash lives in the key-value store.
type AccessService struct {
	store AccessStore
}

func NewAccessService(store AccessStore) *AccessService {
	return &AccessService{store: store}
}

func ValidatePasscode(passcode string) error {
	if len([]rune(strings.TrimSpace(passcode))) < MinPasscodeLength {
		return ErrPasscodeTooShort
	}
	if len(passcode) > maxPasscodeByteCount {
		return ErrPasscodeTooLong
	}
	return nil
}

func (service *AccessService) IsConfigured(ctx context.Context) (bool, error) {
	_, found, err := service.hash(ctx)
	return found, err
}

func (service *AccessService) Verify(ctx context.Context, passcode string) error {
	hash, found, err := service.hash(ctx)
	if err != nil {
		return err
	}
	if !found {
		return ErrPasscodeMissing
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(passcode)) != nil {
		return ErrPasscodeInvalid
	}
	return nil
}

// SetPasscode replaces the passcode. When one is already configured the
// current passcode must match.
func (service *AccessService) SetPasscode(ctx context.Context, current string, next string) error {
	if err := service.requireCurrent(ctx, current); err != nil {
		return err
	}
	if err := ValidatePasscode(next); err != nil {
		return err
	}
	return service.ForceSetPasscode(ctx, next)
}

// ForceSetPasscode stores next without checking the current passcode.
func (service *AccessService) ForceSetPasscode(ctx context.Context, next string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash passcode: %w", err)
	}
	if err := service.store.Put(ctx, AccessPasscodeKey, string(hash)); err != nil {
		return fmt.Errorf("%w: %v", ErrAccessStore, err)
	}
	return nil
}

func (service *AccessService) Clear(ctx context.Context, current string) error {
	if err := service.requireCurrent(ctx, current); err != nil {
		return err
	}
	if err := service.store.Delete(ctx, AccessPasscodeKey); err != nil {
		return fmt.Errorf("%w: %v", ErrAccessStore, err)
	}
	return nil
}

func (service *AccessService) requireCurrent(ctx context.Context, current string) error {
	configured, err := service.IsConfigured(ctx)
	if err != nil {
		return err
	}
	if !configured {
		return nil
	}
	return service.Verify(ctx, current)
}

func (service *AccessService) hash(ctx context.Context) (string, bool, error) {
	hash, found, err := service.store.Get(ctx, AccessPasscodeKey)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrAccessStore, err)
	}
	if !found || strings.TrimSpace(hash) == "" {
		return "", false, nil
	}
	return hash, true, nil
}
