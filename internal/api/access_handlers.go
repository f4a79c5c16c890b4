package api

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/terraincognita07/cyclecast/internal/services"
)

const accessTokenSubject = "cyclecast"

type accessClaims struct {
	jwt.RegisteredClaims
}

type loginRequest struct {
	Passcode string `json:"passcode"`
}

type passcodeRequest struct {
	Current  string `json:"current"`
	Passcode string `json:"passcode"`
}

// AccessRequired lets every request through while no passcode is set.
// Otherwise it demands a bearer token issued by Login.
func (handler *Handler) AccessRequired(c *fiber.Ctx) error {
	configured, err := handler.access.IsConfigured(c.UserContext())
	if err != nil {
		return handler.internalError(c, err, "failed to check access")
	}
	if !configured {
		return c.Next()
	}
	if err := handler.authenticateRequest(c); err != nil {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return c.Next()
}

func (handler *Handler) Login(c *fiber.Ctx) error {
	request := loginRequest{}
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	now := handler.now()
	limiterKey := requestLimiterKey(c)
	if handler.loginLimiter.tooManyRecent(limiterKey, now, loginAttemptLimit, loginAttemptWindow) {
		return apiError(c, fiber.StatusTooManyRequests, "too many login attempts")
	}

	err := handler.access.Verify(c.UserContext(), request.Passcode)
	switch {
	case errors.Is(err, services.ErrPasscodeMissing):
		return apiError(c, fiber.StatusConflict, "passcode is not configured")
	case errors.Is(err, services.ErrPasscodeInvalid):
		handler.loginLimiter.addFailure(limiterKey, now, loginAttemptWindow)
		return apiError(c, fiber.StatusUnauthorized, "invalid passcode")
	case err != nil:
		return handler.internalError(c, err, "failed to verify passcode")
	}
	handler.loginLimiter.reset(limiterKey)

	token, expiresAt, err := handler.buildToken(now, defaultAccessTokenTTL)
	if err != nil {
		return handler.internalError(c, err, "failed to issue token")
	}
	return c.JSON(fiber.Map{
		"token":      token,
		"expires_at": expiresAt.UTC(),
	})
}

func (handler *Handler) SetPasscode(c *fiber.Ctx) error {
	request := passcodeRequest{}
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	if err := handler.access.SetPasscode(c.UserContext(), request.Current, request.Passcode); err != nil {
		return handler.passcodeError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) ClearPasscode(c *fiber.Ctx) error {
	request := passcodeRequest{}
	if hasBody(c) {
		if err := c.BodyParser(&request); err != nil {
			return apiError(c, fiber.StatusBadRequest, "invalid input")
		}
	}

	if err := handler.access.Clear(c.UserContext(), request.Current); err != nil {
		return handler.passcodeError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) passcodeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrPasscodeInvalid):
		return apiError(c, fiber.StatusForbidden, "current passcode is incorrect")
	case errors.Is(err, services.ErrPasscodeTooShort):
		return apiError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("passcode must be at least %d characters", services.MinPasscodeLength))
	case errors.Is(err, services.ErrPasscodeTooLong):
		return apiError(c, fiber.StatusUnprocessableEntity, "passcode is too long")
	default:
		return handler.internalError(c, err, "failed to update passcode")
	}
}

func (handler *Handler) buildToken(now time.Time, ttl time.Duration) (string, time.Time, error) {
	expiresAt := now.Add(ttl)
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accessTokenSubject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(handler.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (handler *Handler) authenticateRequest(c *fiber.Ctx) error {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	rawToken, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(rawToken) == "" {
		return errors.New("missing bearer token")
	}

	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(rawToken), claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return handler.secretKey, nil
	}, jwt.WithTimeFunc(handler.now), jwt.WithSubject(accessTokenSubject), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}
