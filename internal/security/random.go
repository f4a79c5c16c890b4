package security

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	// PasscodeAlphabet leaves out characters that are easy to misread.
	PasscodeAlphabet  = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
	SecretKeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

	MinSecretKeyLength = 32
	secretKeyLength    = 48
)

var (
	ErrNegativeLength = errors.New("length must be non-negative")
	ErrEmptyAlphabet  = errors.New("alphabet must not be empty")
)

// RandomString draws length characters uniformly from alphabet using
// crypto/rand.
func RandomString(length int, alphabet string) (string, error) {
	switch {
	case length < 0:
		return "", ErrNegativeLength
	case length == 0:
		return "", nil
	case alphabet == "":
		return "", ErrEmptyAlphabet
	}

	limit := big.NewInt(int64(len(alphabet)))
	value := make([]byte, length)
	for index := range value {
		position, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		value[index] = alphabet[position.Int64()]
	}
	return string(value), nil
}

// GenerateSecretKey returns a token signing key for runs without SECRET_KEY.
func GenerateSecretKey() (string, error) {
	return RandomString(secretKeyLength, SecretKeyAlphabet)
}

func GeneratePasscode(length int) (string, error) {
	return RandomString(length, PasscodeAlphabet)
}
