package auth

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is counted in characters, not bytes
	MinPasswordLength = 6

	// bcrypt only reads the first 72 bytes
	maxPasswordBytes = 72

	// cost 8 keeps login fast on the site mini-PCs
	bcryptCost = 8
)

var ErrBadPassword = errors.New("unacceptable password")

// CheckPassword enforces the length bounds of dashboard passwords
func CheckPassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("%w: must have at least %d characters", ErrBadPassword, MinPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: must have at most %d bytes", ErrBadPassword, maxPasswordBytes)
	}
	return nil
}

// HashPassword checks the password and returns its bcrypt hash
func HashPassword(password string) (string, error) {
	if err := CheckPassword(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches hash. An empty hash never matches.
func VerifyPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
