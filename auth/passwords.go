package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// HashPassword hashes a plaintext password with bcrypt at the default cost.
func HashPassword(plaintext string) (string, error) {
	if len(plaintext) < minPasswordLength {
		return "", fmt.Errorf("auth: password must be at least %d characters", minPasswordLength)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword compares a stored bcrypt hash with a candidate password.
func VerifyPassword(hashed string, candidate string) error {
	if strings.TrimSpace(hashed) == "" {
		return fmt.Errorf("auth: stored password hash is empty")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(candidate)); err != nil {
		return fmt.Errorf("auth: password verification failed")
	}
	return nil
}
