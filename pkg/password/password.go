package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinLength is the minimum accepted password length
const MinLength = 6

// Validate checks a plaintext password against the account rules
func Validate(password string) error {
	if len(password) < MinLength {
		return fmt.Errorf("password must be at least %d characters", MinLength)
	}
	return nil
}

// Hash derives a bcrypt hash from a plaintext password
func Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Compare reports whether the plaintext password matches the stored hash
func Compare(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return fmt.Errorf("password mismatch: %w", err)
	}
	return nil
}
