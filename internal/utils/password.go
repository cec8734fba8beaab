package utils

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLength = 6
	// bcrypt ignores input beyond 72 bytes and x/crypto rejects it outright.
	MaxPasswordBytes = 72
)

var (
	ErrPasswordEmpty    = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters long")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes long")
)

// ValidatePasswordStrength validates that a password meets the account rules.
// Surrounding whitespace does not count towards the minimum length.
func ValidatePasswordStrength(password string) error {
	trimmed := strings.TrimSpace(password)
	if trimmed == "" {
		return ErrPasswordEmpty
	}
	if utf8.RuneCountInString(trimmed) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}
