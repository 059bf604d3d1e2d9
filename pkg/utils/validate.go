package utils

import (
	"regexp"
	"strings"
)

const (
	MinFullNameLength = 2
	MaxFullNameLength = 100
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)

	if email == "" {
		return &ValidationError{Field: "email", Message: "Email is required"}
	}

	if len(email) > 255 {
		return &ValidationError{Field: "email", Message: "Email must be at most 255 characters"}
	}

	if !emailRegex.MatchString(email) {
		return &ValidationError{Field: "email", Message: "Email format is invalid"}
	}

	return nil
}

// ValidateFullName validates display name length
func ValidateFullName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) < MinFullNameLength {
		return &ValidationError{Field: "full_name", Message: "Name must be at least 2 characters"}
	}

	if len(name) > MaxFullNameLength {
		return &ValidationError{Field: "full_name", Message: "Name must be at most 100 characters"}
	}

	return nil
}

// NormalizeEmail converts an email to lowercase for storage and lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
