package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	entryYearPattern = regexp.MustCompile(`^\d{4}$`)
	emailPattern     = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// ValidationError reports a single malformed input field. It is returned
// before any store access and is always correctable by the caller.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func ValidateEntryYear(year string) error {
	if !entryYearPattern.MatchString(year) {
		return invalid("entry_year", "must be a four-digit year, e.g. 2003")
	}
	y, _ := strconv.Atoi(year)
	if y < 1950 || y > time.Now().Year() {
		return invalid("entry_year", fmt.Sprintf("must be between 1950 and %d", time.Now().Year()))
	}
	return nil
}

func ValidateEmail(email string) error {
	if !emailPattern.MatchString(strings.TrimSpace(email)) {
		return invalid("email", "must be a valid email address")
	}
	return nil
}

func ValidateName(field, name string) error {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < 2 {
		return invalid(field, "too short")
	}
	if len(trimmed) > 50 {
		return invalid(field, "too long")
	}
	return nil
}

func ValidateMessage(message string) error {
	trimmed := strings.TrimSpace(message)
	if len(trimmed) < 10 {
		return invalid("message", "too short (min 10 characters)")
	}
	if len(trimmed) > 500 {
		return invalid("message", "too long (max 500 characters)")
	}
	return nil
}

func ValidatePassword(password string) error {
	if len(password) < 8 {
		return invalid("password", "too short (min 8 characters)")
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return invalid("password", "must contain an uppercase letter, a lowercase letter and a digit")
	}
	return nil
}

func ValidateCodeToken(code string) error {
	if len(strings.TrimSpace(code)) < 5 {
		return invalid("code", "too short")
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address. Uniqueness in the
// account store is enforced on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
