package models

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateEntryYear(t *testing.T) {
	valid := []string{"1950", "2003", "2020"}
	for _, year := range valid {
		if err := ValidateEntryYear(year); err != nil {
			t.Errorf("ValidateEntryYear(%q) = %v, want nil", year, err)
		}
	}

	invalid := []string{"", "03", "20030", "abcd", "1949", "2999"}
	for _, year := range invalid {
		if err := ValidateEntryYear(year); err == nil {
			t.Errorf("ValidateEntryYear(%q) = nil, want error", year)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	if err := ValidateEmail("alice@example.com"); err != nil {
		t.Errorf("valid email rejected: %v", err)
	}
	for _, email := range []string{"", "no-at-sign", "two@@example.com", "noname@nodot"} {
		if err := ValidateEmail(email); err == nil {
			t.Errorf("ValidateEmail(%q) = nil, want error", email)
		}
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName("first_name", "Jo"); err != nil {
		t.Errorf("two-character name rejected: %v", err)
	}
	if err := ValidateName("first_name", " J "); err == nil {
		t.Error("name too short after trimming should be rejected")
	}
	if err := ValidateName("last_name", strings.Repeat("x", 51)); err == nil {
		t.Error("name over 50 characters should be rejected")
	}
}

func TestValidateMessage(t *testing.T) {
	if err := ValidateMessage("please let me in, I graduated in 2015"); err != nil {
		t.Errorf("valid message rejected: %v", err)
	}
	if err := ValidateMessage("too short"); err == nil {
		t.Error("message under 10 characters should be rejected")
	}
	if err := ValidateMessage(strings.Repeat("x", 501)); err == nil {
		t.Error("message over 500 characters should be rejected")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("Str0ngpass"); err != nil {
		t.Errorf("valid password rejected: %v", err)
	}
	for _, password := range []string{"Sh0rt", "alllowercase1", "ALLUPPERCASE1", "NoDigitsHere"} {
		if err := ValidatePassword(password); err == nil {
			t.Errorf("ValidatePassword(%q) = nil, want error", password)
		}
	}
}

func TestValidationErrorAs(t *testing.T) {
	err := ValidateEntryYear("bad")
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if validationErr.Field != "entry_year" {
		t.Errorf("Field = %q, want entry_year", validationErr.Field)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}
