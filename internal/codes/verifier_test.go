package codes

import (
	"errors"
	"testing"
	"time"

	"github.com/alumnet/alumnet-api/internal/faults"
	"github.com/alumnet/alumnet-api/internal/models"
)

var verifyNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func activeCode(scope models.Scope) models.InvitationCode {
	return models.InvitationCode{
		ID:       "code-1",
		Code:     "USER-ABC123",
		Scope:    scope,
		MaxUses:  10,
		IsActive: true,
	}
}

func TestVerifyOrdering(t *testing.T) {
	cohort := models.CohortScope("school-1", "2015")
	expired := verifyNow.Add(-time.Hour)

	tests := []struct {
		name       string
		code       models.InvitationCode
		found      bool
		requested  models.Scope
		wantReason Reason
	}{
		{
			name:       "unknown token",
			found:      false,
			requested:  cohort,
			wantReason: ReasonNotFound,
		},
		{
			name: "inactive code reads as unknown",
			code: func() models.InvitationCode {
				c := activeCode(cohort)
				c.IsActive = false
				return c
			}(),
			found:      true,
			requested:  cohort,
			wantReason: ReasonNotFound,
		},
		{
			name: "expired before exhausted",
			code: func() models.InvitationCode {
				c := activeCode(cohort)
				c.ExpiresAt = &expired
				c.CurrentUses = c.MaxUses
				return c
			}(),
			found:      true,
			requested:  cohort,
			wantReason: ReasonExpired,
		},
		{
			name: "exhausted before scope",
			code: func() models.InvitationCode {
				c := activeCode(cohort)
				c.CurrentUses = c.MaxUses
				return c
			}(),
			found:      true,
			requested:  models.CohortScope("school-2", "2016"),
			wantReason: ReasonExhausted,
		},
		{
			name:       "school mismatch",
			code:       activeCode(cohort),
			found:      true,
			requested:  models.CohortScope("school-2", "2015"),
			wantReason: ReasonSchoolMismatch,
		},
		{
			name:       "year mismatch",
			code:       activeCode(cohort),
			found:      true,
			requested:  models.CohortScope("school-1", "2016"),
			wantReason: ReasonYearMismatch,
		},
		{
			name:       "school and year mismatch",
			code:       activeCode(cohort),
			found:      true,
			requested:  models.CohortScope("school-2", "2016"),
			wantReason: ReasonCohortMismatch,
		},
		{
			name:       "matching cohort accepted",
			code:       activeCode(cohort),
			found:      true,
			requested:  cohort,
			wantReason: ReasonAccepted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := Verify(tt.code, tt.found, tt.requested, verifyNow)
			if outcome.Reason != tt.wantReason {
				t.Errorf("Reason = %s, want %s", outcome.Reason, tt.wantReason)
			}
			if outcome.Accepted != (tt.wantReason == ReasonAccepted) {
				t.Errorf("Accepted = %v for reason %s", outcome.Accepted, outcome.Reason)
			}
			if outcome.Message == "" {
				t.Error("every outcome should carry a message")
			}
		})
	}
}

func TestVerifyUniversalBypassesScope(t *testing.T) {
	code := activeCode(models.UniversalScope())

	outcome := Verify(code, true, models.CohortScope("any-school", "1999"), verifyNow)
	if !outcome.Accepted {
		t.Fatalf("universal code rejected: %s", outcome.Reason)
	}
	if !outcome.Universal {
		t.Error("outcome should be flagged universal")
	}

	// Universal codes still expire and exhaust.
	expired := verifyNow.Add(-time.Minute)
	code.ExpiresAt = &expired
	if outcome := Verify(code, true, models.Scope{}, verifyNow); outcome.Reason != ReasonExpired {
		t.Errorf("expired universal code: Reason = %s, want %s", outcome.Reason, ReasonExpired)
	}

	code.ExpiresAt = nil
	code.CurrentUses = code.MaxUses
	if outcome := Verify(code, true, models.Scope{}, verifyNow); outcome.Reason != ReasonExhausted {
		t.Errorf("exhausted universal code: Reason = %s, want %s", outcome.Reason, ReasonExhausted)
	}
}

func TestOutcomeErr(t *testing.T) {
	tests := []struct {
		reason Reason
		want   error
	}{
		{ReasonNotFound, faults.ErrNotFound},
		{ReasonExpired, faults.ErrExpired},
		{ReasonExhausted, faults.ErrQuotaExhausted},
		{ReasonSchoolMismatch, faults.ErrScopeMismatch},
		{ReasonYearMismatch, faults.ErrScopeMismatch},
		{ReasonCohortMismatch, faults.ErrScopeMismatch},
	}
	for _, tt := range tests {
		outcome := Outcome{Reason: tt.reason}
		if err := outcome.Err(); !errors.Is(err, tt.want) {
			t.Errorf("Outcome{%s}.Err() = %v, want %v", tt.reason, err, tt.want)
		}
	}

	accepted := Outcome{Accepted: true, Reason: ReasonAccepted}
	if err := accepted.Err(); err != nil {
		t.Errorf("accepted outcome should map to nil, got %v", err)
	}
}
