package models

import (
	"testing"
	"time"
)

func TestScopeMatches(t *testing.T) {
	scope := CohortScope("school-1", "2015")

	tests := []struct {
		name        string
		other       Scope
		wantOK      bool
		wantSchool  bool
		wantYear    bool
	}{
		{"exact match", CohortScope("school-1", "2015"), true, true, true},
		{"wrong school", CohortScope("school-2", "2015"), false, false, true},
		{"wrong year", CohortScope("school-1", "2016"), false, true, false},
		{"both wrong", CohortScope("school-2", "2016"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, schoolMatch, yearMatch := scope.Matches(tt.other)
			if ok != tt.wantOK || schoolMatch != tt.wantSchool || yearMatch != tt.wantYear {
				t.Errorf("Matches = (%v, %v, %v), want (%v, %v, %v)",
					ok, schoolMatch, yearMatch, tt.wantOK, tt.wantSchool, tt.wantYear)
			}
		})
	}

	universal := UniversalScope()
	if ok, _, _ := universal.Matches(CohortScope("anything", "1999")); !ok {
		t.Error("universal scope should match any cohort")
	}
}

func TestInvitationCodeLifecycle(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	code := InvitationCode{MaxUses: 10, CurrentUses: 0}
	if code.IsExpired(now) {
		t.Error("code without expiry should never expire")
	}

	code.ExpiresAt = &future
	if code.IsExpired(now) {
		t.Error("code expiring in the future should not be expired")
	}

	code.ExpiresAt = &past
	if !code.IsExpired(now) {
		t.Error("code past its expiry should be expired")
	}

	code = InvitationCode{MaxUses: 10, CurrentUses: 9}
	if code.IsExhausted() {
		t.Error("code with one use left should not be exhausted")
	}
	if got := code.UsesRemaining(); got != 1 {
		t.Errorf("UsesRemaining = %d, want 1", got)
	}

	code.CurrentUses = 10
	if !code.IsExhausted() {
		t.Error("code at max uses should be exhausted")
	}
	if got := code.UsesRemaining(); got != 0 {
		t.Errorf("UsesRemaining = %d, want 0", got)
	}
}
