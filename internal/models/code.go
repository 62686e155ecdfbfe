package models

import "time"

// Scope is the cohort an invitation code is restricted to. A universal scope
// matches any school and entry year.
type Scope struct {
	Universal bool   `json:"universal"`
	SchoolID  string `json:"school_id,omitempty"`
	EntryYear string `json:"entry_year,omitempty"`
}

func UniversalScope() Scope {
	return Scope{Universal: true}
}

func CohortScope(schoolID, entryYear string) Scope {
	return Scope{SchoolID: schoolID, EntryYear: entryYear}
}

// Matches reports whether a requester's cohort satisfies the scope, and if
// not, which fields differ.
func (s Scope) Matches(other Scope) (ok, schoolMatch, yearMatch bool) {
	if s.Universal {
		return true, true, true
	}
	schoolMatch = s.SchoolID == other.SchoolID
	yearMatch = s.EntryYear == other.EntryYear
	return schoolMatch && yearMatch, schoolMatch, yearMatch
}

// InvitationCode represents a shareable registration code. Codes are never
// physically deleted; exhausted or revoked codes stay in the table for audit.
type InvitationCode struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	Scope       Scope      `json:"scope"`
	CreatedByID *string    `json:"created_by_user_id,omitempty"`
	MaxUses     int        `json:"max_uses"`
	CurrentUses int        `json:"current_uses"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (c InvitationCode) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

func (c InvitationCode) IsExhausted() bool {
	return c.CurrentUses >= c.MaxUses
}

func (c InvitationCode) UsesRemaining() int {
	if remaining := c.MaxUses - c.CurrentUses; remaining > 0 {
		return remaining
	}
	return 0
}
