package models

import "time"

type UserRole string

const (
	RoleMember    UserRole = "member"
	RoleModerator UserRole = "moderator"
	RoleAdmin     UserRole = "admin"
)

// AdminCodeAllowance is the sentinel issuance quota for administrators. Large
// enough to never bind in practice while keeping comparisons well-defined.
const AdminCodeAllowance = 1_000_000

func IsValidRole(role UserRole) bool {
	switch role {
	case RoleMember, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// MaxCodesFor derives the code-issuance quota from a user's role and
// ambassador status. Every mutation of role or is_ambassador must persist
// the result in the same update; max_codes_allowed on the user row is a
// cached projection of this function, never an independent value.
func MaxCodesFor(role UserRole, isAmbassador bool) int {
	if role == RoleAdmin {
		return AdminCodeAllowance
	}
	if isAmbassador {
		return 20
	}
	return 3
}

type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	SchoolID        string     `json:"school_id"`
	EntryYear       string     `json:"entry_year"`
	Role            UserRole   `json:"role"`
	IsAmbassador    bool       `json:"is_ambassador"`
	MaxCodesAllowed int        `json:"max_codes_allowed"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeactivatedAt   *time.Time `json:"deactivated_at,omitempty"`
}

// IssuanceLimit is the quota to enforce when the user creates an invitation
// code. Administrators keep issuing past any cached allowance.
func (u User) IssuanceLimit() int {
	if u.Role == RoleAdmin {
		return AdminCodeAllowance
	}
	return u.MaxCodesAllowed
}
