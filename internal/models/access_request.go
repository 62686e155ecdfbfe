package models

import "time"

type AccessRequestStatus string

const (
	AccessRequestPending  AccessRequestStatus = "pending"
	AccessRequestApproved AccessRequestStatus = "approved"
	AccessRequestRejected AccessRequestStatus = "rejected"
)

// AccessRequest is a prospective member's application for an account when no
// invitation code covers their cohort. A request leaves pending exactly once;
// approved and rejected are terminal.
type AccessRequest struct {
	ID              string              `json:"id"`
	FirstName       string              `json:"first_name"`
	LastName        string              `json:"last_name"`
	Email           string              `json:"email"`
	SchoolID        string              `json:"school_id"`
	EntryYear       string              `json:"entry_year"`
	Message         string              `json:"message"`
	WantsAmbassador bool                `json:"wants_ambassador"`
	Status          AccessRequestStatus `json:"status"`
	CreatedAt       time.Time           `json:"created_at"`
	ProcessedAt     *time.Time          `json:"processed_at,omitempty"`
}

func (r AccessRequest) IsPending() bool {
	return r.Status == AccessRequestPending
}
