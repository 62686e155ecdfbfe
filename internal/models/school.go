package models

import "time"

type School struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	Country   string    `json:"country"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// AmbassadorInfo is the public subset of an ambassador's profile shown to
// prospective members checking their cohort.
type AmbassadorInfo struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// CohortSummary describes an existing school/entry-year community.
type CohortSummary struct {
	Exists        bool            `json:"exists"`
	MemberCount   int             `json:"member_count"`
	HasAmbassador bool            `json:"has_ambassador"`
	Ambassador    *AmbassadorInfo `json:"ambassador_info,omitempty"`
}
