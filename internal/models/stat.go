package models

// UserStats aggregates member accounts by role and activity.
type UserStats struct {
	Total      int `json:"total" db:"total"`
	Members    int `json:"members" db:"members"`
	Moderators int `json:"moderators" db:"moderators"`
	Admins     int `json:"admins" db:"admins"`
	Active     int `json:"active" db:"active"`
	Inactive   int `json:"inactive" db:"inactive"`
}

// CodeStats aggregates invitation codes. Usable counts only active codes
// that are neither expired nor exhausted.
type CodeStats struct {
	TotalGenerated int `json:"total_generated" db:"total_generated"`
	TotalUses      int `json:"total_uses" db:"total_uses"`
	Usable         int `json:"usable" db:"usable"`
}

// AccessRequestStats aggregates requests by decision state.
type AccessRequestStats struct {
	Pending  int `json:"pending" db:"pending"`
	Approved int `json:"approved" db:"approved"`
	Rejected int `json:"rejected" db:"rejected"`
}

// AdminStats is the dashboard aggregate exposed to administrators.
type AdminStats struct {
	Users          UserStats          `json:"users"`
	Codes          CodeStats          `json:"codes"`
	AccessRequests AccessRequestStats `json:"access_requests"`
}
