package models

import "strings"

// Caller is the authenticated identity behind a request
type Caller struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// HasRole reports whether the caller holds role
func (c Caller) HasRole(role string) bool {
	for _, r := range c.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// IsVhOfficer is true for video hearings officers
func (c Caller) IsVhOfficer() bool {
	return c.HasRole(RoleVhOfficer)
}

// IsHost is true when the caller holds Judge or StaffMember
func (c Caller) IsHost() bool {
	return c.HasRole(string(RoleJudge)) || c.HasRole(string(RoleStaffMember))
}

// Matches reports whether the participant belongs to this caller
func (c Caller) Matches(p Participant) bool {
	return c.Username != "" && strings.EqualFold(c.Username, p.Username)
}
