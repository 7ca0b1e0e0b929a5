package models

import "strings"

// Role represents the portal a user belongs to.
// Roles gate route admission and the ability to save jobs.
type Role string

const (
	RoleJobseeker Role = "jobseeker" // Candidate browsing and saving jobs
	RoleEmployer  Role = "employer"  // Company account posting jobs
	RoleAdmin     Role = "admin"     // Back-office administrator
)

// ParseRole normalizes a wire-format role string: known roles are matched
// case-insensitively and with surrounding whitespace stripped. Unknown
// values are kept verbatim so the server can introduce roles without
// breaking old clients; callers use Known to decide how to treat them.
func ParseRole(s string) Role {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleJobseeker, RoleEmployer, RoleAdmin:
		return r
	}
	return Role(s)
}

// Known returns true for the three roles this client understands.
func (r Role) Known() bool {
	switch r {
	case RoleJobseeker, RoleEmployer, RoleAdmin:
		return true
	}
	return false
}

// CanSaveJobs returns true if the role is permitted to save jobs.
// Only candidates maintain a saved-jobs list.
func (r Role) CanSaveJobs() bool {
	return r == RoleJobseeker
}
