package session

import "strings"

// Role is the resolved role of an authenticated subject.
type Role = string

const (
	// RoleCandidate is the default role for subjects with no usable claim.
	RoleCandidate Role = "candidate"
	// RoleEmployer posts openings and reviews candidates.
	RoleEmployer Role = "employer"
	// RoleStudent is an enrolled student account.
	RoleStudent Role = "student"
	// RoleFaculty is a faculty member account.
	RoleFaculty Role = "faculty"
	// RoleAdmin administers a single tenant.
	RoleAdmin Role = "admin"
	// RoleSuperAdmin administers the whole installation.
	RoleSuperAdmin Role = "superadmin"
)

// AllRoles returns the closed role enumeration.
func AllRoles() []Role {
	return []Role{
		RoleCandidate,
		RoleEmployer,
		RoleStudent,
		RoleFaculty,
		RoleAdmin,
		RoleSuperAdmin,
	}
}

// IsValidRole checks the role against the closed enumeration.
func IsValidRole(r Role) bool {
	switch r {
	case RoleCandidate, RoleEmployer, RoleStudent, RoleFaculty, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// ParseRole normalizes a raw role string at the boundary: trims, case folds,
// and canonicalizes the "super_admin" spelling. An unrecognized string
// returns ("", false) so callers fall through their preference chain instead
// of rejecting the subject outright.
func ParseRole(raw string) (Role, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, "_", "")
	normalized = strings.ReplaceAll(normalized, "-", "")

	switch normalized {
	case "candidate":
		return RoleCandidate, true
	case "employer":
		return RoleEmployer, true
	case "student":
		return RoleStudent, true
	case "faculty":
		return RoleFaculty, true
	case "admin":
		return RoleAdmin, true
	case "superadmin":
		return RoleSuperAdmin, true
	default:
		return "", false
	}
}

// IsPrivileged reports whether the role grants administrative access.
func IsPrivileged(r Role) bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// RoleSet is the set of roles a route accepts. An empty set means the route
// only requires an authenticated subject.
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet, normalizing every entry through ParseRole and
// dropping unrecognized ones.
func NewRoleSet(roles ...Role) RoleSet {
	set := RoleSet{}
	for _, r := range roles {
		if role, ok := ParseRole(r); ok {
			set[role] = struct{}{}
		}
	}
	return set
}

// Contains checks set membership.
func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}
