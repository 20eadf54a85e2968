package auth

import "strings"

// Role is the dashboard access level carried in the token.
type Role string

const (
	RoleViewer  Role = "viewer"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// roleOrder lists roles from least to most privileged.
var roleOrder = []Role{RoleViewer, RoleManager, RoleAdmin}

// NormalizeRole accepts role names in any case and surrounding whitespace.
func NormalizeRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if roleRank(role) == 0 {
		return "", false
	}
	return role, true
}

// RoleAtLeast reports whether role grants at least the required level.
func RoleAtLeast(role Role, required Role) bool {
	rank := roleRank(role)
	return rank > 0 && rank >= roleRank(required)
}

// Unscoped reports whether the role may act without an organization claim.
func (r Role) Unscoped() bool {
	return r == RoleAdmin
}

func roleRank(role Role) int {
	for i, candidate := range roleOrder {
		if candidate == role {
			return i + 1
		}
	}
	return 0
}
