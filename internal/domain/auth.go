package domain

import "strings"

// Role enumerates the three account kinds.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleStaff  Role = "STAFF"
	RoleClient Role = "CLIENT"
)

// RolePrefix marks the canonical authority form of a role ("ROLE_ADMIN").
const RolePrefix = "ROLE_"

// Authority returns the canonical prefixed form used in token claims.
func (r Role) Authority() string {
	return RolePrefix + string(r)
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleClient:
		return true
	}
	return false
}

// ParseRole accepts "admin", "ADMIN", "ROLE_ADMIN" and "role_admin" alike.
func ParseRole(raw string) (Role, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.TrimPrefix(normalized, RolePrefix)
	role := Role(normalized)
	return role, role.Valid()
}

// Principal is the authenticated caller derived from an access token.
type Principal struct {
	UserID string
	Email  string
	Role   Role
}

// IsAdmin reports whether the principal has unrestricted scope.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
