// Package authz is the authorization guard: a monotonic comparison of role
// levels with no role-specific exceptions.
package authz

import (
	"gatekeeper/internal/roles/catalog"
	"gatekeeper/internal/roles/claims"
)

// Decision is the guard's verdict. Deny is terminal for the request.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

func (d Decision) Allowed() bool { return d == Allow }

// Authorize allows iff caller >= required.
func Authorize(caller, required catalog.Level) Decision {
	if caller >= required {
		return Allow
	}
	return Deny
}

// AuthorizeClaim treats an absent role as level 0.
func AuthorizeClaim(role *claims.RoleClaim, required catalog.Level) Decision {
	return Authorize(LevelOf(role), required)
}

// CanEscalate reports whether caller may act on or grant target. The
// comparison is strict so peers cannot modify each other.
func CanEscalate(caller, target catalog.Level) bool {
	return caller > target
}

// LevelOf returns the role's level, or LevelNone for nil.
func LevelOf(role *claims.RoleClaim) catalog.Level {
	if role == nil {
		return catalog.LevelNone
	}
	return role.Level
}
