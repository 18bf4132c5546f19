package auth

import "strings"

// Role is the account role. There are exactly two.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole returns ErrInvalidRole for anything that is not a known role.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	default:
		return "", ErrInvalidRole
	}
}

func (r Role) String() string {
	return string(r)
}

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

// IsAdmin is true only for RoleAdmin.
func (r Role) IsAdmin() bool {
	switch r {
	case RoleAdmin:
		return true
	default:
		return false
	}
}

// IsUser is true only for RoleUser.
func (r Role) IsUser() bool {
	switch r {
	case RoleUser:
		return true
	default:
		return false
	}
}

// Satisfies reports whether r passes a gate that requires the given role.
// Matching is exact: admins do not pass user gates and vice versa.
func (r Role) Satisfies(required Role) bool {
	switch required {
	case RoleAdmin:
		return r.IsAdmin()
	case RoleUser:
		return r.IsUser()
	default:
		return false
	}
}

// Priority is the default ticket priority of an account.
type Priority string

const (
	PriorityLow    Priority = "baixa"
	PriorityMedium Priority = "media"
	PriorityHigh   Priority = "alta"
	PriorityUrgent Priority = "urgente"
)

// Priorities lists the accepted priorities.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}
