package models

import "fmt"

// Role is the coarse capability tier of a user.
type Role string

const (
	// RoleUser is the default role of a registered account.
	RoleUser Role = "user"
	// RolePublisher may create notes and manage the notes it owns.
	RolePublisher Role = "publisher"
	// RoleAdmin manages users and may act on any note.
	RoleAdmin Role = "admin"
)

// ParseRole converts s into a Role. An empty string yields RoleUser.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "":
		return RoleUser, nil
	case RoleUser, RolePublisher, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Registrable reports whether the role may be chosen at self-registration.
func (r Role) Registrable() bool {
	switch r {
	case RoleUser, RolePublisher:
		return true
	case RoleAdmin:
		return false
	}
	return false
}

// BypassesOwnership reports whether the role may mutate resources it does not own.
func (r Role) BypassesOwnership() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleUser, RolePublisher:
		return false
	}
	return false
}
