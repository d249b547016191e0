package user

import (
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidRole = errors.New("invalid role")

type Role string

const (
	// RoleUser is a guest. Guests only see properties of owners who trust them.
	RoleUser  Role = "user"
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleOwner, RoleAdmin:
		return true
	default:
		return false
	}
}

func NewRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", ErrInvalidRole
	}
	return role, nil
}

// Identity is the authenticated caller as asserted by a validated token.
// The zero value is an anonymous caller.
type Identity struct {
	ID   uuid.UUID
	Role Role
}

func Anonymous() Identity {
	return Identity{}
}

func (i Identity) IsAnonymous() bool {
	return i.ID == uuid.Nil
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// IsGuest is true for callers whose bookable set is scoped by trust connections.
func (i Identity) IsGuest() bool {
	return i.Role == RoleUser
}
