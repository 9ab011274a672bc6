package model

import "fmt"

// Role is the acting role of a user in a request.
type Role string

const (
	RoleRenter Role = "renter"
	RoleOwner  Role = "owner"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleRenter, RoleOwner:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Session identifies the acting user. It is passed explicitly to every
// operation that depends on who is acting.
type Session struct {
	UserID int64
	Role   Role
}

// NewSession validates and builds a session.
func NewSession(userID int64, role Role) (Session, error) {
	if userID <= 0 {
		return Session{}, fmt.Errorf("user id must be positive, got %d", userID)
	}
	if _, err := ParseRole(string(role)); err != nil {
		return Session{}, err
	}
	return Session{UserID: userID, Role: role}, nil
}

func (s Session) IsOwner() bool  { return s.Role == RoleOwner }
func (s Session) IsRenter() bool { return s.Role == RoleRenter }
