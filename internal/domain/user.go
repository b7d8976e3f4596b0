package domain

import (
	"errors"
	"strings"
)

// User is the identity attached to every mutating operation for audit. It is
// passed explicitly into use cases; nothing in the engine looks it up from
// ambient state.
type User struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// Validate checks that the identity can be attributed.
func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return ErrMissingActor
	}
	return nil
}

// Branch is the retail branch a register and cash book belong to. Only its
// existence matters to the engine.
type Branch struct {
	ID   string
	Name string
}

// Role represents a user's access level
type Role string

const (
	// RoleAdmin has full access, including bank management and deletions
	RoleAdmin Role = "admin"

	// RoleCashier can operate registers and cheques
	RoleCashier Role = "cashier"

	// RoleViewer can only read summaries and ledgers
	RoleViewer Role = "viewer"
)

var validRoles = map[Role]bool{
	RoleAdmin:   true,
	RoleCashier: true,
	RoleViewer:  true,
}

// IsValid checks if the role is a valid role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// CanOperate checks if the role can move cash and cheques
func (r Role) CanOperate() bool {
	return r == RoleAdmin || r == RoleCashier
}

// CanManageBanks checks if the role can create, edit and deactivate banks
func (r Role) CanManageBanks() bool {
	return r == RoleAdmin
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)
