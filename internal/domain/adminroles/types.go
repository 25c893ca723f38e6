package adminroles

import (
	"errors"
	"time"
)

var (
	ErrRoleNotFound  = errors.New("admin role not found")
	ErrDuplicateRole = errors.New("account already has an admin role")
)

// Role is the closed set of admin role strings. Routes declare flat
// allow-lists of these; there is no ordering or inheritance.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleSupport   Role = "support"
)

// Valid reports whether the string is one of the known role values.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleModerator, RoleSupport:
		return true
	}
	return false
}

// Record is an admin_roles row. Accounts may be provisioned by user ID
// or by email depending on how they were created, so either key can be
// present.
type Record struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
