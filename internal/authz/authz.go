// Package authz is the admin authorization gate: it resolves a caller to
// at most one admin role and checks it against a route-specific
// allow-list. Roles are a flat capability set, not a hierarchy, and every
// ambiguous or failed lookup denies.
package authz

import (
	"context"
	"errors"
	"strings"

	"hanar/internal/domain/adminroles"
)

// Identity is a caller already authenticated by the session or bearer
// channel. Email is the normalized fallback lookup key for accounts
// provisioned by address rather than ID.
type Identity struct {
	UserID int64
	Email  string
}

// RoleSet is a route's allow-list.
type RoleSet map[adminroles.Role]struct{}

func NewRoleSet(roles ...adminroles.Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

func (s RoleSet) Contains(role adminroles.Role) bool {
	_, ok := s[role]
	return ok
}

// Decision mirrors the wire shape {allowed, role}. Role is only set on
// an allowed decision.
type Decision struct {
	Allowed bool             `json:"allowed"`
	Role    *adminroles.Role `json:"role"`
}

type RoleStore interface {
	GetRoleByUserID(ctx context.Context, userID int64) (adminroles.Role, error)
	GetRoleByEmail(ctx context.Context, email string) (adminroles.Role, error)
}

type Gate struct {
	roles RoleStore
}

func NewGate(roles RoleStore) *Gate {
	return &Gate{roles: roles}
}

var denied = Decision{Allowed: false}

// Authorize resolves the caller's role and checks it against the
// route's allow-list. Lookup by user ID wins over lookup by email so an
// account provisioned under both keys cannot pick up an ambiguous role.
// Storage errors deny rather than propagate: the gate fails closed.
func (g *Gate) Authorize(ctx context.Context, identity *Identity, allowed RoleSet) Decision {
	if identity == nil {
		return denied
	}

	role, err := g.resolveRole(ctx, identity)
	if err != nil {
		return denied
	}

	if !allowed.Contains(role) {
		return denied
	}

	return Decision{Allowed: true, Role: &role}
}

func (g *Gate) resolveRole(ctx context.Context, identity *Identity) (adminroles.Role, error) {
	if identity.UserID != 0 {
		role, err := g.roles.GetRoleByUserID(ctx, identity.UserID)
		if err == nil {
			return role, nil
		}
		if !errors.Is(err, adminroles.ErrRoleNotFound) {
			return "", err
		}
	}

	if identity.Email != "" {
		return g.roles.GetRoleByEmail(ctx, strings.ToLower(identity.Email))
	}

	return "", adminroles.ErrRoleNotFound
}
