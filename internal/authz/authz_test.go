package authz

import (
	"context"
	"errors"
	"testing"

	"hanar/internal/domain/adminroles"

	"github.com/stretchr/testify/require"
)

type stubRoleStore struct {
	byID    map[int64]adminroles.Role
	byEmail map[string]adminroles.Role
	idErr   error
	mailErr error
}

func (s *stubRoleStore) GetRoleByUserID(ctx context.Context, userID int64) (adminroles.Role, error) {
	if s.idErr != nil {
		return "", s.idErr
	}
	role, ok := s.byID[userID]
	if !ok {
		return "", adminroles.ErrRoleNotFound
	}
	return role, nil
}

func (s *stubRoleStore) GetRoleByEmail(ctx context.Context, email string) (adminroles.Role, error) {
	if s.mailErr != nil {
		return "", s.mailErr
	}
	role, ok := s.byEmail[email]
	if !ok {
		return "", adminroles.ErrRoleNotFound
	}
	return role, nil
}

func TestAuthorizeAllowsListedRole(t *testing.T) {
	gate := NewGate(&stubRoleStore{byID: map[int64]adminroles.Role{7: adminroles.RoleSupport}})

	d := gate.Authorize(context.Background(),
		&Identity{UserID: 7},
		NewRoleSet(adminroles.RoleOwner, adminroles.RoleSupport),
	)
	require.True(t, d.Allowed)
	require.NotNil(t, d.Role)
	require.Equal(t, adminroles.RoleSupport, *d.Role)
}

func TestAuthorizeDeniesUnlistedRole(t *testing.T) {
	gate := NewGate(&stubRoleStore{byID: map[int64]adminroles.Role{7: adminroles.RoleSupport}})

	d := gate.Authorize(context.Background(),
		&Identity{UserID: 7},
		NewRoleSet(adminroles.RoleOwner),
	)
	require.False(t, d.Allowed)
	require.Nil(t, d.Role)
}

func TestAuthorizeNoIdentityDenied(t *testing.T) {
	gate := NewGate(&stubRoleStore{})
	d := gate.Authorize(context.Background(), nil, NewRoleSet(adminroles.RoleOwner))
	require.False(t, d.Allowed)
}

func TestAuthorizeNoRoleDenied(t *testing.T) {
	gate := NewGate(&stubRoleStore{})
	d := gate.Authorize(context.Background(), &Identity{UserID: 7, Email: "x@hanar.app"}, NewRoleSet(adminroles.RoleOwner))
	require.False(t, d.Allowed)
}

func TestAuthorizeIDTakesPrecedenceOverEmail(t *testing.T) {
	gate := NewGate(&stubRoleStore{
		byID:    map[int64]adminroles.Role{7: adminroles.RoleSupport},
		byEmail: map[string]adminroles.Role{"x@hanar.app": adminroles.RoleOwner},
	})

	d := gate.Authorize(context.Background(),
		&Identity{UserID: 7, Email: "x@hanar.app"},
		NewRoleSet(adminroles.RoleOwner, adminroles.RoleSupport),
	)
	require.True(t, d.Allowed)
	require.Equal(t, adminroles.RoleSupport, *d.Role)
}

func TestAuthorizeEmailFallbackIsCaseInsensitive(t *testing.T) {
	gate := NewGate(&stubRoleStore{
		byEmail: map[string]adminroles.Role{"x@hanar.app": adminroles.RoleAdmin},
	})

	d := gate.Authorize(context.Background(),
		&Identity{Email: "X@Hanar.App"},
		NewRoleSet(adminroles.RoleAdmin),
	)
	require.True(t, d.Allowed)
}

func TestAuthorizeFailsClosedOnStorageError(t *testing.T) {
	gate := NewGate(&stubRoleStore{idErr: errors.New("connection refused")})

	d := gate.Authorize(context.Background(),
		&Identity{UserID: 7},
		NewRoleSet(adminroles.RoleOwner),
	)
	require.False(t, d.Allowed)
	require.Nil(t, d.Role)
}

func TestAuthorizeErrRoleNotFoundByIDFallsThroughToEmail(t *testing.T) {
	gate := NewGate(&stubRoleStore{
		byEmail: map[string]adminroles.Role{"ops@hanar.app": adminroles.RoleModerator},
	})

	d := gate.Authorize(context.Background(),
		&Identity{UserID: 42, Email: "ops@hanar.app"},
		NewRoleSet(adminroles.RoleModerator),
	)
	require.True(t, d.Allowed)
	require.Equal(t, adminroles.RoleModerator, *d.Role)
}
