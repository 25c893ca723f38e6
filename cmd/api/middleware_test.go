package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hanar/internal/auth"
	"hanar/internal/authz"
	"hanar/internal/domain/adminroles"
	"hanar/internal/domain/storage"
	"hanar/internal/domain/users"

	"github.com/stretchr/testify/require"
)

func withAdminGate(app *application, allowed authz.RoleSet) http.Handler {
	return app.RequireAdminRoles(allowed)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRequireAdminRolesAllowsListedRole(t *testing.T) {
	app := newTestApp(t)
	wireGate(app, &stubRoleStore{byID: map[int64]adminroles.Role{7: adminroles.RoleSupport}})

	handler := withAdminGate(app, authz.NewRoleSet(adminroles.RoleOwner, adminroles.RoleSupport))

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/dashboard", nil)
	req = requestWithUser(req, &users.User{ID: 7, Email: "support@hanar.app"})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdminRolesDeniesUnlistedRole(t *testing.T) {
	app := newTestApp(t)
	wireGate(app, &stubRoleStore{byID: map[int64]adminroles.Role{7: adminroles.RoleSupport}})

	handler := withAdminGate(app, authz.NewRoleSet(adminroles.RoleOwner))

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/roles", nil)
	req = requestWithUser(req, &users.User{ID: 7, Email: "support@hanar.app"})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Denial body stays generic: no role names, no hints.
	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Status  int    `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Success)
	require.Equal(t, "forbidden", body.Message)
}

func TestRequireAdminRolesDeniesWithoutUser(t *testing.T) {
	app := newTestApp(t)
	wireGate(app, &stubRoleStore{byID: map[int64]adminroles.Role{7: adminroles.RoleOwner}})

	handler := withAdminGate(app, authz.NewRoleSet(adminroles.RoleOwner))

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/dashboard", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAdminRolesFailsClosedOnStorageError(t *testing.T) {
	app := newTestApp(t)
	wireGate(app, &stubRoleStore{err: errors.New("connection refused")})

	handler := withAdminGate(app, authz.NewRoleSet(adminroles.RoleOwner))

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/dashboard", nil)
	req = requestWithUser(req, &users.User{ID: 7, Email: "owner@hanar.app"})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAdminRolesFallsBackToEmail(t *testing.T) {
	app := newTestApp(t)
	wireGate(app, &stubRoleStore{byEmail: map[string]adminroles.Role{"boss@hanar.app": adminroles.RoleOwner}})

	handler := withAdminGate(app, authz.NewRoleSet(adminroles.RoleOwner))

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/roles", nil)
	req = requestWithUser(req, &users.User{ID: 99, Email: "Boss@Hanar.app"})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAccessTokenPrefersCookieOverHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "cookie-token"})
	req.Header.Set("Authorization", "Bearer header-token")

	candidates, err := accessTokenCandidates(req)
	require.NoError(t, err)
	require.Equal(t, []string{"cookie-token", "header-token"}, candidates)
}

func TestAccessTokenFallsBackToBearer(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer header-token")

	candidates, err := accessTokenCandidates(req)
	require.NoError(t, err)
	require.Equal(t, []string{"header-token"}, candidates)
}

func TestAccessTokenRejectsMissingCredentials(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)

	_, err := accessTokenCandidates(req)
	require.Error(t, err)
}

func TestAccessTokenRejectsMalformedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req.Header.Set("Authorization", "Token abc")

	_, err := accessTokenCandidates(req)
	require.Error(t, err)
}

func TestAccessTokenKeepsCookieDespiteMalformedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "cookie-token"})
	req.Header.Set("Authorization", "Token abc")

	candidates, err := accessTokenCandidates(req)
	require.NoError(t, err)
	require.Equal(t, []string{"cookie-token"}, candidates)
}

func withTokenAuth(app *application) http.Handler {
	return app.AuthTokenMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := getUserFromContext(r)
		if user == nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
}

// A browser can hold an expired session cookie while the client also sends a
// fresh bearer token. The bearer credential must still get the caller in.
func TestAuthTokenMiddlewareRecoversFromStaleCookie(t *testing.T) {
	app := newTestApp(t)
	app.authenticator = auth.NewJWTAuthenticator(
		"test-secret", "test-refresh-secret", time.Minute, time.Hour, "hanar", "hanar",
	)
	app.store = &storage.Container{
		Users: &stubUserStore{byID: map[int64]*users.User{7: {ID: 7, Email: "seller@hanar.app"}}},
	}

	accessToken, _, err := app.authenticator.GenerateTokens(7, "user")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "stale-garbage"})
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rec := httptest.NewRecorder()

	withTokenAuth(app).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthTokenMiddlewareRejectsWhenAllCandidatesInvalid(t *testing.T) {
	app := newTestApp(t)
	app.authenticator = auth.NewJWTAuthenticator(
		"test-secret", "test-refresh-secret", time.Minute, time.Hour, "hanar", "hanar",
	)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "stale-garbage"})
	req.Header.Set("Authorization", "Bearer also-garbage")
	rec := httptest.NewRecorder()

	withTokenAuth(app).ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
