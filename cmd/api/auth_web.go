package main

import (
	"errors"
	"net/http"
	"strconv"

	"hanar/internal/domain/users"

	"github.com/golang-jwt/jwt/v5"
)

// setAuthCookies sets access + refresh tokens as HttpOnly cookies.
// Web browsers store/send these automatically; JS cannot read them (HttpOnly).
func (app *application) setAuthCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	// Access token cookie (short lived)
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   app.config.env == "production",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(app.config.auth.token.accessTokenExp.Seconds()),
	})

	// Refresh token cookie (long lived)
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/v1/authentication", // refresh/logout only
		HttpOnly: true,
		Secure:   app.config.env == "production",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(app.config.auth.token.refreshTokenExp.Seconds()),
	})
}

func (app *application) clearAuthCookies(w http.ResponseWriter) {
	expire := func(name, path string) {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     path,
			HttpOnly: true,
			Secure:   app.config.env == "production",
			SameSite: http.SameSiteLaxMode,
			MaxAge:   -1,
		})
	}

	expire("access_token", "/")
	expire("refresh_token", "/v1/authentication")
}

// createWebTokenHandler godoc
//
//	@Summary		Login from a browser
//	@Description	Same login logic as /authentication/token, but sets HttpOnly cookies and returns only user_id and role.
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateUserTokenPayload	true	"User credentials"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	error
//	@Failure		401		{object}	error
//	@Failure		500		{object}	error
//	@Router			/authentication/web/token [post]
func (app *application) createWebTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateUserTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	user, err := app.store.Users.GetByEmail(r.Context(), payload.Email)
	if err != nil {
		switch err {
		case users.ErrNotFound:
			app.unauthorizedErrorResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}
	if err := user.Password.Compare(payload.Password); err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	role, err := app.roleForUser(r, user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	accessToken, refreshToken, err := app.authenticator.GenerateTokens(user.ID, role)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	// Save refresh token in DB for rotation/revocation
	if err := app.store.Users.SaveRefreshToken(r.Context(), user.ID, refreshToken); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.setAuthCookies(w, accessToken, refreshToken)

	// Return minimal data (web doesn't need tokens)
	userIDStr := strconv.FormatInt(user.ID, 10)
	_ = app.jsonResponse(w, http.StatusOK, map[string]string{
		"user_id": userIDStr,
		"role":    role,
	})
}

// refreshWebTokenHandler rotates the cookie pair using the refresh cookie.
func (app *application) refreshWebTokenHandler(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie("refresh_token")
	if err != nil || c.Value == "" {
		app.unauthorizedErrorResponse(w, r, errors.New("missing refresh token"))
		return
	}

	token, err := app.authenticator.ValidateRefreshToken(c.Value)
	if err != nil || !token.Valid {
		app.unauthorizedErrorResponse(w, r, errors.New("invalid refresh token"))
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		app.unauthorizedErrorResponse(w, r, errors.New("invalid claims"))
		return
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		app.unauthorizedErrorResponse(w, r, errors.New("invalid sub claim"))
		return
	}
	userID := int64(sub)

	// Ensure refresh token matches DB (rotation safety)
	saved, err := app.store.Users.GetRefreshToken(r.Context(), userID)
	if err != nil || saved != c.Value {
		app.unauthorizedErrorResponse(w, r, errors.New("refresh token mismatch"))
		return
	}

	role, err := app.roleForUser(r, userID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	accessToken, newRefresh, err := app.authenticator.GenerateTokens(userID, role)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.SaveRefreshToken(r.Context(), userID, newRefresh); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.setAuthCookies(w, accessToken, newRefresh)

	w.WriteHeader(http.StatusNoContent)
}

// webLogoutHandler clears the cookie pair. Revocation of the saved refresh
// token is best effort; the cookies are cleared either way.
func (app *application) webLogoutHandler(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie("refresh_token"); err == nil && c.Value != "" {
		if token, err := app.authenticator.ValidateRefreshToken(c.Value); err == nil && token.Valid {
			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				if sub, ok := claims["sub"].(float64); ok {
					if err := app.store.Users.DeleteRefreshToken(r.Context(), int64(sub)); err != nil {
						app.logger.Warnw("failed to delete refresh token on logout", "error", err)
					}
				}
			}
		}
	}

	app.clearAuthCookies(w)

	w.WriteHeader(http.StatusNoContent)
}
