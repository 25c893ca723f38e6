package main

import (
	"errors"
	"net/http"
	"time"

	"hanar/internal/entitlement"
	"hanar/internal/notifications"
)

// PackStatusResponse is the caller's Casual Seller Pack state.
type PackStatusResponse struct {
	Active        bool       `json:"active"`
	PackExpiresAt *time.Time `json:"pack_expires_at,omitempty"`
}

// getPackStatusHandler godoc
//
//	@Summary		Get Casual Seller Pack status
//	@Description	Reports whether the caller's pack is active and when it expires
//	@Tags			listings
//	@Produce		json
//	@Success		200	{object}	PackStatusResponse
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/listings/casual-seller-pack [get]
func (app *application) getPackStatusHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	pack, active, err := app.entitlements.PackStatus(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	resp := PackStatusResponse{Active: active}
	if pack != nil {
		resp.PackExpiresAt = pack.PackExpiresAt
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// purchasePackHandler godoc
//
//	@Summary		Purchase or renew the Casual Seller Pack
//	@Description	Adds 40 days of pack time. An active pack stacks on its current expiry; an expired or absent one starts from now. Business accounts are rejected.
//	@Tags			listings
//	@Produce		json
//	@Success		200	{object}	PackStatusResponse	"New pack expiry"
//	@Failure		403	{object}	error				"Business accounts do not use listing packs"
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/listings/casual-seller-pack [post]
func (app *application) purchasePackHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	pack, err := app.entitlements.RenewPack(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, entitlement.ErrBusinessAccount) {
			app.forbiddenWithMessageResponse(w, r, err.Error())
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if pack.PackExpiresAt != nil {
		expiry := pack.PackExpiresAt.Format("Jan 2, 2006")
		if err := app.notifier.Notify(r.Context(), user.ID, notifications.PackRenewed, expiry); err != nil {
			app.logger.Warnw("failed to record pack notification", "user_id", user.ID, "error", err)
		}
	}

	if err := app.jsonResponse(w, http.StatusOK, PackStatusResponse{
		Active:        true,
		PackExpiresAt: pack.PackExpiresAt,
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}
