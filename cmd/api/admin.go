package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"hanar/internal/domain/adminroles"
	"hanar/internal/domain/listings"
	"hanar/internal/notifications"

	"github.com/go-chi/chi/v5"
)

// adminDashboardHandler godoc
//
//	@Summary		Platform overview (admin)
//	@Description	Aggregate counts across users, businesses, listings and packs
//	@Tags			admin
//	@Produce		json
//	@Success		200	{object}	dashboard.Overview
//	@Failure		403	{object}	error	"Forbidden"
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/dashboard [get]
func (app *application) adminDashboardHandler(w http.ResponseWriter, r *http.Request) {
	overview, err := app.store.Dashboard.GetOverview(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, overview); err != nil {
		app.internalServerError(w, r, err)
	}
}

// adminDeleteListingHandler godoc
//
//	@Summary		Remove a listing (moderation)
//	@Description	Deletes any listing regardless of owner and notifies the owner
//	@Tags			admin
//	@Produce		json
//	@Param			listingID	path		int		true	"Listing ID"
//	@Success		204			{string}	string	"Listing removed"
//	@Failure		400			{object}	error
//	@Failure		403			{object}	error	"Forbidden"
//	@Failure		404			{object}	error
//	@Failure		500			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/listings/{listingID} [delete]
func (app *application) adminDeleteListingHandler(w http.ResponseWriter, r *http.Request) {
	listingID, err := strconv.ParseInt(chi.URLParam(r, "listingID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid listingID"))
		return
	}

	// Load before deleting so the owner can be told what was removed.
	listing, err := app.store.Listings.GetByID(r.Context(), listingID)
	if err != nil {
		switch err {
		case listings.ErrListingNotFound:
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.store.Listings.DeleteAny(r.Context(), listingID); err != nil {
		switch err {
		case listings.ErrListingNotFound:
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.notifier.Notify(r.Context(), listing.UserID, notifications.ListingRemoved, listing.Title); err != nil {
		app.logger.Warnw("failed to record removal notification", "user_id", listing.UserID, "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

type BroadcastPayload struct {
	Title string `json:"title" validate:"required,max=140"`
	Body  string `json:"body" validate:"required,max=2000"`
}

// adminBroadcastHandler godoc
//
//	@Summary		Broadcast a notification (admin)
//	@Description	Writes one message to every active account's inbox
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		BroadcastPayload	true	"Message"
//	@Success		200		{object}	map[string]int		"Number of inboxes reached"
//	@Failure		400		{object}	error
//	@Failure		403		{object}	error	"Forbidden"
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/notifications/broadcast [post]
func (app *application) adminBroadcastHandler(w http.ResponseWriter, r *http.Request) {
	var payload BroadcastPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	reached, err := app.notifier.Broadcast(r.Context(), payload.Title, payload.Body)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("broadcast sent", "title", payload.Title, "reached", reached)

	if err := app.jsonResponse(w, http.StatusOK, map[string]int{"reached": reached}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listAdminRolesHandler godoc
//
//	@Summary		List admin role assignments
//	@Tags			admin
//	@Produce		json
//	@Success		200	{array}		adminroles.Record
//	@Failure		403	{object}	error	"Forbidden"
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/roles [get]
func (app *application) listAdminRolesHandler(w http.ResponseWriter, r *http.Request) {
	records, err := app.store.AdminRoles.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, records); err != nil {
		app.internalServerError(w, r, err)
	}
}

type AssignRolePayload struct {
	UserID *int64  `json:"user_id" validate:"omitempty,gt=0"`
	Email  *string `json:"email" validate:"omitempty,email,max=255"`
	Role   string  `json:"role" validate:"required"`
}

// assignAdminRoleHandler godoc
//
//	@Summary		Assign an admin role
//	@Description	Grants a role to an account keyed by user ID or email. Exactly one key must be provided; emails are stored lower-cased.
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		AssignRolePayload	true	"Assignment"
//	@Success		201		{object}	adminroles.Record
//	@Failure		400		{object}	error
//	@Failure		403		{object}	error	"Forbidden"
//	@Failure		409		{object}	error	"Account already has a role"
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/roles [post]
func (app *application) assignAdminRoleHandler(w http.ResponseWriter, r *http.Request) {
	var payload AssignRolePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if (payload.UserID == nil) == (payload.Email == nil) {
		app.badRequestResponse(w, r, errors.New("exactly one of user_id or email is required"))
		return
	}

	role := adminroles.Role(payload.Role)
	if !role.Valid() {
		app.badRequestResponse(w, r, fmt.Errorf("invalid role: %s", payload.Role))
		return
	}

	record := &adminroles.Record{
		UserID: payload.UserID,
		Role:   role,
	}
	if payload.Email != nil {
		email := strings.ToLower(*payload.Email)
		record.Email = &email
	}

	if err := app.store.AdminRoles.Assign(r.Context(), record); err != nil {
		switch err {
		case adminroles.ErrDuplicateRole:
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, record); err != nil {
		app.internalServerError(w, r, err)
	}
}

// removeAdminRoleHandler godoc
//
//	@Summary		Remove an admin role assignment
//	@Tags			admin
//	@Produce		json
//	@Param			roleID	path		int		true	"Role record ID"
//	@Success		204		{string}	string	"Role removed"
//	@Failure		400		{object}	error
//	@Failure		403		{object}	error	"Forbidden"
//	@Failure		404		{object}	error
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/admin/roles/{roleID} [delete]
func (app *application) removeAdminRoleHandler(w http.ResponseWriter, r *http.Request) {
	roleID, err := strconv.ParseInt(chi.URLParam(r, "roleID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid roleID"))
		return
	}

	if err := app.store.AdminRoles.Remove(r.Context(), roleID); err != nil {
		switch err {
		case adminroles.ErrRoleNotFound:
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
