package main

import (
	"fmt"
	"net/http"
	"strconv"

	"hanar/internal/domain/notifications"
	"hanar/internal/params"

	"github.com/go-chi/chi/v5"
)

// listNotificationsHandler godoc
//
//	@Summary		List notifications
//	@Description	Paginated in-app inbox for the authenticated user, newest first
//	@Tags			notifications
//	@Produce		json
//	@Param			page	query		int	false	"Page number (default: 1)"
//	@Param			limit	query		int	false	"Items per page (default: 15)"
//	@Success		200		{object}	map[string]any
//	@Failure		500		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/notifications [get]
func (app *application) listNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	pg := params.ParsePagination(r.URL.Query())

	items, err := app.store.Notifications.ListByUserID(r.Context(), user.ID, pg.Limit, pg.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]any{
		"notifications": items,
		"pagination":    pg,
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// unreadCountHandler godoc
//
//	@Summary		Count unread notifications
//	@Tags			notifications
//	@Produce		json
//	@Success		200	{object}	map[string]int
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/notifications/unread-count [get]
func (app *application) unreadCountHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	count, err := app.store.Notifications.UnreadCount(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]int{"unread": count}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// markNotificationReadHandler godoc
//
//	@Summary		Mark a notification as read
//	@Tags			notifications
//	@Produce		json
//	@Param			notificationID	path		int		true	"Notification ID"
//	@Success		204				{string}	string	"Marked read"
//	@Failure		400				{object}	error
//	@Failure		404				{object}	error
//	@Failure		500				{object}	error
//	@Security		ApiKeyAuth
//	@Router			/notifications/{notificationID}/read [put]
func (app *application) markNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	notificationID, err := strconv.ParseInt(chi.URLParam(r, "notificationID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid notificationID"))
		return
	}

	if err := app.store.Notifications.MarkRead(r.Context(), notificationID, user.ID); err != nil {
		switch err {
		case notifications.ErrNotificationNotFound:
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// markAllNotificationsReadHandler godoc
//
//	@Summary		Mark every notification as read
//	@Tags			notifications
//	@Produce		json
//	@Success		204	{string}	string	"All marked read"
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/notifications/read-all [put]
func (app *application) markAllNotificationsReadHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	if err := app.store.Notifications.MarkAllRead(r.Context(), user.ID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
