package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"hanar/internal/domain/listings"
	"hanar/internal/entitlement"
	"hanar/internal/notifications"
	"hanar/internal/params"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/go-chi/chi/v5"
)

type CreateListingPayload struct {
	Title       string  `json:"title" validate:"required,max=140"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	PriceCents  int64   `json:"price_cents" validate:"required,gte=0"`
	Currency    string  `json:"currency" validate:"required,len=3,uppercase"`
	Category    string  `json:"category" validate:"required,max=60"`
	City        *string `json:"city" validate:"omitempty,max=80"`
}

// ListingWithRef decorates a listing with its shareable reference code.
type ListingWithRef struct {
	*listings.Listing
	RefCode string `json:"ref_code"`
}

// createListingHandler godoc
//
//	@Summary		Create a listing
//	@Description	Creates a listing for the caller, subject to their tier quota. Business owners are unlimited; individuals get 1 per rolling 30 days, or 5 with an active Casual Seller Pack.
//	@Tags			listings
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateListingPayload	true	"Listing details"
//	@Success		201		{object}	ListingWithRef			"Listing created"
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		403		{object}	error	"Quota exceeded, message explains the tier limit"
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/listings [post]
func (app *application) createListingHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload CreateListingPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	listing := &listings.Listing{
		UserID:      user.ID,
		Title:       payload.Title,
		Description: payload.Description,
		PriceCents:  payload.PriceCents,
		Currency:    payload.Currency,
		Category:    payload.Category,
		City:        payload.City,
	}

	decision, err := app.entitlements.CreateListing(r.Context(), listing)
	if err != nil {
		if errors.Is(err, entitlement.ErrQuotaExceeded) {
			app.forbiddenWithMessageResponse(w, r, decision.DenialMessage())
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.notifier.Notify(r.Context(), user.ID, notifications.ListingCreated, listing.Title); err != nil {
		app.logger.Warnw("failed to record listing notification", "user_id", user.ID, "error", err)
	}

	code, err := app.refcodes.Encode(listing.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, ListingWithRef{Listing: listing, RefCode: code}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getListingLimitsHandler godoc
//
//	@Summary		Get listing limits
//	@Description	Reports the caller's current quota state: tier, active count, cap, pack status and whether another listing may be created.
//	@Tags			listings
//	@Produce		json
//	@Success		200	{object}	entitlement.Decision
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/listings/limits [get]
func (app *application) getListingLimitsHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	decision, err := app.entitlements.Check(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, decision); err != nil {
		app.internalServerError(w, r, err)
	}
}

// browseListingsHandler godoc
//
//	@Summary		Browse listings
//	@Description	Paginated marketplace feed with optional category, city and title filters
//	@Tags			listings
//	@Produce		json
//	@Param			category	query		string	false	"Category filter"
//	@Param			city		query		string	false	"City filter"
//	@Param			q			query		string	false	"Title search"
//	@Param			page		query		int		false	"Page number (default: 1)"
//	@Param			limit		query		int		false	"Items per page (default: 15)"
//	@Success		200			{object}	map[string]any	"listings with pagination and filters"
//	@Failure		500			{object}	error
//	@Router			/listings [get]
func (app *application) browseListingsHandler(w http.ResponseWriter, r *http.Request) {
	pg := params.ParsePagination(r.URL.Query())

	filter := listings.ListingFilter{
		Category: r.URL.Query().Get("category"),
		City:     r.URL.Query().Get("city"),
		Query:    r.URL.Query().Get("q"),
	}

	items, total, err := app.store.Listings.List(r.Context(), filter, pg.Limit, pg.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	pg.ComputeMeta(total)

	if err := app.jsonResponse(w, http.StatusOK, map[string]any{
		"listings":   items,
		"pagination": pg,
		"filters": map[string]any{
			"category": filter.Category,
			"city":     filter.City,
			"q":        filter.Query,
		},
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getListingByCodeHandler godoc
//
//	@Summary		Get listing by reference code
//	@Description	Resolves a shareable reference code to its listing
//	@Tags			listings
//	@Produce		json
//	@Param			code	path		string	true	"Reference code"
//	@Success		200		{object}	ListingWithRef
//	@Failure		404		{object}	error
//	@Failure		500		{object}	error
//	@Router			/listings/ref/{code} [get]
func (app *application) getListingByCodeHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	listingID, err := app.refcodes.Decode(code)
	if err != nil {
		app.notFoundResponse(w, r, err)
		return
	}

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

	if err := app.jsonResponse(w, http.StatusOK, ListingWithRef{Listing: listing, RefCode: code}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getOwnListingsHandler godoc
//
//	@Summary		Get caller's listings
//	@Description	Returns every listing owned by the authenticated user, newest first
//	@Tags			listings
//	@Produce		json
//	@Success		200	{array}		listings.Listing
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/listings/mine [get]
func (app *application) getOwnListingsHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	items, err := app.store.Listings.ListByUserID(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, items); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteListingHandler godoc
//
//	@Summary		Delete a listing
//	@Description	Deletes a listing the caller owns. Frees quota immediately for pack holders; free tier quota follows the rolling window.
//	@Tags			listings
//	@Produce		json
//	@Param			listingID	path		int		true	"Listing ID"
//	@Success		204			{string}	string	"Listing deleted"
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error	"Not found or not owned by caller"
//	@Failure		500			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/listings/{listingID} [delete]
func (app *application) deleteListingHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	listingID, err := strconv.ParseInt(chi.URLParam(r, "listingID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid listingID"))
		return
	}

	if err := app.store.Listings.Delete(r.Context(), listingID, user.ID); err != nil {
		switch err {
		case listings.ErrListingNotFound:
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// uploadListingPhotoHandler godoc
//
//	@Summary		Upload listing photo
//	@Description	Uploads a photo to Cloudinary and appends its URL to a listing the caller owns
//	@Tags			listings
//	@Accept			mpfd
//	@Produce		json
//	@Param			listingID	path		int		true	"Listing ID"
//	@Param			photo		formData	file	true	"JPEG or PNG image (max 5MB)"
//	@Success		200			{object}	map[string]string	"Secure URL of the uploaded photo"
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error	"Not found or not owned by caller"
//	@Failure		500			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/listings/{listingID}/photos [post]
func (app *application) uploadListingPhotoHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	listingID, err := strconv.ParseInt(chi.URLParam(r, "listingID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid listingID"))
		return
	}

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		app.badRequestResponse(w, r, errors.New("unable to parse form, file size limit is 5MB"))
		return
	}

	file, fileHeader, err := r.FormFile("photo")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("unable to retrieve file"))
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" {
		app.badRequestResponse(w, r, errors.New("only JPEG and PNG images are allowed"))
		return
	}

	uploadParams := uploader.UploadParams{
		Folder:         "listing_photos",
		Transformation: "w_1200,c_limit,q_auto",
	}
	uploadResult, err := app.cld.Upload.Upload(r.Context(), file, uploadParams)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	// Ownership is enforced by the store; a non-owner gets not found.
	if err := app.store.Listings.AddImageURL(r.Context(), listingID, user.ID, uploadResult.SecureURL); err != nil {
		switch err {
		case listings.ErrListingNotFound:
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{
		"photo_url": uploadResult.SecureURL,
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}
