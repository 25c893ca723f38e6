package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"hanar/internal/domain/businesses"
	"hanar/internal/params"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/go-chi/chi/v5"
)

type CreateBusinessPayload struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Category    string  `json:"category" validate:"required,max=60"`
	Address     string  `json:"address" validate:"required,max=255"`
	PhoneNumber string  `json:"phone_number" validate:"required,min=7,max=15"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Website     *string `json:"website" validate:"omitempty,url,max=255"`
}

// createBusinessHandler godoc
//
//	@Summary		Register a business
//	@Description	Registers the caller's business. One business per account; owners get unlimited listings.
//	@Tags			businesses
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateBusinessPayload	true	"Business details"
//	@Success		201		{object}	businesses.Business		"Business created"
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		409		{object}	error	"Caller already owns a business"
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/businesses [post]
func (app *application) createBusinessHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload CreateBusinessPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	business := &businesses.Business{
		OwnerID:     user.ID,
		Name:        payload.Name,
		Category:    payload.Category,
		Address:     payload.Address,
		PhoneNumber: payload.PhoneNumber,
		Description: payload.Description,
		Website:     payload.Website,
	}

	if err := app.store.Businesses.Create(r.Context(), business); err != nil {
		switch err {
		case businesses.ErrAlreadyOwner:
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, business); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getBusinessHandler godoc
//
//	@Summary		Get a business
//	@Description	Returns one business by ID
//	@Tags			businesses
//	@Produce		json
//	@Param			businessID	path		int	true	"Business ID"
//	@Success		200			{object}	businesses.Business
//	@Failure		400			{object}	error
//	@Failure		404			{object}	error
//	@Failure		500			{object}	error
//	@Router			/businesses/{businessID} [get]
func (app *application) getBusinessHandler(w http.ResponseWriter, r *http.Request) {
	businessID, err := strconv.ParseInt(chi.URLParam(r, "businessID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid businessID"))
		return
	}

	business, err := app.store.Businesses.GetByID(r.Context(), businessID)
	if err != nil {
		switch err {
		case businesses.ErrBusinessNotFound:
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, business); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getOwnBusinessHandler godoc
//
//	@Summary		Get caller's business
//	@Description	Returns the business owned by the authenticated user
//	@Tags			businesses
//	@Produce		json
//	@Success		200	{object}	businesses.Business
//	@Failure		404	{object}	error	"Caller owns no business"
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/businesses/mine [get]
func (app *application) getOwnBusinessHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	business, err := app.store.Businesses.GetByOwnerID(r.Context(), user.ID)
	if err != nil {
		switch err {
		case businesses.ErrBusinessNotFound:
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, business); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listBusinessesHandler godoc
//
//	@Summary		Browse businesses
//	@Description	Paginated business directory, optionally filtered by category
//	@Tags			businesses
//	@Produce		json
//	@Param			category	query		string	false	"Category filter"
//	@Param			page		query		int		false	"Page number (default: 1)"
//	@Param			limit		query		int		false	"Items per page (default: 15)"
//	@Success		200			{object}	map[string]any	"businesses with pagination"
//	@Failure		500			{object}	error
//	@Router			/businesses [get]
func (app *application) listBusinessesHandler(w http.ResponseWriter, r *http.Request) {
	pg := params.ParsePagination(r.URL.Query())
	category := r.URL.Query().Get("category")

	items, total, err := app.store.Businesses.List(r.Context(), category, pg.Limit, pg.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	pg.ComputeMeta(total)

	if err := app.jsonResponse(w, http.StatusOK, map[string]any{
		"businesses": items,
		"pagination": pg,
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// isBusinessOwnerHandler godoc
//
//	@Summary		Check business ownership
//	@Description	Reports whether the caller owns a business (the unlimited listing tier)
//	@Tags			businesses
//	@Produce		json
//	@Success		200	{object}	map[string]bool
//	@Failure		500	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/businesses/is-business-owner [get]
func (app *application) isBusinessOwnerHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	isOwner, err := app.store.Businesses.OwnerHasBusiness(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]bool{"is_business_owner": isOwner}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateBusinessHandler godoc
//
//	@Summary		Update business information
//	@Description	Owner updates any combination of name, category, address, phone_number, description, website
//	@Tags			businesses
//	@Accept			json
//	@Produce		json
//	@Param			businessID	path		int		true	"Business ID"
//	@Param			body		body		object	true	"Fields to update"
//	@Success		204			{string}	string	"Business updated"
//	@Failure		400			{object}	error
//	@Failure		403			{object}	error	"Caller does not own this business"
//	@Failure		404			{object}	error
//	@Failure		500			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/businesses/{businessID} [patch]
func (app *application) updateBusinessHandler(w http.ResponseWriter, r *http.Request) {
	business, ok := app.ownedBusiness(w, r)
	if !ok {
		return
	}

	var payload struct {
		Name        *string `json:"name"`
		Category    *string `json:"category"`
		Address     *string `json:"address"`
		PhoneNumber *string `json:"phone_number"`
		Description *string `json:"description"`
		Website     *string `json:"website"`
	}

	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	updates := make(map[string]interface{})
	if payload.Name != nil {
		updates["name"] = *payload.Name
	}
	if payload.Category != nil {
		updates["category"] = *payload.Category
	}
	if payload.Address != nil {
		updates["address"] = *payload.Address
	}
	if payload.PhoneNumber != nil {
		updates["phone_number"] = *payload.PhoneNumber
	}
	if payload.Description != nil {
		updates["description"] = *payload.Description
	}
	if payload.Website != nil {
		updates["website"] = *payload.Website
	}

	if len(updates) == 0 {
		app.badRequestResponse(w, r, errors.New("bad request, updates values can't be nil"))
		return
	}

	if err := app.store.Businesses.Update(r.Context(), business.ID, updates); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// uploadBusinessPhotoHandler godoc
//
//	@Summary		Upload business photo
//	@Description	Uploads a photo to Cloudinary and appends its URL to the business
//	@Tags			businesses
//	@Accept			mpfd
//	@Produce		json
//	@Param			businessID	path		int		true	"Business ID"
//	@Param			photo		formData	file	true	"JPEG or PNG image (max 5MB)"
//	@Success		200			{object}	map[string]string	"Secure URL of the uploaded photo"
//	@Failure		400			{object}	error
//	@Failure		403			{object}	error
//	@Failure		500			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/businesses/{businessID}/photos [post]
func (app *application) uploadBusinessPhotoHandler(w http.ResponseWriter, r *http.Request) {
	business, ok := app.ownedBusiness(w, r)
	if !ok {
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
		Folder:         "business_photos",
		Transformation: "w_1200,c_limit,q_auto",
	}
	uploadResult, err := app.cld.Upload.Upload(r.Context(), file, uploadParams)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Businesses.AddPhotoURL(r.Context(), business.ID, uploadResult.SecureURL); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{
		"photo_url": uploadResult.SecureURL,
	}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteBusinessPhotoHandler godoc
//
//	@Summary		Delete business photo
//	@Description	Removes a photo URL from the business and deletes the asset from Cloudinary
//	@Tags			businesses
//	@Produce		json
//	@Param			businessID	path		int		true	"Business ID"
//	@Param			photo_url	query		string	true	"Photo URL to remove"
//	@Success		204			{string}	string	"Photo removed"
//	@Failure		400			{object}	error
//	@Failure		403			{object}	error
//	@Failure		500			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/businesses/{businessID}/photos [delete]
func (app *application) deleteBusinessPhotoHandler(w http.ResponseWriter, r *http.Request) {
	business, ok := app.ownedBusiness(w, r)
	if !ok {
		return
	}

	photoURL := r.URL.Query().Get("photo_url")
	if photoURL == "" {
		app.badRequestResponse(w, r, errors.New("photo_url query parameter is required"))
		return
	}

	if err := app.store.Businesses.RemovePhotoURL(r.Context(), business.ID, photoURL); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.deletePhotoFromCloudinary(photoURL); err != nil {
		app.logger.Warnw("failed to delete photo from cloudinary", "url", photoURL, "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// ownedBusiness loads the business from the URL and rejects callers who do
// not own it. Writes the error response itself; callers bail on ok == false.
func (app *application) ownedBusiness(w http.ResponseWriter, r *http.Request) (*businesses.Business, bool) {
	user := getUserFromContext(r)

	businessID, err := strconv.ParseInt(chi.URLParam(r, "businessID"), 10, 64)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("invalid businessID"))
		return nil, false
	}

	business, err := app.store.Businesses.GetByID(r.Context(), businessID)
	if err != nil {
		switch err {
		case businesses.ErrBusinessNotFound:
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return nil, false
	}

	if business.OwnerID != user.ID {
		app.forbiddenResponse(w, r)
		return nil, false
	}

	return business, true
}
