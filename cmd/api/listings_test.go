package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hanar/internal/domain/listings"
	"hanar/internal/domain/users"

	"github.com/stretchr/testify/require"
)

type errorEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func TestCreateListingDeniedOnFreeTier(t *testing.T) {
	app := newTestApp(t)
	wireEntitlements(app,
		&stubBusinessStore{},
		&stubPackStore{},
		&stubListingStore{refs: []listings.ListingRef{
			{ID: 1, CreatedAt: time.Now().Add(-10 * 24 * time.Hour)},
		}},
	)

	payload := `{"title":"Road bike","price_cents":25000,"currency":"USD","category":"sports"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/listings", strings.NewReader(payload))
	req = requestWithUser(req, &users.User{ID: 1, Email: "seller@hanar.app"})
	rec := httptest.NewRecorder()

	app.createListingHandler(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var body errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "Free tier allows 1 active listing per 30 days. Get the Casual Seller Pack to list more.", body.Message)
}

func TestCreateListingAllowedAfterWindowAgesOut(t *testing.T) {
	app := newTestApp(t)
	wireEntitlements(app,
		&stubBusinessStore{},
		&stubPackStore{},
		&stubListingStore{refs: []listings.ListingRef{
			{ID: 1, CreatedAt: time.Now().Add(-31 * 24 * time.Hour)},
		}},
	)

	payload := `{"title":"Road bike","price_cents":25000,"currency":"USD","category":"sports"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/listings", strings.NewReader(payload))
	req = requestWithUser(req, &users.User{ID: 1, Email: "seller@hanar.app"})
	rec := httptest.NewRecorder()

	app.createListingHandler(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Data struct {
			ID      int64  `json:"id"`
			Title   string `json:"title"`
			RefCode string `json:"ref_code"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotZero(t, body.Data.ID)
	require.Equal(t, "Road bike", body.Data.Title)
	require.NotEmpty(t, body.Data.RefCode)

	decoded, err := app.refcodes.Decode(body.Data.RefCode)
	require.NoError(t, err)
	require.Equal(t, body.Data.ID, decoded)
}

func TestCreateListingRejectsInvalidPayload(t *testing.T) {
	app := newTestApp(t)
	wireEntitlements(app, &stubBusinessStore{}, &stubPackStore{}, &stubListingStore{})

	// currency must be a 3-letter uppercase code
	payload := `{"title":"Road bike","price_cents":25000,"currency":"usd","category":"sports"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/listings", strings.NewReader(payload))
	req = requestWithUser(req, &users.User{ID: 1, Email: "seller@hanar.app"})
	rec := httptest.NewRecorder()

	app.createListingHandler(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetListingLimitsForBusinessOwner(t *testing.T) {
	app := newTestApp(t)
	wireEntitlements(app,
		&stubBusinessStore{isBusiness: true},
		&stubPackStore{},
		&stubListingStore{refs: []listings.ListingRef{
			{ID: 1, CreatedAt: time.Now()},
			{ID: 2, CreatedAt: time.Now()},
		}},
	)

	req := httptest.NewRequest(http.MethodGet, "/v1/listings/limits", nil)
	req = requestWithUser(req, &users.User{ID: 3, Email: "biz@hanar.app"})
	rec := httptest.NewRecorder()

	app.getListingLimitsHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			IsBusiness  bool `json:"isBusiness"`
			ActiveCount int  `json:"activeCount"`
			MaxAllowed  int  `json:"maxAllowed"`
			HasPack     bool `json:"hasPack"`
			CanAddMore  bool `json:"canAddMore"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Data.IsBusiness)
	require.Equal(t, 2, body.Data.ActiveCount)
	require.Equal(t, 100000, body.Data.MaxAllowed)
	require.False(t, body.Data.HasPack)
	require.True(t, body.Data.CanAddMore)
}

func TestGetListingLimitsWithActivePack(t *testing.T) {
	app := newTestApp(t)
	expires := time.Now().Add(20 * 24 * time.Hour)
	wireEntitlements(app,
		&stubBusinessStore{},
		&stubPackStore{pack: activePackAt(4, expires)},
		&stubListingStore{refs: []listings.ListingRef{
			{ID: 1, CreatedAt: time.Now().Add(-40 * 24 * time.Hour)},
			{ID: 2, CreatedAt: time.Now()},
		}},
	)

	req := httptest.NewRequest(http.MethodGet, "/v1/listings/limits", nil)
	req = requestWithUser(req, &users.User{ID: 4, Email: "pack@hanar.app"})
	rec := httptest.NewRecorder()

	app.getListingLimitsHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			ActiveCount int  `json:"activeCount"`
			MaxAllowed  int  `json:"maxAllowed"`
			HasPack     bool `json:"hasPack"`
			CanAddMore  bool `json:"canAddMore"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Data.HasPack)
	require.Equal(t, 5, body.Data.MaxAllowed)
	// pack counts every listing regardless of age
	require.Equal(t, 2, body.Data.ActiveCount)
	require.True(t, body.Data.CanAddMore)
}
