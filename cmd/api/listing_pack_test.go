package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hanar/internal/domain/users"

	"github.com/stretchr/testify/require"
)

func TestPurchasePackRejectedForBusinessAccount(t *testing.T) {
	app := newTestApp(t)
	wireEntitlements(app, &stubBusinessStore{isBusiness: true}, &stubPackStore{}, &stubListingStore{})

	req := httptest.NewRequest(http.MethodPost, "/v1/listings/casual-seller-pack", nil)
	req = requestWithUser(req, &users.User{ID: 9, Email: "biz@hanar.app"})
	rec := httptest.NewRecorder()

	app.purchasePackHandler(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	var body errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body.Message, "business accounts")
}

func TestPurchasePackGrantsFortyDays(t *testing.T) {
	app := newTestApp(t)
	packs := &stubPackStore{}
	wireEntitlements(app, &stubBusinessStore{}, packs, &stubListingStore{})

	req := httptest.NewRequest(http.MethodPost, "/v1/listings/casual-seller-pack", nil)
	req = requestWithUser(req, &users.User{ID: 9, Email: "seller@hanar.app"})
	rec := httptest.NewRecorder()

	before := time.Now()
	app.purchasePackHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data PackStatusResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Data.Active)
	require.NotNil(t, body.Data.PackExpiresAt)
	require.WithinDuration(t, before.Add(40*24*time.Hour), *body.Data.PackExpiresAt, time.Minute)
}

func TestPackStatusAbsentPack(t *testing.T) {
	app := newTestApp(t)
	wireEntitlements(app, &stubBusinessStore{}, &stubPackStore{}, &stubListingStore{})

	req := httptest.NewRequest(http.MethodGet, "/v1/listings/casual-seller-pack", nil)
	req = requestWithUser(req, &users.User{ID: 9, Email: "seller@hanar.app"})
	rec := httptest.NewRecorder()

	app.getPackStatusHandler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data PackStatusResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Data.Active)
	require.Nil(t, body.Data.PackExpiresAt)
}
