package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"hanar/internal/authz"
	"hanar/internal/domain/adminroles"
	"hanar/internal/domain/listingpacks"
	"hanar/internal/domain/listings"
	"hanar/internal/domain/notifications"
	"hanar/internal/domain/users"
	"hanar/internal/entitlement"
	notifier "hanar/internal/notifications"
	"hanar/internal/refcode"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T) *application {
	t.Helper()

	codec, err := refcode.New("test-salt")
	require.NoError(t, err)

	return &application{
		config:   config{env: "test"},
		logger:   zap.NewNop().Sugar(),
		refcodes: codec,
	}
}

func requestWithUser(req *http.Request, user *users.User) *http.Request {
	ctx := context.WithValue(req.Context(), userCtx, user)
	return req.WithContext(ctx)
}

// --- stub stores ---

type stubRoleStore struct {
	byID    map[int64]adminroles.Role
	byEmail map[string]adminroles.Role
	err     error
}

func (s *stubRoleStore) GetRoleByUserID(_ context.Context, userID int64) (adminroles.Role, error) {
	if s.err != nil {
		return "", s.err
	}
	if role, ok := s.byID[userID]; ok {
		return role, nil
	}
	return "", adminroles.ErrRoleNotFound
}

func (s *stubRoleStore) GetRoleByEmail(_ context.Context, email string) (adminroles.Role, error) {
	if s.err != nil {
		return "", s.err
	}
	if role, ok := s.byEmail[email]; ok {
		return role, nil
	}
	return "", adminroles.ErrRoleNotFound
}

func (s *stubRoleStore) Assign(context.Context, *adminroles.Record) error { return nil }
func (s *stubRoleStore) Remove(context.Context, int64) error              { return nil }
func (s *stubRoleStore) List(context.Context) ([]adminroles.Record, error) {
	return nil, nil
}

type stubBusinessStore struct {
	isBusiness bool
	err        error
}

func (s *stubBusinessStore) OwnerHasBusiness(context.Context, int64) (bool, error) {
	return s.isBusiness, s.err
}

type stubPackStore struct {
	pack *listingpacks.ListingPack
	err  error
}

func (s *stubPackStore) GetByUserID(context.Context, int64) (*listingpacks.ListingPack, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.pack == nil {
		return nil, listingpacks.ErrPackNotFound
	}
	return s.pack, nil
}

func (s *stubPackStore) Upsert(_ context.Context, userID int64, expiresAt time.Time) (*listingpacks.ListingPack, error) {
	s.pack = &listingpacks.ListingPack{UserID: userID, PackExpiresAt: &expiresAt}
	return s.pack, nil
}

type stubListingStore struct {
	refs    []listings.ListingRef
	created []*listings.Listing
}

func (s *stubListingStore) CountAll(context.Context, int64) (int, error) {
	return len(s.refs), nil
}

func (s *stubListingStore) RefsByUserID(context.Context, int64) ([]listings.ListingRef, error) {
	return s.refs, nil
}

func (s *stubListingStore) CreateWithinQuota(_ context.Context, l *listings.Listing, maxAllowed int, windowCutoff *time.Time) error {
	count := len(s.refs)
	if windowCutoff != nil {
		count = 0
		for _, ref := range s.refs {
			if !ref.CreatedAt.Before(*windowCutoff) {
				count++
			}
		}
	}
	if count >= maxAllowed {
		return listings.ErrQuotaExceeded
	}
	l.ID = int64(len(s.created) + 1)
	l.CreatedAt = time.Now()
	l.UpdatedAt = l.CreatedAt
	s.created = append(s.created, l)
	s.refs = append(s.refs, listings.ListingRef{ID: l.ID, CreatedAt: l.CreatedAt})
	return nil
}

type stubNotificationStore struct {
	written []notifications.Notification
}

func (s *stubNotificationStore) Create(_ context.Context, n *notifications.Notification) error {
	s.written = append(s.written, *n)
	return nil
}

func (s *stubNotificationStore) CreateBatch(_ context.Context, userIDs []int64, kind, title, body string) (int, error) {
	for _, id := range userIDs {
		s.written = append(s.written, notifications.Notification{UserID: id, Kind: kind, Title: title, Body: body})
	}
	return len(userIDs), nil
}

func (s *stubNotificationStore) ListByUserID(context.Context, int64, int, int) ([]notifications.Notification, error) {
	return s.written, nil
}

func (s *stubNotificationStore) UnreadCount(context.Context, int64) (int, error) {
	return len(s.written), nil
}

func (s *stubNotificationStore) MarkRead(context.Context, int64, int64) error { return nil }
func (s *stubNotificationStore) MarkAllRead(context.Context, int64) error     { return nil }
func (s *stubNotificationStore) AllUserIDs(context.Context) ([]int64, error)  { return nil, nil }

func activePackAt(userID int64, expiresAt time.Time) *listingpacks.ListingPack {
	return &listingpacks.ListingPack{UserID: userID, PackExpiresAt: &expiresAt}
}

// wireEntitlements plugs stub stores into the app's decision paths.
func wireEntitlements(app *application, biz *stubBusinessStore, packs *stubPackStore, items *stubListingStore) {
	app.entitlements = entitlement.NewService(biz, packs, items)
	app.notifier = notifier.NewNotifier(&stubNotificationStore{})
}

func wireGate(app *application, roles *stubRoleStore) {
	app.gate = authz.NewGate(roles)
}

type stubUserStore struct {
	users.Store
	byID map[int64]*users.User
}

func (s *stubUserStore) GetByID(ctx context.Context, id int64) (*users.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	return u, nil
}
