package entitlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"hanar/internal/domain/listingpacks"
	"hanar/internal/domain/listings"

	"github.com/stretchr/testify/require"
)

type stubBusinessStore struct {
	isOwner bool
	err     error
}

func (s *stubBusinessStore) OwnerHasBusiness(ctx context.Context, ownerID int64) (bool, error) {
	return s.isOwner, s.err
}

type stubPackStore struct {
	pack     *listingpacks.ListingPack
	upserted []time.Time
	err      error
}

func (s *stubPackStore) GetByUserID(ctx context.Context, userID int64) (*listingpacks.ListingPack, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.pack == nil {
		return nil, listingpacks.ErrPackNotFound
	}
	return s.pack, nil
}

func (s *stubPackStore) Upsert(ctx context.Context, userID int64, expiresAt time.Time) (*listingpacks.ListingPack, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.upserted = append(s.upserted, expiresAt)
	s.pack = &listingpacks.ListingPack{UserID: userID, PackExpiresAt: &expiresAt}
	return s.pack, nil
}

type stubListingStore struct {
	refs     []listings.ListingRef
	created  []*listings.Listing
	quotaErr error
}

func (s *stubListingStore) CountAll(ctx context.Context, userID int64) (int, error) {
	return len(s.refs), nil
}

func (s *stubListingStore) RefsByUserID(ctx context.Context, userID int64) ([]listings.ListingRef, error) {
	return s.refs, nil
}

func (s *stubListingStore) CreateWithinQuota(ctx context.Context, l *listings.Listing, maxAllowed int, windowCutoff *time.Time) error {
	if s.quotaErr != nil {
		return s.quotaErr
	}
	s.created = append(s.created, l)
	return nil
}

var testNow = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func newTestService(biz *stubBusinessStore, packs *stubPackStore, items *stubListingStore) *Service {
	return NewService(biz, packs, items).WithClock(func() time.Time { return testNow })
}

func refsAgedDays(days ...int) []listings.ListingRef {
	refs := make([]listings.ListingRef, 0, len(days))
	for i, d := range days {
		refs = append(refs, listings.ListingRef{
			ID:        int64(i + 1),
			CreatedAt: testNow.Add(-time.Duration(d) * 24 * time.Hour),
		})
	}
	return refs
}

func activePack(expiresIn time.Duration) *listingpacks.ListingPack {
	exp := testNow.Add(expiresIn)
	return &listingpacks.ListingPack{UserID: 1, PackExpiresAt: &exp}
}

func TestCheckFreeTierDefaults(t *testing.T) {
	svc := newTestService(&stubBusinessStore{}, &stubPackStore{}, &stubListingStore{})

	d, err := svc.Check(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, d.IsBusiness)
	require.False(t, d.HasPack)
	require.Equal(t, 0, d.ActiveCount)
	require.Equal(t, FreeTierLimit, d.MaxAllowed)
	require.True(t, d.CanAddMore)
}

func TestCheckFreeTierRecentItemBlocks(t *testing.T) {
	items := &stubListingStore{refs: refsAgedDays(10)}
	svc := newTestService(&stubBusinessStore{}, &stubPackStore{}, items)

	d, err := svc.Check(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, d.ActiveCount)
	require.False(t, d.CanAddMore)
}

func TestCheckFreeTierOldItemAgesOut(t *testing.T) {
	items := &stubListingStore{refs: refsAgedDays(31)}
	svc := newTestService(&stubBusinessStore{}, &stubPackStore{}, items)

	d, err := svc.Check(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 0, d.ActiveCount)
	require.True(t, d.CanAddMore)
}

func TestCheckPackCapsCountAtLimit(t *testing.T) {
	items := &stubListingStore{refs: refsAgedDays(1, 2, 3, 40, 50, 60, 70)}
	packs := &stubPackStore{pack: activePack(10 * 24 * time.Hour)}
	svc := newTestService(&stubBusinessStore{}, packs, items)

	d, err := svc.Check(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, d.HasPack)
	require.Equal(t, PackLimit, d.ActiveCount)
	require.Equal(t, PackLimit, d.MaxAllowed)
	require.False(t, d.CanAddMore)
}

func TestCheckPackUnderLimit(t *testing.T) {
	items := &stubListingStore{refs: refsAgedDays(1, 200, 300)}
	packs := &stubPackStore{pack: activePack(24 * time.Hour)}
	svc := newTestService(&stubBusinessStore{}, packs, items)

	d, err := svc.Check(context.Background(), 1)
	require.NoError(t, err)
	// Pack tier counts every item regardless of age, capped at the limit.
	require.Equal(t, 3, d.ActiveCount)
	require.True(t, d.CanAddMore)
}

func TestCheckExpiredPackFallsBackToFreeTier(t *testing.T) {
	items := &stubListingStore{refs: refsAgedDays(5)}
	packs := &stubPackStore{pack: activePack(-time.Hour)}
	svc := newTestService(&stubBusinessStore{}, packs, items)

	d, err := svc.Check(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, d.HasPack)
	require.Equal(t, FreeTierLimit, d.MaxAllowed)
	require.False(t, d.CanAddMore)
}

func TestCheckBusinessUnlimited(t *testing.T) {
	items := &stubListingStore{refs: refsAgedDays(1, 1, 1, 1, 1, 1, 1, 1, 1, 1)}
	svc := newTestService(&stubBusinessStore{isOwner: true}, &stubPackStore{}, items)

	d, err := svc.Check(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, d.IsBusiness)
	require.False(t, d.HasPack)
	require.Equal(t, 10, d.ActiveCount)
	require.Equal(t, BusinessMaxListings, d.MaxAllowed)
	require.True(t, d.CanAddMore)
}

func TestCheckIsIdempotent(t *testing.T) {
	items := &stubListingStore{refs: refsAgedDays(3, 45)}
	svc := newTestService(&stubBusinessStore{}, &stubPackStore{}, items)

	first, err := svc.Check(context.Background(), 1)
	require.NoError(t, err)
	second, err := svc.Check(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestCheckStorageErrorSurfaces(t *testing.T) {
	boom := errors.New("connection refused")
	svc := newTestService(&stubBusinessStore{err: boom}, &stubPackStore{}, &stubListingStore{})

	_, err := svc.Check(context.Background(), 1)
	require.ErrorIs(t, err, boom)
}

func TestCreateListingAllowed(t *testing.T) {
	items := &stubListingStore{}
	svc := newTestService(&stubBusinessStore{}, &stubPackStore{}, items)

	d, err := svc.CreateListing(context.Background(), &listings.Listing{UserID: 1, Title: "Bike"})
	require.NoError(t, err)
	require.True(t, d.CanAddMore)
	require.Len(t, items.created, 1)
}

func TestCreateListingDeniedAtCap(t *testing.T) {
	items := &stubListingStore{refs: refsAgedDays(2)}
	svc := newTestService(&stubBusinessStore{}, &stubPackStore{}, items)

	d, err := svc.CreateListing(context.Background(), &listings.Listing{UserID: 1, Title: "Bike"})
	require.ErrorIs(t, err, ErrQuotaExceeded)
	require.NotNil(t, d)
	require.Empty(t, items.created)
	require.Contains(t, d.DenialMessage(), "Casual Seller Pack")
}

func TestCreateListingLosesInTxRace(t *testing.T) {
	items := &stubListingStore{quotaErr: listings.ErrQuotaExceeded}
	svc := newTestService(&stubBusinessStore{}, &stubPackStore{}, items)

	_, err := svc.CreateListing(context.Background(), &listings.Listing{UserID: 1, Title: "Bike"})
	require.ErrorIs(t, err, ErrQuotaExceeded)
}

func TestRenewPackFromAbsentStartsNow(t *testing.T) {
	packs := &stubPackStore{}
	svc := newTestService(&stubBusinessStore{}, packs, &stubListingStore{})

	pack, err := svc.RenewPack(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, testNow.Add(PackDuration), *pack.PackExpiresAt)
}

func TestRenewPackFromExpiredStartsNow(t *testing.T) {
	packs := &stubPackStore{pack: activePack(-48 * time.Hour)}
	svc := newTestService(&stubBusinessStore{}, packs, &stubListingStore{})

	pack, err := svc.RenewPack(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, testNow.Add(PackDuration), *pack.PackExpiresAt)
}

func TestRenewPackStacksOnActiveExpiry(t *testing.T) {
	packs := &stubPackStore{}
	svc := newTestService(&stubBusinessStore{}, packs, &stubListingStore{})

	first, err := svc.RenewPack(context.Background(), 1)
	require.NoError(t, err)
	second, err := svc.RenewPack(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, first.PackExpiresAt.Add(PackDuration), *second.PackExpiresAt)
}

func TestRenewPackRejectsBusinessOwner(t *testing.T) {
	packs := &stubPackStore{}
	svc := newTestService(&stubBusinessStore{isOwner: true}, packs, &stubListingStore{})

	_, err := svc.RenewPack(context.Background(), 1)
	require.ErrorIs(t, err, ErrBusinessAccount)
	require.Empty(t, packs.upserted)
}

func TestPackStatus(t *testing.T) {
	svc := newTestService(&stubBusinessStore{}, &stubPackStore{}, &stubListingStore{})
	pack, active, err := svc.PackStatus(context.Background(), 1)
	require.NoError(t, err)
	require.Nil(t, pack)
	require.False(t, active)

	packs := &stubPackStore{pack: activePack(time.Hour)}
	svc = newTestService(&stubBusinessStore{}, packs, &stubListingStore{})
	pack, active, err = svc.PackStatus(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, pack)
	require.True(t, active)
}
