// Package entitlement decides whether a user may create another
// marketplace listing. Business owners are unlimited; individuals get a
// rolling free tier of one listing per 30 days, or up to five while a
// Casual Seller Pack is active. Pack purchase/renewal lives here too so
// the tier rules are computed in exactly one place.
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hanar/internal/domain/listingpacks"
	"hanar/internal/domain/listings"
)

const (
	// FreeTierLimit is the number of listings an individual may hold
	// inside the rolling window without a pack.
	FreeTierLimit = 1

	// PackLimit is the listing cap while a Casual Seller Pack is active.
	PackLimit = 5

	// FreeTierWindow is the rolling lookback for the free tier; old
	// listings age out of the count rather than counting forever.
	FreeTierWindow = 30 * 24 * time.Hour

	// PackDuration is added to the expiry on every purchase or renewal.
	PackDuration = 40 * 24 * time.Hour

	// BusinessMaxListings is the effectively-unbounded cap reported for
	// business accounts.
	BusinessMaxListings = 100000
)

var (
	// ErrBusinessAccount is returned when a business owner tries to buy
	// a pack; businesses are not subject to the free/pack tiers.
	ErrBusinessAccount = errors.New("business accounts do not use listing packs")

	// ErrQuotaExceeded is returned when a create is denied by the tier
	// rules.
	ErrQuotaExceeded = errors.New("listing quota exceeded")
)

// Decision is a point-in-time snapshot of a user's quota state. It is
// never cached; call Check again after any listing write.
type Decision struct {
	IsBusiness    bool       `json:"isBusiness"`
	ActiveCount   int        `json:"activeCount"`
	MaxAllowed    int        `json:"maxAllowed"`
	HasPack       bool       `json:"hasPack"`
	PackExpiresAt *time.Time `json:"packExpiresAt,omitempty"`
	CanAddMore    bool       `json:"canAddMore"`
}

// DenialMessage is the user-facing explanation for a denied create.
// Quota denials are deliberately specific, unlike admin denials.
func (d *Decision) DenialMessage() string {
	if d.HasPack {
		return fmt.Sprintf("Your Casual Seller Pack allows up to %d listings. Remove one to list more.", PackLimit)
	}
	return fmt.Sprintf("Free tier allows %d active listing per 30 days. Get the Casual Seller Pack to list more.", FreeTierLimit)
}

type BusinessStore interface {
	OwnerHasBusiness(ctx context.Context, ownerID int64) (bool, error)
}

type PackStore interface {
	GetByUserID(ctx context.Context, userID int64) (*listingpacks.ListingPack, error)
	Upsert(ctx context.Context, userID int64, expiresAt time.Time) (*listingpacks.ListingPack, error)
}

type ListingStore interface {
	CountAll(ctx context.Context, userID int64) (int, error)
	RefsByUserID(ctx context.Context, userID int64) ([]listings.ListingRef, error)
	CreateWithinQuota(ctx context.Context, listing *listings.Listing, maxAllowed int, windowCutoff *time.Time) error
}

type Service struct {
	businesses BusinessStore
	packs      PackStore
	listings   ListingStore
	now        func() time.Time
}

func NewService(businesses BusinessStore, packs PackStore, listingStore ListingStore) *Service {
	return &Service{
		businesses: businesses,
		packs:      packs,
		listings:   listingStore,
		now:        time.Now,
	}
}

// WithClock overrides the wall clock. Tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Check computes the caller's quota state. Reads only, no side effects.
func (s *Service) Check(ctx context.Context, userID int64) (*Decision, error) {
	isBusiness, err := s.businesses.OwnerHasBusiness(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check business ownership: %w", err)
	}

	if isBusiness {
		// Business accounts are not subject to free/pack tiers.
		count, err := s.listings.CountAll(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("count listings: %w", err)
		}
		return &Decision{
			IsBusiness:  true,
			ActiveCount: count,
			MaxAllowed:  BusinessMaxListings,
			CanAddMore:  true,
		}, nil
	}

	pack, err := s.packs.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, listingpacks.ErrPackNotFound) {
		return nil, fmt.Errorf("fetch listing pack: %w", err)
	}

	refs, err := s.listings.RefsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch listing refs: %w", err)
	}

	now := s.now()
	decision := &Decision{}

	if pack.ActiveAt(now) {
		decision.HasPack = true
		decision.PackExpiresAt = pack.PackExpiresAt
		decision.MaxAllowed = PackLimit
		// Cap the visible count at the pack ceiling so legacy items
		// beyond it don't double-penalize the account.
		decision.ActiveCount = len(refs)
		if decision.ActiveCount > PackLimit {
			decision.ActiveCount = PackLimit
		}
	} else {
		decision.MaxAllowed = FreeTierLimit
		cutoff := now.Add(-FreeTierWindow)
		for _, ref := range refs {
			if !ref.CreatedAt.Before(cutoff) {
				decision.ActiveCount++
			}
		}
	}

	decision.CanAddMore = decision.ActiveCount < decision.MaxAllowed
	return decision, nil
}

// CreateListing runs the quota check and, when allowed, inserts the row
// through the transactional store so a concurrent create for the same
// user cannot slip past the cap. On denial the returned Decision carries
// the state behind the refusal.
func (s *Service) CreateListing(ctx context.Context, listing *listings.Listing) (*Decision, error) {
	decision, err := s.Check(ctx, listing.UserID)
	if err != nil {
		return nil, err
	}
	if !decision.CanAddMore {
		return decision, ErrQuotaExceeded
	}

	var cutoff *time.Time
	if !decision.IsBusiness && !decision.HasPack {
		c := s.now().Add(-FreeTierWindow)
		cutoff = &c
	}

	if err := s.listings.CreateWithinQuota(ctx, listing, decision.MaxAllowed, cutoff); err != nil {
		if errors.Is(err, listings.ErrQuotaExceeded) {
			// Lost the race between Check and the in-tx recount.
			return decision, ErrQuotaExceeded
		}
		return nil, err
	}

	return decision, nil
}

// RenewPack purchases or extends the caller's Casual Seller Pack. The
// new expiry stacks on the current one when the pack is still active and
// starts from now otherwise. One upserted row per user, always.
func (s *Service) RenewPack(ctx context.Context, userID int64) (*listingpacks.ListingPack, error) {
	isBusiness, err := s.businesses.OwnerHasBusiness(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check business ownership: %w", err)
	}
	if isBusiness {
		return nil, ErrBusinessAccount
	}

	pack, err := s.packs.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, listingpacks.ErrPackNotFound) {
		return nil, fmt.Errorf("fetch listing pack: %w", err)
	}

	now := s.now()
	baseExpiry := now
	if pack.ActiveAt(now) {
		baseExpiry = *pack.PackExpiresAt
	}

	renewed, err := s.packs.Upsert(ctx, userID, baseExpiry.Add(PackDuration))
	if err != nil {
		return nil, fmt.Errorf("upsert listing pack: %w", err)
	}
	return renewed, nil
}

// PackStatus reports the caller's pack row without mutating anything.
// Absent packs come back as an inactive zero-value status.
func (s *Service) PackStatus(ctx context.Context, userID int64) (*listingpacks.ListingPack, bool, error) {
	pack, err := s.packs.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, listingpacks.ErrPackNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("fetch listing pack: %w", err)
	}
	return pack, pack.ActiveAt(s.now()), nil
}
