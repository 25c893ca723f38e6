package listingpacks

import (
	"errors"
	"time"
)

var ErrPackNotFound = errors.New("listing pack not found")

// ListingPack is the single per-user row backing the Casual Seller Pack.
// A pack is active iff PackExpiresAt is set and strictly in the future.
type ListingPack struct {
	UserID        int64      `json:"user_id"`
	PackExpiresAt *time.Time `json:"pack_expires_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ActiveAt reports whether the pack is active at the given instant.
func (p *ListingPack) ActiveAt(now time.Time) bool {
	return p != nil && p.PackExpiresAt != nil && p.PackExpiresAt.After(now)
}
