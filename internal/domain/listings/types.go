package listings

import (
	"errors"
	"time"
)

var (
	ErrListingNotFound = errors.New("listing not found")
	ErrQuotaExceeded   = errors.New("listing quota exceeded")
)

// Listing is a marketplace item owned by a user. The entitlement logic
// only ever reads id/user_id/created_at; it never mutates rows.
type Listing struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	PriceCents  int64     `json:"price_cents"`
	Currency    string    `json:"currency"`
	Category    string    `json:"category"`
	City        *string   `json:"city,omitempty"`
	ImageURLs   []string  `json:"image_urls,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListingRef is the id/created_at projection the quota count works on.
type ListingRef struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// ListingCard is the trimmed projection for browse pages.
type ListingCard struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Title      string    `json:"title"`
	PriceCents int64     `json:"price_cents"`
	Currency   string    `json:"currency"`
	Category   string    `json:"category"`
	City       *string   `json:"city,omitempty"`
	ImageURL   *string   `json:"image_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type ListingFilter struct {
	Category string
	City     string
	Query    string
}
