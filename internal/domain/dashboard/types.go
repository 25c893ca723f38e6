package dashboard

import "context"

type Overview struct {
	// Users
	TotalUsers         int64 `json:"total_users"`
	TotalActiveUsers   int64 `json:"total_active_users"`
	TotalInactiveUsers int64 `json:"total_inactive_users"`

	// Businesses
	TotalBusinesses         int64 `json:"total_businesses"`
	TotalVerifiedBusinesses int64 `json:"total_verified_businesses"`

	// Listings
	TotalListings       int64 `json:"total_listings"`
	ListingsLast30Days  int64 `json:"listings_last_30_days"`
	TotalListingOwners  int64 `json:"total_listing_owners"`

	// Packs
	TotalPacks  int64 `json:"total_packs"`
	ActivePacks int64 `json:"active_packs"`
}

type Store interface {
	GetOverview(ctx context.Context) (*Overview, error)
}
