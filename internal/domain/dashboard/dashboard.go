package dashboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) GetOverview(ctx context.Context) (*Overview, error) {
	const q = `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_active = true),
			(SELECT COUNT(*) FROM users WHERE is_active = false),

			(SELECT COUNT(*) FROM businesses),
			(SELECT COUNT(*) FROM businesses WHERE is_verified = true),

			(SELECT COUNT(*) FROM listings),
			(SELECT COUNT(*) FROM listings WHERE created_at >= NOW() - INTERVAL '30 days'),
			(SELECT COUNT(DISTINCT user_id) FROM listings),

			(SELECT COUNT(*) FROM listing_packs),
			(SELECT COUNT(*) FROM listing_packs WHERE pack_expires_at > NOW())
	`

	var o Overview
	err := r.db.QueryRow(ctx, q).Scan(
		&o.TotalUsers,
		&o.TotalActiveUsers,
		&o.TotalInactiveUsers,

		&o.TotalBusinesses,
		&o.TotalVerifiedBusinesses,

		&o.TotalListings,
		&o.ListingsLast30Days,
		&o.TotalListingOwners,

		&o.TotalPacks,
		&o.ActivePacks,
	)
	if err != nil {
		return nil, fmt.Errorf("get admin overview: %w", err)
	}

	return &o, nil
}
