package listingpacks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	GetByUserID(ctx context.Context, userID int64) (*ListingPack, error)
	Upsert(ctx context.Context, userID int64, expiresAt time.Time) (*ListingPack, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*ListingPack, error) {
	query := `
		SELECT user_id, pack_expires_at, created_at, updated_at
		FROM listing_packs
		WHERE user_id = $1
	`
	p := &ListingPack{}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.PackExpiresAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPackNotFound
		}
		return nil, err
	}
	return p, nil
}

// Upsert writes the pack row keyed by user_id. The conflict target
// guarantees exactly one row per user; a renewal overwrites the expiry
// rather than inserting a duplicate.
func (r *Repository) Upsert(ctx context.Context, userID int64, expiresAt time.Time) (*ListingPack, error) {
	query := `
		INSERT INTO listing_packs (user_id, pack_expires_at)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET pack_expires_at = EXCLUDED.pack_expires_at, updated_at = NOW()
		RETURNING user_id, pack_expires_at, created_at, updated_at
	`
	p := &ListingPack{}
	err := r.db.QueryRow(ctx, query, userID, expiresAt).Scan(
		&p.UserID, &p.PackExpiresAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert listing pack: %w", err)
	}
	return p, nil
}
