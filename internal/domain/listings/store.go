package listings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hanar/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	CreateWithinQuota(ctx context.Context, listing *Listing, maxAllowed int, windowCutoff *time.Time) error
	GetByID(ctx context.Context, listingID int64) (*Listing, error)
	ListByUserID(ctx context.Context, userID int64) ([]*Listing, error)
	RefsByUserID(ctx context.Context, userID int64) ([]ListingRef, error)
	CountAll(ctx context.Context, userID int64) (int, error)
	CountCreatedSince(ctx context.Context, userID int64, cutoff time.Time) (int, error)
	List(ctx context.Context, filter ListingFilter, limit, offset int) ([]*ListingCard, int, error)
	AddImageURL(ctx context.Context, listingID, userID int64, imageURL string) error
	Delete(ctx context.Context, listingID, userID int64) error
	DeleteAny(ctx context.Context, listingID int64) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

// CreateWithinQuota inserts the listing only if the owner's row count,
// recounted inside the transaction, is still below maxAllowed. A nil
// windowCutoff counts every row (pack and business tiers); otherwise only
// rows with created_at >= cutoff count (free tier rolling window).
//
// The per-user advisory lock serializes concurrent creates for the same
// owner, closing the check-then-act race a plain read-then-insert has.
func (r *Repository) CreateWithinQuota(ctx context.Context, listing *Listing, maxAllowed int, windowCutoff *time.Time) error {
	return database.WithTx(r.db, ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, listing.UserID); err != nil {
			return fmt.Errorf("acquire quota lock: %w", err)
		}

		var count int
		if windowCutoff != nil {
			err := tx.QueryRow(ctx,
				`SELECT COUNT(*) FROM listings WHERE user_id = $1 AND created_at >= $2`,
				listing.UserID, *windowCutoff,
			).Scan(&count)
			if err != nil {
				return fmt.Errorf("count listings in window: %w", err)
			}
		} else {
			err := tx.QueryRow(ctx,
				`SELECT COUNT(*) FROM listings WHERE user_id = $1`,
				listing.UserID,
			).Scan(&count)
			if err != nil {
				return fmt.Errorf("count listings: %w", err)
			}
		}

		if count >= maxAllowed {
			return ErrQuotaExceeded
		}

		const query = `
		INSERT INTO listings (
		  user_id, title, description, price_cents,
		  currency, category, city, image_urls
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
		`
		row := tx.QueryRow(ctx, query,
			listing.UserID,
			listing.Title,
			listing.Description,
			listing.PriceCents,
			listing.Currency,
			listing.Category,
			listing.City,
			listing.ImageURLs,
		)
		if err := row.Scan(&listing.ID, &listing.CreatedAt, &listing.UpdatedAt); err != nil {
			return fmt.Errorf("error scanning insert result: %w", err)
		}
		return nil
	})
}

func (r *Repository) GetByID(ctx context.Context, listingID int64) (*Listing, error) {
	query := `
		SELECT id, user_id, title, description, price_cents, currency,
		       category, city, image_urls, created_at, updated_at
		FROM listings
		WHERE id = $1
	`
	l := &Listing{}
	err := r.db.QueryRow(ctx, query, listingID).Scan(
		&l.ID, &l.UserID, &l.Title, &l.Description, &l.PriceCents, &l.Currency,
		&l.Category, &l.City, &l.ImageURLs, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return l, nil
}

func (r *Repository) ListByUserID(ctx context.Context, userID int64) ([]*Listing, error) {
	query := `
		SELECT id, user_id, title, description, price_cents, currency,
		       category, city, image_urls, created_at, updated_at
		FROM listings
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list user listings: %w", err)
	}
	defer rows.Close()

	var out []*Listing
	for rows.Next() {
		l := &Listing{}
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.Title, &l.Description, &l.PriceCents, &l.Currency,
			&l.Category, &l.City, &l.ImageURLs, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// RefsByUserID returns only id/created_at, which is all the entitlement
// check needs.
func (r *Repository) RefsByUserID(ctx context.Context, userID int64) ([]ListingRef, error) {
	query := `SELECT id, created_at FROM listings WHERE user_id = $1`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list listing refs: %w", err)
	}
	defer rows.Close()

	var refs []ListingRef
	for rows.Next() {
		var ref ListingRef
		if err := rows.Scan(&ref.ID, &ref.CreatedAt); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (r *Repository) CountAll(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM listings WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

func (r *Repository) CountCreatedSince(ctx context.Context, userID int64, cutoff time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM listings WHERE user_id = $1 AND created_at >= $2`,
		userID, cutoff,
	).Scan(&count)
	return count, err
}

// List returns a browse page plus the true total.
func (r *Repository) List(ctx context.Context, filter ListingFilter, limit, offset int) ([]*ListingCard, int, error) {
	if limit <= 0 || limit > 30 {
		limit = 30
	}
	if offset < 0 {
		offset = 0
	}

	const q = `
		SELECT id, user_id, title, price_cents, currency, category, city,
		       (image_urls)[1] AS image_url, created_at,
		       COUNT(*) OVER() AS total_count
		FROM listings
		WHERE ($1 = '' OR category = $1)
		  AND ($2 = '' OR city = $2)
		  AND ($3 = '' OR title ILIKE '%' || $3 || '%')
		ORDER BY created_at DESC, id DESC
		LIMIT $4 OFFSET $5
	`

	rows, err := r.db.Query(ctx, q, filter.Category, filter.City, filter.Query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	var (
		cards      []*ListingCard
		totalCount int
	)
	for rows.Next() {
		c := &ListingCard{}
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.Title, &c.PriceCents, &c.Currency,
			&c.Category, &c.City, &c.ImageURL, &c.CreatedAt, &totalCount,
		); err != nil {
			return nil, 0, err
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(cards) == 0 {
		err := r.db.QueryRow(ctx, `
			SELECT COUNT(*) FROM listings
			WHERE ($1 = '' OR category = $1)
			  AND ($2 = '' OR city = $2)
			  AND ($3 = '' OR title ILIKE '%' || $3 || '%')
		`, filter.Category, filter.City, filter.Query).Scan(&totalCount)
		if err != nil {
			return nil, 0, err
		}
	}

	return cards, totalCount, nil
}

// AddImageURL appends an image URL to a listing the user owns.
func (r *Repository) AddImageURL(ctx context.Context, listingID, userID int64, imageURL string) error {
	result, err := r.db.Exec(ctx, `
		UPDATE listings
		SET image_urls = array_append(image_urls, $3), updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, listingID, userID, imageURL)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrListingNotFound
	}
	return nil
}

// Delete removes a listing only when userID owns it.
func (r *Repository) Delete(ctx context.Context, listingID, userID int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM listings WHERE id = $1 AND user_id = $2`, listingID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrListingNotFound
	}
	return nil
}

// DeleteAny removes a listing regardless of owner. Moderation only.
func (r *Repository) DeleteAny(ctx context.Context, listingID int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM listings WHERE id = $1`, listingID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrListingNotFound
	}
	return nil
}
