package businesses

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	Create(ctx context.Context, business *Business) error
	GetByID(ctx context.Context, businessID int64) (*Business, error)
	GetByOwnerID(ctx context.Context, ownerID int64) (*Business, error)
	OwnerHasBusiness(ctx context.Context, ownerID int64) (bool, error)
	Update(ctx context.Context, businessID int64, updates map[string]interface{}) error
	AddPhotoURL(ctx context.Context, businessID int64, photoURL string) error
	RemovePhotoURL(ctx context.Context, businessID int64, photoURL string) error
	List(ctx context.Context, category string, limit, offset int) ([]*BusinessCard, int, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

// OwnerHasBusiness reports whether the user owns a business record.
// Business owners bypass the free/pack listing tiers entirely.
func (r *Repository) OwnerHasBusiness(ctx context.Context, ownerID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM businesses WHERE owner_id = $1)`
	err := r.db.QueryRow(ctx, query, ownerID).Scan(&exists)
	return exists, err
}

func (r *Repository) Create(ctx context.Context, business *Business) error {
	const query = `
	INSERT INTO businesses (
	  owner_id, name, category, address,
	  phone_number, description, website, image_urls
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id, is_verified, created_at, updated_at
	`

	row := r.db.QueryRow(ctx, query,
		business.OwnerID,
		business.Name,
		business.Category,
		business.Address,
		business.PhoneNumber,
		business.Description,
		business.Website,
		business.ImageURLs,
	)
	if err := row.Scan(&business.ID, &business.IsVerified, &business.CreatedAt, &business.UpdatedAt); err != nil {
		if strings.Contains(err.Error(), "businesses_owner_id_key") {
			return ErrAlreadyOwner
		}
		return fmt.Errorf("error scanning insert result: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, businessID int64) (*Business, error) {
	query := `
		SELECT id, owner_id, name, category, address, phone_number,
		       description, website, image_urls, is_verified, created_at, updated_at
		FROM businesses
		WHERE id = $1
	`
	b := &Business{}
	err := r.db.QueryRow(ctx, query, businessID).Scan(
		&b.ID, &b.OwnerID, &b.Name, &b.Category, &b.Address, &b.PhoneNumber,
		&b.Description, &b.Website, &b.ImageURLs, &b.IsVerified, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *Repository) GetByOwnerID(ctx context.Context, ownerID int64) (*Business, error) {
	query := `
		SELECT id, owner_id, name, category, address, phone_number,
		       description, website, image_urls, is_verified, created_at, updated_at
		FROM businesses
		WHERE owner_id = $1
	`
	b := &Business{}
	err := r.db.QueryRow(ctx, query, ownerID).Scan(
		&b.ID, &b.OwnerID, &b.Name, &b.Category, &b.Address, &b.PhoneNumber,
		&b.Description, &b.Website, &b.ImageURLs, &b.IsVerified, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *Repository) Update(ctx context.Context, businessID int64, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return fmt.Errorf("no fields to update")
	}

	setClauses := []string{}
	args := []interface{}{}
	argCounter := 1

	for field, value := range updates {
		if !isValidField(field) {
			return fmt.Errorf("invalid field name: %s", field)
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", field, argCounter))
		args = append(args, value)
		argCounter++
	}
	args = append(args, businessID)

	query := fmt.Sprintf("UPDATE businesses SET %s, updated_at = NOW() WHERE id = $%d",
		strings.Join(setClauses, ", "), argCounter)

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update business: %w", err)
	}
	return nil
}

func isValidField(field string) bool {
	validFields := map[string]bool{
		"name":         true,
		"category":     true,
		"address":      true,
		"phone_number": true,
		"description":  true,
		"website":      true,
	}
	return validFields[field]
}

// AddPhotoURL appends a photo URL to the business image_urls array.
func (r *Repository) AddPhotoURL(ctx context.Context, businessID int64, photoURL string) error {
	query := `
		UPDATE businesses
		SET image_urls = array_append(image_urls, $1)
		WHERE id = $2
	`
	if _, err := r.db.Exec(ctx, query, photoURL, businessID); err != nil {
		return fmt.Errorf("failed to add photo URL: %w", err)
	}
	return nil
}

// RemovePhotoURL removes a photo URL from the business image_urls array.
func (r *Repository) RemovePhotoURL(ctx context.Context, businessID int64, photoURL string) error {
	query := `
		UPDATE businesses
		SET image_urls = array_remove(image_urls, $1)
		WHERE id = $2
	`
	if _, err := r.db.Exec(ctx, query, photoURL, businessID); err != nil {
		return fmt.Errorf("failed to remove photo URL: %w", err)
	}
	return nil
}

// List returns a directory page of businesses plus the true total.
func (r *Repository) List(ctx context.Context, category string, limit, offset int) ([]*BusinessCard, int, error) {
	if limit <= 0 || limit > 30 {
		limit = 30
	}
	if offset < 0 {
		offset = 0
	}

	const q = `
		SELECT id, name, category, address, image_urls, is_verified,
		       COUNT(*) OVER() AS total_count
		FROM businesses
		WHERE ($1 = '' OR category = $1)
		ORDER BY is_verified DESC, LOWER(name) ASC, id ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, q, category, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()

	var (
		cards      []*BusinessCard
		totalCount int
	)

	for rows.Next() {
		c := &BusinessCard{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Category, &c.Address, &c.ImageURLs, &c.IsVerified, &totalCount); err != nil {
			return nil, 0, err
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(cards) == 0 {
		if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM businesses WHERE ($1 = '' OR category = $1)`, category).Scan(&totalCount); err != nil {
			return nil, 0, err
		}
	}

	return cards, totalCount, nil
}
