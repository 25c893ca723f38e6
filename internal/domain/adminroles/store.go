package adminroles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	GetRoleByUserID(ctx context.Context, userID int64) (Role, error)
	GetRoleByEmail(ctx context.Context, email string) (Role, error)
	Assign(ctx context.Context, record *Record) error
	Remove(ctx context.Context, recordID int64) error
	List(ctx context.Context) ([]Record, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

// GetRoleByUserID resolves a role by the stable user identifier.
// Returns ErrRoleNotFound when the user has no admin role.
func (r *Repository) GetRoleByUserID(ctx context.Context, userID int64) (Role, error) {
	var role Role
	query := `SELECT role FROM admin_roles WHERE user_id = $1`
	err := r.db.QueryRow(ctx, query, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrRoleNotFound
		}
		return "", err
	}
	return role, nil
}

// GetRoleByEmail resolves a role by contact address. The stored email is
// already lower-cased; the argument is normalized here so callers don't
// have to.
func (r *Repository) GetRoleByEmail(ctx context.Context, email string) (Role, error) {
	var role Role
	query := `SELECT role FROM admin_roles WHERE email = $1`
	err := r.db.QueryRow(ctx, query, strings.ToLower(email)).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrRoleNotFound
		}
		return "", err
	}
	return role, nil
}

func (r *Repository) Assign(ctx context.Context, record *Record) error {
	if record.Email != nil {
		normalized := strings.ToLower(*record.Email)
		record.Email = &normalized
	}

	query := `
		INSERT INTO admin_roles (user_id, email, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, record.UserID, record.Email, record.Role).
		Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "admin_roles_user_id_key") ||
			strings.Contains(err.Error(), "admin_roles_email_key") {
			return ErrDuplicateRole
		}
		return fmt.Errorf("assign admin role: %w", err)
	}
	return nil
}

func (r *Repository) Remove(ctx context.Context, recordID int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM admin_roles WHERE id = $1`, recordID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRoleNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context) ([]Record, error) {
	query := `
		SELECT id, user_id, email, role, created_at, updated_at
		FROM admin_roles
		ORDER BY id ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Email, &rec.Role, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
