package shop

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// UserRepo persists storefront visitors.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Upsert inserts or refreshes the user profile.
func (r *UserRepo) Upsert(ctx context.Context, u User) error {
	const q = `
		INSERT INTO users (id, username, first_name, last_name, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			updated_at = now()`
	if _, err := r.db.ExecContext(ctx, q, u.ID, u.Username, u.FirstName, u.LastName); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// ByID returns the stored user profile or ErrNotFound.
func (r *UserRepo) ByID(ctx context.Context, id int64) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}
