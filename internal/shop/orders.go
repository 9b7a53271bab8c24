package shop

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// OrderRepo provides order persistence on top of PostgreSQL.
type OrderRepo struct {
	db *sqlx.DB
}

// NewOrderRepo constructs an OrderRepo.
func NewOrderRepo(db *sqlx.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

// Create inserts a new order with status "new" and returns its id.
func (r *OrderRepo) Create(ctx context.Context, userID int64, userName string, items OrderItems, total float64) (int64, error) {
	const q = `
		INSERT INTO orders (user_id, user_name, items, total, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	var id int64
	err := r.db.QueryRowxContext(ctx, q, userID, userName, items, total, OrderStatusNew).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert order: %w", err)
	}
	return id, nil
}

// ByID returns the order with the given id or ErrNotFound.
func (r *OrderRepo) ByID(ctx context.Context, id int64) (*Order, error) {
	var o Order
	err := r.db.GetContext(ctx, &o, `SELECT * FROM orders WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select order: %w", err)
	}
	return &o, nil
}

// SetStatus updates the order status.
func (r *OrderRepo) SetStatus(ctx context.Context, id int64, status string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, status); err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}
