package shop

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ProductRepo provides catalog persistence on top of PostgreSQL.
type ProductRepo struct {
	db *sqlx.DB
}

// NewProductRepo constructs a ProductRepo.
func NewProductRepo(db *sqlx.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

// Create inserts a new product and returns its id.
func (r *ProductRepo) Create(ctx context.Context, p NewProduct) (int64, error) {
	const q = `
		INSERT INTO products (name, category, description, price, old_price, quantity, images, is_preorder)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	var id int64
	err := r.db.QueryRowxContext(ctx, q,
		p.Name, p.Category, p.Description, p.Price, p.OldPrice,
		p.Quantity, pq.StringArray(p.Images), p.IsPreorder,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	return id, nil
}

// ByID returns the product with the given id or ErrNotFound.
func (r *ProductRepo) ByID(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := r.db.GetContext(ctx, &p, `SELECT * FROM products WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select product: %w", err)
	}
	return &p, nil
}

// Page returns one page of products ordered by newest first, plus the total count.
func (r *ProductRepo) Page(ctx context.Context, offset, limit int) ([]Product, int, error) {
	var items []Product
	err := r.db.SelectContext(ctx, &items,
		`SELECT * FROM products ORDER BY id DESC OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("select products page: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT count(*) FROM products`); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	return items, total, nil
}

// Update applies a partial update to the product with the given id.
func (r *ProductRepo) Update(ctx context.Context, id int64, patch ProductPatch) error {
	if patch.Empty() {
		return nil
	}

	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if patch.Name != nil {
		sets = append(sets, "name = "+arg(*patch.Name))
	}
	if patch.Price != nil {
		sets = append(sets, "price = "+arg(*patch.Price))
	}
	if patch.Quantity != nil {
		sets = append(sets, "quantity = "+arg(*patch.Quantity))
	}
	if patch.ClearOldPrice {
		sets = append(sets, "old_price = NULL")
	} else if patch.OldPrice != nil {
		sets = append(sets, "old_price = "+arg(*patch.OldPrice))
	}
	if patch.Images != nil {
		sets = append(sets, "images = "+arg(pq.StringArray(patch.Images)))
	}

	q := "UPDATE products SET " + strings.Join(sets, ", ") + " WHERE id = " + arg(id)
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the product row.
func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// DecrementQuantity reduces the stock of a product by the given amount, never below zero.
func (r *ProductRepo) DecrementQuantity(ctx context.Context, id int64, by int) error {
	const q = `UPDATE products SET quantity = GREATEST(0, quantity - $2) WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, q, id, by); err != nil {
		return fmt.Errorf("decrement quantity: %w", err)
	}
	return nil
}

// TogglePreorder flips the preorder flag and returns the new value.
func (r *ProductRepo) TogglePreorder(ctx context.Context, id int64) (bool, error) {
	const q = `UPDATE products SET is_preorder = NOT is_preorder WHERE id = $1 RETURNING is_preorder`
	var v bool
	err := r.db.QueryRowxContext(ctx, q, id).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("toggle preorder: %w", err)
	}
	return v, nil
}
