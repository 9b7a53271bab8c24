package shop

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
)

// Order statuses. An order is created as new and may be confirmed exactly once.
const (
	OrderStatusNew       = "new"
	OrderStatusConfirmed = "confirmed"
)

// Product is a catalog entry managed through the admin wizard.
type Product struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	Category    string         `db:"category"`
	Description string         `db:"description"`
	Price       float64        `db:"price"`
	OldPrice    *float64       `db:"old_price"`
	Quantity    int            `db:"quantity"`
	Images      pq.StringArray `db:"images"`
	IsPreorder  bool           `db:"is_preorder"`
	CreatedAt   time.Time      `db:"created_at"`
}

// NewProduct carries the fields required to insert a catalog entry.
type NewProduct struct {
	Name        string
	Category    string
	Description string
	Price       float64
	OldPrice    *float64
	Quantity    int
	Images      []string
	IsPreorder  bool
}

// ProductPatch describes a partial product update. Nil fields are left untouched.
type ProductPatch struct {
	Name     *string
	Price    *float64
	Quantity *int
	// OldPrice sets a discount price; ClearOldPrice removes it.
	OldPrice      *float64
	ClearOldPrice bool
	// Images replaces the image list when non-nil.
	Images []string
}

// Empty reports whether the patch changes nothing.
func (p ProductPatch) Empty() bool {
	return p.Name == nil && p.Price == nil && p.Quantity == nil &&
		p.OldPrice == nil && !p.ClearOldPrice && p.Images == nil
}

// OrderItem is a snapshot of one ordered product line.
type OrderItem struct {
	ProductID  int64   `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
	IsPreorder bool    `json:"is_preorder,omitempty"`
}

// OrderItems is stored as a JSONB column.
type OrderItems []OrderItem

// Value implements driver.Valuer for JSONB storage.
func (o OrderItems) Value() (driver.Value, error) {
	if o == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(o)
}

// Scan implements sql.Scanner for JSONB storage.
func (o *OrderItems) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, o)
	case string:
		return json.Unmarshal([]byte(v), o)
	case nil:
		*o = nil
		return nil
	}
	return errors.New("shop: unsupported source type for OrderItems")
}

// Order is a customer order awaiting confirmation by the administrator.
type Order struct {
	ID        int64      `db:"id"`
	UserID    int64      `db:"user_id"`
	UserName  string     `db:"user_name"`
	Items     OrderItems `db:"items"`
	Total     float64    `db:"total"`
	Status    string     `db:"status"`
	CreatedAt time.Time  `db:"created_at"`
}

// User is a storefront visitor known to the bot.
type User struct {
	ID        int64     `db:"id"`
	Username  *string   `db:"username"`
	FirstName string    `db:"first_name"`
	LastName  *string   `db:"last_name"`
	UpdatedAt time.Time `db:"updated_at"`
}
