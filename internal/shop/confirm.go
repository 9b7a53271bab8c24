package shop

import (
	"context"
	"log/slog"

	"github.com/m3rciful/teleshop/core/logger"
)

type orderStore interface {
	ByID(ctx context.Context, id int64) (*Order, error)
	SetStatus(ctx context.Context, id int64, status string) error
}

type inventoryStore interface {
	DecrementQuantity(ctx context.Context, id int64, by int) error
}

// Confirmer transitions orders from new to confirmed and adjusts stock.
type Confirmer struct {
	orders   orderStore
	products inventoryStore
}

// NewConfirmer constructs the order confirmation service.
func NewConfirmer(orders orderStore, products inventoryStore) *Confirmer {
	return &Confirmer{orders: orders, products: products}
}

// Confirm marks the order as confirmed and decrements stock for every
// line item. Confirming an already confirmed order is a no-op and
// reports false. Stock is adjusted per item, so a mid-way failure
// leaves earlier decrements applied; quantities never go below zero.
func (c *Confirmer) Confirm(ctx context.Context, orderID int64) (bool, error) {
	order, err := c.orders.ByID(ctx, orderID)
	if err != nil {
		return false, err
	}
	if order.Status == OrderStatusConfirmed {
		logger.Info(ctx, "service.shop", "order.already_confirmed",
			slog.Int64("order_id", orderID),
		)
		return false, nil
	}
	for _, item := range order.Items {
		if err := c.products.DecrementQuantity(ctx, item.ProductID, item.Quantity); err != nil {
			return false, err
		}
	}
	if err := c.orders.SetStatus(ctx, orderID, OrderStatusConfirmed); err != nil {
		return false, err
	}
	logger.Info(ctx, "service.shop", "order.confirmed",
		slog.Int64("order_id", orderID),
	)
	return true, nil
}
