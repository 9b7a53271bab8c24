package shop

import (
	"context"
	"log/slog"

	"github.com/m3rciful/teleshop/core/logger"
)

// ProductStore is the catalog persistence required by the Catalog service.
type ProductStore interface {
	Create(ctx context.Context, p NewProduct) (int64, error)
	ByID(ctx context.Context, id int64) (*Product, error)
	Update(ctx context.Context, id int64, patch ProductPatch) error
	Delete(ctx context.Context, id int64) error
}

// BlobRemover deletes stored product images by their public reference.
type BlobRemover interface {
	RemoveByURL(ctx context.Context, ref string) error
}

// Catalog wraps product persistence with image cleanup on deletion.
type Catalog struct {
	products ProductStore
	blobs    BlobRemover
}

// NewCatalog constructs the Catalog service.
func NewCatalog(products ProductStore, blobs BlobRemover) *Catalog {
	return &Catalog{products: products, blobs: blobs}
}

// Create inserts a new catalog entry.
func (c *Catalog) Create(ctx context.Context, p NewProduct) (int64, error) {
	id, err := c.products.Create(ctx, p)
	if err != nil {
		return 0, err
	}
	logger.Info(ctx, "service.shop", "product.created",
		slog.Int64("product_id", id),
		slog.String("name", p.Name),
		slog.Int("photos", len(p.Images)),
	)
	return id, nil
}

// Update applies a partial update to an existing product.
func (c *Catalog) Update(ctx context.Context, id int64, patch ProductPatch) error {
	if err := c.products.Update(ctx, id, patch); err != nil {
		return err
	}
	logger.Info(ctx, "service.shop", "product.updated",
		slog.Int64("product_id", id),
	)
	return nil
}

// Delete removes a product and its stored images. Image removal is
// best-effort: a failed blob delete is logged and does not undo the
// catalog deletion.
func (c *Catalog) Delete(ctx context.Context, id int64) error {
	p, err := c.products.ByID(ctx, id)
	if err != nil {
		return err
	}
	if err := c.products.Delete(ctx, id); err != nil {
		return err
	}
	for _, ref := range p.Images {
		if err := c.blobs.RemoveByURL(ctx, ref); err != nil {
			logger.Warn(ctx, "service.shop", "product.image_cleanup_failed",
				slog.Int64("product_id", id),
				slog.String("key", ref),
				slog.String("err", err.Error()),
			)
		}
	}
	logger.Info(ctx, "service.shop", "product.deleted",
		slog.Int64("product_id", id),
		slog.Int("photos", len(p.Images)),
	)
	return nil
}
