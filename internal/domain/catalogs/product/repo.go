package product

import (
	"context"

	"tradedesk/internal/core/id"
	"tradedesk/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// GetMany retrieves the non-deleted products with the given ids.
	// Missing ids are skipped.
	GetMany(ctx context.Context, ids []id.ID) ([]*Product, error)

	// ListActive retrieves every non-deleted product.
	ListActive(ctx context.Context) ([]*Product, error)

	// FindLowStock retrieves products at or below their minimum stock level.
	FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error)

	// AdjustStock adds delta to stock_quantity.
	AdjustStock(ctx context.Context, productID id.ID, delta int) error
}
