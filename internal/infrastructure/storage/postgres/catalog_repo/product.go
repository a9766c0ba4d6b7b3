package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/id"
	"tradedesk/internal/domain"
	"tradedesk/internal/domain/catalogs/product"
	"tradedesk/internal/infrastructure/storage/postgres"
)

const productTable = "cat_products"

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

var _ product.Repository = (*ProductRepo)(nil)

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			productTable,
			"product",
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
	}
}

// GetMany retrieves the non-deleted products with the given ids.
func (r *ProductRepo) GetMany(ctx context.Context, ids []id.ID) ([]*product.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.FindMany(ctx, r.baseSelect().
		Where(squirrel.Eq{"id": ids}).
		Where(squirrel.Eq{"deletion_mark": false}))
}

// ListActive retrieves every non-deleted product.
func (r *ProductRepo) ListActive(ctx context.Context) ([]*product.Product, error) {
	return r.FindMany(ctx, r.baseSelect().
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("name ASC"))
}

// FindLowStock retrieves products at or below their minimum stock level.
func (r *ProductRepo) FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	result := domain.ListResult[*product.Product]{Limit: filter.Limit, Offset: filter.Offset}

	q := r.lowStockQuery(filter)
	items, err := r.FindMany(ctx, paginate(q.OrderBy("stock_quantity ASC", "name ASC"), filter))
	if err != nil {
		return result, fmt.Errorf("find low stock: %w", err)
	}
	result.Items = items
	result.TotalCount = int64(len(items))
	return result, nil
}

func (r *ProductRepo) lowStockQuery(filter domain.ListFilter) squirrel.SelectBuilder {
	return r.filtered(filter).Where("stock_quantity <= min_stock_level")
}

// AdjustStock adds delta to stock_quantity.
func (r *ProductRepo) AdjustStock(ctx context.Context, productID id.ID, delta int) error {
	sql, args, err := r.Builder().
		Update(productTable).
		Set("stock_quantity", squirrel.Expr("stock_quantity + ?", delta)).
		Where(squirrel.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build adjust stock: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("product", productID.String())
	}
	return nil
}
