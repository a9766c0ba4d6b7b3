// Package product provides the product catalog: the goods that are bought from
// suppliers and sold to customers, with their prices and stock levels.
package product

import (
	"context"

	"github.com/shopspring/decimal"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/entity"
	"tradedesk/internal/core/id"
	"tradedesk/internal/core/types"
)

// DefaultMinStockLevel is used when a product is created without a threshold.
const DefaultMinStockLevel = 5

// Product represents a catalog item.
type Product struct {
	entity.Catalog

	// Reference is the supplier's or internal SKU
	Reference *string `db:"reference" json:"reference,omitempty"`

	// SupplierID is the preferred supplier
	SupplierID *id.ID `db:"supplier_id" json:"supplierId,omitempty"`

	// BuyingPrice is the default unit price on purchases
	BuyingPrice types.Money `db:"buying_price" json:"buyingPrice"`

	// SellingPrice is the default unit price on sales
	SellingPrice types.Money `db:"selling_price" json:"sellingPrice"`

	// StockQuantity is maintained by the stock register
	StockQuantity int `db:"stock_quantity" json:"stockQuantity"`

	MinStockLevel int `db:"min_stock_level" json:"minStockLevel"`

	Description *string `db:"description" json:"description,omitempty"`
}

// NewProduct creates a new Product with required fields.
func NewProduct(code, name string, buyingPrice, sellingPrice types.Money) *Product {
	return &Product{
		Catalog:       entity.NewCatalog(code, name),
		BuyingPrice:   buyingPrice,
		SellingPrice:  sellingPrice,
		MinStockLevel: DefaultMinStockLevel,
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if err := validatePrice("buyingPrice", p.BuyingPrice); err != nil {
		return err
	}
	if err := validatePrice("sellingPrice", p.SellingPrice); err != nil {
		return err
	}

	if p.MinStockLevel < 0 {
		return apperror.NewFieldValidation("minStockLevel", "minimum stock level cannot be negative")
	}
	return nil
}

// IsLowStock reports whether stock has reached the reorder threshold.
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.MinStockLevel
}

// Margin returns the markup over buying price in percent, rounded to 2 decimals.
// Zero when the buying price is zero.
func (p *Product) Margin() decimal.Decimal {
	if !p.BuyingPrice.IsPositive() {
		return decimal.Zero
	}
	return p.SellingPrice.Sub(p.BuyingPrice).
		Div(p.BuyingPrice).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}

func validatePrice(field string, price types.Money) error {
	if price.IsNegative() {
		return apperror.NewFieldValidation(field, "price cannot be negative")
	}
	if !types.HasMoneyPrecision(price) {
		return apperror.NewFieldValidation(field, "price must have at most 2 decimal places")
	}
	return nil
}
