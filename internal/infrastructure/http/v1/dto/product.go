package dto

import (
	"github.com/shopspring/decimal"

	"tradedesk/internal/core/id"
	"tradedesk/internal/domain/catalogs/product"
)

// --- Request DTOs ---

// CreateProductRequest is the request body for creating a product.
type CreateProductRequest struct {
	Code          string          `json:"code"`
	Name          string          `json:"name" binding:"required"`
	Reference     *string         `json:"reference"`
	SupplierID    *string         `json:"supplierId" binding:"omitempty,uuid"`
	BuyingPrice   decimal.Decimal `json:"buyingPrice"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
	MinStockLevel *int            `json:"minStockLevel" binding:"omitempty,min=0"`
	Description   *string         `json:"description"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateProductRequest) ToEntity() *product.Product {
	p := product.NewProduct(r.Code, r.Name, r.BuyingPrice, r.SellingPrice)
	p.Reference = r.Reference
	p.SupplierID = parseOptionalID(r.SupplierID)
	if r.MinStockLevel != nil {
		p.MinStockLevel = *r.MinStockLevel
	}
	p.Description = r.Description
	return p
}

// UpdateProductRequest is the request body for updating a product.
// Stock quantity is owned by the stock register and cannot be set here.
type UpdateProductRequest struct {
	Code          string          `json:"code" binding:"required"`
	Name          string          `json:"name" binding:"required"`
	Reference     *string         `json:"reference"`
	SupplierID    *string         `json:"supplierId" binding:"omitempty,uuid"`
	BuyingPrice   decimal.Decimal `json:"buyingPrice"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
	MinStockLevel int             `json:"minStockLevel" binding:"min=0"`
	Description   *string         `json:"description"`
	Version       int             `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) {
	p.Code = r.Code
	p.Name = r.Name
	p.Reference = r.Reference
	p.SupplierID = parseOptionalID(r.SupplierID)
	p.BuyingPrice = r.BuyingPrice
	p.SellingPrice = r.SellingPrice
	p.MinStockLevel = r.MinStockLevel
	p.Description = r.Description
	p.Version = r.Version
}

// --- Response DTOs ---

// ProductResponse is a product with its derived indicators.
type ProductResponse struct {
	*product.Product
	IsLowStock bool   `json:"isLowStock"`
	Margin     string `json:"margin"`
}

// FromProduct converts entity to response DTO.
func FromProduct(p *product.Product) ProductResponse {
	return ProductResponse{
		Product:    p,
		IsLowStock: p.IsLowStock(),
		Margin:     p.Margin().StringFixed(2),
	}
}

// parseOptionalID parses an id already checked by the uuid binding tag.
func parseOptionalID(raw *string) *id.ID {
	if raw == nil || *raw == "" {
		return nil
	}
	v, err := id.Parse(*raw)
	if err != nil {
		return nil
	}
	return &v
}
