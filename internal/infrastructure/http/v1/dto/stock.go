package dto

import (
	"tradedesk/internal/core/apperror"
	"tradedesk/internal/domain/registers/stock"
)

// StockEntryRequest is the body of POST /registers/stock/entries.
type StockEntryRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Type      string `json:"type" binding:"required"`
	Quantity  int    `json:"quantity"`
	Date      *Date  `json:"date"`
	Reference string `json:"reference"`
	Notes     string `json:"notes"`
}

// ToEntry converts the request to a register entry.
func (r StockEntryRequest) ToEntry() (stock.Entry, error) {
	productID, fieldErr := parseID("productId", r.ProductID)
	if fieldErr != nil {
		return stock.Entry{}, apperror.ValidationErrors{fieldErr}.Err()
	}
	entry := stock.Entry{
		ProductID: productID,
		Type:      stock.EntryType(r.Type),
		Quantity:  r.Quantity,
		Reference: r.Reference,
		Notes:     r.Notes,
	}
	if day := r.Date.Ptr(); day != nil {
		entry.Date = *day
	}
	return entry, nil
}
