package entity

import (
	"context"
	"strings"

	"tradedesk/internal/core/apperror"
)

// Catalog is the base type for reference data (products, suppliers, customers).
type Catalog struct {
	BaseEntity

	// Code is a human-readable identifier, generated when empty
	Code string `db:"code" json:"code"`

	// Name is the display name snapshotted into document lines
	Name string `db:"name" json:"name"`
}

// NewCatalog creates a new Catalog with generated ID.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		BaseEntity: NewBaseEntity(),
		Code:       code,
		Name:       name,
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewFieldValidation("name", "name is required")
	}
	return nil
}
