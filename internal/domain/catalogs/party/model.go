// Package party provides the catalog of business partners: suppliers that
// purchases are placed with and customers that sales are made to.
package party

import (
	"context"
	"regexp"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/entity"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Role defines what a party can appear as on documents.
type Role string

const (
	RoleSupplier Role = "supplier"
	RoleCustomer Role = "customer"
	RoleBoth     Role = "both"
)

// Party represents a supplier, a customer, or both.
type Party struct {
	entity.Catalog

	Role Role `db:"role" json:"role"`

	Country     *string `db:"country" json:"country,omitempty"`
	ContactName *string `db:"contact_name" json:"contactName,omitempty"`
	Email       *string `db:"email" json:"email,omitempty"`
	Phone       *string `db:"phone" json:"phone,omitempty"`
	Address     *string `db:"address" json:"address,omitempty"`

	// PaymentTerms is free text agreed with a supplier (e.g. "net 30")
	PaymentTerms *string `db:"payment_terms" json:"paymentTerms,omitempty"`

	Notes *string `db:"notes" json:"notes,omitempty"`
}

// NewParty creates a new Party with required fields.
func NewParty(code, name string, role Role) *Party {
	return &Party{
		Catalog: entity.NewCatalog(code, name),
		Role:    role,
	}
}

// Validate implements entity.Validatable interface.
func (p *Party) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	switch p.Role {
	case RoleSupplier, RoleCustomer, RoleBoth:
	default:
		return apperror.NewFieldValidation("role", "invalid party role").
			WithDetail("value", string(p.Role))
	}

	if p.Email != nil && *p.Email != "" && !emailRE.MatchString(*p.Email) {
		return apperror.NewFieldValidation("email", "invalid email format")
	}
	return nil
}

// IsSupplier returns true if purchases may be placed with the party.
func (p *Party) IsSupplier() bool {
	return p.Role == RoleSupplier || p.Role == RoleBoth
}

// IsCustomer returns true if sales may be made to the party.
func (p *Party) IsCustomer() bool {
	return p.Role == RoleCustomer || p.Role == RoleBoth
}
