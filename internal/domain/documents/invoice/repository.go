package invoice

import (
	"context"
	"time"

	"tradedesk/internal/core/id"
	"tradedesk/internal/domain"
)

// Repository defines operations for invoices.
type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error)
	GetBySale(ctx context.Context, saleID id.ID) (*Invoice, error)

	// Update writes the invoice if the stored version still equals inv.Version.
	Update(ctx context.Context, inv *Invoice) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Invoice], error)
}

// ListFilter for filtering invoices.
type ListFilter struct {
	domain.ListFilter

	// OverdueOn keeps open invoices due before this day
	OverdueOn *time.Time
}
