package sale

import (
	"context"
	"time"

	"tradedesk/internal/core/id"
	"tradedesk/internal/domain"
)

// Repository defines operations for sale documents.
type Repository interface {
	Create(ctx context.Context, doc *Sale) error
	GetByID(ctx context.Context, docID id.ID) (*Sale, error)
	GetByNumber(ctx context.Context, number string) (*Sale, error)

	// Update writes the header if the stored version still equals doc.Version.
	Update(ctx context.Context, doc *Sale) error

	// Delete sets the deletion mark.
	Delete(ctx context.Context, docID id.ID) error

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)

	// SaveLines replaces all lines of the document.
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error)
}

// ListFilter for filtering sales.
type ListFilter struct {
	domain.ListFilter

	PaymentStatus string
	DateFrom      *time.Time
	DateTo        *time.Time
}
