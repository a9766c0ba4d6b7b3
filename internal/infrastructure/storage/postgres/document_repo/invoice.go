package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"tradedesk/internal/core/id"
	"tradedesk/internal/domain"
	"tradedesk/internal/domain/documents/invoice"
	"tradedesk/internal/infrastructure/storage/postgres"
)

// InvoiceRepo implements invoice.Repository. Invoices have no lines.
type InvoiceRepo struct {
	*BaseDocumentRepo[*invoice.Invoice, struct{}]
}

var _ invoice.Repository = (*InvoiceRepo)(nil)

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txManager *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*invoice.Invoice, struct{}](
			txManager,
			Tables{
				Header:      "doc_invoices",
				PartyColumn: "customer_id",
				EntityName:  "invoice",
			},
			postgres.ExtractDBColumns[invoice.Invoice](),
			nil,
			func() *invoice.Invoice { return &invoice.Invoice{} },
		),
	}
}

// GetBySale retrieves the invoice of a sale. doc_invoices.sale_id is unique.
func (r *InvoiceRepo) GetBySale(ctx context.Context, saleID id.ID) (*invoice.Invoice, error) {
	return r.getOne(ctx,
		r.baseSelect().Where(squirrel.Eq{"sale_id": saleID, "deletion_mark": false}),
		saleID.String())
}

// List retrieves invoices with filtering.
func (r *InvoiceRepo) List(ctx context.Context, filter invoice.ListFilter) (domain.ListResult[*invoice.Invoice], error) {
	return r.BaseDocumentRepo.List(ctx, Filter{
		ListFilter: filter.ListFilter,
		Where:      overdueWhere(filter),
	})
}

func overdueWhere(filter invoice.ListFilter) []squirrel.Sqlizer {
	if filter.OverdueOn == nil {
		return nil
	}
	return []squirrel.Sqlizer{
		squirrel.Eq{"status": []string{string(invoice.StatusDraft), string(invoice.StatusSent)}},
		squirrel.Lt{"due_date": *filter.OverdueOn},
	}
}
