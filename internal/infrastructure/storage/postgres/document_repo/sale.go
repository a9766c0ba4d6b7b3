package document_repo

import (
	"context"

	"tradedesk/internal/domain"
	"tradedesk/internal/domain/documents/sale"
	"tradedesk/internal/infrastructure/storage/postgres"
)

// SaleRepo implements sale.Repository.
type SaleRepo struct {
	*BaseDocumentRepo[*sale.Sale, sale.Line]
}

var _ sale.Repository = (*SaleRepo)(nil)

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txManager *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*sale.Sale, sale.Line](
			txManager,
			Tables{
				Header:      "doc_sales",
				Lines:       "doc_sale_lines",
				PartyColumn: "customer_id",
				EntityName:  "sale",
			},
			postgres.ExtractDBColumns[sale.Sale](),
			postgres.ExtractDBColumns[sale.Line](),
			func() *sale.Sale { return &sale.Sale{} },
		),
	}
}

// List retrieves sales with filtering.
func (r *SaleRepo) List(ctx context.Context, filter sale.ListFilter) (domain.ListResult[*sale.Sale], error) {
	return r.BaseDocumentRepo.List(ctx, Filter{
		ListFilter:    filter.ListFilter,
		PaymentStatus: filter.PaymentStatus,
		DateFrom:      filter.DateFrom,
		DateTo:        filter.DateTo,
	})
}
