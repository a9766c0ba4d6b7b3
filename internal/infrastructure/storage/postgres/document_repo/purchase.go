package document_repo

import (
	"context"

	"tradedesk/internal/domain"
	"tradedesk/internal/domain/documents/purchase"
	"tradedesk/internal/infrastructure/storage/postgres"
)

// PurchaseRepo implements purchase.Repository.
type PurchaseRepo struct {
	*BaseDocumentRepo[*purchase.Purchase, purchase.Line]
}

var _ purchase.Repository = (*PurchaseRepo)(nil)

// NewPurchaseRepo creates a new purchase repository.
func NewPurchaseRepo(txManager *postgres.TxManager) *PurchaseRepo {
	return &PurchaseRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*purchase.Purchase, purchase.Line](
			txManager,
			Tables{
				Header:      "doc_purchases",
				Lines:       "doc_purchase_lines",
				PartyColumn: "supplier_id",
				EntityName:  "purchase",
			},
			postgres.ExtractDBColumns[purchase.Purchase](),
			postgres.ExtractDBColumns[purchase.Line](),
			func() *purchase.Purchase { return &purchase.Purchase{} },
		),
	}
}

// List retrieves purchases with filtering.
func (r *PurchaseRepo) List(ctx context.Context, filter purchase.ListFilter) (domain.ListResult[*purchase.Purchase], error) {
	return r.BaseDocumentRepo.List(ctx, Filter{
		ListFilter:    filter.ListFilter,
		PaymentStatus: filter.PaymentStatus,
		DateFrom:      filter.DateFrom,
		DateTo:        filter.DateTo,
	})
}
