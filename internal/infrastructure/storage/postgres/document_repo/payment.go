package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tradedesk/internal/core/id"
	"tradedesk/internal/domain/documents"
	"tradedesk/internal/domain/ledger"
	"tradedesk/internal/infrastructure/storage/postgres"
)

const paymentsTable = "doc_payments"

var paymentColumns = postgres.ExtractDBColumns[documents.Payment]()

// PaymentRepo implements documents.PaymentStore for purchases and sales.
// Rows are told apart by document_kind.
type PaymentRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ documents.PaymentStore = (*PaymentRepo)(nil)

// NewPaymentRepo creates a new payment repository.
func NewPaymentRepo(txManager *postgres.TxManager) *PaymentRepo {
	return &PaymentRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreatePayment inserts a payment.
func (r *PaymentRepo) CreatePayment(ctx context.Context, p *documents.Payment) error {
	data := postgres.StructToMap(p)
	values := make([]any, 0, len(paymentColumns))
	for _, col := range paymentColumns {
		values = append(values, data[col])
	}

	sql, args, err := r.builder.
		Insert(paymentsTable).
		Columns(paymentColumns...).
		Values(values...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert payment: %w", err), "payment")
	}
	return nil
}

// ListPayments returns the payments of one document, oldest first.
func (r *PaymentRepo) ListPayments(ctx context.Context, kind ledger.Kind, docID id.ID) ([]*documents.Payment, error) {
	sql, args, err := r.listQuery(kind, docID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	payments := []*documents.Payment{}
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &payments, sql, args...); err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	return payments, nil
}

func (r *PaymentRepo) listQuery(kind ledger.Kind, docID id.ID) squirrel.SelectBuilder {
	return r.builder.
		Select(paymentColumns...).
		From(paymentsTable).
		Where(squirrel.Eq{"document_kind": kind, "document_id": docID}).
		OrderBy("payment_date ASC", "created_at ASC")
}
