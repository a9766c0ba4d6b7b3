// Package report_repo reads the dashboard aggregates.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tradedesk/internal/domain/documents"
	"tradedesk/internal/domain/ledger"
	"tradedesk/internal/domain/reports"
	"tradedesk/internal/infrastructure/storage/postgres"
)

type source struct {
	table     string
	partyID   string
	partyName string
}

var sources = map[ledger.Kind]source{
	ledger.KindPurchase: {table: "doc_purchases", partyID: "supplier_id", partyName: "supplier_name"},
	ledger.KindSale:     {table: "doc_sales", partyID: "customer_id", partyName: "customer_name"},
}

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ reports.Repository = (*ReportRepo)(nil)

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// MonthlyTotals groups live documents dated on or after since by month.
func (r *ReportRepo) MonthlyTotals(ctx context.Context, kind ledger.Kind, since time.Time) ([]reports.MonthTotal, error) {
	q, err := r.monthlyQuery(kind, since)
	if err != nil {
		return nil, err
	}
	rows := []reports.MonthTotal{}
	if err := r.selectInto(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}
	return rows, nil
}

// PaymentStatusCounts counts live documents by payment status.
func (r *ReportRepo) PaymentStatusCounts(ctx context.Context, kind ledger.Kind) ([]reports.StatusCount, error) {
	q, err := r.statusQuery(kind)
	if err != nil {
		return nil, err
	}
	rows := []reports.StatusCount{}
	if err := r.selectInto(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("payment status counts: %w", err)
	}
	return rows, nil
}

// OpenBalances lists unpaid and partly paid documents.
func (r *ReportRepo) OpenBalances(ctx context.Context, kind ledger.Kind, limit int) ([]reports.OpenBalance, error) {
	q, err := r.openQuery(kind, limit)
	if err != nil {
		return nil, err
	}
	rows := []reports.OpenBalance{}
	if err := r.selectInto(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("open balances: %w", err)
	}
	return rows, nil
}

func (r *ReportRepo) selectInto(ctx context.Context, dst any, q squirrel.SelectBuilder) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	return pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), dst, sql, args...)
}

// live selects from the kind's table, skipping deleted and cancelled documents.
func (r *ReportRepo) live(kind ledger.Kind, columns ...string) (squirrel.SelectBuilder, source, error) {
	src, ok := sources[kind]
	if !ok {
		return squirrel.SelectBuilder{}, source{}, fmt.Errorf("no report source for kind %q", kind)
	}
	q := r.builder.
		Select(columns...).
		From(src.table).
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.NotEq{"status": "cancelled"})
	return q, src, nil
}

func (r *ReportRepo) monthlyQuery(kind ledger.Kind, since time.Time) (squirrel.SelectBuilder, error) {
	q, _, err := r.live(kind,
		"to_char(date_trunc('month', date), 'YYYY-MM') AS month",
		"COUNT(*) AS count",
		"COALESCE(SUM(total), 0) AS total",
	)
	if err != nil {
		return q, err
	}
	return q.Where(squirrel.GtOrEq{"date": since}).GroupBy("month").OrderBy("month ASC"), nil
}

func (r *ReportRepo) statusQuery(kind ledger.Kind) (squirrel.SelectBuilder, error) {
	q, _, err := r.live(kind, "payment_status", "COUNT(*) AS count")
	if err != nil {
		return q, err
	}
	return q.GroupBy("payment_status").OrderBy("payment_status ASC"), nil
}

func (r *ReportRepo) openQuery(kind ledger.Kind, limit int) (squirrel.SelectBuilder, error) {
	src, ok := sources[kind]
	if !ok {
		return squirrel.SelectBuilder{}, fmt.Errorf("no report source for kind %q", kind)
	}
	q, _, err := r.live(kind,
		"id", "number",
		src.partyID+" AS party_id",
		src.partyName+" AS party_name",
		"date", "actual_delivery_date", "payment_due_date",
		"payment_status", "total", "paid_amount",
	)
	if err != nil {
		return q, err
	}
	return q.
		Where(squirrel.Eq{"payment_status": []documents.PaymentStatus{documents.PaymentUnpaid, documents.PaymentPartial}}).
		OrderBy("payment_due_date ASC NULLS LAST", "date ASC").
		Limit(uint64(limit)), nil
}
