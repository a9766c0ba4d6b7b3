// Package register_repo provides PostgreSQL implementations for register repositories.
package register_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"tradedesk/internal/core/id"
	"tradedesk/internal/domain/registers/stock"
	"tradedesk/internal/infrastructure/storage/postgres"
)

const stockMovementsTable = "reg_stock_movements"

var movementColumns = postgres.ExtractDBColumns[stock.Movement]()

// StockRepo implements stock.Repository.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ stock.Repository = (*StockRepo)(nil)

// NewStockRepo creates a new stock register repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateMovements batch inserts movements.
// Inside a transaction rows go through COPY; outside, a multi-row INSERT.
func (r *StockRepo) CreateMovements(ctx context.Context, movements []stock.Movement) error {
	if len(movements) == 0 {
		return nil
	}

	rows := movementRows(movements)

	if tx := r.txManager.GetTx(ctx); tx != nil {
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{stockMovementsTable}, movementColumns, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(stockMovementsTable).Columns(movementColumns...)
	for _, row := range rows {
		q = q.Values(row...)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}
	return nil
}

func movementRows(movements []stock.Movement) [][]any {
	rows := make([][]any, 0, len(movements))
	for _, m := range movements {
		data := postgres.StructToMap(m)
		row := make([]any, 0, len(movementColumns))
		for _, col := range movementColumns {
			row = append(row, data[col])
		}
		rows = append(rows, row)
	}
	return rows
}

// DeleteMovementsByRecorder removes and returns all movements of a document.
func (r *StockRepo) DeleteMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]stock.Movement, error) {
	sql, args, err := r.builder.Delete(stockMovementsTable).
		Where(squirrel.Eq{"recorder_id": recorderID}).
		Suffix("RETURNING " + strings.Join(movementColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build delete: %w", err)
	}

	var removed []stock.Movement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &removed, sql, args...); err != nil {
		return nil, fmt.Errorf("delete movements: %w", err)
	}
	return removed, nil
}

// GetMovementsByRecorder retrieves all movements of a document.
func (r *StockRepo) GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]stock.Movement, error) {
	sql, args, err := r.builder.Select(movementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"recorder_id": recorderID}).
		OrderBy("created_at", "product_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []stock.Movement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	return movements, nil
}

// GetBalance sums the register for a product.
func (r *StockRepo) GetBalance(ctx context.Context, productID id.ID) (stock.Balance, error) {
	balance := stock.Balance{ProductID: productID}

	sql, args, err := r.builder.
		Select("COALESCE(SUM(CASE WHEN record_type = 'expense' THEN -quantity ELSE quantity END), 0)").
		From(stockMovementsTable).
		Where(squirrel.Eq{"product_id": productID}).
		ToSql()
	if err != nil {
		return balance, fmt.Errorf("build query: %w", err)
	}

	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&balance.Quantity); err != nil {
		return balance, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// GetMovementHistory returns movements of a product, newest first.
func (r *StockRepo) GetMovementHistory(ctx context.Context, productID id.ID, filter stock.MovementFilter) ([]stock.Movement, error) {
	sql, args, err := r.historyQuery(productID, filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []stock.Movement
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}
	return movements, nil
}

func (r *StockRepo) historyQuery(productID id.ID, filter stock.MovementFilter) squirrel.SelectBuilder {
	q := r.builder.Select(movementColumns...).
		From(stockMovementsTable).
		Where(squirrel.Eq{"product_id": productID})

	if filter.RecordType != nil {
		q = q.Where(squirrel.Eq{"record_type": *filter.RecordType})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"period": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"period": *filter.ToDate})
	}

	q = q.OrderBy("period DESC", "created_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}
	return q
}
