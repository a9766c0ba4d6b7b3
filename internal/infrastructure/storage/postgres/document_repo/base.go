// Package document_repo provides PostgreSQL implementations for document repositories.
// Each document type has a header table and a lines table keyed by doc_id.
package document_repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/id"
	"tradedesk/internal/domain"
	"tradedesk/internal/infrastructure/storage/postgres"
)

// Filter is the storage-level document filter.
type Filter struct {
	domain.ListFilter

	PaymentStatus string
	DateFrom      *time.Time
	DateTo        *time.Time

	// Where holds conditions specific to one document type
	Where []squirrel.Sqlizer
}

// Tables names the tables and columns of one document type.
type Tables struct {
	Header      string
	Lines       string
	PartyColumn string
	EntityName  string
}

// BaseDocumentRepo provides header and line persistence for document type T with lines L.
type BaseDocumentRepo[T any, L any] struct {
	txManager  *postgres.TxManager
	tables     Tables
	selectCols []string
	lineCols   []string
	newFn      func() T
}

// NewBaseDocumentRepo creates a new base document repository.
func NewBaseDocumentRepo[T any, L any](txManager *postgres.TxManager, tables Tables, selectCols, lineCols []string, newFn func() T) *BaseDocumentRepo[T, L] {
	return &BaseDocumentRepo[T, L]{
		txManager:  txManager,
		tables:     tables,
		selectCols: selectCols,
		lineCols:   lineCols,
		newFn:      newFn,
	}
}

// Builder returns a new squirrel builder.
func (r *BaseDocumentRepo[T, L]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseDocumentRepo[T, L]) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *BaseDocumentRepo[T, L]) headerColumns(entity T, skip ...string) map[string]any {
	data := postgres.StructToMap(entity)
	out := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if contains(skip, col) {
			continue
		}
		if val, ok := data[col]; ok {
			out[col] = val
		}
	}
	return out
}

// Create inserts a new document header.
func (r *BaseDocumentRepo[T, L]) Create(ctx context.Context, entity T) error {
	sql, args, err := r.Builder().
		Insert(r.tables.Header).
		SetMap(r.headerColumns(entity)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert %s: %w", r.tables.Header, err), r.tables.EntityName)
	}
	return nil
}

// Update writes the header if the stored version still equals the entity's.
func (r *BaseDocumentRepo[T, L]) Update(ctx context.Context, entity T) error {
	q, err := r.updateQuery(entity)
	if err != nil {
		return err
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(fmt.Errorf("update %s: %w", r.tables.Header, err), r.tables.EntityName)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.tables.EntityName, postgres.StructToMap(entity)["id"])
	}
	return nil
}

func (r *BaseDocumentRepo[T, L]) updateQuery(entity T) (squirrel.UpdateBuilder, error) {
	data := postgres.StructToMap(entity)
	entityID, ok := data["id"]
	if !ok {
		return squirrel.UpdateBuilder{}, fmt.Errorf("%s has no id column", r.tables.EntityName)
	}
	version, ok := data["version"].(int)
	if !ok {
		return squirrel.UpdateBuilder{}, fmt.Errorf("%s has no int version column", r.tables.EntityName)
	}

	return r.Builder().
		Update(r.tables.Header).
		SetMap(r.headerColumns(entity, "id", "version", "created_at", "created_by", "updated_at")).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": version}), nil
}

// Delete soft-deletes a document.
func (r *BaseDocumentRepo[T, L]) Delete(ctx context.Context, entityID id.ID) error {
	sql, args, err := r.Builder().
		Update(r.tables.Header).
		Set("deletion_mark", true).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.tables.Header, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tables.EntityName, entityID.String())
	}
	return nil
}

func (r *BaseDocumentRepo[T, L]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().Select(r.selectCols...).From(r.tables.Header)
}

func (r *BaseDocumentRepo[T, L]) getOne(ctx context.Context, q squirrel.SelectBuilder, key string) (T, error) {
	entity := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.querier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.tables.EntityName, key)
		}
		return entity, fmt.Errorf("get %s: %w", r.tables.EntityName, err)
	}
	return entity, nil
}

// GetByID retrieves a document header by ID.
func (r *BaseDocumentRepo[T, L]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.getOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": entityID}), entityID.String())
}

// GetByNumber retrieves a document header by number.
func (r *BaseDocumentRepo[T, L]) GetByNumber(ctx context.Context, number string) (T, error) {
	return r.getOne(ctx, r.baseSelect().Where(squirrel.Eq{"number": number}), number)
}

// GetLines retrieves the lines of a document in line order.
func (r *BaseDocumentRepo[T, L]) GetLines(ctx context.Context, docID id.ID) ([]L, error) {
	sql, args, err := r.Builder().
		Select(r.lineCols...).
		From(r.tables.Lines).
		Where(squirrel.Eq{"doc_id": docID}).
		OrderBy("line_no ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []L
	if err := pgxscan.Select(ctx, r.querier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

// SaveLines replaces all lines of a document. It must run inside a transaction
// so the delete and the bulk insert commit together.
func (r *BaseDocumentRepo[T, L]) SaveLines(ctx context.Context, docID id.ID, lines []L) error {
	tx := r.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("save %s lines requires a transaction", r.tables.EntityName)
	}

	sql, args, err := r.Builder().
		Delete(r.tables.Lines).
		Where(squirrel.Eq{"doc_id": docID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete lines: %w", err)
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}
	columns, rows := r.lineRows(docID, lines)
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{r.tables.Lines}, columns, pgx.CopyFromRows(rows)); err != nil {
		return postgres.MapError(fmt.Errorf("copy lines: %w", err), r.tables.EntityName)
	}
	return nil
}

// lineRows lays lines out for COPY: doc_id followed by the line columns.
func (r *BaseDocumentRepo[T, L]) lineRows(docID id.ID, lines []L) ([]string, [][]any) {
	columns := append([]string{"doc_id"}, r.lineCols...)
	rows := make([][]any, 0, len(lines))
	for _, line := range lines {
		data := postgres.StructToMap(line)
		row := make([]any, 0, len(columns))
		row = append(row, docID)
		for _, col := range r.lineCols {
			row = append(row, data[col])
		}
		rows = append(rows, row)
	}
	return columns, rows
}

// List retrieves document headers with filtering and pagination.
func (r *BaseDocumentRepo[T, L]) List(ctx context.Context, filter Filter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{Limit: filter.Limit, Offset: filter.Offset}

	q := r.filtered(filter)

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := r.querier(ctx).QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy, "number DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.querier(ctx), &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list: %w", err)
	}
	return result, nil
}

func (r *BaseDocumentRepo[T, L]) filtered(filter Filter) squirrel.SelectBuilder {
	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"reference": pattern},
		})
	}
	if len(filter.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": filter.IDs})
	}
	if filter.Status != "" {
		q = q.Where(squirrel.Eq{"status": filter.Status})
	}
	if filter.PaymentStatus != "" {
		q = q.Where(squirrel.Eq{"payment_status": filter.PaymentStatus})
	}
	if filter.PartyID != nil && r.tables.PartyColumn != "" {
		q = q.Where(squirrel.Eq{r.tables.PartyColumn: *filter.PartyID})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}
	for _, cond := range filter.Where {
		q = q.Where(cond)
	}
	return q
}

func (r *BaseDocumentRepo[T, L]) parseOrderBy(orderBy string) (string, error) {
	if strings.TrimSpace(orderBy) == "" || orderBy == "name" {
		return "date DESC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}
	field = strings.TrimSpace(field)

	if field == "" || !contains(r.selectCols, field) {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}
	return field + " " + direction, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
