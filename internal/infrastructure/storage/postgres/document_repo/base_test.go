package document_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/id"
	"tradedesk/internal/core/types"
	"tradedesk/internal/domain"
	"tradedesk/internal/domain/documents/purchase"
)

func TestPurchaseColumns(t *testing.T) {
	repo := NewPurchaseRepo(nil)

	assert.Contains(t, repo.selectCols, "supplier_id")
	assert.Contains(t, repo.selectCols, "number")
	assert.Contains(t, repo.selectCols, "total")
	assert.Contains(t, repo.selectCols, "paid_amount")
	assert.NotContains(t, repo.selectCols, "lines")
	assert.Equal(t, []string{
		"line_id", "line_no", "product_id", "product_name",
		"quantity", "unit_price", "amount", "received_quantity",
	}, repo.lineCols)
}

func TestFiltered(t *testing.T) {
	repo := NewSaleRepo(nil)
	customer := id.New()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	sql, args, err := repo.filtered(Filter{
		ListFilter:    domain.ListFilter{Status: "shipped", PartyID: &customer},
		PaymentStatus: "unpaid",
		DateFrom:      &from,
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "FROM doc_sales WHERE deletion_mark = $1 AND status = $2 AND payment_status = $3 AND customer_id = $4 AND date >= $5")
	assert.Equal(t, []any{false, "shipped", "unpaid", customer, from}, args)
}

func TestParseOrderBy(t *testing.T) {
	repo := NewPurchaseRepo(nil)

	got, err := repo.parseOrderBy("")
	require.NoError(t, err)
	assert.Equal(t, "date DESC", got)

	got, err = repo.parseOrderBy("-total")
	require.NoError(t, err)
	assert.Equal(t, "total DESC", got)

	_, err = repo.parseOrderBy("product_name")
	assert.True(t, apperror.IsValidation(err))
}

func TestUpdateQuery_KeepsCreationFields(t *testing.T) {
	repo := NewPurchaseRepo(nil)
	doc := &purchase.Purchase{Status: purchase.StatusOrdered}
	doc.ID = id.New()
	doc.Version = 2

	q, err := repo.updateQuery(doc)
	require.NoError(t, err)
	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.NotContains(t, sql, "created_at =")
	assert.NotContains(t, sql, "created_by =")
	assert.Contains(t, sql, "updated_at = NOW()")
	assert.Contains(t, sql, "version = version + 1")
	assert.Equal(t, 2, args[len(args)-1])
}

func TestLineRows(t *testing.T) {
	repo := NewPurchaseRepo(nil)
	docID := id.New()
	line := purchase.Line{
		LineID:      id.New(),
		LineNo:      1,
		ProductID:   id.New(),
		ProductName: "Printer Paper",
		Quantity:    5,
		UnitPrice:   types.MustMoney("80"),
		Amount:      types.MustMoney("400"),
	}

	columns, rows := repo.lineRows(docID, []purchase.Line{line})

	require.Len(t, rows, 1)
	assert.Equal(t, "doc_id", columns[0])
	assert.Len(t, rows[0], len(columns))
	assert.Equal(t, docID, rows[0][0])
	assert.Equal(t, line.LineID, rows[0][1])
	assert.Equal(t, "Printer Paper", rows[0][4])
}
