package register_repo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/internal/core/id"
	"tradedesk/internal/domain/ledger"
	"tradedesk/internal/domain/registers/stock"
)

func TestMovementRows_FollowColumns(t *testing.T) {
	m := stock.Movement{
		ID:              id.New(),
		RecorderID:      id.New(),
		RecorderType:    ledger.KindSale,
		RecorderVersion: 3,
		LineID:          id.New(),
		Period:          time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC),
		RecordType:      stock.RecordTypeExpense,
		ProductID:       id.New(),
		Quantity:        2,
	}

	rows := movementRows([]stock.Movement{m})
	require.Len(t, rows, 1)
	require.Len(t, rows[0], len(movementColumns))

	for i, col := range movementColumns {
		switch col {
		case "recorder_version":
			assert.Equal(t, 3, rows[0][i])
		case "record_type":
			assert.Equal(t, stock.RecordTypeExpense, rows[0][i])
		case "quantity":
			assert.Equal(t, 2, rows[0][i])
		case "product_id":
			assert.Equal(t, m.ProductID, rows[0][i])
		}
	}
}

func TestHistoryQuery(t *testing.T) {
	repo := NewStockRepo(nil)
	receipt := stock.RecordTypeReceipt
	productID := id.New()

	sql, args, err := repo.historyQuery(productID, stock.MovementFilter{RecordType: &receipt, Limit: 20}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE product_id = $1 AND record_type = $2")
	assert.Contains(t, sql, "ORDER BY period DESC, created_at DESC LIMIT 20")
	assert.Equal(t, []any{productID, receipt}, args)
}
