package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tradedesk/internal/core/entity"
	"tradedesk/internal/core/id"
)

type testProduct struct {
	entity.Catalog
	StockQuantity int      `db:"stock_quantity"`
	Lines         []string `db:"-"`
	internal      string
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[testProduct]()

	assert.Equal(t, []string{"id", "deletion_mark", "version", "code", "name", "stock_quantity"}, cols)
}

func TestExtractDBColumns_Pointer(t *testing.T) {
	assert.Equal(t, ExtractDBColumns[testProduct](), ExtractDBColumns[*testProduct]())
}

func TestStructToMap(t *testing.T) {
	p := testProduct{
		Catalog:       entity.NewCatalog("PR-2026-00001", "Printer Paper"),
		StockQuantity: 12,
		Lines:         []string{"ignored"},
		internal:      "ignored",
	}
	p.ID = id.New()

	m := StructToMap(&p)

	assert.Equal(t, p.ID, m["id"])
	assert.Equal(t, false, m["deletion_mark"])
	assert.Equal(t, 1, m["version"])
	assert.Equal(t, "PR-2026-00001", m["code"])
	assert.Equal(t, "Printer Paper", m["name"])
	assert.Equal(t, 12, m["stock_quantity"])
	assert.NotContains(t, m, "lines")
	assert.Len(t, m, 6)

	assert.Nil(t, StructToMap((*testProduct)(nil)))
	assert.Nil(t, StructToMap(42))
}
