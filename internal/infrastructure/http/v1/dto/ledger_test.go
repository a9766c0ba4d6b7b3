package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/internal/core/id"
	"tradedesk/internal/domain/ledger"
)

func newSaleLedger(t *testing.T, entries ...ledger.CatalogEntry) *ledger.Ledger {
	t.Helper()
	l, err := ledger.New(ledger.KindSale, ledger.NewStaticCatalog(entries...), ledger.Settings{
		TaxRate: decimal.RequireFromString("0.20"),
	})
	require.NoError(t, err)
	return l
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestLedgerRequest_ApplyAddsLines(t *testing.T) {
	a := ledger.CatalogEntry{ProductID: id.New(), Name: "A", Price: decimal.RequireFromString("149.99")}
	b := ledger.CatalogEntry{ProductID: id.New(), Name: "B", Price: decimal.RequireFromString("1.00")}
	l := newSaleLedger(t, a, b)

	req := LedgerRequest{
		Lines: []LineRequest{
			{ProductID: a.ProductID.String(), Quantity: 1},
			{ProductID: b.ProductID.String(), Quantity: 2, UnitPrice: price("49.99")},
		},
		ShippingFee: price("15"),
	}

	errs := req.Apply(l)

	require.Empty(t, errs)
	totals := l.ComputeTotals()
	assert.Equal(t, "249.97", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "49.99", totals.Tax.StringFixed(2))
	assert.Equal(t, "149.99", l.Items()[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "49.99", l.Items()[1].UnitPrice.StringFixed(2))
}

func TestLedgerRequest_ApplySyncsStoredLines(t *testing.T) {
	a := ledger.CatalogEntry{ProductID: id.New(), Name: "A", Price: decimal.RequireFromString("10")}
	b := ledger.CatalogEntry{ProductID: id.New(), Name: "B", Price: decimal.RequireFromString("20")}
	l := newSaleLedger(t, a, b)
	kept, err := l.AddCatalogItem(a.ProductID, 1)
	require.NoError(t, err)
	_, err = l.AddCatalogItem(b.ProductID, 1)
	require.NoError(t, err)

	req := LedgerRequest{Lines: []LineRequest{
		{ID: kept.ID.String(), ProductID: a.ProductID.String(), Quantity: 4},
		{ProductID: b.ProductID.String(), Quantity: 1, UnitPrice: price("18.50")},
	}}

	require.Empty(t, req.Apply(l))

	items := l.Items()
	require.Len(t, items, 2)
	assert.Equal(t, kept.ID, items[0].ID)
	assert.Equal(t, 4, items[0].Quantity)
	assert.Equal(t, "18.50", items[1].UnitPrice.StringFixed(2))
}

func TestLedgerRequest_ApplyFollowsRequestOrder(t *testing.T) {
	a := ledger.CatalogEntry{ProductID: id.New(), Name: "A", Price: decimal.RequireFromString("10")}
	b := ledger.CatalogEntry{ProductID: id.New(), Name: "B", Price: decimal.RequireFromString("20")}
	l := newSaleLedger(t, a, b)
	storedB, err := l.AddCatalogItem(b.ProductID, 1)
	require.NoError(t, err)

	req := LedgerRequest{Lines: []LineRequest{
		{ProductID: a.ProductID.String(), Quantity: 1},
		{ID: storedB.ID.String(), ProductID: b.ProductID.String(), Quantity: 3},
	}}

	require.Empty(t, req.Apply(l))

	items := l.Items()
	require.Len(t, items, 2)
	assert.Equal(t, a.ProductID, items[0].ProductID)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, storedB.ID, items[1].ID)
	assert.Equal(t, 3, items[1].Quantity)
}

func TestLedgerRequest_ApplyRejectsRepeatedLineID(t *testing.T) {
	a := ledger.CatalogEntry{ProductID: id.New(), Name: "A", Price: decimal.RequireFromString("10")}
	l := newSaleLedger(t, a)
	stored, err := l.AddCatalogItem(a.ProductID, 1)
	require.NoError(t, err)

	req := LedgerRequest{Lines: []LineRequest{
		{ID: stored.ID.String(), ProductID: a.ProductID.String(), Quantity: 3},
		{ID: stored.ID.String(), ProductID: a.ProductID.String(), Quantity: 5},
	}}

	errs := req.Apply(l)

	require.Len(t, errs, 1)
	assert.True(t, errs.HasField("lines[1].id"))
	assert.Equal(t, 0, errs[0].Details["firstIndex"])
	require.Len(t, l.Items(), 1)
	assert.Equal(t, 3, l.Items()[0].Quantity)
}

func TestLedgerRequest_ApplyReportsIndexedFields(t *testing.T) {
	a := ledger.CatalogEntry{ProductID: id.New(), Name: "A", Price: decimal.RequireFromString("10")}
	b := ledger.CatalogEntry{ProductID: id.New(), Name: "B", Price: decimal.RequireFromString("20")}
	l := newSaleLedger(t, a, b)
	stored, err := l.AddCatalogItem(a.ProductID, 1)
	require.NoError(t, err)

	req := LedgerRequest{
		TaxRate: price("-0.1"),
		Lines: []LineRequest{
			{ID: stored.ID.String(), ProductID: b.ProductID.String(), Quantity: 1},
			{ProductID: "not-an-id", Quantity: 1},
			{ProductID: id.New().String(), Quantity: 1},
			{ProductID: a.ProductID.String(), Quantity: 1, UnitPrice: price("1.005")},
			{ID: id.New().String(), ProductID: a.ProductID.String(), Quantity: 1},
		},
	}

	errs := req.Apply(l)

	assert.True(t, errs.HasField(ledger.FieldTaxRate))
	assert.True(t, errs.HasField("lines[0].productId"))
	assert.True(t, errs.HasField("lines[1].productId"))
	assert.True(t, errs.HasField("lines[2].productId"))
	assert.True(t, errs.HasField("lines[3].unitPrice"))
	assert.True(t, errs.HasField("lines[4].id"))
	assert.Equal(t, "0.2", l.TaxRate().String())

	require.Len(t, l.Items(), 1)
	assert.Equal(t, a.ProductID, l.Items()[0].ProductID)
}

func TestNewQuoteResponse(t *testing.T) {
	a := ledger.CatalogEntry{ProductID: id.New(), Name: "A", Price: decimal.RequireFromString("80")}
	l := newSaleLedger(t, a)
	_, err := l.AddCatalogItem(a.ProductID, 5)
	require.NoError(t, err)

	q := NewQuoteResponse(l, l.Validate())

	assert.True(t, q.Valid)
	assert.Empty(t, q.Errors)
	assert.Equal(t, "400.00", q.Totals.Subtotal)
	assert.Equal(t, "480.00", q.Totals.Total)
	require.Len(t, q.Items, 1)
	assert.Equal(t, "A", q.Items[0].ProductName)
	assert.Equal(t, "400.00", q.Items[0].LineTotal)
}

func TestDate_UnmarshalJSON(t *testing.T) {
	var body struct {
		Day     *Date `json:"day"`
		Stamp   *Date `json:"stamp"`
		Cleared *Date `json:"cleared"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"day":"2026-03-01","stamp":"2026-03-01T17:45:00+02:00","cleared":null}`), &body))

	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NotNil(t, body.Day)
	assert.True(t, want.Equal(body.Day.Time))
	assert.True(t, want.Equal(body.Stamp.Time))
	assert.Nil(t, body.Cleared.Ptr())

	var bad struct {
		Day Date `json:"day"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"day":"01/03/2026"}`), &bad))

	out, err := json.Marshal(Date{Time: want})
	require.NoError(t, err)
	assert.Equal(t, `"2026-03-01"`, string(out))
}
