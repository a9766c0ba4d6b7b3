package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/id"
	"tradedesk/internal/core/types"
)

var (
	headphonesID = id.MustParse("0190a3c4-0000-7000-8000-000000000001")
	cableID      = id.MustParse("0190a3c4-0000-7000-8000-000000000002")
	paperID      = id.MustParse("0190a3c4-0000-7000-8000-000000000003")
)

func testCatalog() StaticCatalog {
	return NewStaticCatalog(
		CatalogEntry{ProductID: headphonesID, Name: "Wireless Headphones", Price: types.MustMoney("149.99")},
		CatalogEntry{ProductID: cableID, Name: "USB-C Cable", Price: types.MustMoney("49.99")},
		CatalogEntry{ProductID: paperID, Name: "Printer Paper", Price: types.MustMoney("80.00")},
	)
}

func newLedger(t *testing.T, kind Kind, shipping string) *Ledger {
	t.Helper()
	l, err := New(kind, testCatalog(), Settings{
		TaxRate:     decimal.RequireFromString("0.20"),
		ShippingFee: types.MustMoney(shipping),
	})
	require.NoError(t, err)
	return l
}

func price(s string) decimal.NullDecimal {
	return types.Price(types.MustMoney(s))
}

func assertMoney(t *testing.T, want string, got types.Money) {
	t.Helper()
	assert.True(t, got.Equal(types.MustMoney(want)), "want %s, got %s", want, got)
}

func TestSaleScenario(t *testing.T) {
	l := newLedger(t, KindSale, "0")

	_, err := l.AddItem(headphonesID, 1, price("149.99"))
	require.NoError(t, err)
	_, err = l.AddItem(cableID, 2, price("49.99"))
	require.NoError(t, err)
	require.NoError(t, l.SetShippingFee(types.MustMoney("15")))
	require.NoError(t, l.SetDiscount(types.MustMoney("10")))
	require.NoError(t, l.SetTaxRate(decimal.RequireFromString("0.20")))

	totals := l.ComputeTotals()
	assertMoney(t, "249.97", totals.Subtotal)
	assertMoney(t, "49.99", totals.Tax)
	assertMoney(t, "15", totals.Shipping)
	assertMoney(t, "10", totals.Discount)
	assertMoney(t, "304.96", totals.Total)
	assert.Empty(t, l.Validate())
}

func TestPurchaseScenario(t *testing.T) {
	l := newLedger(t, KindPurchase, "0")

	item, err := l.AddItem(paperID, 5, price("80.00"))
	require.NoError(t, err)
	assertMoney(t, "400", item.LineTotal)
	require.NoError(t, l.SetShippingFee(types.MustMoney("45")))

	totals := l.ComputeTotals()
	assertMoney(t, "400.00", totals.Subtotal)
	assertMoney(t, "80.00", totals.Tax)
	assert.True(t, totals.Discount.IsZero())
	assertMoney(t, "525.00", totals.Total)
}

func TestEmptyLedger(t *testing.T) {
	l := newLedger(t, KindSale, "15")

	errs := l.Validate()
	require.NotEmpty(t, errs)
	assert.True(t, errs.HasField(FieldItems))

	totals := l.ComputeTotals()
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, totals.Tax.IsZero())
	assertMoney(t, "15", totals.Total)
}

func TestValidate_MergesDocumentErrors(t *testing.T) {
	l := newLedger(t, KindPurchase, "0")

	errs := l.Validate(
		apperror.NewFieldValidation("supplierId", "supplier is required"),
		nil,
		apperror.NewFieldValidation("date", "date is required"),
	)

	require.Len(t, errs, 3)
	assert.Equal(t, "supplierId", errs[0].Field())
	assert.Equal(t, "date", errs[1].Field())
	assert.Equal(t, FieldItems, errs[2].Field())
}

func TestComputeTotals_Idempotent(t *testing.T) {
	l := newLedger(t, KindSale, "15")
	for i := 0; i < 7; i++ {
		_, err := l.AddItem(cableID, 3, price("0.33"))
		require.NoError(t, err)
	}

	first := l.ComputeTotals()
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, l.ComputeTotals())
	}
}

func TestSubtotalMatchesLineTotals(t *testing.T) {
	l := newLedger(t, KindSale, "0")

	a, err := l.AddItem(headphonesID, 2, price("149.99"))
	require.NoError(t, err)
	b, err := l.AddItem(cableID, 1, price("49.99"))
	require.NoError(t, err)
	_, err = l.AddItem(paperID, 4, price("0.01"))
	require.NoError(t, err)

	qty := 5
	_, err = l.UpdateItem(a.ID, ItemPatch{Quantity: &qty})
	require.NoError(t, err)
	require.NoError(t, l.RemoveItem(b.ID))

	sum := decimal.Zero
	for _, it := range l.Items() {
		sum = sum.Add(it.LineTotal)
	}
	assert.True(t, l.ComputeTotals().Subtotal.Equal(sum))
	assertMoney(t, "749.99", sum)
}

func TestAddItem_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		productID id.ID
		quantity  int
		unitPrice decimal.NullDecimal
		field     string
	}{
		{"zero quantity", cableID, 0, price("1"), FieldQuantity},
		{"negative quantity", cableID, -2, price("1"), FieldQuantity},
		{"negative price", cableID, 1, price("-0.01"), FieldUnitPrice},
		{"missing price", cableID, 1, decimal.NullDecimal{}, FieldUnitPrice},
		{"sub-cent price", cableID, 1, price("1.005"), FieldUnitPrice},
		{"missing product", id.Nil(), 1, price("1"), FieldProductID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger(t, KindSale, "0")
			existing, err := l.AddItem(headphonesID, 1, price("149.99"))
			require.NoError(t, err)

			_, err = l.AddItem(tt.productID, tt.quantity, tt.unitPrice)
			require.Error(t, err)
			assert.True(t, apperror.IsValidation(err))

			appErr, _ := apperror.AsAppError(err)
			assert.Equal(t, tt.field, appErr.Field())
			assert.Equal(t, []LineItem{existing}, l.Items())
		})
	}
}

func TestAddItem_UnknownProduct(t *testing.T) {
	l := newLedger(t, KindPurchase, "0")

	_, err := l.AddItem(id.New(), 1, price("10"))
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, 0, l.Len())
}

func TestAddItem_ZeroPriceAllowed(t *testing.T) {
	l := newLedger(t, KindSale, "0")

	item, err := l.AddItem(cableID, 3, price("0"))
	require.NoError(t, err)
	assert.True(t, item.LineTotal.IsZero())
}

func TestAddItem_DuplicateProductsAreIndependent(t *testing.T) {
	l := newLedger(t, KindSale, "0")

	a, err := l.AddItem(cableID, 1, price("49.99"))
	require.NoError(t, err)
	b, err := l.AddItem(cableID, 2, price("45.00"))
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	require.Equal(t, 2, l.Len())
	assert.Equal(t, "USB-C Cable", l.Items()[1].ProductName)
	assertMoney(t, "139.99", l.ComputeTotals().Subtotal)
}

func TestAddCatalogItem_UsesCatalogPrice(t *testing.T) {
	l := newLedger(t, KindSale, "0")

	item, err := l.AddCatalogItem(headphonesID, 2)
	require.NoError(t, err)
	assertMoney(t, "149.99", item.UnitPrice)
	assertMoney(t, "299.98", item.LineTotal)

	_, err = l.AddCatalogItem(id.New(), 1)
	assert.True(t, apperror.IsNotFound(err))
}

func TestProductNameIsSnapshot(t *testing.T) {
	cat := testCatalog()
	l, err := New(KindSale, cat, Settings{TaxRate: decimal.Zero})
	require.NoError(t, err)

	_, err = l.AddItem(cableID, 1, price("49.99"))
	require.NoError(t, err)

	cat[cableID] = CatalogEntry{ProductID: cableID, Name: "Renamed Cable", Price: types.MustMoney("1")}
	assert.Equal(t, "USB-C Cable", l.Items()[0].ProductName)
}

func TestRemoveItem_UnknownID(t *testing.T) {
	l := newLedger(t, KindSale, "0")
	a, _ := l.AddItem(headphonesID, 1, price("149.99"))
	b, _ := l.AddItem(cableID, 1, price("49.99"))
	before := l.Items()

	err := l.RemoveItem(id.New())
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, before, l.Items())

	require.NoError(t, l.RemoveItem(a.ID))
	err = l.RemoveItem(a.ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, []LineItem{b}, l.Items())
}

func TestRemoveItem_PreservesOrder(t *testing.T) {
	l := newLedger(t, KindPurchase, "0")
	a, _ := l.AddItem(headphonesID, 1, price("1"))
	b, _ := l.AddItem(cableID, 1, price("2"))
	c, _ := l.AddItem(paperID, 1, price("3"))

	require.NoError(t, l.RemoveItem(b.ID))

	items := l.Items()
	require.Len(t, items, 2)
	assert.Equal(t, a.ID, items[0].ID)
	assert.Equal(t, c.ID, items[1].ID)
}

func TestReorder(t *testing.T) {
	l := newLedger(t, KindPurchase, "0")
	a, _ := l.AddItem(headphonesID, 1, price("1"))
	b, _ := l.AddItem(cableID, 1, price("2"))
	c, _ := l.AddItem(paperID, 1, price("3"))

	require.NoError(t, l.Reorder([]id.ID{c.ID, a.ID}))

	items := l.Items()
	require.Len(t, items, 3)
	assert.Equal(t, []id.ID{c.ID, a.ID, b.ID}, []id.ID{items[0].ID, items[1].ID, items[2].ID})
	assertMoney(t, "6", l.ComputeTotals().Subtotal)
}

func TestReorder_RejectsRepeatedAndUnknownIDs(t *testing.T) {
	l := newLedger(t, KindPurchase, "0")
	a, _ := l.AddItem(headphonesID, 1, price("1"))
	b, _ := l.AddItem(cableID, 1, price("2"))

	err := l.Reorder([]id.ID{b.ID, b.ID})
	assert.True(t, apperror.IsValidation(err))

	err = l.Reorder([]id.ID{b.ID, id.New()})
	assert.True(t, apperror.IsNotFound(err))

	items := l.Items()
	assert.Equal(t, a.ID, items[0].ID)
	assert.Equal(t, b.ID, items[1].ID)
}

func TestIDsAreNotReused(t *testing.T) {
	l := newLedger(t, KindPurchase, "0")
	seen := map[id.ID]bool{}

	for i := 0; i < 20; i++ {
		item, err := l.AddItem(paperID, 1, price("1"))
		require.NoError(t, err)
		assert.False(t, seen[item.ID], "id %s reused", item.ID)
		seen[item.ID] = true
		require.NoError(t, l.RemoveItem(item.ID))
	}
}

func TestUpdateItem(t *testing.T) {
	l := newLedger(t, KindSale, "0")
	item, err := l.AddItem(cableID, 1, price("49.99"))
	require.NoError(t, err)

	qty := 3
	updated, err := l.UpdateItem(item.ID, ItemPatch{Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Quantity)
	assertMoney(t, "149.97", updated.LineTotal)
	assertMoney(t, "149.97", l.ComputeTotals().Subtotal)

	updated, err = l.UpdateItem(item.ID, ItemPatch{UnitPrice: price("10.10")})
	require.NoError(t, err)
	assert.Equal(t, 3, updated.Quantity)
	assertMoney(t, "30.30", updated.LineTotal)
}

func TestUpdateItem_RejectsAllOrNothing(t *testing.T) {
	l := newLedger(t, KindSale, "0")
	item, err := l.AddItem(cableID, 2, price("49.99"))
	require.NoError(t, err)

	qty := 5
	_, err = l.UpdateItem(item.ID, ItemPatch{Quantity: &qty, UnitPrice: price("-1")})
	assert.True(t, apperror.IsValidation(err))

	zero := 0
	_, err = l.UpdateItem(item.ID, ItemPatch{Quantity: &zero})
	assert.True(t, apperror.IsValidation(err))

	got, ok := l.Item(item.ID)
	require.True(t, ok)
	assert.Equal(t, item, got)

	_, err = l.UpdateItem(id.New(), ItemPatch{Quantity: &qty})
	assert.True(t, apperror.IsNotFound(err))
}

func TestSetters_RejectNegative(t *testing.T) {
	l := newLedger(t, KindSale, "15")
	_, err := l.AddItem(headphonesID, 1, price("149.99"))
	require.NoError(t, err)

	assert.True(t, apperror.IsValidation(l.SetShippingFee(types.MustMoney("-1"))))
	assert.True(t, apperror.IsValidation(l.SetDiscount(types.MustMoney("-0.01"))))
	assert.True(t, apperror.IsValidation(l.SetTaxRate(decimal.RequireFromString("-0.2"))))

	assertMoney(t, "15", l.ShippingFee())
	assert.True(t, l.Discount().IsZero())
	assert.True(t, l.TaxRate().Equal(decimal.RequireFromString("0.20")))
}

func TestSetDiscount_Bound(t *testing.T) {
	l := newLedger(t, KindSale, "15")
	item, err := l.AddItem(cableID, 1, price("100"))
	require.NoError(t, err)

	err = l.SetDiscount(types.MustMoney("120.01"))
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, FieldDiscount, appErr.Field())
	assert.Equal(t, "120.00", appErr.Details["limit"])

	require.NoError(t, l.SetDiscount(types.MustMoney("120")))
	assertMoney(t, "15", l.ComputeTotals().Total)

	// Shrinking the order afterwards makes the draft invalid, not the read.
	qty := 1
	_, err = l.UpdateItem(item.ID, ItemPatch{Quantity: &qty, UnitPrice: price("50")})
	require.NoError(t, err)
	assert.True(t, l.Validate().HasField(FieldDiscount))
	assertMoney(t, "-45", l.ComputeTotals().Total)
}

func TestSetDiscount_PurchaseRejected(t *testing.T) {
	l := newLedger(t, KindPurchase, "0")
	_, err := l.AddItem(paperID, 1, price("80"))
	require.NoError(t, err)

	assert.True(t, apperror.IsValidation(l.SetDiscount(types.MustMoney("1"))))
	assert.True(t, l.ComputeTotals().Discount.IsZero())
}

func TestToSubmissionPayload(t *testing.T) {
	l := newLedger(t, KindSale, "15")
	_, err := l.AddItem(headphonesID, 1, price("149.99"))
	require.NoError(t, err)
	b, err := l.AddItem(cableID, 2, price("49.99"))
	require.NoError(t, err)

	payload := l.ToSubmissionPayload()
	require.Len(t, payload.Items, l.Len())
	assert.Equal(t, l.ComputeTotals(), payload.Totals)

	sum := decimal.Zero
	for _, it := range payload.Items {
		sum = sum.Add(it.LineTotal)
	}
	assert.True(t, sum.Equal(payload.Subtotal))

	// Later edits do not leak into the submitted snapshot.
	require.NoError(t, l.RemoveItem(b.ID))
	qty := 9
	_, err = l.UpdateItem(payload.Items[0].ID, ItemPatch{Quantity: &qty})
	require.NoError(t, err)

	assert.Len(t, payload.Items, 2)
	assert.Equal(t, 1, payload.Items[0].Quantity)
	assertMoney(t, "249.97", payload.Subtotal)
}

func TestRestore(t *testing.T) {
	stored := []LineItem{
		{ID: id.New(), ProductID: cableID, ProductName: "Old Cable Name", Quantity: 2, UnitPrice: types.MustMoney("49.99"), LineTotal: types.MustMoney("1")},
	}

	l, err := Restore(KindSale, testCatalog(), State{
		Items:       stored,
		ShippingFee: types.MustMoney("15"),
		Discount:    types.MustMoney("10"),
		TaxRate:     decimal.RequireFromString("0.20"),
	})
	require.NoError(t, err)

	items := l.Items()
	require.Len(t, items, 1)
	assert.Equal(t, stored[0].ID, items[0].ID)
	assert.Equal(t, "Old Cable Name", items[0].ProductName)
	assertMoney(t, "99.98", items[0].LineTotal)
	assertMoney(t, "124.98", l.ComputeTotals().Total)

	_, err = Restore(KindSale, nil, State{Items: []LineItem{stored[0], stored[0]}})
	assert.True(t, apperror.IsValidation(err))
}

func TestNew_RejectsBadSettings(t *testing.T) {
	_, err := New(Kind("invoice"), nil, Settings{})
	assert.True(t, apperror.IsValidation(err))

	_, err = New(KindSale, nil, Settings{ShippingFee: types.MustMoney("-15")})
	assert.True(t, apperror.IsValidation(err))
}
