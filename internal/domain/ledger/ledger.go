// Package ledger implements the line-item ledger of a draft purchase or sale
// and the derivation of its totals.
//
// A Ledger is owned by exactly one draft and is not safe for concurrent use.
// Every mutation either succeeds completely or returns an *apperror.AppError
// and leaves the ledger untouched. Totals are never stored: ComputeTotals
// recomputes them from the line items on every call.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/id"
	"tradedesk/internal/core/types"
)

// Kind distinguishes purchase ledgers from sale ledgers.
type Kind string

const (
	KindPurchase Kind = "purchase"
	KindSale     Kind = "sale"
)

// Valid reports whether k is a known ledger kind.
func (k Kind) Valid() bool {
	return k == KindPurchase || k == KindSale
}

// Field names reported in validation errors.
const (
	FieldProductID   = "productId"
	FieldQuantity    = "quantity"
	FieldUnitPrice   = "unitPrice"
	FieldShippingFee = "shippingFee"
	FieldDiscount    = "discount"
	FieldTaxRate     = "taxRate"
	FieldItems       = "items"
)

// LineItem is one product/quantity/price entry.
// LineTotal is derived and always equals round2(Quantity × UnitPrice).
type LineItem struct {
	ID          id.ID       `json:"id"`
	ProductID   id.ID       `json:"productId"`
	ProductName string      `json:"productName"`
	Quantity    int         `json:"quantity"`
	UnitPrice   types.Money `json:"unitPrice"`
	LineTotal   types.Money `json:"lineTotal"`
}

// ItemPatch is a partial update for UpdateItem. Nil / invalid fields are left as is.
type ItemPatch struct {
	Quantity  *int
	UnitPrice decimal.NullDecimal
}

// Settings are the document-level defaults a new ledger starts with.
type Settings struct {
	TaxRate     decimal.Decimal
	ShippingFee types.Money
}

// Ledger is the mutable line-item collection of one draft document.
type Ledger struct {
	kind        Kind
	catalog     Catalog
	items       []LineItem
	shippingFee types.Money
	discount    types.Money
	taxRate     decimal.Decimal
}

// New creates an empty ledger.
func New(kind Kind, catalog Catalog, settings Settings) (*Ledger, error) {
	if !kind.Valid() {
		return nil, apperror.NewValidation(fmt.Sprintf("unknown ledger kind %q", kind))
	}
	if catalog == nil {
		catalog = StaticCatalog{}
	}
	if err := checkRate(settings.TaxRate); err != nil {
		return nil, err
	}
	if err := checkAmount(FieldShippingFee, settings.ShippingFee); err != nil {
		return nil, err
	}

	return &Ledger{
		kind:        kind,
		catalog:     catalog,
		shippingFee: settings.ShippingFee,
		discount:    decimal.Zero,
		taxRate:     settings.TaxRate,
	}, nil
}

// State is a persisted ledger used to reopen a stored document for editing.
type State struct {
	Items       []LineItem
	ShippingFee types.Money
	Discount    types.Money
	TaxRate     decimal.Decimal
}

// Restore rebuilds a ledger from persisted state. Item ids and product names are
// kept as stored; line totals are recomputed.
func Restore(kind Kind, catalog Catalog, state State) (*Ledger, error) {
	l, err := New(kind, catalog, Settings{TaxRate: state.TaxRate, ShippingFee: state.ShippingFee})
	if err != nil {
		return nil, err
	}

	seen := make(map[id.ID]struct{}, len(state.Items))
	for i, it := range state.Items {
		if id.IsNil(it.ID) {
			return nil, apperror.NewFieldValidation(FieldItems, fmt.Sprintf("line %d has no id", i+1))
		}
		if _, dup := seen[it.ID]; dup {
			return nil, apperror.NewFieldValidation(FieldItems, fmt.Sprintf("line %d repeats id %s", i+1, it.ID))
		}
		seen[it.ID] = struct{}{}

		if err := checkQuantity(it.Quantity); err != nil {
			return nil, err
		}
		if err := checkAmount(FieldUnitPrice, it.UnitPrice); err != nil {
			return nil, err
		}
		it.LineTotal = lineTotal(it.Quantity, it.UnitPrice)
		l.items = append(l.items, it)
	}

	if !state.Discount.IsZero() {
		if err := l.SetDiscount(state.Discount); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Kind returns the ledger kind.
func (l *Ledger) Kind() Kind { return l.kind }

// ShippingFee returns the current shipping fee.
func (l *Ledger) ShippingFee() types.Money { return l.shippingFee }

// Discount returns the current discount (always zero for purchases).
func (l *Ledger) Discount() types.Money { return l.discount }

// TaxRate returns the current tax rate.
func (l *Ledger) TaxRate() decimal.Decimal { return l.taxRate }

// Len returns the number of line items.
func (l *Ledger) Len() int { return len(l.items) }

// Items returns a copy of the line items in insertion order.
func (l *Ledger) Items() []LineItem {
	out := make([]LineItem, len(l.items))
	copy(out, l.items)
	return out
}

// Item returns the line item with the given id.
func (l *Ledger) Item(itemID id.ID) (LineItem, bool) {
	if i := l.indexOf(itemID); i >= 0 {
		return l.items[i], true
	}
	return LineItem{}, false
}

// AddItem appends a new line for productID. The product name is snapshotted
// from the catalog; duplicate products produce independent lines.
func (l *Ledger) AddItem(productID id.ID, quantity int, unitPrice decimal.NullDecimal) (LineItem, error) {
	if id.IsNil(productID) {
		return LineItem{}, apperror.NewFieldValidation(FieldProductID, "product is required")
	}
	if err := checkQuantity(quantity); err != nil {
		return LineItem{}, err
	}
	if !unitPrice.Valid {
		return LineItem{}, apperror.NewFieldValidation(FieldUnitPrice, "unit price is required")
	}
	if err := checkAmount(FieldUnitPrice, unitPrice.Decimal); err != nil {
		return LineItem{}, err
	}

	entry, ok := l.catalog.Lookup(productID)
	if !ok {
		return LineItem{}, apperror.NewNotFound("product", productID).WithDetail("field", FieldProductID)
	}

	item := LineItem{
		ID:          id.New(),
		ProductID:   productID,
		ProductName: entry.Name,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Decimal,
		LineTotal:   lineTotal(quantity, unitPrice.Decimal),
	}
	l.items = append(l.items, item)
	return item, nil
}

// AddCatalogItem adds a line priced at the catalog's suggested price.
func (l *Ledger) AddCatalogItem(productID id.ID, quantity int) (LineItem, error) {
	entry, ok := l.catalog.Lookup(productID)
	if !ok {
		if id.IsNil(productID) {
			return LineItem{}, apperror.NewFieldValidation(FieldProductID, "product is required")
		}
		return LineItem{}, apperror.NewNotFound("product", productID).WithDetail("field", FieldProductID)
	}
	return l.AddItem(productID, quantity, types.Price(entry.Price))
}

// RemoveItem deletes the line with itemID. Unknown ids return NotFound and
// leave the ledger unchanged.
func (l *Ledger) RemoveItem(itemID id.ID) error {
	i := l.indexOf(itemID)
	if i < 0 {
		return apperror.NewNotFound("line item", itemID)
	}
	l.items = append(l.items[:i], l.items[i+1:]...)
	return nil
}

// UpdateItem applies a partial patch and recomputes the line total.
func (l *Ledger) UpdateItem(itemID id.ID, patch ItemPatch) (LineItem, error) {
	i := l.indexOf(itemID)
	if i < 0 {
		return LineItem{}, apperror.NewNotFound("line item", itemID)
	}

	item := l.items[i]
	if patch.Quantity != nil {
		if err := checkQuantity(*patch.Quantity); err != nil {
			return LineItem{}, err
		}
		item.Quantity = *patch.Quantity
	}
	if patch.UnitPrice.Valid {
		if err := checkAmount(FieldUnitPrice, patch.UnitPrice.Decimal); err != nil {
			return LineItem{}, err
		}
		item.UnitPrice = patch.UnitPrice.Decimal
	}
	item.LineTotal = lineTotal(item.Quantity, item.UnitPrice)

	l.items[i] = item
	return item, nil
}

// Reorder moves the listed lines to the front in the order given. Lines not
// listed keep their relative order after them. A repeated or unknown id fails
// without changing the ledger.
func (l *Ledger) Reorder(itemIDs []id.ID) error {
	front := make([]LineItem, 0, len(l.items))
	listed := make(map[id.ID]struct{}, len(itemIDs))
	for _, itemID := range itemIDs {
		if _, dup := listed[itemID]; dup {
			return apperror.NewFieldValidation(FieldItems, fmt.Sprintf("line %s is listed twice", itemID))
		}
		i := l.indexOf(itemID)
		if i < 0 {
			return apperror.NewNotFound("line item", itemID)
		}
		listed[itemID] = struct{}{}
		front = append(front, l.items[i])
	}
	for _, it := range l.items {
		if _, ok := listed[it.ID]; !ok {
			front = append(front, it)
		}
	}
	l.items = front
	return nil
}

// SetShippingFee sets the document-level shipping fee.
func (l *Ledger) SetShippingFee(amount types.Money) error {
	if err := checkAmount(FieldShippingFee, amount); err != nil {
		return err
	}
	l.shippingFee = amount
	return nil
}

// SetDiscount sets the sale discount. The discount may not exceed subtotal plus tax.
func (l *Ledger) SetDiscount(amount types.Money) error {
	if l.kind != KindSale {
		return apperror.NewFieldValidation(FieldDiscount, "discount applies to sales only")
	}
	if err := checkAmount(FieldDiscount, amount); err != nil {
		return err
	}
	t := computeTotals(l.kind, l.items, l.shippingFee, decimal.Zero, l.taxRate)
	if limit := t.Subtotal.Add(t.Tax); amount.GreaterThan(limit) {
		return discountExceeded(limit)
	}
	l.discount = amount
	return nil
}

// SetTaxRate sets the rate applied to the subtotal.
func (l *Ledger) SetTaxRate(rate decimal.Decimal) error {
	if err := checkRate(rate); err != nil {
		return err
	}
	l.taxRate = rate
	return nil
}

// ComputeTotals derives totals from the current line items. It never fails.
func (l *Ledger) ComputeTotals() Totals {
	return computeTotals(l.kind, l.items, l.shippingFee, l.discount, l.taxRate)
}

// ToSubmissionPayload returns a detached snapshot of the items and totals.
func (l *Ledger) ToSubmissionPayload() Payload {
	return Payload{
		Items:  l.Items(),
		Totals: l.ComputeTotals(),
	}
}

// Validate returns the document-level errors supplied by the caller followed by
// the ledger's own violations. An empty result means the draft may be submitted.
func (l *Ledger) Validate(docErrs ...*apperror.AppError) apperror.ValidationErrors {
	errs := make(apperror.ValidationErrors, 0, len(docErrs)+2)
	for _, e := range docErrs {
		if e != nil {
			errs = append(errs, e)
		}
	}

	if len(l.items) == 0 {
		errs = append(errs, apperror.NewFieldValidation(FieldItems, "at least one line item is required"))
	}
	if l.kind == KindSale && l.discount.IsPositive() {
		t := l.ComputeTotals()
		if limit := t.Subtotal.Add(t.Tax); l.discount.GreaterThan(limit) {
			errs = append(errs, discountExceeded(limit))
		}
	}
	return errs
}

func (l *Ledger) indexOf(itemID id.ID) int {
	for i := range l.items {
		if l.items[i].ID == itemID {
			return i
		}
	}
	return -1
}

func checkQuantity(q int) error {
	if q < 1 {
		return apperror.NewFieldValidation(FieldQuantity, "quantity must be at least 1").
			WithDetail("value", q)
	}
	return nil
}

func checkAmount(field string, m types.Money) error {
	if m.IsNegative() {
		return apperror.NewFieldValidation(field, field+" must not be negative").
			WithDetail("value", m.String())
	}
	if !types.HasMoneyPrecision(m) {
		return apperror.NewFieldValidation(field, field+" must have at most 2 decimal places").
			WithDetail("value", m.String())
	}
	return nil
}

func checkRate(rate decimal.Decimal) error {
	if rate.IsNegative() {
		return apperror.NewFieldValidation(FieldTaxRate, "tax rate must not be negative").
			WithDetail("value", rate.String())
	}
	return nil
}

func discountExceeded(limit types.Money) *apperror.AppError {
	return apperror.NewFieldValidation(FieldDiscount, "discount exceeds subtotal plus tax").
		WithDetail("limit", limit.StringFixed(types.MoneyScale))
}
