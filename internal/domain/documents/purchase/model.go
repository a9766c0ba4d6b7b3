// Package purchase provides the purchase order document: goods ordered from a
// supplier, priced on a ledger and received into stock.
package purchase

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/entity"
	"tradedesk/internal/core/id"
	"tradedesk/internal/core/types"
	"tradedesk/internal/domain/documents"
	"tradedesk/internal/domain/ledger"
	"tradedesk/internal/domain/registers/stock"
)

// Status is the purchase lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusOrdered   Status = "ordered"
	StatusReceived  Status = "received"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusOrdered, StatusReceived, StatusCancelled:
		return true
	}
	return false
}

// Purchase is a stored purchase order.
type Purchase struct {
	entity.Document

	SupplierID   id.ID  `db:"supplier_id" json:"supplierId"`
	SupplierName string `db:"supplier_name" json:"supplierName"`

	ExpectedDeliveryDate *time.Time `db:"expected_delivery_date" json:"expectedDeliveryDate,omitempty"`
	ActualDeliveryDate   *time.Time `db:"actual_delivery_date" json:"actualDeliveryDate,omitempty"`

	Status Status `db:"status" json:"status"`

	// PaymentStatus follows PaidAmount against Total
	PaymentStatus  documents.PaymentStatus `db:"payment_status" json:"paymentStatus"`
	PaidAmount     types.Money             `db:"paid_amount" json:"paidAmount"`
	PaymentDueDate *time.Time              `db:"payment_due_date" json:"paymentDueDate,omitempty"`

	// Totals snapshot taken from the ledger at submission
	TaxRate     decimal.Decimal `db:"tax_rate" json:"taxRate"`
	Subtotal    types.Money     `db:"subtotal" json:"subtotal"`
	Tax         types.Money     `db:"tax" json:"tax"`
	ShippingFee types.Money     `db:"shipping_fee" json:"shippingFee"`
	Total       types.Money     `db:"total" json:"total"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is a stored purchase line.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID   id.ID       `db:"product_id" json:"productId"`
	ProductName string      `db:"product_name" json:"productName"`
	Quantity    int         `db:"quantity" json:"quantity"`
	UnitPrice   types.Money `db:"unit_price" json:"unitPrice"`
	Amount      types.Money `db:"amount" json:"amount"`

	ReceivedQuantity int `db:"received_quantity" json:"receivedQuantity"`
}

// CanModify returns an error for documents that may no longer be edited.
func (p *Purchase) CanModify() error {
	if p.DeletionMark {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "purchase is marked for deletion").
			WithDetail("id", p.ID.String())
	}
	if p.Status == StatusCancelled {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "cancelled purchase cannot be modified").
			WithDetail("id", p.ID.String())
	}
	return nil
}

// BalanceDue is what is still owed to the supplier.
func (p *Purchase) BalanceDue() types.Money {
	return documents.BalanceDue(p.Total, p.PaidAmount)
}

// IsOverdue reports an unpaid balance past its due date.
func (p *Purchase) IsOverdue(now time.Time) bool {
	if p.PaymentDueDate == nil || p.PaymentStatus == documents.PaymentPaid {
		return false
	}
	return p.PaymentDueDate.Before(now.UTC().Truncate(24 * time.Hour))
}

// LedgerState returns the stored lines and adjustments for reopening.
func (p *Purchase) LedgerState() ledger.State {
	items := make([]ledger.LineItem, 0, len(p.Lines))
	for _, l := range p.Lines {
		items = append(items, ledger.LineItem{
			ID:          l.LineID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.Amount,
		})
	}
	return ledger.State{
		Items:       items,
		ShippingFee: p.ShippingFee,
		TaxRate:     p.TaxRate,
	}
}

// Movements returns the stock the document puts into the register.
// Only received purchases bring goods in, each line by its received quantity.
func (p *Purchase) Movements() []stock.Movement {
	if p.Status != StatusReceived || p.DeletionMark {
		return nil
	}
	received := make([]ledger.LineItem, 0, len(p.Lines))
	for _, l := range p.Lines {
		if l.ReceivedQuantity <= 0 {
			continue
		}
		received = append(received, ledger.LineItem{ID: l.LineID, ProductID: l.ProductID, Quantity: l.ReceivedQuantity})
	}
	date := p.Date
	if p.ActualDeliveryDate != nil {
		date = *p.ActualDeliveryDate
	}
	rec := stock.Recorder{ID: p.ID, Kind: ledger.KindPurchase, Version: p.Version, Date: date}
	return stock.FromLines(rec, stock.RecordTypeReceipt, received)
}

// ReceiveInput records the arrival of a purchase.
type ReceiveInput struct {
	// Date defaults to today
	Date *time.Time

	// Quantities maps line id to the quantity that arrived. Lines left out
	// arrived with nothing. An empty map receives every line in full.
	Quantities map[id.ID]int
}

// receive marks the purchase received. The purchase is changed only when
// the input is valid.
func (p *Purchase) receive(in ReceiveInput) error {
	if err := p.CanModify(); err != nil {
		return err
	}
	if p.Status == StatusReceived {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "purchase has already been received").
			WithDetail("id", p.ID.String())
	}

	var errs apperror.ValidationErrors
	ordered := make(map[id.ID]int, len(p.Lines))
	for _, l := range p.Lines {
		ordered[l.LineID] = l.Quantity
	}
	for lineID, qty := range in.Quantities {
		field := "receivedQuantities." + lineID.String()
		limit, ok := ordered[lineID]
		switch {
		case !ok:
			errs = append(errs, apperror.NewFieldValidation(field, "line is not on this purchase"))
		case qty < 0 || qty > limit:
			errs = append(errs, apperror.NewFieldValidation(field, fmt.Sprintf("received quantity must be between 0 and %d", limit)).
				WithDetail("value", qty))
		}
	}
	date := documents.Today()
	if in.Date != nil {
		date = *in.Date
	}
	if e := documents.ValidateDates("actualDeliveryDate", p.Date, &date); e != nil {
		errs = append(errs, e)
	}
	if err := errs.Err(); err != nil {
		return err
	}

	for i := range p.Lines {
		if len(in.Quantities) == 0 {
			p.Lines[i].ReceivedQuantity = p.Lines[i].Quantity
		} else {
			p.Lines[i].ReceivedQuantity = in.Quantities[p.Lines[i].LineID]
		}
	}
	p.Status = StatusReceived
	p.ActualDeliveryDate = &date
	return nil
}

// linesFromPayload numbers the ledger lines for storage. Lines of a purchase
// that is not received have nothing received. One that was already received
// keeps each line's received quantity, capped at the new order quantity, and
// lines added after receipt count as received in full. A purchase first
// saved as received is received in full.
func linesFromPayload(items []ledger.LineItem, previous []Line, status Status, wasReceived bool) []Line {
	received := make(map[id.ID]int, len(previous))
	for _, l := range previous {
		received[l.LineID] = l.ReceivedQuantity
	}

	lines := make([]Line, 0, len(items))
	for i, it := range items {
		got := 0
		if status == StatusReceived {
			got = it.Quantity
			if prev, ok := received[it.ID]; ok && wasReceived {
				got = min(prev, it.Quantity)
			}
		}
		lines = append(lines, Line{
			LineID:           it.ID,
			LineNo:           i + 1,
			ProductID:        it.ProductID,
			ProductName:      it.ProductName,
			Quantity:         it.Quantity,
			UnitPrice:        it.UnitPrice,
			Amount:           it.LineTotal,
			ReceivedQuantity: got,
		})
	}
	return lines
}
