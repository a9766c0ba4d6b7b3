// Package sale provides the sales order document: goods sold to a customer,
// priced on a ledger with an optional discount and issued from stock.
package sale

import (
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

// Status is the sale lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// IssuesStock reports whether goods have left (or are committed to leave) the warehouse.
func (s Status) IssuesStock() bool {
	return s == StatusConfirmed || s == StatusShipped || s == StatusDelivered
}

// Sale is a stored sales order.
type Sale struct {
	entity.Document

	CustomerID   id.ID  `db:"customer_id" json:"customerId"`
	CustomerName string `db:"customer_name" json:"customerName"`

	ExpectedDeliveryDate *time.Time `db:"expected_delivery_date" json:"expectedDeliveryDate,omitempty"`
	ActualDeliveryDate   *time.Time `db:"actual_delivery_date" json:"actualDeliveryDate,omitempty"`

	Status Status `db:"status" json:"status"`

	// PaymentStatus follows PaidAmount against Total
	PaymentStatus  documents.PaymentStatus `db:"payment_status" json:"paymentStatus"`
	PaidAmount     types.Money             `db:"paid_amount" json:"paidAmount"`
	PaymentMethod  documents.PaymentMethod `db:"payment_method" json:"paymentMethod,omitempty"`
	PaymentDueDate *time.Time              `db:"payment_due_date" json:"paymentDueDate,omitempty"`

	TaxRate     decimal.Decimal `db:"tax_rate" json:"taxRate"`
	Subtotal    types.Money     `db:"subtotal" json:"subtotal"`
	Tax         types.Money     `db:"tax" json:"tax"`
	ShippingFee types.Money     `db:"shipping_fee" json:"shippingFee"`
	Discount    types.Money     `db:"discount" json:"discount"`
	Total       types.Money     `db:"total" json:"total"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is a stored sale line.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID   id.ID       `db:"product_id" json:"productId"`
	ProductName string      `db:"product_name" json:"productName"`
	Quantity    int         `db:"quantity" json:"quantity"`
	UnitPrice   types.Money `db:"unit_price" json:"unitPrice"`
	Amount      types.Money `db:"amount" json:"amount"`
}

// CanModify returns an error for documents that may no longer be edited.
func (s *Sale) CanModify() error {
	if s.DeletionMark {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "sale is marked for deletion").
			WithDetail("id", s.ID.String())
	}
	if s.Status == StatusCancelled {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "cancelled sale cannot be modified").
			WithDetail("id", s.ID.String())
	}
	return nil
}

// BalanceDue is what the customer still owes.
func (s *Sale) BalanceDue() types.Money {
	return documents.BalanceDue(s.Total, s.PaidAmount)
}

// deliver marks the sale delivered on date, today when nil.
func (s *Sale) deliver(date *time.Time) error {
	if err := s.CanModify(); err != nil {
		return err
	}
	if s.Status == StatusDelivered {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "sale has already been delivered").
			WithDetail("id", s.ID.String())
	}
	day := documents.Today()
	if date != nil {
		day = *date
	}
	if e := documents.ValidateDates("actualDeliveryDate", s.Date, &day); e != nil {
		return apperror.ValidationErrors{e}.Err()
	}
	s.Status = StatusDelivered
	s.ActualDeliveryDate = &day
	return nil
}

// IsOverdue reports an unpaid balance past its due date.
func (s *Sale) IsOverdue(now time.Time) bool {
	if s.PaymentDueDate == nil || s.PaymentStatus == documents.PaymentPaid {
		return false
	}
	return s.PaymentDueDate.Before(now.UTC().Truncate(24 * time.Hour))
}

// LedgerState returns the stored lines and adjustments for reopening.
func (s *Sale) LedgerState() ledger.State {
	items := make([]ledger.LineItem, 0, len(s.Lines))
	for _, l := range s.Lines {
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
		ShippingFee: s.ShippingFee,
		Discount:    s.Discount,
		TaxRate:     s.TaxRate,
	}
}

// Movements returns the stock the document takes out of the register.
func (s *Sale) Movements() []stock.Movement {
	if !s.Status.IssuesStock() || s.DeletionMark {
		return nil
	}
	rec := stock.Recorder{ID: s.ID, Kind: ledger.KindSale, Version: s.Version, Date: s.Date}
	return stock.FromLines(rec, stock.RecordTypeExpense, s.LedgerState().Items)
}

func linesFromPayload(items []ledger.LineItem) []Line {
	lines := make([]Line, 0, len(items))
	for i, it := range items {
		lines = append(lines, Line{
			LineID:      it.ID,
			LineNo:      i + 1,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      it.LineTotal,
		})
	}
	return lines
}
