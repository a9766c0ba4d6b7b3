// Package invoice provides the invoice issued for a sale: one per sale,
// numbered INV-NNNNN and due a fixed term after issue.
package invoice

import (
	"time"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/entity"
	"tradedesk/internal/core/id"
	"tradedesk/internal/core/types"
)

// Status is the invoice lifecycle state. Overdue is derived, not stored.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// Open reports whether an invoice in this state still awaits payment.
func (s Status) Open() bool {
	return s == StatusDraft || s == StatusSent
}

// Invoice is the bill sent to the customer of a sale. Date is the issue date.
type Invoice struct {
	entity.Document

	SaleID       id.ID  `db:"sale_id" json:"saleId"`
	SaleNumber   string `db:"sale_number" json:"saleNumber"`
	CustomerID   id.ID  `db:"customer_id" json:"customerId"`
	CustomerName string `db:"customer_name" json:"customerName"`

	DueDate time.Time   `db:"due_date" json:"dueDate"`
	Status  Status      `db:"status" json:"status"`
	Total   types.Money `db:"total" json:"total"`
}

// IsOverdue reports an open invoice whose due date has passed.
func (i *Invoice) IsOverdue(now time.Time) bool {
	if !i.Status.Open() || i.DeletionMark {
		return false
	}
	return i.DueDate.Before(now.UTC().Truncate(24 * time.Hour))
}

// transition moves the invoice to next, refusing moves out of a final state.
func (i *Invoice) transition(next Status) error {
	if i.Status == next {
		return nil
	}
	switch {
	case i.DeletionMark:
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "invoice is marked for deletion").
			WithDetail("id", i.ID.String())
	case i.Status == StatusCancelled:
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "cancelled invoice cannot change").
			WithDetail("id", i.ID.String())
	case i.Status == StatusPaid && next != StatusPaid:
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "paid invoice cannot change").
			WithDetail("id", i.ID.String()).
			WithDetail("to", string(next))
	}
	i.Status = next
	return nil
}
