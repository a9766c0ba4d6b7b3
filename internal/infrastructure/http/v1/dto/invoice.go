package dto

import (
	"time"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/domain/documents/invoice"
)

// InvoiceResponse is a stored invoice.
type InvoiceResponse struct {
	*invoice.Invoice
	IsOverdue bool `json:"isOverdue"`
}

// FromInvoice converts an invoice to its response.
func FromInvoice(inv *invoice.Invoice) InvoiceResponse {
	return InvoiceResponse{Invoice: inv, IsOverdue: inv.IsOverdue(time.Now())}
}

// InvoiceListQuery holds the list filters of invoices.
type InvoiceListQuery struct {
	ListQuery
	Status     string `form:"status"`
	CustomerID string `form:"customerId"`
	Overdue    bool   `form:"overdue"`
}

// Filter converts the query to an invoice filter. overdue=true keeps the
// open invoices whose due date has passed.
func (q InvoiceListQuery) Filter(now time.Time) (invoice.ListFilter, error) {
	f := invoice.ListFilter{ListFilter: q.ListQuery.Filter()}
	f.Status = q.Status

	var errs apperror.ValidationErrors
	if q.CustomerID != "" {
		customerID, appErr := parseID("customerId", q.CustomerID)
		if appErr != nil {
			errs = append(errs, appErr)
		} else {
			f.PartyID = &customerID
		}
	}
	if q.Overdue {
		day := now.UTC().Truncate(24 * time.Hour)
		f.OverdueOn = &day
	}
	return f, errs.Err()
}
