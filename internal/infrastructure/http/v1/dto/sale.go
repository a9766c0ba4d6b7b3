package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/types"
	"tradedesk/internal/domain/documents"
	"tradedesk/internal/domain/documents/sale"
)

// SaleRequest creates, quotes or edits a sales order.
// Omitted header fields keep the draft's current value.
type SaleRequest struct {
	CustomerID           string  `json:"customerId"`
	Reference            *string `json:"reference,omitempty"`
	Date                 *Date   `json:"date,omitempty"`
	ExpectedDeliveryDate *Date   `json:"expectedDeliveryDate,omitempty"`
	ActualDeliveryDate   *Date   `json:"actualDeliveryDate,omitempty"`
	Status               string  `json:"status,omitempty"`
	PaymentMethod        *string `json:"paymentMethod,omitempty"`
	PaymentDueDate       *Date   `json:"paymentDueDate,omitempty"`
	Notes                *string `json:"notes,omitempty"`

	LedgerRequest

	// Discount is applied after the lines, so its bound sees the new subtotal.
	Discount *decimal.Decimal `json:"discount,omitempty"`

	// Version is the version the client edited; required on update.
	Version int `json:"version,omitempty"`
}

// ApplyTo copies the request onto a draft and returns every rejected field.
func (r *SaleRequest) ApplyTo(d *sale.Draft) apperror.ValidationErrors {
	var errs apperror.ValidationErrors

	h := &d.Header
	if r.CustomerID != "" {
		customerID, appErr := parseID("customerId", r.CustomerID)
		if appErr != nil {
			errs = append(errs, appErr)
		} else {
			h.CustomerID = customerID
		}
	}
	if r.Reference != nil {
		h.Reference = *r.Reference
	}
	if r.Date != nil && !r.Date.IsZero() {
		h.Date = r.Date.Time
	}
	if r.ExpectedDeliveryDate != nil {
		h.ExpectedDeliveryDate = r.ExpectedDeliveryDate.Ptr()
	}
	if r.ActualDeliveryDate != nil {
		h.ActualDeliveryDate = r.ActualDeliveryDate.Ptr()
	}
	if r.Status != "" {
		h.Status = sale.Status(r.Status)
	}
	if r.PaymentMethod != nil {
		h.PaymentMethod = documents.PaymentMethod(*r.PaymentMethod)
	}
	if r.PaymentDueDate != nil {
		h.PaymentDueDate = r.PaymentDueDate.Ptr()
	}
	if r.Notes != nil {
		h.Notes = *r.Notes
	}

	l := d.Ledger()
	errs = append(errs, r.LedgerRequest.Apply(l)...)
	if r.Discount != nil {
		if err := l.SetDiscount(*r.Discount); err != nil {
			errs = append(errs, fieldError("", err))
		}
	}
	return errs
}

// SaleResponse is a stored sales order.
type SaleResponse struct {
	*sale.Sale
	BalanceDue types.Money `json:"balanceDue"`
	IsOverdue  bool        `json:"isOverdue"`
}

// FromSale converts a sale to its response.
func FromSale(s *sale.Sale) SaleResponse {
	return SaleResponse{Sale: s, BalanceDue: s.BalanceDue(), IsOverdue: s.IsOverdue(time.Now())}
}

// DeliverRequest is the body of POST /documents/sales/:id/deliver.
// The delivery date defaults to today.
type DeliverRequest struct {
	Date *Date `json:"date,omitempty"`
}

// SaleListQuery holds the list filters of sales.
type SaleListQuery struct {
	ListQuery
	Status        string `form:"status"`
	PaymentStatus string `form:"paymentStatus"`
	CustomerID    string `form:"customerId"`
	DateFrom      string `form:"dateFrom"`
	DateTo        string `form:"dateTo"`
}

// Filter converts the query to a sale filter.
func (q SaleListQuery) Filter() (sale.ListFilter, error) {
	f := sale.ListFilter{ListFilter: q.ListQuery.Filter(), PaymentStatus: q.PaymentStatus}
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
	f.DateFrom, f.DateTo = parseRange(q.DateFrom, q.DateTo, &errs)
	return f, errs.Err()
}
