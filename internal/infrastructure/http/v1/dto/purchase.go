package dto

import (
	"time"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/id"
	"tradedesk/internal/core/types"
	"tradedesk/internal/domain/documents/purchase"
)

// PurchaseRequest creates, quotes or edits a purchase order.
// Omitted header fields keep the draft's current value.
type PurchaseRequest struct {
	SupplierID           string  `json:"supplierId"`
	Reference            *string `json:"reference,omitempty"`
	Date                 *Date   `json:"date,omitempty"`
	ExpectedDeliveryDate *Date   `json:"expectedDeliveryDate,omitempty"`
	ActualDeliveryDate   *Date   `json:"actualDeliveryDate,omitempty"`
	Status               string  `json:"status,omitempty"`
	PaymentDueDate       *Date   `json:"paymentDueDate,omitempty"`
	Notes                *string `json:"notes,omitempty"`

	LedgerRequest

	// Version is the version the client edited; required on update.
	Version int `json:"version,omitempty"`
}

// ApplyTo copies the request onto a draft and returns every rejected field.
func (r *PurchaseRequest) ApplyTo(d *purchase.Draft) apperror.ValidationErrors {
	var errs apperror.ValidationErrors

	h := &d.Header
	if r.SupplierID != "" {
		supplierID, appErr := parseID("supplierId", r.SupplierID)
		if appErr != nil {
			errs = append(errs, appErr)
		} else {
			h.SupplierID = supplierID
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
		h.Status = purchase.Status(r.Status)
	}
	if r.PaymentDueDate != nil {
		h.PaymentDueDate = r.PaymentDueDate.Ptr()
	}
	if r.Notes != nil {
		h.Notes = *r.Notes
	}

	return append(errs, r.LedgerRequest.Apply(d.Ledger())...)
}

// PurchaseResponse is a stored purchase order.
type PurchaseResponse struct {
	*purchase.Purchase
	BalanceDue types.Money `json:"balanceDue"`
	IsOverdue  bool        `json:"isOverdue"`
}

// FromPurchase converts a purchase to its response.
func FromPurchase(p *purchase.Purchase) PurchaseResponse {
	return PurchaseResponse{Purchase: p, BalanceDue: p.BalanceDue(), IsOverdue: p.IsOverdue(time.Now())}
}

// ReceiveRequest is the body of POST /documents/purchases/:id/receive.
// Without receivedQuantities every line is received in full.
type ReceiveRequest struct {
	Date               *Date          `json:"date,omitempty"`
	ReceivedQuantities map[string]int `json:"receivedQuantities,omitempty"`
}

// ToInput converts the request, keyed by line id.
func (r ReceiveRequest) ToInput() (purchase.ReceiveInput, error) {
	in := purchase.ReceiveInput{Date: r.Date.Ptr()}
	if len(r.ReceivedQuantities) == 0 {
		return in, nil
	}

	var errs apperror.ValidationErrors
	in.Quantities = make(map[id.ID]int, len(r.ReceivedQuantities))
	for raw, qty := range r.ReceivedQuantities {
		lineID, appErr := parseID("receivedQuantities."+raw, raw)
		if appErr != nil {
			errs = append(errs, appErr)
			continue
		}
		in.Quantities[lineID] = qty
	}
	return in, errs.Err()
}

// PurchaseListQuery holds the list filters of purchases.
type PurchaseListQuery struct {
	ListQuery
	Status        string `form:"status"`
	PaymentStatus string `form:"paymentStatus"`
	SupplierID    string `form:"supplierId"`
	DateFrom      string `form:"dateFrom"`
	DateTo        string `form:"dateTo"`
}

// Filter converts the query to a purchase filter.
func (q PurchaseListQuery) Filter() (purchase.ListFilter, error) {
	f := purchase.ListFilter{ListFilter: q.ListQuery.Filter(), PaymentStatus: q.PaymentStatus}
	f.Status = q.Status

	var errs apperror.ValidationErrors
	if q.SupplierID != "" {
		supplierID, appErr := parseID("supplierId", q.SupplierID)
		if appErr != nil {
			errs = append(errs, appErr)
		} else {
			f.PartyID = &supplierID
		}
	}
	f.DateFrom, f.DateTo = parseRange(q.DateFrom, q.DateTo, &errs)
	return f, errs.Err()
}

func parseRange(from, to string, errs *apperror.ValidationErrors) (*time.Time, *time.Time) {
	parse := func(field, raw string) *time.Time {
		if raw == "" {
			return nil
		}
		t, err := ParseDate(raw)
		if err != nil {
			*errs = append(*errs, apperror.NewFieldValidation(field, err.Error()))
			return nil
		}
		return &t
	}
	return parse("dateFrom", from), parse("dateTo", to)
}
