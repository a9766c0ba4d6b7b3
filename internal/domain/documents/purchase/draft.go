package purchase

import (
	"time"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/entity"
	"tradedesk/internal/core/id"
	"tradedesk/internal/domain/documents"
	"tradedesk/internal/domain/ledger"
)

// Header holds the document-level fields edited alongside the ledger.
type Header struct {
	SupplierID           id.ID
	Reference            string
	Date                 time.Time
	ExpectedDeliveryDate *time.Time
	ActualDeliveryDate   *time.Time
	Status               Status
	PaymentDueDate       *time.Time
	Notes                string
}

// Validate returns the header violations in field order.
func (h Header) Validate() []*apperror.AppError {
	var errs []*apperror.AppError
	if id.IsNil(h.SupplierID) {
		errs = append(errs, apperror.NewFieldValidation("supplierId", "supplier is required"))
	}
	if h.Date.IsZero() {
		errs = append(errs, apperror.NewFieldValidation("date", "order date is required"))
	}
	if h.ExpectedDeliveryDate == nil {
		errs = append(errs, apperror.NewFieldValidation("expectedDeliveryDate", "expected delivery date is required"))
	} else if e := documents.ValidateDates("expectedDeliveryDate", h.Date, h.ExpectedDeliveryDate); e != nil {
		errs = append(errs, e)
	}
	if e := documents.ValidateDates("actualDeliveryDate", h.Date, h.ActualDeliveryDate); e != nil {
		errs = append(errs, e)
	}
	if !h.Status.Valid() {
		errs = append(errs, apperror.NewFieldValidation("status", "invalid status").WithDetail("value", string(h.Status)))
	}
	if e := documents.ValidateDates("paymentDueDate", h.Date, h.PaymentDueDate); e != nil {
		errs = append(errs, e)
	}
	return errs
}

// Draft is an in-progress purchase: a header plus the ledger of its lines.
// A draft is submitted at most once; afterwards it is closed.
type Draft struct {
	Header Header

	ledger *ledger.Ledger
	docID  id.ID
	base   *Purchase
	number string
	closed bool
}

// NewDraft opens an empty draft dated today.
func NewDraft(catalog ledger.Catalog, settings ledger.Settings) (*Draft, error) {
	l, err := ledger.New(ledger.KindPurchase, catalog, settings)
	if err != nil {
		return nil, err
	}
	return &Draft{
		Header: Header{
			Date:   documents.Today(),
			Status: StatusPending,
		},
		ledger: l,
		docID:  id.New(),
	}, nil
}

// OpenDraft reopens a stored purchase for editing.
func OpenDraft(doc *Purchase, catalog ledger.Catalog) (*Draft, error) {
	if err := doc.CanModify(); err != nil {
		return nil, err
	}
	l, err := ledger.Restore(ledger.KindPurchase, catalog, doc.LedgerState())
	if err != nil {
		return nil, err
	}
	return &Draft{
		Header: Header{
			SupplierID:           doc.SupplierID,
			Reference:            doc.Reference,
			Date:                 doc.Date,
			ExpectedDeliveryDate: doc.ExpectedDeliveryDate,
			ActualDeliveryDate:   doc.ActualDeliveryDate,
			Status:               doc.Status,
			PaymentDueDate:       doc.PaymentDueDate,
			Notes:                doc.Notes,
		},
		ledger: l,
		docID:  doc.ID,
		base:   doc,
		number: doc.Number,
	}, nil
}

// Ledger returns the draft's line-item ledger.
func (d *Draft) Ledger() *ledger.Ledger { return d.ledger }

// DocumentID is the id the document is stored under.
func (d *Draft) DocumentID() id.ID { return d.docID }

// IsNew reports whether the draft has never been stored.
func (d *Draft) IsNew() bool { return d.base == nil }

// Version is the stored version the draft was opened from, 0 for a new draft.
func (d *Draft) Version() int {
	if d.base == nil {
		return 0
	}
	return d.base.Version
}

// Closed reports whether the draft was submitted or cancelled.
func (d *Draft) Closed() bool { return d.closed }

// Cancel discards the draft.
func (d *Draft) Cancel() { d.closed = true }

// Validate merges header violations with the ledger's own. A stored purchase
// may not be edited below the amount already paid on it.
func (d *Draft) Validate() apperror.ValidationErrors {
	errs := d.Header.Validate()
	if d.base != nil {
		if e := documents.CheckTotalCoversPaid(d.ledger.ComputeTotals().Total, d.base.PaidAmount); e != nil {
			errs = append(errs, e)
		}
	}
	return d.ledger.Validate(errs...)
}

// build assembles the document to store. The draft itself is not modified.
func (d *Draft) build() *Purchase {
	payload := d.ledger.ToSubmissionPayload()

	var doc Purchase
	if d.base != nil {
		doc.Document = d.base.Document
	} else {
		doc.Document = entity.NewDocument()
		doc.ID = d.docID
	}
	doc.Number = d.number
	doc.Date = d.Header.Date
	doc.Reference = d.Header.Reference
	doc.Notes = d.Header.Notes

	doc.SupplierID = d.Header.SupplierID
	doc.ExpectedDeliveryDate = d.Header.ExpectedDeliveryDate
	doc.ActualDeliveryDate = d.Header.ActualDeliveryDate
	doc.Status = d.Header.Status
	doc.PaymentDueDate = d.Header.PaymentDueDate

	doc.TaxRate = d.ledger.TaxRate()
	doc.Subtotal = payload.Subtotal
	doc.Tax = payload.Tax
	doc.ShippingFee = payload.Shipping
	doc.Total = payload.Total

	var previous []Line
	if d.base != nil {
		previous = d.base.Lines
		doc.PaidAmount = d.base.PaidAmount
	}
	doc.PaymentStatus = documents.StatusForPaid(doc.Total, doc.PaidAmount)

	wasReceived := d.base != nil && d.base.Status == StatusReceived
	doc.Lines = linesFromPayload(payload.Items, previous, doc.Status, wasReceived)
	if doc.Status == StatusReceived && doc.ActualDeliveryDate == nil {
		today := documents.Today()
		doc.ActualDeliveryDate = &today
	}
	return &doc
}
