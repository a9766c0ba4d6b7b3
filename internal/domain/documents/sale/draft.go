package sale

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
	CustomerID           id.ID
	Reference            string
	Date                 time.Time
	ExpectedDeliveryDate *time.Time
	ActualDeliveryDate   *time.Time
	Status               Status
	PaymentMethod        documents.PaymentMethod
	PaymentDueDate       *time.Time
	Notes                string
}

// Validate returns the header violations in field order.
func (h Header) Validate() []*apperror.AppError {
	var errs []*apperror.AppError
	if id.IsNil(h.CustomerID) {
		errs = append(errs, apperror.NewFieldValidation("customerId", "customer is required"))
	}
	if h.Date.IsZero() {
		errs = append(errs, apperror.NewFieldValidation("date", "sale date is required"))
	}
	if e := documents.ValidateDates("expectedDeliveryDate", h.Date, h.ExpectedDeliveryDate); e != nil {
		errs = append(errs, e)
	}
	if e := documents.ValidateDates("actualDeliveryDate", h.Date, h.ActualDeliveryDate); e != nil {
		errs = append(errs, e)
	}
	if e := documents.ValidateDates("paymentDueDate", h.Date, h.PaymentDueDate); e != nil {
		errs = append(errs, e)
	}
	if !h.Status.Valid() {
		errs = append(errs, apperror.NewFieldValidation("status", "invalid status").WithDetail("value", string(h.Status)))
	}
	if !h.PaymentMethod.Valid() {
		errs = append(errs, apperror.NewFieldValidation("paymentMethod", "invalid payment method").WithDetail("value", string(h.PaymentMethod)))
	}
	return errs
}

// Draft is an in-progress sale: a header plus the ledger of its lines.
// A draft is submitted at most once; afterwards it is closed.
type Draft struct {
	Header Header

	ledger *ledger.Ledger
	docID  id.ID
	base   *Sale
	number string
	closed bool
}

// NewDraft opens an empty draft dated today.
func NewDraft(catalog ledger.Catalog, settings ledger.Settings) (*Draft, error) {
	l, err := ledger.New(ledger.KindSale, catalog, settings)
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

// OpenDraft reopens a stored sale for editing.
func OpenDraft(doc *Sale, catalog ledger.Catalog) (*Draft, error) {
	if err := doc.CanModify(); err != nil {
		return nil, err
	}
	l, err := ledger.Restore(ledger.KindSale, catalog, doc.LedgerState())
	if err != nil {
		return nil, err
	}
	return &Draft{
		Header: Header{
			CustomerID:           doc.CustomerID,
			Reference:            doc.Reference,
			Date:                 doc.Date,
			ExpectedDeliveryDate: doc.ExpectedDeliveryDate,
			ActualDeliveryDate:   doc.ActualDeliveryDate,
			Status:               doc.Status,
			PaymentMethod:        doc.PaymentMethod,
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

// Validate merges header violations with the ledger's own.
func (d *Draft) Validate() apperror.ValidationErrors {
	errs := d.Header.Validate()
	if d.base != nil {
		if e := documents.CheckTotalCoversPaid(d.ledger.ComputeTotals().Total, d.base.PaidAmount); e != nil {
			errs = append(errs, e)
		}
	}
	return d.ledger.Validate(errs...)
}

func (d *Draft) build() *Sale {
	payload := d.ledger.ToSubmissionPayload()

	var doc Sale
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

	doc.CustomerID = d.Header.CustomerID
	doc.ExpectedDeliveryDate = d.Header.ExpectedDeliveryDate
	doc.ActualDeliveryDate = d.Header.ActualDeliveryDate
	doc.Status = d.Header.Status
	doc.PaymentMethod = d.Header.PaymentMethod
	doc.PaymentDueDate = d.Header.PaymentDueDate

	doc.TaxRate = d.ledger.TaxRate()
	doc.Subtotal = payload.Subtotal
	doc.Tax = payload.Tax
	doc.ShippingFee = payload.Shipping
	doc.Discount = payload.Discount
	doc.Total = payload.Total
	doc.Lines = linesFromPayload(payload.Items)

	if d.base != nil {
		doc.PaidAmount = d.base.PaidAmount
	}
	doc.PaymentStatus = documents.StatusForPaid(doc.Total, doc.PaidAmount)

	if doc.Status == StatusDelivered && doc.ActualDeliveryDate == nil {
		today := documents.Today()
		doc.ActualDeliveryDate = &today
	}
	return &doc
}
