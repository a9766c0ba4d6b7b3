package documents

import (
	"context"
	"time"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/id"
	"tradedesk/internal/core/types"
	"tradedesk/internal/domain/ledger"
)

// Payment is money paid to a supplier or received from a customer against
// one document.
type Payment struct {
	ID           id.ID         `db:"id" json:"id"`
	DocumentID   id.ID         `db:"document_id" json:"documentId"`
	DocumentKind ledger.Kind   `db:"document_kind" json:"documentKind"`
	Date         time.Time     `db:"payment_date" json:"date"`
	Amount       types.Money   `db:"amount" json:"amount"`
	Method       PaymentMethod `db:"method" json:"method"`
	Reference    string        `db:"reference" json:"reference,omitempty"`
	Notes        string        `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"createdAt"`
	CreatedBy    string        `db:"created_by" json:"createdBy,omitempty"`
}

// PaymentInput is a payment as entered by the caller.
type PaymentInput struct {
	Date      time.Time
	Amount    types.Money
	Method    PaymentMethod
	Reference string
	Notes     string
}

// Validate returns every violation of the input. Whether the amount fits the
// balance due is checked against the document.
func (in PaymentInput) Validate() apperror.ValidationErrors {
	var errs apperror.ValidationErrors
	switch {
	case !in.Amount.IsPositive():
		errs = append(errs, apperror.NewFieldValidation("amount", "amount must be positive").WithDetail("value", in.Amount.String()))
	case !types.HasMoneyPrecision(in.Amount):
		errs = append(errs, apperror.NewFieldValidation("amount", "amount must have at most 2 decimal places").WithDetail("value", in.Amount.String()))
	}
	if in.Method == "" {
		errs = append(errs, apperror.NewFieldValidation("method", "payment method is required"))
	} else if !in.Method.Valid() {
		errs = append(errs, apperror.NewFieldValidation("method", "invalid payment method").WithDetail("value", string(in.Method)))
	}
	return errs
}

// NewPayment builds the payment of a document. A zero date means today.
func NewPayment(kind ledger.Kind, docID id.ID, in PaymentInput) *Payment {
	date := in.Date
	if date.IsZero() {
		date = time.Now().UTC().Truncate(24 * time.Hour)
	}
	return &Payment{
		ID:           id.New(),
		DocumentID:   docID,
		DocumentKind: kind,
		Date:         date,
		Amount:       in.Amount,
		Method:       in.Method,
		Reference:    in.Reference,
		Notes:        in.Notes,
		CreatedAt:    time.Now().UTC(),
	}
}

// StatusForPaid derives the payment status of a document from its total and
// the amount paid so far.
func StatusForPaid(total, paid types.Money) PaymentStatus {
	switch {
	case paid.IsPositive() && paid.GreaterThanOrEqual(total):
		return PaymentPaid
	case paid.IsPositive():
		return PaymentPartial
	}
	return PaymentUnpaid
}

// BalanceDue is what remains to be paid, never negative.
func BalanceDue(total, paid types.Money) types.Money {
	due := total.Sub(paid)
	if due.IsNegative() {
		return types.Zero()
	}
	return due
}

// CheckPaymentFits rejects an amount larger than the balance due.
func CheckPaymentFits(total, paid, amount types.Money) *apperror.AppError {
	due := BalanceDue(total, paid)
	if amount.GreaterThan(due) {
		return apperror.NewFieldValidation("amount", "payment exceeds the balance due").
			WithDetail("balanceDue", due.StringFixed(2))
	}
	return nil
}

// CheckTotalCoversPaid rejects an edit that would lower the total below what
// has already been paid.
func CheckTotalCoversPaid(total, paid types.Money) *apperror.AppError {
	if total.LessThan(paid) {
		return apperror.NewFieldValidation("total", "total must not fall below the amount already paid").
			WithDetail("paidAmount", paid.StringFixed(2))
	}
	return nil
}

// PaymentStore persists document payments.
type PaymentStore interface {
	CreatePayment(ctx context.Context, p *Payment) error
	ListPayments(ctx context.Context, kind ledger.Kind, docID id.ID) ([]*Payment, error)
}

// Today is midnight UTC of the current day.
func Today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}
