// Package documents holds what purchase and sale documents share: payment
// terms, submission outcome classification and the collaborators a document
// service reports to.
package documents

import (
	"context"
	"errors"
	"time"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/id"
	"tradedesk/internal/domain/catalogs/party"
	"tradedesk/internal/domain/ledger"
	"tradedesk/internal/domain/registers/stock"
)

// PaymentStatus tracks how much of a document has been paid.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentUnpaid, PaymentPartial, PaymentPaid:
		return true
	}
	return false
}

// PaymentMethod is how a document is settled.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCheck        PaymentMethod = "check"
	PaymentMobileMoney  PaymentMethod = "mobile_money"
	PaymentCard         PaymentMethod = "card"
	PaymentOther        PaymentMethod = "other"
)

// Valid reports whether m is a known payment method. Empty is allowed.
func (m PaymentMethod) Valid() bool {
	switch m {
	case "", PaymentCash, PaymentBankTransfer, PaymentCheck, PaymentMobileMoney, PaymentCard, PaymentOther:
		return true
	}
	return false
}

// Submission outcomes reported to the observer.
const (
	OutcomeSuccess  = "success"
	OutcomeInvalid  = "invalid"
	OutcomeConflict = "conflict"
	OutcomeFailed   = "failed"
)

// SubmissionObserver receives the outcome of every submission attempt.
type SubmissionObserver interface {
	ObserveSubmission(kind ledger.Kind, outcome string, took time.Duration)
}

// PartyResolver checks the supplier or customer referenced by a document.
type PartyResolver interface {
	RequireSupplier(ctx context.Context, field string, partyID id.ID) (*party.Party, error)
	RequireCustomer(ctx context.Context, field string, partyID id.ID) (*party.Party, error)
}

// StockRecorder is the part of the stock register a document service drives.
type StockRecorder interface {
	Replace(ctx context.Context, recorderID id.ID, movements []stock.Movement) error
	Reverse(ctx context.Context, recorderID id.ID) error
}

// ErrDraftClosed is wrapped by the error returned when a draft that was already
// submitted or cancelled is used again.
var ErrDraftClosed = errors.New("draft is closed")

// DraftClosed builds the conflict error for reuse of a finished draft.
func DraftClosed(kind ledger.Kind) *apperror.AppError {
	return apperror.NewBusinessRule(apperror.CodeDraftSubmitted, "draft was already submitted or cancelled").
		WithDetail("document", string(kind)).
		WithCause(ErrDraftClosed)
}

// SubmissionFailure maps an error raised while persisting a finished document.
// Caller-correctable errors pass through; anything else becomes a retryable
// submission error.
func SubmissionFailure(kind ledger.Kind, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := apperror.AsAppError(err); ok {
		switch appErr.Code {
		case apperror.CodeValidation, apperror.CodeNotFound,
			apperror.CodeConcurrentModification, apperror.CodeDuplicate,
			apperror.CodeConflict, apperror.CodeSubmission:
			return err
		}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return apperror.NewSubmission(string(kind), err)
}

// Outcome classifies a submission error for metrics.
func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	appErr, ok := apperror.AsAppError(err)
	if !ok {
		return OutcomeFailed
	}
	switch appErr.Code {
	case apperror.CodeValidation:
		return OutcomeInvalid
	case apperror.CodeConcurrentModification, apperror.CodeDraftSubmitted, apperror.CodeConflict, apperror.CodeDuplicate:
		return OutcomeConflict
	}
	return OutcomeFailed
}

// ValidateDates reports a violation when due precedes start.
func ValidateDates(field string, start time.Time, due *time.Time) *apperror.AppError {
	if due == nil || start.IsZero() {
		return nil
	}
	if due.Before(start) {
		return apperror.NewFieldValidation(field, field+" must not be before the document date")
	}
	return nil
}
