// Package entity provides core domain entities.
package entity

import (
	"time"

	"tradedesk/internal/core/apperror"
)

// Document is the base type for business transactions (purchases, sales).
type Document struct {
	BaseDocument

	// Number is the document number (auto-generated, unique within type+year)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Reference is the counterparty's own reference (order or quote number)
	Reference string `db:"reference" json:"reference,omitempty"`

	// Notes is an optional user comment
	Notes string `db:"notes" json:"notes,omitempty"`
}

// NewDocument creates a new Document dated today.
func NewDocument() Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC().Truncate(24 * time.Hour),
	}
}

// ValidateHeader returns the header-level violations shared by every document type.
func (d *Document) ValidateHeader() apperror.ValidationErrors {
	var errs apperror.ValidationErrors
	if d.Date.IsZero() {
		errs = append(errs, apperror.NewFieldValidation("date", "date is required"))
	}
	return errs
}

// IsBackdated checks if document date is in the past.
func (d *Document) IsBackdated() bool {
	return d.Date.Before(time.Now().UTC().Truncate(24 * time.Hour))
}
