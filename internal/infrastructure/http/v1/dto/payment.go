package dto

import (
	"tradedesk/internal/core/types"
	"tradedesk/internal/domain/documents"
)

// PaymentRequest records a payment against a purchase or a sale.
type PaymentRequest struct {
	Date      *Date       `json:"date,omitempty"`
	Amount    types.Money `json:"amount"`
	Method    string      `json:"method"`
	Reference string      `json:"reference,omitempty"`
	Notes     string      `json:"notes,omitempty"`
}

// ToInput converts the request. A missing date means today.
func (r PaymentRequest) ToInput() documents.PaymentInput {
	in := documents.PaymentInput{
		Amount:    r.Amount,
		Method:    documents.PaymentMethod(r.Method),
		Reference: r.Reference,
		Notes:     r.Notes,
	}
	if day := r.Date.Ptr(); day != nil {
		in.Date = *day
	}
	return in
}

// PaymentResponse is the document after a payment together with the payment.
type PaymentResponse struct {
	Payment  *documents.Payment `json:"payment"`
	Document any                `json:"document"`
}
