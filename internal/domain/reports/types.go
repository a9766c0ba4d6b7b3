// Package reports provides the dashboard summaries over purchases and sales.
package reports

import (
	"time"

	"tradedesk/internal/core/id"
	"tradedesk/internal/core/types"
	"tradedesk/internal/domain/documents"
	"tradedesk/internal/domain/ledger"
)

// --- Activity summary ---

// MonthTotal is the document count and value of one calendar month.
type MonthTotal struct {
	// Month is formatted YYYY-MM
	Month string      `db:"month" json:"month"`
	Count int64       `db:"count" json:"count"`
	Total types.Money `db:"total" json:"total"`
}

// StatusCount is the number of documents in one payment status.
type StatusCount struct {
	PaymentStatus documents.PaymentStatus `db:"payment_status" json:"paymentStatus"`
	Count         int64                   `db:"count" json:"count"`
}

// Summary is the activity of one document kind. Deleted and cancelled
// documents are left out.
type Summary struct {
	Kind            ledger.Kind   `json:"kind"`
	Since           time.Time     `json:"since"`
	ByMonth         []MonthTotal  `json:"byMonth"`
	ByPaymentStatus []StatusCount `json:"byPaymentStatus"`
}

// --- Open balances ---

// OpenBalance is a purchase still owed to a supplier or a sale still owed by
// a customer.
type OpenBalance struct {
	DocumentID         id.ID                   `db:"id" json:"id"`
	Number             string                  `db:"number" json:"number"`
	PartyID            id.ID                   `db:"party_id" json:"partyId"`
	PartyName          string                  `db:"party_name" json:"partyName"`
	Date               time.Time               `db:"date" json:"date"`
	ActualDeliveryDate *time.Time              `db:"actual_delivery_date" json:"actualDeliveryDate,omitempty"`
	PaymentDueDate     *time.Time              `db:"payment_due_date" json:"paymentDueDate,omitempty"`
	PaymentStatus      documents.PaymentStatus `db:"payment_status" json:"paymentStatus"`
	Total              types.Money             `db:"total" json:"total"`
	PaidAmount         types.Money             `db:"paid_amount" json:"paidAmount"`

	BalanceDue types.Money `db:"-" json:"balanceDue"`
	IsOverdue  bool        `db:"-" json:"isOverdue"`

	// DaysSinceDelivery is set for delivered sales
	DaysSinceDelivery *int `db:"-" json:"daysSinceDelivery,omitempty"`
}
