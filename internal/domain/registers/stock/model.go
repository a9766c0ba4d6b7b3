// Package stock provides the stock register: an append-only journal of goods
// received on purchases, shipped on sales and entered by hand, from which
// on-hand quantities derive.
package stock

import (
	"fmt"
	"time"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/id"
	"tradedesk/internal/domain/ledger"
)

// RecordType is the movement direction.
type RecordType string

const (
	RecordTypeReceipt    RecordType = "receipt"    // stock in
	RecordTypeExpense    RecordType = "expense"    // stock out
	RecordTypeAdjustment RecordType = "adjustment" // signed correction
)

// Valid reports whether rt is a known record type.
func (rt RecordType) Valid() bool {
	switch rt {
	case RecordTypeReceipt, RecordTypeExpense, RecordTypeAdjustment:
		return true
	}
	return false
}

// RecorderManual marks movements entered by hand rather than produced by a document.
const RecorderManual ledger.Kind = "manual"

// Movement is one register row produced by a document line.
type Movement struct {
	ID id.ID `db:"id" json:"id"`

	// RecorderID is the document that produced the movement
	RecorderID      id.ID       `db:"recorder_id" json:"recorderId"`
	RecorderType    ledger.Kind `db:"recorder_type" json:"recorderType"`
	RecorderVersion int         `db:"recorder_version" json:"recorderVersion"`

	// LineID is the ledger line the movement was derived from
	LineID id.ID `db:"line_id" json:"lineId"`

	Period     time.Time  `db:"period" json:"period"`
	RecordType RecordType `db:"record_type" json:"recordType"`
	ProductID  id.ID      `db:"product_id" json:"productId"`

	// Quantity is positive for receipts and expenses, whose RecordType gives
	// the sign. Adjustments carry their own sign.
	Quantity int `db:"quantity" json:"quantity"`

	Reference string `db:"reference" json:"reference,omitempty"`
	Notes     string `db:"notes" json:"notes,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Signed returns the quantity with the direction applied.
func (m Movement) Signed() int {
	if m.RecordType == RecordTypeExpense {
		return -m.Quantity
	}
	return m.Quantity
}

// check returns the first invariant m breaks.
func (m Movement) check() string {
	switch {
	case id.IsNil(m.RecorderID):
		return "recorder is required"
	case id.IsNil(m.ProductID):
		return "product is required"
	case !m.RecordType.Valid():
		return fmt.Sprintf("unknown record type %q", m.RecordType)
	case m.RecordType == RecordTypeAdjustment && m.Quantity == 0:
		return "adjustment quantity must not be zero"
	case m.RecordType != RecordTypeAdjustment && m.Quantity <= 0:
		return "quantity must be positive"
	}
	return ""
}

// Balance is the on-hand quantity of a product.
type Balance struct {
	ProductID id.ID `db:"product_id" json:"productId"`
	Quantity  int   `db:"quantity" json:"quantity"`
}

// Recorder identifies the document a batch of movements belongs to.
type Recorder struct {
	ID      id.ID
	Kind    ledger.Kind
	Version int
	Date    time.Time
}

// FromLines turns ledger lines into movements of one direction.
func FromLines(rec Recorder, rt RecordType, lines []ledger.LineItem) []Movement {
	now := time.Now().UTC()
	out := make([]Movement, 0, len(lines))
	for _, l := range lines {
		out = append(out, Movement{
			ID:              id.New(),
			RecorderID:      rec.ID,
			RecorderType:    rec.Kind,
			RecorderVersion: rec.Version,
			LineID:          l.ID,
			Period:          rec.Date,
			RecordType:      rt,
			ProductID:       l.ProductID,
			Quantity:        l.Quantity,
			CreatedAt:       now,
		})
	}
	return out
}

// netByProduct sums signed quantities per product, keeping first-seen order.
func netByProduct(movements []Movement) ([]id.ID, map[id.ID]int) {
	order := make([]id.ID, 0, len(movements))
	net := make(map[id.ID]int, len(movements))
	for _, m := range movements {
		if _, seen := net[m.ProductID]; !seen {
			order = append(order, m.ProductID)
		}
		net[m.ProductID] += m.Signed()
	}
	return order, net
}

// EntryType is the kind of a hand-made stock entry.
type EntryType string

const (
	EntryIn         EntryType = "in"
	EntryOut        EntryType = "out"
	EntryAdjustment EntryType = "adjustment"
)

// Entry is a stock change made outside any document: goods found or lost,
// a count correction or an opening balance.
type Entry struct {
	ProductID id.ID
	Type      EntryType

	// Quantity is positive for in and out. An adjustment is signed and non-zero.
	Quantity int

	Date      time.Time
	Reference string
	Notes     string
}

// Validate returns every violation of the entry.
func (e Entry) Validate() apperror.ValidationErrors {
	var errs apperror.ValidationErrors
	if id.IsNil(e.ProductID) {
		errs = append(errs, apperror.NewFieldValidation("productId", "product is required"))
	}
	switch e.Type {
	case EntryIn, EntryOut:
		if e.Quantity <= 0 {
			errs = append(errs, apperror.NewFieldValidation("quantity", "quantity must be positive").WithDetail("value", e.Quantity))
		}
	case EntryAdjustment:
		if e.Quantity == 0 {
			errs = append(errs, apperror.NewFieldValidation("quantity", "adjustment quantity must not be zero"))
		}
	default:
		errs = append(errs, apperror.NewFieldValidation("type", "type must be in, out or adjustment").WithDetail("value", string(e.Type)))
	}
	return errs
}

// Movement turns the entry into the register row it records.
func (e Entry) Movement() Movement {
	rt := RecordTypeAdjustment
	switch e.Type {
	case EntryIn:
		rt = RecordTypeReceipt
	case EntryOut:
		rt = RecordTypeExpense
	}
	date := e.Date
	if date.IsZero() {
		date = time.Now().UTC().Truncate(24 * time.Hour)
	}
	entryID := id.New()
	return Movement{
		ID:              entryID,
		RecorderID:      entryID,
		RecorderType:    RecorderManual,
		RecorderVersion: 1,
		Period:          date,
		RecordType:      rt,
		ProductID:       e.ProductID,
		Quantity:        e.Quantity,
		Reference:       e.Reference,
		Notes:           e.Notes,
		CreatedAt:       time.Now().UTC(),
	}
}
