package dto

import (
	"fmt"

	"github.com/shopspring/decimal"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/id"
	"tradedesk/internal/domain/ledger"
)

// LineRequest is one line of a document request.
// Lines with an id edit the stored line of that id; lines without one are added.
// A missing unit price takes the catalog price.
type LineRequest struct {
	ID        string           `json:"id,omitempty"`
	ProductID string           `json:"productId"`
	Quantity  int              `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
}

// LedgerRequest is the line-item part of a purchase or sale request.
type LedgerRequest struct {
	Lines       []LineRequest    `json:"lines"`
	ShippingFee *decimal.Decimal `json:"shippingFee,omitempty"`
	TaxRate     *decimal.Decimal `json:"taxRate,omitempty"`
}

// ProductIDs returns the well-formed product ids referenced by the lines.
func (r LedgerRequest) ProductIDs() []id.ID {
	ids := make([]id.ID, 0, len(r.Lines))
	for _, l := range r.Lines {
		if v, err := id.Parse(l.ProductID); err == nil {
			ids = append(ids, v)
		}
	}
	return ids
}

// Apply makes l hold exactly the requested lines, in request order. Stored
// lines missing from the request are removed. Every rejected line is reported
// under a "lines[i]." prefixed field and leaves the ledger as it was for that
// line. A stored line id may appear only once.
func (r LedgerRequest) Apply(l *ledger.Ledger) apperror.ValidationErrors {
	var errs apperror.ValidationErrors

	if r.TaxRate != nil {
		if err := l.SetTaxRate(*r.TaxRate); err != nil {
			errs = append(errs, fieldError("", err))
		}
	}
	if r.ShippingFee != nil {
		if err := l.SetShippingFee(*r.ShippingFee); err != nil {
			errs = append(errs, fieldError("", err))
		}
	}

	keep := make(map[id.ID]struct{}, len(r.Lines))
	for _, line := range r.Lines {
		if v, err := id.Parse(line.ID); err == nil {
			keep[v] = struct{}{}
		}
	}
	for _, item := range l.Items() {
		if _, ok := keep[item.ID]; !ok {
			_ = l.RemoveItem(item.ID)
		}
	}

	firstSeen := make(map[id.ID]int, len(r.Lines))
	order := make([]id.ID, 0, len(r.Lines))
	for i, line := range r.Lines {
		prefix := fmt.Sprintf("lines[%d].", i)
		if v, err := id.Parse(line.ID); err == nil {
			if first, dup := firstSeen[v]; dup {
				errs = append(errs, apperror.NewFieldValidation(prefix+"id", "line is listed more than once").
					WithDetail("firstIndex", first))
				continue
			}
			firstSeen[v] = i
		}

		lineID, err := applyLine(l, line)
		if err != nil {
			errs = append(errs, fieldError(prefix, err))
			continue
		}
		order = append(order, lineID)
	}
	if err := l.Reorder(order); err != nil {
		errs = append(errs, fieldError("", err))
	}
	return errs
}

func applyLine(l *ledger.Ledger, line LineRequest) (id.ID, error) {
	productID, appErr := parseID(ledger.FieldProductID, line.ProductID)
	if appErr != nil {
		return id.Nil(), appErr
	}

	var price decimal.NullDecimal
	if line.UnitPrice != nil {
		price = decimal.NewNullDecimal(*line.UnitPrice)
	}

	if line.ID == "" {
		var (
			item ledger.LineItem
			err  error
		)
		if price.Valid {
			item, err = l.AddItem(productID, line.Quantity, price)
		} else {
			item, err = l.AddCatalogItem(productID, line.Quantity)
		}
		return item.ID, err
	}

	lineID, appErr := parseID("id", line.ID)
	if appErr != nil {
		return id.Nil(), appErr
	}
	existing, ok := l.Item(lineID)
	if !ok {
		return id.Nil(), apperror.NewFieldValidation("id", "line does not belong to this document").WithDetail("value", line.ID)
	}
	if existing.ProductID != productID {
		return id.Nil(), apperror.NewFieldValidation(ledger.FieldProductID, "the product of a stored line cannot change; remove it and add a new line")
	}
	quantity := line.Quantity
	item, err := l.UpdateItem(lineID, ledger.ItemPatch{Quantity: &quantity, UnitPrice: price})
	return item.ID, err
}

// fieldError turns a ledger error into a validation error on prefix+field.
func fieldError(prefix string, err error) *apperror.AppError {
	appErr, ok := apperror.AsAppError(err)
	if !ok {
		return apperror.NewValidation(err.Error())
	}

	field := appErr.Field()
	message := appErr.Message
	if appErr.Code == apperror.CodeNotFound {
		if field == "" {
			field = ledger.FieldProductID
		}
		message = "product does not exist"
	}
	if field == "" {
		return appErr
	}

	out := apperror.NewFieldValidation(prefix+field, message)
	for k, v := range appErr.Details {
		if k != "field" && k != "entity" {
			out = out.WithDetail(k, v)
		}
	}
	return out
}

// TotalsResponse carries ledger totals as fixed two-decimal strings.
type TotalsResponse struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Shipping string `json:"shipping"`
	Discount string `json:"discount"`
	Total    string `json:"total"`
}

// FromTotals converts ledger totals.
func FromTotals(t ledger.Totals) TotalsResponse {
	return TotalsResponse{
		Subtotal: t.Subtotal.StringFixed(2),
		Tax:      t.Tax.StringFixed(2),
		Shipping: t.Shipping.StringFixed(2),
		Discount: t.Discount.StringFixed(2),
		Total:    t.Total.StringFixed(2),
	}
}

// LineItemResponse is a ledger line in a quote.
type LineItemResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	LineTotal   string `json:"lineTotal"`
}

// QuoteResponse is the priced preview of a draft that was not stored.
type QuoteResponse struct {
	Items   []LineItemResponse `json:"items"`
	Totals  TotalsResponse     `json:"totals"`
	TaxRate string             `json:"taxRate"`
	Valid   bool               `json:"valid"`
	Errors  []ErrorResponse    `json:"errors"`
}

// NewQuoteResponse snapshots the ledger together with the errors found.
func NewQuoteResponse(l *ledger.Ledger, errs apperror.ValidationErrors) QuoteResponse {
	payload := l.ToSubmissionPayload()

	items := make([]LineItemResponse, 0, len(payload.Items))
	for _, it := range payload.Items {
		items = append(items, LineItemResponse{
			ID:          it.ID.String(),
			ProductID:   it.ProductID.String(),
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.StringFixed(2),
			LineTotal:   it.LineTotal.StringFixed(2),
		})
	}

	out := make([]ErrorResponse, 0, len(errs))
	for _, e := range errs {
		out = append(out, ErrorResponse{Code: e.Code, Message: e.Message, Details: e.Details})
	}

	return QuoteResponse{
		Items:   items,
		Totals:  FromTotals(payload.Totals),
		TaxRate: l.TaxRate().String(),
		Valid:   len(errs) == 0,
		Errors:  out,
	}
}
