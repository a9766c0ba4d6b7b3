package ledger

import (
	"github.com/shopspring/decimal"

	"tradedesk/internal/core/types"
)

// Totals is the derived money summary of a ledger.
type Totals struct {
	Subtotal types.Money `json:"subtotal"`
	Tax      types.Money `json:"tax"`
	Shipping types.Money `json:"shipping"`
	Discount types.Money `json:"discount"`
	Total    types.Money `json:"total"`
}

// Payload is the snapshot handed to persistence on submit.
type Payload struct {
	Items []LineItem `json:"items"`
	Totals
}

// lineTotal is quantity × unitPrice at currency precision.
func lineTotal(quantity int, unitPrice types.Money) types.Money {
	return types.RoundMoney(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// computeTotals derives totals from scratch. Purchases never carry a discount term.
func computeTotals(kind Kind, items []LineItem, shipping, discount, taxRate types.Money) Totals {
	subtotal := decimal.Zero
	for i := range items {
		subtotal = subtotal.Add(items[i].LineTotal)
	}
	if kind != KindSale {
		discount = decimal.Zero
	}
	tax := types.RoundMoney(subtotal.Mul(taxRate))

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Discount: discount,
		Total:    types.RoundMoney(subtotal.Add(tax).Add(shipping).Sub(discount)),
	}
}
