package ledger

import (
	"tradedesk/internal/core/id"
	"tradedesk/internal/core/types"
)

// CatalogEntry is the read-only product reference data a ledger needs:
// the display name to snapshot and the suggested unit price
// (buying price for purchases, selling price for sales).
type CatalogEntry struct {
	ProductID id.ID       `json:"productId"`
	Name      string      `json:"name"`
	Price     types.Money `json:"price"`
}

// Catalog resolves product references for a ledger.
// Implementations must be safe to call synchronously; a ledger never performs I/O.
type Catalog interface {
	Lookup(productID id.ID) (CatalogEntry, bool)
}

// StaticCatalog is an in-memory Catalog snapshot.
type StaticCatalog map[id.ID]CatalogEntry

// NewStaticCatalog builds a snapshot from entries. Later entries win on duplicate ids.
func NewStaticCatalog(entries ...CatalogEntry) StaticCatalog {
	c := make(StaticCatalog, len(entries))
	for _, e := range entries {
		c[e.ProductID] = e
	}
	return c
}

// Lookup implements Catalog.
func (c StaticCatalog) Lookup(productID id.ID) (CatalogEntry, bool) {
	e, ok := c[productID]
	return e, ok
}
