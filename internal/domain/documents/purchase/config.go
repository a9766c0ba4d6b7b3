package purchase

import "tradedesk/internal/core/numerator"

const (
	// NumeratorStrategy for purchase orders. Supplier-facing, so numbers are gapless.
	NumeratorStrategy = numerator.StrategyStrict

	entityName = "purchase"
)
