package sale

import "tradedesk/internal/core/numerator"

const (
	// NumeratorStrategy for sales orders. Gaps after a failed submission are acceptable.
	NumeratorStrategy = numerator.StrategyCached

	entityName = "sale"
)
