package numerator

import (
	"context"
	"time"
)

// Generator generates sequential document numbers.
// The Postgres-backed implementation lives in pkg/numerator.
type Generator interface {
	// GetNextNumber generates the next number for cfg in the given period.
	// Pattern: PREFIX-YEAR-XXXXX (e.g., PO-2026-00001)
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber overwrites the last issued value (data migration).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
