package reports

import (
	"context"
	"time"

	"tradedesk/internal/domain/ledger"
)

// Repository reads the aggregates behind the dashboard.
type Repository interface {
	MonthlyTotals(ctx context.Context, kind ledger.Kind, since time.Time) ([]MonthTotal, error)
	PaymentStatusCounts(ctx context.Context, kind ledger.Kind) ([]StatusCount, error)

	// OpenBalances lists unpaid and partly paid documents, earliest due first
	OpenBalances(ctx context.Context, kind ledger.Kind, limit int) ([]OpenBalance, error)
}
