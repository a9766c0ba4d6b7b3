package reports

import (
	"context"
	"fmt"
	"time"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/domain/documents"
	"tradedesk/internal/domain/ledger"
)

const (
	// DefaultSummaryDays is the look-back of a summary.
	DefaultSummaryDays = 180
	maxSummaryDays     = 3650

	defaultOpenLimit = 100
	maxOpenLimit     = 1000
)

// Service provides the dashboard reports.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Summary returns monthly totals over the last days days (DefaultSummaryDays
// when zero) and the count of documents per payment status.
func (s *Service) Summary(ctx context.Context, kind ledger.Kind, days int) (*Summary, error) {
	if !kind.Valid() {
		return nil, apperror.NewFieldValidation("kind", fmt.Sprintf("unknown document kind %q", kind))
	}
	if days == 0 {
		days = DefaultSummaryDays
	}
	if days < 0 || days > maxSummaryDays {
		return nil, apperror.NewFieldValidation("days", fmt.Sprintf("days must be between 1 and %d", maxSummaryDays)).
			WithDetail("value", days)
	}

	since := s.today().AddDate(0, 0, -days)
	byMonth, err := s.repo.MonthlyTotals(ctx, kind, since)
	if err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}
	byStatus, err := s.repo.PaymentStatusCounts(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("payment status counts: %w", err)
	}

	return &Summary{
		Kind:            kind,
		Since:           since,
		ByMonth:         byMonth,
		ByPaymentStatus: byStatus,
	}, nil
}

// OpenBalances lists the documents of kind with money outstanding.
func (s *Service) OpenBalances(ctx context.Context, kind ledger.Kind, limit int) ([]OpenBalance, error) {
	if !kind.Valid() {
		return nil, apperror.NewFieldValidation("kind", fmt.Sprintf("unknown document kind %q", kind))
	}
	if limit <= 0 {
		limit = defaultOpenLimit
	}
	if limit > maxOpenLimit {
		limit = maxOpenLimit
	}

	rows, err := s.repo.OpenBalances(ctx, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("open balances: %w", err)
	}

	today := s.today()
	for i := range rows {
		r := &rows[i]
		r.BalanceDue = documents.BalanceDue(r.Total, r.PaidAmount)
		r.IsOverdue = r.PaymentDueDate != nil && r.PaymentDueDate.Before(today)
		if kind == ledger.KindSale && r.ActualDeliveryDate != nil {
			days := int(today.Sub(r.ActualDeliveryDate.UTC().Truncate(24*time.Hour)).Hours() / 24)
			r.DaysSinceDelivery = &days
		}
	}
	return rows, nil
}

func (s *Service) today() time.Time {
	return s.now().UTC().Truncate(24 * time.Hour)
}
