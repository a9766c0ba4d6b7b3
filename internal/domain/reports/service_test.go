package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/id"
	"tradedesk/internal/core/types"
	"tradedesk/internal/domain/documents"
	"tradedesk/internal/domain/ledger"
)

type stubRepo struct {
	since   time.Time
	limit   int
	months  []MonthTotal
	counts  []StatusCount
	balance []OpenBalance
	err     error
}

func (r *stubRepo) MonthlyTotals(ctx context.Context, kind ledger.Kind, since time.Time) ([]MonthTotal, error) {
	r.since = since
	return r.months, r.err
}

func (r *stubRepo) PaymentStatusCounts(ctx context.Context, kind ledger.Kind) ([]StatusCount, error) {
	return r.counts, r.err
}

func (r *stubRepo) OpenBalances(ctx context.Context, kind ledger.Kind, limit int) ([]OpenBalance, error) {
	r.limit = limit
	return r.balance, r.err
}

var fixedNow = time.Date(2026, 7, 1, 16, 30, 0, 0, time.UTC)

func newTestService(repo Repository) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestSummary(t *testing.T) {
	repo := &stubRepo{
		months: []MonthTotal{{Month: "2026-06", Count: 3, Total: types.MustMoney("1200.50")}},
		counts: []StatusCount{{PaymentStatus: documents.PaymentPaid, Count: 2}, {PaymentStatus: documents.PaymentUnpaid, Count: 1}},
	}
	svc := newTestService(repo)

	got, err := svc.Summary(context.Background(), ledger.KindSale, 0)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), got.Since)
	assert.Equal(t, got.Since, repo.since)
	assert.Equal(t, ledger.KindSale, got.Kind)
	assert.Len(t, got.ByMonth, 1)
	assert.Len(t, got.ByPaymentStatus, 2)

	_, err = svc.Summary(context.Background(), ledger.KindPurchase, 30)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), repo.since)
}

func TestSummary_Rejects(t *testing.T) {
	svc := newTestService(&stubRepo{})

	_, err := svc.Summary(context.Background(), "invoice", 0)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Summary(context.Background(), ledger.KindSale, -1)
	assert.True(t, apperror.IsValidation(err))

	failing := newTestService(&stubRepo{err: errors.New("statement timeout")})
	_, err = failing.Summary(context.Background(), ledger.KindSale, 0)
	assert.Error(t, err)
}

func TestOpenBalances(t *testing.T) {
	pastDue := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	dueLater := time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)
	delivered := time.Date(2026, 6, 21, 0, 0, 0, 0, time.UTC)
	repo := &stubRepo{balance: []OpenBalance{
		{DocumentID: id.New(), Total: types.MustMoney("300"), PaidAmount: types.MustMoney("120"), PaymentDueDate: &pastDue, ActualDeliveryDate: &delivered},
		{DocumentID: id.New(), Total: types.MustMoney("80"), PaidAmount: types.Zero(), PaymentDueDate: &dueLater},
	}}
	svc := newTestService(repo)

	rows, err := svc.OpenBalances(context.Background(), ledger.KindSale, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 100, repo.limit)

	assert.Equal(t, "180.00", rows[0].BalanceDue.StringFixed(2))
	assert.True(t, rows[0].IsOverdue)
	require.NotNil(t, rows[0].DaysSinceDelivery)
	assert.Equal(t, 10, *rows[0].DaysSinceDelivery)

	assert.Equal(t, "80.00", rows[1].BalanceDue.StringFixed(2))
	assert.False(t, rows[1].IsOverdue)
	assert.Nil(t, rows[1].DaysSinceDelivery)

	_, err = svc.OpenBalances(context.Background(), ledger.KindPurchase, 5000)
	require.NoError(t, err)
	assert.Equal(t, 1000, repo.limit)
}
