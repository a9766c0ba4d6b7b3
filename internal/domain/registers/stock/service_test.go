package stock

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/internal/core/apperror"
	"tradedesk/internal/core/id"
	"tradedesk/internal/core/tx"
	"tradedesk/internal/core/types"
	"tradedesk/internal/domain/ledger"
)

type memRepo struct {
	movements []Movement
	createErr error
}

func (r *memRepo) CreateMovements(ctx context.Context, movements []Movement) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.movements = append(r.movements, movements...)
	return nil
}

func (r *memRepo) DeleteMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]Movement, error) {
	var kept, removed []Movement
	for _, m := range r.movements {
		if m.RecorderID == recorderID {
			removed = append(removed, m)
		} else {
			kept = append(kept, m)
		}
	}
	r.movements = kept
	return removed, nil
}

func (r *memRepo) GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]Movement, error) {
	var out []Movement
	for _, m := range r.movements {
		if m.RecorderID == recorderID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memRepo) GetBalance(ctx context.Context, productID id.ID) (Balance, error) {
	b := Balance{ProductID: productID}
	for _, m := range r.movements {
		if m.ProductID == productID {
			b.Quantity += m.Signed()
		}
	}
	return b, nil
}

func (r *memRepo) GetMovementHistory(ctx context.Context, productID id.ID, filter MovementFilter) ([]Movement, error) {
	var out []Movement
	for _, m := range r.movements {
		if m.ProductID == productID && (filter.RecordType == nil || *filter.RecordType == m.RecordType) {
			out = append(out, m)
		}
	}
	return out, nil
}

type stockBook map[id.ID]int

func (b stockBook) AdjustStock(ctx context.Context, productID id.ID, delta int) error {
	b[productID] += delta
	return nil
}

var (
	paperID = id.New()
	inkID   = id.New()
)

func lines(qtyPaper, qtyInk int) []ledger.LineItem {
	return []ledger.LineItem{
		{ID: id.New(), ProductID: paperID, Quantity: qtyPaper, UnitPrice: types.MustMoney("80")},
		{ID: id.New(), ProductID: inkID, Quantity: qtyInk, UnitPrice: types.MustMoney("12.50")},
		{ID: id.New(), ProductID: paperID, Quantity: 1, UnitPrice: types.MustMoney("79")},
	}
}

func TestFromLines(t *testing.T) {
	rec := Recorder{ID: id.New(), Kind: ledger.KindPurchase, Version: 3, Date: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
	src := lines(5, 2)

	got := FromLines(rec, RecordTypeReceipt, src)
	require.Len(t, got, 3)
	for i, m := range got {
		assert.Equal(t, rec.ID, m.RecorderID)
		assert.Equal(t, ledger.KindPurchase, m.RecorderType)
		assert.Equal(t, 3, m.RecorderVersion)
		assert.Equal(t, src[i].ID, m.LineID)
		assert.Equal(t, src[i].Quantity, m.Signed())
		assert.Equal(t, rec.Date, m.Period)
	}

	out := FromLines(rec, RecordTypeExpense, src[:1])
	assert.Equal(t, -5, out[0].Signed())
}

func TestRecordAndReverse(t *testing.T) {
	repo := &memRepo{}
	book := stockBook{}
	svc := NewService(repo, book, nil)
	ctx := context.Background()

	purchase := Recorder{ID: id.New(), Kind: ledger.KindPurchase, Version: 1}
	require.NoError(t, svc.Record(ctx, FromLines(purchase, RecordTypeReceipt, lines(5, 2))))

	sale := Recorder{ID: id.New(), Kind: ledger.KindSale, Version: 1}
	require.NoError(t, svc.Record(ctx, FromLines(sale, RecordTypeExpense, lines(2, 1))))

	bal, err := svc.Balance(ctx, paperID)
	require.NoError(t, err)
	assert.Equal(t, 3, bal.Quantity)
	assert.Equal(t, 3, book[paperID])
	assert.Equal(t, 1, book[inkID])

	require.NoError(t, svc.Reverse(ctx, sale.ID))
	assert.Equal(t, 6, book[paperID])
	assert.Equal(t, 2, book[inkID])

	moves, err := svc.MovementsOf(ctx, sale.ID)
	require.NoError(t, err)
	assert.Empty(t, moves)

	// Reversing twice is harmless.
	require.NoError(t, svc.Reverse(ctx, sale.ID))
	assert.Equal(t, 6, book[paperID])
}

func TestReplace(t *testing.T) {
	repo := &memRepo{}
	book := stockBook{}
	svc := NewService(repo, book, nil)
	ctx := context.Background()

	rec := Recorder{ID: id.New(), Kind: ledger.KindPurchase, Version: 1}
	require.NoError(t, svc.Record(ctx, FromLines(rec, RecordTypeReceipt, lines(5, 2))))

	rec.Version = 2
	require.NoError(t, svc.Replace(ctx, rec.ID, FromLines(rec, RecordTypeReceipt, lines(1, 1))))

	assert.Equal(t, 2, book[paperID])
	assert.Equal(t, 1, book[inkID])
	moves, _ := svc.MovementsOf(ctx, rec.ID)
	require.Len(t, moves, 3)
	assert.Equal(t, 2, moves[0].RecorderVersion)
}

func TestRecord_Validates(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	rec := Recorder{ID: id.New(), Kind: ledger.KindSale}
	bad := FromLines(rec, RecordTypeExpense, lines(5, 2))
	bad[1].Quantity = 0
	assert.True(t, apperror.IsValidation(svc.Record(ctx, bad)))

	orphan := FromLines(Recorder{}, RecordTypeExpense, lines(1, 1))
	assert.True(t, apperror.IsValidation(svc.Record(ctx, orphan)))

	odd := FromLines(rec, RecordType("transfer"), lines(1, 1))
	assert.True(t, apperror.IsValidation(svc.Record(ctx, odd)))

	assert.Empty(t, repo.movements)
	assert.NoError(t, svc.Record(ctx, nil))
}

func TestRecord_RepositoryError(t *testing.T) {
	repo := &memRepo{createErr: errors.New("deadlock detected")}
	book := stockBook{}
	svc := NewService(repo, book, nil)

	err := svc.Record(context.Background(), FromLines(Recorder{ID: id.New()}, RecordTypeReceipt, lines(1, 1)))
	assert.ErrorIs(t, err, repo.createErr)
	assert.Empty(t, book)
}

func TestHistory_FiltersByType(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, FromLines(Recorder{ID: id.New()}, RecordTypeReceipt, lines(4, 1))))
	require.NoError(t, svc.Record(ctx, FromLines(Recorder{ID: id.New()}, RecordTypeExpense, lines(1, 1))))

	expense := RecordTypeExpense
	got, err := svc.History(ctx, paperID, MovementFilter{RecordType: &expense})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestEnter(t *testing.T) {
	repo := &memRepo{}
	book := stockBook{}
	committed := 0
	txm := tx.Func(func(ctx context.Context, fn func(ctx context.Context) error) error {
		if err := fn(ctx); err != nil {
			return err
		}
		committed++
		return nil
	})
	svc := NewService(repo, book, txm)
	ctx := context.Background()
	day := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)

	in, err := svc.Enter(ctx, Entry{ProductID: paperID, Type: EntryIn, Quantity: 10, Date: day, Reference: "opening"})
	require.NoError(t, err)
	assert.Equal(t, RecordTypeReceipt, in.RecordType)
	assert.Equal(t, RecorderManual, in.RecorderType)
	assert.Equal(t, day, in.Period)
	assert.Equal(t, "opening", in.Reference)

	_, err = svc.Enter(ctx, Entry{ProductID: paperID, Type: EntryOut, Quantity: 3})
	require.NoError(t, err)

	adj, err := svc.Enter(ctx, Entry{ProductID: paperID, Type: EntryAdjustment, Quantity: -2, Notes: "damaged in storage"})
	require.NoError(t, err)
	assert.Equal(t, RecordTypeAdjustment, adj.RecordType)
	assert.Equal(t, -2, adj.Signed())

	bal, err := svc.Balance(ctx, paperID)
	require.NoError(t, err)
	assert.Equal(t, 5, bal.Quantity)
	assert.Equal(t, 5, book[paperID])
	assert.Equal(t, 3, committed)
}

func TestEnter_Validates(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	cases := map[string]struct {
		entry Entry
		field string
	}{
		"no product":      {Entry{Type: EntryIn, Quantity: 1}, "productId"},
		"negative in":     {Entry{ProductID: paperID, Type: EntryIn, Quantity: -1}, "quantity"},
		"zero out":        {Entry{ProductID: paperID, Type: EntryOut}, "quantity"},
		"zero adjustment": {Entry{ProductID: paperID, Type: EntryAdjustment}, "quantity"},
		"unknown type":    {Entry{ProductID: paperID, Type: "transfer", Quantity: 1}, "type"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Enter(ctx, tc.entry)
			require.Error(t, err)
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Contains(t, fmt.Sprint(appErr.Details["errors"]), tc.field)
		})
	}
	assert.Empty(t, repo.movements)
}
