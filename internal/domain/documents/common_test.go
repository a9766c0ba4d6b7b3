package documents

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
	"tradedesk/internal/core/types"
	"tradedesk/internal/domain/ledger"
)

func TestSubmissionFailure(t *testing.T) {
	dbErr := errors.New("connection reset by peer")

	err := SubmissionFailure(ledger.KindSale, fmt.Errorf("create document: %w", dbErr))
	assert.True(t, apperror.IsSubmission(err))
	assert.True(t, apperror.IsRetryable(err))
	assert.ErrorIs(t, err, dbErr)

	conflict := apperror.NewConcurrentModification("purchase", "x")
	assert.Same(t, conflict, SubmissionFailure(ledger.KindPurchase, conflict))

	assert.ErrorIs(t, SubmissionFailure(ledger.KindSale, context.Canceled), context.Canceled)
	assert.NoError(t, SubmissionFailure(ledger.KindSale, nil))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, Outcome(nil))
	assert.Equal(t, OutcomeInvalid, Outcome(apperror.NewValidation("bad")))
	assert.Equal(t, OutcomeConflict, Outcome(DraftClosed(ledger.KindSale)))
	assert.Equal(t, OutcomeFailed, Outcome(apperror.NewSubmission("sale", errors.New("x"))))
	assert.Equal(t, OutcomeFailed, Outcome(errors.New("x")))
}

func TestDraftClosed(t *testing.T) {
	err := DraftClosed(ledger.KindPurchase)
	assert.ErrorIs(t, err, ErrDraftClosed)
	assert.Equal(t, 422, err.HTTPStatus)
}

func TestValidateDates(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	before := start.AddDate(0, 0, -1)
	after := start.AddDate(0, 0, 7)

	assert.Nil(t, ValidateDates("expectedDeliveryDate", start, nil))
	assert.Nil(t, ValidateDates("expectedDeliveryDate", start, &after))
	assert.Equal(t, "expectedDeliveryDate", ValidateDates("expectedDeliveryDate", start, &before).Field())
}

func TestPaymentEnums(t *testing.T) {
	assert.True(t, PaymentPartial.Valid())
	assert.False(t, PaymentStatus("overdue").Valid())
	assert.True(t, PaymentMethod("").Valid())
	assert.False(t, PaymentMethod("barter").Valid())
}

func TestStatusForPaid(t *testing.T) {
	total := types.MustMoney("525")

	assert.Equal(t, PaymentUnpaid, StatusForPaid(total, types.Zero()))
	assert.Equal(t, PaymentPartial, StatusForPaid(total, types.MustMoney("0.01")))
	assert.Equal(t, PaymentPaid, StatusForPaid(total, total))
	assert.Equal(t, PaymentPaid, StatusForPaid(total, types.MustMoney("600")))
	assert.Equal(t, PaymentUnpaid, StatusForPaid(types.Zero(), types.Zero()))
}

func TestPaymentInput_Validate(t *testing.T) {
	ok := PaymentInput{Amount: types.MustMoney("100"), Method: PaymentBankTransfer}
	assert.Empty(t, ok.Validate())

	errs := PaymentInput{Amount: types.MustMoney("-5")}.Validate()
	assert.True(t, errs.HasField("amount"))
	assert.True(t, errs.HasField("method"))

	errs = PaymentInput{Amount: types.MustMoney("10.005"), Method: "barter"}.Validate()
	assert.True(t, errs.HasField("amount"))
	assert.True(t, errs.HasField("method"))
}

func TestCheckPaymentFits(t *testing.T) {
	total := types.MustMoney("100")
	paid := types.MustMoney("60")

	assert.Nil(t, CheckPaymentFits(total, paid, types.MustMoney("40")))

	err := CheckPaymentFits(total, paid, types.MustMoney("40.01"))
	require.NotNil(t, err)
	assert.Equal(t, "amount", err.Field())
	assert.Equal(t, "40.00", err.Details["balanceDue"])

	assert.NotNil(t, CheckTotalCoversPaid(types.MustMoney("50"), paid))
	assert.Nil(t, CheckTotalCoversPaid(total, paid))
	assert.True(t, BalanceDue(types.MustMoney("50"), paid).IsZero())
}

func TestNewPayment_DefaultsDate(t *testing.T) {
	docID := id.New()
	p := NewPayment(ledger.KindPurchase, docID, PaymentInput{Amount: types.MustMoney("1"), Method: PaymentCash})

	assert.Equal(t, docID, p.DocumentID)
	assert.Equal(t, ledger.KindPurchase, p.DocumentKind)
	assert.Equal(t, Today(), p.Date)
	assert.False(t, id.IsNil(p.ID))
}
