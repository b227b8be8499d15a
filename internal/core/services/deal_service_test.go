package services_test

import (
	"context"
	"testing"

	"github.com/SscSPs/estate_ledger/internal/apperrors"
	"github.com/SscSPs/estate_ledger/internal/core/domain"
	"github.com/SscSPs/estate_ledger/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeal_BookingThenBalanceClosesDealOnce(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()

	details, err := f.svc.Deal.CreateDeal(ctx, dto.CreateDealRequest{
		ClientID:       "cli-25-0001",
		DealerID:       "dl-25-0001",
		PropertyUnitID: "prop-25-0007",
		Title:          "Apartment 7, Tower B",
		Amount:         decimal.NewFromInt(500000),
		Commission:     domain.CommissionConfig{Rate: dec("0.02")},
	}, f.userID)
	require.NoError(t, err)
	deal := details.Deal
	assert.Equal(t, "deal-25-0001", deal.DealNumber)
	assert.Equal(t, domain.StageProspecting, deal.Stage)
	assert.Equal(t, domain.DealOpen, deal.Status)

	booking := f.pay(deal.DealID, 50000, domain.PaymentBooking, domain.ModeCash)
	assert.Equal(t, domain.DealInProgress, booking.Deal.Status)
	assert.Equal(t, domain.StageProspecting, booking.Deal.Stage)
	assert.Equal(t, f.accountID("1050"), booking.JournalEntry.Lines[0].AccountID, "advance must land in trust cash")
	assert.Equal(t, f.accountID("2100"), booking.JournalEntry.Lines[1].AccountID, "advance must be a liability, not receivable")
	assertDecimal(t, "0", f.balance("1200"))

	final := f.pay(deal.DealID, 450000, domain.PaymentFull, domain.ModeBank)
	assert.Equal(t, domain.StageClosedWon, final.Deal.Stage)
	assert.Equal(t, domain.DealClosed, final.Deal.Status)
	assert.True(t, final.Deal.AutoClosed)
	assert.True(t, final.Deal.RevenueRecognized)
	assertDecimal(t, "500000", final.Deal.PaidTotal)

	recognitions := f.entriesOfSource(domain.SourceRevenue)
	require.Len(t, recognitions, 1)
	require.NotNil(t, final.Deal.RecognitionEntryID)
	assert.Equal(t, recognitions[0].EntryID, *final.Deal.RecognitionEntryID)

	status, ok := f.store.UnitStatus("prop-25-0007")
	require.True(t, ok)
	assert.Equal(t, domain.UnitSold, status)

	assertDecimal(t, "500000", f.balance("4000"))
	assertDecimal(t, "0", f.balance("2100"))
	assertDecimal(t, "0", f.balance("1200"))
	assertDecimal(t, "50000", f.balance("1050"))
	assertDecimal(t, "450000", f.balance("1010"))
	assertDecimal(t, "10000", f.balance("2200"))
	assertDecimal(t, "10000", f.balance("5100"))
	f.requireBooksBalanced()

	client, err := f.svc.Reporting.GetClientStatement(ctx, "cli-25-0001")
	require.NoError(t, err)
	require.Len(t, client.Lines, 3)
	assert.Equal(t, "deal", client.Lines[0].Kind)
	assertDecimal(t, "500000", client.Lines[0].RunningBalance)
	assertDecimal(t, "450000", client.Lines[1].RunningBalance)
	assertDecimal(t, "0", client.ClosingBalance)

	dealer, err := f.svc.Reporting.GetDealerStatement(ctx, "dl-25-0001")
	require.NoError(t, err)
	require.Len(t, dealer.Lines, 1)
	assert.Equal(t, "commission", dealer.Lines[0].Kind)
	assertDecimal(t, "10000", dealer.ClosingBalance)
}

func TestDealRecompute_IsIdempotent(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	deal := f.createDeal(1000)
	closed := f.pay(deal.Deal.DealID, 1000, domain.PaymentFull, domain.ModeBank).Deal
	entriesBefore := len(f.entries())

	first, err := f.svc.Deal.Recompute(ctx, deal.Deal.DealID, f.userID)
	require.NoError(t, err)
	second, err := f.svc.Deal.Recompute(ctx, deal.Deal.DealID, "someone-else")
	require.NoError(t, err)

	assert.Equal(t, closed, *first)
	assert.Equal(t, *first, *second)
	assert.Len(t, f.entries(), entriesBefore)
	assert.Len(t, f.entriesOfSource(domain.SourceRevenue), 1)
}

func TestDeal_RefundBelowAmountReopensAutoClosedDeal(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	details, err := f.svc.Deal.CreateDeal(ctx, dto.CreateDealRequest{
		ClientID:       "cli-1",
		PropertyUnitID: "unit-9",
		Amount:         decimal.NewFromInt(1000),
	}, f.userID)
	require.NoError(t, err)
	paid := f.pay(details.Deal.DealID, 1000, domain.PaymentFull, domain.ModeBank)
	require.Equal(t, domain.StageClosedWon, paid.Deal.Stage)

	res, err := f.svc.Payment.RefundPayment(ctx, dto.RefundPaymentRequest{
		OriginalPaymentID: paid.Payment.PaymentID,
		Amount:            decimal.NewFromInt(200),
		Reason:            "price correction",
	}, f.userID)
	require.NoError(t, err)

	assert.Equal(t, domain.StageClosing, res.Deal.Stage)
	assert.Equal(t, domain.DealInProgress, res.Deal.Status)
	assert.False(t, res.Deal.AutoClosed)
	assert.False(t, res.Deal.RevenueRecognized)
	assert.Nil(t, res.Deal.RecognitionEntryID)
	assert.Equal(t, 2, res.Deal.RecognitionCycle)
	assert.Len(t, f.entriesOfSource(domain.SourceRevenueReversal), 1)
	assertDecimal(t, "0", f.balance("4000"))

	status, _ := f.store.UnitStatus("unit-9")
	assert.Equal(t, domain.UnitAvailable, status)

	// Paying the difference closes and recognizes again under a new cycle.
	again := f.pay(details.Deal.DealID, 200, domain.PaymentFull, domain.ModeBank)
	assert.Equal(t, domain.StageClosedWon, again.Deal.Stage)
	assert.Len(t, f.entriesOfSource(domain.SourceRevenue), 2)
	assertDecimal(t, "1000", f.balance("4000"))
	status, _ = f.store.UnitStatus("unit-9")
	assert.Equal(t, domain.UnitSold, status)
	f.requireBooksBalanced()
}

func TestDeal_ManualCloseThenReopen(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	deal := f.createDeal(300000)
	f.pay(deal.Deal.DealID, 50000, domain.PaymentBooking, domain.ModeCash)

	_, err := f.svc.Deal.AdvanceStage(ctx, deal.Deal.DealID, domain.StageClosing, f.userID)
	require.NoError(t, err)
	won, err := f.svc.Deal.AdvanceStage(ctx, deal.Deal.DealID, domain.StageClosedWon, f.userID)
	require.NoError(t, err)
	assert.Equal(t, domain.DealClosed, won.Status)
	assert.False(t, won.AutoClosed)
	assert.True(t, won.RevenueRecognized)

	recognition, err := f.svc.Journal.GetEntryByNaturalKey(ctx, "deal-revenue:"+deal.Deal.DealID+":1")
	require.NoError(t, err)
	debit, _ := recognition.Totals()
	assertDecimal(t, "300000", debit)
	assertDecimal(t, "250000", f.balance("1200"))
	assertDecimal(t, "0", f.balance("2100"))

	reopened, err := f.svc.Deal.Reopen(ctx, deal.Deal.DealID, domain.StageNegotiation, f.userID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageNegotiation, reopened.Stage)
	assert.Equal(t, domain.DealInProgress, reopened.Status)
	assert.Equal(t, 2, reopened.RecognitionCycle)
	assertDecimal(t, "0", f.balance("4000"))
	assertDecimal(t, "0", f.balance("1200"))
	assertDecimal(t, "50000", f.balance("2100"))

	_, err = f.svc.Journal.GetEntryByNaturalKey(ctx, "deal-revenue-reversal:"+deal.Deal.DealID+":1")
	require.NoError(t, err)

	_, err = f.svc.Deal.AdvanceStage(ctx, deal.Deal.DealID, domain.StageClosedWon, f.userID)
	require.NoError(t, err)
	_, err = f.svc.Journal.GetEntryByNaturalKey(ctx, "deal-revenue:"+deal.Deal.DealID+":2")
	require.NoError(t, err)
	assertDecimal(t, "300000", f.balance("4000"))
	f.requireBooksBalanced()
}

func TestDeal_TransitionRules(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	deal := f.createDeal(1000)
	id := deal.Deal.DealID

	_, err := f.svc.Deal.AdvanceStage(ctx, id, domain.StageProposal, f.userID)
	require.NoError(t, err)

	_, err = f.svc.Deal.AdvanceStage(ctx, id, domain.StageQualified, f.userID)
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition, "moving backwards")

	_, err = f.svc.Deal.AdvanceStage(ctx, id, domain.StageProposal, f.userID)
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition, "same stage")

	_, err = f.svc.Deal.Reopen(ctx, id, domain.StageQualified, f.userID)
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition, "reopening an open deal")

	_, err = f.svc.Deal.AdvanceStage(ctx, id, "archived", f.userID)
	require.ErrorIs(t, err, apperrors.ErrValidation)

	lost, err := f.svc.Deal.AdvanceStage(ctx, id, domain.StageClosedLost, f.userID)
	require.NoError(t, err)
	assert.Equal(t, domain.DealCancelled, lost.Status)
	assert.False(t, lost.RevenueRecognized)

	_, err = f.svc.Deal.AdvanceStage(ctx, id, domain.StageClosedWon, f.userID)
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition, "terminal deals must be reopened first")

	_, err = f.svc.Payment.CreatePayment(ctx, dto.CreatePaymentRequest{
		DealID: id, Amount: decimal.NewFromInt(10), Type: domain.PaymentPartial, Mode: domain.ModeCash,
	}, f.userID)
	require.ErrorIs(t, err, apperrors.ErrValidation, "closed-lost deals take no payments")

	_, err = f.svc.Deal.Reopen(ctx, id, domain.StageClosedWon, f.userID)
	require.ErrorIs(t, err, apperrors.ErrValidation)

	reopened, err := f.svc.Deal.Reopen(ctx, id, domain.StageQualified, f.userID)
	require.NoError(t, err)
	assert.Equal(t, domain.DealOpen, reopened.Status)
}

func TestDeal_FullyPaidCannotBeReopened(t *testing.T) {
	f := newLedgerFixture(t)
	deal := f.createDeal(1000)
	f.pay(deal.Deal.DealID, 1000, domain.PaymentFull, domain.ModeCash)

	_, err := f.svc.Deal.Reopen(context.Background(), deal.Deal.DealID, domain.StageNegotiation, f.userID)

	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestCreateDeal_Validation(t *testing.T) {
	f := newLedgerFixture(t)
	due := fixedNow.AddDate(0, 1, 0)

	tests := []struct {
		name string
		req  dto.CreateDealRequest
	}{
		{"missing client", dto.CreateDealRequest{Amount: decimal.NewFromInt(100)}},
		{"zero amount", dto.CreateDealRequest{ClientID: "c", Amount: decimal.Zero}},
		{"sub-cent amount", dto.CreateDealRequest{ClientID: "c", Amount: dec("100.001")}},
		{"terminal stage", dto.CreateDealRequest{ClientID: "c", Amount: decimal.NewFromInt(100), Stage: domain.StageClosedWon}},
		{"unknown stage", dto.CreateDealRequest{ClientID: "c", Amount: decimal.NewFromInt(100), Stage: "won"}},
		{"commission without dealer", dto.CreateDealRequest{ClientID: "c", Amount: decimal.NewFromInt(100), Commission: domain.CommissionConfig{Rate: dec("0.01")}}},
		{"negative commission", dto.CreateDealRequest{ClientID: "c", DealerID: "d", Amount: decimal.NewFromInt(100), Commission: domain.CommissionConfig{Rate: dec("-0.01")}}},
		{"plan exceeds amount", dto.CreateDealRequest{ClientID: "c", Amount: decimal.NewFromInt(100), Installments: []dto.InstallmentPlanItem{
			{Amount: decimal.NewFromInt(60), DueDate: due},
			{Amount: decimal.NewFromInt(50), DueDate: due},
		}}},
		{"installment without due date", dto.CreateDealRequest{ClientID: "c", Amount: decimal.NewFromInt(100), Installments: []dto.InstallmentPlanItem{
			{Amount: decimal.NewFromInt(60)},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Deal.CreateDeal(context.Background(), tt.req, f.userID)
			require.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestCreateDeal_ManualNumber(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	req := dto.CreateDealRequest{ClientID: "c", Amount: decimal.NewFromInt(100), DealNumber: "TOWER-B-07"}

	created, err := f.svc.Deal.CreateDeal(ctx, req, f.userID)
	require.NoError(t, err)
	assert.Equal(t, "TOWER-B-07", created.Deal.DealNumber)

	_, err = f.svc.Deal.CreateDeal(ctx, req, f.userID)
	require.ErrorIs(t, err, apperrors.ErrDuplicate)

	req.DealNumber = "deal-25-0001"
	_, err = f.svc.Deal.CreateDeal(ctx, req, f.userID)
	require.ErrorIs(t, err, apperrors.ErrValidation, "generated namespace is reserved")

	generated := f.createDeal(100)
	assert.Equal(t, "deal-25-0001", generated.Deal.DealNumber)
}

func TestSoftDeleteDeal(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	deal := f.createDeal(1000)

	require.NoError(t, f.svc.Deal.SoftDeleteDeal(ctx, deal.Deal.DealID, f.userID))
	require.NoError(t, f.svc.Deal.SoftDeleteDeal(ctx, deal.Deal.DealID, f.userID), "deleting twice is not an error")

	_, err := f.svc.Deal.GetDeal(ctx, deal.Deal.DealID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.Payment.CreatePayment(ctx, dto.CreatePaymentRequest{
		DealID: deal.Deal.DealID, Amount: decimal.NewFromInt(10), Type: domain.PaymentPartial, Mode: domain.ModeCash,
	}, f.userID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	require.ErrorIs(t, f.svc.Deal.SoftDeleteDeal(ctx, "missing", f.userID), apperrors.ErrNotFound)

	statement, err := f.svc.Reporting.GetClientStatement(ctx, "cli-1")
	require.NoError(t, err)
	assert.Empty(t, statement.Lines)
}
