package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/estate_ledger/internal/apperrors"
	"github.com/SscSPs/estate_ledger/internal/core/domain"
	"github.com/SscSPs/estate_ledger/internal/core/services"
	"github.com/SscSPs/estate_ledger/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func TestCreatePayment_AllocatesEarliestDueFirst(t *testing.T) {
	f := newLedgerFixture(t)
	deal := f.createDeal(600, 100, 200, 300)

	res := f.pay(deal.Deal.DealID, 250, domain.PaymentInstallment, domain.ModeBank)

	require.NotNil(t, res.Allocation)
	require.Len(t, res.Allocation.Lines, 2)
	first, second := res.Allocation.Lines[0], res.Allocation.Lines[1]
	assert.Equal(t, 1, first.SequenceNo)
	assertDecimal(t, "100", first.AmountApplied)
	assert.Equal(t, domain.InstallmentPaid, first.ResultingStatus)
	assert.Equal(t, 2, second.SequenceNo)
	assertDecimal(t, "150", second.AmountApplied)
	assertDecimal(t, "200", second.BalanceBefore)
	assertDecimal(t, "50", second.BalanceAfter)
	assert.Equal(t, domain.InstallmentPartial, second.ResultingStatus)
	assertDecimal(t, "250", res.Allocation.TotalAllocated)
	assertDecimal(t, "0", res.Allocation.Leftover)

	plan := f.installments(deal.Deal.DealID)
	require.Len(t, plan, 3)
	assert.Equal(t, domain.InstallmentPaid, plan[0].Status)
	assert.Equal(t, domain.InstallmentPartial, plan[1].Status)
	assertDecimal(t, "150", plan[1].PaidAmount)
	assert.Equal(t, domain.InstallmentPending, plan[2].Status)
	assertDecimal(t, "0", plan[2].PaidAmount)

	assert.Equal(t, "pay-25-0001", res.Payment.PaymentNumber)
	assert.Equal(t, domain.DealInProgress, res.Deal.Status)
	assertDecimal(t, "250", res.Deal.PaidTotal)

	// Installment money settles the receivable, not the advances liability.
	require.Len(t, res.JournalEntry.Lines, 2)
	assert.Equal(t, f.accountID("1010"), res.JournalEntry.Lines[0].AccountID)
	assert.Equal(t, f.accountID("1200"), res.JournalEntry.Lines[1].AccountID)
	assert.Equal(t, "payment:"+res.Payment.PaymentID, res.JournalEntry.NaturalKey)
	assert.Equal(t, deal.Deal.DealID, res.JournalEntry.Lines[0].Tags.DealID)
	assertDecimal(t, "250", f.balance("1010"))
	assertDecimal(t, "-250", f.balance("1200"))
	f.requireBooksBalanced()
}

func TestCreatePayment_PostingRoles(t *testing.T) {
	tests := []struct {
		name        string
		paymentType domain.PaymentType
		mode        domain.PaymentMode
		debitCode   string
		creditCode  string
	}{
		{"cash booking held in trust", domain.PaymentBooking, domain.ModeCash, "1050", "2100"},
		{"bank token held in trust", domain.PaymentToken, domain.ModeBank, "1060", "2100"},
		{"cash installment", domain.PaymentInstallment, domain.ModeCash, "1000", "1200"},
		{"other-mode partial goes through bank", domain.PaymentPartial, domain.ModeOther, "1010", "1200"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t)
			deal := f.createDeal(1000)

			res := f.pay(deal.Deal.DealID, 400, tt.paymentType, tt.mode)

			lines := res.JournalEntry.Lines
			require.Len(t, lines, 2)
			assert.Equal(t, f.accountID(tt.debitCode), lines[0].AccountID)
			assertDecimal(t, "400", lines[0].Debit)
			assert.Equal(t, f.accountID(tt.creditCode), lines[1].AccountID)
			assertDecimal(t, "400", lines[1].Credit)
			assert.Equal(t, domain.SourcePayment, res.JournalEntry.SourceType)
			f.requireBooksBalanced()
		})
	}
}

func TestCreatePayment_TargetedInstallment(t *testing.T) {
	f := newLedgerFixture(t)
	deal := f.createDeal(600, 100, 200, 300)
	plan := f.installments(deal.Deal.DealID)
	third := plan[2].InstallmentID

	res, err := f.svc.Payment.CreatePayment(context.Background(), dto.CreatePaymentRequest{
		DealID:        deal.Deal.DealID,
		Amount:        decimal.NewFromInt(350),
		Type:          domain.PaymentInstallment,
		Mode:          domain.ModeBank,
		InstallmentID: &third,
	}, f.userID)
	require.NoError(t, err)

	require.Len(t, res.Allocation.Lines, 2)
	assert.Equal(t, third, res.Allocation.Lines[0].InstallmentID)
	assertDecimal(t, "300", res.Allocation.Lines[0].AmountApplied)
	assert.Equal(t, 1, res.Allocation.Lines[1].SequenceNo)
	assertDecimal(t, "50", res.Allocation.Lines[1].AmountApplied)

	plan = f.installments(deal.Deal.DealID)
	assert.Equal(t, domain.InstallmentPartial, plan[0].Status)
	assert.Equal(t, domain.InstallmentPending, plan[1].Status)
	assert.Equal(t, domain.InstallmentPaid, plan[2].Status)
}

func TestCreatePayment_TargetedPaidInstallmentFallsBackToFIFO(t *testing.T) {
	f := newLedgerFixture(t)
	deal := f.createDeal(600, 100, 200, 300)
	first := f.installments(deal.Deal.DealID)[0].InstallmentID
	f.pay(deal.Deal.DealID, 100, domain.PaymentInstallment, domain.ModeBank)

	res, err := f.svc.Payment.CreatePayment(context.Background(), dto.CreatePaymentRequest{
		DealID:        deal.Deal.DealID,
		Amount:        decimal.NewFromInt(80),
		Type:          domain.PaymentInstallment,
		Mode:          domain.ModeBank,
		InstallmentID: &first,
	}, f.userID)
	require.NoError(t, err)

	require.Len(t, res.Allocation.Lines, 1)
	assert.Equal(t, 2, res.Allocation.Lines[0].SequenceNo)
	assertDecimal(t, "80", res.Allocation.Lines[0].AmountApplied)
}

func TestCreatePayment_InstallmentOfAnotherDealRejected(t *testing.T) {
	f := newLedgerFixture(t)
	deal := f.createDeal(600, 100)
	other := f.createDeal(600, 100)
	foreign := f.installments(other.Deal.DealID)[0].InstallmentID

	_, err := f.svc.Payment.CreatePayment(context.Background(), dto.CreatePaymentRequest{
		DealID:        deal.Deal.DealID,
		Amount:        decimal.NewFromInt(50),
		Type:          domain.PaymentInstallment,
		Mode:          domain.ModeCash,
		InstallmentID: &foreign,
	}, f.userID)

	require.ErrorIs(t, err, apperrors.ErrValidation)
	payments, err := f.svc.Payment.ListDealPayments(context.Background(), deal.Deal.DealID)
	require.NoError(t, err)
	assert.Empty(t, payments, "failed payment must leave nothing behind")
	assert.Empty(t, f.entries())
}

func TestCreatePayment_UnknownInstallmentRejected(t *testing.T) {
	f := newLedgerFixture(t)
	deal := f.createDeal(600, 100, 500)
	missing := "inst-does-not-exist"

	_, err := f.svc.Payment.CreatePayment(context.Background(), dto.CreatePaymentRequest{
		DealID:        deal.Deal.DealID,
		Amount:        decimal.NewFromInt(50),
		Type:          domain.PaymentInstallment,
		Mode:          domain.ModeBank,
		InstallmentID: &missing,
	}, f.userID)

	require.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), missing)
	payments, err := f.svc.Payment.ListDealPayments(context.Background(), deal.Deal.DealID)
	require.NoError(t, err)
	assert.Empty(t, payments)
	assert.Empty(t, f.entries())
	for _, inst := range f.installments(deal.Deal.DealID) {
		assert.True(t, inst.PaidAmount.IsZero())
	}

	res := f.pay(deal.Deal.DealID, 50, domain.PaymentInstallment, domain.ModeBank)
	assert.Equal(t, "pay-25-0001", res.Payment.PaymentNumber)
}

func TestCreatePayment_Overpayment(t *testing.T) {
	f := newLedgerFixture(t)
	deal := f.createDeal(600, 100, 200)

	res := f.pay(deal.Deal.DealID, 700, domain.PaymentFull, domain.ModeBank)

	assertDecimal(t, "300", res.Allocation.TotalAllocated)
	assertDecimal(t, "400", res.Allocation.Leftover)
	assertDecimal(t, "700", res.Deal.PaidTotal)
	assert.Equal(t, domain.StageClosedWon, res.Deal.Stage)
	assert.Equal(t, domain.DealClosed, res.Deal.Status)
	f.requireBooksBalanced()
}

func TestCreatePayment_Validation(t *testing.T) {
	f := newLedgerFixture(t)
	deal := f.createDeal(1000)

	tests := []struct {
		name    string
		req     dto.CreatePaymentRequest
		wantErr error
	}{
		{"zero amount", dto.CreatePaymentRequest{DealID: deal.Deal.DealID, Amount: decimal.Zero, Type: domain.PaymentFull, Mode: domain.ModeCash}, apperrors.ErrValidation},
		{"negative amount", dto.CreatePaymentRequest{DealID: deal.Deal.DealID, Amount: decimal.NewFromInt(-5), Type: domain.PaymentFull, Mode: domain.ModeCash}, apperrors.ErrValidation},
		{"sub-cent amount", dto.CreatePaymentRequest{DealID: deal.Deal.DealID, Amount: dec("10.005"), Type: domain.PaymentFull, Mode: domain.ModeCash}, apperrors.ErrValidation},
		{"refund type", dto.CreatePaymentRequest{DealID: deal.Deal.DealID, Amount: decimal.NewFromInt(5), Type: domain.PaymentRefund, Mode: domain.ModeCash}, apperrors.ErrValidation},
		{"unknown mode", dto.CreatePaymentRequest{DealID: deal.Deal.DealID, Amount: decimal.NewFromInt(5), Type: domain.PaymentFull, Mode: "cheque"}, apperrors.ErrValidation},
		{"unknown deal", dto.CreatePaymentRequest{DealID: "missing", Amount: decimal.NewFromInt(5), Type: domain.PaymentFull, Mode: domain.ModeCash}, apperrors.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Payment.CreatePayment(context.Background(), tt.req, f.userID)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, f.entries())
}

func TestCreatePayment_UnresolvableRoleFails(t *testing.T) {
	settings := services.DefaultLedgerSettings()
	settings.Now = func() time.Time { return fixedNow }
	settings.AccountNameFallback = false
	f := newBareFixture(t, settings)
	deal := f.createDeal(1000)

	_, err := f.svc.Payment.CreatePayment(context.Background(), dto.CreatePaymentRequest{
		DealID: deal.Deal.DealID, Amount: decimal.NewFromInt(10), Type: domain.PaymentFull, Mode: domain.ModeCash,
	}, f.userID)

	require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
	payments, err := f.svc.Payment.ListDealPayments(context.Background(), deal.Deal.DealID)
	require.NoError(t, err)
	assert.Empty(t, payments)
	assert.Empty(t, f.entries())
}

func TestRefundPayment_Symmetry(t *testing.T) {
	for _, refund := range []int64{50, 120, 150, 200, 250} {
		t.Run(decimal.NewFromInt(refund).String(), func(t *testing.T) {
			f := newLedgerFixture(t)
			deal := f.createDeal(600, 100, 200, 300)
			paid := f.pay(deal.Deal.DealID, 250, domain.PaymentInstallment, domain.ModeBank)

			res, err := f.svc.Payment.RefundPayment(context.Background(), dto.RefundPaymentRequest{
				OriginalPaymentID: paid.Payment.PaymentID,
				Amount:            decimal.NewFromInt(refund),
				Reason:            "client withdrew part of the payment",
			}, f.userID)
			require.NoError(t, err)

			assert.True(t, paid.Deal.PaidTotal.Sub(decimal.NewFromInt(refund)).Equal(res.Deal.PaidTotal))

			// The plan must look as if only the net amount had been paid.
			reference := newLedgerFixture(t)
			refDeal := reference.createDeal(600, 100, 200, 300)
			if net := 250 - refund; net > 0 {
				reference.pay(refDeal.Deal.DealID, net, domain.PaymentInstallment, domain.ModeBank)
			}
			got, want := f.installments(deal.Deal.DealID), reference.installments(refDeal.Deal.DealID)
			require.Len(t, got, len(want))
			for i := range want {
				assert.Equal(t, want[i].Status, got[i].Status, "installment %d status", i+1)
				assert.True(t, want[i].PaidAmount.Equal(got[i].PaidAmount), "installment %d paid %s, want %s", i+1, got[i].PaidAmount, want[i].PaidAmount)
			}
			f.requireBooksBalanced()
		})
	}
}

func TestRefundPayment_MirrorsOriginalLines(t *testing.T) {
	f := newLedgerFixture(t)
	deal := f.createDeal(1000)
	paid := f.pay(deal.Deal.DealID, 400, domain.PaymentBooking, domain.ModeBank)

	// Remap the trust bank role; the refund must still land on the original accounts.
	ctx := context.Background()
	isPostable := true
	newTrust, err := f.svc.Accounts.CreateAccount(ctx, dto.CreateAccountRequest{
		Code: "1061", Name: "Trust Bank Two", AccountType: domain.Asset, IsPostable: &isPostable, IsTrust: true,
	}, f.userID)
	require.NoError(t, err)
	f.accounts[newTrust.Code] = *newTrust
	_, err = f.svc.Accounts.MapRole(ctx, dto.MapRoleRequest{Role: domain.RoleTrustBank, AccountID: newTrust.AccountID}, f.userID)
	require.NoError(t, err)

	res, err := f.svc.Payment.RefundPayment(ctx, dto.RefundPaymentRequest{
		OriginalPaymentID: paid.Payment.PaymentID,
		Amount:            decimal.NewFromInt(150),
		Reason:            "booking cancelled",
	}, f.userID)
	require.NoError(t, err)

	lines := res.JournalEntry.Lines
	require.Len(t, lines, 2)
	assert.Equal(t, paid.JournalEntry.Lines[0].AccountID, lines[0].AccountID)
	assertDecimal(t, "150", lines[0].Credit)
	assert.Equal(t, paid.JournalEntry.Lines[1].AccountID, lines[1].AccountID)
	assertDecimal(t, "150", lines[1].Debit)
	assert.Equal(t, domain.SourceRefund, res.JournalEntry.SourceType)

	assert.Equal(t, domain.PaymentRefund, res.Payment.Type)
	require.NotNil(t, res.Payment.RefundOfID)
	assert.Equal(t, paid.Payment.PaymentID, *res.Payment.RefundOfID)
	assert.Equal(t, "pay-25-0002", res.Payment.PaymentNumber)
	assertDecimal(t, "250", f.balance("1060"))
	assertDecimal(t, "0", f.balance("1061"))
	assertDecimal(t, "250", f.balance("2100"))
	f.requireBooksBalanced()
}

func TestRefundPayment_Bounds(t *testing.T) {
	f := newLedgerFixture(t)
	deal := f.createDeal(1000)
	paid := f.pay(deal.Deal.DealID, 400, domain.PaymentPartial, domain.ModeCash)
	ctx := context.Background()

	refund := func(amount int64) error {
		_, err := f.svc.Payment.RefundPayment(ctx, dto.RefundPaymentRequest{
			OriginalPaymentID: paid.Payment.PaymentID,
			Amount:            decimal.NewFromInt(amount),
			Reason:            "adjustment",
		}, f.userID)
		return err
	}

	require.ErrorIs(t, refund(401), apperrors.ErrRefundExceedsOriginal)
	require.NoError(t, refund(300))
	require.ErrorIs(t, refund(101), apperrors.ErrInsufficientCounterpartAmount)
	require.NoError(t, refund(100))
	require.ErrorIs(t, refund(1), apperrors.ErrRefundExceedsOriginal)

	d, err := f.svc.Deal.GetDeal(ctx, deal.Deal.DealID)
	require.NoError(t, err)
	assertDecimal(t, "0", d.Deal.PaidTotal)
	assertDecimal(t, "0", f.balance("1000"))
	f.requireBooksBalanced()
}

func TestRefundPayment_UnallocatedMoneyGoesBackFirst(t *testing.T) {
	f := newLedgerFixture(t)
	deal := f.createDeal(600, 100)
	paid := f.pay(deal.Deal.DealID, 300, domain.PaymentPartial, domain.ModeBank)
	ctx := context.Background()

	first, err := f.svc.Payment.RefundPayment(ctx, dto.RefundPaymentRequest{
		OriginalPaymentID: paid.Payment.PaymentID, Amount: decimal.NewFromInt(150), Reason: "overpaid",
	}, f.userID)
	require.NoError(t, err)
	assert.Empty(t, first.Reversals)
	assert.Equal(t, domain.InstallmentPaid, f.installments(deal.Deal.DealID)[0].Status)

	second, err := f.svc.Payment.RefundPayment(ctx, dto.RefundPaymentRequest{
		OriginalPaymentID: paid.Payment.PaymentID, Amount: decimal.NewFromInt(100), Reason: "overpaid",
	}, f.userID)
	require.NoError(t, err)
	require.Len(t, second.Reversals, 1)
	assertDecimal(t, "-50", second.Reversals[0].AmountApplied)

	plan := f.installments(deal.Deal.DealID)
	assert.Equal(t, domain.InstallmentPartial, plan[0].Status)
	assertDecimal(t, "50", plan[0].PaidAmount)
}

func TestRefundPayment_Rejections(t *testing.T) {
	f := newLedgerFixture(t)
	deal := f.createDeal(1000)
	paid := f.pay(deal.Deal.DealID, 400, domain.PaymentPartial, domain.ModeCash)
	ctx := context.Background()
	refund, err := f.svc.Payment.RefundPayment(ctx, dto.RefundPaymentRequest{
		OriginalPaymentID: paid.Payment.PaymentID, Amount: decimal.NewFromInt(10), Reason: "fee",
	}, f.userID)
	require.NoError(t, err)

	_, err = f.svc.Payment.RefundPayment(ctx, dto.RefundPaymentRequest{
		OriginalPaymentID: refund.Payment.PaymentID, Amount: decimal.NewFromInt(5), Reason: "again",
	}, f.userID)
	require.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.svc.Payment.RefundPayment(ctx, dto.RefundPaymentRequest{
		OriginalPaymentID: paid.Payment.PaymentID, Amount: decimal.NewFromInt(5), Reason: "   ",
	}, f.userID)
	require.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.svc.Payment.RefundPayment(ctx, dto.RefundPaymentRequest{
		OriginalPaymentID: "missing", Amount: decimal.NewFromInt(5), Reason: "x",
	}, f.userID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

// recordingSink collects audit events; failWith makes every publish fail.
type recordingSink struct {
	mu       sync.Mutex
	events   []domain.AuditEvent
	failWith error
}

func (s *recordingSink) Publish(_ context.Context, event domain.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Action
	}
	return out
}

func TestPayment_PublishesAuditAfterCommit(t *testing.T) {
	sink := &recordingSink{}
	f := newLedgerFixture(t, services.WithAuditSink(sink))
	deal := f.createDeal(1000)

	paid := f.pay(deal.Deal.DealID, 400, domain.PaymentPartial, domain.ModeCash)
	_, err := f.svc.Payment.RefundPayment(context.Background(), dto.RefundPaymentRequest{
		OriginalPaymentID: paid.Payment.PaymentID, Amount: decimal.NewFromInt(100), Reason: "fee",
	}, f.userID)
	require.NoError(t, err)

	assert.Equal(t, []string{"deal.created", "payment.created", "payment.refunded"}, sink.actions())
	sink.mu.Lock()
	defer sink.mu.Unlock()
	assert.Equal(t, paid.Payment.PaymentNumber, sink.events[1].Attributes["paymentNumber"])
	assert.Equal(t, f.userID, sink.events[1].Actor)
}

func TestPayment_AuditFailureDoesNotUndoPosting(t *testing.T) {
	sink := &recordingSink{failWith: errors.New("stream unavailable")}
	f := newLedgerFixture(t, services.WithAuditSink(sink))
	deal := f.createDeal(1000)

	res := f.pay(deal.Deal.DealID, 400, domain.PaymentPartial, domain.ModeCash)

	stored, err := f.svc.Payment.GetPayment(context.Background(), res.Payment.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, res.Payment.PaymentNumber, stored.PaymentNumber)
	assertDecimal(t, "400", f.balance("1000"))
}
