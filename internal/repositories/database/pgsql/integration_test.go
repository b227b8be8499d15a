package pgsql_test

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/estate_ledger/internal/apperrors"
	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/estate_ledger/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger/internal/core/services"
	"github.com/SscSPs/estate_ledger/internal/dto"
	"github.com/SscSPs/estate_ledger/internal/repositories/database/pgsql"
	"github.com/SscSPs/estate_ledger/pkg/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// startPostgres runs a migrated PostgreSQL container for the calling test.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL container test in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("ledger_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.RunMigrations(dsn, "file://../../../../migrations", slog.Default()))

	pool, err := database.NewPgxPool(ctx, dsn, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { database.ClosePgxPool(pool) })
	return pool
}

func newContainer(pool *pgxpool.Pool) *portssvc.ServiceContainer {
	settings := services.DefaultLedgerSettings()
	settings.Now = func() time.Time { return fixedNow }
	return services.NewServiceContainer(pgsql.NewRepositoryProvider(pool, 10*time.Second), services.WithLedgerSettings(settings))
}

func seedChart(t *testing.T, svc *portssvc.ServiceContainer) map[string]domain.Account {
	t.Helper()
	chart := []dto.CreateAccountRequest{
		{Code: "1000", Name: "Cash in Hand", AccountType: domain.Asset},
		{Code: "1010", Name: "Bank", AccountType: domain.Asset},
		{Code: "1050", Name: "Trust Cash", AccountType: domain.Asset, IsTrust: true},
		{Code: "1060", Name: "Trust Bank", AccountType: domain.Asset, IsTrust: true},
		{Code: "1200", Name: "Accounts Receivable", AccountType: domain.Asset},
		{Code: "2100", Name: "Client Advances", AccountType: domain.Liability},
		{Code: "2200", Name: "Dealer Payable", AccountType: domain.Liability},
		{Code: "4000", Name: "Sales Revenue", AccountType: domain.Revenue},
		{Code: "5100", Name: "Commission Expense", AccountType: domain.Expense},
	}
	out := make(map[string]domain.Account, len(chart))
	for _, req := range chart {
		acc, err := svc.Accounts.CreateAccount(context.Background(), req, "user-1")
		require.NoError(t, err)
		out[acc.Code] = *acc
	}
	return out
}

func balance(t *testing.T, svc *portssvc.ServiceContainer, acc domain.Account) string {
	t.Helper()
	bal, err := svc.Reporting.GetAccountBalance(context.Background(), acc.AccountID, time.Time{})
	require.NoError(t, err)
	return bal.Balance.String()
}

func TestPostgres_DealLifecycle(t *testing.T) {
	pool := startPostgres(t)
	svc := newContainer(pool)
	accounts := seedChart(t, svc)
	ctx := context.Background()

	deal, err := svc.Deal.CreateDeal(ctx, dto.CreateDealRequest{
		ClientID:       "cli-25-0001",
		DealerID:       "dl-25-0001",
		PropertyUnitID: "prop-25-0007",
		Title:          "Apartment 7",
		Amount:         decimal.NewFromInt(500000),
		Commission:     domain.CommissionConfig{Rate: decimal.RequireFromString("0.02")},
		Installments: []dto.InstallmentPlanItem{
			{Amount: decimal.NewFromInt(50000), DueDate: fixedNow.AddDate(0, 1, 0)},
			{Amount: decimal.NewFromInt(450000), DueDate: fixedNow.AddDate(0, 2, 0)},
		},
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "deal-25-0001", deal.Deal.DealNumber)

	booking, err := svc.Payment.CreatePayment(ctx, dto.CreatePaymentRequest{
		DealID: deal.Deal.DealID, Amount: decimal.NewFromInt(50000), Type: domain.PaymentBooking, Mode: domain.ModeCash,
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "pay-25-0001", booking.Payment.PaymentNumber)
	assert.Equal(t, "50000", balance(t, svc, accounts["2100"]))

	final, err := svc.Payment.CreatePayment(ctx, dto.CreatePaymentRequest{
		DealID: deal.Deal.DealID, Amount: decimal.NewFromInt(450000), Type: domain.PaymentFull, Mode: domain.ModeBank,
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StageClosedWon, final.Deal.Stage)
	assert.True(t, final.Deal.RevenueRecognized)

	assert.Equal(t, "500000", balance(t, svc, accounts["4000"]))
	assert.Equal(t, "0", balance(t, svc, accounts["2100"]))
	assert.Equal(t, "0", balance(t, svc, accounts["1200"]))
	assert.Equal(t, "10000", balance(t, svc, accounts["2200"]))

	again, err := svc.Deal.Recompute(ctx, deal.Deal.DealID, "user-2")
	require.NoError(t, err)
	assert.Equal(t, final.Deal.RecognitionEntryID, again.RecognitionEntryID)

	_, err = svc.Payment.RefundPayment(ctx, dto.RefundPaymentRequest{
		OriginalPaymentID: final.Payment.PaymentID, Amount: decimal.NewFromInt(450001), Reason: "too much",
	}, "user-1")
	require.ErrorIs(t, err, apperrors.ErrRefundExceedsOriginal)

	refund, err := svc.Payment.RefundPayment(ctx, dto.RefundPaymentRequest{
		OriginalPaymentID: final.Payment.PaymentID, Amount: decimal.NewFromInt(100000), Reason: "renegotiated",
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StageClosing, refund.Deal.Stage)
	assert.Equal(t, "0", balance(t, svc, accounts["4000"]))

	tb, err := svc.Reporting.GetTrialBalance(ctx, time.Time{})
	require.NoError(t, err)
	assert.True(t, tb.Balanced)

	st, err := svc.Reporting.GetClientStatement(ctx, "cli-25-0001")
	require.NoError(t, err)
	assert.Equal(t, "100000", st.ClosingBalance.String())
}

func TestPostgres_DuplicateNaturalKey(t *testing.T) {
	pool := startPostgres(t)
	svc := newContainer(pool)
	accounts := seedChart(t, svc)
	ctx := context.Background()

	req := dto.PostJournalRequest{
		NaturalKey: "opening:2025",
		Lines: []dto.JournalLineRequest{
			{AccountID: accounts["1010"].AccountID, Debit: decimal.NewFromInt(100)},
			{AccountID: accounts["4000"].AccountID, Credit: decimal.NewFromInt(100)},
		},
	}
	first, err := svc.Journal.Post(ctx, req, "user-1")
	require.NoError(t, err)

	_, err = svc.Journal.Post(ctx, req, "user-1")
	var dup *apperrors.DuplicatePostingError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, first.EntryID, dup.ExistingEntryID)
	assert.Equal(t, "100", balance(t, svc, accounts["1010"]))
}

func TestPostgres_ConcurrentSequenceIssue(t *testing.T) {
	pool := startPostgres(t)
	svc := newContainer(pool)

	const callers, perCaller = 10, 5
	var (
		mu     sync.Mutex
		values []int64
		wg     sync.WaitGroup
	)
	for c := 0; c < callers; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perCaller; i++ {
				v, err := svc.Sequence.Issue(context.Background(), domain.PrefixReceipt, 2025)
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				values = append(values, v)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, values, callers*perCaller)
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	for i, v := range values {
		assert.Equal(t, int64(i+1), v)
	}
}

func TestPostgres_FailedPaymentRollsBack(t *testing.T) {
	pool := startPostgres(t)
	svc := newContainer(pool)
	seedChart(t, svc)
	ctx := context.Background()

	first, err := svc.Deal.CreateDeal(ctx, dto.CreateDealRequest{ClientID: "cli-1", Amount: decimal.NewFromInt(1000),
		Installments: []dto.InstallmentPlanItem{{Amount: decimal.NewFromInt(1000), DueDate: fixedNow.AddDate(0, 1, 0)}}}, "user-1")
	require.NoError(t, err)
	other, err := svc.Deal.CreateDeal(ctx, dto.CreateDealRequest{ClientID: "cli-2", Amount: decimal.NewFromInt(1000),
		Installments: []dto.InstallmentPlanItem{{Amount: decimal.NewFromInt(1000), DueDate: fixedNow.AddDate(0, 1, 0)}}}, "user-1")
	require.NoError(t, err)

	foreign := other.Installments[0].InstallmentID
	_, err = svc.Payment.CreatePayment(ctx, dto.CreatePaymentRequest{
		DealID: first.Deal.DealID, Amount: decimal.NewFromInt(100), Type: domain.PaymentInstallment, Mode: domain.ModeBank,
		InstallmentID: &foreign,
	}, "user-1")
	require.ErrorIs(t, err, apperrors.ErrValidation)

	missing := "inst-does-not-exist"
	_, err = svc.Payment.CreatePayment(ctx, dto.CreatePaymentRequest{
		DealID: first.Deal.DealID, Amount: decimal.NewFromInt(100), Type: domain.PaymentInstallment, Mode: domain.ModeBank,
		InstallmentID: &missing,
	}, "user-1")
	require.ErrorIs(t, err, apperrors.ErrValidation)

	payments, err := svc.Payment.ListDealPayments(ctx, first.Deal.DealID)
	require.NoError(t, err)
	assert.Empty(t, payments)

	page, err := svc.Journal.ListEntries(ctx, dto.ListJournalsParams{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Journals)
}
