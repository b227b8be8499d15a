package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/estate_ledger/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger/internal/core/services"
	"github.com/SscSPs/estate_ledger/internal/dto"
	"github.com/SscSPs/estate_ledger/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// ledgerFixture wires the full service container over an in-memory store with a seeded
// chart of accounts.
type ledgerFixture struct {
	t        *testing.T
	store    *memory.Store
	svc      *portssvc.ServiceContainer
	accounts map[string]domain.Account // by code
	userID   string
}

func newLedgerFixture(t *testing.T, opts ...services.ContainerOption) *ledgerFixture {
	t.Helper()
	settings := services.DefaultLedgerSettings()
	settings.Now = func() time.Time { return fixedNow }
	f := newBareFixture(t, settings, opts...)
	f.seedChart()
	return f
}

// newBareFixture builds the container over an empty chart of accounts.
func newBareFixture(t *testing.T, settings services.LedgerSettings, opts ...services.ContainerOption) *ledgerFixture {
	t.Helper()
	store := memory.NewStore()
	opts = append([]services.ContainerOption{services.WithLedgerSettings(settings)}, opts...)
	return &ledgerFixture{
		t:        t,
		store:    store,
		svc:      services.NewServiceContainer(memory.NewRepositoryProvider(store), opts...),
		accounts: make(map[string]domain.Account),
		userID:   "user-1",
	}
}

func (f *ledgerFixture) seedChart() {
	f.t.Helper()
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
	for _, req := range chart {
		acc, err := f.svc.Accounts.CreateAccount(context.Background(), req, f.userID)
		require.NoError(f.t, err)
		f.accounts[acc.Code] = *acc
	}
}

func (f *ledgerFixture) accountID(code string) string {
	f.t.Helper()
	acc, ok := f.accounts[code]
	require.True(f.t, ok, "account %s not seeded", code)
	return acc.AccountID
}

// balance returns the normal-side balance of the account with the given code.
func (f *ledgerFixture) balance(code string) decimal.Decimal {
	f.t.Helper()
	bal, err := f.svc.Reporting.GetAccountBalance(context.Background(), f.accountID(code), time.Time{})
	require.NoError(f.t, err)
	return bal.Balance
}

func (f *ledgerFixture) createDeal(amount int64, installments ...int64) *dto.DealDetails {
	f.t.Helper()
	req := dto.CreateDealRequest{
		ClientID: "cli-1",
		Title:    "Unit 7, Block C",
		Amount:   decimal.NewFromInt(amount),
	}
	for i, a := range installments {
		req.Installments = append(req.Installments, dto.InstallmentPlanItem{
			Amount:  decimal.NewFromInt(a),
			DueDate: fixedNow.AddDate(0, i+1, 0),
		})
	}
	details, err := f.svc.Deal.CreateDeal(context.Background(), req, f.userID)
	require.NoError(f.t, err)
	return details
}

func (f *ledgerFixture) pay(dealID string, amount int64, paymentType domain.PaymentType, mode domain.PaymentMode) *dto.PaymentResult {
	f.t.Helper()
	res, err := f.svc.Payment.CreatePayment(context.Background(), dto.CreatePaymentRequest{
		DealID: dealID,
		Amount: decimal.NewFromInt(amount),
		Type:   paymentType,
		Mode:   mode,
	}, f.userID)
	require.NoError(f.t, err)
	return res
}

func (f *ledgerFixture) installments(dealID string) []domain.DealInstallment {
	f.t.Helper()
	details, err := f.svc.Deal.GetDeal(context.Background(), dealID)
	require.NoError(f.t, err)
	return details.Installments
}

// entries returns every journal entry, newest first.
func (f *ledgerFixture) entries() []domain.JournalEntry {
	f.t.Helper()
	resp, err := f.svc.Journal.ListEntries(context.Background(), dto.ListJournalsParams{Limit: 100})
	require.NoError(f.t, err)
	return resp.Journals
}

func (f *ledgerFixture) entriesOfSource(source string) []domain.JournalEntry {
	var out []domain.JournalEntry
	for _, e := range f.entries() {
		if e.SourceType == source {
			out = append(out, e)
		}
	}
	return out
}

// requireBooksBalanced checks every posted entry and the trial balance.
func (f *ledgerFixture) requireBooksBalanced() {
	f.t.Helper()
	for _, e := range f.entries() {
		if e.Status == domain.Posted {
			require.True(f.t, e.IsBalanced(), "entry %s is unbalanced", e.EntryNumber)
		}
	}
	tb, err := f.svc.Reporting.GetTrialBalance(context.Background(), time.Time{})
	require.NoError(f.t, err)
	require.True(f.t, tb.Balanced)
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}
