package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/estate_ledger/internal/apperrors"
	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/estate_ledger/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger/internal/utils/accounting"
)

// reportingService implements the ReportingService interface
type reportingService struct {
	BaseService
	reportingRepo portsrepo.ReportingRepository
	accountRepo   portsrepo.AccountReader
	roles         portssvc.RoleResolver
	settings      LedgerSettings
}

// NewReportingService creates a new reporting service.
func NewReportingService(repo portsrepo.ReportingRepository, accountRepo portsrepo.AccountReader, roles portssvc.RoleResolver, settings LedgerSettings) portssvc.ReportingService {
	return &reportingService{
		reportingRepo: repo,
		accountRepo:   accountRepo,
		roles:         roles,
		settings:      settings,
	}
}

// Ensure reportingService implements the ReportingService interface
var _ portssvc.ReportingService = (*reportingService)(nil)

func (s *reportingService) asOfOrNow(asOf time.Time) time.Time {
	if asOf.IsZero() {
		return s.settings.now()
	}
	return asOf
}

// GetAccountBalance returns the balance of an account on its normal side.
func (s *reportingService) GetAccountBalance(ctx context.Context, accountID string, asOf time.Time) (*domain.AccountBalance, error) {
	asOf = s.asOfOrNow(asOf)
	acc, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrAccountNotFound, accountID)
		}
		return nil, err
	}
	debit, credit, err := s.reportingRepo.AccountTotals(ctx, accountID, asOf)
	if err != nil {
		s.LogError(ctx, err, "Failed to total account", slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to total account %s: %w", acc.Code, err)
	}
	balance := accounting.SignedAmount(domain.JournalLine{Debit: debit, Credit: credit}, acc.NormalSide)
	return &domain.AccountBalance{
		AccountID:  acc.AccountID,
		Code:       acc.Code,
		Name:       acc.Name,
		NormalSide: acc.NormalSide,
		Balance:    balance,
		AsOf:       asOf,
	}, nil
}

// GetTrialBalance lists debit and credit totals per account as of a date.
func (s *reportingService) GetTrialBalance(ctx context.Context, asOf time.Time) (*domain.TrialBalance, error) {
	asOf = s.asOfOrNow(asOf)
	rows, err := s.reportingRepo.TrialBalanceRows(ctx, asOf)
	if err != nil {
		s.LogError(ctx, err, "Failed to retrieve trial balance data",
			slog.String("asOf", asOf.Format(time.RFC3339)))
		return nil, fmt.Errorf("failed to retrieve trial balance data: %w", err)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].AccountCode < rows[j].AccountCode })

	tb := &domain.TrialBalance{AsOf: asOf, Rows: rows, TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	if tb.Rows == nil {
		tb.Rows = []domain.TrialBalanceRow{}
	}
	for _, r := range rows {
		tb.TotalDebit = tb.TotalDebit.Add(r.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(r.Credit)
	}
	tb.Balanced = tb.TotalDebit.Equal(tb.TotalCredit)
	if !tb.Balanced {
		// Every posting is balanced, so this means the store was written around the engine.
		s.LogError(ctx, apperrors.ErrUnbalancedEntry, "Trial balance does not balance",
			slog.String("debit", tb.TotalDebit.String()),
			slog.String("credit", tb.TotalCredit.String()))
	}
	s.LogInfo(ctx, "Trial balance report generated successfully",
		slog.String("asOf", asOf.Format(time.RFC3339)),
		slog.Int("row_count", len(rows)))
	return tb, nil
}

var statementKindOrder = map[string]int{"deal": 0, "commission": 1, "payment": 2, "payout": 3, "refund": 4}

// replay orders events chronologically and accumulates the running balance.
// debitIncreases selects whether debits raise (client) or lower (dealer) the balance.
func replay(partyID, partyType string, events []domain.StatementEvent, debitIncreases bool) *domain.PartyStatement {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		if statementKindOrder[events[i].Kind] != statementKindOrder[events[j].Kind] {
			return statementKindOrder[events[i].Kind] < statementKindOrder[events[j].Kind]
		}
		return events[i].Reference < events[j].Reference
	})

	st := &domain.PartyStatement{PartyID: partyID, PartyType: partyType, Lines: make([]domain.StatementLine, 0, len(events)), ClosingBalance: decimal.Zero}
	balance := decimal.Zero
	for _, ev := range events {
		if debitIncreases {
			balance = balance.Add(ev.Debit).Sub(ev.Credit)
		} else {
			balance = balance.Add(ev.Credit).Sub(ev.Debit)
		}
		st.Lines = append(st.Lines, domain.StatementLine{StatementEvent: ev, RunningBalance: balance})
	}
	st.ClosingBalance = balance
	return st
}

// GetClientStatement replays what the client owes: deals raise it, payments lower it,
// refunds raise it again.
func (s *reportingService) GetClientStatement(ctx context.Context, clientID string) (*domain.PartyStatement, error) {
	events, err := s.reportingRepo.ClientEvents(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to load client events: %w", err)
	}
	return replay(clientID, "client", events, true), nil
}

// GetDealerStatement replays commission owed to a dealer from the dealer-payable account.
func (s *reportingService) GetDealerStatement(ctx context.Context, dealerID string) (*domain.PartyStatement, error) {
	payable, err := s.roles.Resolve(ctx, domain.RoleDealerPayable)
	if err != nil {
		return nil, err
	}
	events, err := s.reportingRepo.DealerEvents(ctx, dealerID, payable.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load dealer events: %w", err)
	}
	return replay(dealerID, "dealer", events, false), nil
}
