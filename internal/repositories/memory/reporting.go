package memory

import (
	"context"
	"sort"
	"time"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

var _ portsrepo.ReportingRepository = (*Store)(nil)

// postedLines calls fn for every line of a posted entry dated on or before asOf.
// A zero asOf includes everything.
func (t *tables) postedLines(asOf time.Time, fn func(e domain.JournalEntry, l domain.JournalLine)) {
	for _, e := range t.entries {
		if e.Status != domain.Posted {
			continue
		}
		if !asOf.IsZero() && e.EntryDate.After(asOf) {
			continue
		}
		for _, l := range e.Lines {
			fn(e, l)
		}
	}
}

func (s *Store) AccountTotals(_ context.Context, accountID string, asOf time.Time) (decimal.Decimal, decimal.Decimal, error) {
	debit, credit := decimal.Zero, decimal.Zero
	s.read(func(t *tables) {
		t.postedLines(asOf, func(_ domain.JournalEntry, l domain.JournalLine) {
			if l.AccountID == accountID {
				debit = debit.Add(l.Debit)
				credit = credit.Add(l.Credit)
			}
		})
	})
	return debit, credit, nil
}

func (s *Store) TrialBalanceRows(_ context.Context, asOf time.Time) ([]domain.TrialBalanceRow, error) {
	rows := []domain.TrialBalanceRow{}
	s.read(func(t *tables) {
		byAccount := make(map[string]*domain.TrialBalanceRow)
		t.postedLines(asOf, func(_ domain.JournalEntry, l domain.JournalLine) {
			row, ok := byAccount[l.AccountID]
			if !ok {
				acc := t.accounts[l.AccountID]
				row = &domain.TrialBalanceRow{
					AccountID:   l.AccountID,
					AccountCode: acc.Code,
					AccountName: acc.Name,
					AccountType: acc.AccountType,
					Debit:       decimal.Zero,
					Credit:      decimal.Zero,
				}
				byAccount[l.AccountID] = row
			}
			row.Debit = row.Debit.Add(l.Debit)
			row.Credit = row.Credit.Add(l.Credit)
		})
		for _, row := range byAccount {
			rows = append(rows, *row)
		}
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].AccountCode < rows[j].AccountCode })
	return rows, nil
}

func (s *Store) ClientEvents(_ context.Context, clientID string) ([]domain.StatementEvent, error) {
	events := []domain.StatementEvent{}
	s.read(func(t *tables) {
		for _, d := range t.deals {
			if d.ClientID != clientID || d.IsDeleted() {
				continue
			}
			events = append(events, domain.StatementEvent{
				Date: d.CreatedAt, Kind: "deal", Reference: d.DealNumber, Description: d.Title,
				Debit: d.Amount, Credit: decimal.Zero,
			})
		}
		for _, p := range t.payments {
			d, ok := t.deals[p.DealID]
			if !ok || d.ClientID != clientID || d.IsDeleted() || p.DeletedAt != nil {
				continue
			}
			ev := domain.StatementEvent{Date: p.PaidAt, Reference: p.PaymentNumber, Description: p.Reason}
			if p.IsRefund() {
				ev.Kind, ev.Debit, ev.Credit = "refund", p.Amount, decimal.Zero
			} else {
				ev.Kind, ev.Debit, ev.Credit = "payment", decimal.Zero, p.Amount
			}
			events = append(events, ev)
		}
	})
	return events, nil
}

func (s *Store) DealerEvents(_ context.Context, dealerID, accountID string) ([]domain.StatementEvent, error) {
	events := []domain.StatementEvent{}
	s.read(func(t *tables) {
		t.postedLines(time.Time{}, func(e domain.JournalEntry, l domain.JournalLine) {
			if l.AccountID != accountID || l.Tags.DealerID != dealerID {
				return
			}
			kind := "payout"
			if l.Credit.IsPositive() {
				kind = "commission"
			}
			desc := l.Memo
			if desc == "" {
				desc = e.Description
			}
			events = append(events, domain.StatementEvent{
				Date: e.EntryDate, Kind: kind, Reference: e.EntryNumber, Description: desc,
				Debit: l.Debit, Credit: l.Credit,
			})
		})
	})
	return events, nil
}
