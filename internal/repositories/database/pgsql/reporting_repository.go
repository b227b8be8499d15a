package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// reportingRepository implements the ReportingRepository interface
type reportingRepository struct {
	BaseRepository
}

func newReportingRepository(pool *pgxpool.Pool) *reportingRepository {
	return &reportingRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ReportingRepository = (*reportingRepository)(nil)

// AccountTotals sums the posted lines of one account.
func (r *reportingRepository) AccountTotals(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, decimal.Decimal, error) {
	var debit, credit decimal.Decimal
	err := r.db(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(l.debit), 0), COALESCE(SUM(l.credit), 0)
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE l.account_id = $1
			AND e.status = 'POSTED'
			AND e.entry_date <= $2;
	`, accountID, asOf).Scan(&debit, &credit)
	if err != nil {
		return decimal.Zero, decimal.Zero, mapError(err, "account totals "+accountID)
	}
	return debit, credit, nil
}

// TrialBalanceRows retrieves posted totals per account as of a specific date
func (r *reportingRepository) TrialBalanceRows(ctx context.Context, asOf time.Time) ([]domain.TrialBalanceRow, error) {
	rows, err := r.db(ctx).Query(ctx, `
		SELECT
			a.account_id,
			a.code,
			a.name,
			a.account_type,
			SUM(l.debit) AS total_debit,
			SUM(l.credit) AS total_credit
		FROM journal_lines l
		JOIN accounts a ON l.account_id = a.account_id
		JOIN journal_entries e ON l.entry_id = e.entry_id
		WHERE e.entry_date <= $1
			AND e.status = 'POSTED'
		GROUP BY a.account_id, a.code, a.name, a.account_type
		ORDER BY a.code;
	`, asOf)
	if err != nil {
		return nil, mapError(err, "query trial balance")
	}
	defer rows.Close()

	result := []domain.TrialBalanceRow{}
	for rows.Next() {
		var row domain.TrialBalanceRow
		var accountType string
		if err := rows.Scan(&row.AccountID, &row.AccountCode, &row.AccountName, &accountType, &row.Debit, &row.Credit); err != nil {
			return nil, fmt.Errorf("error scanning trial balance row: %w", err)
		}
		row.AccountType = domain.AccountType(accountType)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate trial balance")
	}
	return result, nil
}

func (r *reportingRepository) queryEvents(ctx context.Context, op, query string, args ...any) ([]domain.StatementEvent, error) {
	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, op)
	}
	defer rows.Close()

	events := []domain.StatementEvent{}
	for rows.Next() {
		var ev domain.StatementEvent
		if err := rows.Scan(&ev.Date, &ev.Kind, &ev.Reference, &ev.Description, &ev.Debit, &ev.Credit); err != nil {
			return nil, fmt.Errorf("error scanning statement event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, op)
	}
	return events, nil
}

// ClientEvents lists what the client owes (deals, refunds) and what they paid.
func (r *reportingRepository) ClientEvents(ctx context.Context, clientID string) ([]domain.StatementEvent, error) {
	return r.queryEvents(ctx, "client events "+clientID, `
		SELECT d.created_at, 'deal', d.deal_number, d.title, d.amount, 0::NUMERIC
		FROM deals d
		WHERE d.client_id = $1 AND d.deleted_at IS NULL
		UNION ALL
		SELECT p.paid_at,
			CASE WHEN p.payment_type = 'refund' THEN 'refund' ELSE 'payment' END,
			p.payment_number,
			p.reason,
			CASE WHEN p.payment_type = 'refund' THEN p.amount ELSE 0 END,
			CASE WHEN p.payment_type = 'refund' THEN 0 ELSE p.amount END
		FROM payments p
		JOIN deals d ON d.deal_id = p.deal_id
		WHERE d.client_id = $1 AND d.deleted_at IS NULL AND p.deleted_at IS NULL;
	`, clientID)
}

// DealerEvents lists commission accruals (credits) and payouts (debits) on the payable account.
func (r *reportingRepository) DealerEvents(ctx context.Context, dealerID, accountID string) ([]domain.StatementEvent, error) {
	return r.queryEvents(ctx, "dealer events "+dealerID, `
		SELECT e.entry_date,
			CASE WHEN l.credit > 0 THEN 'commission' ELSE 'payout' END,
			COALESCE(e.entry_number, e.entry_id),
			COALESCE(NULLIF(l.memo, ''), e.description),
			l.debit,
			l.credit
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id
		WHERE l.account_id = $2 AND l.dealer_id = $1 AND e.status = 'POSTED';
	`, dealerID, accountID)
}
