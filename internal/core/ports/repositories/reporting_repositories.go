package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ReportingRepository aggregates posted journal lines. It never writes.
type ReportingRepository interface {
	// AccountTotals sums posted debits and credits of an account up to and including asOf.
	AccountTotals(ctx context.Context, accountID string, asOf time.Time) (debit, credit decimal.Decimal, err error)

	// TrialBalanceRows returns one row per account with posted activity up to asOf.
	TrialBalanceRows(ctx context.Context, asOf time.Time) ([]domain.TrialBalanceRow, error)

	// ClientEvents returns the client's deals, payments and refunds, unordered.
	ClientEvents(ctx context.Context, clientID string) ([]domain.StatementEvent, error)

	// DealerEvents returns the posted lines on accountID tagged with the dealer, unordered.
	DealerEvents(ctx context.Context, dealerID, accountID string) ([]domain.StatementEvent, error)
}
