package services

import (
	"context"
	"time"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
)

// ReportingService is the read side over posted journal lines.
type ReportingService interface {
	GetAccountBalance(ctx context.Context, accountID string, asOf time.Time) (*domain.AccountBalance, error)
	GetTrialBalance(ctx context.Context, asOf time.Time) (*domain.TrialBalance, error)
	GetClientStatement(ctx context.Context, clientID string) (*domain.PartyStatement, error)
	GetDealerStatement(ctx context.Context, dealerID string) (*domain.PartyStatement, error)
}
