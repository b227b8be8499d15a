package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
)

// DealRepositoryFacade stores deals. Deals are soft-deleted, never removed.
type DealRepositoryFacade interface {
	SaveDeal(ctx context.Context, deal domain.Deal) error
	FindDealByID(ctx context.Context, dealID string) (*domain.Deal, error)

	// FindDealByIDForUpdate locks the deal row; concurrent payments against the same deal
	// queue behind it.
	FindDealByIDForUpdate(ctx context.Context, dealID string) (*domain.Deal, error)

	// UpdateDealState writes the state-machine owned fields: stage, status, paid total,
	// recognition flags and auto-close marker.
	UpdateDealState(ctx context.Context, deal domain.Deal) error

	SoftDeleteDeal(ctx context.Context, dealID string, at time.Time, userID string) error
}

// PropertyUnitRepository updates the sale status of the unit behind a deal.
type PropertyUnitRepository interface {
	UpdateUnitStatus(ctx context.Context, unitID string, status domain.UnitStatus, at time.Time) error
}
