package services

import (
	"context"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
	"github.com/SscSPs/estate_ledger/internal/dto"
)

// DealSvc owns deal stage and status transitions.
type DealSvc interface {
	CreateDeal(ctx context.Context, req dto.CreateDealRequest, userID string) (*dto.DealDetails, error)
	GetDeal(ctx context.Context, dealID string) (*dto.DealDetails, error)

	// AdvanceStage moves forward through the pipeline or into a terminal stage.
	AdvanceStage(ctx context.Context, dealID string, stage domain.DealStage, userID string) (*domain.Deal, error)

	// Reopen moves a terminal deal back to an open stage.
	Reopen(ctx context.Context, dealID string, stage domain.DealStage, userID string) (*domain.Deal, error)

	// Recompute derives paid total and status from payment facts and applies any
	// resulting recognition side effects. Calling it again without new facts is a no-op.
	Recompute(ctx context.Context, dealID string, userID string) (*domain.Deal, error)

	SoftDeleteDeal(ctx context.Context, dealID string, userID string) error
}
