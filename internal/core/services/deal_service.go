package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/estate_ledger/internal/apperrors"
	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/estate_ledger/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger/internal/dto"
)

// DealServiceDeps are the collaborators of the deal state machine.
type DealServiceDeps struct {
	Deals     portsrepo.DealRepositoryFacade
	Payments  portsrepo.PaymentRepositoryFacade
	Plans     portsrepo.InstallmentRepositoryFacade
	Units     portsrepo.PropertyUnitRepository
	Sequence  portssvc.SequenceSvc
	Accounts  portssvc.AccountRegistrySvc
	Journal   portssvc.JournalSvcFacade
	TxManager portsrepo.TransactionManager
}

// dealService owns the stage and status axes of a deal and revenue recognition.
type dealService struct {
	BaseService
	deps     DealServiceDeps
	settings LedgerSettings
}

// NewDealService creates a new DealSvc.
func NewDealService(deps DealServiceDeps, settings LedgerSettings, base BaseService) portssvc.DealSvc {
	return &dealService{BaseService: base, deps: deps, settings: settings}
}

var _ portssvc.DealSvc = (*dealService)(nil)

// lockLiveDeal locks a deal row and hides soft-deleted deals.
func lockLiveDeal(ctx context.Context, repo portsrepo.DealRepositoryFacade, dealID string) (*domain.Deal, error) {
	deal, err := repo.FindDealByIDForUpdate(ctx, dealID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: deal %s", apperrors.ErrNotFound, dealID)
		}
		return nil, fmt.Errorf("failed to lock deal %s: %w", dealID, err)
	}
	if deal.IsDeleted() {
		return nil, fmt.Errorf("%w: deal %s", apperrors.ErrNotFound, dealID)
	}
	return deal, nil
}

// CreateDeal stores a deal with its installment plan.
func (s *dealService) CreateDeal(ctx context.Context, req dto.CreateDealRequest, userID string) (*dto.DealDetails, error) {
	if strings.TrimSpace(req.ClientID) == "" {
		return nil, apperrors.NewValidationError("client is required")
	}
	if !req.Amount.IsPositive() {
		return nil, apperrors.NewValidationError("deal amount must be positive")
	}
	if !req.Amount.Equal(req.Amount.Truncate(s.settings.CurrencyScale)) {
		return nil, apperrors.NewValidationError("deal amount %s has more than %d decimal places", req.Amount, s.settings.CurrencyScale)
	}
	stage := req.Stage
	if stage == "" {
		stage = domain.StageProspecting
	}
	if !stage.IsValid() {
		return nil, apperrors.NewValidationError("unknown deal stage %q", stage)
	}
	if stage.IsTerminal() {
		return nil, apperrors.NewValidationError("a deal cannot be created in stage %s", stage)
	}

	commission := req.Commission
	if commission.DealerID == "" {
		commission.DealerID = req.DealerID
	}
	if commission.Rate.IsNegative() || commission.FixedAmount.IsNegative() {
		return nil, apperrors.NewValidationError("commission must not be negative")
	}
	if commission.DealerID == "" && (commission.Rate.IsPositive() || commission.FixedAmount.IsPositive()) {
		return nil, apperrors.NewValidationError("commission requires a dealer")
	}

	planned := decimal.Zero
	for i, item := range req.Installments {
		if !item.Amount.IsPositive() {
			return nil, apperrors.NewValidationError("installment %d: amount must be positive", i+1)
		}
		if item.DueDate.IsZero() {
			return nil, apperrors.NewValidationError("installment %d: due date is required", i+1)
		}
		planned = planned.Add(item.Amount)
	}
	if planned.GreaterThan(req.Amount) {
		return nil, apperrors.NewValidationError("installments total %s exceeds deal amount %s", planned, req.Amount)
	}

	now := s.settings.now()
	audit := domain.AuditFields{CreatedAt: now, CreatedBy: userID, LastUpdatedAt: now, LastUpdatedBy: userID}
	deal := domain.Deal{
		DealID:           uuid.NewString(),
		ClientID:         req.ClientID,
		DealerID:         req.DealerID,
		PropertyUnitID:   req.PropertyUnitID,
		Title:            strings.TrimSpace(req.Title),
		Amount:           req.Amount,
		Stage:            stage,
		Status:           domain.DealOpen,
		PaidTotal:        decimal.Zero,
		Commission:       commission,
		RecognitionCycle: 1,
		AuditFields:      audit,
	}
	installments := make([]domain.DealInstallment, len(req.Installments))
	for i, item := range req.Installments {
		installments[i] = domain.DealInstallment{
			InstallmentID: uuid.NewString(),
			DealID:        deal.DealID,
			SequenceNo:    i + 1,
			Amount:        item.Amount,
			PaidAmount:    decimal.Zero,
			DueDate:       item.DueDate.UTC(),
			Status:        domain.InstallmentPending,
			AuditFields:   audit,
		}
	}

	err := s.deps.TxManager.WithinTx(ctx, func(txCtx context.Context) error {
		if manual := strings.TrimSpace(req.DealNumber); manual != "" {
			if err := s.deps.Sequence.ReserveManualIdentifier(txCtx, domain.PrefixDeal, manual, now.Year()); err != nil {
				return err
			}
			deal.DealNumber = manual
		} else {
			number, err := s.deps.Sequence.NextIdentifier(txCtx, domain.PrefixDeal, now)
			if err != nil {
				return err
			}
			deal.DealNumber = number
		}
		if err := s.deps.Deals.SaveDeal(txCtx, deal); err != nil {
			return fmt.Errorf("failed to save deal: %w", err)
		}
		if len(installments) > 0 {
			if err := s.deps.Plans.SaveInstallments(txCtx, installments); err != nil {
				return fmt.Errorf("failed to save installments: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Deal created",
		slog.String("deal_id", deal.DealID),
		slog.String("deal_number", deal.DealNumber),
		slog.String("amount", deal.Amount.String()))
	s.publishAudit(ctx, "deal.created", "deal", deal.DealID, userID, map[string]string{
		"dealNumber": deal.DealNumber,
		"amount":     deal.Amount.String(),
	})
	return &dto.DealDetails{Deal: deal, Installments: installments}, nil
}

// GetDeal returns a live deal with its installments.
func (s *dealService) GetDeal(ctx context.Context, dealID string) (*dto.DealDetails, error) {
	deal, err := s.deps.Deals.FindDealByID(ctx, dealID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: deal %s", apperrors.ErrNotFound, dealID)
		}
		return nil, err
	}
	if deal.IsDeleted() {
		return nil, fmt.Errorf("%w: deal %s", apperrors.ErrNotFound, dealID)
	}
	installments, err := s.deps.Plans.ListInstallmentsByDeal(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to list installments: %w", err)
	}
	if installments == nil {
		installments = []domain.DealInstallment{}
	}
	return &dto.DealDetails{Deal: *deal, Installments: installments}, nil
}

// AdvanceStage moves a deal forward through the pipeline, or into a terminal stage.
func (s *dealService) AdvanceStage(ctx context.Context, dealID string, stage domain.DealStage, userID string) (*domain.Deal, error) {
	if !stage.IsValid() {
		return nil, apperrors.NewValidationError("unknown deal stage %q", stage)
	}
	var (
		result *domain.Deal
		from   domain.DealStage
	)
	err := s.deps.TxManager.WithinTx(ctx, func(txCtx context.Context) error {
		deal, err := lockLiveDeal(txCtx, s.deps.Deals, dealID)
		if err != nil {
			return err
		}
		from = deal.Stage
		if deal.Stage.IsTerminal() {
			return fmt.Errorf("%w: deal %s is %s; reopen it first", apperrors.ErrInvalidTransition, dealID, deal.Stage)
		}
		if !stage.IsTerminal() && stage.Rank() <= deal.Stage.Rank() {
			return fmt.Errorf("%w: cannot move from %s to %s", apperrors.ErrInvalidTransition, deal.Stage, stage)
		}

		before := *deal
		deal.Stage = stage
		deal.AutoClosed = false
		if err := s.recomputeLocked(txCtx, before, deal, userID); err != nil {
			return err
		}
		result = deal
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.stageChanged(ctx, result, from, userID)
	return result, nil
}

// Reopen moves a terminal deal back into an open stage. A fully paid deal cannot be
// reopened because recomputation would close it again at once.
func (s *dealService) Reopen(ctx context.Context, dealID string, stage domain.DealStage, userID string) (*domain.Deal, error) {
	if !stage.IsValid() || stage.IsTerminal() {
		return nil, apperrors.NewValidationError("deal can only be reopened into an open stage, got %q", stage)
	}
	var (
		result *domain.Deal
		from   domain.DealStage
	)
	err := s.deps.TxManager.WithinTx(ctx, func(txCtx context.Context) error {
		deal, err := lockLiveDeal(txCtx, s.deps.Deals, dealID)
		if err != nil {
			return err
		}
		from = deal.Stage
		if !deal.Stage.IsTerminal() {
			return fmt.Errorf("%w: deal %s is not closed", apperrors.ErrInvalidTransition, dealID)
		}
		totals, err := s.deps.Payments.TotalsByDeal(txCtx, dealID)
		if err != nil {
			return fmt.Errorf("failed to total payments of deal %s: %w", dealID, err)
		}
		if totals.Received.Sub(totals.Refunded).GreaterThanOrEqual(deal.Amount) {
			return fmt.Errorf("%w: deal %s is fully paid; refund before reopening", apperrors.ErrInvalidTransition, dealID)
		}

		before := *deal
		deal.Stage = stage
		deal.AutoClosed = false
		if err := s.recomputeLocked(txCtx, before, deal, userID); err != nil {
			return err
		}
		result = deal
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.stageChanged(ctx, result, from, userID)
	return result, nil
}

// Recompute derives paid total, auto-close and status from payment facts.
func (s *dealService) Recompute(ctx context.Context, dealID string, userID string) (*domain.Deal, error) {
	var result *domain.Deal
	err := s.deps.TxManager.WithinTx(ctx, func(txCtx context.Context) error {
		deal, err := lockLiveDeal(txCtx, s.deps.Deals, dealID)
		if err != nil {
			return err
		}
		if err := s.recomputeLocked(txCtx, *deal, deal, userID); err != nil {
			return err
		}
		result = deal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// recomputeLocked brings deal in line with its payments and recognition state and writes
// it if anything differs from before. The deal row must already be locked.
func (s *dealService) recomputeLocked(ctx context.Context, before domain.Deal, deal *domain.Deal, userID string) error {
	totals, err := s.deps.Payments.TotalsByDeal(ctx, deal.DealID)
	if err != nil {
		return fmt.Errorf("failed to total payments of deal %s: %w", deal.DealID, err)
	}
	paid := totals.Received.Sub(totals.Refunded)
	deal.PaidTotal = paid

	switch {
	case !deal.Stage.IsTerminal() && paid.GreaterThanOrEqual(deal.Amount):
		deal.Stage = domain.StageClosedWon
		deal.AutoClosed = true
	case deal.Stage == domain.StageClosedWon && deal.AutoClosed && paid.LessThan(deal.Amount):
		deal.Stage = domain.StageClosing
		deal.AutoClosed = false
	}
	deal.Status = domain.DeriveDealStatus(deal.Stage, paid, deal.Amount, totals.Count > 0)

	switch {
	case deal.Stage == domain.StageClosedWon && !deal.RevenueRecognized:
		entry, err := s.recognizeRevenue(ctx, deal, userID)
		if err != nil {
			return err
		}
		deal.RevenueRecognized = true
		deal.RecognitionEntryID = &entry.EntryID
		if err := s.setUnitStatus(ctx, deal, domain.UnitSold); err != nil {
			return err
		}
	case deal.Stage != domain.StageClosedWon && deal.RevenueRecognized:
		if err := s.reverseRecognition(ctx, deal, userID); err != nil {
			return err
		}
		deal.RevenueRecognized = false
		deal.RecognitionEntryID = nil
		deal.RecognitionCycle++
		if err := s.setUnitStatus(ctx, deal, domain.UnitAvailable); err != nil {
			return err
		}
	}

	if !dealStateChanged(before, *deal) {
		return nil
	}
	deal.LastUpdatedAt = s.settings.now()
	deal.LastUpdatedBy = userID
	if err := s.deps.Deals.UpdateDealState(ctx, *deal); err != nil {
		return fmt.Errorf("failed to update deal %s: %w", deal.DealID, err)
	}
	s.LogDebug(ctx, "Deal state updated",
		slog.String("deal_id", deal.DealID),
		slog.String("stage", string(deal.Stage)),
		slog.String("status", string(deal.Status)),
		slog.String("paid", paid.String()))
	return nil
}

func dealStateChanged(a, b domain.Deal) bool {
	return a.Stage != b.Stage ||
		a.Status != b.Status ||
		!a.PaidTotal.Equal(b.PaidTotal) ||
		a.AutoClosed != b.AutoClosed ||
		a.RevenueRecognized != b.RevenueRecognized ||
		a.RecognitionCycle != b.RecognitionCycle
}

// advancesHeld returns trust-held advance money for the deal, capped at its amount.
func (s *dealService) advancesHeld(ctx context.Context, deal *domain.Deal) (decimal.Decimal, error) {
	payments, err := s.deps.Payments.ListPaymentsByDeal(ctx, deal.DealID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list payments of deal %s: %w", deal.DealID, err)
	}
	types := make(map[string]domain.PaymentType, len(payments))
	for _, p := range payments {
		types[p.PaymentID] = p.Type
	}
	held := decimal.Zero
	for _, p := range payments {
		if p.DeletedAt != nil {
			continue
		}
		switch {
		case p.Type.IsAdvance():
			held = held.Add(p.Amount)
		case p.IsRefund() && p.RefundOfID != nil && types[*p.RefundOfID].IsAdvance():
			held = held.Sub(p.Amount)
		}
	}
	if held.IsNegative() {
		held = decimal.Zero
	}
	return decimal.Min(held, deal.Amount), nil
}

// recognizeRevenue posts the closed-won entry: advances and receivable against revenue,
// plus the dealer commission accrual.
func (s *dealService) recognizeRevenue(ctx context.Context, deal *domain.Deal, userID string) (*domain.JournalEntry, error) {
	roles := s.deps.Accounts.NewScope()
	resolve := func(role domain.AccountRole) (string, error) {
		acc, err := roles.Resolve(ctx, role)
		if err != nil {
			return "", fmt.Errorf("revenue recognition for deal %s: %w", deal.DealNumber, err)
		}
		return acc.AccountID, nil
	}

	held, err := s.advancesHeld(ctx, deal)
	if err != nil {
		return nil, err
	}
	receivable := deal.Amount.Sub(held)
	tags := domain.Dimensions{DealID: deal.DealID, ClientID: deal.ClientID, UnitID: deal.PropertyUnitID}

	var lines []dto.JournalLineRequest
	if held.IsPositive() {
		id, err := resolve(domain.RoleClientAdvances)
		if err != nil {
			return nil, err
		}
		lines = append(lines, dto.JournalLineRequest{AccountID: id, Debit: held, Credit: decimal.Zero, Memo: "Advances applied", Tags: tags})
	}
	if receivable.IsPositive() {
		id, err := resolve(domain.RoleAccountsReceivable)
		if err != nil {
			return nil, err
		}
		lines = append(lines, dto.JournalLineRequest{AccountID: id, Debit: receivable, Credit: decimal.Zero, Memo: "Receivable on sale", Tags: tags})
	}
	revenueID, err := resolve(domain.RoleSalesRevenue)
	if err != nil {
		return nil, err
	}
	lines = append(lines, dto.JournalLineRequest{AccountID: revenueID, Debit: decimal.Zero, Credit: deal.Amount, Memo: "Sale revenue", Tags: tags})

	if commission := deal.Commission.AmountFor(deal.Amount, s.settings.CurrencyScale); commission.IsPositive() {
		expenseID, err := resolve(domain.RoleCommissionExpense)
		if err != nil {
			return nil, err
		}
		payableID, err := resolve(domain.RoleDealerPayable)
		if err != nil {
			return nil, err
		}
		dealerTags := tags
		dealerTags.DealerID = deal.Commission.DealerID
		lines = append(lines,
			dto.JournalLineRequest{AccountID: expenseID, Debit: commission, Credit: decimal.Zero, Memo: "Dealer commission", Tags: dealerTags},
			dto.JournalLineRequest{AccountID: payableID, Debit: decimal.Zero, Credit: commission, Memo: "Dealer commission", Tags: dealerTags},
		)
	}

	entry, err := s.deps.Journal.Post(ctx, dto.PostJournalRequest{
		EntryDate:   s.settings.now(),
		Description: fmt.Sprintf("Revenue recognition for deal %s", deal.DealNumber),
		NaturalKey:  fmt.Sprintf("deal-revenue:%s:%d", deal.DealID, deal.RecognitionCycle),
		SourceType:  domain.SourceRevenue,
		Lines:       lines,
	}, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to post revenue recognition for deal %s: %w", deal.DealNumber, err)
	}
	s.LogInfo(ctx, "Deal revenue recognized",
		slog.String("deal_id", deal.DealID),
		slog.String("entry_number", entry.EntryNumber),
		slog.String("advances", held.String()),
		slog.String("receivable", receivable.String()))
	return entry, nil
}

func (s *dealService) reverseRecognition(ctx context.Context, deal *domain.Deal, userID string) error {
	if deal.RecognitionEntryID == nil {
		return fmt.Errorf("%w: deal %s is recognized without a recognition entry", apperrors.ErrInternal, deal.DealID)
	}
	entry, err := s.deps.Journal.Reverse(ctx, *deal.RecognitionEntryID, dto.ReverseJournalRequest{
		NaturalKey: fmt.Sprintf("deal-revenue-reversal:%s:%d", deal.DealID, deal.RecognitionCycle),
		Reason:     fmt.Sprintf("Deal %s left closed-won", deal.DealNumber),
		EntryDate:  s.settings.now(),
		SourceType: domain.SourceRevenueReversal,
	}, userID)
	if err != nil {
		return fmt.Errorf("failed to reverse revenue recognition for deal %s: %w", deal.DealNumber, err)
	}
	s.LogInfo(ctx, "Deal revenue recognition reversed",
		slog.String("deal_id", deal.DealID),
		slog.String("entry_number", entry.EntryNumber))
	return nil
}

func (s *dealService) setUnitStatus(ctx context.Context, deal *domain.Deal, status domain.UnitStatus) error {
	if deal.PropertyUnitID == "" || s.deps.Units == nil {
		return nil
	}
	if err := s.deps.Units.UpdateUnitStatus(ctx, deal.PropertyUnitID, status, s.settings.now()); err != nil {
		return fmt.Errorf("failed to mark unit %s %s: %w", deal.PropertyUnitID, status, err)
	}
	return nil
}

// SoftDeleteDeal hides a deal. Deleting twice is not an error.
func (s *dealService) SoftDeleteDeal(ctx context.Context, dealID string, userID string) error {
	deleted := false
	err := s.deps.TxManager.WithinTx(ctx, func(txCtx context.Context) error {
		deal, err := s.deps.Deals.FindDealByIDForUpdate(txCtx, dealID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("%w: deal %s", apperrors.ErrNotFound, dealID)
			}
			return err
		}
		if deal.IsDeleted() {
			return nil
		}
		deleted = true
		return s.deps.Deals.SoftDeleteDeal(txCtx, dealID, s.settings.now(), userID)
	})
	if err != nil {
		return err
	}
	if deleted {
		s.LogInfo(ctx, "Deal soft-deleted", slog.String("deal_id", dealID))
		s.publishAudit(ctx, "deal.deleted", "deal", dealID, userID, nil)
	}
	return nil
}

func (s *dealService) stageChanged(ctx context.Context, deal *domain.Deal, from domain.DealStage, userID string) {
	s.LogInfo(ctx, "Deal stage changed",
		slog.String("deal_id", deal.DealID),
		slog.String("from", string(from)),
		slog.String("to", string(deal.Stage)))
	s.publishAudit(ctx, "deal.stage_changed", "deal", deal.DealID, userID, map[string]string{
		"from":   string(from),
		"to":     string(deal.Stage),
		"status": string(deal.Status),
	})
}
