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

// PaymentServiceDeps are the collaborators of the payment engine.
type PaymentServiceDeps struct {
	Payments   portsrepo.PaymentRepositoryFacade
	Plans      portsrepo.InstallmentRepositoryFacade
	Deals      portsrepo.DealRepositoryFacade
	Sequence   portssvc.SequenceSvc
	Accounts   portssvc.AccountRegistrySvc
	Journal    portssvc.JournalSvcFacade
	Allocation portssvc.AllocationSvc
	DealSvc    portssvc.DealSvc
	TxManager  portsrepo.TransactionManager
}

// paymentService records money movements against deals. Every payment and refund is
// saved together with its journal entry, allocation trail and deal recomputation.
type paymentService struct {
	BaseService
	deps     PaymentServiceDeps
	settings LedgerSettings
}

// NewPaymentService creates a new PaymentSvc.
func NewPaymentService(deps PaymentServiceDeps, settings LedgerSettings, base BaseService) portssvc.PaymentSvc {
	return &paymentService{BaseService: base, deps: deps, settings: settings}
}

var _ portssvc.PaymentSvc = (*paymentService)(nil)

func (s *paymentService) checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.NewValidationError("amount must be positive")
	}
	if !amount.Equal(amount.Truncate(s.settings.CurrencyScale)) {
		return apperrors.NewValidationError("amount %s has more than %d decimal places", amount, s.settings.CurrencyScale)
	}
	return nil
}

// postingRoles picks the debit and credit roles for an incoming payment. Advances are held
// in trust against a liability; everything else settles the receivable.
func postingRoles(paymentType domain.PaymentType, mode domain.PaymentMode) (debit, credit domain.AccountRole) {
	if paymentType.IsAdvance() {
		if mode == domain.ModeCash {
			return domain.RoleTrustCash, domain.RoleClientAdvances
		}
		return domain.RoleTrustBank, domain.RoleClientAdvances
	}
	if mode == domain.ModeCash {
		return domain.RoleCash, domain.RoleAccountsReceivable
	}
	return domain.RoleBank, domain.RoleAccountsReceivable
}

// checkTargetInstallment rejects an installment link that does not belong to the deal.
func (s *paymentService) checkTargetInstallment(ctx context.Context, dealID string, installmentID *string) error {
	if installmentID == nil || *installmentID == "" {
		return nil
	}
	found, err := s.deps.Plans.FindInstallmentsByIDsForUpdate(ctx, []string{*installmentID})
	if err != nil {
		return fmt.Errorf("failed to load installment %s: %w", *installmentID, err)
	}
	if inst, ok := found[*installmentID]; !ok || inst.DealID != dealID {
		return apperrors.NewValidationError("installment %s does not belong to deal %s", *installmentID, dealID)
	}
	return nil
}

// CreatePayment records a payment, posts it, allocates it and recomputes the deal.
func (s *paymentService) CreatePayment(ctx context.Context, req dto.CreatePaymentRequest, userID string) (*dto.PaymentResult, error) {
	if err := s.checkAmount(req.Amount); err != nil {
		return nil, err
	}
	if !req.Type.IsValid() || req.Type == domain.PaymentRefund {
		return nil, apperrors.NewValidationError("invalid payment type %q", req.Type)
	}
	if !req.Mode.IsValid() {
		return nil, apperrors.NewValidationError("invalid payment mode %q", req.Mode)
	}
	paidAt := req.PaidAt
	if paidAt.IsZero() {
		paidAt = s.settings.now()
	}

	var result dto.PaymentResult
	err := s.deps.TxManager.WithinTx(ctx, func(txCtx context.Context) error {
		deal, err := lockLiveDeal(txCtx, s.deps.Deals, req.DealID)
		if err != nil {
			return err
		}
		if deal.Stage == domain.StageClosedLost {
			return apperrors.NewValidationError("deal %s is closed-lost and cannot take payments", deal.DealNumber)
		}
		if err := s.checkTargetInstallment(txCtx, deal.DealID, req.InstallmentID); err != nil {
			return err
		}

		roles := s.deps.Accounts.NewScope()
		debitRole, creditRole := postingRoles(req.Type, req.Mode)
		debitAcc, err := roles.Resolve(txCtx, debitRole)
		if err != nil {
			return err
		}
		creditAcc, err := roles.Resolve(txCtx, creditRole)
		if err != nil {
			return err
		}

		paymentID := uuid.NewString()
		number, err := s.deps.Sequence.NextIdentifier(txCtx, domain.PrefixPayment, paidAt)
		if err != nil {
			return err
		}

		tags := domain.Dimensions{DealID: deal.DealID, ClientID: deal.ClientID, UnitID: deal.PropertyUnitID}
		entry, err := s.deps.Journal.Post(txCtx, dto.PostJournalRequest{
			EntryDate:   paidAt,
			Description: fmt.Sprintf("%s payment %s for deal %s", req.Type, number, deal.DealNumber),
			NaturalKey:  "payment:" + paymentID,
			SourceType:  domain.SourcePayment,
			Lines: []dto.JournalLineRequest{
				{AccountID: debitAcc.AccountID, Debit: req.Amount, Credit: decimal.Zero, Tags: tags},
				{AccountID: creditAcc.AccountID, Debit: decimal.Zero, Credit: req.Amount, Tags: tags},
			},
		}, userID)
		if err != nil {
			return err
		}

		now := s.settings.now()
		payment := domain.Payment{
			PaymentID:      paymentID,
			PaymentNumber:  number,
			DealID:         deal.DealID,
			Amount:         req.Amount,
			Type:           req.Type,
			Mode:           req.Mode,
			InstallmentID:  req.InstallmentID,
			JournalEntryID: entry.EntryID,
			PaidAt:         paidAt.UTC(),
			AuditFields:    domain.AuditFields{CreatedAt: now, CreatedBy: userID, LastUpdatedAt: now, LastUpdatedBy: userID},
		}
		if err := s.deps.Payments.SavePayment(txCtx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}

		var allocation *domain.AllocationResult
		if req.InstallmentID != nil && *req.InstallmentID != "" {
			allocation, err = s.deps.Allocation.AllocateToInstallment(txCtx, deal.DealID, paymentID, *req.InstallmentID, req.Amount)
		} else {
			allocation, err = s.deps.Allocation.Allocate(txCtx, deal.DealID, paymentID, req.Amount)
		}
		if err != nil {
			return err
		}

		updated, err := s.deps.DealSvc.Recompute(txCtx, deal.DealID, userID)
		if err != nil {
			return err
		}

		result = dto.PaymentResult{Payment: payment, JournalEntry: *entry, Allocation: allocation, Deal: *updated}
		return nil
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrValidation) && !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to create payment", slog.String("deal_id", req.DealID))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Payment recorded",
		slog.String("payment_id", result.Payment.PaymentID),
		slog.String("payment_number", result.Payment.PaymentNumber),
		slog.String("amount", result.Payment.Amount.String()),
		slog.String("deal_status", string(result.Deal.Status)))
	s.publishAudit(ctx, "payment.created", "payment", result.Payment.PaymentID, userID, map[string]string{
		"paymentNumber": result.Payment.PaymentNumber,
		"dealID":        result.Payment.DealID,
		"amount":        result.Payment.Amount.String(),
		"entryNumber":   result.JournalEntry.EntryNumber,
		"dealStatus":    string(result.Deal.Status),
	})
	return &result, nil
}

// mirrorLines builds refund lines from the original entry: same accounts and tags, sides
// swapped, amounts scaled to the refund.
func mirrorLines(original []domain.JournalLine, originalAmount, refund decimal.Decimal, scale int32) []dto.JournalLineRequest {
	lines := make([]dto.JournalLineRequest, len(original))
	for i, l := range original {
		amount := refund
		if !l.Amount().Equal(originalAmount) {
			amount = l.Amount().Mul(refund).Div(originalAmount).Round(scale)
		}
		m := l.Mirror(amount)
		lines[i] = dto.JournalLineRequest{AccountID: m.AccountID, Debit: m.Debit, Credit: m.Credit, Memo: m.Memo, Tags: m.Tags}
	}
	return lines
}

// RefundPayment returns part or all of an earlier payment.
func (s *paymentService) RefundPayment(ctx context.Context, req dto.RefundPaymentRequest, userID string) (*dto.PaymentResult, error) {
	if err := s.checkAmount(req.Amount); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("refund reason is required")
	}
	refundedAt := req.RefundedAt
	if refundedAt.IsZero() {
		refundedAt = s.settings.now()
	}

	var result dto.PaymentResult
	err := s.deps.TxManager.WithinTx(ctx, func(txCtx context.Context) error {
		original, err := s.deps.Payments.FindPaymentByID(txCtx, req.OriginalPaymentID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("%w: payment %s", apperrors.ErrNotFound, req.OriginalPaymentID)
			}
			return err
		}
		if original.DeletedAt != nil {
			return fmt.Errorf("%w: payment %s", apperrors.ErrNotFound, req.OriginalPaymentID)
		}
		if original.IsRefund() {
			return apperrors.NewValidationError("payment %s is itself a refund", original.PaymentNumber)
		}
		deal, err := lockLiveDeal(txCtx, s.deps.Deals, original.DealID)
		if err != nil {
			return err
		}

		refunded, err := s.deps.Payments.SumRefundsOf(txCtx, original.PaymentID)
		if err != nil {
			return fmt.Errorf("failed to total refunds of %s: %w", original.PaymentNumber, err)
		}
		available := original.Amount.Sub(refunded)
		if req.Amount.GreaterThan(available) {
			return fmt.Errorf("%w: %s requested, %s refundable on %s",
				apperrors.ErrRefundExceedsOriginal, req.Amount, available, original.PaymentNumber)
		}

		originalEntry, err := s.deps.Journal.GetEntry(txCtx, original.JournalEntryID)
		if err != nil {
			return fmt.Errorf("failed to load entry of %s: %w", original.PaymentNumber, err)
		}

		refundID := uuid.NewString()
		number, err := s.deps.Sequence.NextIdentifier(txCtx, domain.PrefixPayment, refundedAt)
		if err != nil {
			return err
		}
		entry, err := s.deps.Journal.Post(txCtx, dto.PostJournalRequest{
			EntryDate:   refundedAt,
			Description: fmt.Sprintf("Refund %s of %s: %s", number, original.PaymentNumber, reason),
			NaturalKey:  "payment:" + refundID,
			SourceType:  domain.SourceRefund,
			Lines:       mirrorLines(originalEntry.Lines, original.Amount, req.Amount, s.settings.CurrencyScale),
		}, userID)
		if err != nil {
			return err
		}

		now := s.settings.now()
		originalID := original.PaymentID
		refund := domain.Payment{
			PaymentID:      refundID,
			PaymentNumber:  number,
			DealID:         deal.DealID,
			Amount:         req.Amount,
			Type:           domain.PaymentRefund,
			Mode:           original.Mode,
			RefundOfID:     &originalID,
			Reason:         reason,
			JournalEntryID: entry.EntryID,
			PaidAt:         refundedAt.UTC(),
			AuditFields:    domain.AuditFields{CreatedAt: now, CreatedBy: userID, LastUpdatedAt: now, LastUpdatedBy: userID},
		}
		if err := s.deps.Payments.SavePayment(txCtx, refund); err != nil {
			return fmt.Errorf("failed to save refund: %w", err)
		}

		// Money that never reached an installment goes back first.
		trail, err := s.deps.Plans.ListAllocationsByPayment(txCtx, original.PaymentID)
		if err != nil {
			return fmt.Errorf("failed to load allocations of %s: %w", original.PaymentNumber, err)
		}
		allocated := decimal.Zero
		for _, a := range trail {
			allocated = allocated.Add(a.Amount)
		}
		unallocated := available.Sub(allocated)
		if unallocated.IsNegative() {
			unallocated = decimal.Zero
		}
		reversals := []domain.AllocationLine{}
		if toReverse := req.Amount.Sub(unallocated); toReverse.IsPositive() {
			reversals, err = s.deps.Allocation.ReverseForRefund(txCtx, original.PaymentID, refundID, toReverse)
			if err != nil {
				return err
			}
		}

		updated, err := s.deps.DealSvc.Recompute(txCtx, deal.DealID, userID)
		if err != nil {
			return err
		}

		result = dto.PaymentResult{Payment: refund, JournalEntry: *entry, Reversals: reversals, Deal: *updated}
		return nil
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrValidation) && !errors.Is(err, apperrors.ErrRefundExceedsOriginal) {
			s.LogError(ctx, err, "Failed to refund payment", slog.String("payment_id", req.OriginalPaymentID))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Refund recorded",
		slog.String("refund_id", result.Payment.PaymentID),
		slog.String("refund_number", result.Payment.PaymentNumber),
		slog.String("original_id", req.OriginalPaymentID),
		slog.String("amount", result.Payment.Amount.String()))
	s.publishAudit(ctx, "payment.refunded", "payment", result.Payment.PaymentID, userID, map[string]string{
		"paymentNumber":     result.Payment.PaymentNumber,
		"originalPaymentID": req.OriginalPaymentID,
		"dealID":            result.Payment.DealID,
		"amount":            result.Payment.Amount.String(),
		"reason":            result.Payment.Reason,
	})
	return &result, nil
}

// GetPayment returns a payment or refund.
func (s *paymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.deps.Payments.FindPaymentByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: payment %s", apperrors.ErrNotFound, paymentID)
		}
		return nil, err
	}
	return payment, nil
}

// ListDealPayments returns the payments and refunds of a deal in the order they were made.
func (s *paymentService) ListDealPayments(ctx context.Context, dealID string) ([]domain.Payment, error) {
	payments, err := s.deps.Payments.ListPaymentsByDeal(ctx, dealID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments of deal %s: %w", dealID, err)
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	return payments, nil
}
