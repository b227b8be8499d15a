package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/estate_ledger/internal/apperrors"
	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/estate_ledger/internal/core/ports/services"
)

// PlanFIFO spreads amount over installments earliest due date first, breaking ties by
// sequence number. Settled installments are skipped. It does not touch storage.
func PlanFIFO(installments []domain.DealInstallment, amount decimal.Decimal) domain.AllocationResult {
	sorted := make([]domain.DealInstallment, len(installments))
	copy(sorted, installments)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].DueDate.Equal(sorted[j].DueDate) {
			return sorted[i].DueDate.Before(sorted[j].DueDate)
		}
		return sorted[i].SequenceNo < sorted[j].SequenceNo
	})

	remaining := amount
	result := domain.AllocationResult{Lines: []domain.AllocationLine{}, TotalAllocated: decimal.Zero}
	for _, inst := range sorted {
		if !remaining.IsPositive() {
			break
		}
		balance := inst.Remaining()
		if !inst.Status.IsOpen() || !balance.IsPositive() {
			continue
		}
		applied := decimal.Min(remaining, balance)
		after := balance.Sub(applied)
		result.Lines = append(result.Lines, domain.AllocationLine{
			InstallmentID:   inst.InstallmentID,
			SequenceNo:      inst.SequenceNo,
			DueDate:         inst.DueDate,
			AmountApplied:   applied,
			BalanceBefore:   balance,
			BalanceAfter:    after,
			ResultingStatus: domain.InstallmentStatusFor(inst.PaidAmount.Add(applied), inst.Amount),
		})
		remaining = remaining.Sub(applied)
		result.TotalAllocated = result.TotalAllocated.Add(applied)
	}
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	result.Leftover = remaining
	return result
}

// allocationService persists FIFO allocation runs and their reversals.
type allocationService struct {
	BaseService
	repo      portsrepo.InstallmentRepositoryFacade
	txManager portsrepo.TransactionManager
	settings  LedgerSettings
}

// NewAllocationService creates a new AllocationSvc.
func NewAllocationService(repo portsrepo.InstallmentRepositoryFacade, txManager portsrepo.TransactionManager, settings LedgerSettings) portssvc.AllocationSvc {
	return &allocationService{repo: repo, txManager: txManager, settings: settings}
}

var _ portssvc.AllocationSvc = (*allocationService)(nil)

// Allocate spreads amount over the deal's open installments.
func (s *allocationService) Allocate(ctx context.Context, dealID, paymentID string, amount decimal.Decimal) (*domain.AllocationResult, error) {
	if !amount.IsPositive() {
		return nil, apperrors.NewValidationError("allocation amount must be positive")
	}
	var result domain.AllocationResult
	err := s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		open, err := s.repo.FindOpenInstallmentsForUpdate(txCtx, dealID)
		if err != nil {
			return fmt.Errorf("failed to lock installments of deal %s: %w", dealID, err)
		}
		result = PlanFIFO(open, amount)
		return s.apply(txCtx, paymentID, open, &result)
	})
	if err != nil {
		return nil, err
	}
	s.logRun(ctx, paymentID, result)
	return &result, nil
}

// AllocateToInstallment settles the named installment first and sends the rest through FIFO.
// A named installment that is already paid is skipped.
func (s *allocationService) AllocateToInstallment(ctx context.Context, dealID, paymentID, installmentID string, amount decimal.Decimal) (*domain.AllocationResult, error) {
	if !amount.IsPositive() {
		return nil, apperrors.NewValidationError("allocation amount must be positive")
	}
	var result domain.AllocationResult
	err := s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		open, err := s.repo.FindOpenInstallmentsForUpdate(txCtx, dealID)
		if err != nil {
			return fmt.Errorf("failed to lock installments of deal %s: %w", dealID, err)
		}

		var target []domain.DealInstallment
		rest := make([]domain.DealInstallment, 0, len(open))
		for _, inst := range open {
			if inst.InstallmentID == installmentID {
				target = append(target, inst)
				continue
			}
			rest = append(rest, inst)
		}
		if len(target) == 0 {
			// Not open: either settled, or not part of this deal at all.
			found, err := s.repo.FindInstallmentsByIDsForUpdate(txCtx, []string{installmentID})
			if err != nil {
				return fmt.Errorf("failed to load installment %s: %w", installmentID, err)
			}
			inst, ok := found[installmentID]
			if !ok || inst.DealID != dealID {
				return apperrors.NewValidationError("installment %s does not belong to deal %s", installmentID, dealID)
			}
			s.LogDebug(txCtx, "Targeted installment already settled, allocating FIFO",
				slog.String("installment_id", installmentID))
		}

		first := PlanFIFO(target, amount)
		second := PlanFIFO(rest, first.Leftover)
		result = domain.AllocationResult{
			Lines:          append(first.Lines, second.Lines...),
			TotalAllocated: first.TotalAllocated.Add(second.TotalAllocated),
			Leftover:       second.Leftover,
		}
		return s.apply(txCtx, paymentID, open, &result)
	})
	if err != nil {
		return nil, err
	}
	s.logRun(ctx, paymentID, result)
	return &result, nil
}

// apply writes the planned lines: paid amounts, statuses and the allocation trail.
func (s *allocationService) apply(ctx context.Context, paymentID string, installments []domain.DealInstallment, result *domain.AllocationResult) error {
	if len(result.Lines) == 0 {
		return nil
	}
	byID := make(map[string]domain.DealInstallment, len(installments))
	for _, inst := range installments {
		byID[inst.InstallmentID] = inst
	}

	now := s.settings.now()
	records := make([]domain.ReceiptAllocation, 0, len(result.Lines))
	for _, line := range result.Lines {
		inst, ok := byID[line.InstallmentID]
		if !ok {
			return fmt.Errorf("%w: planned installment %s was not locked", apperrors.ErrInternal, line.InstallmentID)
		}
		paid := inst.PaidAmount.Add(line.AmountApplied)
		if err := s.repo.UpdateInstallmentPaid(ctx, inst.InstallmentID, paid, line.ResultingStatus, now); err != nil {
			return fmt.Errorf("failed to update installment %s: %w", inst.InstallmentID, err)
		}
		records = append(records, domain.ReceiptAllocation{
			AllocationID:  uuid.NewString(),
			PaymentID:     paymentID,
			InstallmentID: inst.InstallmentID,
			Amount:        line.AmountApplied,
			BalanceBefore: line.BalanceBefore,
			BalanceAfter:  line.BalanceAfter,
			AllocatedAt:   now,
		})
	}
	if err := s.repo.SaveAllocations(ctx, records); err != nil {
		return fmt.Errorf("failed to save allocations: %w", err)
	}
	result.Records = records
	return nil
}

// ReverseForRefund undoes up to amount of the original payment's allocations, most
// recent first. Each undo is written as a negative allocation owned by the refund.
func (s *allocationService) ReverseForRefund(ctx context.Context, originalPaymentID, refundPaymentID string, amount decimal.Decimal) ([]domain.AllocationLine, error) {
	if !amount.IsPositive() {
		return []domain.AllocationLine{}, nil
	}
	lines := []domain.AllocationLine{}
	err := s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		trail, err := s.repo.ListAllocationsByPayment(txCtx, originalPaymentID)
		if err != nil {
			return fmt.Errorf("failed to load allocations of payment %s: %w", originalPaymentID, err)
		}

		// Net amount still standing per original allocation row.
		standing := make(map[string]decimal.Decimal, len(trail))
		positives := make([]domain.ReceiptAllocation, 0, len(trail))
		for _, a := range trail {
			if a.ReversalOfID == nil {
				standing[a.AllocationID] = standing[a.AllocationID].Add(a.Amount)
				positives = append(positives, a)
				continue
			}
			standing[*a.ReversalOfID] = standing[*a.ReversalOfID].Add(a.Amount)
		}

		ids := make([]string, 0, len(positives))
		seen := map[string]struct{}{}
		for _, a := range positives {
			if _, ok := seen[a.InstallmentID]; !ok {
				seen[a.InstallmentID] = struct{}{}
				ids = append(ids, a.InstallmentID)
			}
		}
		sort.Strings(ids)
		installments, err := s.repo.FindInstallmentsByIDsForUpdate(txCtx, ids)
		if err != nil {
			return fmt.Errorf("failed to lock installments for reversal: %w", err)
		}

		now := s.settings.now()
		left := amount
		records := []domain.ReceiptAllocation{}
		for i := len(positives) - 1; i >= 0 && left.IsPositive(); i-- {
			row := positives[i]
			take := decimal.Min(left, standing[row.AllocationID])
			if !take.IsPositive() {
				continue
			}
			inst, ok := installments[row.InstallmentID]
			if !ok {
				return fmt.Errorf("%w: installment %s", apperrors.ErrNotFound, row.InstallmentID)
			}
			before := inst.Remaining()
			paid := inst.PaidAmount.Sub(take)
			if paid.IsNegative() {
				paid = decimal.Zero
			}
			status := domain.InstallmentStatusFor(paid, inst.Amount)
			if err := s.repo.UpdateInstallmentPaid(txCtx, inst.InstallmentID, paid, status, now); err != nil {
				return fmt.Errorf("failed to update installment %s: %w", inst.InstallmentID, err)
			}
			inst.PaidAmount = paid
			inst.Status = status
			installments[row.InstallmentID] = inst

			allocationID := row.AllocationID
			records = append(records, domain.ReceiptAllocation{
				AllocationID:  uuid.NewString(),
				PaymentID:     refundPaymentID,
				InstallmentID: inst.InstallmentID,
				Amount:        take.Neg(),
				BalanceBefore: before,
				BalanceAfter:  inst.Remaining(),
				ReversalOfID:  &allocationID,
				AllocatedAt:   now,
			})
			lines = append(lines, domain.AllocationLine{
				InstallmentID:   inst.InstallmentID,
				SequenceNo:      inst.SequenceNo,
				DueDate:         inst.DueDate,
				AmountApplied:   take.Neg(),
				BalanceBefore:   before,
				BalanceAfter:    inst.Remaining(),
				ResultingStatus: status,
			})
			left = left.Sub(take)
		}

		if left.IsPositive() {
			s.LogWarn(txCtx, "Refund exceeds allocations still standing; remainder treated as unallocated",
				slog.String("payment_id", originalPaymentID),
				slog.String("unreversed", left.String()))
		}
		if len(records) == 0 {
			return nil
		}
		if err := s.repo.SaveAllocations(txCtx, records); err != nil {
			return fmt.Errorf("failed to save allocation reversals: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Allocation trail references a missing installment", slog.String("payment_id", originalPaymentID))
		}
		return nil, err
	}
	return lines, nil
}

func (s *allocationService) logRun(ctx context.Context, paymentID string, result domain.AllocationResult) {
	s.LogInfo(ctx, "Payment allocated",
		slog.String("payment_id", paymentID),
		slog.Int("installments", len(result.Lines)),
		slog.String("allocated", result.TotalAllocated.String()),
		slog.String("leftover", result.Leftover.String()))
}
