package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/estate_ledger/internal/apperrors"
	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

var (
	_ portsrepo.DealRepositoryFacade        = (*Store)(nil)
	_ portsrepo.PropertyUnitRepository      = (*Store)(nil)
	_ portsrepo.InstallmentRepositoryFacade = (*Store)(nil)
)

func (s *Store) SaveDeal(ctx context.Context, deal domain.Deal) error {
	return s.write(ctx, func(t *tables) error {
		if _, ok := t.deals[deal.DealID]; ok {
			return fmt.Errorf("%w: deal %s", apperrors.ErrDuplicate, deal.DealID)
		}
		if _, ok := t.dealNumbers[deal.DealNumber]; ok {
			return fmt.Errorf("%w: deal number %s", apperrors.ErrDuplicate, deal.DealNumber)
		}
		t.deals[deal.DealID] = deal
		t.dealNumbers[deal.DealNumber] = deal.DealID
		return nil
	})
}

func (s *Store) FindDealByID(_ context.Context, dealID string) (*domain.Deal, error) {
	var deal domain.Deal
	var ok bool
	s.read(func(t *tables) { deal, ok = t.deals[dealID] })
	if !ok {
		return nil, fmt.Errorf("%w: deal %s", apperrors.ErrNotFound, dealID)
	}
	return &deal, nil
}

func (s *Store) FindDealByIDForUpdate(ctx context.Context, dealID string) (*domain.Deal, error) {
	return s.FindDealByID(ctx, dealID)
}

func (s *Store) UpdateDealState(ctx context.Context, deal domain.Deal) error {
	return s.write(ctx, func(t *tables) error {
		current, ok := t.deals[deal.DealID]
		if !ok || current.IsDeleted() {
			return fmt.Errorf("%w: deal %s", apperrors.ErrNotFound, deal.DealID)
		}
		current.Stage = deal.Stage
		current.Status = deal.Status
		current.PaidTotal = deal.PaidTotal
		current.RevenueRecognized = deal.RevenueRecognized
		current.RecognitionEntryID = deal.RecognitionEntryID
		current.RecognitionCycle = deal.RecognitionCycle
		current.AutoClosed = deal.AutoClosed
		current.LastUpdatedAt = deal.LastUpdatedAt
		current.LastUpdatedBy = deal.LastUpdatedBy
		t.deals[deal.DealID] = current
		return nil
	})
}

func (s *Store) SoftDeleteDeal(ctx context.Context, dealID string, at time.Time, userID string) error {
	return s.write(ctx, func(t *tables) error {
		deal, ok := t.deals[dealID]
		if !ok || deal.IsDeleted() {
			return nil
		}
		deal.DeletedAt = &at
		deal.LastUpdatedAt = at
		deal.LastUpdatedBy = userID
		t.deals[dealID] = deal
		return nil
	})
}

func (s *Store) UpdateUnitStatus(ctx context.Context, unitID string, status domain.UnitStatus, _ time.Time) error {
	return s.write(ctx, func(t *tables) error {
		t.units[unitID] = status
		return nil
	})
}

// UnitStatus reports the stored status of a unit.
func (s *Store) UnitStatus(unitID string) (domain.UnitStatus, bool) {
	var status domain.UnitStatus
	var ok bool
	s.read(func(t *tables) { status, ok = t.units[unitID] })
	return status, ok
}

func (s *Store) SaveInstallments(ctx context.Context, installments []domain.DealInstallment) error {
	return s.write(ctx, func(t *tables) error {
		for _, inst := range installments {
			if _, ok := t.installments[inst.InstallmentID]; ok {
				return fmt.Errorf("%w: installment %s", apperrors.ErrDuplicate, inst.InstallmentID)
			}
			t.installments[inst.InstallmentID] = inst
		}
		return nil
	})
}

func (s *Store) installmentsWhere(keep func(domain.DealInstallment) bool) []domain.DealInstallment {
	out := []domain.DealInstallment{}
	s.read(func(t *tables) {
		for _, inst := range t.installments {
			if keep(inst) {
				out = append(out, inst)
			}
		}
	})
	return out
}

func (s *Store) ListInstallmentsByDeal(_ context.Context, dealID string) ([]domain.DealInstallment, error) {
	out := s.installmentsWhere(func(i domain.DealInstallment) bool { return i.DealID == dealID })
	sort.Slice(out, func(i, j int) bool { return out[i].SequenceNo < out[j].SequenceNo })
	return out, nil
}

func (s *Store) FindOpenInstallmentsForUpdate(_ context.Context, dealID string) ([]domain.DealInstallment, error) {
	out := s.installmentsWhere(func(i domain.DealInstallment) bool { return i.DealID == dealID && i.Status.IsOpen() })
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].SequenceNo < out[j].SequenceNo
	})
	return out, nil
}

func (s *Store) FindInstallmentsByIDsForUpdate(_ context.Context, installmentIDs []string) (map[string]domain.DealInstallment, error) {
	out := make(map[string]domain.DealInstallment, len(installmentIDs))
	s.read(func(t *tables) {
		for _, id := range installmentIDs {
			if inst, ok := t.installments[id]; ok {
				out[id] = inst
			}
		}
	})
	return out, nil
}

func (s *Store) UpdateInstallmentPaid(ctx context.Context, installmentID string, paid decimal.Decimal, status domain.InstallmentStatus, at time.Time) error {
	return s.write(ctx, func(t *tables) error {
		inst, ok := t.installments[installmentID]
		if !ok {
			return fmt.Errorf("%w: installment %s", apperrors.ErrNotFound, installmentID)
		}
		if paid.IsNegative() {
			return fmt.Errorf("%w: installment %s paid amount would go negative", apperrors.ErrInternal, installmentID)
		}
		inst.PaidAmount = paid
		inst.Status = status
		inst.LastUpdatedAt = at
		t.installments[installmentID] = inst
		return nil
	})
}

func (s *Store) SaveAllocations(ctx context.Context, allocations []domain.ReceiptAllocation) error {
	return s.write(ctx, func(t *tables) error {
		for _, a := range allocations {
			if a.Amount.IsZero() {
				return fmt.Errorf("%w: allocation %s has zero amount", apperrors.ErrInternal, a.AllocationID)
			}
			t.allocations = append(t.allocations, a)
		}
		return nil
	})
}

func (s *Store) ListAllocationsByPayment(_ context.Context, paymentID string) ([]domain.ReceiptAllocation, error) {
	out := []domain.ReceiptAllocation{}
	s.read(func(t *tables) {
		owned := make(map[string]bool)
		for _, a := range t.allocations {
			if a.PaymentID == paymentID {
				owned[a.AllocationID] = true
			}
		}
		for _, a := range t.allocations {
			if owned[a.AllocationID] || (a.ReversalOfID != nil && owned[*a.ReversalOfID]) {
				out = append(out, a)
			}
		}
	})
	return out, nil
}
