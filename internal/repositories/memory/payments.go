package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/estate_ledger/internal/apperrors"
	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

var _ portsrepo.PaymentRepositoryFacade = (*Store)(nil)

func (s *Store) SavePayment(ctx context.Context, payment domain.Payment) error {
	return s.write(ctx, func(t *tables) error {
		if _, ok := t.payments[payment.PaymentID]; ok {
			return fmt.Errorf("%w: payment %s", apperrors.ErrDuplicate, payment.PaymentID)
		}
		if _, ok := t.paymentNumbers[payment.PaymentNumber]; ok {
			return fmt.Errorf("%w: payment number %s", apperrors.ErrDuplicate, payment.PaymentNumber)
		}
		if payment.IsRefund() != (payment.RefundOfID != nil) {
			return fmt.Errorf("%w: payment %s refund link does not match its type", apperrors.ErrInternal, payment.PaymentID)
		}
		t.payments[payment.PaymentID] = payment
		t.paymentNumbers[payment.PaymentNumber] = payment.PaymentID
		return nil
	})
}

func (s *Store) FindPaymentByID(_ context.Context, paymentID string) (*domain.Payment, error) {
	var p domain.Payment
	var ok bool
	s.read(func(t *tables) { p, ok = t.payments[paymentID] })
	if !ok {
		return nil, fmt.Errorf("%w: payment %s", apperrors.ErrNotFound, paymentID)
	}
	return &p, nil
}

func (s *Store) ListPaymentsByDeal(_ context.Context, dealID string) ([]domain.Payment, error) {
	out := []domain.Payment{}
	s.read(func(t *tables) {
		for _, p := range t.payments {
			if p.DealID == dealID {
				out = append(out, p)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PaidAt.Equal(out[j].PaidAt) {
			return out[i].PaidAt.Before(out[j].PaidAt)
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].PaymentNumber < out[j].PaymentNumber
	})
	return out, nil
}

func (s *Store) SumRefundsOf(_ context.Context, originalPaymentID string) (decimal.Decimal, error) {
	total := decimal.Zero
	s.read(func(t *tables) {
		for _, p := range t.payments {
			if p.RefundOfID != nil && *p.RefundOfID == originalPaymentID && p.DeletedAt == nil {
				total = total.Add(p.Amount)
			}
		}
	})
	return total, nil
}

func (s *Store) TotalsByDeal(_ context.Context, dealID string) (portsrepo.PaymentTotals, error) {
	totals := portsrepo.PaymentTotals{Received: decimal.Zero, Refunded: decimal.Zero}
	s.read(func(t *tables) {
		for _, p := range t.payments {
			if p.DealID != dealID || p.DeletedAt != nil {
				continue
			}
			totals.Count++
			if p.IsRefund() {
				totals.Refunded = totals.Refunded.Add(p.Amount)
			} else {
				totals.Received = totals.Received.Add(p.Amount)
			}
		}
	})
	return totals, nil
}
