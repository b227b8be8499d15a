package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PaymentTotals aggregates the live payments of a deal.
type PaymentTotals struct {
	Received decimal.Decimal // non-refund payments
	Refunded decimal.Decimal
	Count    int
}

// PaymentRepositoryFacade stores payments. Payments are never updated once saved.
type PaymentRepositoryFacade interface {
	SavePayment(ctx context.Context, payment domain.Payment) error
	FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error)
	ListPaymentsByDeal(ctx context.Context, dealID string) ([]domain.Payment, error)

	// SumRefundsOf returns the total already refunded against an original payment.
	SumRefundsOf(ctx context.Context, originalPaymentID string) (decimal.Decimal, error)

	// TotalsByDeal ignores soft-deleted payments.
	TotalsByDeal(ctx context.Context, dealID string) (PaymentTotals, error)
}

// InstallmentRepositoryFacade stores payment-plan installments and their allocation trail.
type InstallmentRepositoryFacade interface {
	SaveInstallments(ctx context.Context, installments []domain.DealInstallment) error
	ListInstallmentsByDeal(ctx context.Context, dealID string) ([]domain.DealInstallment, error)

	// FindOpenInstallmentsForUpdate locks the Pending and Partial installments of a deal,
	// ordered by due date then sequence number.
	FindOpenInstallmentsForUpdate(ctx context.Context, dealID string) ([]domain.DealInstallment, error)

	// FindInstallmentsByIDsForUpdate locks the given installments.
	FindInstallmentsByIDsForUpdate(ctx context.Context, installmentIDs []string) (map[string]domain.DealInstallment, error)

	UpdateInstallmentPaid(ctx context.Context, installmentID string, paid decimal.Decimal, status domain.InstallmentStatus, at time.Time) error

	SaveAllocations(ctx context.Context, allocations []domain.ReceiptAllocation) error

	// ListAllocationsByPayment returns the allocation trail of a payment in the order it was
	// written, including negative reversal rows that point at it.
	ListAllocationsByPayment(ctx context.Context, paymentID string) ([]domain.ReceiptAllocation, error)
}
