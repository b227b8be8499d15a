package services

import (
	"context"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
	"github.com/SscSPs/estate_ledger/internal/dto"
	"github.com/shopspring/decimal"
)

// PaymentSvc creates payments and refunds together with their postings.
type PaymentSvc interface {
	CreatePayment(ctx context.Context, req dto.CreatePaymentRequest, userID string) (*dto.PaymentResult, error)
	RefundPayment(ctx context.Context, req dto.RefundPaymentRequest, userID string) (*dto.PaymentResult, error)
	GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error)
	ListDealPayments(ctx context.Context, dealID string) ([]domain.Payment, error)
}

// AllocationSvc applies money to installments earliest-due first and can undo it.
type AllocationSvc interface {
	// Allocate spreads amount over the deal's open installments.
	Allocate(ctx context.Context, dealID, paymentID string, amount decimal.Decimal) (*domain.AllocationResult, error)

	// AllocateToInstallment settles one named installment first, then continues FIFO.
	AllocateToInstallment(ctx context.Context, dealID, paymentID, installmentID string, amount decimal.Decimal) (*domain.AllocationResult, error)

	// ReverseForRefund undoes up to amount of the original payment's allocations, newest first.
	ReverseForRefund(ctx context.Context, originalPaymentID, refundPaymentID string, amount decimal.Decimal) ([]domain.AllocationLine, error)
}
