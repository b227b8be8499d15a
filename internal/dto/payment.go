package dto

import (
	"time"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreatePaymentRequest records money received against a deal.
type CreatePaymentRequest struct {
	DealID        string             `json:"dealID" binding:"required"`
	Amount        decimal.Decimal    `json:"amount" binding:"dgt0"`
	Type          domain.PaymentType `json:"type" binding:"required,oneof=token booking installment partial full"`
	Mode          domain.PaymentMode `json:"mode" binding:"required,oneof=cash bank other"`
	InstallmentID *string            `json:"installmentID"`
	PaidAt        time.Time          `json:"paidAt"`
}

// RefundPaymentRequest returns part or all of an earlier payment.
type RefundPaymentRequest struct {
	OriginalPaymentID string          `json:"-"`
	Amount            decimal.Decimal `json:"amount" binding:"dgt0"`
	Reason            string          `json:"reason" binding:"required,max=500"`
	RefundedAt        time.Time       `json:"refundedAt"`
}

// PaymentResult is what a payment or refund produced.
type PaymentResult struct {
	Payment      domain.Payment           `json:"payment"`
	JournalEntry domain.JournalEntry      `json:"journalEntry"`
	Allocation   *domain.AllocationResult `json:"allocation,omitempty"`
	Reversals    []domain.AllocationLine  `json:"reversals,omitempty"`
	Deal         domain.Deal              `json:"deal"`
}
