package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptAllocation records how much of a payment settled one installment.
// Refund reversals are stored as negative allocations pointing at the row they undo.
type ReceiptAllocation struct {
	AllocationID  string          `json:"allocationID"`
	PaymentID     string          `json:"paymentID"`
	InstallmentID string          `json:"installmentID"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balanceBefore"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`
	ReversalOfID  *string         `json:"reversalOfID,omitempty"`
	AllocatedAt   time.Time       `json:"allocatedAt"`
}

// AllocationLine is one step of an allocation run.
type AllocationLine struct {
	InstallmentID   string            `json:"installmentID"`
	SequenceNo      int               `json:"sequenceNo"`
	DueDate         time.Time         `json:"dueDate"`
	AmountApplied   decimal.Decimal   `json:"amountApplied"`
	BalanceBefore   decimal.Decimal   `json:"balanceBefore"`
	BalanceAfter    decimal.Decimal   `json:"balanceAfter"`
	ResultingStatus InstallmentStatus `json:"resultingStatus"`
}

// AllocationResult summarises an allocation run. Leftover is money that found no open
// installment; the caller decides whether it is an advance or an overpayment.
type AllocationResult struct {
	Lines          []AllocationLine    `json:"lines"`
	Records        []ReceiptAllocation `json:"-"`
	TotalAllocated decimal.Decimal     `json:"totalAllocated"`
	Leftover       decimal.Decimal     `json:"leftover"`
}
