package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Deal is a row of the deals table.
type Deal struct {
	DealID             string          `db:"deal_id"`
	DealNumber         string          `db:"deal_number"`
	ClientID           string          `db:"client_id"`
	DealerID           *string         `db:"dealer_id"`
	PropertyUnitID     *string         `db:"property_unit_id"`
	Title              string          `db:"title"`
	Amount             decimal.Decimal `db:"amount"`
	Stage              string          `db:"stage"`
	Status             string          `db:"status"`
	PaidTotal          decimal.Decimal `db:"paid_total"`
	CommissionDealerID *string         `db:"commission_dealer_id"`
	CommissionRate     decimal.Decimal `db:"commission_rate"`
	CommissionFixed    decimal.Decimal `db:"commission_fixed"`
	RevenueRecognized  bool            `db:"revenue_recognized"`
	RecognitionEntryID *string         `db:"recognition_entry_id"`
	RecognitionCycle   int             `db:"recognition_cycle"`
	AutoClosed         bool            `db:"auto_closed"`
	DeletedAt          *time.Time      `db:"deleted_at"`
	AuditFields
}

// DealInstallment is a row of the deal_installments table.
type DealInstallment struct {
	InstallmentID string          `db:"installment_id"`
	DealID        string          `db:"deal_id"`
	SequenceNo    int             `db:"sequence_no"`
	Amount        decimal.Decimal `db:"amount"`
	PaidAmount    decimal.Decimal `db:"paid_amount"`
	DueDate       time.Time       `db:"due_date"`
	Status        string          `db:"status"`
	AuditFields
}

// ReceiptAllocation is a row of the receipt_allocations table.
type ReceiptAllocation struct {
	AllocationID  string          `db:"allocation_id"`
	PaymentID     string          `db:"payment_id"`
	InstallmentID string          `db:"installment_id"`
	Amount        decimal.Decimal `db:"amount"`
	BalanceBefore decimal.Decimal `db:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`
	ReversalOfID  *string         `db:"reversal_of_id"`
	AllocatedAt   time.Time       `db:"allocated_at"`
}
