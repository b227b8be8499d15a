package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a row of the payments table.
type Payment struct {
	PaymentID      string          `db:"payment_id"`
	PaymentNumber  string          `db:"payment_number"`
	DealID         string          `db:"deal_id"`
	Amount         decimal.Decimal `db:"amount"`
	PaymentType    string          `db:"payment_type"`
	PaymentMode    string          `db:"payment_mode"`
	InstallmentID  *string         `db:"installment_id"`
	RefundOfID     *string         `db:"refund_of_id"`
	Reason         string          `db:"reason"`
	JournalEntryID string          `db:"journal_entry_id"`
	PaidAt         time.Time       `db:"paid_at"`
	DeletedAt      *time.Time      `db:"deleted_at"`
	AuditFields
}
