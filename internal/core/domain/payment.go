package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType classifies an incoming (or, for refunds, outgoing) payment.
type PaymentType string

const (
	PaymentToken       PaymentType = "token"
	PaymentBooking     PaymentType = "booking"
	PaymentInstallment PaymentType = "installment"
	PaymentPartial     PaymentType = "partial"
	PaymentFull        PaymentType = "full"
	PaymentRefund      PaymentType = "refund"
)

// IsValid reports whether t is a known payment type.
func (t PaymentType) IsValid() bool {
	switch t {
	case PaymentToken, PaymentBooking, PaymentInstallment, PaymentPartial, PaymentFull, PaymentRefund:
		return true
	}
	return false
}

// IsAdvance reports whether the money is held in trust until the deal closes.
func (t PaymentType) IsAdvance() bool {
	return t == PaymentToken || t == PaymentBooking
}

// PaymentMode is how the money moved.
type PaymentMode string

const (
	ModeCash  PaymentMode = "cash"
	ModeBank  PaymentMode = "bank"
	ModeOther PaymentMode = "other"
)

// IsValid reports whether m is a known payment mode.
func (m PaymentMode) IsValid() bool {
	return m == ModeCash || m == ModeBank || m == ModeOther
}

// Payment is a money movement against a deal, created together with its journal entry.
type Payment struct {
	PaymentID      string          `json:"paymentID"`
	PaymentNumber  string          `json:"paymentNumber"` // pay-YY-NNNN
	DealID         string          `json:"dealID"`
	Amount         decimal.Decimal `json:"amount"`
	Type           PaymentType     `json:"type"`
	Mode           PaymentMode     `json:"mode"`
	InstallmentID  *string         `json:"installmentID,omitempty"`
	RefundOfID     *string         `json:"refundOfID,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	JournalEntryID string          `json:"journalEntryID"`
	PaidAt         time.Time       `json:"paidAt"`
	DeletedAt      *time.Time      `json:"deletedAt,omitempty"`
	AuditFields
}

// IsRefund reports whether the payment returns money to the client.
func (p Payment) IsRefund() bool {
	return p.Type == PaymentRefund
}
