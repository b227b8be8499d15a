package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentStatus tracks how much of an installment has been settled.
type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "Pending"
	InstallmentPartial InstallmentStatus = "Partial"
	InstallmentPaid    InstallmentStatus = "Paid"
)

// IsOpen reports whether the installment can still receive money.
func (s InstallmentStatus) IsOpen() bool {
	return s == InstallmentPending || s == InstallmentPartial
}

// DealInstallment is one obligation of a deal's payment plan.
type DealInstallment struct {
	InstallmentID string            `json:"installmentID"`
	DealID        string            `json:"dealID"`
	SequenceNo    int               `json:"sequenceNo"`
	Amount        decimal.Decimal   `json:"amount"`
	PaidAmount    decimal.Decimal   `json:"paidAmount"`
	DueDate       time.Time         `json:"dueDate"`
	Status        InstallmentStatus `json:"status"`
	AuditFields
}

// Remaining is the unpaid part of the installment, never negative.
func (i DealInstallment) Remaining() decimal.Decimal {
	r := i.Amount.Sub(i.PaidAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// InstallmentStatusFor derives the status from paid vs amount.
func InstallmentStatusFor(paid, amount decimal.Decimal) InstallmentStatus {
	switch {
	case paid.GreaterThanOrEqual(amount):
		return InstallmentPaid
	case paid.IsPositive():
		return InstallmentPartial
	default:
		return InstallmentPending
	}
}
