package mapping

import (
	"github.com/SscSPs/estate_ledger/internal/core/domain"
	"github.com/SscSPs/estate_ledger/internal/models"
)

// ToModelPayment converts a domain Payment to a model Payment
func ToModelPayment(d domain.Payment) models.Payment {
	return models.Payment{
		PaymentID:      d.PaymentID,
		PaymentNumber:  d.PaymentNumber,
		DealID:         d.DealID,
		Amount:         d.Amount,
		PaymentType:    string(d.Type),
		PaymentMode:    string(d.Mode),
		InstallmentID:  d.InstallmentID,
		RefundOfID:     d.RefundOfID,
		Reason:         d.Reason,
		JournalEntryID: d.JournalEntryID,
		PaidAt:         d.PaidAt,
		DeletedAt:      d.DeletedAt,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainPayment converts a model Payment to a domain Payment
func ToDomainPayment(m models.Payment) domain.Payment {
	return domain.Payment{
		PaymentID:      m.PaymentID,
		PaymentNumber:  m.PaymentNumber,
		DealID:         m.DealID,
		Amount:         m.Amount,
		Type:           domain.PaymentType(m.PaymentType),
		Mode:           domain.PaymentMode(m.PaymentMode),
		InstallmentID:  m.InstallmentID,
		RefundOfID:     m.RefundOfID,
		Reason:         m.Reason,
		JournalEntryID: m.JournalEntryID,
		PaidAt:         m.PaidAt,
		DeletedAt:      m.DeletedAt,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}
