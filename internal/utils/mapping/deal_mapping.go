package mapping

import (
	"github.com/SscSPs/estate_ledger/internal/core/domain"
	"github.com/SscSPs/estate_ledger/internal/models"
)

// ToModelDeal converts a domain Deal to a model Deal
func ToModelDeal(d domain.Deal) models.Deal {
	return models.Deal{
		DealID:             d.DealID,
		DealNumber:         d.DealNumber,
		ClientID:           d.ClientID,
		DealerID:           NullableString(d.DealerID),
		PropertyUnitID:     NullableString(d.PropertyUnitID),
		Title:              d.Title,
		Amount:             d.Amount,
		Stage:              string(d.Stage),
		Status:             string(d.Status),
		PaidTotal:          d.PaidTotal,
		CommissionDealerID: NullableString(d.Commission.DealerID),
		CommissionRate:     d.Commission.Rate,
		CommissionFixed:    d.Commission.FixedAmount,
		RevenueRecognized:  d.RevenueRecognized,
		RecognitionEntryID: d.RecognitionEntryID,
		RecognitionCycle:   d.RecognitionCycle,
		AutoClosed:         d.AutoClosed,
		DeletedAt:          d.DeletedAt,
		AuditFields:        ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainDeal converts a model Deal to a domain Deal
func ToDomainDeal(m models.Deal) domain.Deal {
	return domain.Deal{
		DealID:         m.DealID,
		DealNumber:     m.DealNumber,
		ClientID:       m.ClientID,
		DealerID:       StringValue(m.DealerID),
		PropertyUnitID: StringValue(m.PropertyUnitID),
		Title:          m.Title,
		Amount:         m.Amount,
		Stage:          domain.DealStage(m.Stage),
		Status:         domain.DealStatus(m.Status),
		PaidTotal:      m.PaidTotal,
		Commission: domain.CommissionConfig{
			DealerID:    StringValue(m.CommissionDealerID),
			Rate:        m.CommissionRate,
			FixedAmount: m.CommissionFixed,
		},
		RevenueRecognized:  m.RevenueRecognized,
		RecognitionEntryID: m.RecognitionEntryID,
		RecognitionCycle:   m.RecognitionCycle,
		AutoClosed:         m.AutoClosed,
		DeletedAt:          m.DeletedAt,
		AuditFields:        ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelInstallment converts a domain DealInstallment to a model DealInstallment
func ToModelInstallment(d domain.DealInstallment) models.DealInstallment {
	return models.DealInstallment{
		InstallmentID: d.InstallmentID,
		DealID:        d.DealID,
		SequenceNo:    d.SequenceNo,
		Amount:        d.Amount,
		PaidAmount:    d.PaidAmount,
		DueDate:       d.DueDate,
		Status:        string(d.Status),
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainInstallment converts a model DealInstallment to a domain DealInstallment
func ToDomainInstallment(m models.DealInstallment) domain.DealInstallment {
	return domain.DealInstallment{
		InstallmentID: m.InstallmentID,
		DealID:        m.DealID,
		SequenceNo:    m.SequenceNo,
		Amount:        m.Amount,
		PaidAmount:    m.PaidAmount,
		DueDate:       m.DueDate,
		Status:        domain.InstallmentStatus(m.Status),
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelAllocation converts a domain ReceiptAllocation to a model ReceiptAllocation
func ToModelAllocation(d domain.ReceiptAllocation) models.ReceiptAllocation {
	return models.ReceiptAllocation(d)
}

// ToDomainAllocation converts a model ReceiptAllocation to a domain ReceiptAllocation
func ToDomainAllocation(m models.ReceiptAllocation) domain.ReceiptAllocation {
	return domain.ReceiptAllocation(m)
}
