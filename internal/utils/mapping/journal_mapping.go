package mapping

import (
	"github.com/SscSPs/estate_ledger/internal/core/domain"
	"github.com/SscSPs/estate_ledger/internal/models"
)

// ToModelJournalEntry converts a domain JournalEntry to a model JournalEntry
func ToModelJournalEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:      d.EntryID,
		EntryNumber:  NullableString(d.EntryNumber),
		EntryDate:    d.EntryDate,
		Status:       string(d.Status),
		Description:  d.Description,
		CurrencyCode: d.CurrencyCode,
		NaturalKey:   d.NaturalKey,
		SourceType:   d.SourceType,
		ReversalOfID: d.ReversalOfID,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainJournalEntry converts a model JournalEntry to a domain JournalEntry without lines
func ToDomainJournalEntry(m models.JournalEntry) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:      m.EntryID,
		EntryNumber:  StringValue(m.EntryNumber),
		EntryDate:    m.EntryDate,
		Status:       domain.JournalStatus(m.Status),
		Description:  m.Description,
		CurrencyCode: m.CurrencyCode,
		NaturalKey:   m.NaturalKey,
		SourceType:   m.SourceType,
		ReversalOfID: m.ReversalOfID,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelJournalLine converts a domain JournalLine to a model JournalLine
func ToModelJournalLine(d domain.JournalLine) models.JournalLine {
	return models.JournalLine{
		LineID:     d.LineID,
		EntryID:    d.EntryID,
		LineNo:     d.LineNo,
		AccountID:  d.AccountID,
		Debit:      d.Debit,
		Credit:     d.Credit,
		Memo:       d.Memo,
		CostCenter: NullableString(d.Tags.CostCenter),
		DealID:     NullableString(d.Tags.DealID),
		ClientID:   NullableString(d.Tags.ClientID),
		DealerID:   NullableString(d.Tags.DealerID),
		UnitID:     NullableString(d.Tags.UnitID),
	}
}

// ToDomainJournalLine converts a model JournalLine to a domain JournalLine
func ToDomainJournalLine(m models.JournalLine) domain.JournalLine {
	return domain.JournalLine{
		LineID:    m.LineID,
		EntryID:   m.EntryID,
		LineNo:    m.LineNo,
		AccountID: m.AccountID,
		Debit:     m.Debit,
		Credit:    m.Credit,
		Memo:      m.Memo,
		Tags: domain.Dimensions{
			CostCenter: StringValue(m.CostCenter),
			DealID:     StringValue(m.DealID),
			ClientID:   StringValue(m.ClientID),
			DealerID:   StringValue(m.DealerID),
			UnitID:     StringValue(m.UnitID),
		},
	}
}
