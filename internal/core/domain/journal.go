package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalStatus indicates the state of a journal entry.
type JournalStatus string

const (
	Draft  JournalStatus = "DRAFT"
	Posted JournalStatus = "POSTED"
)

// JournalEntry is a balanced set of lines. Once posted it is never edited;
// corrections are new entries whose ReversalOfID points back here.
type JournalEntry struct {
	EntryID      string        `json:"entryID"`
	EntryNumber  string        `json:"entryNumber,omitempty"` // je-YY-NNNN, assigned on posting
	EntryDate    time.Time     `json:"entryDate"`
	Status       JournalStatus `json:"status"`
	Description  string        `json:"description"`
	CurrencyCode string        `json:"currencyCode"`
	NaturalKey   string        `json:"naturalKey"` // originating event, unique among posted entries
	SourceType   string        `json:"sourceType"`
	ReversalOfID *string       `json:"reversalOfID,omitempty"`
	Lines        []JournalLine `json:"lines"`
	AuditFields
}

// Totals sums the debit and credit sides.
func (e JournalEntry) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// IsBalanced reports whether debits equal credits exactly.
func (e JournalEntry) IsBalanced() bool {
	d, c := e.Totals()
	return d.Equal(c)
}

// Source types used as JournalEntry.SourceType.
const (
	SourceManual          = "manual"
	SourcePayment         = "payment"
	SourceRefund          = "refund"
	SourceRevenue         = "deal-revenue"
	SourceRevenueReversal = "deal-revenue-reversal"
	SourceJournalReversal = "journal-reversal"
)
