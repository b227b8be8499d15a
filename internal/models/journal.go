package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is a row of the journal_entries table.
type JournalEntry struct {
	EntryID      string    `db:"entry_id"`
	EntryNumber  *string   `db:"entry_number"` // NULL while DRAFT
	EntryDate    time.Time `db:"entry_date"`
	Status       string    `db:"status"`
	Description  string    `db:"description"`
	CurrencyCode string    `db:"currency_code"`
	NaturalKey   string    `db:"natural_key"`
	SourceType   string    `db:"source_type"`
	ReversalOfID *string   `db:"reversal_of_id"`
	AuditFields
}

// JournalLine is a row of the journal_lines table. Dimension columns are nullable.
type JournalLine struct {
	LineID     string          `db:"line_id"`
	EntryID    string          `db:"entry_id"`
	LineNo     int             `db:"line_no"`
	AccountID  string          `db:"account_id"`
	Debit      decimal.Decimal `db:"debit"`
	Credit     decimal.Decimal `db:"credit"`
	Memo       string          `db:"memo"`
	CostCenter *string         `db:"cost_center"`
	DealID     *string         `db:"deal_id"`
	ClientID   *string         `db:"client_id"`
	DealerID   *string         `db:"dealer_id"`
	UnitID     *string         `db:"unit_id"`
}
