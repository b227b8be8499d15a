package domain

import "github.com/shopspring/decimal"

// Side indicates whether a journal line is a debit or a credit.
type Side string

const (
	Debit  Side = "DEBIT"
	Credit Side = "CREDIT"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Debit {
		return Credit
	}
	return Debit
}

// Dimensions are optional reporting tags carried by a journal line.
type Dimensions struct {
	CostCenter string `json:"costCenter,omitempty"`
	DealID     string `json:"dealID,omitempty"`
	ClientID   string `json:"clientID,omitempty"`
	DealerID   string `json:"dealerID,omitempty"`
	UnitID     string `json:"unitID,omitempty"`
}

// JournalLine is a single debit or credit against one account.
// Exactly one of Debit and Credit is non-zero.
type JournalLine struct {
	LineID    string          `json:"lineID"`
	EntryID   string          `json:"entryID"`
	LineNo    int             `json:"lineNo"`
	AccountID string          `json:"accountID"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Memo      string          `json:"memo,omitempty"`
	Tags      Dimensions      `json:"tags"`
}

// Side returns which side of the ledger the line sits on.
func (l JournalLine) Side() Side {
	if l.Debit.IsPositive() {
		return Debit
	}
	return Credit
}

// Amount returns the non-zero amount of the line.
func (l JournalLine) Amount() decimal.Decimal {
	if l.Debit.IsPositive() {
		return l.Debit
	}
	return l.Credit
}

// Mirror returns a copy of the line with debit and credit swapped and a new amount.
// IDs are cleared so the copy can belong to another entry.
func (l JournalLine) Mirror(amount decimal.Decimal) JournalLine {
	m := JournalLine{AccountID: l.AccountID, Memo: l.Memo, Tags: l.Tags}
	if l.Side() == Debit {
		m.Credit = amount
		m.Debit = decimal.Zero
	} else {
		m.Debit = amount
		m.Credit = decimal.Zero
	}
	return m
}

// NewDebitLine builds a debit line.
func NewDebitLine(accountID string, amount decimal.Decimal, tags Dimensions) JournalLine {
	return JournalLine{AccountID: accountID, Debit: amount, Credit: decimal.Zero, Tags: tags}
}

// NewCreditLine builds a credit line.
func NewCreditLine(accountID string, amount decimal.Decimal, tags Dimensions) JournalLine {
	return JournalLine{AccountID: accountID, Debit: decimal.Zero, Credit: amount, Tags: tags}
}
