package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountBalance is the signed balance of one account, positive on its normal side.
type AccountBalance struct {
	AccountID  string          `json:"accountID"`
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	NormalSide Side            `json:"normalSide"`
	Balance    decimal.Decimal `json:"balance"`
	AsOf       time.Time       `json:"asOf"`
}

// TrialBalanceRow represents a single row in a trial balance report
type TrialBalanceRow struct {
	AccountID   string          `json:"accountID"`
	AccountCode string          `json:"accountCode"`
	AccountName string          `json:"accountName"`
	AccountType AccountType     `json:"accountType"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// TrialBalance lists posted totals per account.
type TrialBalance struct {
	AsOf        time.Time         `json:"asOf"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"totalDebit"`
	TotalCredit decimal.Decimal   `json:"totalCredit"`
	Balanced    bool              `json:"balanced"`
}

// StatementEvent is a raw fact fed into a party statement replay.
type StatementEvent struct {
	Date        time.Time       `json:"date"`
	Kind        string          `json:"kind"` // deal, payment, refund, commission, payout
	Reference   string          `json:"reference"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// StatementLine is a StatementEvent with the running balance after it.
type StatementLine struct {
	StatementEvent
	RunningBalance decimal.Decimal `json:"runningBalance"`
}

// PartyStatement is a chronological running-balance view for a client or dealer.
type PartyStatement struct {
	PartyID        string          `json:"partyID"`
	PartyType      string          `json:"partyType"`
	Lines          []StatementLine `json:"lines"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
}
