package dto

import (
	"time"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// JournalLineRequest is one line of a posting request.
type JournalLineRequest struct {
	AccountID string            `json:"accountID" binding:"required"`
	Debit     decimal.Decimal   `json:"debit"`
	Credit    decimal.Decimal   `json:"credit"`
	Memo      string            `json:"memo"`
	Tags      domain.Dimensions `json:"tags"`
}

// PostJournalRequest asks the posting engine for a new entry. NaturalKey identifies the
// originating event; a second posting with the same key is rejected.
type PostJournalRequest struct {
	EntryDate   time.Time            `json:"entryDate"`
	Description string               `json:"description" binding:"max=500"`
	NaturalKey  string               `json:"naturalKey" binding:"required,max=200"`
	SourceType  string               `json:"sourceType"`
	Lines       []JournalLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// ReverseJournalRequest asks for a contra-entry of an existing posted entry.
type ReverseJournalRequest struct {
	NaturalKey string    `json:"naturalKey"` // defaults to journal-reversal:{entryID}
	Reason     string    `json:"reason" binding:"max=500"`
	EntryDate  time.Time `json:"entryDate"`
	SourceType string    `json:"-"` // set by internal callers, defaults to journal-reversal
}

// ListJournalsParams defines parameters for listing journals with token-based pagination.
type ListJournalsParams struct {
	Limit     int     `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// ListJournalsResponse is a page of entries.
type ListJournalsResponse struct {
	Journals  []domain.JournalEntry `json:"journals"`
	NextToken *string               `json:"nextToken,omitempty"`
}

// LinesFromDomain converts domain lines into request lines.
func LinesFromDomain(lines []domain.JournalLine) []JournalLineRequest {
	out := make([]JournalLineRequest, len(lines))
	for i, l := range lines {
		out[i] = JournalLineRequest{AccountID: l.AccountID, Debit: l.Debit, Credit: l.Credit, Memo: l.Memo, Tags: l.Tags}
	}
	return out
}
