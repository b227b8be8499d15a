package services

import (
	"context"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
	"github.com/SscSPs/estate_ledger/internal/dto"
)

// JournalReaderSvc defines read operations for journal data
type JournalReaderSvc interface {
	GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error)
	GetEntryByNaturalKey(ctx context.Context, naturalKey string) (*domain.JournalEntry, error)
	ListEntries(ctx context.Context, params dto.ListJournalsParams) (*dto.ListJournalsResponse, error)
}

// JournalWriterSvc is the only writer of journal entries.
type JournalWriterSvc interface {
	// Post validates and commits a balanced entry atomically.
	Post(ctx context.Context, req dto.PostJournalRequest, userID string) (*domain.JournalEntry, error)

	// Reverse posts a contra-entry with every line's side swapped.
	Reverse(ctx context.Context, entryID string, req dto.ReverseJournalRequest, userID string) (*domain.JournalEntry, error)

	// CreateDraft stores an unnumbered entry with no ledger effect.
	CreateDraft(ctx context.Context, req dto.PostJournalRequest, userID string) (*domain.JournalEntry, error)

	// PostDraft validates a draft and posts it.
	PostDraft(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error)
}

// JournalSvcFacade combines all journal-related service interfaces
type JournalSvcFacade interface {
	JournalReaderSvc
	JournalWriterSvc
}
