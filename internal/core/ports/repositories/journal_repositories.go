package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
)

// JournalReader defines read operations for journal data
type JournalReader interface {
	// FindEntryByID retrieves an entry together with its lines.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// FindPostedEntryByNaturalKey returns the posted entry for an originating event, or ErrNotFound.
	FindPostedEntryByNaturalKey(ctx context.Context, naturalKey string) (*domain.JournalEntry, error)

	// ListEntries returns entries newest first using token-based pagination.
	ListEntries(ctx context.Context, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)
}

// JournalWriter defines write operations for journal data. Entries are insert-only;
// the single permitted update moves a draft to posted.
type JournalWriter interface {
	// SaveEntry inserts the entry and its lines. A posted entry whose natural key is
	// already posted fails with ErrDuplicate.
	SaveEntry(ctx context.Context, entry domain.JournalEntry) error

	// MarkPosted turns a draft into a posted entry with its number.
	MarkPosted(ctx context.Context, entryID, entryNumber string, postedAt time.Time, userID string) error
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
}
