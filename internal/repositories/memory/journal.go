package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/SscSPs/estate_ledger/internal/apperrors"
	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/estate_ledger/internal/utils/pagination"
)

var _ portsrepo.JournalRepositoryFacade = (*Store)(nil)

// SaveEntry enforces the same uniqueness as the journal tables: entry ID, entry number
// and natural key among posted entries.
func (s *Store) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	entry.Lines = slices.Clone(entry.Lines)
	return s.write(ctx, func(t *tables) error {
		if _, ok := t.entries[entry.EntryID]; ok {
			return fmt.Errorf("%w: journal entry %s", apperrors.ErrDuplicate, entry.EntryID)
		}
		if entry.EntryNumber != "" {
			if _, ok := t.entryByNumber[entry.EntryNumber]; ok {
				return fmt.Errorf("%w: entry number %s", apperrors.ErrDuplicate, entry.EntryNumber)
			}
			t.entryByNumber[entry.EntryNumber] = entry.EntryID
		}
		if entry.Status == domain.Posted {
			if _, ok := t.postedByKey[entry.NaturalKey]; ok {
				return fmt.Errorf("%w: natural key %s", apperrors.ErrDuplicate, entry.NaturalKey)
			}
			t.postedByKey[entry.NaturalKey] = entry.EntryID
		}
		t.entries[entry.EntryID] = entry
		return nil
	})
}

func (s *Store) MarkPosted(ctx context.Context, entryID, entryNumber string, postedAt time.Time, userID string) error {
	return s.write(ctx, func(t *tables) error {
		entry, ok := t.entries[entryID]
		if !ok || entry.Status != domain.Draft {
			return fmt.Errorf("%w: draft %s", apperrors.ErrNotFound, entryID)
		}
		if _, taken := t.postedByKey[entry.NaturalKey]; taken {
			return fmt.Errorf("%w: natural key %s", apperrors.ErrDuplicate, entry.NaturalKey)
		}
		if _, taken := t.entryByNumber[entryNumber]; taken {
			return fmt.Errorf("%w: entry number %s", apperrors.ErrDuplicate, entryNumber)
		}
		entry.Status = domain.Posted
		entry.EntryNumber = entryNumber
		entry.LastUpdatedAt = postedAt
		entry.LastUpdatedBy = userID
		t.entries[entryID] = entry
		t.postedByKey[entry.NaturalKey] = entryID
		t.entryByNumber[entryNumber] = entryID
		return nil
	})
}

func (s *Store) FindEntryByID(_ context.Context, entryID string) (*domain.JournalEntry, error) {
	var entry domain.JournalEntry
	var ok bool
	s.read(func(t *tables) { entry, ok = t.entries[entryID] })
	if !ok {
		return nil, fmt.Errorf("%w: journal entry %s", apperrors.ErrNotFound, entryID)
	}
	entry.Lines = slices.Clone(entry.Lines)
	return &entry, nil
}

func (s *Store) FindPostedEntryByNaturalKey(ctx context.Context, naturalKey string) (*domain.JournalEntry, error) {
	var entryID string
	var ok bool
	s.read(func(t *tables) { entryID, ok = t.postedByKey[naturalKey] })
	if !ok {
		return nil, fmt.Errorf("%w: posted entry for %s", apperrors.ErrNotFound, naturalKey)
	}
	return s.FindEntryByID(ctx, entryID)
}

// entryBefore orders entries newest first, matching the SQL keyset.
func entryBefore(a, b domain.JournalEntry) bool {
	if !a.EntryDate.Equal(b.EntryDate) {
		return a.EntryDate.After(b.EntryDate)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.EntryID > b.EntryID
}

func (s *Store) ListEntries(_ context.Context, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	var after *domain.JournalEntry
	if nextToken != nil && *nextToken != "" {
		cursor, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewValidationError("invalid nextToken: %v", err)
		}
		after = &domain.JournalEntry{EntryDate: cursor.Date, EntryID: cursor.ID}
		after.CreatedAt = cursor.CreatedAt
	}

	var all []domain.JournalEntry
	s.read(func(t *tables) {
		for _, e := range t.entries {
			if after == nil || entryBefore(*after, e) {
				all = append(all, e)
			}
		}
	})
	sort.Slice(all, func(i, j int) bool { return entryBefore(all[i], all[j]) })

	var next *string
	if len(all) > limit {
		last := all[limit-1]
		token := pagination.EncodeCursor(pagination.Cursor{Date: last.EntryDate, CreatedAt: last.CreatedAt, ID: last.EntryID})
		next = &token
		all = all[:limit]
	}
	for i := range all {
		all[i].Lines = slices.Clone(all[i].Lines)
	}
	return all, next, nil
}
