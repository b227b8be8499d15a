package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/SscSPs/estate_ledger/internal/apperrors"
	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/estate_ledger/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger/internal/dto"
	"github.com/SscSPs/estate_ledger/internal/utils/accounting"
)

const (
	defaultJournalPageSize = 20
	maxJournalPageSize     = 100
)

// journalService is the posting engine. It is the only code that writes journal entries.
type journalService struct {
	BaseService
	journalRepo portsrepo.JournalRepositoryFacade
	accountRepo portsrepo.AccountReader
	sequenceSvc portssvc.SequenceSvc
	txManager   portsrepo.TransactionManager
	settings    LedgerSettings
}

// NewJournalService creates a new JournalService.
func NewJournalService(journalRepo portsrepo.JournalRepositoryFacade, accountRepo portsrepo.AccountReader, sequenceSvc portssvc.SequenceSvc, txManager portsrepo.TransactionManager, settings LedgerSettings) portssvc.JournalSvcFacade {
	return &journalService{
		journalRepo: journalRepo,
		accountRepo: accountRepo,
		sequenceSvc: sequenceSvc,
		txManager:   txManager,
		settings:    settings,
	}
}

// Ensure journalService implements the portssvc.JournalSvcFacade interface
var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// buildEntry turns a request into an unsaved entry and checks every line's shape.
func (s *journalService) buildEntry(req dto.PostJournalRequest, status domain.JournalStatus, userID string) (domain.JournalEntry, error) {
	naturalKey := strings.TrimSpace(req.NaturalKey)
	if naturalKey == "" {
		return domain.JournalEntry{}, apperrors.NewValidationError("natural key is required")
	}

	now := s.settings.now()
	entryDate := req.EntryDate
	if entryDate.IsZero() {
		entryDate = now
	}
	sourceType := req.SourceType
	if sourceType == "" {
		sourceType = domain.SourceManual
	}

	entry := domain.JournalEntry{
		EntryID:      uuid.NewString(),
		EntryDate:    entryDate.UTC(),
		Status:       status,
		Description:  strings.TrimSpace(req.Description),
		CurrencyCode: s.settings.CurrencyCode,
		NaturalKey:   naturalKey,
		SourceType:   sourceType,
		Lines:        make([]domain.JournalLine, len(req.Lines)),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	for i, l := range req.Lines {
		line := domain.JournalLine{
			LineID:    uuid.NewString(),
			EntryID:   entry.EntryID,
			LineNo:    i + 1,
			AccountID: l.AccountID,
			Debit:     l.Debit,
			Credit:    l.Credit,
			Memo:      l.Memo,
			Tags:      l.Tags,
		}
		if err := accounting.ValidateLineShape(line, s.settings.CurrencyScale); err != nil {
			return domain.JournalEntry{}, err
		}
		entry.Lines[i] = line
	}
	return entry, nil
}

// checkAccounts verifies that every line lands on an active posting account in the
// entry's currency. The accounts stay share-locked until the transaction ends.
func (s *journalService) checkAccounts(ctx context.Context, entry domain.JournalEntry) error {
	ids := make([]string, 0, len(entry.Lines))
	seen := make(map[string]struct{}, len(entry.Lines))
	for _, l := range entry.Lines {
		if _, ok := seen[l.AccountID]; ok {
			continue
		}
		seen[l.AccountID] = struct{}{}
		ids = append(ids, l.AccountID)
	}
	sort.Strings(ids)

	accounts, err := s.accountRepo.LockAccountsForPosting(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load accounts for posting: %w", err)
	}
	for _, l := range entry.Lines {
		acc, ok := accounts[l.AccountID]
		if !ok {
			return fmt.Errorf("%w: line %d references %s", apperrors.ErrAccountNotFound, l.LineNo, l.AccountID)
		}
		if err := checkPostable(&acc); err != nil {
			return fmt.Errorf("line %d: %w", l.LineNo, err)
		}
		if acc.CurrencyCode != entry.CurrencyCode {
			return fmt.Errorf("%w: account %s is in %s, entry is in %s",
				apperrors.ErrInvalidAccount, acc.Code, acc.CurrencyCode, entry.CurrencyCode)
		}
	}
	return nil
}

// duplicateOf returns a DuplicatePostingError if the natural key is already posted.
func (s *journalService) duplicateOf(ctx context.Context, naturalKey string) error {
	existing, err := s.journalRepo.FindPostedEntryByNaturalKey(ctx, naturalKey)
	if err == nil {
		return &apperrors.DuplicatePostingError{NaturalKey: naturalKey, ExistingEntryID: existing.EntryID}
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	return fmt.Errorf("failed to check natural key %s: %w", naturalKey, err)
}

// commit runs the in-transaction half of posting: duplicate check, account checks,
// numbering, then persist. persist runs in a savepoint so that a lost race on the natural
// key can still be reported with the winning entry's ID.
func (s *journalService) commit(ctx context.Context, entry *domain.JournalEntry, persist func(ctx context.Context) error) error {
	if err := s.duplicateOf(ctx, entry.NaturalKey); err != nil {
		return err
	}
	if err := s.checkAccounts(ctx, *entry); err != nil {
		return err
	}

	number, err := s.sequenceSvc.NextIdentifier(ctx, domain.PrefixJournal, entry.EntryDate)
	if err != nil {
		return fmt.Errorf("failed to number journal entry: %w", err)
	}
	entry.EntryNumber = number
	entry.Status = domain.Posted

	err = s.txManager.WithinTx(ctx, persist)
	if errors.Is(err, apperrors.ErrDuplicate) {
		if dupErr := s.duplicateOf(ctx, entry.NaturalKey); dupErr != nil {
			return dupErr
		}
	}
	return err
}

// Post validates and commits a balanced entry.
func (s *journalService) Post(ctx context.Context, req dto.PostJournalRequest, userID string) (*domain.JournalEntry, error) {
	entry, err := s.buildEntry(req, domain.Posted, userID)
	if err != nil {
		return nil, err
	}
	if err := accounting.ValidateBalance(entry.Lines); err != nil {
		return nil, err
	}

	err = s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		return s.commit(txCtx, &entry, func(saveCtx context.Context) error {
			return s.journalRepo.SaveEntry(saveCtx, entry)
		})
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrDuplicatePosting) {
			s.LogError(ctx, err, "Failed to post journal entry", slog.String("natural_key", entry.NaturalKey))
		}
		return nil, err
	}

	debit, _ := entry.Totals()
	s.LogInfo(ctx, "Journal entry posted",
		slog.String("entry_id", entry.EntryID),
		slog.String("entry_number", entry.EntryNumber),
		slog.String("natural_key", entry.NaturalKey),
		slog.String("amount", debit.String()))
	return &entry, nil
}

// Reverse posts a contra-entry. The original entry is never touched.
func (s *journalService) Reverse(ctx context.Context, entryID string, req dto.ReverseJournalRequest, userID string) (*domain.JournalEntry, error) {
	var reversal *domain.JournalEntry
	err := s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		original, err := s.journalRepo.FindEntryByID(txCtx, entryID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("%w: journal entry %s", apperrors.ErrNotFound, entryID)
			}
			return err
		}
		if original.Status != domain.Posted {
			return apperrors.NewValidationError("journal entry %s is a draft and cannot be reversed", entryID)
		}

		naturalKey := req.NaturalKey
		if naturalKey == "" {
			naturalKey = "journal-reversal:" + original.EntryID
		}
		sourceType := req.SourceType
		if sourceType == "" {
			sourceType = domain.SourceJournalReversal
		}
		description := req.Reason
		if description == "" {
			description = "Reversal of " + original.EntryNumber
		}

		lines := make([]dto.JournalLineRequest, len(original.Lines))
		for i, l := range original.Lines {
			m := l.Mirror(l.Amount())
			lines[i] = dto.JournalLineRequest{AccountID: m.AccountID, Debit: m.Debit, Credit: m.Credit, Memo: m.Memo, Tags: m.Tags}
		}
		entry, err := s.buildEntry(dto.PostJournalRequest{
			EntryDate:   req.EntryDate,
			Description: description,
			NaturalKey:  naturalKey,
			SourceType:  sourceType,
			Lines:       lines,
		}, domain.Posted, userID)
		if err != nil {
			return err
		}
		entry.ReversalOfID = &original.EntryID
		if err := accounting.ValidateBalance(entry.Lines); err != nil {
			return err
		}

		if err := s.commit(txCtx, &entry, func(saveCtx context.Context) error {
			return s.journalRepo.SaveEntry(saveCtx, entry)
		}); err != nil {
			return err
		}
		reversal = &entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Journal entry reversed",
		slog.String("entry_id", entryID),
		slog.String("reversal_id", reversal.EntryID),
		slog.String("reversal_number", reversal.EntryNumber))
	return reversal, nil
}

// CreateDraft stores an entry that has no ledger effect. Drafts may be unbalanced.
func (s *journalService) CreateDraft(ctx context.Context, req dto.PostJournalRequest, userID string) (*domain.JournalEntry, error) {
	entry, err := s.buildEntry(req, domain.Draft, userID)
	if err != nil {
		return nil, err
	}
	if err := s.journalRepo.SaveEntry(ctx, entry); err != nil {
		s.LogError(ctx, err, "Failed to save draft", slog.String("natural_key", entry.NaturalKey))
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	s.LogDebug(ctx, "Draft journal entry saved", slog.String("entry_id", entry.EntryID))
	return &entry, nil
}

// PostDraft runs full posting validation on a draft and posts it in place.
func (s *journalService) PostDraft(ctx context.Context, entryID string, userID string) (*domain.JournalEntry, error) {
	var posted *domain.JournalEntry
	err := s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		entry, err := s.journalRepo.FindEntryByID(txCtx, entryID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("%w: journal entry %s", apperrors.ErrNotFound, entryID)
			}
			return err
		}
		if entry.Status != domain.Draft {
			return apperrors.NewValidationError("journal entry %s is already posted", entryID)
		}
		for _, l := range entry.Lines {
			if err := accounting.ValidateLineShape(l, s.settings.CurrencyScale); err != nil {
				return err
			}
		}
		if err := accounting.ValidateBalance(entry.Lines); err != nil {
			return err
		}

		now := s.settings.now()
		if err := s.commit(txCtx, entry, func(saveCtx context.Context) error {
			return s.journalRepo.MarkPosted(saveCtx, entry.EntryID, entry.EntryNumber, now, userID)
		}); err != nil {
			return err
		}
		entry.LastUpdatedAt = now
		entry.LastUpdatedBy = userID
		posted = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Draft journal entry posted",
		slog.String("entry_id", posted.EntryID),
		slog.String("entry_number", posted.EntryNumber))
	return posted, nil
}

// GetEntry returns an entry with its lines.
func (s *journalService) GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: journal entry %s", apperrors.ErrNotFound, entryID)
		}
		return nil, err
	}
	return entry, nil
}

// GetEntryByNaturalKey returns the posted entry for an originating event.
func (s *journalService) GetEntryByNaturalKey(ctx context.Context, naturalKey string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindPostedEntryByNaturalKey(ctx, naturalKey)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no posted entry for %s", apperrors.ErrNotFound, naturalKey)
		}
		return nil, err
	}
	return entry, nil
}

// ListEntries returns a page of entries, newest first.
func (s *journalService) ListEntries(ctx context.Context, params dto.ListJournalsParams) (*dto.ListJournalsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultJournalPageSize
	}
	if limit > maxJournalPageSize {
		limit = maxJournalPageSize
	}
	entries, next, err := s.journalRepo.ListEntries(ctx, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	if entries == nil {
		entries = []domain.JournalEntry{}
	}
	return &dto.ListJournalsResponse{Journals: entries, NextToken: next}, nil
}
