package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/SscSPs/estate_ledger/internal/apperrors"
	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/estate_ledger/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger/internal/utils/identifier"
)

var manualIdentifierShape = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/-]{0,63}$`)

// sequenceService issues identifiers on top of the store's atomic counter.
type sequenceService struct {
	BaseService
	repo       portsrepo.SequenceRepositoryFacade
	txManager  portsrepo.TransactionManager
	maxRetries int
	settings   LedgerSettings
}

// NewSequenceService creates a new SequenceSvc.
func NewSequenceService(repo portsrepo.SequenceRepositoryFacade, txManager portsrepo.TransactionManager, settings LedgerSettings) portssvc.SequenceSvc {
	retries := settings.SequenceMaxRetries
	if retries < 1 {
		retries = 1
	}
	return &sequenceService{
		repo:       repo,
		txManager:  txManager,
		maxRetries: retries,
		settings:   settings,
	}
}

var _ portssvc.SequenceSvc = (*sequenceService)(nil)

// Issue returns the next counter value for (prefix, year).
func (s *sequenceService) Issue(ctx context.Context, prefix domain.IdentifierPrefix, year int) (int64, error) {
	if !prefix.IsValid() {
		return 0, apperrors.NewValidationError("unknown identifier prefix %q", prefix)
	}
	if year < 1 {
		return 0, apperrors.NewValidationError("invalid year %d", year)
	}

	var value int64
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		err := s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
			v, err := s.issueOnce(txCtx, prefix, year)
			value = v
			return err
		})
		if err == nil {
			return value, nil
		}
		if !errors.Is(err, apperrors.ErrConflict) {
			return 0, err
		}
		s.LogWarn(ctx, "Sequence issuance lost a race, retrying",
			slog.String("prefix", string(prefix)),
			slog.Int("year", year),
			slog.Int("attempt", attempt))
	}
	return 0, fmt.Errorf("%w: %s/%d after %d attempts", apperrors.ErrIdentifierExhaustion, prefix, year, s.maxRetries)
}

// issueOnce bumps the counter, lazily seeding it from legacy identifiers on first use.
func (s *sequenceService) issueOnce(ctx context.Context, prefix domain.IdentifierPrefix, year int) (int64, error) {
	value, found, err := s.repo.Increment(ctx, prefix, year)
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence %s/%d: %w", prefix, year, err)
	}
	if found {
		return value, nil
	}

	legacyMax, err := s.repo.MaxLegacyCounter(ctx, prefix, year)
	if err != nil {
		return 0, fmt.Errorf("failed to scan legacy identifiers for %s/%d: %w", prefix, year, err)
	}
	value, err = s.repo.InitializeOrIncrement(ctx, prefix, year, legacyMax+1)
	if err != nil {
		return 0, fmt.Errorf("failed to initialize sequence %s/%d: %w", prefix, year, err)
	}
	s.LogInfo(ctx, "Sequence initialized",
		slog.String("prefix", string(prefix)),
		slog.Int("year", year),
		slog.Int64("legacy_max", legacyMax),
		slog.Int64("value", value))
	return value, nil
}

// NextIdentifier issues and registers the next {prefix}-{YY}-{NNNN}. A value already taken
// by a registered legacy record is skipped.
func (s *sequenceService) NextIdentifier(ctx context.Context, prefix domain.IdentifierPrefix, at time.Time) (string, error) {
	if at.IsZero() {
		at = s.settings.now()
	}
	year := at.Year()

	var id string
	err := s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		for attempt := 1; attempt <= s.maxRetries; attempt++ {
			value, err := s.Issue(txCtx, prefix, year)
			if err != nil {
				return err
			}
			candidate := identifier.Format(prefix, year, value)
			err = s.repo.RegisterIdentifier(txCtx, domain.IssuedIdentifier{Prefix: prefix, Identifier: candidate})
			if err == nil {
				id = candidate
				return nil
			}
			if !errors.Is(err, apperrors.ErrDuplicate) {
				return fmt.Errorf("failed to register identifier %s: %w", candidate, err)
			}
			s.LogWarn(txCtx, "Generated identifier already taken, skipping", slog.String("identifier", candidate))
		}
		return fmt.Errorf("%w: no free identifier for %s/%d", apperrors.ErrIdentifierExhaustion, prefix, year)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// ValidateManualIdentifier checks a user-chosen identifier without reserving it.
func (s *sequenceService) ValidateManualIdentifier(ctx context.Context, prefix domain.IdentifierPrefix, value string, year int) error {
	if !prefix.IsValid() {
		return apperrors.NewValidationError("unknown identifier prefix %q", prefix)
	}
	if year == 0 {
		year = s.settings.now().Year()
	}
	value = strings.TrimSpace(value)
	if !manualIdentifierShape.MatchString(value) {
		return apperrors.NewValidationError("identifier %q is malformed", value)
	}
	if identifier.MatchesGenerated(value, prefix, year) {
		return apperrors.NewValidationError("identifier %q collides with generated %s identifiers for %d", value, prefix, year)
	}
	exists, err := s.repo.IdentifierExists(ctx, value)
	if err != nil {
		return fmt.Errorf("failed to check identifier %s: %w", value, err)
	}
	if exists {
		return fmt.Errorf("%w: identifier %s is already in use", apperrors.ErrDuplicate, value)
	}
	return nil
}

// ReserveManualIdentifier validates and registers a user-chosen identifier.
func (s *sequenceService) ReserveManualIdentifier(ctx context.Context, prefix domain.IdentifierPrefix, value string, year int) error {
	value = strings.TrimSpace(value)
	return s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.ValidateManualIdentifier(txCtx, prefix, value, year); err != nil {
			return err
		}
		if err := s.repo.RegisterIdentifier(txCtx, domain.IssuedIdentifier{Prefix: prefix, Identifier: value, Manual: true}); err != nil {
			if errors.Is(err, apperrors.ErrDuplicate) {
				return fmt.Errorf("%w: identifier %s is already in use", apperrors.ErrDuplicate, value)
			}
			return fmt.Errorf("failed to register identifier %s: %w", value, err)
		}
		return nil
	})
}
