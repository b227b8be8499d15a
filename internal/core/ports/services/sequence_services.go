package services

import (
	"context"
	"time"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
)

// SequenceSvc issues collision-free, year-scoped identifiers.
type SequenceSvc interface {
	// Issue returns the next counter value for (prefix, year). Values are never reused.
	Issue(ctx context.Context, prefix domain.IdentifierPrefix, year int) (int64, error)

	// NextIdentifier issues and formats {prefix}-{YY}-{NNNN} for the year of at, and
	// records it in the identifier registry.
	NextIdentifier(ctx context.Context, prefix domain.IdentifierPrefix, at time.Time) (string, error)

	// ValidateManualIdentifier rejects a user-chosen identifier that is malformed, sits in
	// the generated namespace of (prefix, year), or is already in use.
	ValidateManualIdentifier(ctx context.Context, prefix domain.IdentifierPrefix, identifier string, year int) error

	// ReserveManualIdentifier validates and registers a user-chosen identifier.
	ReserveManualIdentifier(ctx context.Context, prefix domain.IdentifierPrefix, identifier string, year int) error
}
