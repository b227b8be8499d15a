package repositories

import (
	"context"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
)

// SequenceCounter is the atomic counter primitive behind identifier issuance.
type SequenceCounter interface {
	// Increment atomically bumps an existing counter and returns the new value.
	// found is false when no counter row exists for (prefix, year) yet.
	Increment(ctx context.Context, prefix domain.IdentifierPrefix, year int) (value int64, found bool, err error)

	// InitializeOrIncrement creates the counter at initial, or increments it if a concurrent
	// caller created it first. It never fails because the row already exists.
	InitializeOrIncrement(ctx context.Context, prefix domain.IdentifierPrefix, year int, initial int64) (int64, error)

	// MaxLegacyCounter returns the highest counter among registered identifiers of the form
	// {prefix}-{YY}-NNNN, or 0 when there are none.
	MaxLegacyCounter(ctx context.Context, prefix domain.IdentifierPrefix, year int) (int64, error)
}

// IdentifierRegistry records every identifier in use, generated or manual.
type IdentifierRegistry interface {
	// RegisterIdentifier stores the identifier; ErrDuplicate when it is already taken.
	RegisterIdentifier(ctx context.Context, id domain.IssuedIdentifier) error
	IdentifierExists(ctx context.Context, identifier string) (bool, error)
}

// SequenceRepositoryFacade combines the counter and the identifier registry.
type SequenceRepositoryFacade interface {
	SequenceCounter
	IdentifierRegistry
}
