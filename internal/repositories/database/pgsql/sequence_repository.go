package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/estate_ledger/internal/apperrors"
	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/estate_ledger/internal/utils/identifier"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Identifier-bearing columns that may hold values issued before the counter existed.
const knownIdentifiersQuery = `
	SELECT identifier FROM issued_identifiers
	UNION ALL SELECT payment_number FROM payments
	UNION ALL SELECT deal_number FROM deals
	UNION ALL SELECT entry_number FROM journal_entries WHERE entry_number IS NOT NULL
`

type PgxSequenceRepository struct {
	BaseRepository
}

func newPgxSequenceRepository(pool *pgxpool.Pool) *PgxSequenceRepository {
	return &PgxSequenceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.SequenceRepositoryFacade = (*PgxSequenceRepository)(nil)

// Increment bumps an existing counter row. The row lock taken by UPDATE serializes
// concurrent issuers for the same (prefix, year).
func (r *PgxSequenceRepository) Increment(ctx context.Context, prefix domain.IdentifierPrefix, year int) (int64, bool, error) {
	var value int64
	err := r.db(ctx).QueryRow(ctx, `
		UPDATE sequences SET current_value = current_value + 1
		WHERE prefix = $1 AND year = $2
		RETURNING current_value;
	`, string(prefix), year).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, mapError(err, "increment sequence")
	}
	return value, true, nil
}

// InitializeOrIncrement creates the counter, or increments it if it appeared meanwhile.
func (r *PgxSequenceRepository) InitializeOrIncrement(ctx context.Context, prefix domain.IdentifierPrefix, year int, initial int64) (int64, error) {
	var value int64
	err := r.db(ctx).QueryRow(ctx, `
		INSERT INTO sequences (prefix, year, current_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (prefix, year) DO UPDATE SET current_value = sequences.current_value + 1
		RETURNING current_value;
	`, string(prefix), year, initial).Scan(&value)
	if err != nil {
		return 0, mapError(err, "initialize sequence")
	}
	return value, nil
}

// MaxLegacyCounter finds the highest counter already used for (prefix, year).
func (r *PgxSequenceRepository) MaxLegacyCounter(ctx context.Context, prefix domain.IdentifierPrefix, year int) (int64, error) {
	pattern := fmt.Sprintf(`^%s-%02d-([0-9]+)$`, prefix, identifier.YearSuffix(year))
	var max int64
	err := r.db(ctx).QueryRow(ctx, `
		SELECT COALESCE(MAX(CAST(substring(lower(k.identifier) FROM $1) AS BIGINT)), 0)
		FROM (`+knownIdentifiersQuery+`) AS k(identifier)
		WHERE lower(k.identifier) ~ $1;
	`, pattern).Scan(&max)
	if err != nil {
		return 0, mapError(err, "scan legacy identifiers")
	}
	return max, nil
}

// RegisterIdentifier records an identifier; ErrDuplicate when it is taken.
// ON CONFLICT keeps the surrounding transaction usable after a collision.
func (r *PgxSequenceRepository) RegisterIdentifier(ctx context.Context, id domain.IssuedIdentifier) error {
	tag, err := r.db(ctx).Exec(ctx, `
		INSERT INTO issued_identifiers (identifier, prefix, manual)
		VALUES ($1, $2, $3)
		ON CONFLICT (identifier) DO NOTHING;
	`, id.Identifier, string(id.Prefix), id.Manual)
	if err != nil {
		return mapError(err, "register identifier")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: identifier %s", apperrors.ErrDuplicate, id.Identifier)
	}
	return nil
}

// IdentifierExists checks the registry and the legacy identifier columns, case-insensitively.
func (r *PgxSequenceRepository) IdentifierExists(ctx context.Context, value string) (bool, error) {
	var exists bool
	err := r.db(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM (`+knownIdentifiersQuery+`) AS k(identifier)
			WHERE lower(k.identifier) = lower($1)
		);
	`, value).Scan(&exists)
	if err != nil {
		return false, mapError(err, "check identifier")
	}
	return exists, nil
}
