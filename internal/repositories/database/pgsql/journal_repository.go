package pgsql

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/SscSPs/estate_ledger/internal/apperrors"
	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/estate_ledger/internal/models"
	"github.com/SscSPs/estate_ledger/internal/utils/mapping"
	"github.com/SscSPs/estate_ledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const entryColumns = `entry_id, entry_number, entry_date, status, description, currency_code, natural_key,
	source_type, reversal_of_id, created_at, created_by, last_updated_at, last_updated_by`

const lineColumns = `line_id, entry_id, line_no, account_id, debit, credit, memo,
	cost_center, deal_id, client_id, dealer_id, unit_id`

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journal entries and lines.
func newPgxJournalRepository(pool *pgxpool.Pool) *PgxJournalRepository {
	return &PgxJournalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxJournalRepository implements portsrepo.JournalRepositoryFacade
var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

func scanEntry(row pgx.Row) (models.JournalEntry, error) {
	var m models.JournalEntry
	err := row.Scan(
		&m.EntryID,
		&m.EntryNumber,
		&m.EntryDate,
		&m.Status,
		&m.Description,
		&m.CurrencyCode,
		&m.NaturalKey,
		&m.SourceType,
		&m.ReversalOfID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SaveEntry inserts the entry header and all of its lines atomically.
func (r *PgxJournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	m := mapping.ToModelJournalEntry(entry)
	return r.atomically(ctx, func(q querier) error {
		_, err := q.Exec(ctx, `
			INSERT INTO journal_entries (`+entryColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
		`,
			m.EntryID,
			m.EntryNumber,
			m.EntryDate,
			m.Status,
			m.Description,
			m.CurrencyCode,
			m.NaturalKey,
			m.SourceType,
			m.ReversalOfID,
			m.CreatedAt,
			m.CreatedBy,
			m.LastUpdatedAt,
			m.LastUpdatedBy,
		)
		if err != nil {
			return mapError(err, "insert journal entry "+m.EntryID)
		}

		batch := &pgx.Batch{}
		for _, line := range entry.Lines {
			l := mapping.ToModelJournalLine(line)
			batch.Queue(`
				INSERT INTO journal_lines (`+lineColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
			`,
				l.LineID,
				l.EntryID,
				l.LineNo,
				l.AccountID,
				l.Debit,
				l.Credit,
				l.Memo,
				l.CostCenter,
				l.DealID,
				l.ClientID,
				l.DealerID,
				l.UnitID,
			)
		}
		// Close reports the first failing command of the batch.
		if err := q.SendBatch(ctx, batch).Close(); err != nil {
			return mapError(err, "insert journal lines for "+m.EntryID)
		}
		return nil
	})
}

// MarkPosted moves a draft to POSTED with its number.
func (r *PgxJournalRepository) MarkPosted(ctx context.Context, entryID, entryNumber string, postedAt time.Time, userID string) error {
	tag, err := r.db(ctx).Exec(ctx, `
		UPDATE journal_entries
		SET status = 'POSTED', entry_number = $2, last_updated_at = $3, last_updated_by = $4
		WHERE entry_id = $1 AND status = 'DRAFT';
	`, entryID, entryNumber, postedAt, userID)
	if err != nil {
		return mapError(err, "post draft "+entryID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: draft %s", apperrors.ErrNotFound, entryID)
	}
	return nil
}

// linesFor loads the lines of the given entries, grouped by entry and ordered by line number.
func (r *PgxJournalRepository) linesFor(ctx context.Context, entryIDs []string) (map[string][]domain.JournalLine, error) {
	rows, err := r.db(ctx).Query(ctx, `
		SELECT `+lineColumns+` FROM journal_lines
		WHERE entry_id = ANY($1)
		ORDER BY entry_id, line_no;
	`, entryIDs)
	if err != nil {
		return nil, mapError(err, "query journal lines")
	}
	defer rows.Close()

	out := make(map[string][]domain.JournalLine, len(entryIDs))
	for rows.Next() {
		var l models.JournalLine
		if err := rows.Scan(
			&l.LineID,
			&l.EntryID,
			&l.LineNo,
			&l.AccountID,
			&l.Debit,
			&l.Credit,
			&l.Memo,
			&l.CostCenter,
			&l.DealID,
			&l.ClientID,
			&l.DealerID,
			&l.UnitID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan journal line: %w", err)
		}
		out[l.EntryID] = append(out[l.EntryID], mapping.ToDomainJournalLine(l))
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate journal lines")
	}
	return out, nil
}

func (r *PgxJournalRepository) findOne(ctx context.Context, query string, arg any, op string) (*domain.JournalEntry, error) {
	m, err := scanEntry(r.db(ctx).QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapError(err, op)
	}
	lines, err := r.linesFor(ctx, []string{m.EntryID})
	if err != nil {
		return nil, err
	}
	entry := mapping.ToDomainJournalEntry(m)
	entry.Lines = lines[m.EntryID]
	return &entry, nil
}

// FindEntryByID retrieves an entry with its lines.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return r.findOne(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE entry_id = $1;`, entryID, "find journal entry "+entryID)
}

// FindPostedEntryByNaturalKey retrieves the posted entry for an originating event.
func (r *PgxJournalRepository) FindPostedEntryByNaturalKey(ctx context.Context, naturalKey string) (*domain.JournalEntry, error) {
	return r.findOne(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE natural_key = $1 AND status = 'POSTED';`, naturalKey, "find journal entry by natural key")
}

// ListEntries retrieves a page of entries, newest first, using token-based pagination.
func (r *PgxJournalRepository) ListEntries(ctx context.Context, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// We fetch one extra item to determine if there's a next page.
	fetchLimit := limit + 1

	query := `SELECT ` + entryColumns + ` FROM journal_entries`
	args := []any{}
	if nextToken != nil && *nextToken != "" {
		cursor, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewValidationError("invalid nextToken: %v", err)
		}
		query += ` WHERE (entry_date, created_at, entry_id) < ($1, $2, $3)`
		args = append(args, cursor.Date, cursor.CreatedAt, cursor.ID)
	}
	query += ` ORDER BY entry_date DESC, created_at DESC, entry_id DESC LIMIT $` + strconv.Itoa(len(args)+1) + `;`
	args = append(args, fetchLimit)

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, nil, mapError(err, "list journal entries")
	}
	defer rows.Close()

	var page []models.JournalEntry
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		page = append(page, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, mapError(err, "iterate journal entries")
	}

	var next *string
	if len(page) > limit {
		last := page[limit-1]
		token := pagination.EncodeCursor(pagination.Cursor{Date: last.EntryDate, CreatedAt: last.CreatedAt, ID: last.EntryID})
		next = &token
		page = page[:limit]
	}

	ids := make([]string, len(page))
	for i, m := range page {
		ids[i] = m.EntryID
	}
	lines, err := r.linesFor(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	entries := make([]domain.JournalEntry, len(page))
	for i, m := range page {
		entries[i] = mapping.ToDomainJournalEntry(m)
		entries[i].Lines = lines[m.EntryID]
	}
	return entries, next, nil
}
