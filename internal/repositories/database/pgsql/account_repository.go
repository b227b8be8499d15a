package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/estate_ledger/internal/models"
	"github.com/SscSPs/estate_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `account_id, code, name, account_type, normal_side, currency_code, parent_account_id,
	is_active, is_postable, is_trust, created_at, created_by, last_updated_at, last_updated_by`

type PgxAccountRepository struct {
	BaseRepository
}

// newPgxAccountRepository creates a new repository for account data.
func newPgxAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

func scanAccount(row pgx.Row) (models.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID,
		&m.Code,
		&m.Name,
		&m.AccountType,
		&m.NormalSide,
		&m.CurrencyCode,
		&m.ParentAccountID,
		&m.IsActive,
		&m.IsPostable,
		&m.IsTrust,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	_, err := r.db(ctx).Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`,
		m.AccountID,
		m.Code,
		m.Name,
		m.AccountType,
		m.NormalSide,
		m.CurrencyCode,
		m.ParentAccountID,
		m.IsActive,
		m.IsPostable,
		m.IsTrust,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	return mapError(err, "save account "+m.Code)
}

// FindAccountByID retrieves an account by its unique ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	m, err := scanAccount(r.db(ctx).QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_id = $1;`, accountID))
	if err != nil {
		return nil, mapError(err, "find account "+accountID)
	}
	acc := mapping.ToDomainAccount(m)
	return &acc, nil
}

// FindAccountByCode retrieves an account by its chart code.
func (r *PgxAccountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	m, err := scanAccount(r.db(ctx).QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE code = $1;`, code))
	if err != nil {
		return nil, mapError(err, "find account by code "+code)
	}
	acc := mapping.ToDomainAccount(m)
	return &acc, nil
}

func (r *PgxAccountRepository) queryAccounts(ctx context.Context, query string, args ...any) ([]models.Account, error) {
	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query accounts")
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		m, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "iterate accounts")
	}
	return out, nil
}

func toAccountMap(ms []models.Account) map[string]domain.Account {
	out := make(map[string]domain.Account, len(ms))
	for _, m := range ms {
		out[m.AccountID] = mapping.ToDomainAccount(m)
	}
	return out
}

// FindAccountsByIDs retrieves the accounts that exist among the given IDs.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}
	ms, err := r.queryAccounts(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_id = ANY($1);`, accountIDs)
	if err != nil {
		return nil, err
	}
	return toAccountMap(ms), nil
}

// LockAccountsForPosting share-locks the accounts in ID order.
func (r *PgxAccountRepository) LockAccountsForPosting(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	if len(accountIDs) == 0 {
		return map[string]domain.Account{}, nil
	}
	ms, err := r.queryAccounts(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE account_id = ANY($1)
		ORDER BY account_id
		FOR SHARE;
	`, accountIDs)
	if err != nil {
		return nil, err
	}
	return toAccountMap(ms), nil
}

// ListAccounts returns the whole chart ordered by code.
func (r *PgxAccountRepository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	ms, err := r.queryAccounts(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY code;`)
	if err != nil {
		return nil, err
	}
	return mapping.ToDomainAccountSlice(ms), nil
}

// SaveRoleMapping inserts a new mapping version. Two writers racing for the same
// version get ErrDuplicate.
func (r *PgxAccountRepository) SaveRoleMapping(ctx context.Context, roleMapping domain.AccountRoleMapping) error {
	m := mapping.ToModelRoleMapping(roleMapping)
	_, err := r.db(ctx).Exec(ctx, `
		INSERT INTO account_role_mappings (role, version, account_id, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`, m.Role, m.Version, m.AccountID, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy)
	return mapError(err, "save role mapping "+m.Role)
}

// FindLatestRoleMapping returns the highest version for the role.
func (r *PgxAccountRepository) FindLatestRoleMapping(ctx context.Context, role domain.AccountRole) (*domain.AccountRoleMapping, error) {
	var m models.AccountRoleMapping
	err := r.db(ctx).QueryRow(ctx, `
		SELECT role, version, account_id, created_at, created_by, last_updated_at, last_updated_by
		FROM account_role_mappings
		WHERE role = $1
		ORDER BY version DESC
		LIMIT 1;
	`, string(role)).Scan(&m.Role, &m.Version, &m.AccountID, &m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy)
	if err != nil {
		return nil, mapError(err, "find role mapping "+string(role))
	}
	d := mapping.ToDomainRoleMapping(m)
	return &d, nil
}
