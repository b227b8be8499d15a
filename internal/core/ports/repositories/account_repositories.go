package repositories

import (
	"context"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	FindAccountByCode(ctx context.Context, code string) (*domain.Account, error)

	// FindAccountsByIDs returns the accounts that exist; missing IDs are simply absent.
	FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// LockAccountsForPosting is FindAccountsByIDs with shared row locks held until the
	// surrounding transaction ends, so an account cannot be deactivated mid-posting while
	// concurrent postings to it still proceed.
	LockAccountsForPosting(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	ListAccounts(ctx context.Context) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	SaveAccount(ctx context.Context, account domain.Account) error
}

// RoleMappingRepository stores the versioned role to account mapping.
type RoleMappingRepository interface {
	SaveRoleMapping(ctx context.Context, mapping domain.AccountRoleMapping) error

	// FindLatestRoleMapping returns the highest version for the role, or ErrNotFound.
	FindLatestRoleMapping(ctx context.Context, role domain.AccountRole) (*domain.AccountRoleMapping, error)
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	RoleMappingRepository
}
