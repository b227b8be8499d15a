package services

import (
	"context"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
	"github.com/SscSPs/estate_ledger/internal/dto"
)

// RoleResolver resolves account roles to postable accounts.
type RoleResolver interface {
	Resolve(ctx context.Context, role domain.AccountRole) (*domain.Account, error)
}

// AccountRegistrySvc is the chart of accounts plus role resolution.
type AccountRegistrySvc interface {
	RoleResolver

	// NewScope returns a resolver that caches results for one logical operation.
	// Scopes must not outlive the request that created them.
	NewScope() RoleResolver

	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error)
	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	// MapRole writes a new mapping version for the role.
	MapRole(ctx context.Context, req dto.MapRoleRequest, userID string) (*domain.AccountRoleMapping, error)
}
