package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/estate_ledger/internal/apperrors"
	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
)

var _ portsrepo.AccountRepositoryFacade = (*Store)(nil)

func (s *Store) SaveAccount(ctx context.Context, account domain.Account) error {
	return s.write(ctx, func(t *tables) error {
		if _, ok := t.accounts[account.AccountID]; ok {
			return fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, account.AccountID)
		}
		for _, existing := range t.accounts {
			if existing.Code == account.Code {
				return fmt.Errorf("%w: account code %s", apperrors.ErrDuplicate, account.Code)
			}
		}
		t.accounts[account.AccountID] = account
		return nil
	})
}

func (s *Store) FindAccountByID(_ context.Context, accountID string) (*domain.Account, error) {
	var acc domain.Account
	var ok bool
	s.read(func(t *tables) { acc, ok = t.accounts[accountID] })
	if !ok {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return &acc, nil
}

func (s *Store) FindAccountByCode(_ context.Context, code string) (*domain.Account, error) {
	var found *domain.Account
	s.read(func(t *tables) {
		for _, acc := range t.accounts {
			if acc.Code == code {
				found = &acc
				return
			}
		}
	})
	if found == nil {
		return nil, fmt.Errorf("%w: account code %s", apperrors.ErrNotFound, code)
	}
	return found, nil
}

func (s *Store) FindAccountsByIDs(_ context.Context, accountIDs []string) (map[string]domain.Account, error) {
	out := make(map[string]domain.Account, len(accountIDs))
	s.read(func(t *tables) {
		for _, id := range accountIDs {
			if acc, ok := t.accounts[id]; ok {
				out[id] = acc
			}
		}
	})
	return out, nil
}

// LockAccountsForPosting needs no lock of its own: transactions are already serialized.
func (s *Store) LockAccountsForPosting(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	return s.FindAccountsByIDs(ctx, accountIDs)
}

func (s *Store) ListAccounts(_ context.Context) ([]domain.Account, error) {
	var out []domain.Account
	s.read(func(t *tables) {
		out = make([]domain.Account, 0, len(t.accounts))
		for _, acc := range t.accounts {
			out = append(out, acc)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) SaveRoleMapping(ctx context.Context, roleMapping domain.AccountRoleMapping) error {
	return s.write(ctx, func(t *tables) error {
		for _, existing := range t.roleMappings[roleMapping.Role] {
			if existing.Version == roleMapping.Version {
				return fmt.Errorf("%w: role %s version %d", apperrors.ErrDuplicate, roleMapping.Role, roleMapping.Version)
			}
		}
		t.roleMappings[roleMapping.Role] = append(t.roleMappings[roleMapping.Role], roleMapping)
		return nil
	})
}

func (s *Store) FindLatestRoleMapping(_ context.Context, role domain.AccountRole) (*domain.AccountRoleMapping, error) {
	var latest *domain.AccountRoleMapping
	s.read(func(t *tables) {
		for _, m := range t.roleMappings[role] {
			if latest == nil || m.Version > latest.Version {
				latest = &m
			}
		}
	})
	if latest == nil {
		return nil, fmt.Errorf("%w: no mapping for role %s", apperrors.ErrNotFound, role)
	}
	return latest, nil
}
