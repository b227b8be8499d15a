package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/SscSPs/estate_ledger/internal/apperrors"
	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/estate_ledger/internal/core/ports/services"
	"github.com/SscSPs/estate_ledger/internal/dto"
	"github.com/google/uuid"
)

// roleDefinition describes how a role is found when no explicit mapping exists.
type roleDefinition struct {
	code        string
	accountType domain.AccountType
	nameHints   []string
	trustKind   string // "cash" or "bank" for trust roles
}

var roleDefinitions = map[domain.AccountRole]roleDefinition{
	domain.RoleCash:               {code: "1000", accountType: domain.Asset, nameHints: []string{"cash"}},
	domain.RoleBank:               {code: "1010", accountType: domain.Asset, nameHints: []string{"bank"}},
	domain.RoleTrustCash:          {code: "1050", accountType: domain.Asset, nameHints: []string{"trust cash", "escrow cash"}, trustKind: "cash"},
	domain.RoleTrustBank:          {code: "1060", accountType: domain.Asset, nameHints: []string{"trust bank", "escrow bank"}, trustKind: "bank"},
	domain.RoleAccountsReceivable: {code: "1200", accountType: domain.Asset, nameHints: []string{"accounts receivable", "receivable"}},
	domain.RoleClientAdvances:     {code: "2100", accountType: domain.Liability, nameHints: []string{"client advances", "advances from clients", "customer advances"}},
	domain.RoleDealerPayable:      {code: "2200", accountType: domain.Liability, nameHints: []string{"dealer payable", "commission payable"}},
	domain.RoleSalesRevenue:       {code: "4000", accountType: domain.Revenue, nameHints: []string{"sales revenue", "property sales"}},
	domain.RoleCommissionExpense:  {code: "5100", accountType: domain.Expense, nameHints: []string{"commission expense", "dealer commission"}},
}

// accountRegistryService resolves roles and maintains the chart of accounts.
type accountRegistryService struct {
	BaseService
	repo     portsrepo.AccountRepositoryFacade
	settings LedgerSettings
}

// NewAccountRegistryService creates a new AccountRegistrySvc.
func NewAccountRegistryService(repo portsrepo.AccountRepositoryFacade, settings LedgerSettings) portssvc.AccountRegistrySvc {
	return &accountRegistryService{repo: repo, settings: settings}
}

var _ portssvc.AccountRegistrySvc = (*accountRegistryService)(nil)

// checkPostable returns the registry error for an account that cannot take lines.
func checkPostable(acc *domain.Account) error {
	if !acc.IsActive {
		return fmt.Errorf("%w: %s (%s)", apperrors.ErrAccountInactive, acc.Code, acc.AccountID)
	}
	if !acc.IsPostable {
		return fmt.Errorf("%w: %s (%s) is a header account", apperrors.ErrInvalidAccount, acc.Code, acc.AccountID)
	}
	return nil
}

// Resolve maps a role to an active, postable account.
// Order: explicit mapping, exact code, name substring, trust flag (trust roles only).
func (s *accountRegistryService) Resolve(ctx context.Context, role domain.AccountRole) (*domain.Account, error) {
	def, ok := roleDefinitions[role]
	if !ok {
		return nil, apperrors.NewValidationError("unknown account role %q", role)
	}
	logger := s.GetLogger(ctx).With(slog.String("role", string(role)))

	mapping, err := s.repo.FindLatestRoleMapping(ctx, role)
	switch {
	case err == nil:
		acc, err := s.repo.FindAccountByID(ctx, mapping.AccountID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: role %s is mapped to missing account %s", apperrors.ErrAccountNotFound, role, mapping.AccountID)
			}
			return nil, fmt.Errorf("failed to load mapped account for role %s: %w", role, err)
		}
		if err := checkPostable(acc); err != nil {
			return nil, fmt.Errorf("role %s mapping v%d: %w", role, mapping.Version, err)
		}
		return acc, nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, fmt.Errorf("failed to load role mapping for %s: %w", role, err)
	}

	acc, err := s.repo.FindAccountByCode(ctx, def.code)
	if err == nil && usableFor(acc, role, def) {
		return acc, nil
	}
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up account code %s: %w", def.code, err)
	}

	if !s.settings.AccountNameFallback {
		return nil, fmt.Errorf("%w: no mapping or account code %s for role %s", apperrors.ErrAccountNotFound, def.code, role)
	}

	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts for role %s: %w", role, err)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })

	for i := range accounts {
		cand := &accounts[i]
		if !usableFor(cand, role, def) {
			continue
		}
		name := strings.ToLower(cand.Name)
		for _, hint := range def.nameHints {
			if strings.Contains(name, hint) {
				logger.Warn("Account role resolved by name match; add an explicit role mapping",
					slog.String("account_code", cand.Code))
				return cand, nil
			}
		}
	}

	if role.IsTrust() {
		var fallback *domain.Account
		for i := range accounts {
			cand := &accounts[i]
			if !usableFor(cand, role, def) {
				continue
			}
			if strings.Contains(strings.ToLower(cand.Name), def.trustKind) {
				fallback = cand
				break
			}
			if fallback == nil {
				fallback = cand
			}
		}
		if fallback != nil {
			logger.Warn("Trust role resolved by trust flag; add an explicit role mapping",
				slog.String("account_code", fallback.Code))
			return fallback, nil
		}
	}

	return nil, fmt.Errorf("%w: no active posting account for role %s", apperrors.ErrAccountNotFound, role)
}

// usableFor reports whether acc may serve role during fallback resolution.
func usableFor(acc *domain.Account, role domain.AccountRole, def roleDefinition) bool {
	return acc.IsActive && acc.IsPostable &&
		acc.AccountType == def.accountType &&
		acc.IsTrust == role.IsTrust()
}

// roleScope caches resolutions for one logical operation.
type roleScope struct {
	registry *accountRegistryService
	cache    map[domain.AccountRole]*domain.Account
}

// NewScope returns a per-operation resolver cache.
func (s *accountRegistryService) NewScope() portssvc.RoleResolver {
	return &roleScope{registry: s, cache: make(map[domain.AccountRole]*domain.Account)}
}

func (r *roleScope) Resolve(ctx context.Context, role domain.AccountRole) (*domain.Account, error) {
	if acc, ok := r.cache[role]; ok {
		return acc, nil
	}
	acc, err := r.registry.Resolve(ctx, role)
	if err != nil {
		return nil, err
	}
	r.cache[role] = acc
	return acc, nil
}

// CreateAccount adds an account to the chart.
func (s *accountRegistryService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	code := strings.TrimSpace(req.Code)
	name := strings.TrimSpace(req.Name)
	if code == "" || name == "" {
		return nil, apperrors.NewValidationError("account code and name are required")
	}
	if !req.AccountType.IsValid() {
		return nil, apperrors.NewValidationError("invalid account type %q", req.AccountType)
	}
	currency := strings.ToUpper(strings.TrimSpace(req.CurrencyCode))
	if currency == "" {
		currency = s.settings.CurrencyCode
	}

	if req.ParentAccountID != nil && *req.ParentAccountID != "" {
		parent, err := s.repo.FindAccountByID(ctx, *req.ParentAccountID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, apperrors.NewValidationError("parent account %s not found", *req.ParentAccountID)
			}
			return nil, fmt.Errorf("failed to load parent account: %w", err)
		}
		if parent.IsPostable {
			return nil, apperrors.NewValidationError("parent account %s is a posting account, not a header", parent.Code)
		}
		if parent.AccountType != req.AccountType {
			return nil, apperrors.NewValidationError("parent account type %s does not match %s", parent.AccountType, req.AccountType)
		}
	}

	postable := true
	if req.IsPostable != nil {
		postable = *req.IsPostable
	}

	now := s.settings.now()
	acc := domain.Account{
		AccountID:       uuid.NewString(),
		Code:            code,
		Name:            name,
		AccountType:     req.AccountType,
		NormalSide:      req.AccountType.NormalSide(),
		CurrencyCode:    currency,
		ParentAccountID: req.ParentAccountID,
		IsActive:        true,
		IsPostable:      postable,
		IsTrust:         req.IsTrust,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.repo.SaveAccount(ctx, acc); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: account code %s", apperrors.ErrDuplicate, code)
		}
		s.LogError(ctx, err, "Failed to save account", slog.String("code", code))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}
	s.LogInfo(ctx, "Account created", slog.String("account_id", acc.AccountID), slog.String("code", code))
	return &acc, nil
}

// GetAccount returns one account.
func (s *accountRegistryService) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	acc, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrAccountNotFound, accountID)
		}
		return nil, err
	}
	return acc, nil
}

// ListAccounts returns the chart of accounts ordered by code.
func (s *accountRegistryService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })
	return accounts, nil
}

// MapRole writes the next mapping version for a role.
func (s *accountRegistryService) MapRole(ctx context.Context, req dto.MapRoleRequest, userID string) (*domain.AccountRoleMapping, error) {
	def, ok := roleDefinitions[req.Role]
	if !ok {
		return nil, apperrors.NewValidationError("unknown account role %q", req.Role)
	}
	acc, err := s.GetAccount(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	if err := checkPostable(acc); err != nil {
		return nil, err
	}
	if acc.AccountType != def.accountType {
		return nil, apperrors.NewValidationError("role %s needs a %s account, %s is %s", req.Role, def.accountType, acc.Code, acc.AccountType)
	}
	if req.Role.IsTrust() && !acc.IsTrust {
		return nil, apperrors.NewValidationError("role %s needs a trust account, %s is not flagged as trust", req.Role, acc.Code)
	}

	version := 1
	latest, err := s.repo.FindLatestRoleMapping(ctx, req.Role)
	switch {
	case err == nil:
		version = latest.Version + 1
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, fmt.Errorf("failed to load role mapping: %w", err)
	}

	now := s.settings.now()
	mapping := domain.AccountRoleMapping{
		Role:      req.Role,
		AccountID: acc.AccountID,
		Version:   version,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := s.repo.SaveRoleMapping(ctx, mapping); err != nil {
		return nil, fmt.Errorf("failed to save role mapping: %w", err)
	}
	s.LogInfo(ctx, "Account role mapped",
		slog.String("role", string(req.Role)),
		slog.String("account_code", acc.Code),
		slog.Int("version", version))
	return &mapping, nil
}
