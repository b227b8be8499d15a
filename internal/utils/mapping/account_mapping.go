package mapping

import (
	"github.com/SscSPs/estate_ledger/internal/core/domain"
	"github.com/SscSPs/estate_ledger/internal/models"
)

// ToModelAccount converts a domain Account to a model Account
func ToModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:       d.AccountID,
		Code:            d.Code,
		Name:            d.Name,
		AccountType:     string(d.AccountType),
		NormalSide:      string(d.NormalSide),
		CurrencyCode:    d.CurrencyCode,
		ParentAccountID: d.ParentAccountID,
		IsActive:        d.IsActive,
		IsPostable:      d.IsPostable,
		IsTrust:         d.IsTrust,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAccount converts a model Account to a domain Account
func ToDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:       m.AccountID,
		Code:            m.Code,
		Name:            m.Name,
		AccountType:     domain.AccountType(m.AccountType),
		NormalSide:      domain.Side(m.NormalSide),
		CurrencyCode:    m.CurrencyCode,
		ParentAccountID: m.ParentAccountID,
		IsActive:        m.IsActive,
		IsPostable:      m.IsPostable,
		IsTrust:         m.IsTrust,
		AuditFields:     ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainAccountSlice converts a slice of model Accounts to domain Accounts
func ToDomainAccountSlice(ms []models.Account) []domain.Account {
	ds := make([]domain.Account, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainAccount(m)
	}
	return ds
}

// ToModelRoleMapping converts a domain AccountRoleMapping to a model AccountRoleMapping
func ToModelRoleMapping(d domain.AccountRoleMapping) models.AccountRoleMapping {
	return models.AccountRoleMapping{
		Role:        string(d.Role),
		Version:     d.Version,
		AccountID:   d.AccountID,
		AuditFields: ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainRoleMapping converts a model AccountRoleMapping to a domain AccountRoleMapping
func ToDomainRoleMapping(m models.AccountRoleMapping) domain.AccountRoleMapping {
	return domain.AccountRoleMapping{
		Role:        domain.AccountRole(m.Role),
		Version:     m.Version,
		AccountID:   m.AccountID,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}
