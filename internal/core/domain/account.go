package domain

import "strings"

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// IsValid reports whether t is one of the five account types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// NormalSide returns the side that increases an account of this type.
// ASSET and EXPENSE are debit-normal, everything else is credit-normal.
func (t AccountType) NormalSide() Side {
	if t == Asset || t == Expense {
		return Debit
	}
	return Credit
}

// Account represents a chart-of-accounts entry.
type Account struct {
	AccountID       string      `json:"accountID"`
	Code            string      `json:"code"` // unique chart code, e.g. "1100"
	Name            string      `json:"name"`
	AccountType     AccountType `json:"accountType"`
	NormalSide      Side        `json:"normalSide"`
	CurrencyCode    string      `json:"currencyCode"`
	ParentAccountID *string     `json:"parentAccountID,omitempty"`
	IsActive        bool        `json:"isActive"`
	IsPostable      bool        `json:"isPostable"` // false for header/grouping accounts
	IsTrust         bool        `json:"isTrust"`    // holds client money not yet earned
	AuditFields
}

// AccountRole is a semantic name the engine posts against instead of a hard-coded account.
type AccountRole string

const (
	RoleCash               AccountRole = "cash"
	RoleBank               AccountRole = "bank"
	RoleTrustCash          AccountRole = "trust-cash"
	RoleTrustBank          AccountRole = "trust-bank"
	RoleAccountsReceivable AccountRole = "accounts-receivable"
	RoleClientAdvances     AccountRole = "client-advances"
	RoleSalesRevenue       AccountRole = "sales-revenue"
	RoleDealerPayable      AccountRole = "dealer-payable"
	RoleCommissionExpense  AccountRole = "commission-expense"
)

// AllAccountRoles lists every role the engine knows about.
var AllAccountRoles = []AccountRole{
	RoleCash, RoleBank, RoleTrustCash, RoleTrustBank, RoleAccountsReceivable,
	RoleClientAdvances, RoleSalesRevenue, RoleDealerPayable, RoleCommissionExpense,
}

// IsValid reports whether r is a known role.
func (r AccountRole) IsValid() bool {
	for _, known := range AllAccountRoles {
		if r == known {
			return true
		}
	}
	return false
}

// IsTrust reports whether the role must land on a trust/escrow account.
func (r AccountRole) IsTrust() bool {
	return strings.HasPrefix(string(r), "trust-")
}

// AccountRoleMapping binds a role to an account. The highest Version for a role wins.
type AccountRoleMapping struct {
	Role      AccountRole `json:"role"`
	AccountID string      `json:"accountID"`
	Version   int         `json:"version"`
	AuditFields
}
