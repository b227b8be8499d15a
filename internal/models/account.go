package models

// Account is a row of the accounts table.
type Account struct {
	AccountID       string  `db:"account_id"`
	Code            string  `db:"code"`
	Name            string  `db:"name"`
	AccountType     string  `db:"account_type"`
	NormalSide      string  `db:"normal_side"`
	CurrencyCode    string  `db:"currency_code"`
	ParentAccountID *string `db:"parent_account_id"` // Nullable
	IsActive        bool    `db:"is_active"`
	IsPostable      bool    `db:"is_postable"`
	IsTrust         bool    `db:"is_trust"`
	AuditFields
}

// AccountRoleMapping is a row of the account_role_mappings table.
type AccountRoleMapping struct {
	Role      string `db:"role"`
	Version   int    `db:"version"`
	AccountID string `db:"account_id"`
	AuditFields
}
