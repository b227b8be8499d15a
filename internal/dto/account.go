package dto

import (
	"time"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
)

// CreateAccountRequest defines the data needed to create a chart-of-accounts entry.
type CreateAccountRequest struct {
	Code            string             `json:"code" binding:"required,max=32"`
	Name            string             `json:"name" binding:"required,max=200"`
	AccountType     domain.AccountType `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	CurrencyCode    string             `json:"currencyCode" binding:"omitempty,len=3"`
	ParentAccountID *string            `json:"parentAccountID"`
	IsPostable      *bool              `json:"isPostable"` // defaults to true
	IsTrust         bool               `json:"isTrust"`
}

// MapRoleRequest binds an account role to an account.
type MapRoleRequest struct {
	Role      domain.AccountRole `json:"role" binding:"required,accountrole"`
	AccountID string             `json:"accountID" binding:"required"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountID       string             `json:"accountID"`
	Code            string             `json:"code"`
	Name            string             `json:"name"`
	AccountType     domain.AccountType `json:"accountType"`
	NormalSide      domain.Side        `json:"normalSide"`
	CurrencyCode    string             `json:"currencyCode"`
	ParentAccountID string             `json:"parentAccountID,omitempty"`
	IsActive        bool               `json:"isActive"`
	IsPostable      bool               `json:"isPostable"`
	IsTrust         bool               `json:"isTrust"`
	CreatedAt       time.Time          `json:"createdAt"`
	CreatedBy       string             `json:"createdBy"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO.
func ToAccountResponse(acc *domain.Account) AccountResponse {
	resp := AccountResponse{
		AccountID:    acc.AccountID,
		Code:         acc.Code,
		Name:         acc.Name,
		AccountType:  acc.AccountType,
		NormalSide:   acc.NormalSide,
		CurrencyCode: acc.CurrencyCode,
		IsActive:     acc.IsActive,
		IsPostable:   acc.IsPostable,
		IsTrust:      acc.IsTrust,
		CreatedAt:    acc.CreatedAt,
		CreatedBy:    acc.CreatedBy,
	}
	if acc.ParentAccountID != nil {
		resp.ParentAccountID = *acc.ParentAccountID
	}
	return resp
}

// ToAccountResponses converts a slice of domain.Account.
func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	out := make([]AccountResponse, len(accounts))
	for i := range accounts {
		out[i] = ToAccountResponse(&accounts[i])
	}
	return out
}
