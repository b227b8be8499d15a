package dto

import (
	"time"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// InstallmentPlanItem is one scheduled obligation in a new deal's payment plan.
type InstallmentPlanItem struct {
	Amount  decimal.Decimal `json:"amount" binding:"dgt0"`
	DueDate time.Time       `json:"dueDate" binding:"required"`
}

// CreateDealRequest creates a deal and its payment plan.
type CreateDealRequest struct {
	DealNumber     string                  `json:"dealNumber"` // optional manual identifier
	ClientID       string                  `json:"clientID" binding:"required"`
	DealerID       string                  `json:"dealerID"`
	PropertyUnitID string                  `json:"propertyUnitID"`
	Title          string                  `json:"title" binding:"max=200"`
	Amount         decimal.Decimal         `json:"amount" binding:"dgt0"`
	Stage          domain.DealStage        `json:"stage" binding:"omitempty,dealstage"`
	Commission     domain.CommissionConfig `json:"commission"`
	Installments   []InstallmentPlanItem   `json:"installments" binding:"dive"`
}

// StageChangeRequest moves a deal through the pipeline.
type StageChangeRequest struct {
	Stage domain.DealStage `json:"stage" binding:"required,dealstage"`
}

// DealDetails is a deal together with its installments.
type DealDetails struct {
	Deal         domain.Deal              `json:"deal"`
	Installments []domain.DealInstallment `json:"installments"`
}
