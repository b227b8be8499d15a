package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DealStage is the sales pipeline position of a deal.
type DealStage string

const (
	StageProspecting DealStage = "prospecting"
	StageQualified   DealStage = "qualified"
	StageProposal    DealStage = "proposal"
	StageNegotiation DealStage = "negotiation"
	StageClosing     DealStage = "closing"
	StageClosedWon   DealStage = "closed-won"
	StageClosedLost  DealStage = "closed-lost"
)

var stageOrder = map[DealStage]int{
	StageProspecting: 0,
	StageQualified:   1,
	StageProposal:    2,
	StageNegotiation: 3,
	StageClosing:     4,
	StageClosedWon:   5,
	StageClosedLost:  5,
}

// IsValid reports whether s is a known stage.
func (s DealStage) IsValid() bool {
	_, ok := stageOrder[s]
	return ok
}

// IsTerminal reports whether s is closed-won or closed-lost.
func (s DealStage) IsTerminal() bool {
	return s == StageClosedWon || s == StageClosedLost
}

// Rank is the position of the stage in the pipeline.
func (s DealStage) Rank() int {
	return stageOrder[s]
}

// DealStatus is derived from the stage and the money received. It is never set directly.
type DealStatus string

const (
	DealOpen       DealStatus = "open"
	DealInProgress DealStatus = "in_progress"
	DealClosed     DealStatus = "closed"
	DealCancelled  DealStatus = "cancelled"
)

// DeriveDealStatus computes the status axis of a deal.
func DeriveDealStatus(stage DealStage, paid, amount decimal.Decimal, hasPayments bool) DealStatus {
	switch {
	case stage == StageClosedLost:
		return DealCancelled
	case stage == StageClosedWon, amount.IsPositive() && paid.GreaterThanOrEqual(amount):
		return DealClosed
	case hasPayments:
		return DealInProgress
	default:
		return DealOpen
	}
}

// CommissionConfig is the dealer commission attached to a deal.
type CommissionConfig struct {
	DealerID    string          `json:"dealerID,omitempty"`
	Rate        decimal.Decimal `json:"rate"`        // fraction of the deal amount, e.g. 0.02
	FixedAmount decimal.Decimal `json:"fixedAmount"` // added on top of the rate part
}

// AmountFor returns the commission owed on a deal of the given amount, rounded to scale.
func (c CommissionConfig) AmountFor(dealAmount decimal.Decimal, scale int32) decimal.Decimal {
	if c.DealerID == "" {
		return decimal.Zero
	}
	return dealAmount.Mul(c.Rate).Add(c.FixedAmount).Round(scale)
}

// Deal is a sale of a property unit to a client.
type Deal struct {
	DealID             string           `json:"dealID"`
	DealNumber         string           `json:"dealNumber"`
	ClientID           string           `json:"clientID"`
	DealerID           string           `json:"dealerID,omitempty"`
	PropertyUnitID     string           `json:"propertyUnitID,omitempty"`
	Title              string           `json:"title"`
	Amount             decimal.Decimal  `json:"amount"`
	Stage              DealStage        `json:"stage"`
	Status             DealStatus       `json:"status"`
	PaidTotal          decimal.Decimal  `json:"paidTotal"`
	Commission         CommissionConfig `json:"commission"`
	RevenueRecognized  bool             `json:"revenueRecognized"`
	RecognitionEntryID *string          `json:"recognitionEntryID,omitempty"`
	RecognitionCycle   int              `json:"recognitionCycle"`
	AutoClosed         bool             `json:"autoClosed"`
	DeletedAt          *time.Time       `json:"deletedAt,omitempty"`
	AuditFields
}

// IsDeleted reports whether the deal has been soft-deleted.
func (d Deal) IsDeleted() bool {
	return d.DeletedAt != nil
}
