package domain

// UnitStatus is the sale status of a property unit, as far as the ledger cares.
type UnitStatus string

const (
	UnitAvailable UnitStatus = "AVAILABLE"
	UnitSold      UnitStatus = "SOLD"
)
