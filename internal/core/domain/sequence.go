package domain

// IdentifierPrefix names the module an identifier belongs to.
type IdentifierPrefix string

const (
	PrefixProperty    IdentifierPrefix = "prop"
	PrefixPayment     IdentifierPrefix = "pay"
	PrefixClient      IdentifierPrefix = "cli"
	PrefixLead        IdentifierPrefix = "lead"
	PrefixDeal        IdentifierPrefix = "deal"
	PrefixDealer      IdentifierPrefix = "dl"
	PrefixReceipt     IdentifierPrefix = "rcp"
	PrefixInvoice     IdentifierPrefix = "inv"
	PrefixTransaction IdentifierPrefix = "txn"
	PrefixJournal     IdentifierPrefix = "je"
	PrefixVoucher     IdentifierPrefix = "vch"
	PrefixTenant      IdentifierPrefix = "ten"
	PrefixTicket      IdentifierPrefix = "tkt"
	PrefixNotice      IdentifierPrefix = "ntc"
)

var knownPrefixes = map[IdentifierPrefix]struct{}{
	PrefixProperty: {}, PrefixPayment: {}, PrefixClient: {}, PrefixLead: {},
	PrefixDeal: {}, PrefixDealer: {}, PrefixReceipt: {}, PrefixInvoice: {},
	PrefixTransaction: {}, PrefixJournal: {}, PrefixVoucher: {}, PrefixTenant: {},
	PrefixTicket: {}, PrefixNotice: {},
}

// IsValid reports whether p belongs to the closed prefix registry.
func (p IdentifierPrefix) IsValid() bool {
	_, ok := knownPrefixes[p]
	return ok
}

// Sequence is a year-scoped counter for one prefix.
type Sequence struct {
	Prefix       IdentifierPrefix `json:"prefix"`
	Year         int              `json:"year"`
	CurrentValue int64            `json:"currentValue"`
}

// IssuedIdentifier is an identifier that exists somewhere in the system, generated,
// entered by hand, or imported from legacy records.
type IssuedIdentifier struct {
	Prefix     IdentifierPrefix `json:"prefix"`
	Identifier string           `json:"identifier"`
	Manual     bool             `json:"manual"`
}
