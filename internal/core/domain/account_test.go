package domain_test

import (
	"testing"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestAccountType_NormalSide(t *testing.T) {
	tests := []struct {
		accountType domain.AccountType
		want        domain.Side
	}{
		{domain.Asset, domain.Debit},
		{domain.Expense, domain.Debit},
		{domain.Liability, domain.Credit},
		{domain.Equity, domain.Credit},
		{domain.Revenue, domain.Credit},
	}
	for _, tt := range tests {
		t.Run(string(tt.accountType), func(t *testing.T) {
			assert.True(t, tt.accountType.IsValid())
			assert.Equal(t, tt.want, tt.accountType.NormalSide())
		})
	}
	assert.False(t, domain.AccountType("INCOME").IsValid())
	assert.Equal(t, domain.Credit, domain.Debit.Opposite())
}

func TestAccountRole(t *testing.T) {
	for _, role := range domain.AllAccountRoles {
		assert.True(t, role.IsValid(), "role %s", role)
	}
	assert.True(t, domain.RoleTrustBank.IsTrust())
	assert.True(t, domain.RoleTrustCash.IsTrust())
	assert.False(t, domain.RoleBank.IsTrust())
	assert.False(t, domain.AccountRole("vault").IsValid())
}

func TestJournalEntry_IsBalanced(t *testing.T) {
	entry := domain.JournalEntry{Lines: []domain.JournalLine{
		{Debit: d("100.50"), Credit: d("0")},
		{Debit: d("0"), Credit: d("60.25")},
		{Debit: d("0"), Credit: d("40.25")},
	}}
	debit, credit := entry.Totals()
	assert.True(t, d("100.50").Equal(debit))
	assert.True(t, d("100.50").Equal(credit))
	assert.True(t, entry.IsBalanced())

	entry.Lines[2].Credit = d("40.24")
	assert.False(t, entry.IsBalanced())

	assert.True(t, domain.JournalEntry{}.IsBalanced())
}

func TestIdentifierPrefix_IsValid(t *testing.T) {
	for _, p := range []domain.IdentifierPrefix{
		domain.PrefixProperty, domain.PrefixPayment, domain.PrefixClient, domain.PrefixLead,
		domain.PrefixDeal, domain.PrefixDealer, domain.PrefixReceipt, domain.PrefixInvoice,
		domain.PrefixTransaction, domain.PrefixJournal, domain.PrefixVoucher, domain.PrefixTenant,
		domain.PrefixTicket, domain.PrefixNotice,
	} {
		assert.True(t, p.IsValid(), "prefix %s", p)
	}
	assert.False(t, domain.IdentifierPrefix("PAY").IsValid())
}

func TestJournalLine_Mirror(t *testing.T) {
	tags := domain.Dimensions{DealID: "deal-1", ClientID: "cli-1"}
	debit := domain.NewDebitLine("acc-bank", d("500"), tags)
	debit.LineID, debit.EntryID, debit.LineNo = "line-1", "entry-1", 1

	m := debit.Mirror(d("120"))
	assert.Equal(t, domain.Credit, m.Side())
	assert.True(t, d("120").Equal(m.Amount()))
	assert.True(t, m.Debit.IsZero())
	assert.Equal(t, "acc-bank", m.AccountID)
	assert.Equal(t, tags, m.Tags)
	assert.Empty(t, m.LineID)
	assert.Empty(t, m.EntryID)
	assert.Zero(t, m.LineNo)

	credit := domain.NewCreditLine("acc-ar", d("500"), tags)
	assert.Equal(t, domain.Debit, credit.Mirror(d("500")).Side())
}
