package identifier_test

import (
	"testing"

	"github.com/SscSPs/estate_ledger/internal/apperrors"
	"github.com/SscSPs/estate_ledger/internal/core/domain"
	"github.com/SscSPs/estate_ledger/internal/utils/identifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "pay-25-0001", identifier.Format(domain.PrefixPayment, 2025, 1))
	assert.Equal(t, "je-26-0420", identifier.Format(domain.PrefixJournal, 2026, 420))
	assert.Equal(t, "deal-25-12345", identifier.Format(domain.PrefixDeal, 2025, 12345))
	assert.Equal(t, "prop-00-0007", identifier.Format(domain.PrefixProperty, 2000, 7))
}

func TestParse(t *testing.T) {
	p, err := identifier.Parse("pay-25-0041")
	require.NoError(t, err)
	assert.Equal(t, domain.PrefixPayment, p.Prefix)
	assert.Equal(t, 25, p.YY)
	assert.Equal(t, int64(41), p.Counter)

	p, err = identifier.Parse(" deal-24-10000 ")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), p.Counter)

	for _, bad := range []string{"", "pay-2025-0001", "pay-25-001", "PAY-25-0001", "TOWER-B-07", "pay_25_0001"} {
		_, err := identifier.Parse(bad)
		assert.ErrorIs(t, err, apperrors.ErrValidation, "value %q", bad)
	}
}

func TestMatchesGenerated(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"pay-25-0001", true},
		{"PAY-25-9999", true},
		{"pay-24-0001", false},
		{"rcp-25-0001", false},
		{"pay-25-01", false},
		{"RCPT-OLD-17", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, identifier.MatchesGenerated(tt.value, domain.PrefixPayment, 2025))
		})
	}
}
