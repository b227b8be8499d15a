package accounting

import (
	"fmt"

	"github.com/SscSPs/estate_ledger/internal/apperrors"
	"github.com/SscSPs/estate_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SignedAmount returns the effect of a line on an account whose normal side is given.
// A debit to a debit-normal account is positive, a credit to it is negative, and the
// reverse holds for credit-normal accounts.
func SignedAmount(line domain.JournalLine, normal domain.Side) decimal.Decimal {
	if normal == domain.Debit {
		return line.Debit.Sub(line.Credit)
	}
	return line.Credit.Sub(line.Debit)
}

// ValidateLineShape checks a single line: exactly one strictly positive side and no more
// decimal places than the currency allows.
func ValidateLineShape(line domain.JournalLine, scale int32) error {
	if line.AccountID == "" {
		return apperrors.NewValidationError("line %d: account is required", line.LineNo)
	}
	if line.Debit.IsNegative() || line.Credit.IsNegative() {
		return apperrors.NewValidationError("line %d: amounts must not be negative", line.LineNo)
	}
	hasDebit, hasCredit := line.Debit.IsPositive(), line.Credit.IsPositive()
	if hasDebit == hasCredit {
		return apperrors.NewValidationError("line %d: exactly one of debit or credit must be non-zero", line.LineNo)
	}
	amount := line.Amount()
	if !amount.Equal(amount.Truncate(scale)) {
		return apperrors.NewValidationError("line %d: amount %s has more than %d decimal places", line.LineNo, amount, scale)
	}
	return nil
}

// ValidateBalance checks the double-entry invariant over a set of lines.
func ValidateBalance(lines []domain.JournalLine) error {
	if len(lines) < 2 {
		return apperrors.NewValidationError("journal entry must have at least two lines")
	}
	debit, credit := decimal.Zero, decimal.Zero
	for _, l := range lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	if !debit.Equal(credit) {
		return fmt.Errorf("%w: debits %s, credits %s", apperrors.ErrUnbalancedEntry, debit.StringFixed(2), credit.StringFixed(2))
	}
	return nil
}
