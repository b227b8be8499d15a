// Package identifier formats and parses the human-readable {prefix}-{YY}-{NNNN} identifiers.
package identifier

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/SscSPs/estate_ledger/internal/apperrors"
	"github.com/SscSPs/estate_ledger/internal/core/domain"
)

var generatedShape = regexp.MustCompile(`^([a-z]+)-(\d{2})-(\d{4,})$`)

// YearSuffix returns the two-digit year used inside identifiers.
func YearSuffix(year int) int {
	return year % 100
}

// Format renders an identifier, zero-padding the counter to four digits.
func Format(prefix domain.IdentifierPrefix, year int, counter int64) string {
	return fmt.Sprintf("%s-%02d-%04d", prefix, YearSuffix(year), counter)
}

// Parsed is the decomposition of a generated identifier.
type Parsed struct {
	Prefix  domain.IdentifierPrefix
	YY      int
	Counter int64
}

// Parse splits a generated-looking identifier. Values that do not have the generated
// shape are a validation error.
func Parse(s string) (Parsed, error) {
	m := generatedShape.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Parsed{}, apperrors.NewValidationError("identifier %q is not of the form prefix-YY-NNNN", s)
	}
	yy, _ := strconv.Atoi(m[2])
	counter, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return Parsed{}, apperrors.NewValidationError("identifier %q has an invalid counter", s)
	}
	return Parsed{Prefix: domain.IdentifierPrefix(m[1]), YY: yy, Counter: counter}, nil
}

// MatchesGenerated reports whether s occupies the generated namespace of prefix and year,
// whether or not that value has been issued yet.
func MatchesGenerated(s string, prefix domain.IdentifierPrefix, year int) bool {
	p, err := Parse(strings.ToLower(s))
	if err != nil {
		return false
	}
	return p.Prefix == prefix && p.YY == YearSuffix(year)
}
