package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/SscSPs/estate_ledger/internal/apperrors"
	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/estate_ledger/internal/utils/identifier"
)

var _ portsrepo.SequenceRepositoryFacade = (*Store)(nil)

func (s *Store) Increment(ctx context.Context, prefix domain.IdentifierPrefix, year int) (int64, bool, error) {
	var value int64
	var found bool
	err := s.write(ctx, func(t *tables) error {
		k := seqKey{prefix: prefix, year: year}
		if value, found = t.sequences[k]; found {
			value++
			t.sequences[k] = value
		}
		return nil
	})
	return value, found, err
}

func (s *Store) InitializeOrIncrement(ctx context.Context, prefix domain.IdentifierPrefix, year int, initial int64) (int64, error) {
	var value int64
	err := s.write(ctx, func(t *tables) error {
		k := seqKey{prefix: prefix, year: year}
		if current, ok := t.sequences[k]; ok {
			value = current + 1
		} else {
			value = initial
		}
		t.sequences[k] = value
		return nil
	})
	return value, err
}

// knownIdentifiers lists every identifier-bearing value, registered or not.
func (t *tables) knownIdentifiers() []string {
	out := make([]string, 0, len(t.identifiers)+len(t.paymentNumbers)+len(t.dealNumbers)+len(t.entryByNumber))
	for id := range t.identifiers {
		out = append(out, id)
	}
	for n := range t.paymentNumbers {
		out = append(out, n)
	}
	for n := range t.dealNumbers {
		out = append(out, n)
	}
	for n := range t.entryByNumber {
		out = append(out, n)
	}
	return out
}

func (s *Store) MaxLegacyCounter(_ context.Context, prefix domain.IdentifierPrefix, year int) (int64, error) {
	var highest int64
	s.read(func(t *tables) {
		for _, id := range t.knownIdentifiers() {
			p, err := identifier.Parse(strings.ToLower(id))
			if err != nil || p.Prefix != prefix || p.YY != identifier.YearSuffix(year) {
				continue
			}
			if p.Counter > highest {
				highest = p.Counter
			}
		}
	})
	return highest, nil
}

func (s *Store) RegisterIdentifier(ctx context.Context, id domain.IssuedIdentifier) error {
	return s.write(ctx, func(t *tables) error {
		if _, ok := t.identifiers[id.Identifier]; ok {
			return fmt.Errorf("%w: identifier %s", apperrors.ErrDuplicate, id.Identifier)
		}
		t.identifiers[id.Identifier] = id
		return nil
	})
}

func (s *Store) IdentifierExists(_ context.Context, value string) (bool, error) {
	var exists bool
	s.read(func(t *tables) {
		for _, id := range t.knownIdentifiers() {
			if strings.EqualFold(id, value) {
				exists = true
				return
			}
		}
	})
	return exists, nil
}
