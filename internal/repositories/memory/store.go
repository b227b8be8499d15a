// Package memory provides an in-process implementation of every repository port.
//
// It backs the test suites and the "memory" storage driver. Transactions are simulated
// with a snapshot of all tables that is restored when the unit of work fails; outermost
// transactions are serialized, so row locks need no further emulation. Reads outside a
// transaction may observe uncommitted writes.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/SscSPs/estate_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
)

type seqKey struct {
	prefix domain.IdentifierPrefix
	year   int
}

type tables struct {
	accounts     map[string]domain.Account
	roleMappings map[domain.AccountRole][]domain.AccountRoleMapping

	sequences   map[seqKey]int64
	identifiers map[string]domain.IssuedIdentifier

	entries       map[string]domain.JournalEntry
	postedByKey   map[string]string
	entryByNumber map[string]string

	deals        map[string]domain.Deal
	dealNumbers  map[string]string
	units        map[string]domain.UnitStatus
	installments map[string]domain.DealInstallment
	allocations  []domain.ReceiptAllocation

	payments       map[string]domain.Payment
	paymentNumbers map[string]string
}

func newTables() tables {
	return tables{
		accounts:       make(map[string]domain.Account),
		roleMappings:   make(map[domain.AccountRole][]domain.AccountRoleMapping),
		sequences:      make(map[seqKey]int64),
		identifiers:    make(map[string]domain.IssuedIdentifier),
		entries:        make(map[string]domain.JournalEntry),
		postedByKey:    make(map[string]string),
		entryByNumber:  make(map[string]string),
		deals:          make(map[string]domain.Deal),
		dealNumbers:    make(map[string]string),
		units:          make(map[string]domain.UnitStatus),
		installments:   make(map[string]domain.DealInstallment),
		payments:       make(map[string]domain.Payment),
		paymentNumbers: make(map[string]string),
	}
}

// clone copies every table. Stored values are replaced on update, never mutated in place,
// so copying the maps is enough.
func (t tables) clone() tables {
	c := t
	c.accounts = maps.Clone(t.accounts)
	c.roleMappings = maps.Clone(t.roleMappings)
	c.sequences = maps.Clone(t.sequences)
	c.identifiers = maps.Clone(t.identifiers)
	c.entries = maps.Clone(t.entries)
	c.postedByKey = maps.Clone(t.postedByKey)
	c.entryByNumber = maps.Clone(t.entryByNumber)
	c.deals = maps.Clone(t.deals)
	c.dealNumbers = maps.Clone(t.dealNumbers)
	c.units = maps.Clone(t.units)
	c.installments = maps.Clone(t.installments)
	c.allocations = t.allocations[:len(t.allocations):len(t.allocations)]
	c.payments = maps.Clone(t.payments)
	c.paymentNumbers = maps.Clone(t.paymentNumbers)
	return c
}

type txKey struct{}

// Store holds all tables behind one mutex.
type Store struct {
	mu   sync.Mutex // guards t
	txMu sync.Mutex // held by the outermost transaction
	t    tables
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{t: newTables()}
}

var _ portsrepo.TransactionManager = (*Store)(nil)

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (s *Store) snapshot() tables {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t.clone()
}

func (s *Store) restore(snap tables) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.t = snap
}

// WithinTx runs fn atomically. A nested call takes its own snapshot, so its failure
// undoes only its own writes.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
		ctx = context.WithValue(ctx, txKey{}, s)
	}
	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// write applies fn to the tables. Outside a transaction the write is its own
// transaction, so it cannot be lost to another transaction's rollback.
func (s *Store) write(ctx context.Context, fn func(t *tables) error) error {
	if !s.inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.t.clone()
	if err := fn(&s.t); err != nil {
		s.t = snap
		return err
	}
	return nil
}

func (s *Store) read(fn func(t *tables)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.t)
}

// NewRepositoryProvider exposes the store through every repository port.
func NewRepositoryProvider(s *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:       s,
		SequenceRepo:    s,
		AccountRepo:     s,
		JournalRepo:     s,
		PaymentRepo:     s,
		InstallmentRepo: s,
		DealRepo:        s,
		UnitRepo:        s,
		ReportingRepo:   s,
	}
}
