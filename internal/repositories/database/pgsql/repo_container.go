package pgsql

import (
	"time"

	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires every pgx repository onto one pool. txTimeout bounds each
// outermost transaction; zero disables the bound.
func NewRepositoryProvider(dbPool *pgxpool.Pool, txTimeout time.Duration) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:       NewTxManager(dbPool, txTimeout),
		SequenceRepo:    newPgxSequenceRepository(dbPool),
		AccountRepo:     newPgxAccountRepository(dbPool),
		JournalRepo:     newPgxJournalRepository(dbPool),
		PaymentRepo:     newPgxPaymentRepository(dbPool),
		InstallmentRepo: newPgxInstallmentRepository(dbPool),
		DealRepo:        newPgxDealRepository(dbPool),
		UnitRepo:        newPgxUnitRepository(dbPool),
		ReportingRepo:   newReportingRepository(dbPool),
	}
}
