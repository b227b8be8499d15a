package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	TxManager       TransactionManager
	SequenceRepo    SequenceRepositoryFacade
	AccountRepo     AccountRepositoryFacade
	JournalRepo     JournalRepositoryFacade
	PaymentRepo     PaymentRepositoryFacade
	InstallmentRepo InstallmentRepositoryFacade
	DealRepo        DealRepositoryFacade
	UnitRepo        PropertyUnitRepository
	ReportingRepo   ReportingRepository
}
