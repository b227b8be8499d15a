package services

import (
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/estate_ledger/internal/core/ports/services"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(repos portsrepo.RepositoryProvider, opts ...ContainerOption) *portssvc.ServiceContainer {
	cfg := &containerConfig{settings: DefaultLedgerSettings()}
	for _, opt := range opts {
		opt(cfg)
	}
	base := BaseService{auditSink: cfg.auditSink}

	container := &portssvc.ServiceContainer{}

	// Leaves first: everything else issues identifiers and resolves accounts.
	container.Sequence = NewSequenceService(repos.SequenceRepo, repos.TxManager, cfg.settings)
	container.Accounts = NewAccountRegistryService(repos.AccountRepo, cfg.settings)

	container.Journal = NewJournalService(repos.JournalRepo, repos.AccountRepo, container.Sequence, repos.TxManager, cfg.settings)
	container.Allocation = NewAllocationService(repos.InstallmentRepo, repos.TxManager, cfg.settings)

	container.Deal = NewDealService(DealServiceDeps{
		Deals:     repos.DealRepo,
		Payments:  repos.PaymentRepo,
		Plans:     repos.InstallmentRepo,
		Units:     repos.UnitRepo,
		Sequence:  container.Sequence,
		Accounts:  container.Accounts,
		Journal:   container.Journal,
		TxManager: repos.TxManager,
	}, cfg.settings, base)

	container.Payment = NewPaymentService(PaymentServiceDeps{
		Payments:   repos.PaymentRepo,
		Plans:      repos.InstallmentRepo,
		Deals:      repos.DealRepo,
		Sequence:   container.Sequence,
		Accounts:   container.Accounts,
		Journal:    container.Journal,
		Allocation: container.Allocation,
		DealSvc:    container.Deal,
		TxManager:  repos.TxManager,
	}, cfg.settings, base)

	container.Reporting = NewReportingService(repos.ReportingRepo, repos.AccountRepo, container.Accounts, cfg.settings)

	return container
}
