package services

import (
	portsrepo "github.com/vidyakosh/fee_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/vidyakosh/fee_ledger_app/internal/core/ports/services"
)

// NewServiceContainer wires every service against the repository provider.
func NewServiceContainer(repos *portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	feeStructureSvc := NewFeeStructureService(repos.FeeStructureRepo)
	ledgerSvc := NewLedgerService(repos.FeeStructureRepo, repos.LedgerRepo, repos.TransactionRepo)
	paymentSvc := NewPaymentService(ledgerSvc, repos.LedgerRepo)
	defaulterSvc := NewDefaulterService(repos.LedgerRepo, repos.DefaulterRepo)
	reportingSvc := NewReportingService(repos.ReportingRepo)

	return &portssvc.ServiceContainer{
		FeeStructure: feeStructureSvc,
		Ledger:       ledgerSvc,
		Payment:      paymentSvc,
		Defaulter:    defaulterSvc,
		Reporting:    reportingSvc,
	}
}
