package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/vidyakosh/fee_ledger_app/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	feeStructureRepo := newPgxFeeStructureRepository(dbPool)
	ledgerRepo := newPgxLedgerRepository(dbPool)
	transactionRepo := newPgxTransactionRepository(dbPool)
	defaulterRepo := newPgxDefaulterRepository(dbPool)
	reportingRepo := newPgxReportingRepository(dbPool)

	return portsrepo.RepositoryProvider{
		FeeStructureRepo: feeStructureRepo,
		LedgerRepo:       ledgerRepo,
		TransactionRepo:  transactionRepo,
		DefaulterRepo:    defaulterRepo,
		ReportingRepo:    reportingRepo,
	}
}
