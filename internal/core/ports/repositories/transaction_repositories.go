package repositories

import (
	"context"

	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
)

// TransactionReader defines read operations over the immutable transaction log.
type TransactionReader interface {
	// ListRecentByLedger retrieves the newest transactions for a ledger.
	ListRecentByLedger(ctx context.Context, ledgerID string, limit int) ([]domain.FeeTransaction, error)

	// FindByTransactionID retrieves one transaction by its school-scoped ID.
	FindByTransactionID(ctx context.Context, schoolID, transactionID string) (*domain.FeeTransaction, error)
}

// TransactionRepositoryFacade combines transaction log interfaces. Writes go
// exclusively through LedgerWriter.ApplyPayment so a payment and its log rows
// commit as one unit.
type TransactionRepositoryFacade interface {
	TransactionReader
}
