package repositories

import (
	"context"

	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
)

// LedgerReader defines read operations for student fee ledgers.
type LedgerReader interface {
	// FindLedger retrieves a ledger with its month and one-time entries by
	// (student, academicYear). Returns apperrors.ErrNotFound if absent.
	FindLedger(ctx context.Context, schoolID, studentID, academicYear string) (*domain.StudentFeeRecord, error)

	// ListLedgersBySchool retrieves every ledger for a school with entries
	// loaded. Used by the defaulter reconciliation scan.
	ListLedgersBySchool(ctx context.Context, schoolID string) ([]domain.StudentFeeRecord, error)

	// ListSchoolIDs returns the distinct school IDs that have ledgers.
	ListSchoolIDs(ctx context.Context) ([]string, error)
}

// LedgerWriter defines write operations for student fee ledgers.
type LedgerWriter interface {
	// SaveLedger inserts a freshly created ledger with all its entries.
	SaveLedger(ctx context.Context, ledger domain.StudentFeeRecord) error

	// ReplaceLedger overwrites a ledger's totals and entries as a unit,
	// guarded by the expected version. Used by structure migration.
	// Returns apperrors.ErrConflict when the version no longer matches.
	ReplaceLedger(ctx context.Context, ledger domain.StudentFeeRecord, expectedVersion int64) error

	// ApplyPayment persists a mutated ledger together with its transaction
	// rows in a single database transaction, guarded by the expected
	// version. Either everything commits or nothing does.
	// Returns apperrors.ErrConflict on a version mismatch and
	// apperrors.ErrDuplicate on a transaction-ID collision.
	ApplyPayment(ctx context.Context, ledger domain.StudentFeeRecord, expectedVersion int64, transactions []domain.FeeTransaction) error
}

// LedgerRepositoryFacade combines all ledger repository interfaces.
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}
