package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidyakosh/fee_ledger_app/internal/apperrors"
	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
	portsrepo "github.com/vidyakosh/fee_ledger_app/internal/core/ports/repositories"
)

type PgxTransactionRepository struct {
	BaseRepository
}

// newPgxTransactionRepository creates a read-only view over the transaction
// log. Inserts happen inside the ledger repository's ApplyPayment.
func newPgxTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRepositoryFacade {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

const transactionColumns = `
	transaction_id, school_id, ledger_id, student_id, amount, payment_method,
	month, fee_type, collected_by, remarks, status,
	ip_address, device_info, audit_timestamp, created_at
`

// ListRecentByLedger retrieves the newest transactions for a ledger.
func (r *PgxTransactionRepository) ListRecentByLedger(ctx context.Context, ledgerID string, limit int) ([]domain.FeeTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM fee_transactions
		WHERE ledger_id = $1
		ORDER BY created_at DESC, transaction_id DESC
		LIMIT $2;
	`
	rows, err := r.Pool.Query(ctx, query, ledgerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for ledger %s: %w", ledgerID, err)
	}
	defer rows.Close()

	var transactions []domain.FeeTransaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

// FindByTransactionID retrieves one transaction by its school-scoped ID.
func (r *PgxTransactionRepository) FindByTransactionID(ctx context.Context, schoolID, transactionID string) (*domain.FeeTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM fee_transactions
		WHERE school_id = $1 AND transaction_id = $2;
	`
	t, err := scanTransaction(r.Pool.QueryRow(ctx, query, schoolID, transactionID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, transactionID)
		}
		return nil, err
	}
	return t, nil
}

func scanTransaction(row pgx.Row) (*domain.FeeTransaction, error) {
	var t domain.FeeTransaction
	err := row.Scan(
		&t.TransactionID,
		&t.SchoolID,
		&t.LedgerID,
		&t.StudentID,
		&t.Amount,
		&t.PaymentMethod,
		&t.Month,
		&t.FeeType,
		&t.CollectedBy,
		&t.Remarks,
		&t.Status,
		&t.AuditLog.IPAddress,
		&t.AuditLog.DeviceInfo,
		&t.AuditLog.Timestamp,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	return &t, nil
}
