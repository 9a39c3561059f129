package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidyakosh/fee_ledger_app/internal/apperrors"
	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
	portsrepo "github.com/vidyakosh/fee_ledger_app/internal/core/ports/repositories"
)

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for student fee ledgers.
func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

const ledgerColumns = `
	ledger_id, student_id, school_id, grade, academic_year, structure_id,
	total_fee_amount, total_paid_amount, total_due_amount, status, version,
	created_at, last_updated_at
`

// FindLedger retrieves a ledger with its month and one-time entries.
func (r *PgxLedgerRepository) FindLedger(ctx context.Context, schoolID, studentID, academicYear string) (*domain.StudentFeeRecord, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM student_fee_records
		WHERE school_id = $1 AND student_id = $2 AND academic_year = $3;
	`
	ledger, err := r.scanLedgerRow(r.Pool.QueryRow(ctx, query, schoolID, studentID, academicYear))
	if err != nil {
		return nil, err
	}
	if err := r.loadEntries(ctx, ledger); err != nil {
		return nil, err
	}
	return ledger, nil
}

// ListLedgersBySchool retrieves every ledger for a school with entries loaded.
// Entries are loaded in two bulk queries, not one per ledger.
func (r *PgxLedgerRepository) ListLedgersBySchool(ctx context.Context, schoolID string) ([]domain.StudentFeeRecord, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM student_fee_records
		WHERE school_id = $1
		ORDER BY ledger_id;
	`
	rows, err := r.Pool.Query(ctx, query, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledgers for school %s: %w", schoolID, err)
	}
	defer rows.Close()

	byID := make(map[string]*domain.StudentFeeRecord)
	var ledgers []domain.StudentFeeRecord
	for rows.Next() {
		ledger, err := r.scanLedgerRow(rows)
		if err != nil {
			return nil, err
		}
		ledgers = append(ledgers, *ledger)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledgers: %w", err)
	}
	for i := range ledgers {
		byID[ledgers[i].LedgerID] = &ledgers[i]
	}

	monthQuery := `
		SELECT m.ledger_id, m.month, m.due_amount, m.paid_amount, m.late_fee, m.status, m.due_date, m.waived
		FROM fee_monthly_payments m
		JOIN student_fee_records l ON l.ledger_id = m.ledger_id
		WHERE l.school_id = $1;
	`
	monthRows, err := r.Pool.Query(ctx, monthQuery, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly entries for school %s: %w", schoolID, err)
	}
	defer monthRows.Close()
	for monthRows.Next() {
		var ledgerID string
		var m domain.MonthlyPayment
		if err := monthRows.Scan(&ledgerID, &m.Month, &m.DueAmount, &m.PaidAmount, &m.LateFee, &m.Status, &m.DueDate, &m.Waived); err != nil {
			return nil, fmt.Errorf("failed to scan monthly entry: %w", err)
		}
		if ledger, ok := byID[ledgerID]; ok {
			ledger.Months[m.Month] = m
		}
	}
	if err := monthRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly entries: %w", err)
	}

	feeQuery := `
		SELECT f.ledger_id, f.fee_type, f.due_amount, f.paid_amount, f.status, f.paid_date
		FROM fee_one_time_fees f
		JOIN student_fee_records l ON l.ledger_id = f.ledger_id
		WHERE l.school_id = $1;
	`
	feeRows, err := r.Pool.Query(ctx, feeQuery, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to load one-time entries for school %s: %w", schoolID, err)
	}
	defer feeRows.Close()
	for feeRows.Next() {
		var ledgerID string
		var f domain.OneTimeFee
		if err := feeRows.Scan(&ledgerID, &f.FeeType, &f.DueAmount, &f.PaidAmount, &f.Status, &f.PaidDate); err != nil {
			return nil, fmt.Errorf("failed to scan one-time entry: %w", err)
		}
		if ledger, ok := byID[ledgerID]; ok {
			ledger.OneTimeFees[f.FeeType] = f
		}
	}
	if err := feeRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating one-time entries: %w", err)
	}

	return ledgers, nil
}

// ListSchoolIDs returns the distinct school IDs that have ledgers.
func (r *PgxLedgerRepository) ListSchoolIDs(ctx context.Context) ([]string, error) {
	rows, err := r.Pool.Query(ctx, `SELECT DISTINCT school_id FROM student_fee_records ORDER BY school_id;`)
	if err != nil {
		return nil, fmt.Errorf("failed to list school IDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan school ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating school IDs: %w", err)
	}
	return ids, nil
}

// SaveLedger inserts a freshly created ledger with all its entries.
func (r *PgxLedgerRepository) SaveLedger(ctx context.Context, ledger domain.StudentFeeRecord) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	insertQuery := `
		INSERT INTO student_fee_records (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err = tx.Exec(ctx, insertQuery,
		ledger.LedgerID,
		ledger.StudentID,
		ledger.SchoolID,
		ledger.Grade,
		ledger.AcademicYear,
		ledger.StructureID,
		ledger.TotalFeeAmount,
		ledger.TotalPaidAmount,
		ledger.TotalDueAmount,
		ledger.Status,
		ledger.Version,
		ledger.CreatedAt,
		ledger.LastUpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("%w: ledger for student %s in %s already exists", apperrors.ErrDuplicate, ledger.StudentID, ledger.AcademicYear)
		}
		return fmt.Errorf("failed to insert ledger %s: %w", ledger.LedgerID, err)
	}

	if err := r.writeEntries(ctx, tx, ledger); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// ReplaceLedger overwrites a ledger's totals and entries as a unit, guarded
// by the expected version. Entry rows are rewritten wholesale because a
// structure migration can change the entry set itself.
func (r *PgxLedgerRepository) ReplaceLedger(ctx context.Context, ledger domain.StudentFeeRecord, expectedVersion int64) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := r.guardedUpdate(ctx, tx, ledger, expectedVersion); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM fee_monthly_payments WHERE ledger_id = $1;`, ledger.LedgerID); err != nil {
		return fmt.Errorf("failed to clear monthly entries for ledger %s: %w", ledger.LedgerID, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM fee_one_time_fees WHERE ledger_id = $1;`, ledger.LedgerID); err != nil {
		return fmt.Errorf("failed to clear one-time entries for ledger %s: %w", ledger.LedgerID, err)
	}
	if err := r.writeEntries(ctx, tx, ledger); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// ApplyPayment persists a mutated ledger together with its transaction rows
// in a single database transaction, guarded by the expected version.
func (r *PgxLedgerRepository) ApplyPayment(ctx context.Context, ledger domain.StudentFeeRecord, expectedVersion int64, transactions []domain.FeeTransaction) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := r.guardedUpdate(ctx, tx, ledger, expectedVersion); err != nil {
		return err
	}

	monthQuery := `
		INSERT INTO fee_monthly_payments (ledger_id, month, due_amount, paid_amount, late_fee, status, due_date, waived)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (ledger_id, month) DO UPDATE SET
			due_amount = EXCLUDED.due_amount,
			paid_amount = EXCLUDED.paid_amount,
			late_fee = EXCLUDED.late_fee,
			status = EXCLUDED.status,
			due_date = EXCLUDED.due_date,
			waived = EXCLUDED.waived;
	`
	feeQuery := `
		INSERT INTO fee_one_time_fees (ledger_id, fee_type, due_amount, paid_amount, status, paid_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (ledger_id, fee_type) DO UPDATE SET
			due_amount = EXCLUDED.due_amount,
			paid_amount = EXCLUDED.paid_amount,
			status = EXCLUDED.status,
			paid_date = EXCLUDED.paid_date;
	`
	batch := &pgx.Batch{}
	for _, m := range ledger.MonthsInOrder() {
		batch.Queue(monthQuery, ledger.LedgerID, m.Month, m.DueAmount, m.PaidAmount, m.LateFee, m.Status, m.DueDate, m.Waived)
	}
	for _, f := range ledger.OneTimeFeesInOrder() {
		batch.Queue(feeQuery, ledger.LedgerID, f.FeeType, f.DueAmount, f.PaidAmount, f.Status, f.PaidDate)
	}

	txnQuery := `
		INSERT INTO fee_transactions (
			transaction_id, school_id, ledger_id, student_id, amount, payment_method,
			month, fee_type, collected_by, remarks, status,
			ip_address, device_info, audit_timestamp, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`
	for _, t := range transactions {
		batch.Queue(txnQuery,
			t.TransactionID,
			t.SchoolID,
			t.LedgerID,
			t.StudentID,
			t.Amount,
			t.PaymentMethod,
			t.Month,
			t.FeeType,
			t.CollectedBy,
			t.Remarks,
			t.Status,
			t.AuditLog.IPAddress,
			t.AuditLog.DeviceInfo,
			t.AuditLog.Timestamp,
			t.CreatedAt,
		)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("%w: transaction ID collision on ledger %s", apperrors.ErrDuplicate, ledger.LedgerID)
		}
		return fmt.Errorf("failed to apply payment batch for ledger %s: %w", ledger.LedgerID, err)
	}

	return r.Commit(ctx, tx)
}

// guardedUpdate bumps the ledger row's version iff it still matches
// expectedVersion. Zero rows affected means a concurrent writer won.
func (r *PgxLedgerRepository) guardedUpdate(ctx context.Context, tx pgx.Tx, ledger domain.StudentFeeRecord, expectedVersion int64) error {
	updateQuery := `
		UPDATE student_fee_records SET
			grade = $1,
			structure_id = $2,
			total_fee_amount = $3,
			total_paid_amount = $4,
			total_due_amount = $5,
			status = $6,
			version = version + 1,
			last_updated_at = $7
		WHERE ledger_id = $8 AND version = $9;
	`
	tag, err := tx.Exec(ctx, updateQuery,
		ledger.Grade,
		ledger.StructureID,
		ledger.TotalFeeAmount,
		ledger.TotalPaidAmount,
		ledger.TotalDueAmount,
		ledger.Status,
		ledger.LastUpdatedAt,
		ledger.LedgerID,
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update ledger %s: %w", ledger.LedgerID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: ledger %s was modified concurrently", apperrors.ErrConflict, ledger.LedgerID)
	}
	return nil
}

// writeEntries batch-inserts all month and one-time rows of a ledger.
func (r *PgxLedgerRepository) writeEntries(ctx context.Context, tx pgx.Tx, ledger domain.StudentFeeRecord) error {
	monthQuery := `
		INSERT INTO fee_monthly_payments (ledger_id, month, due_amount, paid_amount, late_fee, status, due_date, waived)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	feeQuery := `
		INSERT INTO fee_one_time_fees (ledger_id, fee_type, due_amount, paid_amount, status, paid_date)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	batch := &pgx.Batch{}
	for _, m := range ledger.MonthsInOrder() {
		batch.Queue(monthQuery, ledger.LedgerID, m.Month, m.DueAmount, m.PaidAmount, m.LateFee, m.Status, m.DueDate, m.Waived)
	}
	for _, f := range ledger.OneTimeFeesInOrder() {
		batch.Queue(feeQuery, ledger.LedgerID, f.FeeType, f.DueAmount, f.PaidAmount, f.Status, f.PaidDate)
	}
	if batch.Len() == 0 {
		return nil
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert entries for ledger %s: %w", ledger.LedgerID, err)
	}
	return nil
}

func (r *PgxLedgerRepository) scanLedgerRow(row pgx.Row) (*domain.StudentFeeRecord, error) {
	ledger := domain.StudentFeeRecord{
		Months:      make(map[int]domain.MonthlyPayment),
		OneTimeFees: make(map[string]domain.OneTimeFee),
	}
	err := row.Scan(
		&ledger.LedgerID,
		&ledger.StudentID,
		&ledger.SchoolID,
		&ledger.Grade,
		&ledger.AcademicYear,
		&ledger.StructureID,
		&ledger.TotalFeeAmount,
		&ledger.TotalPaidAmount,
		&ledger.TotalDueAmount,
		&ledger.Status,
		&ledger.Version,
		&ledger.CreatedAt,
		&ledger.LastUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan ledger: %w", err)
	}
	return &ledger, nil
}

func (r *PgxLedgerRepository) loadEntries(ctx context.Context, ledger *domain.StudentFeeRecord) error {
	monthQuery := `
		SELECT month, due_amount, paid_amount, late_fee, status, due_date, waived
		FROM fee_monthly_payments
		WHERE ledger_id = $1
		ORDER BY month;
	`
	rows, err := r.Pool.Query(ctx, monthQuery, ledger.LedgerID)
	if err != nil {
		return fmt.Errorf("failed to load monthly entries for ledger %s: %w", ledger.LedgerID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var m domain.MonthlyPayment
		if err := rows.Scan(&m.Month, &m.DueAmount, &m.PaidAmount, &m.LateFee, &m.Status, &m.DueDate, &m.Waived); err != nil {
			return fmt.Errorf("failed to scan monthly entry: %w", err)
		}
		ledger.Months[m.Month] = m
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating monthly entries: %w", err)
	}

	feeQuery := `
		SELECT fee_type, due_amount, paid_amount, status, paid_date
		FROM fee_one_time_fees
		WHERE ledger_id = $1
		ORDER BY fee_type;
	`
	feeRows, err := r.Pool.Query(ctx, feeQuery, ledger.LedgerID)
	if err != nil {
		return fmt.Errorf("failed to load one-time entries for ledger %s: %w", ledger.LedgerID, err)
	}
	defer feeRows.Close()
	for feeRows.Next() {
		var f domain.OneTimeFee
		if err := feeRows.Scan(&f.FeeType, &f.DueAmount, &f.PaidAmount, &f.Status, &f.PaidDate); err != nil {
			return fmt.Errorf("failed to scan one-time entry: %w", err)
		}
		ledger.OneTimeFees[f.FeeType] = f
	}
	if err := feeRows.Err(); err != nil {
		return fmt.Errorf("error iterating one-time entries: %w", err)
	}
	return nil
}
