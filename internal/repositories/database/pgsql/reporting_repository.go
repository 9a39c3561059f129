package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
	portsrepo "github.com/vidyakosh/fee_ledger_app/internal/core/ports/repositories"
)

type PgxReportingRepository struct {
	BaseRepository
}

// newPgxReportingRepository creates the read-only aggregation repository.
func newPgxReportingRepository(pool *pgxpool.Pool) portsrepo.ReportingRepository {
	return &PgxReportingRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ReportingRepository = (*PgxReportingRepository)(nil)

// GetPaymentMethodBreakdown groups collections by payment method.
func (r *PgxReportingRepository) GetPaymentMethodBreakdown(ctx context.Context, schoolID string, start, end time.Time) ([]domain.PaymentMethodTotal, error) {
	query := `
		SELECT payment_method, COUNT(*), COALESCE(SUM(amount), 0)
		FROM fee_transactions
		WHERE school_id = $1 AND created_at BETWEEN $2 AND $3
		GROUP BY payment_method
		ORDER BY SUM(amount) DESC;
	`
	rows, err := r.Pool.Query(ctx, query, schoolID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate by payment method: %w", err)
	}
	defer rows.Close()

	var totals []domain.PaymentMethodTotal
	for rows.Next() {
		var t domain.PaymentMethodTotal
		if err := rows.Scan(&t.PaymentMethod, &t.Count, &t.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan payment method total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment method totals: %w", err)
	}
	return totals, nil
}

// GetDailyCollections groups collections by calendar day.
func (r *PgxReportingRepository) GetDailyCollections(ctx context.Context, schoolID string, start, end time.Time) ([]domain.DailyCollectionTotal, error) {
	query := `
		SELECT DATE_TRUNC('day', created_at) AS day, COUNT(*), COALESCE(SUM(amount), 0)
		FROM fee_transactions
		WHERE school_id = $1 AND created_at BETWEEN $2 AND $3
		GROUP BY day
		ORDER BY day;
	`
	rows, err := r.Pool.Query(ctx, query, schoolID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily collections: %w", err)
	}
	defer rows.Close()

	var totals []domain.DailyCollectionTotal
	for rows.Next() {
		var t domain.DailyCollectionTotal
		if err := rows.Scan(&t.Date, &t.Count, &t.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan daily total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily totals: %w", err)
	}
	return totals, nil
}

// GetCollectionsByGrade groups collections by the ledger's grade.
func (r *PgxReportingRepository) GetCollectionsByGrade(ctx context.Context, schoolID string, start, end time.Time) ([]domain.GradeCollectionTotal, error) {
	query := `
		SELECT l.grade, COUNT(*), COALESCE(SUM(t.amount), 0)
		FROM fee_transactions t
		JOIN student_fee_records l ON l.ledger_id = t.ledger_id
		WHERE t.school_id = $1 AND t.created_at BETWEEN $2 AND $3
		GROUP BY l.grade
		ORDER BY l.grade;
	`
	rows, err := r.Pool.Query(ctx, query, schoolID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate by grade: %w", err)
	}
	defer rows.Close()

	var totals []domain.GradeCollectionTotal
	for rows.Next() {
		var t domain.GradeCollectionTotal
		if err := rows.Scan(&t.Grade, &t.Count, &t.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan grade total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating grade totals: %w", err)
	}
	return totals, nil
}

// GetTopCollectors ranks accountants by amount collected.
func (r *PgxReportingRepository) GetTopCollectors(ctx context.Context, schoolID string, start, end time.Time, limit int) ([]domain.CollectorTotal, error) {
	query := `
		SELECT collected_by, COUNT(*), COALESCE(SUM(amount), 0)
		FROM fee_transactions
		WHERE school_id = $1 AND created_at BETWEEN $2 AND $3
		GROUP BY collected_by
		ORDER BY SUM(amount) DESC
		LIMIT $4;
	`
	rows, err := r.Pool.Query(ctx, query, schoolID, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank collectors: %w", err)
	}
	defer rows.Close()

	var totals []domain.CollectorTotal
	for rows.Next() {
		var t domain.CollectorTotal
		if err := rows.Scan(&t.CollectedBy, &t.Count, &t.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan collector total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collector totals: %w", err)
	}
	return totals, nil
}

// GetOutstandingSummary sums pending dues and counts defaulters.
func (r *PgxReportingRepository) GetOutstandingSummary(ctx context.Context, schoolID string) (*domain.OutstandingSummary, error) {
	query := `
		SELECT
			COALESCE(SUM(total_due_amount), 0),
			COUNT(*) FILTER (WHERE total_due_amount > 0),
			(SELECT COUNT(*) FROM fee_defaulters d WHERE d.school_id = $1)
		FROM student_fee_records
		WHERE school_id = $1;
	`
	var s domain.OutstandingSummary
	if err := r.Pool.QueryRow(ctx, query, schoolID).Scan(&s.TotalDueAmount, &s.LedgerCount, &s.DefaulterCount); err != nil {
		return nil, fmt.Errorf("failed to summarize outstanding dues: %w", err)
	}
	return &s, nil
}
