package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidyakosh/fee_ledger_app/internal/apperrors"
	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
	portsrepo "github.com/vidyakosh/fee_ledger_app/internal/core/ports/repositories"
)

type PgxDefaulterRepository struct {
	BaseRepository
}

// newPgxDefaulterRepository creates a new repository for the defaulters index.
func newPgxDefaulterRepository(pool *pgxpool.Pool) portsrepo.DefaulterRepositoryFacade {
	return &PgxDefaulterRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.DefaulterRepositoryFacade = (*PgxDefaulterRepository)(nil)

const defaulterColumns = `
	ledger_id, student_id, school_id, grade, academic_year, total_due_amount,
	overdue_months, first_due_date, days_since_first_due,
	notification_count, last_reminder_date, synced_at
`

// UpsertDefaulters inserts or updates index rows keyed by ledger ID. The
// reminder fields are deliberately absent from the update set; the sync job
// must never clobber them.
func (r *PgxDefaulterRepository) UpsertDefaulters(ctx context.Context, defaulters []domain.FeeDefaulter) error {
	query := `
		INSERT INTO fee_defaulters (
			ledger_id, student_id, school_id, grade, academic_year, total_due_amount,
			overdue_months, first_due_date, days_since_first_due, synced_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (ledger_id) DO UPDATE SET
			grade = EXCLUDED.grade,
			total_due_amount = EXCLUDED.total_due_amount,
			overdue_months = EXCLUDED.overdue_months,
			first_due_date = EXCLUDED.first_due_date,
			days_since_first_due = EXCLUDED.days_since_first_due,
			synced_at = EXCLUDED.synced_at;
	`
	batch := &pgx.Batch{}
	for _, d := range defaulters {
		batch.Queue(query,
			d.LedgerID,
			d.StudentID,
			d.SchoolID,
			d.Grade,
			d.AcademicYear,
			d.TotalDueAmount,
			toInt32Slice(d.OverdueMonths),
			d.FirstDueDate,
			d.DaysSinceFirstDue,
			d.SyncedAt,
		)
	}
	br := r.Pool.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to upsert defaulters: %w", err)
	}
	return nil
}

// DeleteNotIn removes every row for the school whose ledger ID was not
// reaffirmed by the current sync run.
func (r *PgxDefaulterRepository) DeleteNotIn(ctx context.Context, schoolID string, keep []string) (int64, error) {
	query := `
		DELETE FROM fee_defaulters
		WHERE school_id = $1 AND ledger_id != ALL($2);
	`
	if keep == nil {
		keep = []string{}
	}
	tag, err := r.Pool.Exec(ctx, query, schoolID, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to evict stale defaulters for school %s: %w", schoolID, err)
	}
	return tag.RowsAffected(), nil
}

// MarkReminderSent sets the reminder fields for one defaulter and returns
// the updated row.
func (r *PgxDefaulterRepository) MarkReminderSent(ctx context.Context, schoolID, studentID string, sentAt time.Time) (*domain.FeeDefaulter, error) {
	query := `
		UPDATE fee_defaulters SET
			last_reminder_date = $1,
			notification_count = notification_count + 1
		WHERE school_id = $2 AND student_id = $3
		RETURNING ` + defaulterColumns + `;
	`
	d, err := scanDefaulter(r.Pool.QueryRow(ctx, query, sentAt, schoolID, studentID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: student %s is not in the defaulters index", apperrors.ErrNotFound, studentID)
		}
		return nil, err
	}
	return d, nil
}

// ListCritical lists defaulters sorted worst-first, optionally filtered.
func (r *PgxDefaulterRepository) ListCritical(ctx context.Context, schoolID string, filter portsrepo.CriticalDefaulterFilter) ([]domain.FeeDefaulter, error) {
	query := `
		SELECT ` + defaulterColumns + `
		FROM fee_defaulters
		WHERE school_id = $1
	`
	args := []any{schoolID}
	if filter.MinAmount != nil {
		args = append(args, *filter.MinAmount)
		query += fmt.Sprintf(" AND total_due_amount >= $%d", len(args))
	}
	if filter.MinDays != nil {
		args = append(args, *filter.MinDays)
		query += fmt.Sprintf(" AND days_since_first_due >= $%d", len(args))
	}
	query += " ORDER BY days_since_first_due DESC, total_due_amount DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	query += ";"

	return r.listDefaulters(ctx, query, args...)
}

// ListNeedingReminders lists defaulters whose last reminder is unset or older
// than the cutoff.
func (r *PgxDefaulterRepository) ListNeedingReminders(ctx context.Context, schoolID string, cutoff time.Time) ([]domain.FeeDefaulter, error) {
	query := `
		SELECT ` + defaulterColumns + `
		FROM fee_defaulters
		WHERE school_id = $1 AND (last_reminder_date IS NULL OR last_reminder_date <= $2)
		ORDER BY days_since_first_due DESC, total_due_amount DESC;
	`
	return r.listDefaulters(ctx, query, schoolID, cutoff)
}

// ListBySchool lists the whole index for a school.
func (r *PgxDefaulterRepository) ListBySchool(ctx context.Context, schoolID string) ([]domain.FeeDefaulter, error) {
	query := `
		SELECT ` + defaulterColumns + `
		FROM fee_defaulters
		WHERE school_id = $1
		ORDER BY days_since_first_due DESC, total_due_amount DESC;
	`
	return r.listDefaulters(ctx, query, schoolID)
}

// SummarizeByGrade aggregates the index per grade; grade narrows to one.
func (r *PgxDefaulterRepository) SummarizeByGrade(ctx context.Context, schoolID string, grade *string) ([]domain.GradeDefaulterSummary, error) {
	query := `
		SELECT grade, COUNT(*), COALESCE(SUM(total_due_amount), 0), COALESCE(AVG(days_since_first_due), 0)
		FROM fee_defaulters
		WHERE school_id = $1
	`
	args := []any{schoolID}
	if grade != nil {
		args = append(args, *grade)
		query += fmt.Sprintf(" AND grade = $%d", len(args))
	}
	query += " GROUP BY grade ORDER BY grade;"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize defaulters by grade: %w", err)
	}
	defer rows.Close()

	var summaries []domain.GradeDefaulterSummary
	for rows.Next() {
		var s domain.GradeDefaulterSummary
		if err := rows.Scan(&s.Grade, &s.Count, &s.TotalDueAmount, &s.AvgDaysSinceFirstDue); err != nil {
			return nil, fmt.Errorf("failed to scan grade summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating grade summaries: %w", err)
	}
	return summaries, nil
}

func (r *PgxDefaulterRepository) listDefaulters(ctx context.Context, query string, args ...any) ([]domain.FeeDefaulter, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list defaulters: %w", err)
	}
	defer rows.Close()

	var defaulters []domain.FeeDefaulter
	for rows.Next() {
		d, err := scanDefaulter(rows)
		if err != nil {
			return nil, err
		}
		defaulters = append(defaulters, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating defaulters: %w", err)
	}
	return defaulters, nil
}

func scanDefaulter(row pgx.Row) (*domain.FeeDefaulter, error) {
	var d domain.FeeDefaulter
	var overdueMonths []int32
	err := row.Scan(
		&d.LedgerID,
		&d.StudentID,
		&d.SchoolID,
		&d.Grade,
		&d.AcademicYear,
		&d.TotalDueAmount,
		&overdueMonths,
		&d.FirstDueDate,
		&d.DaysSinceFirstDue,
		&d.NotificationCount,
		&d.LastReminderDate,
		&d.SyncedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan defaulter: %w", err)
	}
	d.OverdueMonths = toIntSlice(overdueMonths)
	return &d, nil
}

func toInt32Slice(in []int) []int32 {
	out := make([]int32, len(in))
	for i, v := range in {
		out[i] = int32(v)
	}
	return out
}

func toIntSlice(in []int32) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}
