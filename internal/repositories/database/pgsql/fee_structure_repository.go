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

type PgxFeeStructureRepository struct {
	BaseRepository
}

// newPgxFeeStructureRepository creates a new repository for the fee structure catalog.
func newPgxFeeStructureRepository(pool *pgxpool.Pool) portsrepo.FeeStructureRepositoryFacade {
	return &PgxFeeStructureRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.FeeStructureRepositoryFacade = (*PgxFeeStructureRepository)(nil)

// SaveStructure inserts a new active version and deactivates prior active
// versions for the same (school, grade, academic year) in one transaction.
func (r *PgxFeeStructureRepository) SaveStructure(ctx context.Context, structure domain.FeeStructure) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	deactivateQuery := `
		UPDATE fee_structures SET is_active = FALSE
		WHERE school_id = $1 AND grade = $2 AND academic_year = $3 AND is_active = TRUE;
	`
	if _, err := tx.Exec(ctx, deactivateQuery, structure.SchoolID, structure.Grade, structure.AcademicYear); err != nil {
		return fmt.Errorf("failed to deactivate prior fee structures: %w", err)
	}

	insertQuery := `
		INSERT INTO fee_structures (structure_id, school_id, grade, academic_year, monthly_amount, due_day, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err = tx.Exec(ctx, insertQuery,
		structure.StructureID,
		structure.SchoolID,
		structure.Grade,
		structure.AcademicYear,
		structure.MonthlyAmount,
		structure.DueDay,
		structure.IsActive,
		structure.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("%w: fee structure %s already exists", apperrors.ErrDuplicate, structure.StructureID)
		}
		return fmt.Errorf("failed to insert fee structure %s: %w", structure.StructureID, err)
	}

	componentQuery := `
		INSERT INTO fee_structure_components (structure_id, fee_type, amount)
		VALUES ($1, $2, $3);
	`
	batch := &pgx.Batch{}
	for _, c := range structure.OneTimeComponents {
		batch.Queue(componentQuery, structure.StructureID, c.FeeType, c.Amount)
	}
	if batch.Len() > 0 {
		br := tx.SendBatch(ctx, batch)
		if err := br.Close(); err != nil {
			return fmt.Errorf("failed to insert components for structure %s: %w", structure.StructureID, err)
		}
	}

	return r.Commit(ctx, tx)
}

// FindLatestActive retrieves the newest active structure for the key.
func (r *PgxFeeStructureRepository) FindLatestActive(ctx context.Context, schoolID, grade, academicYear string) (*domain.FeeStructure, error) {
	query := `
		SELECT structure_id, school_id, grade, academic_year, monthly_amount, due_day, is_active, created_at
		FROM fee_structures
		WHERE school_id = $1 AND grade = $2 AND academic_year = $3 AND is_active = TRUE
		ORDER BY created_at DESC
		LIMIT 1;
	`
	return r.scanStructure(ctx, query, schoolID, grade, academicYear)
}

// FindByID retrieves a structure, active or not, by its ID.
func (r *PgxFeeStructureRepository) FindByID(ctx context.Context, structureID string) (*domain.FeeStructure, error) {
	query := `
		SELECT structure_id, school_id, grade, academic_year, monthly_amount, due_day, is_active, created_at
		FROM fee_structures
		WHERE structure_id = $1;
	`
	return r.scanStructure(ctx, query, structureID)
}

func (r *PgxFeeStructureRepository) scanStructure(ctx context.Context, query string, args ...any) (*domain.FeeStructure, error) {
	var s domain.FeeStructure
	err := r.Pool.QueryRow(ctx, query, args...).Scan(
		&s.StructureID,
		&s.SchoolID,
		&s.Grade,
		&s.AcademicYear,
		&s.MonthlyAmount,
		&s.DueDay,
		&s.IsActive,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find fee structure: %w", err)
	}

	componentQuery := `
		SELECT fee_type, amount
		FROM fee_structure_components
		WHERE structure_id = $1
		ORDER BY fee_type;
	`
	rows, err := r.Pool.Query(ctx, componentQuery, s.StructureID)
	if err != nil {
		return nil, fmt.Errorf("failed to load components for structure %s: %w", s.StructureID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.OneTimeComponent
		if err := rows.Scan(&c.FeeType, &c.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan structure component: %w", err)
		}
		s.OneTimeComponents = append(s.OneTimeComponents, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating structure components: %w", err)
	}
	return &s, nil
}
