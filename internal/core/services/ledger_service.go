package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vidyakosh/fee_ledger_app/internal/apperrors"
	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
	portsrepo "github.com/vidyakosh/fee_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/vidyakosh/fee_ledger_app/internal/core/ports/services"
	"github.com/vidyakosh/fee_ledger_app/internal/dto"
)

const recentTransactionLimit = 10

// migrationAttempts bounds the optimistic retry loop when a concurrent
// payment bumps the ledger version mid-migration.
const migrationAttempts = 3

// ledgerService owns ledger lifecycle: lazy creation from the catalog,
// in-place migration to newer structure versions, and the fee-status view.
type ledgerService struct {
	BaseService
	structureRepo portsrepo.FeeStructureRepositoryFacade
	ledgerRepo    portsrepo.LedgerRepositoryFacade
	txnRepo       portsrepo.TransactionRepositoryFacade
	now           func() time.Time
}

// LedgerServiceOption is a functional option for configuring the service.
type LedgerServiceOption func(*ledgerService)

// WithLedgerClock overrides the wall clock, for deterministic tests.
func WithLedgerClock(now func() time.Time) LedgerServiceOption {
	return func(s *ledgerService) {
		s.now = now
	}
}

// NewLedgerService creates a new ledger lifecycle service.
func NewLedgerService(
	structureRepo portsrepo.FeeStructureRepositoryFacade,
	ledgerRepo portsrepo.LedgerRepositoryFacade,
	txnRepo portsrepo.TransactionRepositoryFacade,
	options ...LedgerServiceOption,
) portssvc.LedgerSvcFacade {
	svc := &ledgerService{
		structureRepo: structureRepo,
		ledgerRepo:    ledgerRepo,
		txnRepo:       txnRepo,
		now:           time.Now,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// GetFeeStatus returns the fee-status view, lazily creating or migrating the
// underlying ledger first.
func (s *ledgerService) GetFeeStatus(ctx context.Context, req dto.FeeStatusRequest) (*dto.FeeStatusResponse, error) {
	ledger, err := s.EnsureLedger(ctx, req.SchoolID, req.StudentID, req.Grade, req.AcademicYear)
	if err != nil {
		return nil, err
	}

	var upcoming *dto.MonthlyPaymentResponse
	for _, m := range ledger.MonthsInOrder() {
		if m.IsUnsettled() {
			resp := dto.ToMonthlyPaymentResponse(m)
			upcoming = &resp
			break
		}
	}

	recent, err := s.txnRepo.ListRecentByLedger(ctx, ledger.LedgerID, recentTransactionLimit)
	if err != nil {
		s.LogError(ctx, err, "Failed to fetch recent transactions", slog.String("ledger_id", ledger.LedgerID))
		return nil, fmt.Errorf("failed to fetch recent transactions: %w", err)
	}
	recentResponses := make([]dto.TransactionResponse, len(recent))
	for i, t := range recent {
		recentResponses[i] = dto.ToTransactionResponse(t)
	}

	return &dto.FeeStatusResponse{
		StudentID:          ledger.StudentID,
		AcademicYear:       ledger.AcademicYear,
		Ledger:             dto.ToLedgerResponse(ledger),
		UpcomingDue:        upcoming,
		RecentTransactions: recentResponses,
	}, nil
}

// EnsureLedger returns the ledger for (student, academicYear), creating it
// from the latest active structure when absent and migrating it in place when
// the catalog has moved on to a newer version.
func (s *ledgerService) EnsureLedger(ctx context.Context, schoolID, studentID, grade, academicYear string) (*domain.StudentFeeRecord, error) {
	if academicYear == "" {
		academicYear = domain.CurrentAcademicYear(s.now())
	}

	ledger, err := s.ledgerRepo.FindLedger(ctx, schoolID, studentID, academicYear)
	if errors.Is(err, apperrors.ErrNotFound) {
		return s.createLedger(ctx, schoolID, studentID, grade, academicYear)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger for student %s: %w", studentID, err)
	}

	return s.migrateIfStale(ctx, ledger)
}

// createLedger opens a fresh ledger from the latest active structure.
// A missing structure is an administrative error, not a default-to-zero
// condition, so it surfaces as NotFound.
func (s *ledgerService) createLedger(ctx context.Context, schoolID, studentID, grade, academicYear string) (*domain.StudentFeeRecord, error) {
	if grade == "" {
		return nil, fmt.Errorf("%w: grade is required to open a ledger", apperrors.ErrValidation)
	}

	structure, err := s.structureRepo.FindLatestActive(ctx, schoolID, grade, academicYear)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: no active fee structure for school %s grade %s year %s", apperrors.ErrNotFound, schoolID, grade, academicYear)
		}
		return nil, fmt.Errorf("failed to load fee structure: %w", err)
	}

	months, err := generateSchedule(*structure, academicYear)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	oneTimeFees := make(map[string]domain.OneTimeFee, len(structure.OneTimeComponents))
	for _, c := range structure.OneTimeComponents {
		oneTimeFees[c.FeeType] = domain.OneTimeFee{
			FeeType:    c.FeeType,
			DueAmount:  c.Amount,
			PaidAmount: decimal.Zero,
			Status:     domain.PaymentPending,
		}
	}

	now := s.now().UTC()
	ledger := domain.StudentFeeRecord{
		LedgerID:       uuid.NewString(),
		StudentID:      studentID,
		SchoolID:       schoolID,
		Grade:          grade,
		AcademicYear:   academicYear,
		StructureID:    structure.StructureID,
		TotalFeeAmount: structure.TotalFeeAmount(),
		Months:         months,
		OneTimeFees:    oneTimeFees,
		Version:        1,
		CreatedAt:      now,
		LastUpdatedAt:  now,
	}
	ledger.RecalculateTotals()

	if err := s.ledgerRepo.SaveLedger(ctx, ledger); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			// Concurrent first access created it; use the winner.
			return s.ledgerRepo.FindLedger(ctx, schoolID, studentID, academicYear)
		}
		s.LogError(ctx, err, "Failed to save new ledger", slog.String("student_id", studentID), slog.String("school_id", schoolID))
		return nil, fmt.Errorf("failed to save ledger: %w", err)
	}

	s.LogInfo(ctx, "Ledger created",
		slog.String("ledger_id", ledger.LedgerID),
		slog.String("student_id", studentID),
		slog.String("academic_year", academicYear))
	return &ledger, nil
}

// migrateIfStale migrates the ledger when the latest active structure for its
// grade/year differs from the one it references. The migration is
// non-destructive and idempotent.
func (s *ledgerService) migrateIfStale(ctx context.Context, ledger *domain.StudentFeeRecord) (*domain.StudentFeeRecord, error) {
	for attempt := 0; attempt < migrationAttempts; attempt++ {
		structure, err := s.structureRepo.FindLatestActive(ctx, ledger.SchoolID, ledger.Grade, ledger.AcademicYear)
		if errors.Is(err, apperrors.ErrNotFound) {
			// Catalog withdrew all versions; the ledger stays governed by
			// the one it was built from.
			return ledger, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load fee structure: %w", err)
		}
		if structure.StructureID == ledger.StructureID {
			return ledger, nil
		}

		migrated, err := migrateLedger(ledger, *structure, s.now().UTC())
		if err != nil {
			return nil, fmt.Errorf("failed to migrate ledger %s: %w", ledger.LedgerID, err)
		}

		err = s.ledgerRepo.ReplaceLedger(ctx, *migrated, ledger.Version)
		if err == nil {
			s.LogInfo(ctx, "Ledger migrated to new fee structure",
				slog.String("ledger_id", ledger.LedgerID),
				slog.String("structure_id", structure.StructureID))
			return migrated, nil
		}
		if !errors.Is(err, apperrors.ErrConflict) {
			s.LogError(ctx, err, "Failed to migrate ledger", slog.String("ledger_id", ledger.LedgerID))
			return nil, fmt.Errorf("failed to migrate ledger: %w", err)
		}

		// Lost a race against a concurrent payment; reload and retry.
		ledger, err = s.ledgerRepo.FindLedger(ctx, ledger.SchoolID, ledger.StudentID, ledger.AcademicYear)
		if err != nil {
			return nil, fmt.Errorf("failed to reload ledger after migration conflict: %w", err)
		}
	}
	return nil, fmt.Errorf("%w: ledger migration kept losing version races", apperrors.ErrConflict)
}

// generateSchedule produces the 12 monthly installments for an academic
// year. Month 1 is the academic epoch month (April); due dates roll into the
// next calendar year once the month index wraps past December. A due day
// beyond a month's length clamps to its last day.
func generateSchedule(structure domain.FeeStructure, academicYear string) (map[int]domain.MonthlyPayment, error) {
	startYear, err := domain.ParseAcademicYear(academicYear)
	if err != nil {
		return nil, err
	}

	months := make(map[int]domain.MonthlyPayment, domain.MonthsPerYear)
	for i := 0; i < domain.MonthsPerYear; i++ {
		monthIndex := (int(domain.AcademicYearStartMonth) - 1 + i) % 12
		calMonth := time.Month(monthIndex + 1)
		year := startYear
		if calMonth < domain.AcademicYearStartMonth {
			year++
		}

		day := structure.DueDay
		if last := daysIn(year, calMonth); day > last {
			day = last
		}

		months[i+1] = domain.MonthlyPayment{
			Month:      i + 1,
			DueAmount:  structure.MonthlyAmount,
			PaidAmount: decimal.Zero,
			LateFee:    decimal.Zero,
			Status:     domain.PaymentPending,
			DueDate:    time.Date(year, calMonth, day, 0, 0, 0, 0, time.UTC),
			Waived:     false,
		}
	}
	return months, nil
}

// daysIn returns the number of days in a calendar month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// migrateLedger rebuilds the ledger under a new structure, carrying forward
// completed state: amounts already collected never change retroactively.
func migrateLedger(ledger *domain.StudentFeeRecord, structure domain.FeeStructure, now time.Time) (*domain.StudentFeeRecord, error) {
	months, err := generateSchedule(structure, ledger.AcademicYear)
	if err != nil {
		return nil, err
	}

	for monthNo, old := range ledger.Months {
		entry, ok := months[monthNo]
		if !ok {
			continue
		}
		entry.Waived = old.Waived
		entry.LateFee = old.LateFee
		switch old.Status {
		case domain.PaymentPaid:
			// Keep the amount the money was collected against.
			entry.DueAmount = old.DueAmount
			entry.PaidAmount = old.PaidAmount
			entry.Status = domain.PaymentPaid
		case domain.PaymentPartial:
			entry.PaidAmount = old.PaidAmount
			if entry.PaidAmount.GreaterThanOrEqual(entry.DueAmount) {
				entry.Status = domain.PaymentPaid
			} else {
				entry.Status = domain.PaymentPartial
			}
		}
		months[monthNo] = entry
	}

	oneTimeFees := make(map[string]domain.OneTimeFee, len(structure.OneTimeComponents))
	for _, c := range structure.OneTimeComponents {
		fee := domain.OneTimeFee{
			FeeType:    c.FeeType,
			DueAmount:  c.Amount,
			PaidAmount: decimal.Zero,
			Status:     domain.PaymentPending,
		}
		if old, ok := ledger.OneTimeFees[c.FeeType]; ok {
			switch old.Status {
			case domain.PaymentPaid:
				fee.PaidAmount = fee.DueAmount
				fee.Status = domain.PaymentPaid
				fee.PaidDate = old.PaidDate
			case domain.PaymentPartial:
				fee.PaidAmount = old.PaidAmount
				if fee.PaidAmount.GreaterThanOrEqual(fee.DueAmount) {
					fee.Status = domain.PaymentPaid
					fee.PaidDate = old.PaidDate
				} else {
					fee.Status = domain.PaymentPartial
				}
			}
		}
		oneTimeFees[c.FeeType] = fee
	}
	// Money collected for components the new structure dropped must not
	// vanish from the ledger.
	for feeType, old := range ledger.OneTimeFees {
		if _, ok := oneTimeFees[feeType]; !ok && old.PaidAmount.IsPositive() {
			oneTimeFees[feeType] = old
		}
	}

	migrated := ledger.Clone()
	migrated.StructureID = structure.StructureID
	migrated.TotalFeeAmount = structure.TotalFeeAmount()
	migrated.Months = months
	migrated.OneTimeFees = oneTimeFees
	migrated.LastUpdatedAt = now
	migrated.RecalculateTotals()
	return migrated, nil
}
