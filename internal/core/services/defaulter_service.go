package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
	portsrepo "github.com/vidyakosh/fee_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/vidyakosh/fee_ledger_app/internal/core/ports/services"
	"github.com/vidyakosh/fee_ledger_app/internal/dto"
)

// defaulterService owns the materialized defaulters index. The index is a
// cache over ledger state: sync recomputes it wholesale for a school, so a
// crash mid-run is healed by the next run.
type defaulterService struct {
	BaseService
	ledgerRepo    portsrepo.LedgerRepositoryFacade
	defaulterRepo portsrepo.DefaulterRepositoryFacade
	now           func() time.Time

	// schoolLocks serializes sync runs per school; concurrent runs for the
	// same school would race on the upsert-then-evict pair.
	mu          sync.Mutex
	schoolLocks map[string]*sync.Mutex
}

// DefaulterServiceOption is a functional option for configuring the service.
type DefaulterServiceOption func(*defaulterService)

// WithDefaulterClock overrides the wall clock, for deterministic tests.
func WithDefaulterClock(now func() time.Time) DefaulterServiceOption {
	return func(s *defaulterService) {
		s.now = now
	}
}

// NewDefaulterService creates a new defaulters index service.
func NewDefaulterService(ledgerRepo portsrepo.LedgerRepositoryFacade, defaulterRepo portsrepo.DefaulterRepositoryFacade, options ...DefaulterServiceOption) portssvc.DefaulterSvcFacade {
	svc := &defaulterService{
		ledgerRepo:    ledgerRepo,
		defaulterRepo: defaulterRepo,
		now:           time.Now,
		schoolLocks:   make(map[string]*sync.Mutex),
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.DefaulterSvcFacade = (*defaulterService)(nil)

func (s *defaulterService) lockForSchool(schoolID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.schoolLocks[schoolID]
	if !ok {
		lock = &sync.Mutex{}
		s.schoolLocks[schoolID] = lock
	}
	return lock
}

// SyncDefaulters recomputes the defaulters index for one school: every ledger
// with at least one overdue installment past the grace period is upserted,
// and rows not reaffirmed by this run are evicted.
func (s *defaulterService) SyncDefaulters(ctx context.Context, schoolID string, gracePeriodDays int) (*dto.SyncDefaultersResponse, error) {
	lock := s.lockForSchool(schoolID)
	lock.Lock()
	defer lock.Unlock()

	ledgers, err := s.ledgerRepo.ListLedgersBySchool(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledgers for defaulter sync: %w", err)
	}

	now := s.now().UTC()
	cutoff := now.AddDate(0, 0, -gracePeriodDays)

	var defaulters []domain.FeeDefaulter
	keep := make([]string, 0, len(ledgers))
	for i := range ledgers {
		ledger := &ledgers[i]
		if len(ledger.Months) == 0 {
			s.LogWarn(ctx, "Skipping ledger with no monthly schedule during sync",
				slog.String("ledger_id", ledger.LedgerID),
				slog.String("school_id", schoolID))
			continue
		}
		d, isDefaulter := s.computeDefaulter(ledger, now, cutoff)
		if isDefaulter {
			defaulters = append(defaulters, d)
			keep = append(keep, ledger.LedgerID)
		}
	}

	if len(defaulters) > 0 {
		if err := s.defaulterRepo.UpsertDefaulters(ctx, defaulters); err != nil {
			return nil, fmt.Errorf("failed to upsert defaulters: %w", err)
		}
	}
	removed, err := s.defaulterRepo.DeleteNotIn(ctx, schoolID, keep)
	if err != nil {
		return nil, fmt.Errorf("failed to evict stale defaulters: %w", err)
	}

	s.LogInfo(ctx, "Defaulter sync completed",
		slog.String("school_id", schoolID),
		slog.Int("synced", len(defaulters)),
		slog.Int64("removed", removed),
		slog.Int("grace_period_days", gracePeriodDays))

	return &dto.SyncDefaultersResponse{Synced: len(defaulters), Removed: int(removed)}, nil
}

// SyncAllSchools runs a sync for every school with ledgers. A failing school
// is logged and skipped so one bad school does not starve the rest.
func (s *defaulterService) SyncAllSchools(ctx context.Context, gracePeriodDays int) error {
	schoolIDs, err := s.ledgerRepo.ListSchoolIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list schools: %w", err)
	}
	var failures int
	for _, schoolID := range schoolIDs {
		if _, err := s.SyncDefaulters(ctx, schoolID, gracePeriodDays); err != nil {
			failures++
			s.LogError(ctx, err, "Defaulter sync failed for school", slog.String("school_id", schoolID))
		}
	}
	if failures > 0 {
		return fmt.Errorf("defaulter sync failed for %d of %d schools", failures, len(schoolIDs))
	}
	return nil
}

// computeDefaulter derives a defaulters-index row from ledger state. A month
// counts as overdue when it is unsettled and its due date is before the
// grace-period cutoff; it owes its unpaid balance plus any accrued late fee.
// Waived months never count.
func (s *defaulterService) computeDefaulter(ledger *domain.StudentFeeRecord, now, cutoff time.Time) (domain.FeeDefaulter, bool) {
	var overdueMonths []int
	totalDue := decimal.Zero
	var firstDue time.Time

	for _, m := range ledger.MonthsInOrder() {
		if !m.IsUnsettled() || !m.DueDate.Before(cutoff) {
			continue
		}
		overdueMonths = append(overdueMonths, m.Month)
		totalDue = totalDue.Add(m.Remaining().Add(m.LateFee))
		if firstDue.IsZero() || m.DueDate.Before(firstDue) {
			firstDue = m.DueDate
		}
	}
	if len(overdueMonths) == 0 {
		return domain.FeeDefaulter{}, false
	}

	return domain.FeeDefaulter{
		LedgerID:          ledger.LedgerID,
		StudentID:         ledger.StudentID,
		SchoolID:          ledger.SchoolID,
		Grade:             ledger.Grade,
		AcademicYear:      ledger.AcademicYear,
		TotalDueAmount:    totalDue,
		OverdueMonths:     overdueMonths,
		FirstDueDate:      firstDue,
		DaysSinceFirstDue: int(now.Sub(firstDue).Hours() / 24),
		SyncedAt:          now,
	}, true
}

// defaultCriticalLimit bounds the critical defaulters listing when the
// caller does not ask for a specific page size.
const defaultCriticalLimit = 50

// GetCriticalDefaulters lists the worst arrears positions for a school.
func (s *defaulterService) GetCriticalDefaulters(ctx context.Context, schoolID string, req dto.CriticalDefaultersRequest) ([]domain.FeeDefaulter, error) {
	filter := portsrepo.CriticalDefaulterFilter{
		MinAmount: req.MinAmount,
		MinDays:   req.MinDays,
		Limit:     req.Limit,
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultCriticalLimit
	}
	return s.defaulterRepo.ListCritical(ctx, schoolID, filter)
}

// GetDefaultersByGrade aggregates the index per grade.
func (s *defaulterService) GetDefaultersByGrade(ctx context.Context, schoolID string, grade *string) ([]domain.GradeDefaulterSummary, error) {
	return s.defaulterRepo.SummarizeByGrade(ctx, schoolID, grade)
}

// GetDefaultersNeedingReminders lists defaulters whose last reminder is unset
// or older than the reminder interval.
func (s *defaulterService) GetDefaultersNeedingReminders(ctx context.Context, schoolID string, reminderIntervalDays int) ([]domain.FeeDefaulter, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -reminderIntervalDays)
	return s.defaulterRepo.ListNeedingReminders(ctx, schoolID, cutoff)
}

// MarkReminderSent records a reminder against one defaulter.
func (s *defaulterService) MarkReminderSent(ctx context.Context, schoolID, studentID string) (*domain.FeeDefaulter, error) {
	defaulter, err := s.defaulterRepo.MarkReminderSent(ctx, schoolID, studentID, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Reminder recorded",
		slog.String("school_id", schoolID),
		slog.String("student_id", studentID),
		slog.Int("notification_count", defaulter.NotificationCount))
	return defaulter, nil
}
