package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vidyakosh/fee_ledger_app/internal/apperrors"
	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
	portsrepo "github.com/vidyakosh/fee_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/vidyakosh/fee_ledger_app/internal/core/ports/services"
	"github.com/vidyakosh/fee_ledger_app/internal/dto"
)

// topCollectorsLimit caps the accountant ranking in a report.
const topCollectorsLimit = 10

// reportingService assembles read-only financial reports from the
// aggregation queries. No locks are taken; the numbers are a snapshot.
type reportingService struct {
	BaseService
	reportingRepo portsrepo.ReportingRepository
	now           func() time.Time
}

// ReportingServiceOption is a functional option for configuring the service.
type ReportingServiceOption func(*reportingService)

// WithReportingClock overrides the wall clock, for deterministic tests.
func WithReportingClock(now func() time.Time) ReportingServiceOption {
	return func(s *reportingService) {
		s.now = now
	}
}

// NewReportingService creates a new reporting service.
func NewReportingService(reportingRepo portsrepo.ReportingRepository, options ...ReportingServiceOption) portssvc.ReportingSvcFacade {
	svc := &reportingService{
		reportingRepo: reportingRepo,
		now:           time.Now,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.ReportingSvcFacade = (*reportingService)(nil)

// GetFinancialReport aggregates collections over the requested window.
func (s *reportingService) GetFinancialReport(ctx context.Context, schoolID string, req dto.FinancialReportRequest) (*dto.FinancialReportResponse, error) {
	reportType, start, end, err := s.resolveWindow(req)
	if err != nil {
		return nil, err
	}

	byMethod, err := s.reportingRepo.GetPaymentMethodBreakdown(ctx, schoolID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate by payment method: %w", err)
	}
	daily, err := s.reportingRepo.GetDailyCollections(ctx, schoolID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily collections: %w", err)
	}
	byGrade, err := s.reportingRepo.GetCollectionsByGrade(ctx, schoolID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate by grade: %w", err)
	}
	top, err := s.reportingRepo.GetTopCollectors(ctx, schoolID, start, end, topCollectorsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank collectors: %w", err)
	}
	outstanding, err := s.reportingRepo.GetOutstandingSummary(ctx, schoolID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize outstanding dues: %w", err)
	}

	totalCollected := decimal.Zero
	transactionCount := 0
	for _, m := range byMethod {
		totalCollected = totalCollected.Add(m.Amount)
		transactionCount += m.Count
	}

	report := &domain.FinancialReport{
		ReportType:       reportType,
		StartDate:        start,
		EndDate:          end,
		TotalCollected:   totalCollected,
		TransactionCount: transactionCount,
		Outstanding:      *outstanding,
		ByPaymentMethod:  byMethod,
		DailyBreakdown:   daily,
		ByGrade:          byGrade,
		TopAccountants:   top,
	}
	resp := dto.ToFinancialReportResponse(report)
	return &resp, nil
}

// resolveWindow turns the request into a concrete [start, end] interval.
// Explicit dates win over the report type's implied window.
func (s *reportingService) resolveWindow(req dto.FinancialReportRequest) (domain.ReportType, time.Time, time.Time, error) {
	now := s.now().UTC()

	if req.StartDate != nil || req.EndDate != nil {
		if req.StartDate == nil || req.EndDate == nil {
			return "", time.Time{}, time.Time{}, fmt.Errorf("%w: startDate and endDate must be provided together", apperrors.ErrValidation)
		}
		start := req.StartDate.UTC()
		// End is inclusive of the named day.
		end := req.EndDate.UTC().AddDate(0, 0, 1).Add(-time.Nanosecond)
		if end.Before(start) {
			return "", time.Time{}, time.Time{}, fmt.Errorf("%w: endDate is before startDate", apperrors.ErrValidation)
		}
		reportType := domain.ReportType(req.ReportType)
		if reportType == "" {
			reportType = domain.ReportDaily
		}
		return reportType, start, end, nil
	}

	reportType := domain.ReportType(req.ReportType)
	if reportType == "" {
		reportType = domain.ReportDaily
	}
	switch reportType {
	case domain.ReportDaily:
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return reportType, midnight, now, nil
	case domain.ReportWeekly:
		return reportType, now.AddDate(0, 0, -7), now, nil
	case domain.ReportMonthly:
		return reportType, now.AddDate(0, -1, 0), now, nil
	case domain.ReportYearly:
		return reportType, now.AddDate(-1, 0, 0), now, nil
	default:
		return "", time.Time{}, time.Time{}, fmt.Errorf("%w: unknown report type %q", apperrors.ErrValidation, req.ReportType)
	}
}
