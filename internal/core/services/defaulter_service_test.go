package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
	portsrepo "github.com/vidyakosh/fee_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/vidyakosh/fee_ledger_app/internal/core/ports/services"
	"github.com/vidyakosh/fee_ledger_app/internal/core/services"
	"github.com/vidyakosh/fee_ledger_app/internal/dto"
)

type DefaulterServiceTestSuite struct {
	suite.Suite
	ledgerRepo    *MockLedgerRepository
	defaulterRepo *MockDefaulterRepository
	service       portssvc.DefaulterSvcFacade
}

func (s *DefaulterServiceTestSuite) SetupTest() {
	s.ledgerRepo = new(MockLedgerRepository)
	s.defaulterRepo = new(MockDefaulterRepository)
	s.service = services.NewDefaulterService(
		s.ledgerRepo,
		s.defaulterRepo,
		services.WithDefaulterClock(func() time.Time { return fixedNow }),
	)
}

// overdueLedger has months 1 and 2 (April, May) unpaid and long past due at
// the fixed clock.
func (s *DefaulterServiceTestSuite) overdueLedger(ledgerID, studentID string) domain.StudentFeeRecord {
	ledger := existingLedger("structure-1", 2000)
	ledger.LedgerID = ledgerID
	ledger.StudentID = studentID
	for i := 3; i <= 12; i++ {
		m := ledger.Months[i]
		m.PaidAmount = m.DueAmount
		m.Status = domain.PaymentPaid
		ledger.Months[i] = m
	}
	ledger.RecalculateTotals()
	return *ledger
}

// settledLedger has everything paid.
func (s *DefaulterServiceTestSuite) settledLedger(ledgerID, studentID string) domain.StudentFeeRecord {
	ledger := existingLedger("structure-1", 2000)
	ledger.LedgerID = ledgerID
	ledger.StudentID = studentID
	for i := 1; i <= 12; i++ {
		m := ledger.Months[i]
		m.PaidAmount = m.DueAmount
		m.Status = domain.PaymentPaid
		ledger.Months[i] = m
	}
	fee := ledger.OneTimeFees["admission"]
	fee.PaidAmount = fee.DueAmount
	fee.Status = domain.PaymentPaid
	ledger.OneTimeFees["admission"] = fee
	ledger.RecalculateTotals()
	return *ledger
}

func (s *DefaulterServiceTestSuite) TestSyncDefaulters() {
	ctx := context.Background()

	s.ledgerRepo.On("ListLedgersBySchool", ctx, "school-1").
		Return([]domain.StudentFeeRecord{
			s.overdueLedger("ledger-a", "student-a"),
			s.settledLedger("ledger-b", "student-b"),
		}, nil).Once()

	var captured []domain.FeeDefaulter
	s.defaulterRepo.On("UpsertDefaulters", ctx, mock.AnythingOfType("[]domain.FeeDefaulter")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).([]domain.FeeDefaulter)
		}).Return(nil).Once()
	s.defaulterRepo.On("DeleteNotIn", ctx, "school-1", []string{"ledger-a"}).
		Return(int64(1), nil).Once()

	resp, err := s.service.SyncDefaulters(ctx, "school-1", 7)
	s.Require().NoError(err)

	s.Equal(1, resp.Synced)
	s.Equal(1, resp.Removed)

	s.Require().Len(captured, 1)
	d := captured[0]
	s.Equal("ledger-a", d.LedgerID)
	s.Equal("student-a", d.StudentID)
	s.Equal([]int{1, 2}, d.OverdueMonths)
	s.True(d.TotalDueAmount.Equal(decimal.NewFromInt(4000)))
	// First due April 10, fixed clock June 1: 52 days.
	s.Equal(time.Date(2025, time.April, 10, 0, 0, 0, 0, time.UTC), d.FirstDueDate)
	s.Equal(52, d.DaysSinceFirstDue)
	s.Equal(domain.SeverityHigh, d.Severity())

	s.defaulterRepo.AssertExpectations(s.T())
}

func (s *DefaulterServiceTestSuite) TestSyncDefaulters_GracePeriodShieldsRecentDues() {
	ctx := context.Background()

	ledger := existingLedger("structure-1", 2000)
	// Only month 3, due June 10, remains unpaid: in the future at the clock.
	for i := 1; i <= 12; i++ {
		if i == 3 {
			continue
		}
		m := ledger.Months[i]
		m.PaidAmount = m.DueAmount
		m.Status = domain.PaymentPaid
		ledger.Months[i] = m
	}
	ledger.RecalculateTotals()

	s.ledgerRepo.On("ListLedgersBySchool", ctx, "school-1").
		Return([]domain.StudentFeeRecord{*ledger}, nil).Once()
	s.defaulterRepo.On("DeleteNotIn", ctx, "school-1", []string{}).
		Return(int64(0), nil).Once()

	resp, err := s.service.SyncDefaulters(ctx, "school-1", 7)
	s.Require().NoError(err)
	s.Equal(0, resp.Synced)

	s.defaulterRepo.AssertNotCalled(s.T(), "UpsertDefaulters", mock.Anything, mock.Anything)
}

func (s *DefaulterServiceTestSuite) TestSyncDefaulters_LateFeesCountTowardArrears() {
	ctx := context.Background()

	ledger := s.overdueLedger("ledger-a", "student-a")
	m := ledger.Months[1]
	m.PaidAmount = decimal.NewFromInt(200)
	m.Status = domain.PaymentPartial
	m.LateFee = decimal.NewFromInt(100)
	ledger.Months[1] = m

	var captured []domain.FeeDefaulter
	s.ledgerRepo.On("ListLedgersBySchool", ctx, "school-1").
		Return([]domain.StudentFeeRecord{ledger}, nil).Once()
	s.defaulterRepo.On("UpsertDefaulters", ctx, mock.AnythingOfType("[]domain.FeeDefaulter")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).([]domain.FeeDefaulter)
		}).Return(nil).Once()
	s.defaulterRepo.On("DeleteNotIn", ctx, "school-1", []string{"ledger-a"}).
		Return(int64(0), nil).Once()

	_, err := s.service.SyncDefaulters(ctx, "school-1", 7)
	s.Require().NoError(err)

	// Month 1 owes 2000 - 200 + 100 late fee, month 2 owes 2000.
	s.Require().Len(captured, 1)
	s.True(captured[0].TotalDueAmount.Equal(decimal.NewFromInt(3900)),
		"got %s", captured[0].TotalDueAmount)
}

func (s *DefaulterServiceTestSuite) TestSyncDefaulters_WaivedMonthsIgnored() {
	ctx := context.Background()

	ledger := s.overdueLedger("ledger-a", "student-a")
	m := ledger.Months[1]
	m.Waived = true
	ledger.Months[1] = m

	var captured []domain.FeeDefaulter
	s.ledgerRepo.On("ListLedgersBySchool", ctx, "school-1").
		Return([]domain.StudentFeeRecord{ledger}, nil).Once()
	s.defaulterRepo.On("UpsertDefaulters", ctx, mock.AnythingOfType("[]domain.FeeDefaulter")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).([]domain.FeeDefaulter)
		}).Return(nil).Once()
	s.defaulterRepo.On("DeleteNotIn", ctx, "school-1", []string{"ledger-a"}).
		Return(int64(0), nil).Once()

	_, err := s.service.SyncDefaulters(ctx, "school-1", 7)
	s.Require().NoError(err)

	s.Require().Len(captured, 1)
	s.Equal([]int{2}, captured[0].OverdueMonths)
	s.True(captured[0].TotalDueAmount.Equal(decimal.NewFromInt(2000)))
}

func (s *DefaulterServiceTestSuite) TestSyncDefaulters_SkipsMalformedLedger() {
	ctx := context.Background()

	broken := existingLedger("structure-1", 2000)
	broken.LedgerID = "ledger-broken"
	broken.Months = map[int]domain.MonthlyPayment{}

	s.ledgerRepo.On("ListLedgersBySchool", ctx, "school-1").
		Return([]domain.StudentFeeRecord{*broken}, nil).Once()
	s.defaulterRepo.On("DeleteNotIn", ctx, "school-1", []string{}).
		Return(int64(0), nil).Once()

	resp, err := s.service.SyncDefaulters(ctx, "school-1", 7)
	s.Require().NoError(err)
	s.Equal(0, resp.Synced)
}

func (s *DefaulterServiceTestSuite) TestSyncAllSchools() {
	ctx := context.Background()

	s.ledgerRepo.On("ListSchoolIDs", ctx).Return([]string{"school-1", "school-2"}, nil).Once()
	s.ledgerRepo.On("ListLedgersBySchool", ctx, "school-1").
		Return([]domain.StudentFeeRecord{}, nil).Once()
	s.ledgerRepo.On("ListLedgersBySchool", ctx, "school-2").
		Return([]domain.StudentFeeRecord{}, nil).Once()
	s.defaulterRepo.On("DeleteNotIn", ctx, "school-1", []string{}).Return(int64(0), nil).Once()
	s.defaulterRepo.On("DeleteNotIn", ctx, "school-2", []string{}).Return(int64(0), nil).Once()

	err := s.service.SyncAllSchools(ctx, 7)
	s.Require().NoError(err)

	s.ledgerRepo.AssertExpectations(s.T())
	s.defaulterRepo.AssertExpectations(s.T())
}

func (s *DefaulterServiceTestSuite) TestGetDefaultersNeedingReminders() {
	ctx := context.Background()
	cutoff := fixedNow.UTC().AddDate(0, 0, -7)

	s.defaulterRepo.On("ListNeedingReminders", ctx, "school-1", cutoff).
		Return([]domain.FeeDefaulter{{StudentID: "student-a"}}, nil).Once()

	defaulters, err := s.service.GetDefaultersNeedingReminders(ctx, "school-1", 7)
	s.Require().NoError(err)
	s.Len(defaulters, 1)

	s.defaulterRepo.AssertExpectations(s.T())
}

func (s *DefaulterServiceTestSuite) TestMarkReminderSent() {
	ctx := context.Background()

	updated := &domain.FeeDefaulter{StudentID: "student-a", NotificationCount: 3}
	s.defaulterRepo.On("MarkReminderSent", ctx, "school-1", "student-a", fixedNow.UTC()).
		Return(updated, nil).Once()

	defaulter, err := s.service.MarkReminderSent(ctx, "school-1", "student-a")
	s.Require().NoError(err)
	s.Equal(3, defaulter.NotificationCount)
}

func (s *DefaulterServiceTestSuite) TestGetCriticalDefaulters() {
	ctx := context.Background()
	minAmount := decimal.NewFromInt(10000)
	req := dto.CriticalDefaultersRequest{MinAmount: &minAmount, Limit: 5}

	s.defaulterRepo.On("ListCritical", ctx, "school-1", mock.MatchedBy(func(f portsrepo.CriticalDefaulterFilter) bool {
		return f.Limit == 5 && f.MinAmount != nil && f.MinAmount.Equal(minAmount) && f.MinDays == nil
	})).Return([]domain.FeeDefaulter{{StudentID: "student-a"}}, nil).Once()

	defaulters, err := s.service.GetCriticalDefaulters(ctx, "school-1", req)
	s.Require().NoError(err)
	s.Len(defaulters, 1)
}

func (s *DefaulterServiceTestSuite) TestGetCriticalDefaulters_DefaultLimit() {
	ctx := context.Background()

	s.defaulterRepo.On("ListCritical", ctx, "school-1", mock.MatchedBy(func(f portsrepo.CriticalDefaulterFilter) bool {
		return f.Limit == 50
	})).Return([]domain.FeeDefaulter{}, nil).Once()

	_, err := s.service.GetCriticalDefaulters(ctx, "school-1", dto.CriticalDefaultersRequest{})
	s.Require().NoError(err)

	s.defaulterRepo.AssertExpectations(s.T())
}

func TestDefaulterServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DefaulterServiceTestSuite))
}
