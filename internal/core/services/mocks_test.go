package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
	portsrepo "github.com/vidyakosh/fee_ledger_app/internal/core/ports/repositories"
)

// MockFeeStructureRepository is a mock type for the FeeStructureRepositoryFacade interface
type MockFeeStructureRepository struct {
	mock.Mock
}

func (m *MockFeeStructureRepository) FindLatestActive(ctx context.Context, schoolID, grade, academicYear string) (*domain.FeeStructure, error) {
	args := m.Called(ctx, schoolID, grade, academicYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeStructure), args.Error(1)
}

func (m *MockFeeStructureRepository) FindByID(ctx context.Context, structureID string) (*domain.FeeStructure, error) {
	args := m.Called(ctx, structureID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeStructure), args.Error(1)
}

func (m *MockFeeStructureRepository) SaveStructure(ctx context.Context, structure domain.FeeStructure) error {
	args := m.Called(ctx, structure)
	return args.Error(0)
}

// MockLedgerRepository is a mock type for the LedgerRepositoryFacade interface
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) FindLedger(ctx context.Context, schoolID, studentID, academicYear string) (*domain.StudentFeeRecord, error) {
	args := m.Called(ctx, schoolID, studentID, academicYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StudentFeeRecord), args.Error(1)
}

func (m *MockLedgerRepository) ListLedgersBySchool(ctx context.Context, schoolID string) ([]domain.StudentFeeRecord, error) {
	args := m.Called(ctx, schoolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StudentFeeRecord), args.Error(1)
}

func (m *MockLedgerRepository) ListSchoolIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockLedgerRepository) SaveLedger(ctx context.Context, ledger domain.StudentFeeRecord) error {
	args := m.Called(ctx, ledger)
	return args.Error(0)
}

func (m *MockLedgerRepository) ReplaceLedger(ctx context.Context, ledger domain.StudentFeeRecord, expectedVersion int64) error {
	args := m.Called(ctx, ledger, expectedVersion)
	return args.Error(0)
}

func (m *MockLedgerRepository) ApplyPayment(ctx context.Context, ledger domain.StudentFeeRecord, expectedVersion int64, transactions []domain.FeeTransaction) error {
	args := m.Called(ctx, ledger, expectedVersion, transactions)
	return args.Error(0)
}

// MockTransactionRepository is a mock type for the TransactionRepositoryFacade interface
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) ListRecentByLedger(ctx context.Context, ledgerID string, limit int) ([]domain.FeeTransaction, error) {
	args := m.Called(ctx, ledgerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FeeTransaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByTransactionID(ctx context.Context, schoolID, transactionID string) (*domain.FeeTransaction, error) {
	args := m.Called(ctx, schoolID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeTransaction), args.Error(1)
}

// MockDefaulterRepository is a mock type for the DefaulterRepositoryFacade interface
type MockDefaulterRepository struct {
	mock.Mock
}

func (m *MockDefaulterRepository) ListCritical(ctx context.Context, schoolID string, filter portsrepo.CriticalDefaulterFilter) ([]domain.FeeDefaulter, error) {
	args := m.Called(ctx, schoolID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FeeDefaulter), args.Error(1)
}

func (m *MockDefaulterRepository) SummarizeByGrade(ctx context.Context, schoolID string, grade *string) ([]domain.GradeDefaulterSummary, error) {
	args := m.Called(ctx, schoolID, grade)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GradeDefaulterSummary), args.Error(1)
}

func (m *MockDefaulterRepository) ListNeedingReminders(ctx context.Context, schoolID string, cutoff time.Time) ([]domain.FeeDefaulter, error) {
	args := m.Called(ctx, schoolID, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FeeDefaulter), args.Error(1)
}

func (m *MockDefaulterRepository) ListBySchool(ctx context.Context, schoolID string) ([]domain.FeeDefaulter, error) {
	args := m.Called(ctx, schoolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FeeDefaulter), args.Error(1)
}

func (m *MockDefaulterRepository) UpsertDefaulters(ctx context.Context, defaulters []domain.FeeDefaulter) error {
	args := m.Called(ctx, defaulters)
	return args.Error(0)
}

func (m *MockDefaulterRepository) DeleteNotIn(ctx context.Context, schoolID string, keep []string) (int64, error) {
	args := m.Called(ctx, schoolID, keep)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDefaulterRepository) MarkReminderSent(ctx context.Context, schoolID, studentID string, sentAt time.Time) (*domain.FeeDefaulter, error) {
	args := m.Called(ctx, schoolID, studentID, sentAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeDefaulter), args.Error(1)
}

// MockReportingRepository is a mock type for the ReportingRepository interface
type MockReportingRepository struct {
	mock.Mock
}

func (m *MockReportingRepository) GetPaymentMethodBreakdown(ctx context.Context, schoolID string, start, end time.Time) ([]domain.PaymentMethodTotal, error) {
	args := m.Called(ctx, schoolID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PaymentMethodTotal), args.Error(1)
}

func (m *MockReportingRepository) GetDailyCollections(ctx context.Context, schoolID string, start, end time.Time) ([]domain.DailyCollectionTotal, error) {
	args := m.Called(ctx, schoolID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DailyCollectionTotal), args.Error(1)
}

func (m *MockReportingRepository) GetCollectionsByGrade(ctx context.Context, schoolID string, start, end time.Time) ([]domain.GradeCollectionTotal, error) {
	args := m.Called(ctx, schoolID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GradeCollectionTotal), args.Error(1)
}

func (m *MockReportingRepository) GetTopCollectors(ctx context.Context, schoolID string, start, end time.Time, limit int) ([]domain.CollectorTotal, error) {
	args := m.Called(ctx, schoolID, start, end, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CollectorTotal), args.Error(1)
}

func (m *MockReportingRepository) GetOutstandingSummary(ctx context.Context, schoolID string) (*domain.OutstandingSummary, error) {
	args := m.Called(ctx, schoolID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OutstandingSummary), args.Error(1)
}
