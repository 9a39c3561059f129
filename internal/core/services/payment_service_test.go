package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/vidyakosh/fee_ledger_app/internal/apperrors"
	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
	portssvc "github.com/vidyakosh/fee_ledger_app/internal/core/ports/services"
	"github.com/vidyakosh/fee_ledger_app/internal/core/services"
	"github.com/vidyakosh/fee_ledger_app/internal/dto"
)

// fakeLedgerRepo is an in-memory ledger store with the same version-guard
// semantics as the database adapter, so concurrency tests exercise the real
// retry path.
type fakeLedgerRepo struct {
	mu     sync.Mutex
	ledger *domain.StudentFeeRecord
	txns   []domain.FeeTransaction
}

func (f *fakeLedgerRepo) FindLedger(_ context.Context, _, _, _ string) (*domain.StudentFeeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ledger == nil {
		return nil, apperrors.ErrNotFound
	}
	return f.ledger.Clone(), nil
}

func (f *fakeLedgerRepo) ListLedgersBySchool(_ context.Context, _ string) ([]domain.StudentFeeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ledger == nil {
		return nil, nil
	}
	return []domain.StudentFeeRecord{*f.ledger.Clone()}, nil
}

func (f *fakeLedgerRepo) ListSchoolIDs(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ledger == nil {
		return nil, nil
	}
	return []string{f.ledger.SchoolID}, nil
}

func (f *fakeLedgerRepo) SaveLedger(_ context.Context, ledger domain.StudentFeeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ledger != nil {
		return apperrors.ErrDuplicate
	}
	f.ledger = ledger.Clone()
	return nil
}

func (f *fakeLedgerRepo) ReplaceLedger(_ context.Context, ledger domain.StudentFeeRecord, expectedVersion int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ledger == nil || f.ledger.Version != expectedVersion {
		return apperrors.ErrConflict
	}
	stored := ledger.Clone()
	stored.Version = expectedVersion + 1
	f.ledger = stored
	return nil
}

func (f *fakeLedgerRepo) ApplyPayment(_ context.Context, ledger domain.StudentFeeRecord, expectedVersion int64, transactions []domain.FeeTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ledger == nil || f.ledger.Version != expectedVersion {
		return apperrors.ErrConflict
	}
	seen := make(map[string]bool, len(f.txns))
	for _, t := range f.txns {
		seen[t.TransactionID] = true
	}
	for _, t := range transactions {
		if seen[t.TransactionID] {
			return apperrors.ErrDuplicate
		}
	}
	stored := ledger.Clone()
	stored.Version = expectedVersion + 1
	f.ledger = stored
	f.txns = append(f.txns, transactions...)
	return nil
}

type PaymentServiceTestSuite struct {
	suite.Suite
	structureRepo *MockFeeStructureRepository
	txnRepo       *MockTransactionRepository
	ledgerRepo    *fakeLedgerRepo
	service       portssvc.PaymentSvcFacade
}

func (s *PaymentServiceTestSuite) SetupTest() {
	s.structureRepo = new(MockFeeStructureRepository)
	s.txnRepo = new(MockTransactionRepository)
	s.ledgerRepo = &fakeLedgerRepo{}

	clock := func() time.Time { return fixedNow }
	ledgerSvc := services.NewLedgerService(s.structureRepo, s.ledgerRepo, s.txnRepo, services.WithLedgerClock(clock))
	s.service = services.NewPaymentService(ledgerSvc, s.ledgerRepo, services.WithPaymentClock(clock))

	// Ledger is governed by the latest structure, so no migration happens.
	s.structureRepo.On("FindLatestActive", mock.Anything, "school-1", "5", "2025-2026").
		Return(testStructure("structure-1", 2000, 10), nil)

	s.ledgerRepo.ledger = existingLedger("structure-1", 2000)
}

func (s *PaymentServiceTestSuite) collectRequest(month int, amount int64) dto.CollectFeeRequest {
	return dto.CollectFeeRequest{
		SchoolID:      "school-1",
		StudentID:     "student-1",
		CollectedBy:   "accountant-1",
		Grade:         "5",
		AcademicYear:  "2025-2026",
		Month:         month,
		Amount:        decimal.NewFromInt(amount),
		PaymentMethod: "cash",
	}
}

func (s *PaymentServiceTestSuite) TestCollectFee_FirstPaymentSettlesOneTimeFees() {
	ctx := context.Background()

	// 2000 monthly + 500 admission.
	resp, err := s.service.CollectFee(ctx, s.collectRequest(1, 2500))
	s.Require().NoError(err)

	s.True(resp.IsFirstPayment)
	s.True(resp.TotalOneTimeFeeAmount.Equal(decimal.NewFromInt(500)))
	s.Require().Len(resp.OneTimeTransactions, 1)
	s.True(resp.OneTimeTransactions[0].Amount.Equal(decimal.NewFromInt(500)))
	s.Require().NotNil(resp.OneTimeTransactions[0].FeeType)
	s.Equal("admission", *resp.OneTimeTransactions[0].FeeType)

	s.True(resp.Transaction.Amount.Equal(decimal.NewFromInt(2000)))
	s.Require().NotNil(resp.Transaction.Month)
	s.Equal(1, *resp.Transaction.Month)

	stored := s.ledgerRepo.ledger
	s.Equal(domain.PaymentPaid, stored.Months[1].Status)
	s.Equal(domain.PaymentPaid, stored.OneTimeFees["admission"].Status)
	s.True(stored.TotalPaidAmount.Equal(decimal.NewFromInt(2500)))
	s.Equal(int64(2), stored.Version)
}

func (s *PaymentServiceTestSuite) TestCollectFee_FirstPaymentInsufficientForOneTimeFees() {
	ctx := context.Background()

	_, err := s.service.CollectFee(ctx, s.collectRequest(1, 400))
	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrValidation)
	s.Contains(err.Error(), "Insufficient amount")

	// Nothing applied.
	s.True(s.ledgerRepo.ledger.TotalPaidAmount.IsZero())
	s.Equal(int64(1), s.ledgerRepo.ledger.Version)
}

func (s *PaymentServiceTestSuite) TestCollectFee_PartialPaymentWarns() {
	ctx := context.Background()

	// Clear the one-time fee out of band so this is not the first payment.
	fee := s.ledgerRepo.ledger.OneTimeFees["admission"]
	fee.PaidAmount = fee.DueAmount
	fee.Status = domain.PaymentPaid
	s.ledgerRepo.ledger.OneTimeFees["admission"] = fee
	s.ledgerRepo.ledger.RecalculateTotals()

	resp, err := s.service.CollectFee(ctx, s.collectRequest(1, 1400))
	s.Require().NoError(err)

	s.False(resp.IsFirstPayment)
	s.Contains(resp.Warnings, "Partial payment accepted. Remaining: ₹600")
	s.Equal(domain.PaymentPartial, s.ledgerRepo.ledger.Months[1].Status)
	s.True(s.ledgerRepo.ledger.Months[1].PaidAmount.Equal(decimal.NewFromInt(1400)))
}

func (s *PaymentServiceTestSuite) TestCollectFee_OverpaymentWarns() {
	ctx := context.Background()

	resp, err := s.service.CollectFee(ctx, s.collectRequest(1, 3000))
	s.Require().NoError(err)

	s.Require().NotEmpty(resp.Warnings)
	s.Contains(resp.Warnings[0], "Overpayment")
	// The full monthly portion lands on the month.
	s.True(s.ledgerRepo.ledger.Months[1].PaidAmount.Equal(decimal.NewFromInt(2500)))
	s.Equal(domain.PaymentPaid, s.ledgerRepo.ledger.Months[1].Status)
}

func (s *PaymentServiceTestSuite) TestCollectFee_AlreadyPaidMonth() {
	ctx := context.Background()

	_, err := s.service.CollectFee(ctx, s.collectRequest(1, 2500))
	s.Require().NoError(err)

	_, err = s.service.CollectFee(ctx, s.collectRequest(1, 2000))
	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrAlreadySettled)
}

func (s *PaymentServiceTestSuite) TestCollectFee_WaivedMonthRejected() {
	ctx := context.Background()

	m := s.ledgerRepo.ledger.Months[2]
	m.Waived = true
	s.ledgerRepo.ledger.Months[2] = m

	// Month 1 settled first so this is not a first payment.
	_, err := s.service.CollectFee(ctx, s.collectRequest(1, 2500))
	s.Require().NoError(err)

	_, err = s.service.CollectFee(ctx, s.collectRequest(2, 2000))
	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrAlreadySettled)
}

func (s *PaymentServiceTestSuite) TestCollectFee_LedgerInvariantHolds() {
	ctx := context.Background()

	_, err := s.service.CollectFee(ctx, s.collectRequest(1, 2500))
	s.Require().NoError(err)
	_, err = s.service.CollectFee(ctx, s.collectRequest(2, 1000))
	s.Require().NoError(err)

	stored := s.ledgerRepo.ledger
	entrySum := stored.PaidMonthsSum().Add(stored.PaidOneTimeSum())
	s.True(stored.TotalPaidAmount.Equal(entrySum))
	s.True(stored.TotalFeeAmount.Sub(stored.TotalPaidAmount).Equal(stored.TotalDueAmount))

	// One ledger mutation per collection.
	s.Equal(int64(3), stored.Version)
	s.Len(s.ledgerRepo.txns, 3) // monthly + admission, then monthly
}

func (s *PaymentServiceTestSuite) TestCollectFee_ConcurrentPaymentsBothApply() {
	ctx := context.Background()

	// Settle the one-time fee first so both goroutines pay plain months.
	_, err := s.service.CollectFee(ctx, s.collectRequest(1, 2500))
	s.Require().NoError(err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.service.CollectFee(ctx, s.collectRequest(i+2, 2000))
		}(i)
	}
	wg.Wait()

	s.Require().NoError(errs[0])
	s.Require().NoError(errs[1])

	stored := s.ledgerRepo.ledger
	s.Equal(domain.PaymentPaid, stored.Months[2].Status)
	s.Equal(domain.PaymentPaid, stored.Months[3].Status)
	// 2500 + 2000 + 2000, no double application.
	s.True(stored.TotalPaidAmount.Equal(decimal.NewFromInt(6500)))
	s.Equal(int64(4), stored.Version)
}

func (s *PaymentServiceTestSuite) TestCollectFee_ConcurrentSameMonthAppliesOnce() {
	ctx := context.Background()

	// Settle the one-time fee first so both goroutines pay a plain month.
	_, err := s.service.CollectFee(ctx, s.collectRequest(1, 2500))
	s.Require().NoError(err)

	// Both race to settle month 2 in full. The loser's retry re-reads the
	// ledger, sees the month already paid, and is rejected.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.service.CollectFee(ctx, s.collectRequest(2, 2000))
		}(i)
	}
	wg.Wait()

	var succeeded, settled int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, apperrors.ErrAlreadySettled):
			settled++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, succeeded)
	s.Equal(1, settled)

	stored := s.ledgerRepo.ledger
	s.Equal(domain.PaymentPaid, stored.Months[2].Status)
	s.True(stored.Months[2].PaidAmount.Equal(decimal.NewFromInt(2000)))
	// 2500 first payment + one month 2 settlement, not two.
	s.True(stored.TotalPaidAmount.Equal(decimal.NewFromInt(4500)))
	s.Equal(int64(3), stored.Version)
	s.Len(s.ledgerRepo.txns, 3) // monthly + admission, then one monthly
}

func (s *PaymentServiceTestSuite) TestValidatePayment() {
	ctx := context.Background()

	result, err := s.service.ValidatePayment(ctx, dto.ValidatePaymentRequest{
		SchoolID:     "school-1",
		StudentID:    "student-1",
		Grade:        "5",
		AcademicYear: "2025-2026",
		Month:        1,
		Amount:       decimal.NewFromInt(2500),
	})
	s.Require().NoError(err)

	s.True(result.Valid)
	s.True(result.IsFirstPayment)
	s.True(result.MonthlyExpectedAmount.Equal(decimal.NewFromInt(2000)))
	s.True(result.TotalOneTimeFeeAmount.Equal(decimal.NewFromInt(500)))
	s.True(result.ExpectedAmount.Equal(decimal.NewFromInt(2500)))
	s.Len(result.PendingOneTimeFees, 1)
	// Exact match: no overpayment or partial warning, but months 1-2 are
	// already past due at the fixed clock.
	for _, w := range result.Warnings {
		s.NotContains(w, "Overpayment")
		s.NotContains(w, "Partial")
	}
}

func (s *PaymentServiceTestSuite) TestValidatePayment_InvalidMonth() {
	ctx := context.Background()

	result, err := s.service.ValidatePayment(ctx, dto.ValidatePaymentRequest{
		SchoolID:     "school-1",
		StudentID:    "student-1",
		Grade:        "5",
		AcademicYear: "2025-2026",
		Month:        13,
		Amount:       decimal.NewFromInt(2000),
	})
	s.Require().NoError(err)
	s.False(result.Valid)
	s.Require().NotEmpty(result.Errors)
	s.Contains(result.Errors[0], "Invalid month")
}

func (s *PaymentServiceTestSuite) TestValidatePayment_WarnsAboutEarlierUnpaidMonths() {
	ctx := context.Background()

	result, err := s.service.ValidatePayment(ctx, dto.ValidatePaymentRequest{
		SchoolID:     "school-1",
		StudentID:    "student-1",
		Grade:        "5",
		AcademicYear: "2025-2026",
		Month:        3,
		Amount:       decimal.NewFromInt(2500),
	})
	s.Require().NoError(err)
	s.True(result.Valid)

	found := false
	for _, w := range result.Warnings {
		if w == "Earlier unpaid months: 1, 2" {
			found = true
		}
	}
	s.True(found, fmt.Sprintf("warnings: %v", result.Warnings))
}

func (s *PaymentServiceTestSuite) TestCollectOneTimeFee() {
	ctx := context.Background()

	resp, err := s.service.CollectOneTimeFee(ctx, dto.CollectOneTimeFeeRequest{
		SchoolID:      "school-1",
		StudentID:     "student-1",
		CollectedBy:   "accountant-1",
		Grade:         "5",
		AcademicYear:  "2025-2026",
		FeeType:       "admission",
		Amount:        decimal.NewFromInt(200),
		PaymentMethod: "upi",
	})
	s.Require().NoError(err)

	s.Equal("partial", resp.OneTimeFee.Status)
	s.True(resp.OneTimeFee.PaidAmount.Equal(decimal.NewFromInt(200)))
	s.True(s.ledgerRepo.ledger.OneTimeFees["admission"].PaidAmount.Equal(decimal.NewFromInt(200)))
}

func (s *PaymentServiceTestSuite) TestCollectOneTimeFee_RejectsOverpayment() {
	ctx := context.Background()

	_, err := s.service.CollectOneTimeFee(ctx, dto.CollectOneTimeFeeRequest{
		SchoolID:      "school-1",
		StudentID:     "student-1",
		CollectedBy:   "accountant-1",
		Grade:         "5",
		AcademicYear:  "2025-2026",
		FeeType:       "admission",
		Amount:        decimal.NewFromInt(600),
		PaymentMethod: "cash",
	})
	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrValidation)
	s.Contains(err.Error(), "exceeds remaining balance")
}

func (s *PaymentServiceTestSuite) TestCollectOneTimeFee_AlreadyPaid() {
	ctx := context.Background()

	fee := s.ledgerRepo.ledger.OneTimeFees["admission"]
	fee.PaidAmount = fee.DueAmount
	fee.Status = domain.PaymentPaid
	s.ledgerRepo.ledger.OneTimeFees["admission"] = fee

	_, err := s.service.CollectOneTimeFee(ctx, dto.CollectOneTimeFeeRequest{
		SchoolID:      "school-1",
		StudentID:     "student-1",
		CollectedBy:   "accountant-1",
		Grade:         "5",
		AcademicYear:  "2025-2026",
		FeeType:       "admission",
		Amount:        decimal.NewFromInt(100),
		PaymentMethod: "cash",
	})
	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrAlreadySettled)
}

func (s *PaymentServiceTestSuite) TestCollectOneTimeFee_UnknownFeeType() {
	ctx := context.Background()

	_, err := s.service.CollectOneTimeFee(ctx, dto.CollectOneTimeFeeRequest{
		SchoolID:      "school-1",
		StudentID:     "student-1",
		CollectedBy:   "accountant-1",
		Grade:         "5",
		AcademicYear:  "2025-2026",
		FeeType:       "hostel",
		Amount:        decimal.NewFromInt(100),
		PaymentMethod: "cash",
	})
	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func TestPaymentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceTestSuite))
}
