package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vidyakosh/fee_ledger_app/internal/apperrors"
	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
	portsrepo "github.com/vidyakosh/fee_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/vidyakosh/fee_ledger_app/internal/core/ports/services"
	"github.com/vidyakosh/fee_ledger_app/internal/dto"
	"github.com/vidyakosh/fee_ledger_app/internal/utils/moneyfmt"
	"github.com/vidyakosh/fee_ledger_app/internal/utils/txnid"
)

// applyAttempts bounds the optimistic retry loop: a version conflict or a
// transaction-ID collision triggers a fresh read-validate-apply cycle.
const applyAttempts = 3

// paymentService is the payment application engine. Validation is advisory
// and unsynchronized; Apply re-validates against a fresh read and commits
// through a version-guarded repository transaction, so two concurrent
// payments against one ledger can never both apply on stale state.
type paymentService struct {
	BaseService
	ledgerSvc  portssvc.LedgerSvcFacade
	ledgerRepo portsrepo.LedgerRepositoryFacade
	idGen      *txnid.Generator
	now        func() time.Time
}

// PaymentServiceOption is a functional option for configuring the service.
type PaymentServiceOption func(*paymentService)

// WithPaymentClock overrides the wall clock, for deterministic tests.
func WithPaymentClock(now func() time.Time) PaymentServiceOption {
	return func(s *paymentService) {
		s.now = now
	}
}

// WithTransactionIDGenerator overrides the transaction ID generator.
func WithTransactionIDGenerator(gen *txnid.Generator) PaymentServiceOption {
	return func(s *paymentService) {
		s.idGen = gen
	}
}

// NewPaymentService creates a new payment application engine.
func NewPaymentService(ledgerSvc portssvc.LedgerSvcFacade, ledgerRepo portsrepo.LedgerRepositoryFacade, options ...PaymentServiceOption) portssvc.PaymentSvcFacade {
	svc := &paymentService{
		ledgerSvc:  ledgerSvc,
		ledgerRepo: ledgerRepo,
		idGen:      txnid.NewDefault(),
		now:        time.Now,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.PaymentSvcFacade = (*paymentService)(nil)

// ValidatePayment checks a proposed monthly payment against current ledger
// state without mutating anything.
func (s *paymentService) ValidatePayment(ctx context.Context, req dto.ValidatePaymentRequest) (*dto.ValidationResult, error) {
	ledger, err := s.ledgerSvc.EnsureLedger(ctx, req.SchoolID, req.StudentID, req.Grade, req.AcademicYear)
	if err != nil {
		return nil, err
	}
	result := s.buildValidation(ledger, req.Month, req.Amount, req.IncludeLateFee)
	return result, nil
}

// CollectFee validates and applies a monthly payment. On the first payment
// the ledger's pending one-time fees are settled in the same transaction.
func (s *paymentService) CollectFee(ctx context.Context, req dto.CollectFeeRequest) (*dto.CollectFeeResponse, error) {
	var lastErr error
	for attempt := 0; attempt < applyAttempts; attempt++ {
		ledger, err := s.ledgerSvc.EnsureLedger(ctx, req.SchoolID, req.StudentID, req.Grade, req.AcademicYear)
		if err != nil {
			return nil, err
		}

		result := s.buildValidation(ledger, req.Month, req.Amount, req.IncludeLateFee)
		if !result.Valid {
			return nil, blockingError(ledger, req.Month, result.Errors)
		}

		resp, err := s.applyMonthlyPayment(ctx, ledger, req, result)
		if err == nil {
			return resp, nil
		}
		if !errors.Is(err, apperrors.ErrConflict) && !errors.Is(err, apperrors.ErrDuplicate) {
			return nil, err
		}
		lastErr = err
		s.LogWarn(ctx, "Payment apply lost a race, retrying",
			slog.String("ledger_id", ledger.LedgerID),
			slog.Int("attempt", attempt+1),
			slog.String("reason", err.Error()))
	}
	return nil, fmt.Errorf("payment could not be applied after %d attempts: %w", applyAttempts, lastErr)
}

// applyMonthlyPayment mutates a snapshot of the ledger and persists it with
// its transaction rows as one version-guarded unit.
func (s *paymentService) applyMonthlyPayment(ctx context.Context, ledger *domain.StudentFeeRecord, req dto.CollectFeeRequest, result *dto.ValidationResult) (*dto.CollectFeeResponse, error) {
	monthlyAmount := req.Amount.Sub(result.TotalOneTimeFeeAmount)
	if monthlyAmount.IsNegative() {
		// Validate already rejects this; a negative here means the ledger
		// changed shape between validate and apply.
		return nil, fmt.Errorf("%w: amount does not cover mandatory one-time fees", apperrors.ErrValidation)
	}

	now := s.now().UTC()
	expectedVersion := ledger.Version
	mutated := ledger.Clone()

	var transactions []domain.FeeTransaction
	monthlyTxnAmount := monthlyAmount
	if !monthlyAmount.IsPositive() {
		// The whole submission went to one-time fees; the monthly row still
		// records the full money received.
		monthlyTxnAmount = req.Amount
	}
	month := req.Month
	transactions = append(transactions, domain.FeeTransaction{
		TransactionID: s.idGen.Next(),
		LedgerID:      mutated.LedgerID,
		StudentID:     mutated.StudentID,
		SchoolID:      mutated.SchoolID,
		Amount:        monthlyTxnAmount,
		PaymentMethod: req.PaymentMethod,
		Month:         &month,
		CollectedBy:   req.CollectedBy,
		Remarks:       req.Remarks,
		Status:        domain.TransactionCompleted,
		AuditLog:      domain.AuditLog{IPAddress: req.Audit.IPAddress, DeviceInfo: req.Audit.DeviceInfo, Timestamp: now},
		CreatedAt:     now,
	})

	var oneTimeTransactions []domain.FeeTransaction
	if result.IsFirstPayment {
		for _, fee := range mutated.PendingOneTimeFees() {
			remaining := fee.Remaining()
			fee.PaidAmount = fee.DueAmount
			fee.Status = domain.PaymentPaid
			paidAt := now
			fee.PaidDate = &paidAt
			mutated.OneTimeFees[fee.FeeType] = fee

			feeType := fee.FeeType
			oneTimeTransactions = append(oneTimeTransactions, domain.FeeTransaction{
				TransactionID: s.idGen.Next(),
				LedgerID:      mutated.LedgerID,
				StudentID:     mutated.StudentID,
				SchoolID:      mutated.SchoolID,
				Amount:        remaining,
				PaymentMethod: req.PaymentMethod,
				FeeType:       &feeType,
				CollectedBy:   req.CollectedBy,
				Remarks:       req.Remarks,
				Status:        domain.TransactionCompleted,
				AuditLog:      domain.AuditLog{IPAddress: req.Audit.IPAddress, DeviceInfo: req.Audit.DeviceInfo, Timestamp: now},
				CreatedAt:     now,
			})
		}
	}
	transactions = append(transactions, oneTimeTransactions...)

	if monthlyAmount.IsPositive() {
		entry := mutated.Months[req.Month]
		entry.PaidAmount = entry.PaidAmount.Add(monthlyAmount)
		if entry.PaidAmount.GreaterThanOrEqual(entry.DueAmount) {
			entry.Status = domain.PaymentPaid
		} else {
			entry.Status = domain.PaymentPartial
		}
		mutated.Months[req.Month] = entry
	}

	mutated.RecalculateTotals()
	mutated.LastUpdatedAt = now

	if err := s.ledgerRepo.ApplyPayment(ctx, *mutated, expectedVersion, transactions); err != nil {
		return nil, err
	}
	mutated.Version = expectedVersion + 1

	s.LogInfo(ctx, "Fee collected",
		slog.String("ledger_id", mutated.LedgerID),
		slog.String("transaction_id", transactions[0].TransactionID),
		slog.Int("month", req.Month),
		slog.String("amount", req.Amount.String()),
		slog.Bool("first_payment", result.IsFirstPayment))

	oneTimeResponses := make([]dto.TransactionResponse, len(oneTimeTransactions))
	for i, t := range oneTimeTransactions {
		oneTimeResponses[i] = dto.ToTransactionResponse(t)
	}
	return &dto.CollectFeeResponse{
		Transaction:           dto.ToTransactionResponse(transactions[0]),
		OneTimeTransactions:   oneTimeResponses,
		Ledger:                dto.ToLedgerResponse(mutated),
		Warnings:              result.Warnings,
		IsFirstPayment:        result.IsFirstPayment,
		TotalOneTimeFeeAmount: result.TotalOneTimeFeeAmount,
	}, nil
}

// CollectOneTimeFee applies money against one named one-time fee outside the
// monthly flow, e.g. collecting the admission fee on its own.
func (s *paymentService) CollectOneTimeFee(ctx context.Context, req dto.CollectOneTimeFeeRequest) (*dto.CollectOneTimeFeeResponse, error) {
	var lastErr error
	for attempt := 0; attempt < applyAttempts; attempt++ {
		ledger, err := s.ledgerSvc.EnsureLedger(ctx, req.SchoolID, req.StudentID, req.Grade, req.AcademicYear)
		if err != nil {
			return nil, err
		}

		fee, ok := ledger.OneTimeFees[req.FeeType]
		if !ok {
			return nil, fmt.Errorf("%w: one-time fee %q not found on ledger", apperrors.ErrNotFound, req.FeeType)
		}
		if fee.Status == domain.PaymentPaid {
			return nil, fmt.Errorf("%w: one-time fee %q is already paid", apperrors.ErrAlreadySettled, req.FeeType)
		}
		if !req.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
		}
		if req.Amount.GreaterThan(fee.Remaining()) {
			return nil, fmt.Errorf("%w: amount %s exceeds remaining balance of %s for fee %q",
				apperrors.ErrValidation, moneyfmt.Rupees(req.Amount), moneyfmt.Rupees(fee.Remaining()), req.FeeType)
		}

		now := s.now().UTC()
		expectedVersion := ledger.Version
		mutated := ledger.Clone()

		fee.PaidAmount = fee.PaidAmount.Add(req.Amount)
		if fee.PaidAmount.GreaterThanOrEqual(fee.DueAmount) {
			fee.Status = domain.PaymentPaid
			paidAt := now
			fee.PaidDate = &paidAt
		} else {
			fee.Status = domain.PaymentPartial
		}
		mutated.OneTimeFees[req.FeeType] = fee

		mutated.RecalculateTotals()
		mutated.LastUpdatedAt = now

		feeType := req.FeeType
		transaction := domain.FeeTransaction{
			TransactionID: s.idGen.Next(),
			LedgerID:      mutated.LedgerID,
			StudentID:     mutated.StudentID,
			SchoolID:      mutated.SchoolID,
			Amount:        req.Amount,
			PaymentMethod: req.PaymentMethod,
			FeeType:       &feeType,
			CollectedBy:   req.CollectedBy,
			Remarks:       req.Remarks,
			Status:        domain.TransactionCompleted,
			AuditLog:      domain.AuditLog{IPAddress: req.Audit.IPAddress, DeviceInfo: req.Audit.DeviceInfo, Timestamp: now},
			CreatedAt:     now,
		}

		err = s.ledgerRepo.ApplyPayment(ctx, *mutated, expectedVersion, []domain.FeeTransaction{transaction})
		if err == nil {
			s.LogInfo(ctx, "One-time fee collected",
				slog.String("ledger_id", mutated.LedgerID),
				slog.String("fee_type", req.FeeType),
				slog.String("amount", req.Amount.String()))
			return &dto.CollectOneTimeFeeResponse{
				Transaction: dto.ToTransactionResponse(transaction),
				Ledger:      dto.ToLedgerResponse(mutated),
				OneTimeFee:  dto.ToOneTimeFeeResponse(fee),
			}, nil
		}
		if !errors.Is(err, apperrors.ErrConflict) && !errors.Is(err, apperrors.ErrDuplicate) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("one-time collection could not be applied after %d attempts: %w", applyAttempts, lastErr)
}

// buildValidation evaluates §4.3's rules against a ledger snapshot.
func (s *paymentService) buildValidation(ledger *domain.StudentFeeRecord, month int, amount decimal.Decimal, includeLateFee bool) *dto.ValidationResult {
	result := &dto.ValidationResult{
		Errors:                []string{},
		Warnings:              []string{},
		MonthlyExpectedAmount: decimal.Zero,
		TotalOneTimeFeeAmount: decimal.Zero,
		ExpectedAmount:        decimal.Zero,
		IsFirstPayment:        ledger.IsFirstPayment(),
	}

	pending := ledger.PendingOneTimeFees()
	result.PendingOneTimeFees = make([]dto.OneTimeFeeResponse, len(pending))
	for i, f := range pending {
		result.PendingOneTimeFees[i] = dto.ToOneTimeFeeResponse(f)
	}

	entry, ok := ledger.Months[month]
	if !ok {
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid month %d: ledger has no such installment", month))
		return result
	}

	if !amount.IsPositive() {
		result.Errors = append(result.Errors, "Amount must be positive")
	}
	if entry.Status == domain.PaymentPaid {
		result.Errors = append(result.Errors, fmt.Sprintf("Month %d is already paid", month))
	}
	if entry.Waived {
		result.Errors = append(result.Errors, fmt.Sprintf("Month %d is waived", month))
	}

	if result.IsFirstPayment {
		result.TotalOneTimeFeeAmount = ledger.PendingOneTimeTotal()
		if result.TotalOneTimeFeeAmount.IsPositive() && amount.LessThan(result.TotalOneTimeFeeAmount) {
			result.Errors = append(result.Errors, fmt.Sprintf(
				"Insufficient amount: one-time fees of %s must be cleared with the first payment",
				moneyfmt.Rupees(result.TotalOneTimeFeeAmount)))
		}
	}

	lateFee := decimal.Zero
	if includeLateFee {
		lateFee = entry.LateFee
	}
	result.MonthlyExpectedAmount = entry.Remaining().Add(lateFee)
	result.ExpectedAmount = result.MonthlyExpectedAmount.Add(result.TotalOneTimeFeeAmount)

	if len(result.Errors) == 0 {
		if amount.GreaterThan(result.ExpectedAmount) {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"Overpayment of %s: expected %s",
				moneyfmt.Rupees(amount.Sub(result.ExpectedAmount)), moneyfmt.Rupees(result.ExpectedAmount)))
		} else if amount.LessThan(result.ExpectedAmount) {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"Partial payment accepted. Remaining: %s",
				moneyfmt.Rupees(result.ExpectedAmount.Sub(amount))))
		}
	}

	now := s.now().UTC()
	if entry.IsUnsettled() && entry.DueDate.Before(now) {
		overdueDays := int(now.Sub(entry.DueDate).Hours() / 24)
		result.Warnings = append(result.Warnings, fmt.Sprintf("Month %d is overdue by %d days", month, overdueDays))
	}

	var earlierUnpaid []int
	for _, m := range ledger.MonthsInOrder() {
		if m.Month < month && m.IsUnsettled() {
			earlierUnpaid = append(earlierUnpaid, m.Month)
		}
	}
	if len(earlierUnpaid) > 0 {
		sort.Ints(earlierUnpaid)
		parts := make([]string, len(earlierUnpaid))
		for i, m := range earlierUnpaid {
			parts[i] = fmt.Sprintf("%d", m)
		}
		result.Warnings = append(result.Warnings, fmt.Sprintf("Earlier unpaid months: %s", strings.Join(parts, ", ")))
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// blockingError maps validation errors onto the error taxonomy: settled
// months surface as AlreadySettled, everything else as InvalidInput.
func blockingError(ledger *domain.StudentFeeRecord, month int, errs []string) error {
	joined := strings.Join(errs, "; ")
	if entry, ok := ledger.Months[month]; ok && (entry.Status == domain.PaymentPaid || entry.Waived) {
		return fmt.Errorf("%w: %s", apperrors.ErrAlreadySettled, joined)
	}
	return fmt.Errorf("%w: %s", apperrors.ErrValidation, joined)
}
