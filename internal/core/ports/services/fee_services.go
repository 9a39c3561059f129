package services

import (
	"context"

	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
	"github.com/vidyakosh/fee_ledger_app/internal/dto"
)

// FeeStructureSvcFacade manages the fee structure catalog.
type FeeStructureSvcFacade interface {
	// CreateFeeStructure inserts a new active version for a grade/year and
	// deactivates prior versions. Existing ledgers migrate lazily on next
	// access.
	CreateFeeStructure(ctx context.Context, schoolID string, req dto.CreateFeeStructureRequest) (*domain.FeeStructure, error)

	// GetLatestActiveStructure returns the structure governing new ledgers.
	GetLatestActiveStructure(ctx context.Context, schoolID, grade, academicYear string) (*domain.FeeStructure, error)
}

// LedgerSvcFacade owns ledger lifecycle: lazy creation, migration, reads.
type LedgerSvcFacade interface {
	// GetFeeStatus returns the ledger for (student, academicYear), creating
	// it from the latest active structure if absent and migrating it in
	// place if the structure has a newer version.
	GetFeeStatus(ctx context.Context, req dto.FeeStatusRequest) (*dto.FeeStatusResponse, error)

	// EnsureLedger returns the up-to-date ledger aggregate, creating or
	// migrating as needed. Shared with the payment engine.
	EnsureLedger(ctx context.Context, schoolID, studentID, grade, academicYear string) (*domain.StudentFeeRecord, error)
}

// PaymentSvcFacade is the payment application engine.
type PaymentSvcFacade interface {
	// ValidatePayment checks a proposed payment against current ledger
	// state. Read-only and advisory; Apply re-validates under the version
	// guard.
	ValidatePayment(ctx context.Context, req dto.ValidatePaymentRequest) (*dto.ValidationResult, error)

	// CollectFee validates and applies a monthly payment (plus mandatory
	// one-time fees on the first payment) atomically.
	CollectFee(ctx context.Context, req dto.CollectFeeRequest) (*dto.CollectFeeResponse, error)

	// CollectOneTimeFee applies money against a single named one-time fee
	// outside the monthly flow.
	CollectOneTimeFee(ctx context.Context, req dto.CollectOneTimeFeeRequest) (*dto.CollectOneTimeFeeResponse, error)
}
