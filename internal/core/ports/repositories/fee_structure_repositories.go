package repositories

import (
	"context"

	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
)

// FeeStructureReader defines read operations for the fee structure catalog.
type FeeStructureReader interface {
	// FindLatestActive retrieves the newest active structure for the key.
	// Returns apperrors.ErrNotFound when no active structure exists.
	FindLatestActive(ctx context.Context, schoolID, grade, academicYear string) (*domain.FeeStructure, error)

	// FindByID retrieves a structure (active or not) by its ID.
	FindByID(ctx context.Context, structureID string) (*domain.FeeStructure, error)
}

// FeeStructureWriter defines write operations for the fee structure catalog.
type FeeStructureWriter interface {
	// SaveStructure inserts a new active version and deactivates any prior
	// active versions for the same (school, grade, academicYear) in one
	// database transaction.
	SaveStructure(ctx context.Context, structure domain.FeeStructure) error
}

// FeeStructureRepositoryFacade combines catalog repository interfaces.
type FeeStructureRepositoryFacade interface {
	FeeStructureReader
	FeeStructureWriter
}
