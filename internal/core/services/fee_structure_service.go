package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vidyakosh/fee_ledger_app/internal/apperrors"
	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
	portsrepo "github.com/vidyakosh/fee_ledger_app/internal/core/ports/repositories"
	portssvc "github.com/vidyakosh/fee_ledger_app/internal/core/ports/services"
	"github.com/vidyakosh/fee_ledger_app/internal/dto"
)

// feeStructureService manages the versioned fee structure catalog.
type feeStructureService struct {
	BaseService
	structureRepo portsrepo.FeeStructureRepositoryFacade
	now           func() time.Time
}

// FeeStructureServiceOption is a functional option for configuring the service.
type FeeStructureServiceOption func(*feeStructureService)

// WithStructureClock overrides the wall clock, for deterministic tests.
func WithStructureClock(now func() time.Time) FeeStructureServiceOption {
	return func(s *feeStructureService) {
		s.now = now
	}
}

// NewFeeStructureService creates a new fee structure catalog service.
func NewFeeStructureService(structureRepo portsrepo.FeeStructureRepositoryFacade, options ...FeeStructureServiceOption) portssvc.FeeStructureSvcFacade {
	svc := &feeStructureService{
		structureRepo: structureRepo,
		now:           time.Now,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.FeeStructureSvcFacade = (*feeStructureService)(nil)

// CreateFeeStructure inserts a new active version for the grade/year.
// Ledgers governed by an older version migrate lazily on their next access.
func (s *feeStructureService) CreateFeeStructure(ctx context.Context, schoolID string, req dto.CreateFeeStructureRequest) (*domain.FeeStructure, error) {
	if _, err := domain.ParseAcademicYear(req.AcademicYear); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if req.MonthlyAmount.IsNegative() {
		return nil, fmt.Errorf("%w: monthly amount must not be negative", apperrors.ErrValidation)
	}

	components := make([]domain.OneTimeComponent, 0, len(req.OneTimeComponents))
	seen := make(map[string]bool, len(req.OneTimeComponents))
	for _, c := range req.OneTimeComponents {
		if seen[c.FeeType] {
			return nil, fmt.Errorf("%w: duplicate one-time fee type %q", apperrors.ErrValidation, c.FeeType)
		}
		if c.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: one-time fee %q must not be negative", apperrors.ErrValidation, c.FeeType)
		}
		seen[c.FeeType] = true
		components = append(components, domain.OneTimeComponent{FeeType: c.FeeType, Amount: c.Amount})
	}

	structure := domain.FeeStructure{
		StructureID:       uuid.NewString(),
		SchoolID:          schoolID,
		Grade:             req.Grade,
		AcademicYear:      req.AcademicYear,
		MonthlyAmount:     req.MonthlyAmount,
		OneTimeComponents: components,
		DueDay:            req.DueDay,
		IsActive:          true,
		CreatedAt:         s.now().UTC(),
	}

	if err := s.structureRepo.SaveStructure(ctx, structure); err != nil {
		s.LogError(ctx, err, "Failed to save fee structure", slog.String("school_id", schoolID), slog.String("grade", req.Grade))
		return nil, fmt.Errorf("failed to save fee structure: %w", err)
	}

	s.LogInfo(ctx, "Fee structure created",
		slog.String("structure_id", structure.StructureID),
		slog.String("school_id", schoolID),
		slog.String("grade", req.Grade),
		slog.String("academic_year", req.AcademicYear))
	return &structure, nil
}

// GetLatestActiveStructure returns the structure that governs new ledgers.
func (s *feeStructureService) GetLatestActiveStructure(ctx context.Context, schoolID, grade, academicYear string) (*domain.FeeStructure, error) {
	structure, err := s.structureRepo.FindLatestActive(ctx, schoolID, grade, academicYear)
	if err != nil {
		return nil, err
	}
	return structure, nil
}
