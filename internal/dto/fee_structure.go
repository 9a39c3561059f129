package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
)

// OneTimeComponentRequest is one non-recurring charge in a new structure.
type OneTimeComponentRequest struct {
	FeeType string          `json:"feeType" binding:"required"`
	Amount  decimal.Decimal `json:"amount" binding:"required"`
}

// CreateFeeStructureRequest defines a new fee structure version.
type CreateFeeStructureRequest struct {
	Grade             string                    `json:"grade" binding:"required"`
	AcademicYear      string                    `json:"academicYear" binding:"required"`
	MonthlyAmount     decimal.Decimal           `json:"monthlyAmount" binding:"required"`
	DueDay            int                       `json:"dueDay" binding:"required,min=1,max=31"`
	OneTimeComponents []OneTimeComponentRequest `json:"oneTimeComponents" binding:"omitempty,dive"`
}

// FeeStructureResponse serializes a catalog entry.
type FeeStructureResponse struct {
	StructureID       string                    `json:"structureID"`
	SchoolID          string                    `json:"schoolID"`
	Grade             string                    `json:"grade"`
	AcademicYear      string                    `json:"academicYear"`
	MonthlyAmount     decimal.Decimal           `json:"monthlyAmount"`
	DueDay            int                       `json:"dueDay"`
	OneTimeComponents []OneTimeComponentRequest `json:"oneTimeComponents"`
	IsActive          bool                      `json:"isActive"`
	CreatedAt         time.Time                 `json:"createdAt"`
}

// ToFeeStructureResponse converts a catalog entry to its DTO.
func ToFeeStructureResponse(s *domain.FeeStructure) FeeStructureResponse {
	components := make([]OneTimeComponentRequest, len(s.OneTimeComponents))
	for i, c := range s.OneTimeComponents {
		components[i] = OneTimeComponentRequest{FeeType: c.FeeType, Amount: c.Amount}
	}
	return FeeStructureResponse{
		StructureID:       s.StructureID,
		SchoolID:          s.SchoolID,
		Grade:             s.Grade,
		AcademicYear:      s.AcademicYear,
		MonthlyAmount:     s.MonthlyAmount,
		DueDay:            s.DueDay,
		OneTimeComponents: components,
		IsActive:          s.IsActive,
		CreatedAt:         s.CreatedAt,
	}
}
