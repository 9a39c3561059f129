package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OneTimeComponent is a non-recurring charge defined by a fee structure,
// e.g. an admission fee collected once per academic year.
type OneTimeComponent struct {
	FeeType string          `json:"feeType"`
	Amount  decimal.Decimal `json:"amount"`
}

// FeeStructure defines the fee schedule for a (school, grade, academicYear).
// Structures are versioned: several rows may exist for the same key, but only
// the latest active one governs new ledgers and migrations of existing ones.
type FeeStructure struct {
	StructureID       string             `json:"structureID"` // Primary Key (UUID)
	SchoolID          string             `json:"schoolID"`
	Grade             string             `json:"grade"`
	AcademicYear      string             `json:"academicYear"` // "YYYY-YYYY+1", e.g. "2025-2026"
	MonthlyAmount     decimal.Decimal    `json:"monthlyAmount"`
	OneTimeComponents []OneTimeComponent `json:"oneTimeComponents"`
	DueDay            int                `json:"dueDay"` // 1..31, clamped to month length
	IsActive          bool               `json:"isActive"`
	CreatedAt         time.Time          `json:"createdAt"`
}

// TotalFeeAmount is the yearly obligation under this structure:
// twelve monthly installments plus every one-time component.
func (s FeeStructure) TotalFeeAmount() decimal.Decimal {
	total := s.MonthlyAmount.Mul(decimal.NewFromInt(MonthsPerYear))
	for _, c := range s.OneTimeComponents {
		total = total.Add(c.Amount)
	}
	return total
}
