package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
)

// SyncDefaultersRequest triggers a reconciliation run for a school.
// GracePeriodDays falls back to the configured default when zero.
type SyncDefaultersRequest struct {
	GracePeriodDays int `json:"gracePeriodDays" binding:"omitempty,min=0"`
}

// SyncDefaultersResponse reports the outcome of a reconciliation run.
type SyncDefaultersResponse struct {
	Synced  int `json:"synced"`
	Removed int `json:"removed"`
}

// CriticalDefaultersRequest narrows the critical defaulters listing.
type CriticalDefaultersRequest struct {
	MinAmount *decimal.Decimal `form:"minAmount"`
	MinDays   *int             `form:"minDays"`
	Limit     int              `form:"limit"`
}

// DefaulterResponse serializes one defaulters-index row with its derived
// severity.
type DefaulterResponse struct {
	StudentID         string          `json:"studentID"`
	LedgerID          string          `json:"ledgerID"`
	Grade             string          `json:"grade"`
	AcademicYear      string          `json:"academicYear"`
	TotalDueAmount    decimal.Decimal `json:"totalDueAmount"`
	OverdueMonths     []int           `json:"overdueMonths"`
	DaysSinceFirstDue int             `json:"daysSinceFirstDue"`
	Severity          string          `json:"severity"`
	NotificationCount int             `json:"notificationCount"`
	LastReminderDate  *time.Time      `json:"lastReminderDate,omitempty"`
	SyncedAt          time.Time       `json:"syncedAt"`
}

// GradeDefaulterSummaryResponse serializes the per-grade aggregation.
type GradeDefaulterSummaryResponse struct {
	Grade                string          `json:"grade"`
	Count                int             `json:"count"`
	TotalDueAmount       decimal.Decimal `json:"totalDueAmount"`
	AvgDaysSinceFirstDue float64         `json:"avgDaysSinceFirstDue"`
}

// ToDefaulterResponse converts a domain defaulter to its DTO.
func ToDefaulterResponse(d domain.FeeDefaulter) DefaulterResponse {
	return DefaulterResponse{
		StudentID:         d.StudentID,
		LedgerID:          d.LedgerID,
		Grade:             d.Grade,
		AcademicYear:      d.AcademicYear,
		TotalDueAmount:    d.TotalDueAmount,
		OverdueMonths:     d.OverdueMonths,
		DaysSinceFirstDue: d.DaysSinceFirstDue,
		Severity:          string(d.Severity()),
		NotificationCount: d.NotificationCount,
		LastReminderDate:  d.LastReminderDate,
		SyncedAt:          d.SyncedAt,
	}
}

// ToGradeDefaulterSummaryResponse converts the per-grade aggregation rows.
func ToGradeDefaulterSummaryResponse(rows []domain.GradeDefaulterSummary) []GradeDefaulterSummaryResponse {
	out := make([]GradeDefaulterSummaryResponse, len(rows))
	for i, r := range rows {
		out[i] = GradeDefaulterSummaryResponse{
			Grade:                r.Grade,
			Count:                r.Count,
			TotalDueAmount:       r.TotalDueAmount,
			AvgDaysSinceFirstDue: r.AvgDaysSinceFirstDue,
		}
	}
	return out
}
