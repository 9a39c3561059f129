package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaulterSeverity classifies how bad an arrears position is.
type DefaulterSeverity string

const (
	SeverityCritical DefaulterSeverity = "critical"
	SeverityHigh     DefaulterSeverity = "high"
	SeverityMedium   DefaulterSeverity = "medium"
	SeverityLow      DefaulterSeverity = "low"
)

// FeeDefaulter is one row of the materialized defaulters index: a student
// with at least one overdue, unpaid, non-waived installment past the grace
// period. Rows are owned by the reconciliation job; the only other write path
// is the reminder fields, which the job never touches.
type FeeDefaulter struct {
	LedgerID          string          `json:"ledgerID"` // upsert key (one ledger per student per year)
	StudentID         string          `json:"studentID"`
	SchoolID          string          `json:"schoolID"`
	Grade             string          `json:"grade"`
	AcademicYear      string          `json:"academicYear"`
	TotalDueAmount    decimal.Decimal `json:"totalDueAmount"`
	OverdueMonths     []int           `json:"overdueMonths"`
	FirstDueDate      time.Time       `json:"firstDueDate"`
	DaysSinceFirstDue int             `json:"daysSinceFirstDue"`
	NotificationCount int             `json:"notificationCount"`
	LastReminderDate  *time.Time      `json:"lastReminderDate,omitempty"`
	SyncedAt          time.Time       `json:"syncedAt"`
}

// Severity derives the classification from days overdue and amount due.
func (d FeeDefaulter) Severity() DefaulterSeverity {
	switch {
	case d.DaysSinceFirstDue > 60 || d.TotalDueAmount.GreaterThan(decimal.NewFromInt(50000)):
		return SeverityCritical
	case d.DaysSinceFirstDue > 30 || d.TotalDueAmount.GreaterThan(decimal.NewFromInt(20000)):
		return SeverityHigh
	case d.DaysSinceFirstDue > 14 || d.TotalDueAmount.GreaterThan(decimal.NewFromInt(10000)):
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// NeedsReminder reports whether a reminder is due given the configured
// interval. A defaulter that has never been reminded is always due.
func (d FeeDefaulter) NeedsReminder(now time.Time, interval time.Duration) bool {
	if d.LastReminderDate == nil {
		return true
	}
	return now.Sub(*d.LastReminderDate) >= interval
}

// GradeDefaulterSummary aggregates the defaulters index per grade.
type GradeDefaulterSummary struct {
	Grade                string          `json:"grade"`
	Count                int             `json:"count"`
	TotalDueAmount       decimal.Decimal `json:"totalDueAmount"`
	AvgDaysSinceFirstDue float64         `json:"avgDaysSinceFirstDue"`
}
