package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportType selects the implied time window of a financial report.
type ReportType string

const (
	ReportDaily   ReportType = "daily"
	ReportWeekly  ReportType = "weekly"
	ReportMonthly ReportType = "monthly"
	ReportYearly  ReportType = "yearly"
)

// PaymentMethodTotal is the collected amount for one payment method.
type PaymentMethodTotal struct {
	PaymentMethod string          `json:"paymentMethod"`
	Count         int             `json:"count"`
	Amount        decimal.Decimal `json:"amount"`
}

// DailyCollectionTotal is the collected amount for one calendar day.
type DailyCollectionTotal struct {
	Date   time.Time       `json:"date"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// GradeCollectionTotal is the collected amount for one grade.
type GradeCollectionTotal struct {
	Grade  string          `json:"grade"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// CollectorTotal is the collected amount attributed to one accountant.
type CollectorTotal struct {
	CollectedBy string          `json:"collectedBy"`
	Count       int             `json:"count"`
	Amount      decimal.Decimal `json:"amount"`
}

// OutstandingSummary is the ledger-side view of money still owed.
type OutstandingSummary struct {
	TotalDueAmount decimal.Decimal `json:"totalDueAmount"`
	LedgerCount    int             `json:"ledgerCount"`
	DefaulterCount int             `json:"defaulterCount"`
}

// FinancialReport is the read-only aggregation served to dashboards.
type FinancialReport struct {
	ReportType      ReportType             `json:"reportType"`
	StartDate       time.Time              `json:"startDate"`
	EndDate         time.Time              `json:"endDate"`
	TotalCollected  decimal.Decimal        `json:"totalCollected"`
	TransactionCount int                   `json:"transactionCount"`
	Outstanding     OutstandingSummary     `json:"outstanding"`
	ByPaymentMethod []PaymentMethodTotal   `json:"byPaymentMethod"`
	DailyBreakdown  []DailyCollectionTotal `json:"dailyBreakdown"`
	ByGrade         []GradeCollectionTotal `json:"byGrade"`
	TopAccountants  []CollectorTotal       `json:"topAccountants"`
}
