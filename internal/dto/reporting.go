package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
)

// FinancialReportRequest selects the report window. Explicit start/end
// override the window implied by ReportType.
type FinancialReportRequest struct {
	ReportType string     `form:"reportType" binding:"omitempty,oneof=daily weekly monthly yearly"`
	StartDate  *time.Time `form:"startDate" time_format:"2006-01-02"`
	EndDate    *time.Time `form:"endDate" time_format:"2006-01-02"`
}

// ReportSummaryResponse is the headline numbers of a financial report.
type ReportSummaryResponse struct {
	TotalCollected   decimal.Decimal `json:"totalCollected"`
	TransactionCount int             `json:"transactionCount"`
	TotalOutstanding decimal.Decimal `json:"totalOutstanding"`
	LedgerCount      int             `json:"ledgerCount"`
	DefaulterCount   int             `json:"defaulterCount"`
}

// PaymentMethodTotalResponse is one row of the payment-method breakdown.
type PaymentMethodTotalResponse struct {
	PaymentMethod string          `json:"paymentMethod"`
	Count         int             `json:"count"`
	Amount        decimal.Decimal `json:"amount"`
}

// DailyTotalResponse is one row of the day-by-day breakdown.
type DailyTotalResponse struct {
	Date   string          `json:"date"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// GradeTotalResponse is one row of the per-grade breakdown.
type GradeTotalResponse struct {
	Grade  string          `json:"grade"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// CollectorTotalResponse is one row of the top-accountants ranking.
type CollectorTotalResponse struct {
	CollectedBy string          `json:"collectedBy"`
	Count       int             `json:"count"`
	Amount      decimal.Decimal `json:"amount"`
}

// FinancialReportResponse is the report served to dashboards.
type FinancialReportResponse struct {
	ReportType      string                       `json:"reportType"`
	StartDate       string                       `json:"startDate"`
	EndDate         string                       `json:"endDate"`
	Summary         ReportSummaryResponse        `json:"summary"`
	ByPaymentMethod []PaymentMethodTotalResponse `json:"byPaymentMethod"`
	DailyBreakdown  []DailyTotalResponse         `json:"dailyBreakdown"`
	ByGrade         []GradeTotalResponse         `json:"byGrade"`
	TopAccountants  []CollectorTotalResponse     `json:"topAccountants"`
}

// ToFinancialReportResponse converts a domain report to its DTO.
func ToFinancialReportResponse(r *domain.FinancialReport) FinancialReportResponse {
	byMethod := make([]PaymentMethodTotalResponse, len(r.ByPaymentMethod))
	for i, m := range r.ByPaymentMethod {
		byMethod[i] = PaymentMethodTotalResponse{PaymentMethod: m.PaymentMethod, Count: m.Count, Amount: m.Amount}
	}

	daily := make([]DailyTotalResponse, len(r.DailyBreakdown))
	for i, d := range r.DailyBreakdown {
		daily[i] = DailyTotalResponse{Date: d.Date.Format("2006-01-02"), Count: d.Count, Amount: d.Amount}
	}

	byGrade := make([]GradeTotalResponse, len(r.ByGrade))
	for i, g := range r.ByGrade {
		byGrade[i] = GradeTotalResponse{Grade: g.Grade, Count: g.Count, Amount: g.Amount}
	}

	top := make([]CollectorTotalResponse, len(r.TopAccountants))
	for i, c := range r.TopAccountants {
		top[i] = CollectorTotalResponse{CollectedBy: c.CollectedBy, Count: c.Count, Amount: c.Amount}
	}

	return FinancialReportResponse{
		ReportType: string(r.ReportType),
		StartDate:  r.StartDate.Format("2006-01-02"),
		EndDate:    r.EndDate.Format("2006-01-02"),
		Summary: ReportSummaryResponse{
			TotalCollected:   r.TotalCollected,
			TransactionCount: r.TransactionCount,
			TotalOutstanding: r.Outstanding.TotalDueAmount,
			LedgerCount:      r.Outstanding.LedgerCount,
			DefaulterCount:   r.Outstanding.DefaulterCount,
		},
		ByPaymentMethod: byMethod,
		DailyBreakdown:  daily,
		ByGrade:         byGrade,
		TopAccountants:  top,
	}
}
