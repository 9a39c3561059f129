package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
)

// FeeStatusRequest identifies the ledger to fetch. Grade is only needed when
// the ledger does not exist yet and must be created from the catalog;
// AcademicYear defaults to the current session when empty.
type FeeStatusRequest struct {
	SchoolID     string `json:"-"`
	StudentID    string `json:"-"`
	Grade        string `form:"grade"`
	AcademicYear string `form:"academicYear"`
}

// MonthlyPaymentResponse is one installment at the API boundary.
type MonthlyPaymentResponse struct {
	Month      int             `json:"month"`
	DueAmount  decimal.Decimal `json:"dueAmount"`
	PaidAmount decimal.Decimal `json:"paidAmount"`
	LateFee    decimal.Decimal `json:"lateFee"`
	Status     string          `json:"status"`
	DueDate    time.Time       `json:"dueDate"`
	Waived     bool            `json:"waived"`
}

// OneTimeFeeResponse is one one-time fee at the API boundary.
type OneTimeFeeResponse struct {
	FeeType    string          `json:"feeType"`
	DueAmount  decimal.Decimal `json:"dueAmount"`
	PaidAmount decimal.Decimal `json:"paidAmount"`
	Status     string          `json:"status"`
	PaidDate   *time.Time      `json:"paidDate,omitempty"`
}

// LedgerResponse serializes a ledger with its entries as ordered lists.
type LedgerResponse struct {
	LedgerID        string                   `json:"ledgerID"`
	StudentID       string                   `json:"studentID"`
	SchoolID        string                   `json:"schoolID"`
	Grade           string                   `json:"grade"`
	AcademicYear    string                   `json:"academicYear"`
	TotalFeeAmount  decimal.Decimal          `json:"totalFeeAmount"`
	TotalPaidAmount decimal.Decimal          `json:"totalPaidAmount"`
	TotalDueAmount  decimal.Decimal          `json:"totalDueAmount"`
	Status          string                   `json:"status"`
	MonthlyPayments []MonthlyPaymentResponse `json:"monthlyPayments"`
	OneTimeFees     []OneTimeFeeResponse     `json:"oneTimeFees"`
}

// TransactionResponse serializes one transaction log row.
type TransactionResponse struct {
	TransactionID string          `json:"transactionID"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
	Month         *int            `json:"month,omitempty"`
	FeeType       *string         `json:"feeType,omitempty"`
	CollectedBy   string          `json:"collectedBy"`
	Remarks       string          `json:"remarks,omitempty"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// FeeStatusResponse is the full fee-status view for a student.
type FeeStatusResponse struct {
	StudentID          string                  `json:"studentID"`
	AcademicYear       string                  `json:"academicYear"`
	Ledger             LedgerResponse          `json:"ledger"`
	UpcomingDue        *MonthlyPaymentResponse `json:"upcomingDue,omitempty"`
	RecentTransactions []TransactionResponse   `json:"recentTransactions"`
}

// ToMonthlyPaymentResponse converts a domain installment to its DTO.
func ToMonthlyPaymentResponse(m domain.MonthlyPayment) MonthlyPaymentResponse {
	return MonthlyPaymentResponse{
		Month:      m.Month,
		DueAmount:  m.DueAmount,
		PaidAmount: m.PaidAmount,
		LateFee:    m.LateFee,
		Status:     string(m.Status),
		DueDate:    m.DueDate,
		Waived:     m.Waived,
	}
}

// ToOneTimeFeeResponse converts a domain one-time fee to its DTO.
func ToOneTimeFeeResponse(f domain.OneTimeFee) OneTimeFeeResponse {
	return OneTimeFeeResponse{
		FeeType:    f.FeeType,
		DueAmount:  f.DueAmount,
		PaidAmount: f.PaidAmount,
		Status:     string(f.Status),
		PaidDate:   f.PaidDate,
	}
}

// ToLedgerResponse converts a ledger aggregate to its DTO, flattening the
// keyed maps into ordered lists.
func ToLedgerResponse(r *domain.StudentFeeRecord) LedgerResponse {
	months := r.MonthsInOrder()
	monthResponses := make([]MonthlyPaymentResponse, len(months))
	for i, m := range months {
		monthResponses[i] = ToMonthlyPaymentResponse(m)
	}

	fees := r.OneTimeFeesInOrder()
	feeResponses := make([]OneTimeFeeResponse, len(fees))
	for i, f := range fees {
		feeResponses[i] = ToOneTimeFeeResponse(f)
	}

	return LedgerResponse{
		LedgerID:        r.LedgerID,
		StudentID:       r.StudentID,
		SchoolID:        r.SchoolID,
		Grade:           r.Grade,
		AcademicYear:    r.AcademicYear,
		TotalFeeAmount:  r.TotalFeeAmount,
		TotalPaidAmount: r.TotalPaidAmount,
		TotalDueAmount:  r.TotalDueAmount,
		Status:          string(r.Status),
		MonthlyPayments: monthResponses,
		OneTimeFees:     feeResponses,
	}
}

// ToTransactionResponse converts a transaction log row to its DTO.
func ToTransactionResponse(t domain.FeeTransaction) TransactionResponse {
	return TransactionResponse{
		TransactionID: t.TransactionID,
		Amount:        t.Amount,
		PaymentMethod: t.PaymentMethod,
		Month:         t.Month,
		FeeType:       t.FeeType,
		CollectedBy:   t.CollectedBy,
		Remarks:       t.Remarks,
		Status:        string(t.Status),
		CreatedAt:     t.CreatedAt,
	}
}
