package dto

import (
	"github.com/shopspring/decimal"
)

// AuditInfo carries request provenance recorded on every transaction.
type AuditInfo struct {
	IPAddress  string `json:"-"`
	DeviceInfo string `json:"-"`
}

// ValidatePaymentRequest is a proposed monthly payment to check.
type ValidatePaymentRequest struct {
	SchoolID       string          `json:"-"`
	StudentID      string          `json:"-"`
	Grade          string          `json:"grade"`
	AcademicYear   string          `json:"academicYear"`
	Month          int             `json:"month" binding:"required,min=1,max=12"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	IncludeLateFee bool            `json:"includeLateFee"`
}

// ValidationResult reports whether a payment would be accepted, with blocking
// errors and non-blocking warnings.
type ValidationResult struct {
	Valid                 bool                 `json:"valid"`
	Errors                []string             `json:"errors"`
	Warnings              []string             `json:"warnings"`
	ExpectedAmount        decimal.Decimal      `json:"expectedAmount"`
	MonthlyExpectedAmount decimal.Decimal      `json:"monthlyExpectedAmount"`
	TotalOneTimeFeeAmount decimal.Decimal      `json:"totalOneTimeFeeAmount"`
	IsFirstPayment        bool                 `json:"isFirstPayment"`
	PendingOneTimeFees    []OneTimeFeeResponse `json:"pendingOneTimeFees"`
}

// CollectFeeRequest is a monthly collection to apply.
type CollectFeeRequest struct {
	SchoolID       string          `json:"-"`
	StudentID      string          `json:"-"`
	CollectedBy    string          `json:"-"`
	Audit          AuditInfo       `json:"-"`
	Grade          string          `json:"grade"`
	AcademicYear   string          `json:"academicYear"`
	Month          int             `json:"month" binding:"required,min=1,max=12"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod  string          `json:"paymentMethod" binding:"required"`
	Remarks        string          `json:"remarks"`
	IncludeLateFee bool            `json:"includeLateFee"`
}

// CollectFeeResponse is the receipt for an applied monthly collection.
type CollectFeeResponse struct {
	Transaction           TransactionResponse   `json:"transaction"`
	OneTimeTransactions   []TransactionResponse `json:"oneTimeTransactions"`
	Ledger                LedgerResponse        `json:"ledger"`
	Warnings              []string              `json:"warnings"`
	IsFirstPayment        bool                  `json:"isFirstPayment"`
	TotalOneTimeFeeAmount decimal.Decimal       `json:"totalOneTimeFeeAmount"`
}

// CollectOneTimeFeeRequest applies money against one named one-time fee
// outside the monthly flow.
type CollectOneTimeFeeRequest struct {
	SchoolID      string          `json:"-"`
	StudentID     string          `json:"-"`
	CollectedBy   string          `json:"-"`
	Audit         AuditInfo       `json:"-"`
	Grade         string          `json:"grade"`
	AcademicYear  string          `json:"academicYear"`
	FeeType       string          `json:"feeType" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod string          `json:"paymentMethod" binding:"required"`
	Remarks       string          `json:"remarks"`
}

// CollectOneTimeFeeResponse is the receipt for a one-time-only collection.
type CollectOneTimeFeeResponse struct {
	Transaction TransactionResponse `json:"transaction"`
	Ledger      LedgerResponse      `json:"ledger"`
	OneTimeFee  OneTimeFeeResponse  `json:"oneTimeFee"`
}

