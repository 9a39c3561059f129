package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MonthsPerYear is the number of monthly installments in an academic year.
const MonthsPerYear = 12

// PaymentStatus is the state of a single monthly or one-time obligation.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
)

// LedgerStatus is the roll-up state of a whole ledger.
type LedgerStatus string

const (
	LedgerPending LedgerStatus = "pending"
	LedgerPartial LedgerStatus = "partial"
	LedgerPaid    LedgerStatus = "paid"
)

// MonthlyPayment is one installment of the academic-year schedule.
// Month is the 1-based position in the schedule (1 = first month of the
// academic year); the calendar month and year live in DueDate.
type MonthlyPayment struct {
	Month      int             `json:"month"`
	DueAmount  decimal.Decimal `json:"dueAmount"`
	PaidAmount decimal.Decimal `json:"paidAmount"`
	LateFee    decimal.Decimal `json:"lateFee"`
	Status     PaymentStatus   `json:"status"`
	DueDate    time.Time       `json:"dueDate"`
	Waived     bool            `json:"waived"`
}

// Remaining is the unpaid balance of this installment, excluding late fees.
func (m MonthlyPayment) Remaining() decimal.Decimal {
	return m.DueAmount.Sub(m.PaidAmount)
}

// IsUnsettled reports whether the installment still expects money.
func (m MonthlyPayment) IsUnsettled() bool {
	return !m.Waived && (m.Status == PaymentPending || m.Status == PaymentPartial)
}

// OneTimeFee is the per-ledger collection state of a one-time component.
type OneTimeFee struct {
	FeeType    string          `json:"feeType"`
	DueAmount  decimal.Decimal `json:"dueAmount"`
	PaidAmount decimal.Decimal `json:"paidAmount"`
	Status     PaymentStatus   `json:"status"`
	PaidDate   *time.Time      `json:"paidDate,omitempty"`
}

// Remaining is the unpaid balance of this one-time fee.
func (f OneTimeFee) Remaining() decimal.Decimal {
	return f.DueAmount.Sub(f.PaidAmount)
}

// StudentFeeRecord is the authoritative per-student, per-academic-year fee
// ledger. Months and OneTimeFees are keyed for O(1) single-entry updates and
// serialized as ordered lists at the API boundary.
type StudentFeeRecord struct {
	LedgerID        string                `json:"ledgerID"` // Primary Key (UUID)
	StudentID       string                `json:"studentID"`
	SchoolID        string                `json:"schoolID"`
	Grade           string                `json:"grade"`
	AcademicYear    string                `json:"academicYear"`
	StructureID     string                `json:"structureID"` // FK -> FeeStructure governing this ledger
	TotalFeeAmount  decimal.Decimal       `json:"totalFeeAmount"`
	TotalPaidAmount decimal.Decimal       `json:"totalPaidAmount"`
	TotalDueAmount  decimal.Decimal       `json:"totalDueAmount"`
	Status          LedgerStatus          `json:"status"`
	Months          map[int]MonthlyPayment `json:"-"` // key = schedule month 1..12
	OneTimeFees     map[string]OneTimeFee  `json:"-"` // key = fee type
	Version         int64                 `json:"version"` // optimistic concurrency guard
	CreatedAt       time.Time             `json:"createdAt"`
	LastUpdatedAt   time.Time             `json:"lastUpdatedAt"`
}

// MonthsInOrder returns the schedule as an ordered slice, month 1 first.
func (r *StudentFeeRecord) MonthsInOrder() []MonthlyPayment {
	out := make([]MonthlyPayment, 0, len(r.Months))
	for _, m := range r.Months {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// OneTimeFeesInOrder returns the one-time fees sorted by fee type.
func (r *StudentFeeRecord) OneTimeFeesInOrder() []OneTimeFee {
	out := make([]OneTimeFee, 0, len(r.OneTimeFees))
	for _, f := range r.OneTimeFees {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FeeType < out[j].FeeType })
	return out
}

// PendingOneTimeFees returns every one-time fee that still expects money.
func (r *StudentFeeRecord) PendingOneTimeFees() []OneTimeFee {
	var out []OneTimeFee
	for _, f := range r.OneTimeFeesInOrder() {
		if f.Status == PaymentPending || f.Status == PaymentPartial {
			out = append(out, f)
		}
	}
	return out
}

// PendingOneTimeTotal sums the remaining balance of all pending one-time fees.
func (r *StudentFeeRecord) PendingOneTimeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, f := range r.PendingOneTimeFees() {
		total = total.Add(f.Remaining())
	}
	return total
}

// IsFirstPayment reports whether no money has ever been applied to the ledger.
func (r *StudentFeeRecord) IsFirstPayment() bool {
	return r.TotalPaidAmount.IsZero()
}

// PaidMonthsSum sums the paid amounts across the monthly schedule.
func (r *StudentFeeRecord) PaidMonthsSum() decimal.Decimal {
	total := decimal.Zero
	for _, m := range r.Months {
		total = total.Add(m.PaidAmount)
	}
	return total
}

// PaidOneTimeSum sums the paid amounts across the one-time fees.
func (r *StudentFeeRecord) PaidOneTimeSum() decimal.Decimal {
	total := decimal.Zero
	for _, f := range r.OneTimeFees {
		total = total.Add(f.PaidAmount)
	}
	return total
}

// RecalculateTotals recomputes the derived totals and the roll-up status from
// the month and one-time entries. TotalDueAmount never goes negative, even
// when an accepted overpayment pushes TotalPaidAmount past TotalFeeAmount.
func (r *StudentFeeRecord) RecalculateTotals() {
	r.TotalPaidAmount = r.PaidMonthsSum().Add(r.PaidOneTimeSum())
	due := r.TotalFeeAmount.Sub(r.TotalPaidAmount)
	if due.IsNegative() {
		due = decimal.Zero
	}
	r.TotalDueAmount = due

	switch {
	case r.TotalDueAmount.IsZero():
		r.Status = LedgerPaid
	case r.TotalPaidAmount.IsPositive():
		r.Status = LedgerPartial
	default:
		r.Status = LedgerPending
	}
}

// Clone returns a deep copy so validation can run against a snapshot without
// aliasing the maps of the original aggregate.
func (r *StudentFeeRecord) Clone() *StudentFeeRecord {
	cp := *r
	cp.Months = make(map[int]MonthlyPayment, len(r.Months))
	for k, v := range r.Months {
		cp.Months[k] = v
	}
	cp.OneTimeFees = make(map[string]OneTimeFee, len(r.OneTimeFees))
	for k, v := range r.OneTimeFees {
		cp.OneTimeFees[k] = v
	}
	return &cp
}
