package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the state of a recorded money movement.
type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "completed"
)

// AuditLog captures where a collection request came from.
type AuditLog struct {
	IPAddress  string    `json:"ipAddress"`
	DeviceInfo string    `json:"deviceInfo"`
	Timestamp  time.Time `json:"timestamp"`
}

// FeeTransaction is one immutable money movement against a ledger. Rows are
// only ever inserted, never updated or deleted.
type FeeTransaction struct {
	TransactionID string            `json:"transactionID"` // "TXN-<epochMillis>-<base36>", unique per school
	LedgerID      string            `json:"ledgerID"`
	StudentID     string            `json:"studentID"`
	SchoolID      string            `json:"schoolID"`
	Amount        decimal.Decimal   `json:"amount"`
	PaymentMethod string            `json:"paymentMethod"`
	Month         *int              `json:"month,omitempty"`   // set for monthly portions
	FeeType       *string           `json:"feeType,omitempty"` // set for one-time fees
	CollectedBy   string            `json:"collectedBy"`
	Remarks       string            `json:"remarks"`
	Status        TransactionStatus `json:"status"`
	AuditLog      AuditLog          `json:"auditLog"`
	CreatedAt     time.Time         `json:"createdAt"`
}
