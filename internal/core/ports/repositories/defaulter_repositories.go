package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
)

// CriticalDefaulterFilter narrows the critical defaulters listing. Nil fields
// are not applied; the storage adapter compiles each set field into the query.
type CriticalDefaulterFilter struct {
	MinAmount *decimal.Decimal
	MinDays   *int
	Limit     int
}

// DefaulterReader defines read operations over the defaulters index.
type DefaulterReader interface {
	// ListCritical lists defaulters sorted by (daysSinceFirstDue desc,
	// totalDueAmount desc), optionally filtered.
	ListCritical(ctx context.Context, schoolID string, filter CriticalDefaulterFilter) ([]domain.FeeDefaulter, error)

	// SummarizeByGrade aggregates the index per grade; grade narrows to one.
	SummarizeByGrade(ctx context.Context, schoolID string, grade *string) ([]domain.GradeDefaulterSummary, error)

	// ListNeedingReminders lists defaulters whose last reminder is unset or
	// older than the cutoff.
	ListNeedingReminders(ctx context.Context, schoolID string, cutoff time.Time) ([]domain.FeeDefaulter, error)

	// ListBySchool lists the whole index for a school.
	ListBySchool(ctx context.Context, schoolID string) ([]domain.FeeDefaulter, error)
}

// DefaulterWriter defines the two write paths to the defaulters index: the
// reconciliation job (upsert + evict) and reminder issuance.
type DefaulterWriter interface {
	// UpsertDefaulters inserts or updates rows keyed by ledger ID. Existing
	// rows keep their notification count and last reminder date.
	UpsertDefaulters(ctx context.Context, defaulters []domain.FeeDefaulter) error

	// DeleteNotIn removes every row for the school whose ledger ID is not in
	// keep, returning the number evicted. An empty keep clears the school.
	DeleteNotIn(ctx context.Context, schoolID string, keep []string) (int64, error)

	// MarkReminderSent sets lastReminderDate and increments the notification
	// count for one defaulter. Touches nothing the sync job writes.
	MarkReminderSent(ctx context.Context, schoolID, studentID string, sentAt time.Time) (*domain.FeeDefaulter, error)
}

// DefaulterRepositoryFacade combines defaulter repository interfaces.
type DefaulterRepositoryFacade interface {
	DefaulterReader
	DefaulterWriter
}
