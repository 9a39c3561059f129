package repositories

import (
	"context"
	"time"

	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
)

// ReportingRepository defines read-only aggregations over the transaction log
// and the ledgers. Queries run without locks; an eventually-consistent
// snapshot is acceptable.
type ReportingRepository interface {
	// GetPaymentMethodBreakdown groups collections by payment method.
	GetPaymentMethodBreakdown(ctx context.Context, schoolID string, start, end time.Time) ([]domain.PaymentMethodTotal, error)

	// GetDailyCollections groups collections by calendar day.
	GetDailyCollections(ctx context.Context, schoolID string, start, end time.Time) ([]domain.DailyCollectionTotal, error)

	// GetCollectionsByGrade groups collections by the ledger's grade.
	GetCollectionsByGrade(ctx context.Context, schoolID string, start, end time.Time) ([]domain.GradeCollectionTotal, error)

	// GetTopCollectors ranks accountants by amount collected.
	GetTopCollectors(ctx context.Context, schoolID string, start, end time.Time, limit int) ([]domain.CollectorTotal, error)

	// GetOutstandingSummary sums pending dues and counts defaulters.
	GetOutstandingSummary(ctx context.Context, schoolID string) (*domain.OutstandingSummary, error)
}
