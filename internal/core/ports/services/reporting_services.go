package services

import (
	"context"

	"github.com/vidyakosh/fee_ledger_app/internal/dto"
)

// ReportingSvcFacade serves read-only financial aggregations.
type ReportingSvcFacade interface {
	// GetFinancialReport aggregates the transaction log and ledgers for the
	// report type's implied window; explicit start/end override it.
	GetFinancialReport(ctx context.Context, schoolID string, req dto.FinancialReportRequest) (*dto.FinancialReportResponse, error)
}
