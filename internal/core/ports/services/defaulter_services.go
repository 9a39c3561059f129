package services

import (
	"context"

	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
	"github.com/vidyakosh/fee_ledger_app/internal/dto"
)

// DefaulterSvcFacade owns the materialized defaulters index.
type DefaulterSvcFacade interface {
	// SyncDefaulters recomputes the index for a school from ledger state:
	// upserts the active set and evicts everything else. Idempotent; runs
	// for the same school are serialized.
	SyncDefaulters(ctx context.Context, schoolID string, gracePeriodDays int) (*dto.SyncDefaultersResponse, error)

	// SyncAllSchools runs SyncDefaulters for every school with ledgers.
	// Used by the background scheduler.
	SyncAllSchools(ctx context.Context, gracePeriodDays int) error

	// GetCriticalDefaulters lists the worst arrears positions.
	GetCriticalDefaulters(ctx context.Context, schoolID string, req dto.CriticalDefaultersRequest) ([]domain.FeeDefaulter, error)

	// GetDefaultersByGrade aggregates the index per grade.
	GetDefaultersByGrade(ctx context.Context, schoolID string, grade *string) ([]domain.GradeDefaulterSummary, error)

	// GetDefaultersNeedingReminders lists defaulters due for a reminder.
	GetDefaultersNeedingReminders(ctx context.Context, schoolID string, reminderIntervalDays int) ([]domain.FeeDefaulter, error)

	// MarkReminderSent records that a reminder went out to one defaulter.
	MarkReminderSent(ctx context.Context, schoolID, studentID string) (*domain.FeeDefaulter, error)
}
