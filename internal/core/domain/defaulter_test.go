package domain_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
)

func TestDefaulterSeverity(t *testing.T) {
	tests := []struct {
		name     string
		days     int
		amount   int64
		expected domain.DefaulterSeverity
	}{
		{"critical by days", 61, 100, domain.SeverityCritical},
		{"critical by amount", 5, 50001, domain.SeverityCritical},
		{"high by days", 31, 100, domain.SeverityHigh},
		{"high by amount", 5, 20001, domain.SeverityHigh},
		{"medium by days", 15, 100, domain.SeverityMedium},
		{"medium by amount", 5, 10001, domain.SeverityMedium},
		{"low", 5, 100, domain.SeverityLow},
		{"boundary 60 days is high", 60, 100, domain.SeverityHigh},
		{"boundary 14 days is low", 14, 100, domain.SeverityLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := domain.FeeDefaulter{
				DaysSinceFirstDue: tt.days,
				TotalDueAmount:    decimal.NewFromInt(tt.amount),
			}
			assert.Equal(t, tt.expected, d.Severity())
		})
	}
}

func TestNeedsReminder(t *testing.T) {
	now := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	interval := 7 * 24 * time.Hour

	never := domain.FeeDefaulter{}
	assert.True(t, never.NeedsReminder(now, interval))

	recent := now.Add(-48 * time.Hour)
	reminded := domain.FeeDefaulter{LastReminderDate: &recent}
	assert.False(t, reminded.NeedsReminder(now, interval))

	old := now.Add(-8 * 24 * time.Hour)
	stale := domain.FeeDefaulter{LastReminderDate: &old}
	assert.True(t, stale.NeedsReminder(now, interval))
}
