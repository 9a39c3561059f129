package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyakosh/fee_ledger_app/internal/core/domain"
)

func TestParseAcademicYear(t *testing.T) {
	start, err := domain.ParseAcademicYear("2025-2026")
	require.NoError(t, err)
	assert.Equal(t, 2025, start)

	_, err = domain.ParseAcademicYear("2025")
	assert.Error(t, err)

	_, err = domain.ParseAcademicYear("2025-2027")
	assert.Error(t, err)

	_, err = domain.ParseAcademicYear("abcd-efgh")
	assert.Error(t, err)
}

func TestCurrentAcademicYear(t *testing.T) {
	// June falls inside the session that started in April.
	june := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-2026", domain.CurrentAcademicYear(june))

	// February still belongs to the previous session.
	feb := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-2026", domain.CurrentAcademicYear(feb))

	// April starts a new session.
	april := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-2027", domain.CurrentAcademicYear(april))
}
