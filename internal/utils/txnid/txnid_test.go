package txnid_test

import (
	"fmt"
	"math/rand"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyakosh/fee_ledger_app/internal/utils/txnid"
)

var idPattern = regexp.MustCompile(`^TXN-\d+-[0-9A-Z]{6}$`)

func TestGenerator_Format(t *testing.T) {
	fixed := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	gen := txnid.New(func() time.Time { return fixed }, rand.New(rand.NewSource(42)))

	id := gen.Next()
	require.Regexp(t, idPattern, id)
	assert.Contains(t, id, fmt.Sprintf("TXN-%d-", fixed.UnixMilli()))
}

func TestGenerator_UsesInjectedClock(t *testing.T) {
	fixed := time.UnixMilli(1700000000000).UTC()
	gen := txnid.New(func() time.Time { return fixed }, rand.New(rand.NewSource(1)))

	assert.Contains(t, gen.Next(), "TXN-1700000000000-")
}

func TestGenerator_Deterministic(t *testing.T) {
	fixed := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	genA := txnid.New(func() time.Time { return fixed }, rand.New(rand.NewSource(7)))
	genB := txnid.New(func() time.Time { return fixed }, rand.New(rand.NewSource(7)))

	assert.Equal(t, genA.Next(), genB.Next())
}

func TestGenerator_DistinctSuffixes(t *testing.T) {
	gen := txnid.NewDefault()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := gen.Next()
		require.Regexp(t, idPattern, id)
		seen[id] = true
	}
	// Millisecond clock plus random suffix makes collisions across 100
	// draws vanishingly unlikely.
	assert.Greater(t, len(seen), 95)
}
