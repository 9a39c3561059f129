package txnid

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

const suffixLen = 6

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Generator produces transaction IDs of the form
// TXN-<epochMillis>-<6 random base36 chars, uppercase>.
// Clock and randomness are injected so tests can be deterministic; collisions
// are possible and handled by the caller retrying with a fresh ID.
type Generator struct {
	now func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Generator using the given clock and random source.
func New(now func() time.Time, rng *rand.Rand) *Generator {
	return &Generator{now: now, rng: rng}
}

// NewDefault creates a Generator on the wall clock and a time-seeded source.
func NewDefault() *Generator {
	return New(time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// Next returns a fresh transaction ID.
func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var sb strings.Builder
	for i := 0; i < suffixLen; i++ {
		sb.WriteByte(base36[g.rng.Intn(len(base36))])
	}
	return fmt.Sprintf("TXN-%d-%s", g.now().UnixMilli(), sb.String())
}
