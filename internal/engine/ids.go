package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator generates record ids.
// Implemented by UUIDv4Generator (production) and FixedGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDv4Generator generates random RFC 4122 version 4 ids.
//
// Thread-safety: UUIDv4Generator is stateless and safe for concurrent use.
type UUIDv4Generator struct{}

// Generate returns a new hyphenated UUIDv4.
func (UUIDv4Generator) Generate() string {
	return uuid.NewString()
}

// FixedGenerator returns predetermined ids for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
//
//	gen := NewFixedGenerator("c1", "c2")
//	gen.Generate() // "c1"
//	gen.Generate() // "c2"
//	gen.Generate() // panic: all ids exhausted
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics if all ids have been consumed: the test created more records
// than it planned for.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// WallClock reads the system clock in UTC.
type WallClock struct{}

// Now implements store.Clock.
func (WallClock) Now() time.Time { return time.Now().UTC() }
