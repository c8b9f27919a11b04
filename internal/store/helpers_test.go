package store

import (
	"testing"
	"time"

	"github.com/CoMatu/test-gql-server/internal/ir"
	"github.com/CoMatu/test-gql-server/internal/testutil"
)

// openTestStore opens a store over a Memory persister seeded with seed.
// The clock starts at testutil.Epoch and advances one second per read.
func openTestStore(t *testing.T, seed map[string][]ir.IRObject) (*Store, *Memory) {
	t.Helper()
	mem := NewMemory(seed)
	s := Open(mem, testutil.NewFixedClock(time.Time{}, time.Second), nil)
	t.Cleanup(func() { _ = s.Close() })
	return s, mem
}

func record(id string, pairs ...ir.IRPair) ir.IRObject {
	obj := ir.NewIRObjectFromPairs(pairs...)
	obj["id"] = ir.IRString(id)
	return obj
}

func recordIDs(records []ir.IRObject) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		id, _ := r.String("id")
		out = append(out, id)
	}
	return out
}
