package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/CoMatu/test-gql-server/internal/ir"
)

// ErrNoCollection is returned by Persister.Load when nothing has been stored
// for the collection yet.
var ErrNoCollection = errors.New("collection not stored")

// ErrPersistence wraps every failure to write a collection. The in-memory
// state has already changed when it is returned.
var ErrPersistence = errors.New("persistence failure")

// Persister stores whole collections.
type Persister interface {
	// Load returns the stored records, or ErrNoCollection.
	Load(collection string) ([]ir.IRObject, error)

	// Save replaces the stored collection with records.
	Save(collection string, records []ir.IRObject) error
}

// Memory is an in-process Persister. Saved collections are deep-copied.
//
// Thread-safety: Memory is safe for concurrent use.
type Memory struct {
	mu   sync.Mutex
	data map[string][]ir.IRObject

	// SaveErr, when set, is returned by every Save. Used to exercise
	// persistence failures.
	SaveErr error
}

// NewMemory creates a Memory persister seeded with the given collections.
func NewMemory(seed map[string][]ir.IRObject) *Memory {
	m := &Memory{data: make(map[string][]ir.IRObject, len(seed))}
	for name, recs := range seed {
		m.data[name] = cloneAll(recs)
	}
	return m
}

// Load implements Persister.
func (m *Memory) Load(collection string) ([]ir.IRObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs, ok := m.data[collection]
	if !ok {
		return nil, ErrNoCollection
	}
	return cloneAll(recs), nil
}

// Save implements Persister.
func (m *Memory) Save(collection string, records []ir.IRObject) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.data[collection] = cloneAll(records)
	return nil
}

// Fallback reads from Primary and, for collections Primary has never stored,
// from Seed. Writes go to Primary only.
type Fallback struct {
	Primary Persister
	Seed    Persister
}

// Load implements Persister.
func (f Fallback) Load(collection string) ([]ir.IRObject, error) {
	recs, err := f.Primary.Load(collection)
	if errors.Is(err, ErrNoCollection) && f.Seed != nil {
		return f.Seed.Load(collection)
	}
	return recs, err
}

// Save implements Persister.
func (f Fallback) Save(collection string, records []ir.IRObject) error {
	return f.Primary.Save(collection, records)
}

// Close closes Primary and Seed when they hold resources.
func (f Fallback) Close() error {
	var errs []error
	for _, p := range []Persister{f.Primary, f.Seed} {
		if c, ok := p.(interface{ Close() error }); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

func cloneAll(recs []ir.IRObject) []ir.IRObject {
	out := make([]ir.IRObject, len(recs))
	for i, r := range recs {
		out[i] = r.Clone()
	}
	return out
}

func persistErr(collection string, err error) error {
	return fmt.Errorf("%w: save %s: %w", ErrPersistence, collection, err)
}
