package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/CoMatu/test-gql-server/internal/filter"
	"github.com/CoMatu/test-gql-server/internal/ir"
	"github.com/CoMatu/test-gql-server/internal/queryir"
)

// ErrReadOnly is returned when mutating a collection without a soft-delete
// convention.
var ErrReadOnly = errors.New("collection is read-only")

// Collection is an ordered set of records with one soft-delete convention.
// Every returned record is a copy; callers may modify it freely.
type Collection struct {
	spec    CollectionSpec
	mu      sync.Mutex
	records []ir.IRObject
	store   *Store
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.spec.Name }

// SoftDelete returns the collection's soft-delete convention.
func (c *Collection) SoftDelete() SoftDelete { return c.spec.SoftDelete }

func (c *Collection) live(rec ir.IRObject) bool {
	switch c.spec.SoftDelete {
	case DeletedAtMarker:
		return !ir.Truthy(rec["deletedAt"])
	case DeletedFlag:
		return !ir.Truthy(rec["deleted"])
	default:
		return true
	}
}

// indexOfLive returns the index of the first live record with id, or -1.
// Caller holds c.mu.
func (c *Collection) indexOfLive(id string) int {
	for i, rec := range c.records {
		if recID, ok := rec.String("id"); ok && recID == id && c.live(rec) {
			return i
		}
	}
	return -1
}

// All returns the live records in insertion order. Never nil.
func (c *Collection) All() []ir.IRObject {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]ir.IRObject, 0, len(c.records))
	for _, rec := range c.records {
		if c.live(rec) {
			out = append(out, rec.Clone())
		}
	}
	return out
}

// Get returns the first live record with id.
func (c *Collection) Get(id string) (ir.IRObject, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOfLive(id)
	if i < 0 {
		return nil, false
	}
	return c.records[i].Clone(), true
}

// Find returns the live records matching pred, in insertion order.
// A nil pred returns every live record.
func (c *Collection) Find(pred queryir.Predicate) ([]ir.IRObject, error) {
	// Compile first: a Ref may scan this very collection.
	match, err := filter.Compile(c.store, pred)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.spec.Name, err)
	}
	return filter.Apply(match, c.All()), nil
}

// Create appends rec verbatim and persists the collection. Metadata (id,
// timestamps) is the caller's job. A colliding id is accepted and logged.
func (c *Collection) Create(rec ir.IRObject) (ir.IRObject, error) {
	if c.spec.SoftDelete == NoSoftDelete {
		return nil, fmt.Errorf("create in %s: %w", c.spec.Name, ErrReadOnly)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	stored := rec.Clone()
	if stored == nil {
		stored = ir.IRObject{}
	}
	if id, ok := stored.String("id"); ok && c.indexOfLive(id) >= 0 {
		c.store.logger.Warn("duplicate id accepted, lookups return the first record",
			"collection", c.spec.Name, "id", id)
	}

	c.records = append(c.records, stored)
	if err := c.persist(); err != nil {
		return nil, err
	}
	return stored.Clone(), nil
}

// Update merges partial over the first live record with id and persists.
// id and createdAt keep their stored values; updatedAt is refreshed.
// found is false when no live record has id.
func (c *Collection) Update(id string, partial ir.IRObject) (rec ir.IRObject, found bool, err error) {
	if c.spec.SoftDelete == NoSoftDelete {
		return nil, false, fmt.Errorf("update in %s: %w", c.spec.Name, ErrReadOnly)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOfLive(id)
	if i < 0 {
		return nil, false, nil
	}

	old := c.records[i]
	merged := old.Merge(partial)
	merged["id"] = ir.IRString(id)
	if createdAt, ok := old["createdAt"]; ok {
		merged["createdAt"] = createdAt
	} else {
		delete(merged, "createdAt")
	}
	merged["updatedAt"] = ir.IRString(c.store.now())

	c.records[i] = merged
	if err := c.persist(); err != nil {
		return nil, true, err
	}
	return merged.Clone(), true, nil
}

// Delete soft-deletes the first live record with id and persists.
// It returns false when no live record has id.
func (c *Collection) Delete(id string) (bool, error) {
	if c.spec.SoftDelete == NoSoftDelete {
		return false, fmt.Errorf("delete in %s: %w", c.spec.Name, ErrReadOnly)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOfLive(id)
	if i < 0 {
		return false, nil
	}

	now := ir.IRString(c.store.now())
	rec := c.records[i].Clone()
	switch c.spec.SoftDelete {
	case DeletedAtMarker:
		rec["deletedAt"] = now
	case DeletedFlag:
		rec["deleted"] = ir.IRBool(true)
	}
	rec["updatedAt"] = now

	c.records[i] = rec
	if err := c.persist(); err != nil {
		return true, err
	}
	return true, nil
}

// persist writes the full collection. Caller holds c.mu.
func (c *Collection) persist() error {
	if err := c.store.persister.Save(c.spec.Name, c.records); err != nil {
		c.store.logger.Error("failed to persist collection", "collection", c.spec.Name, "error", err)
		return persistErr(c.spec.Name, err)
	}
	return nil
}
