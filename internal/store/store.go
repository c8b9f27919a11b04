package store

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/CoMatu/test-gql-server/internal/ir"
	"github.com/CoMatu/test-gql-server/internal/queryir"
)

// TimestampLayout is the ISO-8601 UTC form with millisecond precision used
// for createdAt, updatedAt and deletedAt.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Clock supplies wall time for timestamps.
type Clock interface {
	Now() time.Time
}

// SoftDelete names how a collection marks deleted records.
type SoftDelete int

const (
	// NoSoftDelete collections are seeded and read-only.
	NoSoftDelete SoftDelete = iota
	// DeletedAtMarker collections carry a deletedAt timestamp.
	DeletedAtMarker
	// DeletedFlag collections carry a deleted boolean.
	DeletedFlag
)

// String returns the convention's name.
func (s SoftDelete) String() string {
	switch s {
	case DeletedAtMarker:
		return "deletedAt"
	case DeletedFlag:
		return "deleted"
	default:
		return "none"
	}
}

// CollectionSpec declares one collection.
type CollectionSpec struct {
	Name       string
	SoftDelete SoftDelete
}

// Collections lists every collection in load order.
var Collections = []CollectionSpec{
	{Name: queryir.Charges, SoftDelete: DeletedAtMarker},
	{Name: queryir.Pumps, SoftDelete: DeletedAtMarker},
	{Name: queryir.Resources, SoftDelete: DeletedAtMarker},
	{Name: queryir.ComplexResources, SoftDelete: DeletedFlag},
	{Name: queryir.Employees, SoftDelete: NoSoftDelete},
	{Name: queryir.Waybills, SoftDelete: NoSoftDelete},
	{Name: queryir.Subdivisions, SoftDelete: DeletedAtMarker},
	{Name: queryir.Positions, SoftDelete: DeletedAtMarker},
	{Name: queryir.BusinessRoles, SoftDelete: DeletedFlag},
	{Name: queryir.EmployeeGroups, SoftDelete: DeletedFlag},
}

// CollectionNames returns the set of known collection names.
func CollectionNames() map[string]bool {
	names := make(map[string]bool, len(Collections))
	for _, c := range Collections {
		names[c.Name] = true
	}
	return names
}

// Store owns every collection.
//
// Thread-safety: Store is safe for concurrent use; each collection
// serializes its own mutations.
type Store struct {
	collections map[string]*Collection
	persister   Persister
	clock       Clock
	logger      *slog.Logger
}

// Open loads every collection from p.
//
// A collection p has never stored starts empty. A collection that fails to
// load (unreadable, unparsable) also starts empty and the failure is logged;
// startup continues. A nil logger uses slog.Default().
func Open(p Persister, clock Clock, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		collections: make(map[string]*Collection, len(Collections)),
		persister:   p,
		clock:       clock,
		logger:      logger,
	}

	for _, spec := range Collections {
		records, err := p.Load(spec.Name)
		switch {
		case errors.Is(err, ErrNoCollection):
			logger.Debug("collection not stored, starting empty", "collection", spec.Name)
			records = nil
		case err != nil:
			logger.Error("failed to load collection, starting empty", "collection", spec.Name, "error", err)
			records = nil
		default:
			logger.Debug("loaded collection", "collection", spec.Name, "records", len(records))
		}
		s.collections[spec.Name] = &Collection{
			spec:    spec,
			records: records,
			store:   s,
		}
	}
	return s
}

// Close releases the persister when it holds resources.
func (s *Store) Close() error {
	if c, ok := s.persister.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Collection returns a collection by name.
func (s *Store) Collection(name string) (*Collection, error) {
	c, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", name)
	}
	return c, nil
}

// Live implements filter.Source.
func (s *Store) Live(collection string) ([]ir.IRObject, error) {
	c, err := s.Collection(collection)
	if err != nil {
		return nil, err
	}
	return c.All(), nil
}

func (s *Store) now() string {
	return FormatTimestamp(s.clock.Now())
}

// Charges returns the charges collection.
func (s *Store) Charges() *Collection { return s.collections[queryir.Charges] }

// Pumps returns the pumps collection.
func (s *Store) Pumps() *Collection { return s.collections[queryir.Pumps] }

// Resources returns the resources collection.
func (s *Store) Resources() *Collection { return s.collections[queryir.Resources] }

// ComplexResources returns the complexResources collection.
func (s *Store) ComplexResources() *Collection { return s.collections[queryir.ComplexResources] }

// Employees returns the employees collection.
func (s *Store) Employees() *Collection { return s.collections[queryir.Employees] }

// Waybills returns the waybills collection.
func (s *Store) Waybills() *Collection { return s.collections[queryir.Waybills] }

// Subdivisions returns the subdivisions collection.
func (s *Store) Subdivisions() *Collection { return s.collections[queryir.Subdivisions] }

// Positions returns the positions collection.
func (s *Store) Positions() *Collection { return s.collections[queryir.Positions] }

// BusinessRoles returns the businessRoles collection.
func (s *Store) BusinessRoles() *Collection { return s.collections[queryir.BusinessRoles] }

// EmployeeGroups returns the employeeGroups collection.
func (s *Store) EmployeeGroups() *Collection { return s.collections[queryir.EmployeeGroups] }
