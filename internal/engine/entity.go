package engine

import (
	"github.com/CoMatu/test-gql-server/internal/ir"
	"github.com/CoMatu/test-gql-server/internal/queryir"
	"github.com/CoMatu/test-gql-server/internal/schema"
	"github.com/CoMatu/test-gql-server/internal/store"
)

// Entity is the model layer of one mutable entity: it picks the entity's
// whitelisted fields and stamps timestamps before records reach the
// store.
type Entity struct {
	mutation schema.Mutation
	coll     *store.Collection
	clock    store.Clock
}

// Name returns the entity name ("Charge", "Pump").
func (e *Entity) Name() string { return e.mutation.Entity }

// Create stores a new record built from data's id and whitelisted fields,
// with createdAt and updatedAt set to now and deletedAt null. Fields data
// does not carry are left out.
func (e *Entity) Create(data ir.IRObject) (ir.IRObject, error) {
	rec := e.pick(data)
	if id, ok := data["id"]; ok {
		rec["id"] = ir.CloneValue(id)
	}
	now := ir.IRString(store.FormatTimestamp(e.clock.Now()))
	rec["createdAt"] = now
	rec["updatedAt"] = now
	rec["deletedAt"] = ir.IRNull{}
	return e.coll.Create(rec)
}

// FindByID returns the live record with id.
func (e *Entity) FindByID(id string) (ir.IRObject, bool) {
	return e.coll.Get(id)
}

// FindAll returns live records matching pred; nil matches every record.
func (e *Entity) FindAll(pred queryir.Predicate) ([]ir.IRObject, error) {
	return e.coll.Find(pred)
}

// Update merges the whitelisted fields data carries into the live record
// with id.
func (e *Entity) Update(id string, data ir.IRObject) (ir.IRObject, bool, error) {
	return e.coll.Update(id, e.pick(data))
}

// Delete soft-deletes the live record with id.
func (e *Entity) Delete(id string) (bool, error) {
	return e.coll.Delete(id)
}

func (e *Entity) pick(data ir.IRObject) ir.IRObject {
	out := make(ir.IRObject, len(e.mutation.Fields)+4)
	for _, f := range e.mutation.Fields {
		if v, ok := data[f]; ok && v != nil {
			out[f] = ir.CloneValue(v)
		}
	}
	return out
}
