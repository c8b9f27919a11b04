package queryir

import "github.com/CoMatu/test-gql-server/internal/ir"

// Query represents an abstract query over one collection.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Predicate represents a filter condition on a single record.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Equals: field = literal
//   - In: field is one of a set (empty set = no restriction)
//   - NotIn: field is none of a set (empty set = no restriction)
//   - And: all predicates must be true
//   - Ref: field value is the id of a matching record in another collection
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Select reads the live records of one collection, optionally filtered.
//
// Example:
//
//	Select{
//	  From: "complexResources",
//	  Filter: And{Predicates: []Predicate{
//	    Equals{Field: "deleted", Value: ir.IRBool(false)},
//	    NotIn{Field: "employeeId", Values: []ir.IRValue{ir.IRString("e1")}},
//	  }},
//	}
type Select struct {
	From   string    // Collection name (e.g., "charges")
	Filter Predicate // nil = every live record
}

func (Select) queryNode() {}

// Equals matches records whose field deep-equals a literal.
// A missing field never equals anything except an IRNull literal.
type Equals struct {
	Field string
	Value ir.IRValue
}

func (Equals) predicateNode() {}

// In matches records whose field equals one of Values.
// Empty Values means no restriction.
type In struct {
	Field  string
	Values []ir.IRValue
}

func (In) predicateNode() {}

// NotIn matches records whose field equals none of Values.
// Empty Values means no restriction. A record without the field matches.
type NotIn struct {
	Field  string
	Values []ir.IRValue
}

func (NotIn) predicateNode() {}

// And is a conjunction. Empty Predicates is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Ref is an indirect join.
//
// Semantics:
//
//	<field> IN (SELECT id FROM <collection> WHERE <where>)
//
// Example: complex resources whose resource has one of the given types.
//
//	Ref{
//	  Field:      "resourceId",
//	  Collection: "resources",
//	  Where:      In{Field: "resourceType", Values: types},
//	}
type Ref struct {
	Field      string    // Field on the primary record holding the foreign id
	Collection string    // Secondary collection scanned for eligible ids
	Where      Predicate // Filter on the secondary collection (nil = all live)
}

func (Ref) predicateNode() {}

// Strings converts string literals into IR values for In/NotIn sets.
func Strings(vals []string) []ir.IRValue {
	out := make([]ir.IRValue, len(vals))
	for i, v := range vals {
		out[i] = ir.IRString(v)
	}
	return out
}

// Collection names shared by the store and the filter inputs.
const (
	Charges          = "charges"
	Pumps            = "pumps"
	Resources        = "resources"
	ComplexResources = "complexResources"
	Employees        = "employees"
	Waybills         = "waybills"
	Subdivisions     = "subdivisions"
	Positions        = "positions"
	BusinessRoles    = "businessRoles"
	EmployeeGroups   = "employeeGroups"
)
