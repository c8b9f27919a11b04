package filter

import (
	"github.com/CoMatu/test-gql-server/internal/ir"
	"github.com/CoMatu/test-gql-server/internal/queryir"
)

// IDsIn restricts a result to a set of ids. An empty list restricts nothing.
type IDsIn struct {
	IDs []string `json:"ids,omitempty" yaml:"ids,omitempty"`
}

// ChargeFilter is the consumableMaterialCharges filter input.
type ChargeFilter struct {
	In *IDsIn `json:"in,omitempty" yaml:"in,omitempty"`
}

// Query returns the Select over the charges collection.
func (f *ChargeFilter) Query() queryir.Select {
	var in *IDsIn
	if f != nil {
		in = f.In
	}
	return queryir.Select{From: queryir.Charges, Filter: idsPredicate(in)}
}

// PumpFilter is the consumableMaterialPumps filter input.
type PumpFilter struct {
	In *IDsIn `json:"in,omitempty" yaml:"in,omitempty"`
}

// Query returns the Select over the pumps collection.
func (f *PumpFilter) Query() queryir.Select {
	var in *IDsIn
	if f != nil {
		in = f.In
	}
	return queryir.Select{From: queryir.Pumps, Filter: idsPredicate(in)}
}

func idsPredicate(in *IDsIn) queryir.Predicate {
	if in == nil || len(in.IDs) == 0 {
		return nil
	}
	return queryir.In{Field: "id", Values: queryir.Strings(in.IDs)}
}

// ResourceFilter is the resources filter input.
// An empty ResourceType and an empty GarageNumbers list restrict nothing.
type ResourceFilter struct {
	ResourceType  string   `json:"resourceType,omitempty" yaml:"resourceType,omitempty"`
	GarageNumbers []string `json:"garageNumbers,omitempty" yaml:"garageNumbers,omitempty"`
}

// Query returns the Select over the resources collection.
func (f *ResourceFilter) Query() queryir.Select {
	sel := queryir.Select{From: queryir.Resources}
	if f == nil {
		return sel
	}

	var preds []queryir.Predicate
	if f.ResourceType != "" {
		preds = append(preds, queryir.Equals{Field: "resourceType", Value: ir.IRString(f.ResourceType)})
	}
	if len(f.GarageNumbers) > 0 {
		preds = append(preds, queryir.In{Field: "garageNumber", Values: queryir.Strings(f.GarageNumbers)})
	}
	sel.Filter = conjoin(preds)
	return sel
}

// ComplexResourceIn holds the inclusion constraints of a complex resource filter.
type ComplexResourceIn struct {
	EmployeeIDs   []string `json:"employeeIds,omitempty" yaml:"employeeIds,omitempty"`
	ResourceIDs   []string `json:"resourceIds,omitempty" yaml:"resourceIds,omitempty"`
	CreationTypes []string `json:"creationTypes,omitempty" yaml:"creationTypes,omitempty"`
	ResourceTypes []string `json:"resourceTypes,omitempty" yaml:"resourceTypes,omitempty"`
}

// ComplexResourceNotIn holds the exclusion constraints of a complex resource filter.
type ComplexResourceNotIn struct {
	EmployeeIDs []string `json:"employeeIds,omitempty" yaml:"employeeIds,omitempty"`
	ResourceIDs []string `json:"resourceIds,omitempty" yaml:"resourceIds,omitempty"`
}

// ComplexResourceFilter is the complexResources filter input.
//
// Deleted is applied on top of the live-record scan, so Deleted=true
// yields nothing: soft-deleted complex resources are never readable.
type ComplexResourceFilter struct {
	Deleted *bool                 `json:"deleted,omitempty" yaml:"deleted,omitempty"`
	In      *ComplexResourceIn    `json:"in,omitempty" yaml:"in,omitempty"`
	NotIn   *ComplexResourceNotIn `json:"notIn,omitempty" yaml:"notIn,omitempty"`
}

// Query returns the Select over the complexResources collection.
// in.resourceTypes becomes a Ref into live resources.
func (f *ComplexResourceFilter) Query() queryir.Select {
	sel := queryir.Select{From: queryir.ComplexResources}
	if f == nil {
		return sel
	}

	var preds []queryir.Predicate
	if f.Deleted != nil {
		preds = append(preds, queryir.Equals{Field: "deleted", Value: ir.IRBool(*f.Deleted)})
	}
	if in := f.In; in != nil {
		preds = appendIn(preds, "employeeId", in.EmployeeIDs)
		preds = appendIn(preds, "resourceId", in.ResourceIDs)
		preds = appendIn(preds, "createType", in.CreationTypes)
		if len(in.ResourceTypes) > 0 {
			preds = append(preds, queryir.Ref{
				Field:      "resourceId",
				Collection: queryir.Resources,
				Where:      queryir.In{Field: "resourceType", Values: queryir.Strings(in.ResourceTypes)},
			})
		}
	}
	if notIn := f.NotIn; notIn != nil {
		if len(notIn.EmployeeIDs) > 0 {
			preds = append(preds, queryir.NotIn{Field: "employeeId", Values: queryir.Strings(notIn.EmployeeIDs)})
		}
		if len(notIn.ResourceIDs) > 0 {
			preds = append(preds, queryir.NotIn{Field: "resourceId", Values: queryir.Strings(notIn.ResourceIDs)})
		}
	}
	sel.Filter = conjoin(preds)
	return sel
}

func appendIn(preds []queryir.Predicate, field string, vals []string) []queryir.Predicate {
	if len(vals) == 0 {
		return preds
	}
	return append(preds, queryir.In{Field: field, Values: queryir.Strings(vals)})
}

func conjoin(preds []queryir.Predicate) queryir.Predicate {
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	default:
		return queryir.And{Predicates: preds}
	}
}
