package resolver

import (
	"github.com/CoMatu/test-gql-server/internal/ir"
	"github.com/CoMatu/test-gql-server/internal/schema"
	"github.com/CoMatu/test-gql-server/internal/variant"
)

// relation resolves a foreign-key field:
//
//  1. a materialised value under the relation's own name is returned as is
//  2. else the id is looked up among live records of the owning collection
//  3. else a required relation yields its placeholder
//  4. else null
//
// List relations drop ids that do not resolve.
func (r *Resolver) relation(rel schema.Relation, rec ir.IRObject, sub Selection, depth int, expanded bool) (ir.IRValue, error) {
	targetDepth := max(depth-1, 0)
	targetExpanded := expanded
	if rel.Expand && !expanded {
		targetDepth = max(depth, 1)
		targetExpanded = true
	}

	if rel.Kind != schema.All {
		if v := rec[rel.Name]; ir.Truthy(v) {
			return project(ir.CloneValue(v), sub), nil
		}
	}

	switch rel.Kind {
	case schema.Many, schema.All:
		targets, err := r.lookupMany(rel, rec)
		if err != nil {
			return nil, err
		}
		out := make(ir.IRArray, 0, len(targets))
		for _, target := range targets {
			v, err := r.target(rel, target, sub, targetDepth, targetExpanded)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	default:
		target, found, err := r.lookupOne(rel, rec)
		if err != nil {
			return nil, err
		}
		if found {
			return r.target(rel, target, sub, targetDepth, targetExpanded)
		}
		if rel.Required() {
			placeholder, _ := r.schema.Placeholder(rel.Placeholder)
			return r.target(rel, placeholder, sub, 0, true)
		}
		return ir.IRNull{}, nil
	}
}

func (r *Resolver) target(rel schema.Relation, rec ir.IRObject, sub Selection, depth int, expanded bool) (ir.IRValue, error) {
	if rel.Wrap == ResourceItemType {
		return r.envelope(rec, sub, depth, expanded)
	}
	shapeName := rel.Shape
	if shapeName == "" {
		shapeName = rel.Placeholder
	}
	t, err := r.schema.Type(shapeName)
	if err != nil {
		return nil, err
	}
	return r.shape(t, rec, sub, depth, expanded)
}

// lookupOne returns the record a single-valued relation points at, either
// materialised on rec or found by id.
func (r *Resolver) lookupOne(rel schema.Relation, rec ir.IRObject) (ir.IRObject, bool, error) {
	if obj, ok := rec.Object(rel.Name); ok && obj != nil {
		return obj, true, nil
	}
	id, ok := rec.String(rel.IDField)
	if !ok || id == "" {
		return nil, false, nil
	}
	coll, err := r.store.Collection(rel.Collection)
	if err != nil {
		return nil, false, err
	}
	target, found := coll.Get(id)
	if !found {
		r.logger.Debug("reference not resolved", "collection", rel.Collection, "field", rel.IDField, "id", id)
	}
	return target, found, nil
}

// lookupMany returns the records a list relation points at. Materialised
// lists are used as they are; otherwise ids that do not resolve are
// dropped. An All relation returns every live record.
func (r *Resolver) lookupMany(rel schema.Relation, rec ir.IRObject) ([]ir.IRObject, error) {
	coll, err := r.store.Collection(rel.Collection)
	if err != nil {
		return nil, err
	}
	if rel.Kind == schema.All {
		return coll.All(), nil
	}

	if list, ok := rec.Array(rel.Name); ok {
		out := make([]ir.IRObject, 0, len(list))
		for _, v := range list {
			if obj, ok := v.(ir.IRObject); ok {
				out = append(out, obj)
			}
		}
		return out, nil
	}

	ids, _ := rec.Array(rel.IDField)
	out := make([]ir.IRObject, 0, len(ids))
	for _, v := range ids {
		id, ok := v.(ir.IRString)
		if !ok {
			continue
		}
		target, found := coll.Get(string(id))
		if !found {
			r.logger.Debug("dangling reference dropped", "collection", rel.Collection, "id", string(id))
			continue
		}
		out = append(out, target)
	}
	return out, nil
}

// envelope wraps rec as {erpId, resource, resourceType}. The inner value
// is shaped as a person when the record discriminates as one; resource
// shapes tag themselves.
func (r *Resolver) envelope(rec ir.IRObject, sel Selection, depth int, expanded bool) (ir.IRValue, error) {
	item, err := r.schema.Type(ResourceItemType)
	if err != nil {
		return nil, err
	}

	person := r.variants.IsPerson(rec)
	innerName := ResourceType
	if person {
		innerName = r.schema.ResourceUnion.PersonType
	}
	inner, err := r.schema.Type(innerName)
	if err != nil {
		return nil, err
	}

	selected := func(name string) (Selection, bool) {
		if sel == nil {
			return nil, true
		}
		s, ok := sel[name]
		return s, ok
	}

	raw := ir.IRObject{"erpId": ir.IRNull{}, "resourceType": rec["resourceType"]}
	out := ir.IRObject{}
	for _, rule := range item.Rules {
		if sub, ok := selected(rule.Name); ok {
			out[rule.Name] = project(applyRule(rule, raw), sub)
		}
	}
	if sub, ok := selected("resource"); ok {
		shaped, err := r.shape(inner, rec, sub, depth, expanded)
		if err != nil {
			return nil, err
		}
		if sub == nil && person {
			shaped[variant.TypenameField] = ir.IRString(r.variants.ResourceOrPerson(rec))
		}
		out["resource"] = shaped
	}
	if sel != nil {
		if _, ok := sel[variant.TypenameField]; ok {
			out[variant.TypenameField] = ir.IRString(item.Name)
		}
	}
	return out, nil
}
