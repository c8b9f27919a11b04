// Package resolver turns stored records into output objects: field rules
// and defaults, one-hop foreign-key resolution, placeholders for required
// references, resource envelopes and derived fields.
//
// Resolution is lazy. Only the fields a Selection names are computed, and
// a reference is looked up only when its field is requested.
package resolver

import (
	"fmt"
	"log/slog"

	"github.com/CoMatu/test-gql-server/internal/ir"
	"github.com/CoMatu/test-gql-server/internal/schema"
	"github.com/CoMatu/test-gql-server/internal/store"
	"github.com/CoMatu/test-gql-server/internal/variant"
)

// Output type names with special handling.
const (
	ResourceType     = "Resource"
	ResourceItemType = "ResourceItem"
)

type deriver func(t *schema.Type, rec ir.IRObject) (ir.IRValue, error)

// Resolver shapes records according to the schema.
//
// Thread-safety: Resolver holds no mutable state of its own; concurrent
// use is safe as long as the underlying Store is.
type Resolver struct {
	store    *store.Store
	schema   *schema.Schema
	variants *variant.Discriminator
	logger   *slog.Logger
	derivers map[string]deriver
}

// New returns a Resolver. Every derived field the schema declares must
// have an implementation.
func New(st *store.Store, s *schema.Schema, v *variant.Discriminator, logger *slog.Logger) (*Resolver, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		store:    st,
		schema:   s,
		variants: v,
		logger:   logger,
	}
	r.derivers = map[string]deriver{
		"availableBusinessRoles": r.availableBusinessRoles,
		"businessRole":           r.businessRole,
		"businessRoleNames":      r.businessRoleNames,
		"skillData":              r.skillData,
		"uniquePositionCode":     r.uniquePositionCode,
	}

	for _, t := range s.Types {
		for _, name := range t.Derived {
			if _, ok := r.derivers[name]; !ok {
				return nil, fmt.Errorf("type %s: no implementation for derived field %q", t.Name, name)
			}
		}
	}
	return r, nil
}

// Shape produces the output object for rec as output type typeName.
func (r *Resolver) Shape(typeName string, rec ir.IRObject, sel Selection) (ir.IRObject, error) {
	t, err := r.schema.Type(typeName)
	if err != nil {
		return nil, err
	}
	return r.shape(t, rec, sel, 1, false)
}

// ShapeAll shapes every record. The result is never nil.
func (r *Resolver) ShapeAll(typeName string, recs []ir.IRObject, sel Selection) ([]ir.IRObject, error) {
	out := make([]ir.IRObject, 0, len(recs))
	for _, rec := range recs {
		shaped, err := r.Shape(typeName, rec, sel)
		if err != nil {
			return nil, err
		}
		out = append(out, shaped)
	}
	return out, nil
}

// ResourceItem wraps a resource record in its envelope
// {erpId, resource, resourceType}. The inner resource carries its
// discriminated __typename.
func (r *Resolver) ResourceItem(rec ir.IRObject, sel Selection) (ir.IRObject, error) {
	v, err := r.envelope(rec, sel, 1, false)
	if err != nil {
		return nil, err
	}
	return v.(ir.IRObject), nil
}

// Field resolves a single field of rec as output type typeName.
func (r *Resolver) Field(typeName string, rec ir.IRObject, field string) (ir.IRValue, error) {
	t, err := r.schema.Type(typeName)
	if err != nil {
		return nil, err
	}
	return r.field(t, rec, field, nil, 1, false)
}

// shape builds the output object. depth is the number of relation hops
// still allowed when sel is nil; a record reached through an expanded
// relation is marked expanded so expansion never repeats.
func (r *Resolver) shape(t *schema.Type, rec ir.IRObject, sel Selection, depth int, expanded bool) (ir.IRObject, error) {
	if sel != nil {
		out := make(ir.IRObject, len(sel))
		for name, sub := range sel {
			v, err := r.field(t, rec, name, sub, 1, expanded)
			if err != nil {
				return nil, err
			}
			out[name] = v
		}
		return out, nil
	}

	out := make(ir.IRObject, len(rec)+len(t.Rules))
	for k, v := range rec {
		if v == nil {
			v = ir.IRNull{}
		}
		out[k] = ir.CloneValue(v)
	}
	for _, rule := range t.Rules {
		out[rule.Name] = applyRule(rule, rec)
	}
	if depth > 0 {
		for _, rel := range t.Relations {
			v, err := r.relation(rel, rec, nil, depth, expanded)
			if err != nil {
				return nil, err
			}
			out[rel.Name] = v
		}
		for _, name := range t.Derived {
			v, err := r.derivers[name](t, rec)
			if err != nil {
				return nil, err
			}
			out[name] = v
		}
	}
	if t.Name == ResourceType {
		out[variant.TypenameField] = ir.IRString(r.typename(t, rec))
	}
	return out, nil
}

func (r *Resolver) field(t *schema.Type, rec ir.IRObject, name string, sub Selection, depth int, expanded bool) (ir.IRValue, error) {
	if name == variant.TypenameField {
		return ir.IRString(r.typename(t, rec)), nil
	}
	if rel, ok := t.Relation(name); ok {
		return r.relation(rel, rec, sub, depth, expanded)
	}
	if t.IsDerived(name) {
		v, err := r.derivers[name](t, rec)
		if err != nil {
			return nil, err
		}
		return project(v, sub), nil
	}
	if rule, ok := t.Rule(name); ok {
		return project(applyRule(rule, rec), sub), nil
	}
	if v, ok := rec[name]; ok && v != nil {
		return project(ir.CloneValue(v), sub), nil
	}
	return ir.IRNull{}, nil
}

func (r *Resolver) typename(t *schema.Type, rec ir.IRObject) string {
	if t.Name == ResourceType {
		return r.variants.Resource(rec)
	}
	if tag, ok := rec.String(variant.TypenameField); ok && tag != "" {
		return tag
	}
	return t.Name
}

// applyRule reads a field through its rule: the stored value when it
// qualifies under the rule's mode, else the first qualifying alias, else
// the default.
func applyRule(rule schema.FieldRule, rec ir.IRObject) ir.IRValue {
	if rule.Mode == schema.Constant {
		return ir.CloneValue(rule.Default)
	}
	if v := rec[rule.Name]; qualifies(rule.Mode, v) {
		return ir.CloneValue(v)
	}
	for _, alias := range rule.Aliases {
		if v := rec[alias]; qualifies(rule.Mode, v) {
			return ir.CloneValue(v)
		}
	}
	if rule.Default == nil {
		return ir.IRNull{}
	}
	return ir.CloneValue(rule.Default)
}

func qualifies(mode schema.Mode, v ir.IRValue) bool {
	if mode == schema.Nullish {
		switch v.(type) {
		case nil, ir.IRNull:
			return false
		}
		return true
	}
	return ir.Truthy(v)
}
