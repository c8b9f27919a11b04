package schema

import (
	_ "embed"
	"fmt"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/CoMatu/test-gql-server/internal/ir"
)

//go:embed schema.cue
var schemaCUE []byte

// Mode selects when a field default applies.
type Mode int

const (
	// Falsy applies the default when the stored value is null, missing,
	// "", 0 or false.
	Falsy Mode = iota
	// Nullish applies the default only when the stored value is null or
	// missing.
	Nullish
	// Constant ignores the stored value entirely.
	Constant
)

// FieldRule describes how to read one field of an output type.
type FieldRule struct {
	Name    string
	Default ir.IRValue
	Mode    Mode
	Aliases []string // fallback source fields, tried in order
}

// RelationKind is the cardinality of a relation.
type RelationKind string

const (
	One  RelationKind = "one"
	Many RelationKind = "many"
	All  RelationKind = "all" // every live record of the collection
)

// Relation is a foreign-key reference.
type Relation struct {
	Name        string
	Kind        RelationKind
	Collection  string
	IDField     string // "<name>Id" for one, "<name>Ids" list for many
	Placeholder string // placeholder type when the relation is required
	Wrap        string // envelope type ("ResourceItem") or empty
	Shape       string // output type applied to the referenced record
	Expand      bool   // resolve the referenced record's own relations too
}

// Required reports whether an unresolved reference yields a placeholder
// rather than null.
func (r Relation) Required() bool { return r.Placeholder != "" }

// Type is the rule set of one output type.
type Type struct {
	Name      string
	Rules     []FieldRule
	Relations []Relation
	Derived   []string

	rules     map[string]FieldRule
	relations map[string]Relation
}

// Rule returns the rule for field.
func (t *Type) Rule(field string) (FieldRule, bool) {
	r, ok := t.rules[field]
	return r, ok
}

// Relation returns the relation named field.
func (t *Type) Relation(field string) (Relation, bool) {
	r, ok := t.relations[field]
	return r, ok
}

// IsDerived reports whether field is computed in Go.
func (t *Type) IsDerived(field string) bool {
	return slices.Contains(t.Derived, field)
}

// Payload names the success and error variants of a mutation payload union.
type Payload struct {
	Name    string
	Success string
	Error   string
}

// Mutation describes a mutable entity.
type Mutation struct {
	Name       string
	Collection string
	Entity     string
	Payload    string
	NotFound   string // fmt pattern with one %s for the id
	Fields     []string
}

// ResourceUnion configures the person-vs-resource discrimination.
type ResourceUnion struct {
	DefaultType  string
	PersonType   string
	PersonFields []string
}

// Schema is the evaluated contract.
type Schema struct {
	Types         map[string]*Type
	Placeholders  map[string]ir.IRObject
	Enums         map[string][]string
	Payloads      map[string]Payload
	Mutations     map[string]Mutation
	ResourceUnion ResourceUnion
}

// Type returns the rules of an output type.
func (s *Schema) Type(name string) (*Type, error) {
	t, ok := s.Types[name]
	if !ok {
		return nil, fmt.Errorf("unknown type %q", name)
	}
	return t, nil
}

// Placeholder returns a fresh copy of the placeholder record for a type.
func (s *Schema) Placeholder(name string) (ir.IRObject, bool) {
	p, ok := s.Placeholders[name]
	return p.Clone(), ok
}

// Source returns the embedded schema text.
func Source() []byte {
	return slices.Clone(schemaCUE)
}

// Load evaluates the embedded schema.
func Load() (*Schema, error) {
	return Parse(schemaCUE, "schema.cue")
}

// Parse evaluates CUE source into a Schema and checks its internal
// references (placeholder, shape and payload names).
func Parse(src []byte, filename string) (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	s := &Schema{
		Types:        map[string]*Type{},
		Placeholders: map[string]ir.IRObject{},
		Enums:        map[string][]string{},
		Payloads:     map[string]Payload{},
		Mutations:    map[string]Mutation{},
	}

	var err error
	if s.Types, err = parseTypes(v); err != nil {
		return nil, err
	}
	if s.Placeholders, err = parsePlaceholders(v); err != nil {
		return nil, err
	}
	if s.Enums, err = parseEnums(v); err != nil {
		return nil, err
	}
	if s.Payloads, err = parsePayloads(v); err != nil {
		return nil, err
	}
	if s.Mutations, err = parseMutations(v); err != nil {
		return nil, err
	}
	if s.ResourceUnion, err = parseResourceUnion(v); err != nil {
		return nil, err
	}

	if err := s.check(); err != nil {
		return nil, err
	}
	return s, nil
}

// check verifies that every name the schema refers to is defined.
func (s *Schema) check() error {
	for _, t := range s.Types {
		for _, rel := range t.Relations {
			if rel.Placeholder != "" {
				if _, ok := s.Placeholders[rel.Placeholder]; !ok {
					return &CompileError{
						Field:   fmt.Sprintf("types.%s.relations.%s.placeholder", t.Name, rel.Name),
						Message: fmt.Sprintf("no placeholder named %q", rel.Placeholder),
					}
				}
			}
			for _, ref := range []string{rel.Shape, rel.Wrap} {
				if ref == "" {
					continue
				}
				if _, ok := s.Types[ref]; !ok {
					return &CompileError{
						Field:   fmt.Sprintf("types.%s.relations.%s", t.Name, rel.Name),
						Message: fmt.Sprintf("unknown type %q", ref),
					}
				}
			}
			if rel.Kind != All && rel.IDField == "" {
				return &CompileError{
					Field:   fmt.Sprintf("types.%s.relations.%s.idField", t.Name, rel.Name),
					Message: "idField is required",
				}
			}
		}
	}

	for _, m := range s.Mutations {
		p, ok := s.Payloads[m.Payload]
		if !ok {
			return &CompileError{
				Field:   fmt.Sprintf("mutations.%s.payload", m.Name),
				Message: fmt.Sprintf("unknown payload %q", m.Payload),
			}
		}
		if _, ok := s.Types[p.Success]; !ok {
			return &CompileError{
				Field:   fmt.Sprintf("payloads.%s.success", p.Name),
				Message: fmt.Sprintf("unknown type %q", p.Success),
			}
		}
	}

	if _, ok := s.Enums["ResourceType"]; !ok {
		return &CompileError{Field: "enums.ResourceType", Message: "ResourceType enum is required"}
	}
	if !slices.Contains(s.Enums["ResourceType"], s.ResourceUnion.DefaultType) {
		return &CompileError{
			Field:   "resourceUnion.defaultType",
			Message: fmt.Sprintf("%q is not a ResourceType", s.ResourceUnion.DefaultType),
		}
	}
	return nil
}
