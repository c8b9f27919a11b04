package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/CoMatu/test-gql-server/internal/ir"
)

func parseTypes(root cue.Value) (map[string]*Type, error) {
	types := map[string]*Type{}

	typesVal := root.LookupPath(cue.ParsePath("types"))
	if !typesVal.Exists() {
		return nil, &CompileError{Field: "types", Message: "types is required", Pos: root.Pos()}
	}

	iter, err := typesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		t, err := parseType(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		types[t.Name] = t
	}
	return types, nil
}

func parseType(name string, v cue.Value) (*Type, error) {
	t := &Type{
		Name:      name,
		rules:     map[string]FieldRule{},
		relations: map[string]Relation{},
	}

	add := func(rule FieldRule) error {
		if _, dup := t.rules[rule.Name]; dup {
			return &CompileError{
				Field:   fmt.Sprintf("types.%s.%s", name, rule.Name),
				Message: "field has more than one rule",
				Pos:     v.Pos(),
			}
		}
		t.rules[rule.Name] = rule
		t.Rules = append(t.Rules, rule)
		return nil
	}

	for _, section := range []struct {
		label string
		mode  Mode
	}{
		{"defaults", Falsy},
		{"nullish", Nullish},
		{"constants", Constant},
	} {
		values, err := parseValueMap(v.LookupPath(cue.ParsePath(section.label)))
		if err != nil {
			return nil, err
		}
		for _, kv := range values {
			if err := add(FieldRule{Name: kv.name, Default: kv.value, Mode: section.mode}); err != nil {
				return nil, err
			}
		}
	}

	if aliasesVal := v.LookupPath(cue.ParsePath("aliases")); aliasesVal.Exists() {
		iter, err := aliasesVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			field := iter.Label()
			aliases, err := parseStrings(iter.Value())
			if err != nil {
				return nil, err
			}
			rule, ok := t.rules[field]
			if !ok {
				if err := add(FieldRule{Name: field, Default: ir.IRNull{}, Mode: Falsy}); err != nil {
					return nil, err
				}
				rule = t.rules[field]
			}
			rule.Aliases = aliases
			t.rules[field] = rule
			for i := range t.Rules {
				if t.Rules[i].Name == field {
					t.Rules[i] = rule
				}
			}
		}
	}

	if relVal := v.LookupPath(cue.ParsePath("relations")); relVal.Exists() {
		iter, err := relVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			rel, err := parseRelation(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			t.relations[rel.Name] = rel
			t.Relations = append(t.Relations, rel)
		}
	}

	if derivedVal := v.LookupPath(cue.ParsePath("derived")); derivedVal.Exists() {
		derived, err := parseStrings(derivedVal)
		if err != nil {
			return nil, err
		}
		t.Derived = derived
	}

	return t, nil
}

func parseRelation(name string, v cue.Value) (Relation, error) {
	rel := Relation{Name: name, Kind: One}

	var err error
	if rel.Collection, err = requiredString(v, "collection"); err != nil {
		return rel, err
	}
	if kind, ok, err := optionalString(v, "kind"); err != nil {
		return rel, err
	} else if ok {
		rel.Kind = RelationKind(kind)
	}
	for _, f := range []struct {
		label string
		dst   *string
	}{
		{"idField", &rel.IDField},
		{"placeholder", &rel.Placeholder},
		{"wrap", &rel.Wrap},
		{"shape", &rel.Shape},
	} {
		s, _, err := optionalString(v, f.label)
		if err != nil {
			return rel, err
		}
		*f.dst = s
	}
	if expandVal := v.LookupPath(cue.ParsePath("expand")); expandVal.Exists() {
		if rel.Expand, err = expandVal.Bool(); err != nil {
			return rel, formatCUEError(err)
		}
	}
	return rel, nil
}

func parsePlaceholders(root cue.Value) (map[string]ir.IRObject, error) {
	out := map[string]ir.IRObject{}
	values, err := parseValueMap(root.LookupPath(cue.ParsePath("placeholders")))
	if err != nil {
		return nil, err
	}
	for _, kv := range values {
		obj, ok := kv.value.(ir.IRObject)
		if !ok {
			return nil, &CompileError{Field: "placeholders." + kv.name, Message: "placeholder must be a struct"}
		}
		out[kv.name] = obj
	}
	return out, nil
}

func parseEnums(root cue.Value) (map[string][]string, error) {
	out := map[string][]string{}
	enumsVal := root.LookupPath(cue.ParsePath("enums"))
	if !enumsVal.Exists() {
		return out, nil
	}
	iter, err := enumsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		vals, err := parseStrings(iter.Value())
		if err != nil {
			return nil, err
		}
		out[iter.Label()] = vals
	}
	return out, nil
}

func parsePayloads(root cue.Value) (map[string]Payload, error) {
	out := map[string]Payload{}
	payloadsVal := root.LookupPath(cue.ParsePath("payloads"))
	if !payloadsVal.Exists() {
		return out, nil
	}
	iter, err := payloadsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		p := Payload{Name: iter.Label()}
		if p.Success, err = requiredString(iter.Value(), "success"); err != nil {
			return nil, err
		}
		if p.Error, err = requiredString(iter.Value(), "error"); err != nil {
			return nil, err
		}
		out[p.Name] = p
	}
	return out, nil
}

func parseMutations(root cue.Value) (map[string]Mutation, error) {
	out := map[string]Mutation{}
	mutationsVal := root.LookupPath(cue.ParsePath("mutations"))
	if !mutationsVal.Exists() {
		return out, nil
	}
	iter, err := mutationsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		v := iter.Value()
		m := Mutation{Name: iter.Label()}
		for _, f := range []struct {
			label string
			dst   *string
		}{
			{"collection", &m.Collection},
			{"entity", &m.Entity},
			{"payload", &m.Payload},
			{"notFound", &m.NotFound},
		} {
			if *f.dst, err = requiredString(v, f.label); err != nil {
				return nil, err
			}
		}
		if m.Fields, err = parseStrings(v.LookupPath(cue.ParsePath("fields"))); err != nil {
			return nil, err
		}
		out[m.Name] = m
	}
	return out, nil
}

func parseResourceUnion(root cue.Value) (ResourceUnion, error) {
	var u ResourceUnion
	v := root.LookupPath(cue.ParsePath("resourceUnion"))
	if !v.Exists() {
		return u, &CompileError{Field: "resourceUnion", Message: "resourceUnion is required", Pos: root.Pos()}
	}

	var err error
	if u.DefaultType, err = requiredString(v, "defaultType"); err != nil {
		return u, err
	}
	if u.PersonType, err = requiredString(v, "personType"); err != nil {
		return u, err
	}
	if u.PersonFields, err = parseStrings(v.LookupPath(cue.ParsePath("personFields"))); err != nil {
		return u, err
	}
	return u, nil
}

type namedValue struct {
	name  string
	value ir.IRValue
}

// parseValueMap converts a struct of arbitrary values, keeping declaration
// order. A missing struct yields nothing.
func parseValueMap(v cue.Value) ([]namedValue, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []namedValue
	for iter.Next() {
		val, err := toIR(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, namedValue{name: iter.Label(), value: val})
	}
	return out, nil
}

// toIR converts a concrete CUE value into an IRValue.
func toIR(v cue.Value) (ir.IRValue, error) {
	switch v.Kind() {
	case cue.NullKind:
		return ir.IRNull{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRBool(b), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRString(s), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRInt(n), nil
	case cue.FloatKind, cue.NumberKind:
		lit, err := v.MarshalJSON()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.IRDecimal(lit), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		arr := ir.IRArray{}
		for iter.Next() {
			elem, err := toIR(iter.Value())
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		return arr, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		obj := ir.IRObject{}
		for iter.Next() {
			elem, err := toIR(iter.Value())
			if err != nil {
				return nil, err
			}
			obj[iter.Label()] = elem
		}
		return obj, nil
	default:
		return nil, &CompileError{
			Field:   v.Path().String(),
			Message: fmt.Sprintf("unsupported value kind %s", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

func parseStrings(v cue.Value) ([]string, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

func requiredString(v cue.Value, label string) (string, error) {
	s, ok, err := optionalString(v, label)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &CompileError{
			Field:   fmt.Sprintf("%s.%s", v.Path().String(), label),
			Message: label + " is required",
			Pos:     v.Pos(),
		}
	}
	return s, nil
}

func optionalString(v cue.Value, label string) (string, bool, error) {
	field := v.LookupPath(cue.ParsePath(label))
	if !field.Exists() {
		return "", false, nil
	}
	s, err := field.String()
	if err != nil {
		return "", false, formatCUEError(err)
	}
	return s, true, nil
}

// CompileError represents a schema evaluation error with location info.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
