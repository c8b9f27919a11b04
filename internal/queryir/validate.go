package queryir

import (
	"fmt"
)

// ValidationResult lists structural problems found in a query.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems describes every defect, in traversal order.
	Problems []string
}

// Validate checks a query for structural defects: empty field or collection
// names, nil predicates inside And, and Ref targets not in collections.
// A nil collections set skips the collection-name check.
//
// Validate is a pure function with no side effects.
func Validate(query Query, collections map[string]bool) ValidationResult {
	v := &validator{
		problems:    []string{},
		collections: collections,
	}
	v.validateQuery(query)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

type validator struct {
	problems    []string
	collections map[string]bool
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) checkCollection(name string) {
	if name == "" {
		v.addProblem("empty collection name")
		return
	}
	if v.collections != nil && !v.collections[name] {
		v.addProblem("unknown collection %q", name)
	}
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addProblem("nil query")
	case Select:
		v.validateSelect(query)
	case *Select:
		v.validateSelect(*query)
	default:
		v.addProblem("unknown query type: %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	v.checkCollection(sel.From)
	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		v.addProblem("nil predicate")
	case Equals:
		v.checkField("Equals", pred.Field)
	case *Equals:
		v.checkField("Equals", pred.Field)
	case In:
		v.checkField("In", pred.Field)
	case *In:
		v.checkField("In", pred.Field)
	case NotIn:
		v.checkField("NotIn", pred.Field)
	case *NotIn:
		v.checkField("NotIn", pred.Field)
	case And:
		v.validateAnd(pred)
	case *And:
		v.validateAnd(*pred)
	case Ref:
		v.validateRef(pred)
	case *Ref:
		v.validateRef(*pred)
	default:
		v.addProblem("unknown predicate type: %T", p)
	}
}

func (v *validator) checkField(kind, field string) {
	if field == "" {
		v.addProblem("%s with empty field name", kind)
	}
}

func (v *validator) validateAnd(and And) {
	for _, sub := range and.Predicates {
		v.validatePredicate(sub)
	}
}

func (v *validator) validateRef(ref Ref) {
	v.checkField("Ref", ref.Field)
	v.checkCollection(ref.Collection)
	if ref.Where != nil {
		v.validatePredicate(ref.Where)
	}
}
