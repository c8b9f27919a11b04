// Package filter evaluates queryir predicates against record collections and
// translates API filter inputs into predicates.
package filter

import (
	"fmt"

	"github.com/CoMatu/test-gql-server/internal/ir"
	"github.com/CoMatu/test-gql-server/internal/queryir"
)

// Source supplies the live records of a named collection.
// Ref predicates use it to scan their secondary collection.
type Source interface {
	Live(collection string) ([]ir.IRObject, error)
}

// Matcher tests one record. It is produced by Compile and holds any
// secondary id sets already materialised, so it is cheap to apply to every
// record of a scan.
type Matcher func(rec ir.IRObject) bool

// Compile turns a predicate into a Matcher. Every Ref is resolved here by
// scanning its collection once; the resulting Matcher never touches the
// Source again. A nil predicate matches everything.
//
// Compile must run before the caller locks the primary collection so a Ref
// back into the same collection cannot deadlock.
func Compile(src Source, pred queryir.Predicate) (Matcher, error) {
	if pred == nil {
		return matchAll, nil
	}

	switch p := pred.(type) {
	case queryir.Equals:
		return compileEquals(p), nil
	case *queryir.Equals:
		return compileEquals(*p), nil
	case queryir.In:
		return compileIn(p.Field, p.Values, false), nil
	case *queryir.In:
		return compileIn(p.Field, p.Values, false), nil
	case queryir.NotIn:
		return compileIn(p.Field, p.Values, true), nil
	case *queryir.NotIn:
		return compileIn(p.Field, p.Values, true), nil
	case queryir.And:
		return compileAnd(src, p)
	case *queryir.And:
		return compileAnd(src, *p)
	case queryir.Ref:
		return compileRef(src, p)
	case *queryir.Ref:
		return compileRef(src, *p)
	default:
		return nil, fmt.Errorf("unsupported predicate type: %T", pred)
	}
}

// Evaluate runs a Select against the source and returns the matching live
// records in collection order. The result is never nil.
func Evaluate(src Source, q queryir.Query) ([]ir.IRObject, error) {
	var sel queryir.Select
	switch query := q.(type) {
	case queryir.Select:
		sel = query
	case *queryir.Select:
		sel = *query
	default:
		return nil, fmt.Errorf("unsupported query type: %T", q)
	}

	match, err := Compile(src, sel.Filter)
	if err != nil {
		return nil, err
	}

	records, err := src.Live(sel.From)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", sel.From, err)
	}
	return Apply(match, records), nil
}

// Apply keeps the records that satisfy match, preserving order.
func Apply(match Matcher, records []ir.IRObject) []ir.IRObject {
	out := make([]ir.IRObject, 0, len(records))
	for _, rec := range records {
		if match(rec) {
			out = append(out, rec)
		}
	}
	return out
}

func matchAll(ir.IRObject) bool { return true }

func compileEquals(eq queryir.Equals) Matcher {
	return func(rec ir.IRObject) bool {
		return ir.Equal(rec[eq.Field], eq.Value)
	}
}

// compileIn builds set membership. An empty set is no restriction in both
// directions.
func compileIn(field string, values []ir.IRValue, negate bool) Matcher {
	if len(values) == 0 {
		return matchAll
	}
	set := newValueSet(values)
	return func(rec ir.IRObject) bool {
		v, ok := rec[field]
		found := ok && set.contains(v)
		return found != negate
	}
}

func compileAnd(src Source, and queryir.And) (Matcher, error) {
	matchers := make([]Matcher, 0, len(and.Predicates))
	for i, sub := range and.Predicates {
		if sub == nil {
			return nil, fmt.Errorf("and[%d]: nil predicate", i)
		}
		m, err := Compile(src, sub)
		if err != nil {
			return nil, fmt.Errorf("and[%d]: %w", i, err)
		}
		matchers = append(matchers, m)
	}
	return func(rec ir.IRObject) bool {
		for _, m := range matchers {
			if !m(rec) {
				return false
			}
		}
		return true
	}, nil
}

func compileRef(src Source, ref queryir.Ref) (Matcher, error) {
	ids, err := Evaluate(src, queryir.Select{From: ref.Collection, Filter: ref.Where})
	if err != nil {
		return nil, fmt.Errorf("ref %s.%s: %w", ref.Collection, ref.Field, err)
	}

	eligible := make([]ir.IRValue, 0, len(ids))
	for _, rec := range ids {
		if id, ok := rec["id"]; ok {
			eligible = append(eligible, id)
		}
	}
	set := newValueSet(eligible)
	return func(rec ir.IRObject) bool {
		v, ok := rec[ref.Field]
		return ok && set.contains(v)
	}, nil
}

// valueSet indexes values by canonical encoding so membership is a map hit.
type valueSet map[string]struct{}

func newValueSet(values []ir.IRValue) valueSet {
	set := make(valueSet, len(values))
	for _, v := range values {
		set[valueKey(v)] = struct{}{}
	}
	return set
}

func (s valueSet) contains(v ir.IRValue) bool {
	_, ok := s[valueKey(v)]
	return ok
}

// valueKey prefixes the canonical bytes with the dynamic type so that
// IRInt(1) and IRDecimal("1") stay distinct, as in ir.Equal.
func valueKey(v ir.IRValue) string {
	b, err := ir.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%T:%v", v, v)
	}
	return fmt.Sprintf("%T:%s", v, b)
}
