package harness

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/CoMatu/test-gql-server/internal/ir"
	"github.com/CoMatu/test-gql-server/internal/store"
	"github.com/CoMatu/test-gql-server/internal/variant"
)

// checkExpect compares a step's outcome with its expectation and records
// every mismatch on result.
func checkExpect(result *Result, i int, step Step, sr StepResult) {
	prefix := fmt.Sprintf("steps[%d] %s", i, step.Op)
	exp := step.Expect

	if exp != nil && exp.Error != "" {
		switch {
		case sr.Err == "":
			result.AddError("%s: expected error containing %q, got success", prefix, exp.Error)
		case !strings.Contains(sr.Err, exp.Error):
			result.AddError("%s: expected error containing %q, got %q", prefix, exp.Error, sr.Err)
		}
		return
	}
	if sr.Err != "" {
		result.AddError("%s: unexpected error: %s", prefix, sr.Err)
		return
	}
	if exp == nil {
		return
	}

	if exp.Typename != "" {
		obj, _ := sr.Value.(ir.IRObject)
		if got, _ := obj.String(variant.TypenameField); got != exp.Typename {
			result.AddError("%s: typename: expected %s, got %q", prefix, exp.Typename, got)
		}
	}

	if exp.Deleted != nil {
		if got, ok := sr.Value.(ir.IRBool); !ok || bool(got) != *exp.Deleted {
			result.AddError("%s: deleted: expected %v, got %v", prefix, *exp.Deleted, sr.Value)
		}
	}

	rows, isRows := sr.Value.(ir.IRArray)
	if exp.Count != nil && (!isRows || len(rows) != *exp.Count) {
		result.AddError("%s: count: expected %d, got %d", prefix, *exp.Count, len(rows))
	}
	if exp.IDs != nil {
		if got := rowIDs(rows); !slices.Equal(got, exp.IDs) {
			result.AddError("%s: ids: expected %v, got %v", prefix, exp.IDs, got)
		}
	}

	if exp.Fields != nil {
		target, _ := sr.Value.(ir.IRObject)
		if isRows {
			if len(rows) == 0 {
				result.AddError("%s: fields: no rows", prefix)
				return
			}
			target, _ = rows[0].(ir.IRObject)
		}
		if err := matchFields(target, exp.Fields); err != nil {
			result.AddError("%s: %v", prefix, err)
		}
	}
}

// checkAssertion checks one stored record. Liveness is read through the
// store; fields are read from the persisted copy.
func checkAssertion(st *store.Store, p store.Persister, a Assertion) error {
	if a.Live != nil {
		coll, err := st.Collection(a.Collection)
		if err != nil {
			return err
		}
		if _, live := coll.Get(a.ID); live != *a.Live {
			return fmt.Errorf("%s/%s: live: expected %v, got %v", a.Collection, a.ID, *a.Live, live)
		}
	}

	if a.Fields == nil {
		return nil
	}
	recs, err := p.Load(a.Collection)
	if errors.Is(err, store.ErrNoCollection) {
		return fmt.Errorf("%s: nothing stored", a.Collection)
	}
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if id, _ := rec.String("id"); id == a.ID {
			if err := matchFields(rec, a.Fields); err != nil {
				return fmt.Errorf("%s/%s: %w", a.Collection, a.ID, err)
			}
			return nil
		}
	}
	return fmt.Errorf("%s/%s: not stored", a.Collection, a.ID)
}

// matchFields checks that every expected field equals the record's value.
// An expected null also matches a missing field.
func matchFields(rec ir.IRObject, want map[string]any) error {
	keys := make([]string, 0, len(want))
	for k := range want {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		w, err := ir.FromAny(want[k])
		if err != nil {
			return fmt.Errorf("field %s: %w", k, err)
		}
		if got := rec[k]; !ir.Equal(w, got) {
			errs = append(errs, fmt.Errorf("field %s: expected %s, got %s", k, render(w), render(got)))
		}
	}
	return errors.Join(errs...)
}

// rowIDs returns each row's id. A ResourceItem envelope has no id of its
// own and reports its resource's.
func rowIDs(rows ir.IRArray) []string {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		obj, _ := row.(ir.IRObject)
		id, ok := obj.String("id")
		if !ok {
			inner, _ := obj.Object("resource")
			id, _ = inner.String("id")
		}
		ids = append(ids, id)
	}
	return ids
}

func render(v ir.IRValue) string {
	b, err := ir.MarshalIRValue(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
