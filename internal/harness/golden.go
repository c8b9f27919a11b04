package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/CoMatu/test-gql-server/internal/ir"
)

// Snapshot renders a result as canonical JSON:
//
//	{"scenario": name, "state": {collection: [records]}, "steps": [{"op", "result" | "error"}]}
//
// Query rows are reduced to their ids so that snapshots do not churn when
// output shaping changes; the stored state carries the full records.
func Snapshot(name string, result *Result) ([]byte, error) {
	steps := make(ir.IRArray, len(result.Steps))
	for i, sr := range result.Steps {
		step := ir.IRObject{"op": ir.IRString(sr.Op)}
		switch {
		case sr.Err != "":
			step["error"] = ir.IRString(sr.Err)
		default:
			step["result"] = snapshotValue(sr.Value)
		}
		steps[i] = step
	}

	state := ir.IRObject{}
	for coll, recs := range result.State {
		arr := make(ir.IRArray, len(recs))
		for i, rec := range recs {
			arr[i] = rec
		}
		state[coll] = arr
	}

	out, err := ir.MarshalCanonical(ir.IRObject{
		"scenario": ir.IRString(name),
		"state":    state,
		"steps":    steps,
	})
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

func snapshotValue(v ir.IRValue) ir.IRValue {
	rows, ok := v.(ir.IRArray)
	if !ok {
		return v
	}
	ids := make(ir.IRArray, 0, len(rows))
	for _, id := range rowIDs(rows) {
		ids = append(ids, ir.IRString(id))
	}
	return ids
}

// RunWithGolden runs scenario and compares its snapshot with
// testdata/golden/<scenario.Name>.golden. Failed expectations fail t.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, e := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, e)
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result with its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
