package harness

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/CoMatu/test-gql-server/internal/engine"
	"github.com/CoMatu/test-gql-server/internal/ir"
	"github.com/CoMatu/test-gql-server/internal/resolver"
	"github.com/CoMatu/test-gql-server/internal/schema"
	"github.com/CoMatu/test-gql-server/internal/store"
	"github.com/CoMatu/test-gql-server/internal/testutil"
)

// Harness runs scenarios against one schema.
type Harness struct {
	schema *schema.Schema
	logger *slog.Logger
}

// New creates a Harness. A nil schema loads the embedded one; a nil
// logger discards output.
func New(s *schema.Schema, logger *slog.Logger) (*Harness, error) {
	if s == nil {
		var err error
		if s, err = schema.Load(); err != nil {
			return nil, fmt.Errorf("load schema: %w", err)
		}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Harness{schema: s, logger: logger}, nil
}

// Run executes a scenario with the embedded schema.
func Run(scenario *Scenario) (*Result, error) {
	h, err := New(nil, nil)
	if err != nil {
		return nil, err
	}
	return h.Run(scenario)
}

// Run executes scenario in a fresh in-memory store.
//
// The returned error covers setup problems only. Failed expectations and
// assertions are reported in Result.Errors.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	seed, err := convertSeed(scenario.Seed)
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}

	mem := store.NewMemory(seed)
	clock := testutil.NewFixedClock(time.Time{}, time.Second)
	st := store.Open(mem, clock, h.logger)
	defer st.Close()

	eng, err := engine.New(st, h.schema,
		engine.WithIDGenerator(newScenarioIDs(scenario.IDs)),
		engine.WithClock(clock),
		engine.WithLogger(h.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		sr, err := h.runStep(eng, step)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		result.Steps = append(result.Steps, sr)
		checkExpect(result, i, step, sr)

		h.logger.Info("step completed", "step", i, "op", step.Op, "failed", sr.Err != "")
	}

	for i, a := range scenario.Assertions {
		if err := checkAssertion(st, mem, a); err != nil {
			result.AddError("assertions[%d]: %v", i, err)
		}
	}

	for _, c := range store.Collections {
		name := c.Name
		recs, err := mem.Load(name)
		if errors.Is(err, store.ErrNoCollection) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if _, seeded := scenario.Seed[name]; seeded || h.mutable(name) {
			result.State[name] = recs
		}
	}
	return result, nil
}

func (h *Harness) runStep(eng *engine.Engine, step Step) (StepResult, error) {
	sr := StepResult{Op: step.Op}

	if step.IsQuery() {
		var raw []byte
		if step.Filter != nil {
			var err error
			if raw, err = json.Marshal(step.Filter); err != nil {
				return sr, fmt.Errorf("filter: %w", err)
			}
		}
		rows, err := eng.RunQuery(step.Op, raw, resolver.SelectionFromPaths(step.Fields...))
		if err != nil {
			sr.Err = err.Error()
			return sr, nil
		}
		arr := make(ir.IRArray, len(rows))
		for i, row := range rows {
			arr[i] = row
		}
		sr.Value = arr
		return sr, nil
	}

	input, err := ir.ObjectFromAny(step.Input)
	if err != nil {
		return sr, fmt.Errorf("input: %w", err)
	}
	if input == nil {
		input = ir.IRObject{}
	}
	out, err := eng.RunMutation(step.Op, step.ID, input)
	if err != nil {
		sr.Err = err.Error()
		return sr, nil
	}
	sr.Value = out
	return sr, nil
}

// mutable reports whether a mutation writes to collection.
func (h *Harness) mutable(collection string) bool {
	for _, m := range h.schema.Mutations {
		if m.Collection == collection {
			return true
		}
	}
	return false
}

func convertSeed(seed map[string][]map[string]any) (map[string][]ir.IRObject, error) {
	out := make(map[string][]ir.IRObject, len(seed))
	for name, recs := range seed {
		objs := make([]ir.IRObject, 0, len(recs))
		for i, rec := range recs {
			obj, err := ir.ObjectFromAny(rec)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", name, i, err)
			}
			objs = append(objs, obj)
		}
		out[name] = objs
	}
	return out, nil
}

// scenarioIDs hands out a scenario's ids in order, then numbered
// fallbacks so a short list never aborts a run.
type scenarioIDs struct {
	ids      []string
	next     int
	fallback *testutil.SequentialIDs
}

func newScenarioIDs(ids []string) *scenarioIDs {
	return &scenarioIDs{ids: ids, fallback: testutil.NewSequentialIDs("generated")}
}

func (g *scenarioIDs) Generate() string {
	if g.next < len(g.ids) {
		g.next++
		return g.ids[g.next-1]
	}
	return g.fallback.Generate()
}
