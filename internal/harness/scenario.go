package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/CoMatu/test-gql-server/internal/engine"
	"github.com/CoMatu/test-gql-server/internal/store"
)

// Scenario is one executable contract test.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// IDs are handed out in order to create mutations.
	IDs []string `yaml:"ids,omitempty"`

	// Seed maps collection names to their initial records.
	Seed map[string][]map[string]any `yaml:"seed,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions check the stored state after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step runs one named query or mutation.
type Step struct {
	Op string `yaml:"op"`

	// Query arguments.
	Filter map[string]any `yaml:"filter,omitempty"`
	Fields []string       `yaml:"fields,omitempty"`

	// Mutation arguments.
	ID    string         `yaml:"id,omitempty"`
	Input map[string]any `yaml:"input,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the outcome of a step. Unset fields are not checked.
type Expect struct {
	// Typename is the __typename of a mutation payload.
	Typename string `yaml:"typename,omitempty"`

	// Fields is a subset match against the payload, or against the first
	// row of a query.
	Fields map[string]any `yaml:"fields,omitempty"`

	// Count is the number of query rows.
	Count *int `yaml:"count,omitempty"`

	// IDs are the query rows' ids, in order.
	IDs []string `yaml:"ids,omitempty"`

	// Deleted is the result of a delete mutation.
	Deleted *bool `yaml:"deleted,omitempty"`

	// Error, when set, expects the step to fail with an error containing it.
	Error string `yaml:"error,omitempty"`
}

// Assertion checks one stored record after the run.
type Assertion struct {
	Collection string `yaml:"collection"`
	ID         string `yaml:"id"`

	// Live, when set, checks whether the record is readable.
	Live *bool `yaml:"live,omitempty"`

	// Fields is a subset match against the stored record, deleted or not.
	Fields map[string]any `yaml:"fields,omitempty"`
}

// IsQuery reports whether the step runs a query.
func (s Step) IsQuery() bool {
	return slices.Contains(engine.QueryNames(), s.Op)
}

// LoadScenario reads and validates a scenario file. Unknown keys are
// rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FindScenarios returns the scenario files in dir whose base name matches
// pattern (a filepath.Match glob; empty matches all), sorted by path.
func FindScenarios(dir, pattern string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if pattern != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			ok, err := filepath.Match(pattern, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func validateScenario(s *Scenario) error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if s.Description == "" {
		errs = append(errs, errors.New("description is required"))
	}
	if len(s.Steps) == 0 {
		errs = append(errs, errors.New("steps list is required and must be non-empty"))
	}

	known := append(engine.QueryNames(), engine.MutationNames()...)
	for i, step := range s.Steps {
		if !slices.Contains(known, step.Op) {
			errs = append(errs, fmt.Errorf("steps[%d]: unknown op %q", i, step.Op))
			continue
		}
		if step.IsQuery() && (step.ID != "" || step.Input != nil) {
			errs = append(errs, fmt.Errorf("steps[%d]: query %s takes filter and fields only", i, step.Op))
		}
		if !step.IsQuery() && (step.Filter != nil || step.Fields != nil) {
			errs = append(errs, fmt.Errorf("steps[%d]: mutation %s takes id and input only", i, step.Op))
		}
	}

	collections := store.CollectionNames()
	for name := range s.Seed {
		if !collections[name] {
			errs = append(errs, fmt.Errorf("seed: unknown collection %q", name))
		}
	}
	for i, a := range s.Assertions {
		if !collections[a.Collection] {
			errs = append(errs, fmt.Errorf("assertions[%d]: unknown collection %q", i, a.Collection))
		}
		if a.ID == "" {
			errs = append(errs, fmt.Errorf("assertions[%d]: id is required", i))
		}
	}
	return errors.Join(errs...)
}
