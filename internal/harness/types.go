package harness

import (
	"fmt"

	"github.com/CoMatu/test-gql-server/internal/ir"
)

// StepResult records what one step returned.
type StepResult struct {
	Op string

	// Value is the payload, the delete flag, or the query rows as an
	// IRArray. Nil when the step failed.
	Value ir.IRValue

	// Err is the error text of a failed step.
	Err string
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool

	Steps  []StepResult
	Errors []string

	// State holds the persisted records of every collection the run
	// stored, deleted records included.
	State map[string][]ir.IRObject
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepResult{},
		Errors: []string{},
		State:  map[string][]ir.IRObject{},
	}
}

// AddError records a failure.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}
