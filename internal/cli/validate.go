package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CoMatu/test-gql-server/internal/store"
)

// ValidationResult reports the state of the stored dataset.
type ValidationResult struct {
	Valid    bool           `json:"valid"`
	Live     map[string]int `json:"live"`
	Problems []string       `json:"problems,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the stored dataset",
		Long: `Load every collection and report records that can never be addressed,
such as records without a string id. Unreadable collection files are
logged and loaded as empty.

Exit codes:
  0 - Dataset is valid
  1 - One or more problems found
  2 - Command error (bad config, store cannot be opened)`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd)
		},
	}
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	a, err := openApp(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	result := ValidationResult{Valid: true, Live: map[string]int{}}
	for _, spec := range store.Collections {
		coll, err := a.store.Collection(spec.Name)
		if err != nil {
			return err
		}
		result.Live[spec.Name] = len(coll.All())
		formatter.VerboseLog("%s: %d live record(s)", spec.Name, result.Live[spec.Name])
	}

	if err := a.engine.CheckStoredData(); err != nil {
		result.Valid = false
		for _, problem := range splitErrors(err) {
			result.Problems = append(result.Problems, problem.Error())
		}
	}

	if opts.Format == "json" {
		if result.Valid {
			return formatter.Success(result)
		}
		_ = formatter.Error(ErrCodeData, fmt.Sprintf("%d problem(s) found", len(result.Problems)), result)
		return NewExitError(ExitFailure, "stored data is malformed")
	}

	w := cmd.OutOrStdout()
	if result.Valid {
		fmt.Fprintln(w, "\u2713 Dataset valid")
		return nil
	}
	fmt.Fprintf(w, "\u2717 %d problem(s) found:\n", len(result.Problems))
	for _, p := range result.Problems {
		fmt.Fprintf(w, "  %s\n", p)
	}
	return NewExitError(ExitFailure, "stored data is malformed")
}
