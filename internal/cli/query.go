package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/CoMatu/test-gql-server/internal/engine"
	"github.com/CoMatu/test-gql-server/internal/ir"
	"github.com/CoMatu/test-gql-server/internal/resolver"
)

// queryAliases maps CLI names to query operations.
var queryAliases = map[string]string{
	"charges":           engine.QueryCharges,
	"pumps":             engine.QueryPumps,
	"complex-resources": engine.QueryComplexResources,
	"resources":         engine.QueryResources,
}

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Filter string
	Fields []string
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <charges|pumps|complex-resources|resources>",
		Short: "Run a query against the stored dataset",
		Long: `Run one of the read operations and print the resolved records.

The filter is the JSON filter input of the query. --fields limits the
output to dotted paths; without it every field is resolved.

Examples:
  gqlstore query charges
  gqlstore query complex-resources --filter '{"in":{"resourceTypes":["PaxBus"]}}'
  gqlstore query resources --fields resource.garageNumber,resourceType --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter as a JSON object")
	cmd.Flags().StringSliceVar(&opts.Fields, "fields", nil, "comma-separated dotted field paths to return")

	return cmd
}

func runQuery(opts *QueryOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	op, ok := queryAliases[name]
	if !ok {
		op = name
	}

	a, err := openApp(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	rows, err := a.engine.RunQuery(op, []byte(opts.Filter), resolver.SelectionFromPaths(opts.Fields...))
	if err != nil {
		return reportEngineError(formatter, err)
	}
	formatter.VerboseLog("%d record(s)", len(rows))

	out := make(ir.IRArray, len(rows))
	for i, row := range rows {
		out[i] = row
	}
	return formatter.Success(out)
}

// reportEngineError prints err and maps it to an exit code.
func reportEngineError(formatter *OutputFormatter, err error) error {
	switch {
	case errors.Is(err, engine.ErrUnknownOperation):
		_ = formatter.Error(ErrCodeOperation, err.Error(), nil)
		return WrapExitError(ExitCommandError, "unknown operation", err)
	case errors.Is(err, engine.ErrInvalidInput):
		_ = formatter.Error(ErrCodeInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid input", err)
	case engine.IsNotFound(err):
		_ = formatter.Error(string(engine.ErrCodeNotFound), err.Error(), nil)
		return WrapExitError(ExitFailure, "not found", err)
	default:
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "operation failed", err)
	}
}
