package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CoMatu/test-gql-server/internal/engine"
	"github.com/CoMatu/test-gql-server/internal/ir"
)

// mutationAliases maps CLI names to mutation operations.
var mutationAliases = map[string]string{
	"create-charge": engine.OpCreateCharge,
	"update-charge": engine.OpUpdateCharge,
	"delete-charge": engine.OpDeleteCharge,
	"create-pump":   engine.OpCreatePump,
	"update-pump":   engine.OpUpdatePump,
	"delete-pump":   engine.OpDeletePump,
}

// MutateOptions holds flags for the mutate command.
type MutateOptions struct {
	*RootOptions
	ID    string
	Input string
}

// NewMutateCommand creates the mutate command.
func NewMutateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MutateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "mutate <create-charge|update-charge|delete-charge|create-pump|update-pump|delete-pump>",
		Short: "Create, update or delete a charge or pump",
		Long: `Run a mutation and print its payload.

Create and update print the stored record tagged with its __typename.
Updating a record that does not exist prints the error variant and exits 1.
Delete prints true, or false when there was no live record to delete.

Exit codes:
  0 - Mutation applied
  1 - Record not found, or the store could not be written
  2 - Command error (unknown mutation, malformed input, missing --id)

Examples:
  gqlstore mutate create-charge --input '{"amount": 10, "vehicleId": "r1"}'
  gqlstore mutate update-pump --id p1 --input '{"amountAfterPump": 55.5}'
  gqlstore mutate delete-charge --id c1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMutate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "record id (update and delete)")
	cmd.Flags().StringVar(&opts.Input, "input", "", "mutation input as a JSON object")

	return cmd
}

func runMutate(opts *MutateOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	op, ok := mutationAliases[name]
	if !ok {
		op = name
	}

	input := ir.IRObject{}
	if opts.Input != "" {
		if err := json.Unmarshal([]byte(opts.Input), &input); err != nil {
			_ = formatter.Error(ErrCodeInput, "input must be a JSON object", err.Error())
			return WrapExitError(ExitCommandError, "invalid --input", err)
		}
	}

	a, err := openApp(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.engine.RunMutation(op, opts.ID, input)
	if err != nil {
		return reportEngineError(formatter, err)
	}
	if err := formatter.Success(out); err != nil {
		return err
	}

	if obj, ok := out.(ir.IRObject); ok {
		if msg, _ := obj.String("message"); msg != "" {
			return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", name, msg))
		}
	}
	return nil
}
