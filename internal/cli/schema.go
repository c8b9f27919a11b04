package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CoMatu/test-gql-server/internal/schema"
)

// SchemaSummary lists what the embedded schema declares.
type SchemaSummary struct {
	Types     []string            `json:"types"`
	Enums     map[string][]string `json:"enums"`
	Mutations map[string][]string `json:"mutations"`
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	var source bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the output type contract",
		Long: `Print the output types, enumerations and mutable entities declared by
the embedded CUE schema. --source prints the schema text itself.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if source {
				_, err := cmd.OutOrStdout().Write(schema.Source())
				return err
			}
			return runSchema(rootOpts, cmd)
		},
	}

	cmd.Flags().BoolVar(&source, "source", false, "print the CUE source")

	return cmd
}

func runSchema(opts *RootOptions, cmd *cobra.Command) error {
	s, err := schema.Load()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load schema", err)
	}
	summary := Summarize(s)

	if opts.Format == "json" {
		return newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr()).Success(summary)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Types (%d):\n", len(summary.Types))
	for _, name := range summary.Types {
		fmt.Fprintf(w, "  %s\n", name)
	}
	fmt.Fprintln(w, "Enums:")
	for _, name := range sortedKeys(summary.Enums) {
		fmt.Fprintf(w, "  %s: %s\n", name, strings.Join(summary.Enums[name], ", "))
	}
	fmt.Fprintln(w, "Mutations:")
	for _, name := range sortedKeys(summary.Mutations) {
		fmt.Fprintf(w, "  %s: %s\n", name, strings.Join(summary.Mutations[name], ", "))
	}
	return nil
}

// Summarize lists the schema's types, enums and mutation fields in a
// stable order.
func Summarize(s *schema.Schema) SchemaSummary {
	summary := SchemaSummary{
		Types:     sortedKeys(s.Types),
		Enums:     make(map[string][]string, len(s.Enums)),
		Mutations: make(map[string][]string, len(s.Mutations)),
	}
	for name, values := range s.Enums {
		summary.Enums[name] = slices.Clone(values)
	}
	for name, m := range s.Mutations {
		summary.Mutations[name] = slices.Clone(m.Fields)
	}
	return summary
}

// sortedKeys returns m's keys in ascending order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
