package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Config is an explicit config file path.
	Config string

	// DataDir and Backend override the config file when set.
	DataDir string
	Backend string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the gqlstore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "gqlstore",
		Short: "Ground-support resource graph store",
		Long: `gqlstore serves consumable material charges and pumps, complex
resources and the resource catalogue from a file-backed record store.

Queries resolve foreign keys into nested records, fill field defaults and
tag resources with their subtype. Mutations create, update and soft-delete
charges and pumps.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.Config, "config", "", "config file (default $GQLSTORE_CONFIG or ./gqlstore.yaml)")
	flags.StringVar(&opts.DataDir, "data-dir", "", "directory of collection JSON files")
	flags.StringVar(&opts.Backend, "backend", "", "storage backend (json|sqlite)")

	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewMutateCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}
