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
	Config  string // settings file; built-in defaults when empty
	Types   string // block types directory; overrides the settings file
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the blockdoc CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "blockdoc",
		Short: "blockdoc - blocks document editor",
		Long: `Edit blocks documents: an ordered layout of block ids plus a mapping of
block data, kept consistent by add, delete, move, mutate, change and split
operations.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if slices.Contains(ValidFormats, opts.Format) {
				return nil
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "settings file (YAML)")
	cmd.PersistentFlags().StringVar(&opts.Types, "types", "", "block types directory (CUE)")

	cmd.AddCommand(
		NewNewCommand(opts),
		NewApplyCommand(opts),
		NewShowCommand(opts),
		NewValidateCommand(opts),
		NewTypesCommand(opts),
		NewHistoryCommand(opts),
		NewReplayCommand(opts),
		NewFindCommand(opts),
		NewTestCommand(opts),
	)

	return cmd
}
