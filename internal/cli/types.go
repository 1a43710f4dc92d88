package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/blockdoc/internal/compiler"
	"github.com/roach88/blockdoc/internal/ir"
)

// TypesResult lists compiled block types.
type TypesResult struct {
	Valid  bool                       `json:"valid"`
	Types  []ir.BlockTypeSpec         `json:"types"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewTypesCommand creates the types command.
func NewTypesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types [blocktypes-dir]",
		Short: "Compile and check block type definitions",
		Long: `Compile the CUE block type definitions in a directory and check them.

The directory defaults to --types, then to block_types_dir in the settings
file. Definitions live under a top-level blocktype struct:

  blocktype: image: {
      title:        "Image"
      group:        "media"
      value_fields: ["url"]
  }

Exit codes:
  0 - All definitions valid
  1 - One or more definitions invalid
  2 - Command error (directory not found, CUE errors, etc.)`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypes(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runTypes(opts *RootOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	settings, err := loadSettings(opts, f)
	if err != nil {
		return err
	}

	dir := settings.BlockTypesDir
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "no block types directory: pass one or set block_types_dir", nil)
	}

	result, err := LoadBlockTypes(dir)
	if err != nil {
		return f.Fail(ExitCommandError, loadErrorCode(err), "failed to load block types", err)
	}
	f.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, dir)

	out := TypesResult{
		Types:  result.Specs,
		Errors: compiler.ValidateBlockTypes(result.Specs, settings.TypeField, settings.ReadOnlyField),
	}
	out.Valid = len(out.Errors) == 0

	if f.JSON() {
		resp := CLIResponse{Status: "ok", Data: out}
		if !out.Valid {
			resp.Status = "error"
			resp.Error = &CLIError{Code: out.Errors[0].Code, Message: fmt.Sprintf("%d validation error(s)", len(out.Errors))}
		}
		if err := f.encode(resp); err != nil {
			return err
		}
	} else {
		for _, spec := range out.Types {
			line := fmt.Sprintf("%-12s %s", spec.Name, spec.Title)
			if len(spec.ValueFields) > 0 {
				line += fmt.Sprintf(" [value: %s]", strings.Join(spec.ValueFields, ", "))
			}
			if spec.Restricted {
				line += " (restricted)"
			}
			fmt.Fprintln(f.Writer, line)
		}
		for _, verr := range out.Errors {
			fmt.Fprintf(f.Writer, "error: %s\n", verr.Error())
		}
		if out.Valid {
			fmt.Fprintf(f.Writer, "✓ %d block type(s) valid\n", len(out.Types))
		} else {
			fmt.Fprintf(f.Writer, "✗ %d validation error(s)\n", len(out.Errors))
		}
	}

	if !out.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(out.Errors)))
	}
	return nil
}
