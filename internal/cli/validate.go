package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/blockdoc/internal/blocks"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	sourceFlags
	revisionFlags
}

// DocumentIssue is one validation finding.
type DocumentIssue struct {
	blocks.ValidationError
	Fatal bool `json:"fatal"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool            `json:"valid"`
	Blocks int             `json:"blocks"`
	Issues []DocumentIssue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [document.json]",
		Short: "Check a document against the editing invariants",
		Long: `Check that every layout id has block data, that no id appears twice, and
that the layout is not empty. Orphaned block data and blocks without a type
are reported as warnings.

Exit codes:
  0 - Document is valid (warnings allowed)
  1 - Document breaks an invariant
  2 - Command error (unreadable document, etc.)

Examples:
  blockdoc validate page.json
  blockdoc validate --db ./blockdoc.db --id home --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	opts.sourceFlags.register(cmd)
	opts.revisionFlags.register(cmd, "validate")

	return cmd
}

func runValidate(opts *ValidateOptions, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	e, err := loadEnv(opts.RootOptions, f)
	if err != nil {
		return err
	}

	doc, err := e.readDocument(context.Background(), &opts.sourceFlags, args, opts.revisionFlags, f)
	if err != nil {
		return err
	}

	ed := e.editor()
	form, err := ed.Decode(doc)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeDocument, "not a blocks document", err)
	}

	result := ValidationResult{Valid: true, Blocks: form.Len()}
	for _, verr := range ed.Validate(form) {
		issue := DocumentIssue{ValidationError: verr, Fatal: verr.IsFatal()}
		if issue.Fatal {
			result.Valid = false
		}
		result.Issues = append(result.Issues, issue)
		f.VerboseLog("%s", verr.Error())
	}

	if f.JSON() {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Valid {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeInvalidDoc, Message: "document breaks the editing invariants"}
		}
		if err := f.encode(resp); err != nil {
			return err
		}
	} else {
		for _, issue := range result.Issues {
			level := "warning"
			if issue.Fatal {
				level = "error"
			}
			fmt.Fprintf(f.Writer, "%s: %s\n", level, issue.Error())
		}
		if result.Valid {
			fmt.Fprintf(f.Writer, "✓ Document valid (%d block(s))\n", result.Blocks)
		} else {
			fmt.Fprintln(f.Writer, "✗ Document invalid")
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "document breaks the editing invariants")
	}
	return nil
}
