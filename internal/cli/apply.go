package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/blockdoc/internal/engine"
)

// ApplyOptions holds flags for the apply command.
type ApplyOptions struct {
	*RootOptions
	sourceFlags
	Output string
}

// AppliedOp reports one op of an apply run.
type AppliedOp struct {
	Index int    `json:"index"`
	Kind  string `json:"kind"`
	Seq   int64  `json:"seq,omitempty"`
	NewID string `json:"new_id,omitempty"`
	Error string `json:"error,omitempty"`
}

// ApplyResult holds the result of an apply run.
type ApplyResult struct {
	DocumentResult
	Ops    []AppliedOp `json:"ops"`
	Failed int         `json:"failed"`
}

// NewApplyCommand creates the apply command.
func NewApplyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ApplyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "apply <ops.yaml> [document.json]",
		Short: "Apply an op script to a document",
		Long: `Apply the ops of a YAML script, in order, to a document file or a stored
document.

Ops go through a single-writer edit session. A failing op is reported and
skipped; the document keeps its previous revision. For stored documents
every applied op is journaled together with the revision it produced.

Script format:
  ops:
    - op: add
      type: image
      index: 0
    - op: mutate
      at: 0
      value: {"@type": image, url: /logo.png}
    - op: delete
      id: 5f0c...

Exit codes:
  0 - All ops applied
  1 - One or more ops failed
  2 - Command error (unreadable script, unknown document, etc.)

Examples:
  blockdoc apply edits.yaml page.json -o page.json
  blockdoc apply edits.yaml --db ./blockdoc.db --id home`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(opts, args[0], args[1:], cmd)
		},
	}

	opts.sourceFlags.register(cmd)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file for file documents (default stdout)")

	return cmd
}

func runApply(opts *ApplyOptions, scriptPath string, args []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	e, err := loadEnv(opts.RootOptions, f)
	if err != nil {
		return err
	}
	if err := opts.sourceFlags.check(args, f); err != nil {
		return err
	}

	ops, err := engine.LoadOps(scriptPath)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeOpScript, "failed to load op script", err)
	}
	f.VerboseLog("Loaded %d op(s) from %s", len(ops), scriptPath)

	ctx := context.Background()
	var eng *engine.Engine
	result := ApplyResult{Ops: make([]AppliedOp, 0, len(ops))}
	observer := engine.WithObserver(func(res engine.Result, opErr error) {
		applied := AppliedOp{Index: len(result.Ops), Kind: string(ops[len(result.Ops)].Kind)}
		if opErr != nil {
			applied.Error = opErr.Error()
			result.Failed++
		} else {
			applied.Seq = res.Seq
			applied.NewID = string(res.NewID)
		}
		result.Ops = append(result.Ops, applied)
	})
	engineOpts := append(e.engineOptions(), observer)

	if len(args) > 0 {
		doc, err := readDocumentFile(args[0])
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeDocument, "failed to read document", err)
		}
		eng, err = engine.New(e.settings, doc, engineOpts...)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeInvalidDoc, "failed to load document", err)
		}
	} else {
		st, err := e.openStore(opts.Database, f)
		if err != nil {
			return err
		}
		defer st.Close()

		eng, err = engine.Open(ctx, st, opts.ID, e.settings, engineOpts...)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to open document %q", opts.ID), err)
		}
		result.DocumentID = opts.ID
	}

	for _, op := range ops {
		eng.Enqueue(op)
	}
	eng.Stop()
	if err := eng.Run(ctx); err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "edit session failed", err)
	}

	result.Seq = eng.Seq()
	result.Hash = eng.Hash()
	result.Blocks = eng.Form().Len()

	for _, op := range result.Ops {
		if op.Error != "" {
			f.VerboseLog("✗ op %d (%s): %s", op.Index, op.Kind, op.Error)
		} else {
			f.VerboseLog("✓ op %d (%s) -> seq %d", op.Index, op.Kind, op.Seq)
		}
	}

	if err := outputApply(f, opts, eng, &result); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d op(s) failed", result.Failed))
	}
	return nil
}

func outputApply(f *OutputFormatter, opts *ApplyOptions, eng *engine.Engine, result *ApplyResult) error {
	if result.Failed > 0 && result.DocumentID == "" {
		msg := fmt.Sprintf("%d of %d op(s) failed", result.Failed, len(result.Ops))
		if f.JSON() {
			return f.encode(CLIResponse{
				Status: "error",
				Data:   result,
				Error:  &CLIError{Code: ErrCodeOpFailed, Message: msg},
			})
		}
		for _, op := range result.Ops {
			if op.Error != "" {
				fmt.Fprintf(f.Writer, "✗ op %d (%s): %s\n", op.Index, op.Kind, op.Error)
			}
		}
		fmt.Fprintf(f.Writer, "Error [%s]: %s; document not written\n", ErrCodeOpFailed, msg)
		return nil
	}

	if result.DocumentID == "" {
		result.Document = eng.Document()
		if f.JSON() && opts.Output == "" {
			return f.Success(result)
		}
		if err := outputDocument(f, opts.Output, result.DocumentResult); err != nil {
			return err
		}
		return nil
	}

	if f.JSON() {
		resp := CLIResponse{Status: "ok", Data: result}
		if result.Failed > 0 {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeOpFailed, Message: fmt.Sprintf("%d op(s) failed", result.Failed)}
		}
		return f.encode(resp)
	}

	for _, op := range result.Ops {
		if op.Error != "" {
			fmt.Fprintf(f.Writer, "✗ op %d (%s): %s\n", op.Index, op.Kind, op.Error)
		}
	}
	fmt.Fprintf(f.Writer, "✓ %s at seq %d (%d applied, %d failed, hash %s)\n",
		result.DocumentID, result.Seq, len(result.Ops)-result.Failed, result.Failed, shortHash(result.Hash))
	return nil
}
