package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/blockdoc/internal/engine"
	"github.com/roach88/blockdoc/internal/ir"
)

// NewOptions holds flags for the new command.
type NewOptions struct {
	*RootOptions
	sourceFlags
	From   string // import this document instead of starting empty
	Output string
}

// DocumentResult describes a document written or stored by a command.
type DocumentResult struct {
	DocumentID string      `json:"document_id,omitempty"`
	Seq        int64       `json:"seq"`
	Hash       string      `json:"hash"`
	Blocks     int         `json:"blocks"`
	Output     string      `json:"output,omitempty"`
	Document   ir.IRObject `json:"document,omitempty"`
}

// NewNewCommand creates the new command.
func NewNewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a blocks document",
		Long: `Create a document holding a single block of the default type.

With --id the document is registered in the revision store as revision 0;
--from imports an existing document instead of starting empty.

Examples:
  blockdoc new > page.json
  blockdoc new -o page.json
  blockdoc new --db ./blockdoc.db --id home
  blockdoc new --db ./blockdoc.db --id about --from about.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(opts, cmd)
		},
	}

	opts.sourceFlags.register(cmd)
	cmd.Flags().StringVar(&opts.From, "from", "", "initial document (JSON)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")

	return cmd
}

func runNew(opts *NewOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	e, err := loadEnv(opts.RootOptions, f)
	if err != nil {
		return err
	}

	var initial ir.IRObject
	if opts.From != "" {
		initial, err = readDocumentFile(opts.From)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeDocument, "failed to read document", err)
		}
	}

	if opts.ID == "" {
		eng, err := engine.New(e.settings, initial, e.engineOptions()...)
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeInvalidDoc, "failed to create document", err)
		}
		return outputDocument(f, opts.Output, DocumentResult{
			Seq:      eng.Seq(),
			Hash:     eng.Hash(),
			Blocks:   eng.Form().Len(),
			Document: eng.Document(),
		})
	}

	st, err := e.openStore(opts.Database, f)
	if err != nil {
		return err
	}
	defer st.Close()

	eng, err := engine.Create(context.Background(), st, opts.ID, e.settings, initial, e.engineOptions()...)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeStore, fmt.Sprintf("failed to create document %q", opts.ID), err)
	}

	result := DocumentResult{
		DocumentID: opts.ID,
		Seq:        eng.Seq(),
		Hash:       eng.Hash(),
		Blocks:     eng.Form().Len(),
	}
	if f.JSON() {
		return f.Success(result)
	}
	fmt.Fprintf(f.Writer, "✓ Created %s (%d block(s), hash %s)\n", opts.ID, result.Blocks, shortHash(result.Hash))
	return nil
}

// outputDocument writes a document produced by new or apply. Text output
// is the document itself; JSON output wraps it with its hash.
func outputDocument(f *OutputFormatter, output string, result DocumentResult) error {
	if output != "" {
		if err := writeDocumentFile(output, nil, result.Document); err != nil {
			return f.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to write document", err)
		}
		result.Output = output
		f.VerboseLog("Wrote %s", output)
		if f.JSON() {
			result.Document = nil
			return f.Success(result)
		}
		fmt.Fprintf(f.Writer, "✓ Wrote %s (%d block(s), hash %s)\n", output, result.Blocks, shortHash(result.Hash))
		return nil
	}

	if f.JSON() {
		return f.Success(result)
	}
	if err := writeDocumentFile("", f.Writer, result.Document); err != nil {
		return f.Fail(ExitCommandError, ErrCodeWriteFailed, "failed to write document", err)
	}
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
