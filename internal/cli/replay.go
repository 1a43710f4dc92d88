package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/blockdoc/internal/engine"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	sourceFlags
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Documents      []engine.ReplayReport `json:"documents"`
	TotalDocuments int                   `json:"total_documents"`
	AllMatch       bool                  `json:"all_match"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay op journals and verify stored revisions",
		Long: `Replay each document's op journal from revision 0 and check that every
replayed revision hashes the same as the stored one.

Ops are re-applied with the block ids they generated originally, so a
healthy store always replays to identical content.

Exit codes:
  0 - All documents replay to their stored revisions
  1 - A replay diverged from the store
  2 - Command error (database not found, journal cannot be applied, etc.)

Examples:
  blockdoc replay --db ./blockdoc.db
  blockdoc replay --db ./blockdoc.db --id home
  blockdoc replay --db ./blockdoc.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	opts.sourceFlags.register(cmd)

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	e, err := loadEnv(opts.RootOptions, f)
	if err != nil {
		return err
	}

	st, err := e.openStore(opts.Database, f)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	var ids []string
	if opts.ID != "" {
		ids = []string{opts.ID}
	} else {
		docs, err := st.ListDocuments(ctx)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to list documents", err)
		}
		for _, doc := range docs {
			ids = append(ids, doc.ID)
		}
	}

	result := ReplayResult{
		Documents:      make([]engine.ReplayReport, 0, len(ids)),
		TotalDocuments: len(ids),
		AllMatch:       true,
	}
	for _, id := range ids {
		f.VerboseLog("Replaying %s", id)
		report, err := engine.VerifyHistory(ctx, st, id, e.settings, e.registry)
		if engine.IsReplayDivergence(err) {
			report.Problem = err.Error()
			err = nil
		}
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to replay document %s", id), err)
		}
		result.Documents = append(result.Documents, report)
		if !report.Match {
			result.AllMatch = false
		}
	}

	if f.JSON() {
		return outputReplayJSON(f, result)
	}
	return outputReplayText(f, result)
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(f *OutputFormatter, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}
	if !result.AllMatch {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeDivergence,
			Message: "replay diverged from stored revisions",
		}
	}

	if err := f.encode(response); err != nil {
		return err
	}
	if !result.AllMatch {
		return NewExitError(ExitFailure, "replay diverged from stored revisions")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(f *OutputFormatter, result ReplayResult) error {
	w := f.Writer

	if result.TotalDocuments == 0 {
		fmt.Fprintln(w, "No documents found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d document(s)\n", result.TotalDocuments)
	fmt.Fprintln(w)

	for _, doc := range result.Documents {
		status := "✓"
		if !doc.Match {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Document: %s\n", status, doc.DocumentID)
		fmt.Fprintf(w, "  Ops: %d, final seq %d\n", doc.Ops, doc.FinalSeq)
		if f.Verbose {
			fmt.Fprintf(w, "  Stored hash: %s\n", doc.StoredHash)
			fmt.Fprintf(w, "  Replay hash: %s\n", doc.ReplayHash)
		}
		if !doc.Match {
			fmt.Fprintf(w, "  Warning: replay diverged at seq %d\n", doc.DivergedAt)
		}
		if doc.Problem != "" {
			fmt.Fprintf(w, "  %s\n", doc.Problem)
		}
		fmt.Fprintln(w)
	}

	if result.AllMatch {
		fmt.Fprintln(w, "✓ All documents replay to their stored revisions")
		return nil
	}

	fmt.Fprintln(w, "✗ Replay verification failed")
	return NewExitError(ExitFailure, "replay diverged from stored revisions")
}
