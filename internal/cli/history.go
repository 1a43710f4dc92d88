package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/blockdoc/internal/blocks"
	"github.com/roach88/blockdoc/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	sourceFlags
}

// RevisionInfo summarizes one stored revision.
type RevisionInfo struct {
	Seq    int64  `json:"seq"`
	Op     string `json:"op,omitempty"`
	Hash   string `json:"hash"`
	Blocks int    `json:"blocks"`
}

// DocumentInfo is a stored document with the seq of its latest revision.
type DocumentInfo struct {
	store.Document
	LastSeq int64 `json:"last_seq"`
}

// HistoryResult lists the revisions of a document, or the stored documents
// when no id is given.
type HistoryResult struct {
	DocumentID string         `json:"document_id,omitempty"`
	Revisions  []RevisionInfo `json:"revisions,omitempty"`
	Documents  []DocumentInfo `json:"documents,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored documents or a document's revisions",
		Long: `Without --id, list the documents in the revision store in creation order.
With --id, list every revision of that document with the op that produced it.

Examples:
  blockdoc history --db ./blockdoc.db
  blockdoc history --db ./blockdoc.db --id home --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	opts.sourceFlags.register(cmd)

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
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
	if opts.ID == "" {
		docs, err := listDocuments(ctx, st)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeStore, "failed to list documents", err)
		}
		if f.JSON() {
			return f.Success(HistoryResult{Documents: docs})
		}
		if len(docs) == 0 {
			fmt.Fprintln(f.Writer, "No documents found in database.")
			return nil
		}
		for _, doc := range docs {
			fmt.Fprintf(f.Writer, "%s\tseq %d\n", doc.ID, doc.LastSeq)
		}
		return nil
	}

	result, err := documentHistory(ctx, st, e.editor(), opts.ID)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, fmt.Sprintf("failed to read history of %q", opts.ID), err)
	}
	if f.JSON() {
		return f.Success(result)
	}

	fmt.Fprintf(f.Writer, "History of %s: %d revision(s)\n\n", result.DocumentID, len(result.Revisions))
	for _, rev := range result.Revisions {
		op := rev.Op
		if op == "" {
			op = "created"
		}
		fmt.Fprintf(f.Writer, "%4d  %-10s %3d block(s)  %s\n", rev.Seq, op, rev.Blocks, shortHash(rev.Hash))
	}
	return nil
}

func listDocuments(ctx context.Context, st *store.Store) ([]DocumentInfo, error) {
	docs, err := st.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	infos := make([]DocumentInfo, 0, len(docs))
	for _, doc := range docs {
		seq, err := st.LastSeq(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		infos = append(infos, DocumentInfo{Document: doc, LastSeq: seq})
	}
	return infos, nil
}

func documentHistory(ctx context.Context, st *store.Store, ed *blocks.Editor, documentID string) (HistoryResult, error) {
	if _, err := st.ReadDocument(ctx, documentID); err != nil {
		return HistoryResult{}, err
	}
	revisions, err := st.ListRevisions(ctx, documentID)
	if err != nil {
		return HistoryResult{}, err
	}
	ops, err := st.ReadOps(ctx, documentID, 0)
	if err != nil {
		return HistoryResult{}, err
	}

	kinds := make(map[int64]string, len(ops))
	for _, op := range ops {
		kinds[op.Seq] = op.Kind
	}

	result := HistoryResult{DocumentID: documentID, Revisions: make([]RevisionInfo, 0, len(revisions))}
	for _, rev := range revisions {
		info := RevisionInfo{Seq: rev.Seq, Op: kinds[rev.Seq], Hash: rev.ContentHash}
		if form, err := ed.Decode(rev.Content); err == nil {
			info.Blocks = form.Len()
		}
		result.Revisions = append(result.Revisions, info)
	}
	return result, nil
}
