package cli

import (
	"context"
	"fmt"

	"github.com/sanity-io/litter"
	"github.com/spf13/cobra"

	"github.com/roach88/blockdoc/internal/blocks"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	sourceFlags
	revisionFlags
}

// BlockInfo describes one block in layout order.
type BlockInfo struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Type     string `json:"type"`
	HasValue bool   `json:"has_value"`
	ReadOnly bool   `json:"read_only,omitempty"`
}

// ShowResult lists a document's blocks.
type ShowResult struct {
	Blocks      []BlockInfo `json:"blocks"`
	BlocksField string      `json:"blocks_field"`
	LayoutField string      `json:"layout_field"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show [document.json]",
		Short: "List a document's blocks in order",
		Long: `List the blocks of a document file or stored document in layout order,
with their type and whether they hold a value.

Examples:
  blockdoc show page.json
  blockdoc show --db ./blockdoc.db --id home
  blockdoc show --db ./blockdoc.db --id home --seq 3
  blockdoc show --db ./blockdoc.db --id home --hash <content hash>`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args, cmd)
		},
	}

	opts.sourceFlags.register(cmd)
	opts.revisionFlags.register(cmd, "show")

	return cmd
}

func runShow(opts *ShowOptions, args []string, cmd *cobra.Command) error {
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
		return f.Fail(ExitCommandError, ErrCodeDocument, "not a blocks document", err)
	}
	if f.Verbose {
		f.VerboseLog("%s", litter.Sdump(form))
	}

	result := ShowResult{
		Blocks:      describeBlocks(ed, form),
		BlocksField: form.Names.Data,
		LayoutField: form.Names.Layout,
	}
	if f.JSON() {
		return f.Success(result)
	}

	for _, b := range result.Blocks {
		marker := " "
		if !b.HasValue {
			marker = "○"
		}
		lock := ""
		if b.ReadOnly {
			lock = " (read-only)"
		}
		fmt.Fprintf(f.Writer, "%3d %s %-12s %s%s\n", b.Index, marker, b.Type, b.ID, lock)
	}
	f.VerboseLog("Fields: %s, %s", result.BlocksField, result.LayoutField)
	return nil
}

func describeBlocks(ed *blocks.Editor, form blocks.Form) []BlockInfo {
	entries := ed.ListBlocks(form)
	infos := make([]BlockInfo, len(entries))
	for i, entry := range entries {
		infos[i] = BlockInfo{
			Index:    i,
			ID:       string(entry.ID),
			Type:     ed.BlockType(entry.Data),
			HasValue: ed.HasValue(entry.Data),
			ReadOnly: ed.IsReadOnly(entry.Data),
		}
	}
	return infos
}
