package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/blockdoc/internal/ir"
	"github.com/roach88/blockdoc/internal/queryir"
	"github.com/roach88/blockdoc/internal/store"
)

// FindOptions holds flags for the find command.
type FindOptions struct {
	*RootOptions
	sourceFlags
	Type  string
	Where []string // field=value
	Has   []string
	Lacks []string
	Limit int
}

// FindResult lists matching blocks.
type FindResult struct {
	Matches  []store.BlockMatch `json:"matches"`
	Warnings []string           `json:"warnings,omitempty"`
}

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FindOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Find blocks across stored documents",
		Long: `Search the latest revision of stored documents for blocks matching every
given condition. Results are in document creation order, then layout order.

--where compares a top-level field of block data with a value. The value is
read as a YAML scalar: true and false are booleans, integers are numbers,
anything else is a string.

Examples:
  blockdoc find --db ./blockdoc.db --type image
  blockdoc find --db ./blockdoc.db --id home --lacks url
  blockdoc find --db ./blockdoc.db --where readOnly=true --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(opts, cmd)
		},
	}

	opts.sourceFlags.register(cmd)
	cmd.Flags().StringVar(&opts.Type, "type", "", "block type")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "field=value condition (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Has, "has", nil, "field that must be set (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Lacks, "lacks", nil, "field that must be unset (repeatable)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of blocks (0 for all)")

	return cmd
}

func runFind(opts *FindOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	e, err := loadEnv(opts.RootOptions, f)
	if err != nil {
		return err
	}

	query, err := buildQuery(opts, e.settings.TypeField)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeQuery, "invalid query", err)
	}
	check := queryir.Check(query)
	if !check.OK() {
		return f.Fail(ExitCommandError, ErrCodeQuery, "invalid query", fmt.Errorf("%s", strings.Join(check.Errors, "; ")))
	}

	st, err := e.openStore(opts.Database, f)
	if err != nil {
		return err
	}
	defer st.Close()

	matches, err := st.FindBlocks(context.Background(), query, e.settings.LayoutItemsKey)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStore, "failed to find blocks", err)
	}

	result := FindResult{Matches: matches, Warnings: check.Warnings}
	if f.JSON() {
		return f.Success(result)
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(f.Writer, "warning: %s\n", w)
	}
	for _, m := range result.Matches {
		blockType := m.Data.String(e.settings.TypeField)
		if m.Data == nil {
			blockType = "-"
		}
		fmt.Fprintf(f.Writer, "%-16s %3d %-12s %s\n", m.DocumentID, m.Index, blockType, m.BlockID)
	}
	fmt.Fprintf(f.Writer, "%d block(s)\n", len(result.Matches))
	return nil
}

// buildQuery turns the flags into a block query. All conditions must hold.
func buildQuery(opts *FindOptions, typeField string) (queryir.Blocks, error) {
	var preds []queryir.Predicate
	if opts.Type != "" {
		preds = append(preds, queryir.TypeIs(typeField, opts.Type))
	}
	for _, cond := range opts.Where {
		field, raw, ok := strings.Cut(cond, "=")
		if !ok {
			return queryir.Blocks{}, fmt.Errorf("--where %q: expected field=value", cond)
		}
		value, err := parseScalar(raw)
		if err != nil {
			return queryir.Blocks{}, fmt.Errorf("--where %q: %w", cond, err)
		}
		preds = append(preds, queryir.Equals{Field: field, Value: value})
	}
	for _, field := range opts.Has {
		preds = append(preds, queryir.Exists{Field: field})
	}
	for _, field := range opts.Lacks {
		preds = append(preds, queryir.Not{Predicate: queryir.Exists{Field: field}})
	}

	q := queryir.Blocks{Document: opts.ID, Limit: opts.Limit}
	switch len(preds) {
	case 0:
	case 1:
		q.Filter = preds[0]
	default:
		q.Filter = queryir.And{Predicates: preds}
	}
	return q, nil
}

// parseScalar reads a --where value as YAML.
func parseScalar(raw string) (ir.IRValue, error) {
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	return ir.FromAny(v)
}
