// Package querysql compiles queryir queries to parameterized SQLite SQL
// over the store's revisions table.
//
// Block data is read straight out of the canonical JSON of each revision
// with the JSON1 functions json_each, json_type and json_extract. Values and
// field paths are always bound as parameters, never interpolated.
package querysql

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/blockdoc/internal/ir"
	"github.com/roach88/blockdoc/internal/queryir"
)

// Columns selected by every compiled query, in order.
var Columns = []string{"document_id", "seq", "position", "block_id", "data"}

// The layout items key is the first parameter of every query.
const selectBlocks = `SELECT r.document_id, r.seq, l.key, l.value, b.value
FROM documents d
JOIN revisions r ON r.document_id = d.id
	AND r.seq = (SELECT MAX(seq) FROM revisions WHERE document_id = d.id)
JOIN json_each(r.content, printf('$."%s"."%s"', json_extract(d.names_json, '$.layout'), ?)) l
JOIN json_each(r.content, printf('$."%s"', json_extract(d.names_json, '$.data'))) b
	ON b.key = l.value`

// Every query orders by document creation and then layout position.
const orderBlocks = " ORDER BY d.created_seq ASC, l.key ASC"

// SQLCompiler compiles queries for documents whose layout lists its ids
// under ItemsKey.
type SQLCompiler struct {
	ItemsKey string
}

// NewSQLCompiler creates a compiler for the given layout items key.
func NewSQLCompiler(itemsKey string) *SQLCompiler {
	return &SQLCompiler{ItemsKey: itemsKey}
}

// Compile converts a query to SQL and its parameters. Queries that fail
// queryir.Check are rejected.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if check := queryir.Check(q); !check.OK() {
		return "", nil, fmt.Errorf("invalid query: %s", strings.Join(check.Errors, "; "))
	}

	switch query := q.(type) {
	case queryir.Blocks:
		return c.compileBlocks(query)
	case *queryir.Blocks:
		return c.compileBlocks(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileBlocks(q queryir.Blocks) (string, []any, error) {
	if c.ItemsKey == "" {
		return "", nil, errors.New("layout items key is required")
	}

	var sb strings.Builder
	sb.WriteString(selectBlocks)
	params := []any{c.ItemsKey}

	var conds []string
	if q.Document != "" {
		conds = append(conds, "d.id = ?")
		params = append(params, q.Document)
	}
	if q.Filter != nil {
		sql, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		conds = append(conds, sql)
		params = append(params, filterParams...)
	}
	if len(conds) > 0 {
		sb.WriteString("\nWHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	sb.WriteString(orderBlocks)
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		params = append(params, q.Limit)
	}

	return sb.String(), params, nil
}

// compilePredicate never yields NULL, so Not behaves as boolean negation.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return c.compileEquals(pred)
	case *queryir.Equals:
		return c.compileEquals(*pred)
	case queryir.Exists:
		return c.compileExists(pred)
	case *queryir.Exists:
		return c.compileExists(*pred)
	case queryir.Not:
		return c.compileNot(pred)
	case *queryir.Not:
		return c.compileNot(*pred)
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileEquals checks the JSON type as well as the value: SQLite reads
// JSON true as 1, which must not match the integer 1.
func (c *SQLCompiler) compileEquals(eq queryir.Equals) (string, []any, error) {
	path := fieldPath(eq.Field)

	switch val := eq.Value.(type) {
	case ir.IRString:
		return "COALESCE(json_type(b.value, ?) = 'text' AND json_extract(b.value, ?) = ?, 0)",
			[]any{path, path, string(val)}, nil
	case ir.IRInt:
		return "COALESCE(json_type(b.value, ?) = 'integer' AND json_extract(b.value, ?) = ?, 0)",
			[]any{path, path, int64(val)}, nil
	case ir.IRBool:
		want := "false"
		if val {
			want = "true"
		}
		return "COALESCE(json_type(b.value, ?) = ?, 0)", []any{path, want}, nil
	case nil, ir.IRNull:
		return "0", nil, nil
	default:
		return "", nil, fmt.Errorf("field %q: cannot compare with %T", eq.Field, eq.Value)
	}
}

func (c *SQLCompiler) compileExists(ex queryir.Exists) (string, []any, error) {
	return "COALESCE(json_type(b.value, ?), 'null') <> 'null'", []any{fieldPath(ex.Field)}, nil
}

func (c *SQLCompiler) compileNot(not queryir.Not) (string, []any, error) {
	sql, params, err := c.compilePredicate(not.Predicate)
	if err != nil {
		return "", nil, err
	}
	return "(b.value IS NOT NULL AND NOT (" + sql + "))", params, nil
}

func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, predParams, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, predParams...)
	}
	return "(" + strings.Join(parts, " AND ") + ")", params, nil
}

// fieldPath quotes a top-level field as a JSON path. queryir.Check rejects
// names containing quotes or backslashes.
func fieldPath(field string) string {
	return `$."` + field + `"`
}
