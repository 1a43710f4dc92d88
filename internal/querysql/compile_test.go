package querysql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blockdoc/internal/ir"
	"github.com/roach88/blockdoc/internal/queryir"
)

func TestCompile_AllBlocks(t *testing.T) {
	sql, params, err := NewSQLCompiler("items").Compile(queryir.Blocks{})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(sql, "SELECT r.document_id, r.seq, l.key, l.value, b.value"))
	assert.NotContains(t, sql, "WHERE")
	assert.True(t, strings.HasSuffix(sql, "ORDER BY d.created_seq ASC, l.key ASC"))
	assert.Equal(t, []any{"items"}, params)
}

func TestCompile_OrderByMandatory(t *testing.T) {
	queries := []queryir.Query{
		queryir.Blocks{},
		queryir.Blocks{Document: "home"},
		&queryir.Blocks{Filter: queryir.Exists{Field: "url"}, Limit: 3},
	}
	for _, q := range queries {
		sql, _, err := NewSQLCompiler("items").Compile(q)
		require.NoError(t, err)
		assert.Contains(t, sql, orderBlocks)
	}
}

func TestCompile_DocumentAndLimit(t *testing.T) {
	sql, params, err := NewSQLCompiler("items").Compile(queryir.Blocks{Document: "home", Limit: 5})
	require.NoError(t, err)

	assert.Contains(t, sql, "\nWHERE d.id = ?")
	assert.True(t, strings.HasSuffix(sql, " LIMIT ?"))
	assert.Equal(t, []any{"items", "home", 5}, params)
}

func TestCompile_Equals(t *testing.T) {
	testCases := []struct {
		name   string
		value  ir.IRValue
		sql    string
		params []any
	}{
		{
			name:   "string",
			value:  ir.IRString("image"),
			sql:    "COALESCE(json_type(b.value, ?) = 'text' AND json_extract(b.value, ?) = ?, 0)",
			params: []any{`$."f"`, `$."f"`, "image"},
		},
		{
			name:   "int",
			value:  ir.IRInt(2),
			sql:    "COALESCE(json_type(b.value, ?) = 'integer' AND json_extract(b.value, ?) = ?, 0)",
			params: []any{`$."f"`, `$."f"`, int64(2)},
		},
		{
			name:   "bool",
			value:  ir.IRBool(false),
			sql:    "COALESCE(json_type(b.value, ?) = ?, 0)",
			params: []any{`$."f"`, "false"},
		},
		{
			name:   "null",
			value:  ir.IRNull{},
			sql:    "0",
			params: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewSQLCompiler("items")
			sql, params, err := c.compilePredicate(queryir.Equals{Field: "f", Value: tc.value})
			require.NoError(t, err)
			assert.Equal(t, tc.sql, sql)
			assert.Equal(t, tc.params, params)
		})
	}
}

func TestCompile_ValuesNeverInterpolated(t *testing.T) {
	q := queryir.Blocks{
		Document: "home'; DROP TABLE revisions; --",
		Filter:   queryir.TypeIs("@type", "image'--"),
	}
	sql, params, err := NewSQLCompiler("items").Compile(q)
	require.NoError(t, err)

	assert.NotContains(t, sql, "DROP TABLE")
	assert.NotContains(t, sql, "image'--")
	assert.Contains(t, params, "home'; DROP TABLE revisions; --")
	assert.Contains(t, params, "image'--")
}

func TestCompile_NotAndExists(t *testing.T) {
	c := NewSQLCompiler("items")

	sql, params, err := c.compilePredicate(queryir.Not{Predicate: queryir.Exists{Field: "url"}})
	require.NoError(t, err)
	assert.Equal(t, "(b.value IS NOT NULL AND NOT (COALESCE(json_type(b.value, ?), 'null') <> 'null'))", sql)
	assert.Equal(t, []any{`$."url"`}, params)
}

func TestCompile_And(t *testing.T) {
	c := NewSQLCompiler("items")

	sql, params, err := c.compilePredicate(queryir.And{})
	require.NoError(t, err)
	assert.Equal(t, "1 = 1", sql)
	assert.Empty(t, params)

	sql, params, err = c.compilePredicate(queryir.And{Predicates: []queryir.Predicate{
		queryir.Exists{Field: "a"},
		queryir.Exists{Field: "b"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "(COALESCE(json_type(b.value, ?), 'null') <> 'null' AND COALESCE(json_type(b.value, ?), 'null') <> 'null')", sql)
	assert.Equal(t, []any{`$."a"`, `$."b"`}, params)
}

func TestCompile_ParamCountMatchesPlaceholders(t *testing.T) {
	q := queryir.Blocks{
		Document: "home",
		Limit:    10,
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.TypeIs("@type", "text"),
			queryir.Not{Predicate: queryir.Equals{Field: "readOnly", Value: ir.IRBool(true)}},
			queryir.Exists{Field: "text"},
		}},
	}
	sql, params, err := NewSQLCompiler("items").Compile(q)
	require.NoError(t, err)
	assert.Equal(t, strings.Count(sql, "?"), len(params))
}

func TestCompile_Errors(t *testing.T) {
	_, _, err := NewSQLCompiler("items").Compile(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid query: nil query")

	_, _, err = NewSQLCompiler("items").Compile(queryir.Blocks{Filter: queryir.Equals{Field: "tags", Value: ir.IRArray{}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot compare")

	_, _, err = NewSQLCompiler("").Compile(queryir.Blocks{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "layout items key is required")
}
