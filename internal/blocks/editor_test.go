package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blockdoc/internal/config"
	"github.com/roach88/blockdoc/internal/ir"
	"github.com/roach88/blockdoc/internal/testutil"
)

func newTestEditor(t *testing.T) *Editor {
	t.Helper()
	reg := NewRegistry()
	reg.Register("text", FieldsPredicate("text"))
	reg.Register("image", FieldsPredicate("url"))
	return New(config.Default(),
		WithRegistry(reg),
		WithIDGenerator(testutil.NewSequenceGenerator("b")),
	)
}

func textBlock(text string) ir.BlockData {
	return ir.BlockData{"@type": ir.IRString("text"), "text": ir.IRString(text)}
}

func placeholderBlock() ir.BlockData {
	return ir.BlockData{"@type": ir.IRString("text")}
}

// formOf builds a form with the given ids, each holding a filled text block.
func formOf(ids ...ir.BlockID) Form {
	f := Form{
		Names:  ir.FieldNames{Data: "blocks", Layout: "blocks_layout"},
		Blocks: make(map[ir.BlockID]ir.BlockData, len(ids)),
		Layout: append([]ir.BlockID{}, ids...),
		Props:  ir.IRObject{},
	}
	for _, id := range ids {
		f.Blocks[id] = textBlock(string(id))
	}
	return f
}

func requireConsistent(t *testing.T, e *Editor, f Form) {
	t.Helper()
	errs := e.Validate(f)
	require.Empty(t, errs, "form violates invariants: %v", errs)
}

func TestEditor_EmptyForm(t *testing.T) {
	e := newTestEditor(t)

	f := e.EmptyForm()

	require.Equal(t, []ir.BlockID{"b-1"}, f.Layout)
	assert.Equal(t, placeholderBlock(), f.Blocks["b-1"])
	assert.Equal(t, ir.FieldNames{Data: "blocks", Layout: "blocks_layout"}, f.Names)
	assert.False(t, e.HasValue(f.Blocks["b-1"]))
	requireConsistent(t, e, f)
}

func TestEditor_MoveBlock(t *testing.T) {
	e := newTestEditor(t)
	f := formOf("a", "b", "c")

	moved, err := e.MoveBlock(f, 0, 2)
	require.NoError(t, err)

	assert.Equal(t, []ir.BlockID{"b", "c", "a"}, moved.Layout)
	assert.Equal(t, f.Blocks, moved.Blocks)
	assert.Equal(t, []ir.BlockID{"a", "b", "c"}, f.Layout, "input must not change")
}

func TestEditor_MoveBlock_SamePositionIsIdentity(t *testing.T) {
	e := newTestEditor(t)
	f := formOf("a", "b", "c")

	moved, err := e.MoveBlock(f, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, f.Layout, moved.Layout)
}

func TestEditor_MoveBlock_OutOfRange(t *testing.T) {
	e := newTestEditor(t)
	f := formOf("a", "b")

	tests := []struct {
		name     string
		from, to int
	}{
		{"negative from", -1, 0},
		{"from past end", 2, 0},
		{"negative to", 0, -1},
		{"to past end", 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.MoveBlock(f, tt.from, tt.to)
			assert.ErrorIs(t, err, ErrIndexOutOfRange)
		})
	}
}

func TestEditor_MoveBlock_RoundTrip(t *testing.T) {
	e := newTestEditor(t)
	f := formOf("a", "b", "c", "d")

	there, err := e.MoveBlock(f, 3, 0)
	require.NoError(t, err)
	back, err := e.MoveBlock(there, 0, 3)
	require.NoError(t, err)

	assert.Equal(t, f.Layout, back.Layout)
}

func TestEditor_DeleteBlock(t *testing.T) {
	e := newTestEditor(t)
	f := formOf("a", "b", "c")

	out, err := e.DeleteBlock(f, "b")
	require.NoError(t, err)

	assert.Equal(t, []ir.BlockID{"a", "c"}, out.Layout)
	assert.NotContains(t, out.Blocks, ir.BlockID("b"))
	assert.Contains(t, f.Blocks, ir.BlockID("b"), "input must not change")
	requireConsistent(t, e, out)
}

func TestEditor_DeleteBlock_LastBlockLeavesDefault(t *testing.T) {
	e := newTestEditor(t)
	f := formOf("only")

	out, err := e.DeleteBlock(f, "only")
	require.NoError(t, err)

	require.Equal(t, []ir.BlockID{"b-1"}, out.Layout)
	assert.Len(t, out.Blocks, 1)
	assert.Equal(t, placeholderBlock(), out.Blocks["b-1"])
}

func TestEditor_DeleteBlock_Unknown(t *testing.T) {
	e := newTestEditor(t)

	_, err := e.DeleteBlock(formOf("a"), "missing")
	assert.ErrorIs(t, err, ErrUnknownBlock)
}

func TestEditor_AddBlock_NonDefaultTypeAddsPlaceholder(t *testing.T) {
	e := newTestEditor(t)
	f := e.EmptyForm() // b-1

	id, out, err := e.AddBlock(f, "image", 0)
	require.NoError(t, err)

	assert.Equal(t, ir.BlockID("b-2"), id)
	assert.Equal(t, []ir.BlockID{"b-2", "b-3", "b-1"}, out.Layout)
	assert.Len(t, out.Blocks, 3)
	assert.Equal(t, ir.BlockData{"@type": ir.IRString("image")}, out.Blocks["b-2"])
	assert.Equal(t, placeholderBlock(), out.Blocks["b-3"])
	requireConsistent(t, e, out)
}

func TestEditor_AddBlock_DefaultTypeAddsOne(t *testing.T) {
	e := newTestEditor(t)
	f := formOf("a", "b")

	id, out, err := e.AddBlock(f, "text", 1)
	require.NoError(t, err)

	assert.Equal(t, []ir.BlockID{"a", id, "b"}, out.Layout)
	assert.Len(t, out.Blocks, 3)
}

func TestEditor_AddBlock_DefaultTypeAppendsOne(t *testing.T) {
	e := newTestEditor(t)
	f := formOf("a", "b")
	before := f.clone()

	id, out, err := e.AddBlock(f, "text", Append)
	require.NoError(t, err)

	assert.Equal(t, []ir.BlockID{"a", "b", id}, out.Layout)
	assert.Len(t, out.Blocks, 3)
	assert.Equal(t, before.Blocks["a"], out.Blocks["a"])
	assert.Equal(t, before.Blocks["b"], out.Blocks["b"])
	assert.Equal(t, "text", e.BlockType(out.Blocks[id]))
	assert.Equal(t, before, f, "input form is unchanged")
	requireConsistent(t, e, out)
}

func TestEditor_AddBlock_Append(t *testing.T) {
	e := newTestEditor(t)
	f := formOf("a", "b")

	id, out, err := e.AddBlock(f, "image", Append)
	require.NoError(t, err)

	assert.Equal(t, []ir.BlockID{"a", "b", id, "b-2"}, out.Layout)
}

func TestEditor_AddBlock_AtEndIndex(t *testing.T) {
	e := newTestEditor(t)
	f := formOf("a")

	id, out, err := e.AddBlock(f, "text", 1)
	require.NoError(t, err)
	assert.Equal(t, []ir.BlockID{"a", id}, out.Layout)
}

func TestEditor_AddBlock_OutOfRange(t *testing.T) {
	e := newTestEditor(t)
	f := formOf("a")

	_, _, err := e.AddBlock(f, "text", 2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, _, err = e.AddBlock(f, "text", -2)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestEditor_MutateBlock_InsertsPlaceholderAfterFilledNext(t *testing.T) {
	e := newTestEditor(t)
	f := formOf("a", "b")

	out, err := e.MutateBlock(f, "a", textBlock("hello"))
	require.NoError(t, err)

	assert.Equal(t, []ir.BlockID{"a", "b-1", "b"}, out.Layout)
	assert.Equal(t, textBlock("hello"), out.Blocks["a"])
	assert.Equal(t, placeholderBlock(), out.Blocks["b-1"])
	requireConsistent(t, e, out)
}

func TestEditor_MutateBlock_ReusesEmptyNext(t *testing.T) {
	e := newTestEditor(t)
	f := formOf("a")
	f.Layout = append(f.Layout, "empty")
	f.Blocks["empty"] = placeholderBlock()

	out, err := e.MutateBlock(f, "a", textBlock("x"))
	require.NoError(t, err)

	assert.Equal(t, []ir.BlockID{"a", "empty"}, out.Layout)
	assert.Len(t, out.Blocks, 2)
}

func TestEditor_MutateBlock_LastBlockGetsPlaceholder(t *testing.T) {
	e := newTestEditor(t)
	f := e.EmptyForm() // b-1

	out, err := e.MutateBlock(f, "b-1", textBlock("typed"))
	require.NoError(t, err)

	assert.Equal(t, []ir.BlockID{"b-1", "b-2"}, out.Layout)
	assert.True(t, e.HasValue(out.Blocks["b-1"]))
	assert.False(t, e.HasValue(out.Blocks["b-2"]))
}

func TestEditor_MutateBlock_TwiceDoesNotGrow(t *testing.T) {
	e := newTestEditor(t)
	f := e.EmptyForm()

	once, err := e.MutateBlock(f, "b-1", textBlock("a"))
	require.NoError(t, err)
	twice, err := e.MutateBlock(once, "b-1", textBlock("ab"))
	require.NoError(t, err)

	assert.Equal(t, once.Layout, twice.Layout)
	assert.Equal(t, textBlock("ab"), twice.Blocks["b-1"])
}

func TestEditor_MutateBlock_LooksOnlyOneAhead(t *testing.T) {
	e := newTestEditor(t)
	// a, filled, empty: the empty block two positions away is not reused.
	f := formOf("a", "filled")
	f.Layout = append(f.Layout, "empty")
	f.Blocks["empty"] = placeholderBlock()

	out, err := e.MutateBlock(f, "a", textBlock("x"))
	require.NoError(t, err)

	assert.Equal(t, []ir.BlockID{"a", "b-1", "filled", "empty"}, out.Layout)
}

func TestEditor_MutateBlock_NilClears(t *testing.T) {
	e := newTestEditor(t)
	f := formOf("a")

	out, err := e.MutateBlock(f, "a", nil)
	require.NoError(t, err)

	data, ok := out.Block("a")
	require.True(t, ok)
	assert.Nil(t, data)
	assert.False(t, e.HasValue(data))
	requireConsistent(t, e, out)
}

func TestEditor_MutateBlock_CopiesValue(t *testing.T) {
	e := newTestEditor(t)
	f := formOf("a")
	value := textBlock("v")

	out, err := e.MutateBlock(f, "a", value)
	require.NoError(t, err)

	value["text"] = ir.IRString("changed later")
	assert.Equal(t, ir.IRString("v"), out.Blocks["a"]["text"])
}

func TestEditor_MutateBlock_Unknown(t *testing.T) {
	e := newTestEditor(t)

	_, err := e.MutateBlock(formOf("a"), "nope", textBlock("x"))
	assert.ErrorIs(t, err, ErrUnknownBlock)
}

func TestEditor_ChangeBlock_KeepsLayout(t *testing.T) {
	e := newTestEditor(t)
	f := formOf("a", "b")

	out, err := e.ChangeBlock(f, "b", textBlock("new"))
	require.NoError(t, err)

	assert.Equal(t, f.Layout, out.Layout)
	assert.Equal(t, textBlock("new"), out.Blocks["b"])
	assert.Equal(t, textBlock("b"), f.Blocks["b"], "input must not change")

	_, err = e.ChangeBlock(f, "zzz", textBlock("x"))
	assert.ErrorIs(t, err, ErrUnknownBlock)
}

func TestEditor_SplitBlock(t *testing.T) {
	e := newTestEditor(t)
	f := formOf("a", "b")

	id, out, err := e.SplitBlock(f, "a", textBlock("he"), textBlock("llo"))
	require.NoError(t, err)

	assert.Equal(t, ir.BlockID("b-1"), id)
	assert.Equal(t, []ir.BlockID{"a", "b-1", "b"}, out.Layout)
	assert.Equal(t, textBlock("he"), out.Blocks["a"])
	assert.Equal(t, textBlock("llo"), out.Blocks["b-1"])
	requireConsistent(t, e, out)
}

func TestEditor_SplitBlock_NilTailIsPlaceholder(t *testing.T) {
	e := newTestEditor(t)

	id, out, err := e.SplitBlock(formOf("a"), "a", textBlock("all"), nil)
	require.NoError(t, err)
	assert.Equal(t, placeholderBlock(), out.Blocks[id])
}

func TestEditor_NextPrevious(t *testing.T) {
	e := newTestEditor(t)
	f := formOf("a", "b", "c")

	next, ok, err := e.NextBlockID(f, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ir.BlockID("b"), next)

	prev, ok, err := e.PreviousBlockID(f, next)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ir.BlockID("a"), prev)

	_, ok, err = e.NextBlockID(f, "c")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = e.PreviousBlockID(f, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = e.NextBlockID(f, "x")
	assert.ErrorIs(t, err, ErrUnknownBlock)
	_, _, err = e.PreviousBlockID(f, "x")
	assert.ErrorIs(t, err, ErrUnknownBlock)
}

func TestEditor_AddEmptyBlock(t *testing.T) {
	e := newTestEditor(t)

	readOnly := func(text string) ir.BlockData {
		data := textBlock(text)
		data["readOnly"] = ir.IRBool(true)
		return data
	}

	t.Run("editable block present", func(t *testing.T) {
		f := formOf("a")
		out := e.AddEmptyBlock(f)
		assert.Equal(t, f.Layout, out.Layout)
	})

	t.Run("placeholder present", func(t *testing.T) {
		f := formOf("a")
		f.Blocks["a"] = readOnly("a")
		f.Layout = append(f.Layout, "p")
		f.Blocks["p"] = placeholderBlock()
		out := e.AddEmptyBlock(f)
		assert.Equal(t, f.Layout, out.Layout)
	})

	t.Run("all read-only and filled", func(t *testing.T) {
		f := formOf("a", "b")
		f.Blocks["a"] = readOnly("a")
		f.Blocks["b"] = readOnly("b")

		out := e.AddEmptyBlock(f)

		require.Len(t, out.Layout, 3)
		last := out.Layout[2]
		assert.Equal(t, placeholderBlock(), out.Blocks[last])
		assert.Len(t, f.Layout, 2, "input must not change")
	})
}

func TestEditor_HasValue(t *testing.T) {
	e := newTestEditor(t)

	assert.False(t, e.HasValue(nil))
	assert.False(t, e.HasValue(placeholderBlock()))
	assert.True(t, e.HasValue(textBlock("x")))
	assert.False(t, e.HasValue(ir.BlockData{"@type": ir.IRString("image"), "url": ir.IRString("")}))
	assert.True(t, e.HasValue(ir.BlockData{"@type": ir.IRString("image"), "url": ir.IRString("/a.png")}))
	assert.True(t, e.HasValue(ir.BlockData{"@type": ir.IRString("video")}), "types without a predicate always have a value")
}

func TestEditor_ListBlocks(t *testing.T) {
	e := newTestEditor(t)
	f := formOf("a", "b")

	entries := e.ListBlocks(f)

	require.Len(t, entries, 2)
	assert.Equal(t, Entry{ID: "a", Data: textBlock("a")}, entries[0])
	assert.Equal(t, Entry{ID: "b", Data: textBlock("b")}, entries[1])
}

// TestEditor_InvariantsHoldAcrossEdits drives a mixed edit sequence and
// checks the document after each step.
func TestEditor_InvariantsHoldAcrossEdits(t *testing.T) {
	e := newTestEditor(t)
	f := e.EmptyForm()

	steps := []func(Form) (Form, error){
		func(f Form) (Form, error) {
			_, out, err := e.AddBlock(f, "image", 0)
			return out, err
		},
		func(f Form) (Form, error) { return e.MutateBlock(f, f.Layout[0], textBlock("one")) },
		func(f Form) (Form, error) { return e.MoveBlock(f, 0, f.Len()-1) },
		func(f Form) (Form, error) { return e.DeleteBlock(f, f.Layout[1]) },
		func(f Form) (Form, error) {
			_, out, err := e.SplitBlock(f, f.Layout[0], textBlock("x"), nil)
			return out, err
		},
		func(f Form) (Form, error) { return e.ChangeBlock(f, f.Layout[0], nil) },
		func(f Form) (Form, error) { return e.AddEmptyBlock(f), nil },
	}

	for i, step := range steps {
		out, err := step(f)
		require.NoError(t, err, "step %d", i)
		requireConsistent(t, e, out)
		f = out
	}

	for len(f.Layout) > 1 {
		var err error
		f, err = e.DeleteBlock(f, f.Layout[0])
		require.NoError(t, err)
		requireConsistent(t, e, f)
	}
	last := f.Layout[0]
	f, err := e.DeleteBlock(f, last)
	require.NoError(t, err)
	require.Len(t, f.Layout, 1)
	assert.NotEqual(t, last, f.Layout[0])
}
