package blocks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blockdoc/internal/config"
	"github.com/roach88/blockdoc/internal/ir"
)

const sampleDocument = `{
	"title": "Front page",
	"volto.blocks": {"ignored": true},
	"blocks": {
		"a": {"@type": "title"},
		"b": {"@type": "text", "text": "hello"},
		"c": null
	},
	"blocks_layout": {"items": ["a", "b", "c"]}
}`

func TestResolveFieldNames(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		want    ir.FieldNames
		wantErr error
	}{
		{
			name: "default names",
			doc:  sampleDocument,
			want: ir.FieldNames{Data: "blocks", Layout: "blocks_layout"},
		},
		{
			name: "prefixed names",
			doc:  `{"page_blocks": {}, "page_blocks_layout": {}}`,
			want: ir.FieldNames{Data: "page_blocks", Layout: "page_blocks_layout"},
		},
		{
			name:    "reserved key only",
			doc:     `{"volto.blocks": {}, "blocks_layout": {}}`,
			wantErr: ErrMissingBlocksField,
		},
		{
			name:    "no layout",
			doc:     `{"blocks": {}}`,
			wantErr: ErrMissingLayoutField,
		},
		{
			name:    "plain object",
			doc:     `{"title": "x"}`,
			wantErr: ErrMissingBlocksField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ir.ParseObject([]byte(tt.doc))
			require.NoError(t, err)

			got, err := ResolveFieldNames(doc, config.Default())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasBlocksData(t *testing.T) {
	s := config.Default()

	withBlocks, err := ir.ParseObject([]byte(`{"blocks": {}}`))
	require.NoError(t, err)
	assert.True(t, HasBlocksData(withBlocks, s), "layout is not required")

	without, err := ir.ParseObject([]byte(`{"volto.blocks": {}}`))
	require.NoError(t, err)
	assert.False(t, HasBlocksData(without, s))
}

func TestEditor_DecodeEncode(t *testing.T) {
	e := newTestEditor(t)
	doc, err := ir.ParseObject([]byte(sampleDocument))
	require.NoError(t, err)

	f, err := e.Decode(doc)
	require.NoError(t, err)

	assert.Equal(t, []ir.BlockID{"a", "b", "c"}, f.Layout)
	assert.Nil(t, f.Blocks["c"])
	assert.Equal(t, ir.IRString("Front page"), f.Props["title"])
	assert.Contains(t, f.Props, "volto.blocks")
	assert.NotContains(t, f.Props, "blocks")

	encoded := e.Encode(f)
	want, err := ir.MarshalCanonical(doc)
	require.NoError(t, err)
	got, err := ir.MarshalCanonical(encoded)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))
}

func TestEditor_Decode_MissingItemsIsEmptyLayout(t *testing.T) {
	e := newTestEditor(t)
	doc, err := ir.ParseObject([]byte(`{"blocks": {}, "blocks_layout": {}}`))
	require.NoError(t, err)

	f, err := e.Decode(doc)
	require.NoError(t, err)
	assert.Empty(t, f.Layout)
}

func TestEditor_Decode_Malformed(t *testing.T) {
	e := newTestEditor(t)

	tests := []struct {
		name string
		doc  string
	}{
		{"blocks not an object", `{"blocks": [], "blocks_layout": {"items": []}}`},
		{"block not an object", `{"blocks": {"a": "text"}, "blocks_layout": {"items": ["a"]}}`},
		{"layout not an object", `{"blocks": {}, "blocks_layout": []}`},
		{"items not an array", `{"blocks": {}, "blocks_layout": {"items": "a"}}`},
		{"item not a string", `{"blocks": {}, "blocks_layout": {"items": [1]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ir.ParseObject([]byte(tt.doc))
			require.NoError(t, err)

			_, err = e.Decode(doc)
			assert.Error(t, err)
		})
	}
}

func TestEditor_EncodeEmptyForm(t *testing.T) {
	e := newTestEditor(t)

	doc := e.Encode(e.EmptyForm())

	out, err := ir.MarshalCanonical(doc)
	require.NoError(t, err)
	assert.Equal(t,
		`{"blocks":{"b-1":{"@type":"text"}},"blocks_layout":{"items":["b-1"]}}`,
		string(out))
}

func TestEditor_EncodeZeroNamesUsesSuffixes(t *testing.T) {
	e := newTestEditor(t)
	f := formOf("a")
	f.Names = ir.FieldNames{}
	f.Props = nil

	doc := e.Encode(f)

	assert.Contains(t, doc, "blocks")
	assert.Contains(t, doc, "blocks_layout")
}

func TestForm_CloneIsIndependent(t *testing.T) {
	f := formOf("a", "b")

	c := f.clone()
	c.Layout[0] = "z"
	delete(c.Blocks, "b")

	assert.Equal(t, []ir.BlockID{"a", "b"}, f.Layout)
	assert.Contains(t, f.Blocks, ir.BlockID("b"))
}

func TestForm_CloneNilBlocks(t *testing.T) {
	var f Form

	c := f.clone()
	c.Blocks["x"] = nil

	assert.Nil(t, f.Blocks)
}
