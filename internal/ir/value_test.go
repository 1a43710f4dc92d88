package ir

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	var _ IRValue = IRNull{}
	var _ IRValue = IRString("test")
	var _ IRValue = IRInt(42)
	var _ IRValue = IRBool(true)
	var _ IRValue = IRArray{IRString("a"), IRInt(1)}
	var _ IRValue = IRObject{"key": IRString("value")}
}

func TestIRObjectSortedKeys(t *testing.T) {
	obj := IRObject{
		"blocks_layout": IRNull{},
		"blocks":        IRNull{},
		"@type":         IRNull{},
		"Title":         IRNull{},
	}

	assert.Equal(t, []string{"@type", "Title", "blocks", "blocks_layout"}, obj.SortedKeys())
}

func TestIRObjectAccessors(t *testing.T) {
	obj := IRObject{
		"@type":    IRString("image"),
		"readOnly": IRBool(true),
		"count":    IRInt(2),
	}

	assert.Equal(t, "image", obj.String("@type"))
	assert.Equal(t, "", obj.String("count"))
	assert.Equal(t, "", obj.String("missing"))
	assert.True(t, obj.Bool("readOnly"))
	assert.False(t, obj.Bool("count"))

	var nilObj IRObject
	assert.Equal(t, "", nilObj.String("@type"))
	assert.False(t, nilObj.Bool("readOnly"))
}

func TestIRObjectCloneIsDeep(t *testing.T) {
	orig := IRObject{
		"items": IRArray{IRString("a")},
		"data":  IRObject{"url": IRString("/a.png")},
	}

	clone := orig.Clone()
	clone["items"].(IRArray)[0] = IRString("changed")
	clone["data"].(IRObject)["url"] = IRString("/b.png")
	clone["new"] = IRInt(1)

	assert.Equal(t, IRString("a"), orig["items"].(IRArray)[0])
	assert.Equal(t, IRString("/a.png"), orig["data"].(IRObject)["url"])
	assert.NotContains(t, orig, "new")

	var nilObj IRObject
	assert.Nil(t, nilObj.Clone())
}

func TestIsZeroValue(t *testing.T) {
	tests := []struct {
		name string
		v    IRValue
		want bool
	}{
		{"nil", nil, true},
		{"null", IRNull{}, true},
		{"empty string", IRString(""), true},
		{"string", IRString("x"), false},
		{"empty array", IRArray{}, true},
		{"array", IRArray{IRNull{}}, false},
		{"empty object", IRObject{}, true},
		{"object", IRObject{"a": IRNull{}}, false},
		{"zero int", IRInt(0), false},
		{"false", IRBool(false), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsZeroValue(tt.v))
		})
	}
}

func TestCompareKeysRFC8785(t *testing.T) {
	assert.Equal(t, 0, compareKeysRFC8785("a", "a"))
	assert.Equal(t, -1, compareKeysRFC8785("a", "b"))
	assert.Equal(t, 1, compareKeysRFC8785("b", "a"))
	assert.Equal(t, -1, compareKeysRFC8785("blocks", "blocks_layout"))
	assert.Equal(t, -1, compareKeysRFC8785("\U0001F600", "\uFFFD"))
}

func TestParseObject(t *testing.T) {
	doc, err := ParseObject([]byte(`{
		"title": "Home",
		"blocks": {"a": {"@type": "text", "n": 3}, "b": null},
		"blocks_layout": {"items": ["a", "b"]}
	}`))
	require.NoError(t, err)

	assert.Equal(t, IRString("Home"), doc["title"])
	blocks := doc["blocks"].(IRObject)
	assert.Equal(t, IRObject{"@type": IRString("text"), "n": IRInt(3)}, blocks["a"])
	assert.Equal(t, IRNull{}, blocks["b"])
	assert.Equal(t, IRArray{IRString("a"), IRString("b")}, doc["blocks_layout"].(IRObject)["items"])
}

func TestParseObjectRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"float", `{"width": 1.5}`},
		{"null document", `null`},
		{"not an object", `[1, 2]`},
		{"malformed", `{"a":`},
		{"trailing data", `{} {}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseObject([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestMarshalIRValueRoundTrip(t *testing.T) {
	orig := IRObject{
		"s":    IRString("x"),
		"i":    IRInt(-7),
		"b":    IRBool(false),
		"null": IRNull{},
		"arr":  IRArray{IRInt(1), IRObject{"k": IRString("v")}},
	}

	data, err := json.Marshal(orig)
	require.NoError(t, err)

	var decoded IRObject
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, orig, decoded)
}

func TestFromAny(t *testing.T) {
	v, err := FromAny(map[string]any{
		"@type": "image",
		"size":  2,
		"ratio": float64(4),
		"tags":  []any{"a", nil},
		"ok":    true,
	})
	require.NoError(t, err)

	assert.Equal(t, IRObject{
		"@type": IRString("image"),
		"size":  IRInt(2),
		"ratio": IRInt(4),
		"tags":  IRArray{IRString("a"), IRNull{}},
		"ok":    IRBool(true),
	}, v)

	_, err = FromAny(map[string]any{"w": 0.5})
	assert.Error(t, err)

	big, err := FromAny(uint64(math.MaxInt64))
	require.NoError(t, err)
	assert.Equal(t, IRInt(math.MaxInt64), big)

	_, err = FromAny(map[string]any{"n": uint64(math.MaxUint64)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overflows int64")

	_, err = FromAny(struct{}{})
	assert.Error(t, err)
}

func TestObjectFromAnyNil(t *testing.T) {
	obj, err := ObjectFromAny(nil)
	require.NoError(t, err)
	assert.Nil(t, obj)
}
