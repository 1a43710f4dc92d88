package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", IRString("hello"), `"hello"`},
		{"empty string", IRString(""), `""`},
		{"int", IRInt(42), "42"},
		{"negative int", IRInt(-100), "-100"},
		{"max int64", IRInt(9223372036854775807), "9223372036854775807"},
		{"bool true", IRBool(true), "true"},
		{"bool false", IRBool(false), "false"},
		{"null", IRNull{}, "null"},
		{"nil object", IRObject(nil), "null"},
		{"empty array", IRArray{}, "[]"},
		{"empty object", IRObject{}, "{}"},
		{"array of ints", IRArray{IRInt(1), IRInt(2), IRInt(3)}, "[1,2,3]"},
		{"simple object", IRObject{"a": IRInt(1)}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := IRObject{
		"blocks_layout": IRObject{"items": IRArray{IRString("b"), IRString("a")}},
		"blocks":        IRObject{"b": IRObject{"@type": IRString("text")}, "a": IRNull{}},
		"@id":           IRString("/front-page"),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t,
		`{"@id":"/front-page","blocks":{"a":null,"b":{"@type":"text"}},"blocks_layout":{"items":["b","a"]}}`,
		string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+1F600 encodes as surrogate 0xD83D, which sorts before U+FFFD in
	// UTF-16 but after it in UTF-8.
	obj := IRObject{
		"\uFFFD":     IRInt(1),
		"\U0001F600": IRInt(2),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"\uFFFD\":1}", string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical(IRString("<p>a & b</p>"))
	require.NoError(t, err)
	assert.Equal(t, `"<p>a & b</p>"`, string(result))
}

func TestMarshalCanonicalRejectsFloats(t *testing.T) {
	_, err := MarshalCanonical(3.14)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats are forbidden")

	_, err = MarshalCanonical(map[string]any{"width": 1.5})
	require.Error(t, err)
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	decomposed := IRString("e\u0301")
	composed := IRString("\u00e9")

	a, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	b, err := MarshalCanonical(composed)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
}

func TestMarshalCanonicalWithGoTypes(t *testing.T) {
	result, err := MarshalCanonical(map[string]any{
		"title": "Front",
		"count": 3,
		"tags":  []any{"a", true},
		"empty": nil,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"count":3,"empty":null,"tags":["a",true],"title":"Front"}`, string(result))
}

func TestMarshalCanonicalStringEscaping(t *testing.T) {
	result, err := MarshalCanonical(IRString("line\nquote\"back\\"))
	require.NoError(t, err)
	assert.Equal(t, `"line\nquote\"back\\"`, string(result))
}

func TestMarshalCanonicalLineSeparatorsNotEscaped(t *testing.T) {
	result, err := MarshalCanonical(IRString("a\u2028b\u2029c"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(result))
}

func TestMarshalCanonicalLiteralBackslashU2028(t *testing.T) {
	// The text `\u2028` (backslash, then letters) must stay escaped.
	result, err := MarshalCanonical(IRString(`\u2028`))
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(result))
}

func TestMarshalCanonicalIdempotent(t *testing.T) {
	doc := IRObject{
		"blocks": IRObject{
			"x": IRObject{"@type": IRString("image"), "url": IRString("/a.png")},
		},
		"blocks_layout": IRObject{"items": IRArray{IRString("x")}},
	}

	first, err := MarshalCanonical(doc)
	require.NoError(t, err)

	parsed, err := ParseObject(first)
	require.NoError(t, err)

	second, err := MarshalCanonical(parsed)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestMarshalCanonicalControlEscapes(t *testing.T) {
	result, err := MarshalCanonical(IRString("\b\f\t\r\x01\x1f"))
	require.NoError(t, err)
	assert.Equal(t, `"\b\f\t\r\u0001\u001f"`, string(result))
}

func TestMarshalIRValueKeepsDecomposedStrings(t *testing.T) {
	result, err := MarshalIRValue(IRObject{"b": IRString("e\u0301"), "a": IRInt(1)})
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1,\"b\":\"e\u0301\"}", string(result))
}
