package ir

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON. It is the only encoding
// used for content hashes and for persisted revisions.
//
// Keys are ordered by UTF-16 code units and strings are NFC normalized.
// Only quote, backslash and control characters are escaped. Floats are
// rejected. Null is allowed since a cleared block is stored as null.
//
// v may be an IRValue or a plain decoded value accepted by FromAny.
func MarshalCanonical(v any) ([]byte, error) {
	val, ok := v.(IRValue)
	if !ok && v != nil {
		switch v.(type) {
		case float32, float64:
			return nil, fmt.Errorf("floats are forbidden in canonical JSON: %v", v)
		}
		var err error
		if val, err = FromAny(v); err != nil {
			return nil, fmt.Errorf("canonical JSON: %w", err)
		}
	}
	return encodeValue(val, true)
}

// MarshalIRValue encodes v as compact JSON with sorted keys. Strings are
// written as given; use MarshalCanonical when the bytes feed a hash.
func MarshalIRValue(v IRValue) ([]byte, error) {
	return encodeValue(v, false)
}

func encodeValue(v IRValue, canonical bool) ([]byte, error) {
	e := valueEncoder{canonical: canonical}
	if err := e.value(v); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

type valueEncoder struct {
	buf       bytes.Buffer
	canonical bool
}

func (e *valueEncoder) value(v IRValue) error {
	switch val := v.(type) {
	case nil, IRNull:
		e.buf.WriteString("null")
	case IRString:
		e.str(string(val))
	case IRInt:
		e.buf.WriteString(strconv.FormatInt(int64(val), 10))
	case IRBool:
		e.buf.WriteString(strconv.FormatBool(bool(val)))
	case IRArray:
		e.buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			if err := e.value(elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		e.buf.WriteByte(']')
	case IRObject:
		if val == nil {
			e.buf.WriteString("null")
			return nil
		}
		e.buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			e.str(k)
			e.buf.WriteByte(':')
			if err := e.value(val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		e.buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown IRValue type: %T", v)
	}
	return nil
}

const hexDigits = "0123456789abcdef"

// str writes s as a JSON string using the RFC 8785 escapes: the two-letter
// forms for \b \t \n \f \r, \u00xx for other control characters, and
// everything else literal. Invalid UTF-8 becomes U+FFFD.
func (e *valueEncoder) str(s string) {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if e.canonical {
		s = norm.NFC.String(s)
	}

	e.buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"', '\\':
			e.buf.WriteByte('\\')
			e.buf.WriteByte(c)
		case '\b':
			e.buf.WriteString(`\b`)
		case '\t':
			e.buf.WriteString(`\t`)
		case '\n':
			e.buf.WriteString(`\n`)
		case '\f':
			e.buf.WriteString(`\f`)
		case '\r':
			e.buf.WriteString(`\r`)
		default:
			if c < 0x20 {
				e.buf.WriteString(`\u00`)
				e.buf.WriteByte(hexDigits[c>>4])
				e.buf.WriteByte(hexDigits[c&0xf])
				continue
			}
			e.buf.WriteByte(c)
		}
	}
	e.buf.WriteByte('"')
}
