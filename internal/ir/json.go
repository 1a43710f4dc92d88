package ir

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// ParseObject decodes a JSON document into an IRObject. Numbers must be
// integers.
func ParseObject(data []byte) (IRObject, error) {
	v, err := parseValue(data)
	if err != nil {
		return nil, err
	}
	switch obj := v.(type) {
	case IRObject:
		return obj, nil
	case IRNull:
		return nil, errors.New("document is null")
	default:
		return nil, fmt.Errorf("document is %T, not an object", v)
	}
}

// parseValue decodes exactly one JSON value, keeping numbers as
// json.Number so large integers survive and floats can be refused.
func parseValue(data []byte) (IRValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after JSON value")
	}
	return FromAny(raw)
}

func (obj *IRObject) UnmarshalJSON(data []byte) error {
	v, err := parseValue(data)
	if err != nil {
		return err
	}
	switch val := v.(type) {
	case IRNull:
		*obj = nil
	case IRObject:
		*obj = val
	default:
		return fmt.Errorf("cannot decode %T into IRObject", v)
	}
	return nil
}

func (arr *IRArray) UnmarshalJSON(data []byte) error {
	v, err := parseValue(data)
	if err != nil {
		return err
	}
	val, ok := v.(IRArray)
	if !ok {
		return fmt.Errorf("cannot decode %T into IRArray", v)
	}
	*arr = val
	return nil
}

// MarshalJSON writes the object with keys in RFC 8785 order.
func (obj IRObject) MarshalJSON() ([]byte, error) {
	return MarshalIRValue(obj)
}

// FromAny converts decoded YAML or JSON values (map[string]any, []any,
// string, integers, bool, nil) into an IRValue. Integral floats become
// IRInt; other floats are rejected.
func FromAny(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return IRNull{}, nil
	case IRValue:
		return val, nil
	case string:
		return IRString(val), nil
	case bool:
		return IRBool(val), nil
	case int:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d overflows int64", val)
		}
		return IRInt(int64(val)), nil
	case float64:
		if val != float64(int64(val)) {
			return nil, fmt.Errorf("non-integer number %v", val)
		}
		return IRInt(int64(val)), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("non-integer number %s", val)
		}
		return IRInt(n), nil
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			x, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = x
		}
		return arr, nil
	case map[string]any:
		obj := make(IRObject, len(val))
		for k, elem := range val {
			x, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			obj[k] = x
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// ObjectFromAny is FromAny restricted to objects. A nil map yields a nil
// IRObject.
func ObjectFromAny(m map[string]any) (IRObject, error) {
	if m == nil {
		return nil, nil
	}
	v, err := FromAny(m)
	if err != nil {
		return nil, err
	}
	return v.(IRObject), nil
}
