package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/blockdoc/internal/ir"
)

// marshalObject converts an IRObject to canonical JSON TEXT for storage.
func marshalObject(what string, obj ir.IRObject) (string, error) {
	if obj == nil {
		obj = ir.IRObject{}
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", what, err)
	}
	return string(data), nil
}

// unmarshalObject parses canonical JSON TEXT to an IRObject. Large integers
// survive because IRObject decodes numbers through json.Number.
func unmarshalObject(what, data string) (ir.IRObject, error) {
	if data == "" || data == "{}" {
		return ir.IRObject{}, nil
	}
	obj, err := ir.ParseObject([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", what, err)
	}
	return obj, nil
}

func marshalNames(names ir.FieldNames) (string, error) {
	data, err := json.Marshal(names)
	if err != nil {
		return "", fmt.Errorf("marshal names: %w", err)
	}
	return string(data), nil
}

func unmarshalNames(data string) (ir.FieldNames, error) {
	var names ir.FieldNames
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return ir.FieldNames{}, fmt.Errorf("unmarshal names: %w", err)
	}
	return names, nil
}
